package codec

import (
	"bytes"

	"github.com/crushlang/crush/internal/crushmap"
)

// Encode serializes a finalized Map to its binary wire form: a
// concatenation of length-prefixed sections in a fixed order — header,
// devices, bucket directory, bucket bodies, rules, name tables.
func Encode(m *crushmap.Map) ([]byte, error) {
	if err := m.RequireFinalized(); err != nil {
		return nil, errNotFinalized()
	}

	var out bytes.Buffer

	appendSection(&out, encodeHeader())
	appendSection(&out, encodeDevices(m))

	bodies, offsets := encodeBucketBodies(m)
	appendSection(&out, encodeBucketDirectory(m, offsets))
	appendSection(&out, bodies)

	appendSection(&out, encodeRules(m))
	appendSection(&out, encodeNameTables(m))

	return out.Bytes(), nil
}

func encodeHeader() []byte {
	w := &writer{}
	w.buf.Write(magic[:])
	w.u32(version)
	return w.bytes()
}

func encodeDevices(m *crushmap.Map) []byte {
	devices := m.Devices()
	w := &writer{}
	w.u32(uint32(m.MaxDevices()))
	w.u32(uint32(len(devices)))
	for _, d := range devices {
		w.i32(int32(d.ID))
		w.u32(uint32(d.Offload))
	}
	return w.bytes()
}

func encodeBucketDirectory(m *crushmap.Map, offsets map[crushmap.BucketID]uint32) []byte {
	buckets := m.Buckets()
	w := &writer{}
	w.u32(uint32(len(buckets)))
	for _, b := range buckets {
		w.i32(int32(b.ID))
		w.u32(offsets[b.ID])
	}
	return w.bytes()
}

// encodeBucketBodies concatenates every bucket's body, in the same id
// order the directory lists them (most negative first), and returns the
// byte offset of each within the blob.
func encodeBucketBodies(m *crushmap.Map) ([]byte, map[crushmap.BucketID]uint32) {
	buckets := m.Buckets()
	var blob bytes.Buffer
	offsets := make(map[crushmap.BucketID]uint32, len(buckets))
	for _, b := range buckets {
		offsets[b.ID] = uint32(blob.Len())
		blob.Write(encodeBucketBody(b))
	}
	return blob.Bytes(), offsets
}

func encodeBucketBody(b *crushmap.Bucket) []byte {
	w := &writer{}
	w.i32(int32(b.ID))
	w.i32(int32(b.TypeLevel))
	w.u8(uint8(b.Alg))
	w.u64(b.SummedWeight)
	w.u32(uint32(len(b.Items)))

	for _, item := range b.Items {
		w.i32(int32(item))
	}
	for _, weight := range b.Weights {
		w.u32(uint32(weight))
	}

	switch data := b.AlgData.(type) {
	case crushmap.UniformData:
		w.u32(uint32(data.ItemWeight))
	case crushmap.ListData:
		for _, v := range data.CumulativeFromHere {
			w.u64(v)
		}
	case crushmap.TreeData:
		w.u32(uint32(len(data.Nodes)))
		for _, v := range data.Nodes {
			w.u64(v)
		}
	case crushmap.StrawData:
		for _, v := range data.StrawLengths {
			w.u64(v)
		}
	}

	return w.bytes()
}

func encodeRules(m *crushmap.Map) []byte {
	rules := m.Rules()
	w := &writer{}
	w.u32(uint32(len(rules)))
	for _, r := range rules {
		w.i32(int32(r.Pool))
		w.u8(uint8(r.Kind))
		w.i32(int32(r.MinSize))
		w.i32(int32(r.MaxSize))
		w.u32(uint32(len(r.Steps)))
		for _, s := range r.Steps {
			w.u8(uint8(s.Op))
			w.i32(int32(s.Arg1))
			w.i32(int32(s.Arg2))
		}
	}
	return w.bytes()
}

// encodeNameTables writes type names, item names (devices and buckets
// share the item namespace), and rule names, each as its own count-prefixed
// run of (key, string) pairs.
func encodeNameTables(m *crushmap.Map) []byte {
	w := &writer{}

	types := m.Types()
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.i32(int32(t.Level))
		w.str(t.Name)
	}

	devices := m.Devices()
	buckets := m.Buckets()
	w.u32(uint32(len(devices) + len(buckets)))
	for _, d := range devices {
		w.i32(int32(d.ID))
		w.str(d.Name)
	}
	for _, b := range buckets {
		w.i32(int32(b.ID))
		w.str(b.Name)
	}

	named := 0
	for _, r := range m.Rules() {
		if r.Name != "" {
			named++
		}
	}
	w.u32(uint32(named))
	for i, r := range m.Rules() {
		if r.Name == "" {
			continue
		}
		w.u32(uint32(i))
		w.str(r.Name)
	}

	return w.bytes()
}
