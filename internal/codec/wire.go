package codec

import (
	"bytes"
	"encoding/binary"
)

// magic and version identify the on-disk format. They permit a
// compatibility check on decode; an unknown version is a hard error.
var magic = [4]byte{'C', 'R', 'S', 'H'}

const version uint32 = 1

// writer accumulates a section's payload before it is length-prefixed and
// appended to the overall output by appendSection().
type writer struct {
	buf bytes.Buffer
}

func (w *writer) u8(v uint8)   { w.buf.WriteByte(v) }
func (w *writer) u32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); w.buf.Write(b[:]) }
func (w *writer) u64(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); w.buf.Write(b[:]) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

// appendSection appends a length-prefixed copy of payload to out, one of a
// concatenation of length-prefixed sections emitted in a fixed order.
func appendSection(out *bytes.Buffer, payload []byte) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out.Write(lenBuf[:])
	out.Write(payload)
}

// reader consumes a single section's payload sequentially, erroring on
// truncation rather than panicking on an out-of-range slice.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) take(n int, what string) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, errTruncated(what)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8(what string) (uint8, error) {
	b, err := r.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) i32(what string) (int32, error) {
	v, err := r.u32(what)
	return int32(v), err
}

func (r *reader) u64(what string) (uint64, error) {
	b, err := r.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) str(what string) (string, error) {
	n, err := r.u32(what + " length")
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n), what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) eof() bool { return r.pos >= len(r.data) }

// nextSection reads the next length-prefixed section out of the top-level
// stream and returns a fresh reader scoped to exactly its payload, erroring
// if the declared size runs past the remaining bytes.
func nextSection(top *reader, name string) (*reader, error) {
	n, err := top.u32(name + " section length")
	if err != nil {
		return nil, err
	}
	if top.pos+int(n) > len(top.data) {
		return nil, errSectionOverrun(name)
	}
	payload := top.data[top.pos : top.pos+int(n)]
	top.pos += int(n)
	return newReader(payload), nil
}
