package placement

import "hash/fnv"

// crushHash produces a deterministic pseudo-random value from the four
// inputs a placement draw is seeded on: input_key, bucket_id,
// replica_index, and try_index. hash/fnv is used rather than a PRNG
// because the kernel needs a pure function of its inputs, repeatable
// across calls and processes, not a stream of successive draws.
func crushHash(inputKey uint64, bucketID int32, replicaIndex, tryIndex int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putUint64(&buf, inputKey)
	h.Write(buf[:])
	putUint64(&buf, uint64(uint32(bucketID)))
	h.Write(buf[:])
	putUint64(&buf, uint64(replicaIndex))
	h.Write(buf[:])
	putUint64(&buf, uint64(tryIndex))
	h.Write(buf[:])
	return h.Sum64()
}

// itemHash derives a per-item variant of crushHash for STRAW's
// hash_xor(item) term.
func itemHash(base uint64, itemIndex int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	putUint64(&buf, base)
	h.Write(buf[:])
	putUint64(&buf, uint64(itemIndex))
	h.Write(buf[:])
	// FNV-1a diffuses its last input bytes poorly, so finish with a 64-bit
	// mixer before STRAW takes its 16-bit draw from the result.
	x := h.Sum64()
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}

func putUint64(buf *[8]byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}
