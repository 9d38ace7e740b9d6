package xelishash

import (
	"encoding/binary"

	"github.com/xelis-project/xelis-pool/internal/aesround"
)

// Tunable parameters for XelisHash v3. In bytes the scratchpad is ~544KB.
const (
	v3MemorySize      = 531 * 128
	v3MemorySizeBytes = v3MemorySize * 8

	v3ScratchpadIters = 2
	v3BufferSize      = v3MemorySize / 2
)

// v3Key is the AES round key stage 3 mixes through.
var v3Key = [16]byte{'x', 'e', 'l', 'i', 's', 'h', 'a', 's', 'h', '-', 'p', 'o', 'w', '-', 'v', '3'}

// HashV3 computes the XelisHash v3 digest of input using pad, which must
// have been built with NewScratchPadV3 and may be reused across calls.
func HashV3(input []byte, pad *ScratchPad) (Digest, error) {
	if pad.Len() != v3MemorySize {
		return Digest{}, ErrCast
	}

	if err := stage1Seed(input, pad, v3MemorySizeBytes, stage1ChunkSize); err != nil {
		return Digest{}, err
	}

	if err := stage3V3(pad.Words()); err != nil {
		return Digest{}, err
	}

	return stage4Finalize(pad), nil
}

// stage3V3 is v3's memory-hard mixing loop. It shares its outer shape with
// stage3V2 but addresses both halves through map_index/pick_half instead
// of a plain modulo, and folds the branch result into the post-step
// instead of xoring it with result up front.
func stage3V3(pad []uint64) error {
	a, b := pad[:v3BufferSize], pad[v3BufferSize:]
	bufferSize := uint64(v3BufferSize)

	addrA := b[v3BufferSize-1]
	addrB := a[v3BufferSize-1] >> 32
	r := 0

	for i := uint64(0); i < v3ScratchpadIters; i++ {
		indexA := mapIndex(addrA, bufferSize)
		memA := a[indexA]
		indexB := mapIndex(memA^addrB, bufferSize)
		memB := b[indexB]

		var block [16]byte
		binary.LittleEndian.PutUint64(block[0:8], memB)
		binary.LittleEndian.PutUint64(block[8:16], memA)

		aesRoundV3(&block)

		hash1 := binary.LittleEndian.Uint64(block[0:8])
		hash2 := binary.LittleEndian.Uint64(block[8:16])
		result := ^(hash1 ^ hash2)

		for j := uint64(0); j < v3BufferSize; j++ {
			indexA := mapIndex(result, bufferSize)
			av := a[indexA]
			indexB := mapIndex(av^(^rotr64(result, uint32(r))), bufferSize)
			bv := b[indexB]

			var c uint64
			if r < v3BufferSize {
				c = a[r]
			} else {
				c = b[r-v3BufferSize]
			}
			if r < v3MemorySize-1 {
				r++
			} else {
				r = 0
			}

			branchIdx := uint8(rotl64(result, uint32(c)) & 0xf)

			v := v3Branch(branchIdx, av, bv, c, result, uint32(r), i, j)

			seed := v ^ result
			result = rotl64(seed, uint32(r))

			useBufferB := pickHalf(v)
			indexT := mapIndex(seed, bufferSize)

			var t uint64
			if useBufferB {
				t = b[indexT] ^ result
			} else {
				t = a[indexT] ^ result
			}

			indexA2 := mapIndex(t^result^0x9e3779b97f4a7c15, bufferSize)
			indexB2 := mapIndex(indexA2^(^result)^0xd2b74407b1ce6e93, bufferSize)

			prevA := a[indexA2]
			a[indexA2] = t
			b[indexB2] ^= prevA ^ rotr64(t, uint32(i+j))
		}

		addrA = modularPower(addrA, addrB, result)
		addrB = isqrt(result) * uint64(r+1) * isqrt(addrA)
	}

	return nil
}

func v3Branch(idx uint8, a, b, c, result uint64, r uint32, i, j uint64) uint64 {
	switch idx {
	case 0:
		mod := combineU64(0, murmurhash3(c^result^i^j)|1)
		_, rem := combineU64(a+i, isqrt(b+j)).QuoRem(mod)
		return rem.Low64()
	case 1:
		quo := (c + i) % isqrt(b|2)
		return rotl64(quo, uint32(i+j)) * isqrt(a+j)
	case 2:
		return (isqrt(a+i) * isqrt(c+j)) ^ (b + i + j)
	case 3:
		return (a + b) * c
	case 4:
		return (b - c) * a
	case 5:
		return c - a + b
	case 6:
		return a - b + c
	case 7:
		return b*c + a
	case 8:
		return c*a + b
	case 9:
		return a * b * c
	case 10:
		_, rem := combineU64(a, b).QuoRem(combineU64(0, c|1))
		return rem.Low64()
	case 11:
		t1 := combineU64(b, c)
		t2 := combineU64(rotl64(result, r), a|2)
		if t2.Cmp(t1) > 0 {
			return c
		}
		_, rem := t1.QuoRem(t2)
		return rem.Low64()
	case 12:
		t1 := combineU64(c, a)
		t2 := combineU64(0, b|4)
		quo, _ := t1.QuoRem(t2)
		return quo.Low64()
	case 13:
		t1 := combineU64(rotl64(result, r), b)
		t2 := combineU64(a, c|8)
		if t1.Cmp(t2) > 0 {
			quo, _ := t1.QuoRem(t2)
			return quo.Low64()
		}
		return a ^ b
	case 14:
		product := combineU64(b, a).Mul(combineU64(0, c))
		return product.Rsh64().Low64()
	case 15:
		product := combineU64(a, c).Mul(combineU64(rotr64(result, r), b))
		return product.Rsh64().Low64()
	default:
		panic("xelishash: branch index out of range")
	}
}

// aesRoundV3 applies the single AES round with the v3 key to block.
func aesRoundV3(block *[16]byte) {
	aesround.Round(block, &v3Key)
}
