package xelishash

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
	chacha20 "gitlab.com/yawning/chacha20.git"

	"github.com/xelis-project/xelis-pool/internal/aesround"
)

// Tunable parameters for XelisHash v2. In bytes the scratchpad is ~440KB.
const (
	v2MemorySize      = 429 * 128
	v2MemorySizeBytes = v2MemorySize * 8

	v2ScratchpadIters = 3
	v2BufferSize      = v2MemorySize / 2

	stage1ChunkSize = 32
	stage1NonceSize = 12
)

// v2Key is the AES round key stage 3 mixes through.
var v2Key = [16]byte{'x', 'e', 'l', 'i', 's', 'h', 'a', 's', 'h', '-', 'p', 'o', 'w', '-', 'v', '2'}

// HashV2 computes the XelisHash v2 digest of input using pad, which must
// have been built with NewScratchPadV2 and may be reused across calls.
func HashV2(input []byte, pad *ScratchPad) (Digest, error) {
	if pad.Len() != v2MemorySize {
		return Digest{}, ErrCast
	}

	if err := stage1Seed(input, pad, v2MemorySizeBytes, stage1ChunkSize); err != nil {
		return Digest{}, err
	}

	if err := stage3V2(pad.Words()); err != nil {
		return Digest{}, err
	}

	return stage4Finalize(pad), nil
}

// stage1Seed fills the scratchpad deterministically from input using a
// Blake3-derived ChaCha8 keystream, chunked so that each 32-byte slice
// of the input re-seeds the cipher and updates its nonce from its own
// output. Shared by v2 and v3 (v3 reuses it verbatim).
func stage1Seed(input []byte, pad *ScratchPad, outputSize, chunkSize int) error {
	bytes := pad.Bytes()
	if len(bytes) != outputSize {
		return ErrCast
	}
	for i := range bytes {
		bytes[i] = 0
	}

	inputHash := blake3Sum(input)
	var nonce [stage1NonceSize]byte
	copy(nonce[:], inputHash[:stage1NonceSize])

	numChunks := (len(input) + chunkSize - 1) / chunkSize
	if numChunks == 0 {
		numChunks = 1
	}

	outputOffset := 0
	for chunkIndex := 0; chunkIndex < numChunks; chunkIndex++ {
		start := chunkIndex * chunkSize
		end := start + chunkSize
		if end > len(input) {
			end = len(input)
		}
		chunk := input[start:end]

		// tmp is always a full two-hash-sized, zero-padded buffer: a
		// short final chunk leaves the tail zero rather than shrinking
		// what gets hashed, matching the reference's fixed-size buffer.
		var tmp [2 * HashSize]byte
		copy(tmp[0:HashSize], inputHash[:])
		copy(tmp[HashSize:HashSize+len(chunk)], chunk)
		inputHash = blake3Sum(tmp[:])

		cipher, err := chacha20.NewCipher(inputHash[:], nonce[:])
		if err != nil {
			return err
		}
		cipher.SetRounds(8)

		remaining := outputSize - outputOffset
		chunksLeft := numChunks - chunkIndex
		current := remaining / chunksLeft
		if current > remaining {
			current = remaining
		}

		// Matches the reference exactly: the write offset is
		// chunkIndex*current, not a running cumulative sum. The two
		// only coincide when every chunk before the last produces the
		// same current size, which holds whenever remaining divides
		// evenly across the chunks left.
		offset := chunkIndex * current
		part := bytes[offset : offset+current]
		cipher.XORKeyStream(part, part)

		nonceStart := current - stage1NonceSize
		if nonceStart < 0 {
			nonceStart = 0
		}
		copy(nonce[:], part[nonceStart:])

		outputOffset += current
	}

	return nil
}

// stage3V2 is the memory-hard mixing loop: v2.rs stage_3 transliterated
// branch for branch, arithmetic operator for arithmetic operator.
func stage3V2(pad []uint64) error {
	a, b := pad[:v2BufferSize], pad[v2BufferSize:]
	bufferSize := uint64(v2BufferSize)

	addrA := b[v2BufferSize-1]
	addrB := a[v2BufferSize-1] >> 32
	r := 0

	for i := uint64(0); i < v2ScratchpadIters; i++ {
		indexA := addrA % bufferSize
		indexB := addrB % bufferSize

		memA := a[indexA]
		memB := b[indexB]

		var block [16]byte
		binary.LittleEndian.PutUint64(block[0:8], memB)
		binary.LittleEndian.PutUint64(block[8:16], memA)

		aesround.Round(&block, &v2Key)

		hash1 := binary.LittleEndian.Uint64(block[0:8])
		hash2 := memA ^ memB
		result := ^(hash1 ^ hash2)

		for j := uint64(0); j < v2BufferSize; j++ {
			indexA := result % bufferSize
			indexB := (^rotr64(result, uint32(r))) % bufferSize

			av := a[indexA]
			bv := b[indexB]

			var c uint64
			if r < v2BufferSize {
				c = a[r]
			} else {
				c = b[r-v2BufferSize]
			}
			if r < v2MemorySize-1 {
				r++
			} else {
				r = 0
			}

			branchIdx := uint8(rotl64(result, uint32(c)) & 0xf)

			v := result ^ v2Branch(branchIdx, av, bv, c, result, uint32(r), i, j)

			result = rotl64(v, 1)

			t := a[v2BufferSize-j-1] ^ result
			a[v2BufferSize-j-1] = t
			b[j] ^= rotr64(t, uint32(result))
		}

		addrA = result
		addrB = isqrt(result)
	}

	return nil
}

func v2Branch(idx uint8, a, b, c, result uint64, r uint32, i, j uint64) uint64 {
	switch idx {
	case 0:
		return rotl64(c, uint32(i*j)) ^ b
	case 1:
		return rotr64(c, uint32(i*j)) ^ a
	case 2:
		return a ^ b ^ c
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

// stage4Finalize hashes the whole scratchpad with Blake3 so no shortcut
// through the computation above it can avoid touching all of it.
func stage4Finalize(pad *ScratchPad) Digest {
	return blake3Sum(pad.Bytes())
}

// blake3Sum hashes data with Blake3 into a fixed 32-byte digest.
func blake3Sum(data []byte) Digest {
	hasher := blake3.New()
	hasher.Write(data)
	var out Digest
	copy(out[:], hasher.Sum(nil))
	return out
}
