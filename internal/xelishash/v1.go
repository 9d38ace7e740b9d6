package xelishash

import (
	"encoding/binary"

	"github.com/xelis-project/xelis-pool/internal/aesround"
	"github.com/xelis-project/xelis-pool/internal/keccakp"
)

// Tunable parameters for XelisHash v1.
const (
	v1MemorySize      = 32768
	v1ScratchpadIters = 5000
	v1BufferSize      = 42
	v1SlotLength      = 256

	keccakWords = 25
	v1InputSize = keccakWords * 8 // 200 bytes
	v1Stage1Max = v1MemorySize / keccakWords
)

// v1Key is stage 3's AES round key: sixteen zero bytes.
var v1Key [16]byte

// HashV1 computes the XelisHash v1 digest of a 200-byte input using pad,
// which must have been built with NewScratchPadV1 and may be reused
// across calls.
func HashV1(input []byte, pad *ScratchPad) (Digest, error) {
	if len(input) != v1InputSize {
		return Digest{}, ErrFormat
	}
	if pad.Len() != v1MemorySize {
		return Digest{}, ErrCast
	}

	var state [keccakWords]uint64
	for i := range state {
		state[i] = binary.LittleEndian.Uint64(input[i*8 : i*8+8])
	}

	scratch := pad.Words()

	stage1V1(&state, scratch, 0, v1Stage1Max-1, 0, keccakWords-1)
	stage1V1(&state, scratch, v1Stage1Max, v1Stage1Max, 0, 17)

	stage2V1(pad.Words32())

	return stage3V1(scratch)
}

// stage1V1 runs the Keccak-p-driven seeding loop for i in [aLo, aHi] and
// j in [bLo, bHi], writing scratch[i*KECCAK_WORDS+j] each step.
func stage1V1(state *[keccakWords]uint64, scratch []uint64, aLo, aHi, bLo, bHi int) {
	for i := aLo; i <= aHi; i++ {
		keccakp.Permute(state)

		var randInt uint64
		for j := bLo; j <= bHi; j++ {
			pairIdx := (j + 1) % keccakWords
			pairIdx2 := (j + 2) % keccakWords

			targetIdx := i*keccakWords + j
			a := state[j] ^ randInt

			left := state[pairIdx]
			right := state[pairIdx2]
			xor := left ^ right

			var v uint64
			switch xor & 0x3 {
			case 0:
				v = left & right
			case 1:
				v = ^(left & right)
			case 2:
				v = ^xor
			case 3:
				v = xor
			}

			b := a ^ v
			randInt = b
			scratch[targetIdx] = b
		}
	}
}

// stage2V1 is the slot-sort mixing pass: a running signed sum over
// SLOT_LENGTH-word slots drives an in-place Fisher-Yates-style index
// permutation of the scratchpad's u32 view.
func stage2V1(smallPad []uint32) {
	var slots [v1SlotLength]uint32
	copy(slots[:], smallPad[len(smallPad)-v1SlotLength:])

	var indices [v1SlotLength]uint16

	for j := 0; j < len(smallPad)/v1SlotLength; j++ {
		var totalSum uint32
		for k := 0; k < v1SlotLength; k++ {
			indices[k] = uint16(k)
			if slots[k]>>31 == 0 {
				totalSum += smallPad[j*v1SlotLength+k]
			} else {
				totalSum -= smallPad[j*v1SlotLength+k]
			}
		}

		for slotIdx := v1SlotLength - 1; slotIdx >= 0; slotIdx-- {
			indexInIndices := int(smallPad[j*v1SlotLength+slotIdx] % (uint32(slotIdx) + 1))
			index := int(indices[indexInIndices])
			indices[indexInIndices] = indices[slotIdx]

			localSum := totalSum
			s1 := int32(slots[index] >> 31)
			padValue := smallPad[j*v1SlotLength+index]
			if s1 == 0 {
				localSum -= padValue
			} else {
				localSum += padValue
			}

			slots[index] += localSum

			s2 := int32(slots[index] >> 31)
			totalSum -= 2 * (smallPad[j*v1SlotLength+index] * uint32(-s1+s2))
		}
	}

	copy(smallPad[len(smallPad)-v1SlotLength:], slots[:])
}

// stage3V1 is the 5000-iteration mixing loop over a 42-word circular
// buffer pair. The digest is not a separate finalization step: it is
// assembled from the last four `result` values written big-endian.
func stage3V1(scratch []uint64) (Digest, error) {
	var block [16]byte

	addrA := (scratch[v1MemorySize-1] >> 15) & 0x7FFF
	addrB := scratch[v1MemorySize-1] & 0x7FFF

	var memBufferA, memBufferB [v1BufferSize]uint64
	for i := uint64(0); i < v1BufferSize; i++ {
		memBufferA[i] = scratch[(addrA+i)%v1MemorySize]
		memBufferB[i] = scratch[(addrB+i)%v1MemorySize]
	}

	var digest Digest

	for i := 0; i < v1ScratchpadIters; i++ {
		memA := memBufferA[i%v1BufferSize]
		memB := memBufferB[i%v1BufferSize]

		binary.LittleEndian.PutUint64(block[0:8], memB)
		binary.LittleEndian.PutUint64(block[8:16], memA)

		aesround.Round(&block, &v1Key)

		hash1 := binary.LittleEndian.Uint64(block[0:8])
		hash2 := memA ^ memB

		result := ^(hash1 ^ hash2)

		for j := 0; j < HashSize; j++ {
			a := memBufferA[(j+i)%v1BufferSize]
			b := memBufferB[(j+i)%v1BufferSize]

			var v uint64
			switch (result >> (uint(j) * 2)) & 0xf {
			case 0:
				v = rotl64(result, uint32(j)) ^ b
			case 1:
				v = ^(rotl64(result, uint32(j)) ^ a)
			case 2:
				v = ^(result ^ a)
			case 3:
				v = result ^ b
			case 4:
				v = result ^ (a + b)
			case 5:
				v = result ^ (a - b)
			case 6:
				v = result ^ (b - a)
			case 7:
				v = result ^ (a * b)
			case 8:
				v = result ^ (a & b)
			case 9:
				v = result ^ (a | b)
			case 10:
				v = result ^ (a ^ b)
			case 11:
				v = result ^ (a - result)
			case 12:
				v = result ^ (b - result)
			case 13:
				v = result ^ (a + result)
			case 14:
				v = result ^ (result - a)
			case 15:
				v = result ^ (result - b)
			}

			result = v
		}

		addrB = result & 0x7FFF
		memBufferA[i%v1BufferSize] = result
		memBufferB[i%v1BufferSize] = scratch[addrB]

		addrA = (result >> 15) & 0x7FFF
		scratch[addrA] = result

		index := v1ScratchpadIters - i - 1
		if index < 4 {
			binary.BigEndian.PutUint64(digest[index*8:(v1ScratchpadIters-i)*8], result)
		}
	}

	return digest, nil
}
