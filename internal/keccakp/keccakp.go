// Package keccakp implements the bare Keccak-p[1600, 24] permutation over
// a 25-word u64 state, with no padding and no sponge construction around
// it. golang.org/x/crypto/sha3 only exposes the permutation wrapped in a
// sponge (Shake/SHA3), never standalone, so algorithms that need the raw
// permutation as a mixing primitive - as XelisHash v1 does for scratchpad
// seeding - carry their own copy of it, same as every other Keccak-based
// PoW port.
package keccakp

var roundConstants = [24]uint64{
	0x0000000000000001, 0x0000000000008082, 0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001, 0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088, 0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b, 0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080, 0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080, 0x0000000080000001, 0x8000000080008008,
}

var rotationOffsets = [25]uint{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

func rotl64(x uint64, n uint) uint64 {
	n &= 63
	if n == 0 {
		return x
	}
	return (x << n) | (x >> (64 - n))
}

// Permute applies the 24-round Keccak-p permutation in place to state,
// a 25-word array addressed as state[x + 5*y].
func Permute(state *[25]uint64) {
	var (
		c [5]uint64
		d [5]uint64
		b [25]uint64
	)

	for round := 0; round < 24; round++ {
		// Theta
		for x := 0; x < 5; x++ {
			c[x] = state[x] ^ state[x+5] ^ state[x+10] ^ state[x+15] ^ state[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ rotl64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				state[x+5*y] ^= d[x]
			}
		}

		// Rho + Pi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				newX := y
				newY := (2*x + 3*y) % 5
				b[newX+5*newY] = rotl64(state[x+5*y], rotationOffsets[x+5*y])
			}
		}

		// Chi
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				state[x+5*y] = b[x+5*y] ^ ((^b[(x+1)%5+5*y]) & b[(x+2)%5+5*y])
			}
		}

		// Iota
		state[0] ^= roundConstants[round]
	}
}
