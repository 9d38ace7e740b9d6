package xelishash

import "github.com/xelis-project/xelis-pool/internal/u128"

// combineU64 packs two u64 halves into a 128-bit integer: (high << 64) | low.
func combineU64(high, low uint64) u128.U128 {
	return u128.Combine(high, low)
}

// isqrt returns the integer floor square root of n, via Newton's method
// entirely in integer arithmetic so the result never depends on the
// host's floating-point rounding behavior.
func isqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}

	x := n
	y := x>>1 + x&1
	for y < x {
		x = y
		y = (x + n/x) >> 1
	}
	return x
}

// modularPower computes base^exp mod m via right-to-left binary
// exponentiation with a 128-bit accumulator. base is reduced mod m
// first, matching the reference. When m is zero the reference divides
// by zero through the `%` operator; this implementation instead pins
// that edge case to 0 (see the open design questions in DESIGN.md).
func modularPower(base, exp, m uint64) uint64 {
	if m == 0 {
		return 0
	}

	result := uint64(1)
	base %= m
	mod := u128.FromU64(m)

	for exp > 0 {
		if exp&1 == 1 {
			_, rem := u128.Mul64(result, base).QuoRem(mod)
			result = rem.Low64()
		}
		_, rem := u128.Mul64(base, base).QuoRem(mod)
		base = rem.Low64()
		exp >>= 1
	}

	return result
}

// murmurhash3 is the classic 64-bit MurmurHash3 finalizer, pinned to the
// (33, 33, 33) shift variant (see DESIGN.md for why this variant was
// chosen over the (55, 32, 15) one also seen in the wild).
func murmurhash3(seed uint64) uint64 {
	seed ^= seed >> 33
	seed *= 0xff51afd7ed558ccd
	seed ^= seed >> 33
	seed *= 0xc4ceb9fe1a85ec53
	seed ^= seed >> 33
	return seed
}

// mapIndex maps seed uniformly into [0, bufferSize) with minimal modulo
// bias: (murmurhash3(seed) * bufferSize) >> 64.
func mapIndex(seed uint64, bufferSize uint64) uint64 {
	return u128.Mul64(murmurhash3(seed), bufferSize).Hi
}

// pickHalf reports the high bit of murmurhash3(seed), used by v3 to
// choose between scratchpad half A and half B.
func pickHalf(seed uint64) bool {
	return murmurhash3(seed)>>63 == 1
}

func rotl64(x uint64, k uint32) uint64 {
	k &= 63
	if k == 0 {
		return x
	}
	return (x << k) | (x >> (64 - k))
}

func rotr64(x uint64, k uint32) uint64 {
	k &= 63
	if k == 0 {
		return x
	}
	return (x >> k) | (x << (64 - k))
}
