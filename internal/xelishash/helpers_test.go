package xelishash

import "testing"

func TestIsqrtExactSquares(t *testing.T) {
	for n := uint64(0); n < 10000; n++ {
		r := isqrt(n * n)
		if r != n {
			t.Fatalf("isqrt(%d^2) = %d, want %d", n, r, n)
		}
	}
}

func TestIsqrtBoundsHoldAcrossRange(t *testing.T) {
	// isqrt's largest possible return value is 2^32-1 (since (2^32)^2
	// already overflows u64), so r*r never overflows. (r+1)^2 can reach
	// 2^64, so the upper bound is checked as r+1 <= n/(r+1) instead.
	samples := []uint64{0, 1, 2, 3, 1000000, 1 << 32, 1<<63 - 1, ^uint64(0)}
	for _, n := range samples {
		r := isqrt(n)
		if r*r > n {
			t.Fatalf("isqrt(%d) = %d overshoots: %d*%d > %d", n, r, r, r, n)
		}
		if r+1 <= n/(r+1) {
			t.Fatalf("isqrt(%d) = %d undershoots: (%d+1)^2 <= %d", n, r, r, n)
		}
	}
}

func TestMapIndexStaysInRange(t *testing.T) {
	const bufferSize = uint64(v2BufferSize)
	seeds := []uint64{0, 1, ^uint64(0), 0x9e3779b97f4a7c15, 12345678901234}
	for _, seed := range seeds {
		idx := mapIndex(seed, bufferSize)
		if idx >= bufferSize {
			t.Fatalf("mapIndex(%d) = %d out of [0, %d)", seed, idx, bufferSize)
		}
	}
}

func TestPickHalfDistribution(t *testing.T) {
	const samples = 200000
	trueCount := 0

	seed := uint64(0x2545F4914F6CDD1D)
	for i := 0; i < samples; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		if pickHalf(seed) {
			trueCount++
		}
	}

	fraction := float64(trueCount) / float64(samples)
	if fraction < 0.45 || fraction > 0.55 {
		t.Fatalf("pickHalf true fraction %v out of expected range around 0.5", fraction)
	}
}

func TestMurmurhash3IsDeterministic(t *testing.T) {
	for _, seed := range []uint64{0, 1, 42, ^uint64(0)} {
		if murmurhash3(seed) != murmurhash3(seed) {
			t.Fatalf("murmurhash3(%d) is not deterministic", seed)
		}
	}
}

func TestModularPowerZeroModulus(t *testing.T) {
	if got := modularPower(7, 3, 0); got != 0 {
		t.Errorf("modularPower(_, _, 0) = %d, want 0 (pinned edge-case behavior)", got)
	}
}

func TestModularPowerKnownValues(t *testing.T) {
	// 2^10 mod 1000 = 24
	if got := modularPower(2, 10, 1000); got != 24 {
		t.Errorf("modularPower(2, 10, 1000) = %d, want 24", got)
	}
	// any base^0 mod m = 1 (for m > 1)
	if got := modularPower(123456789, 0, 97); got != 1 {
		t.Errorf("modularPower(x, 0, 97) = %d, want 1", got)
	}
}

func TestRotl64Rotr64AreInverses(t *testing.T) {
	values := []uint64{0, 1, 0x0102030405060708, ^uint64(0)}
	for _, v := range values {
		for k := uint32(0); k < 64; k++ {
			if rotr64(rotl64(v, k), k) != v {
				t.Fatalf("rotr64(rotl64(%d, %d), %d) != %d", v, k, k, v)
			}
		}
	}
}
