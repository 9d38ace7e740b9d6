package xelishash

import (
	"bytes"
	"testing"
)

func TestHashV2ZeroInputVector(t *testing.T) {
	input := make([]byte, InputSize)
	pad := NewScratchPadV2()

	digest, err := HashV2(input, pad)
	if err != nil {
		t.Fatalf("HashV2: %v", err)
	}

	want := [HashSize]byte{
		0xc0, 0x71, 0xcb, 0x5c, 0xd5, 0x7b, 0x21, 0x4d, 0xb5, 0x6d, 0x16, 0x49, 0x4c, 0xdf,
		0x3a, 0xbc, 0x51, 0xb2, 0x1e, 0x93, 0xc6, 0xba, 0x4f, 0x71, 0x9a, 0x25, 0xa8, 0x92,
		0x6b, 0x85, 0x71, 0xee,
	}
	if !bytes.Equal(digest[:], want[:]) {
		t.Errorf("HashV2(zero) = %x, want %x", digest, want)
	}
}

func TestHashV2ScratchPadReuse(t *testing.T) {
	pad := NewScratchPadV2()

	zero := make([]byte, InputSize)
	first, err := HashV2(zero, pad)
	if err != nil {
		t.Fatalf("HashV2: %v", err)
	}

	other := bytes.Repeat([]byte{0x5a}, InputSize)
	if _, err := HashV2(other, pad); err != nil {
		t.Fatalf("HashV2: %v", err)
	}

	second, err := HashV2(zero, pad)
	if err != nil {
		t.Fatalf("HashV2: %v", err)
	}

	if first != second {
		t.Error("HashV2 must be a pure function of input across scratchpad reuse")
	}
}

func TestHashV2VariableLengthInput(t *testing.T) {
	pad := NewScratchPadV2()

	for _, size := range []int{0, 1, 31, 32, 33, 112, 257} {
		input := bytes.Repeat([]byte{0x42}, size)
		if _, err := HashV2(input, pad); err != nil {
			t.Fatalf("HashV2 with %d-byte input: %v", size, err)
		}
	}
}

func TestHashV2RejectsWrongScratchPad(t *testing.T) {
	pad := NewScratchPadV1()
	if _, err := HashV2(make([]byte, InputSize), pad); err == nil {
		t.Error("expected an error for a scratchpad sized for a different version")
	}
}
