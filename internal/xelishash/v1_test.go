package xelishash

import (
	"bytes"
	"testing"
)

func TestHashV1ZeroInputVector(t *testing.T) {
	input := make([]byte, v1InputSize)
	pad := NewScratchPadV1()

	digest, err := HashV1(input, pad)
	if err != nil {
		t.Fatalf("HashV1: %v", err)
	}

	want := [HashSize]byte{
		0x0e, 0xbb, 0xbd, 0x8a, 0x31, 0xed, 0xad, 0xfe, 0x09, 0x8f, 0x2d, 0x77, 0x0d, 0x84,
		0xb7, 0x19, 0x58, 0x86, 0x75, 0xab, 0x88, 0xa0, 0xa1, 0x70, 0x67, 0xd0, 0x0a, 0x8f,
		0x36, 0x18, 0x22, 0x65,
	}
	if !bytes.Equal(digest[:], want[:]) {
		t.Errorf("HashV1(zero) = %x, want %x", digest, want)
	}
}

func TestHashV1NamedInputVector(t *testing.T) {
	input := make([]byte, v1InputSize)
	copy(input, []byte("xelis-hashing-algorithm"))
	pad := NewScratchPadV1()

	digest, err := HashV1(input, pad)
	if err != nil {
		t.Fatalf("HashV1: %v", err)
	}

	want := [HashSize]byte{
		106, 106, 173, 8, 207, 59, 118, 108, 176, 196, 9, 124, 250, 195, 3,
		61, 30, 146, 238, 182, 88, 83, 115, 81, 139, 56, 3, 28, 176, 86, 68, 21,
	}
	if !bytes.Equal(digest[:], want[:]) {
		t.Errorf("HashV1(xelis-hashing-algorithm) = %x, want %x", digest, want)
	}
}

func TestHashV1ScratchPadReuse(t *testing.T) {
	pad := NewScratchPadV1()

	zero := make([]byte, v1InputSize)
	first, err := HashV1(zero, pad)
	if err != nil {
		t.Fatalf("HashV1: %v", err)
	}

	named := make([]byte, v1InputSize)
	copy(named, []byte("xelis-hashing-algorithm"))
	if _, err := HashV1(named, pad); err != nil {
		t.Fatalf("HashV1: %v", err)
	}

	second, err := HashV1(zero, pad)
	if err != nil {
		t.Fatalf("HashV1: %v", err)
	}

	if first != second {
		t.Error("HashV1 must be a pure function of input across scratchpad reuse")
	}
}

func TestHashV1RejectsWrongSizes(t *testing.T) {
	pad := NewScratchPadV1()
	if _, err := HashV1(make([]byte, 10), pad); err == nil {
		t.Error("expected an error for an undersized input")
	}

	wrongPad := NewScratchPadV2()
	if _, err := HashV1(make([]byte, v1InputSize), wrongPad); err == nil {
		t.Error("expected an error for a scratchpad sized for a different version")
	}
}
