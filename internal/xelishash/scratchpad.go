package xelishash

import "unsafe"

// ScratchPad is the large working buffer a single hash call fully
// rewrites and then reads back from. It is owned by the caller and
// borrowed mutably for the duration of one Hash call; the caller is
// responsible for not sharing one ScratchPad across goroutines.
type ScratchPad struct {
	words []uint64
}

func newScratchPad(size int) *ScratchPad {
	return &ScratchPad{words: make([]uint64, size)}
}

// Len returns the scratchpad size in 64-bit words.
func (s *ScratchPad) Len() int {
	return len(s.words)
}

// Words exposes the scratchpad as a mutable u64 slice.
func (s *ScratchPad) Words() []uint64 {
	return s.words
}

// Bytes reinterprets the scratchpad as a byte slice of Len()*8 bytes,
// sharing the underlying storage. It is used by stage 4 to feed the
// whole scratchpad into Blake3 without a copy.
func (s *ScratchPad) Bytes() []byte {
	if len(s.words) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s.words[0])), len(s.words)*8)
}

// Words32 reinterprets the scratchpad as a []uint32 of Len()*2 words,
// sharing the underlying storage. V1's slot-sort stage operates on this
// narrower view of the same memory.
func (s *ScratchPad) Words32() []uint32 {
	if len(s.words) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&s.words[0])), len(s.words)*2)
}

// NewScratchPadV1 allocates a zeroed scratchpad sized for Hash V1.
func NewScratchPadV1() *ScratchPad {
	return newScratchPad(v1MemorySize)
}

// NewScratchPadV2 allocates a zeroed scratchpad sized for Hash V2.
func NewScratchPadV2() *ScratchPad {
	return newScratchPad(v2MemorySize)
}

// NewScratchPadV3 allocates a zeroed scratchpad sized for Hash V3.
func NewScratchPadV3() *ScratchPad {
	return newScratchPad(v3MemorySize)
}
