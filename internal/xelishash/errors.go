package xelishash

import "errors"

// Structural errors surfaced only by programmer mistakes (a scratchpad
// built for the wrong version, or passed with the wrong length). They
// never originate from the hashing arithmetic itself, which is total.
var (
	// ErrCast is returned when a scratchpad's size does not match what
	// a stage expects to reinterpret it as.
	ErrCast = errors.New("xelishash: scratchpad size/alignment mismatch")

	// ErrFormat is returned when a byte slice cannot be converted to
	// the fixed-size array a stage needs.
	ErrFormat = errors.New("xelishash: fixed-size conversion failed")
)
