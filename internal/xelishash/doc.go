// Package xelishash implements the XelisHash family of memory-hard
// proof-of-work hash functions (v1, v2, v3). Each version fills a large
// scratchpad from the input, rewrites it with a data-dependent mixing
// loop designed to defeat GPU/ASIC parallelism, and folds the result
// into a 32-byte digest.
//
// A ScratchPad is heap-allocated once per version and reused across
// calls: Hash fully overwrites it in stage 1 before ever reading back
// from it, so callers never need to zero it between hashes. A
// ScratchPad is not safe for concurrent use; a caller running hashes on
// multiple goroutines needs one ScratchPad per goroutine.
package xelishash

// HashSize is the length in bytes of every XelisHash digest.
const HashSize = 32

// Digest is a XelisHash output.
type Digest [HashSize]byte
