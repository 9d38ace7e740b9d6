package xelishash

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

const (
	// InputSize is the MinerWork size in bytes.
	InputSize = 112

	// OutputSize is the hash output size in bytes.
	OutputSize = HashSize

	// NonceOffset is the offset of the nonce within a MinerWork buffer.
	// Layout: work_hash(32) + timestamp(8) + nonce(8) + extra_nonce(32) + miner(32).
	NonceOffset = 40
)

// activeVersion is the XelisHash version (2 or 3) the live share-validation
// path dispatches to. V1 is deliberately excluded from this selector: its
// reference input size is fixed at 200 bytes (v1InputSize), incompatible
// with the pool's 112-byte MinerWork buffer, so it stays reachable only
// through HashV1 directly (used by tests and offline verification against
// a v1 network) rather than through Hash/ValidateShare. Defaults to 3,
// matching the network this pool currently targets.
var activeVersion int32 = 3

// SetHashVersion pins the version Hash/ValidateShare dispatch to. Valid
// values are 2 and 3; any other value is rejected so a misconfigured
// hash_version can't silently fall back to an unintended algorithm.
func SetHashVersion(version int) error {
	if version != 2 && version != 3 {
		return fmt.Errorf("xelishash: unsupported hash_version %d (must be 2 or 3; v1 is not servable over the live %d-byte MinerWork path)", version, InputSize)
	}
	atomic.StoreInt32(&activeVersion, int32(version))
	return nil
}

// HashVersion returns the version Hash/ValidateShare currently dispatch to.
func HashVersion() int {
	return int(atomic.LoadInt32(&activeVersion))
}

// scratchPadsV2/scratchPadsV3 pool per-version scratchpads across concurrent
// share validations so each call doesn't pay for a fresh allocation (~440KB
// for v2, ~544KB for v3).
var (
	scratchPadsV2 = sync.Pool{
		New: func() any {
			return NewScratchPadV2()
		},
	}
	scratchPadsV3 = sync.Pool{
		New: func() any {
			return NewScratchPadV3()
		},
	}
)

// Hash computes XelisHash over a 112-byte MinerWork buffer using whichever
// version SetHashVersion last pinned (v2 or v3), returning nil if input
// isn't exactly InputSize bytes.
func Hash(input []byte) []byte {
	if len(input) != InputSize {
		return nil
	}

	var digest Digest
	var err error

	switch HashVersion() {
	case 2:
		pad := scratchPadsV2.Get().(*ScratchPad)
		digest, err = HashV2(input, pad)
		scratchPadsV2.Put(pad)
	default:
		pad := scratchPadsV3.Get().(*ScratchPad)
		digest, err = HashV3(input, pad)
		scratchPadsV3.Put(pad)
	}
	if err != nil {
		return nil
	}

	out := make([]byte, HashSize)
	copy(out, digest[:])
	return out
}

// Verify reports whether input's hash is <= target, both compared as
// big-endian 256-bit integers.
func Verify(input []byte, target []byte) bool {
	hash := Hash(input)
	if hash == nil {
		return false
	}

	for i := 0; i < HashSize; i++ {
		if hash[i] < target[i] {
			return true
		}
		if hash[i] > target[i] {
			return false
		}
	}
	return true
}

// VerifyDifficulty reports whether input's hash meets difficulty.
func VerifyDifficulty(input []byte, difficulty uint64) bool {
	hash := Hash(input)
	if hash == nil {
		return false
	}
	return HashToDifficulty(hash) >= difficulty
}

// HashToDifficulty approximates the share difficulty implied by hash from
// its leading 8 bytes: difficulty = (2^64-1) / leading_value.
func HashToDifficulty(hash []byte) uint64 {
	if len(hash) < 8 {
		return 0
	}

	leading := binary.BigEndian.Uint64(hash[:8])
	if leading == 0 {
		return ^uint64(0)
	}
	return ^uint64(0) / leading
}

// BuildHeader constructs a MinerWork buffer from its constituent fields.
func BuildHeader(workHash []byte, timestamp, nonce uint64) []byte {
	header := make([]byte, InputSize)

	copy(header[0:32], workHash)
	binary.BigEndian.PutUint64(header[32:40], timestamp)
	binary.BigEndian.PutUint64(header[NonceOffset:NonceOffset+8], nonce)

	return header
}

// ValidateShare rewrites header's nonce field, hashes it, and reports
// (accepted, blockFound) against shareDifficulty and networkDifficulty.
func ValidateShare(header []byte, nonce uint64, shareDifficulty, networkDifficulty uint64) (bool, bool) {
	workHeader := make([]byte, len(header))
	copy(workHeader, header)
	binary.BigEndian.PutUint64(workHeader[NonceOffset:NonceOffset+8], nonce)

	hash := Hash(workHeader)
	if hash == nil {
		return false, false
	}

	actualDiff := HashToDifficulty(hash)
	if actualDiff < shareDifficulty {
		return false, false
	}
	if actualDiff >= networkDifficulty {
		return true, true
	}
	return true, false
}

// BlockHeader is a parsed Xelis daemon block header.
type BlockHeader struct {
	Version    uint8
	Height     uint64
	Timestamp  uint64
	Nonce      uint64
	ExtraNonce [32]byte
	Tips       [][]byte // each tip is 32 bytes
	TxsHashes  [][]byte // each tx hash is 32 bytes
	Miner      [32]byte
}

// ParseBlockHeader parses a serialized BlockHeader from the daemon.
//
// Layout: version(1) + height(8) + timestamp(8) + nonce(8) + extra_nonce(32)
// + tips_count(1) + tips(tips_count*32) + txs_count(2) + txs(txs_count*32)
// + miner(32), all multi-byte integers big-endian.
func ParseBlockHeader(data []byte) (*BlockHeader, error) {
	if len(data) < 92 {
		return nil, fmt.Errorf("block header too short: %d bytes", len(data))
	}

	pos := 0
	header := &BlockHeader{}

	header.Version = data[pos]
	pos++

	header.Height = binary.BigEndian.Uint64(data[pos : pos+8])
	pos += 8

	header.Timestamp = binary.BigEndian.Uint64(data[pos : pos+8])
	pos += 8

	header.Nonce = binary.BigEndian.Uint64(data[pos : pos+8])
	pos += 8

	copy(header.ExtraNonce[:], data[pos:pos+32])
	pos += 32

	tipsCount := int(data[pos])
	pos++

	if pos+tipsCount*32 > len(data) {
		return nil, fmt.Errorf("block header truncated at tips: need %d bytes, have %d", pos+tipsCount*32, len(data))
	}
	header.Tips = make([][]byte, tipsCount)
	for i := 0; i < tipsCount; i++ {
		header.Tips[i] = make([]byte, 32)
		copy(header.Tips[i], data[pos:pos+32])
		pos += 32
	}

	if pos+2 > len(data) {
		return nil, fmt.Errorf("block header truncated at txs_count")
	}
	txsCount := int(binary.BigEndian.Uint16(data[pos : pos+2]))
	pos += 2

	if pos+txsCount*32 > len(data) {
		return nil, fmt.Errorf("block header truncated at txs: need %d bytes, have %d", pos+txsCount*32, len(data))
	}
	header.TxsHashes = make([][]byte, txsCount)
	for i := 0; i < txsCount; i++ {
		header.TxsHashes[i] = make([]byte, 32)
		copy(header.TxsHashes[i], data[pos:pos+32])
		pos += 32
	}

	if pos+32 > len(data) {
		return nil, fmt.Errorf("block header truncated at miner")
	}
	copy(header.Miner[:], data[pos:pos+32])

	return header, nil
}

// ComputeTipsHash hashes all of h's tips concatenated, with Blake3.
func (h *BlockHeader) ComputeTipsHash() []byte {
	hasher := blake3.New()
	for _, tip := range h.Tips {
		hasher.Write(tip)
	}
	return hasher.Sum(nil)
}

// ComputeTxsHash hashes all of h's transaction hashes concatenated, with
// Blake3.
func (h *BlockHeader) ComputeTxsHash() []byte {
	hasher := blake3.New()
	for _, tx := range h.TxsHashes {
		hasher.Write(tx)
	}
	return hasher.Sum(nil)
}

// ComputeWorkHash computes the immutable work hash of a block:
// Blake3(version || height || tips_hash || txs_hash).
func (h *BlockHeader) ComputeWorkHash() []byte {
	workData := make([]byte, 73)

	workData[0] = h.Version
	binary.BigEndian.PutUint64(workData[1:9], h.Height)
	copy(workData[9:41], h.ComputeTipsHash())
	copy(workData[41:73], h.ComputeTxsHash())

	hasher := blake3.New()
	hasher.Write(workData)
	return hasher.Sum(nil)
}

// ToMinerWork converts h into the 112-byte MinerWork buffer XelisHash v3
// mixes.
func (h *BlockHeader) ToMinerWork() []byte {
	minerWork := make([]byte, InputSize)

	copy(minerWork[0:32], h.ComputeWorkHash())
	binary.BigEndian.PutUint64(minerWork[32:40], h.Timestamp)
	binary.BigEndian.PutUint64(minerWork[40:48], h.Nonce)
	copy(minerWork[48:80], h.ExtraNonce[:])
	copy(minerWork[80:112], h.Miner[:])

	return minerWork
}

// BlockHeaderToMinerWork parses raw daemon block header bytes and
// converts them directly to MinerWork format.
func BlockHeaderToMinerWork(blockHeader []byte) ([]byte, error) {
	header, err := ParseBlockHeader(blockHeader)
	if err != nil {
		return nil, err
	}
	return header.ToMinerWork(), nil
}
