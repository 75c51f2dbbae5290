package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// hashPreimage fixes the canonical encoding of a block for hashing. The
// field order and msgpack tags are part of the protocol: every peer must
// produce these bytes identically. The hash field itself is excluded.
type hashPreimage struct {
	Index        uint64        `msgpack:"i"`
	Timestamp    uint64        `msgpack:"t"`
	ProofOfWork  uint64        `msgpack:"w"`
	PreviousHash string        `msgpack:"p"`
	Transactions []Transaction `msgpack:"x"`
}

// CanonicalHash returns the lowercase hex SHA-256 digest of the block's
// canonical encoding.
func CanonicalHash(b *Block) string {
	d, _ := msgpack.Marshal(&hashPreimage{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		ProofOfWork:  b.ProofOfWork,
		PreviousHash: b.PreviousHash,
		Transactions: b.Transactions,
	})

	sum := sha256.Sum256(d)

	return hex.EncodeToString(sum[:])
}

// MeetsDifficulty reports whether hash carries at least difficulty leading
// zero hex digits.
func MeetsDifficulty(hash string, difficulty int) bool {
	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}

// IsMined distinguishes already-solved block announcements from templates
// that still need mining. It checks difficulty only.
func IsMined(b *Block, difficulty int) bool {
	return MeetsDifficulty(b.Hash, difficulty)
}
