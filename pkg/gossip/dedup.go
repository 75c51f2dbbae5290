package gossip

import (
	"github.com/bits-and-blooms/bloom/v3"
	"golang.org/x/crypto/sha3"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

const (
	dedupCapacity      = 100000
	dedupFalsePositive = 0.001
)

// announceFilter suppresses re-delivery of block announcements the node has
// already handled. Keys are sha3-256 digests of the block's content hash, so
// a re-mined block with a different proof is never confused with its
// template.
type announceFilter struct {
	seen *bloom.BloomFilter
}

func newAnnounceFilter() *announceFilter {
	return &announceFilter{
		seen: bloom.NewWithEstimates(dedupCapacity, dedupFalsePositive),
	}
}

// Seen reports whether b was handled before, recording it as a side effect.
func (f *announceFilter) Seen(b *ledger.Block) bool {
	key := b.Hash
	if key == "" {
		// Unmined templates carry no hash yet; identify them by content.
		key = ledger.CanonicalHash(b)
	}

	d := sha3.Sum256([]byte(key))

	if f.seen.Test(d[:]) {
		return true
	}

	f.seen.Add(d[:])
	return false
}
