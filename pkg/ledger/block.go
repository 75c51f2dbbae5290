package ledger

import (
	"time"
)

// Block is a single entry in the replicated ledger. A block is mutable only
// while being mined (ProofOfWork and Hash advance per attempt); once accepted
// into a chain it is read-only.
type Block struct {
	Index        uint64        `msgpack:"i" json:"index"`
	Timestamp    uint64        `msgpack:"t" json:"timestamp"`
	ProofOfWork  uint64        `msgpack:"w" json:"proof_of_work"`
	PreviousHash string        `msgpack:"p" json:"previous_hash"`
	Transactions []Transaction `msgpack:"x" json:"transactions"`
	Hash         string        `msgpack:"h" json:"hash"`
}

// NewBlock builds an unmined block extending prev with the given payload.
// The hash is left empty until mining sets it.
func NewBlock(prev *Block, txs []Transaction) *Block {
	return &Block{
		Index:        prev.Index + 1,
		Timestamp:    uint64(time.Now().UnixMilli()),
		PreviousHash: prev.Hash,
		Transactions: txs,
	}
}

// Genesis constructs the index-0 block. It is constructed rather than mined
// and is exempt from the difficulty and hash-recompute checks.
func Genesis() *Block {
	b := &Block{
		Index:     0,
		Timestamp: uint64(time.Now().UnixMilli()),
	}
	b.Hash = CanonicalHash(b)

	return b
}

// Clone returns a deep copy, so mining can mutate a candidate without
// touching the announced original.
func (b *Block) Clone() *Block {
	c := *b
	if b.Transactions != nil {
		c.Transactions = make([]Transaction, len(b.Transactions))
		copy(c.Transactions, b.Transactions)
	}
	return &c
}
