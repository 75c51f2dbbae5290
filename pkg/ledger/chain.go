package ledger

import (
	"github.com/pkg/errors"
)

// ErrNoValidChain is returned by fork choice when neither candidate chain
// validates. The caller must retain its previous chain and keep running.
var ErrNoValidChain = errors.New("neither chain is valid")

// Chain is the node's copy of the replicated ledger, genesis first, indices
// strictly increasing by one. It is owned by the node's event loop; no other
// goroutine may mutate it.
type Chain struct {
	blocks     []*Block
	difficulty int
}

// NewChain creates a chain containing only the genesis block.
func NewChain(difficulty int) *Chain {
	return &Chain{
		blocks:     []*Block{Genesis()},
		difficulty: difficulty,
	}
}

func (c *Chain) Difficulty() int { return c.difficulty }

func (c *Chain) Len() int { return len(c.blocks) }

// Tip returns the most recent block.
func (c *Chain) Tip() *Block {
	return c.blocks[len(c.blocks)-1]
}

// Blocks returns a snapshot of the chain for serialization. The contained
// blocks are shared and must be treated as read-only.
func (c *Chain) Blocks() []*Block {
	out := make([]*Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// Append validates b against the current tip only and appends it. A failed
// validation leaves the chain untouched.
func (c *Chain) Append(b *Block) error {
	if err := ValidateBlock(b, c.Tip(), c.difficulty); err != nil {
		return errors.Wrap(err, "rejecting block")
	}

	c.blocks = append(c.blocks, b)
	return nil
}

// Replace swaps in the winner of fork choice between the local chain and a
// remote snapshot. On ErrNoValidChain the local chain is retained.
func (c *Chain) Replace(remote []*Block) error {
	chosen, err := ChooseChain(c.blocks, remote, c.difficulty)
	if err != nil {
		return err
	}

	c.blocks = chosen
	return nil
}

// ValidateChain checks every adjacent block pair from genesis forward,
// stopping at the first failure.
func ValidateChain(blocks []*Block, difficulty int) bool {
	for i := 1; i < len(blocks); i++ {
		if err := ValidateBlock(blocks[i], blocks[i-1], difficulty); err != nil {
			return false
		}
	}

	return true
}

// ChooseChain applies the longest-valid-chain rule. Ties keep local, a lone
// valid chain wins regardless of length, and two invalid chains surface
// ErrNoValidChain instead of corrupting state.
func ChooseChain(local, remote []*Block, difficulty int) ([]*Block, error) {
	localValid := ValidateChain(local, difficulty)
	remoteValid := ValidateChain(remote, difficulty)

	switch {
	case localValid && remoteValid:
		if len(remote) > len(local) {
			return remote, nil
		}
		return local, nil
	case remoteValid:
		return remote, nil
	case localValid:
		return local, nil
	default:
		return nil, ErrNoValidChain
	}
}
