package ledger

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// solve performs the proof-of-work search inline. Kept to low difficulties
// so tests converge quickly.
func solve(b *Block, difficulty int) *Block {
	for {
		b.Hash = CanonicalHash(b)
		if MeetsDifficulty(b.Hash, difficulty) {
			return b
		}
		b.ProofOfWork++
	}
}

func grow(c *Chain, n int) {
	for i := 0; i < n; i++ {
		b := solve(NewBlock(c.Tip(), nil), c.Difficulty())
		if err := c.Append(b); err != nil {
			panic(err)
		}
	}
}

func TestSequentialMiningProducesValidChain(t *testing.T) {
	c := NewChain(1)
	grow(c, 3)

	assert.Equal(t, 4, c.Len())
	assert.True(t, ValidateChain(c.Blocks(), 1))

	for _, b := range c.Blocks()[1:] {
		assert.True(t, MeetsDifficulty(b.Hash, 1))
	}
}

func TestAppendRejectsStaleBlock(t *testing.T) {
	c := NewChain(1)
	grow(c, 1)

	applied := c.Tip()
	err := c.Append(applied)

	assert.ErrorIs(t, err, ErrPrevHashMismatch)
	assert.Equal(t, 2, c.Len())
}

func TestValidateBlockChecks(t *testing.T) {
	c := NewChain(1)
	prev := c.Tip()

	good := solve(NewBlock(prev, nil), 1)
	assert.NoError(t, ValidateBlock(good, prev, 1))

	linked := good.Clone()
	linked.PreviousHash = "deadbeef"
	assert.ErrorIs(t, ValidateBlock(linked, prev, 1), ErrPrevHashMismatch)

	weak := good.Clone()
	assert.ErrorIs(t, ValidateBlock(weak, prev, 64), ErrDifficultyNotMet)

	skipped := NewBlock(prev, nil)
	skipped.Index = prev.Index + 2
	solve(skipped, 1)
	assert.ErrorIs(t, ValidateBlock(skipped, prev, 1), ErrIndexGap)

	forged := good.Clone()
	forged.Transactions = []Transaction{{Sender: "m", Receiver: "n", Amount: 1}}
	assert.ErrorIs(t, ValidateBlock(forged, prev, 1), ErrHashMismatch)
}

func TestChooseChainPrefersLongerValid(t *testing.T) {
	a := NewChain(1)
	grow(a, 2)

	b := NewChain(1)
	grow(b, 4)

	chosen, err := ChooseChain(a.Blocks(), b.Blocks(), 1)
	assert.NoError(t, err)
	assert.Equal(t, b.Blocks(), chosen)
}

func TestChooseChainTieKeepsLocal(t *testing.T) {
	local := NewChain(1)
	grow(local, 2)

	remote := NewChain(1)
	grow(remote, 2)

	chosen, err := ChooseChain(local.Blocks(), remote.Blocks(), 1)
	assert.NoError(t, err)
	assert.Equal(t, local.Blocks(), chosen)
}

func TestChooseChainValidBeatsLongerInvalid(t *testing.T) {
	local := NewChain(1)
	grow(local, 1)

	remote := NewChain(1)
	grow(remote, 4)
	remote.Tip().Transactions = []Transaction{{Sender: "x", Receiver: "y", Amount: 5}}

	chosen, err := ChooseChain(local.Blocks(), remote.Blocks(), 1)
	assert.NoError(t, err)
	assert.Equal(t, local.Blocks(), chosen)
}

func TestChooseChainBothInvalid(t *testing.T) {
	local := NewChain(1)
	grow(local, 1)
	local.Tip().Hash = "tampered"

	remote := NewChain(1)
	grow(remote, 2)
	remote.Tip().Hash = "tampered"

	chosen, err := ChooseChain(local.Blocks(), remote.Blocks(), 1)
	assert.ErrorIs(t, err, ErrNoValidChain)
	assert.Nil(t, chosen)
}

func TestReplaceRetainsLocalOnDoubleInvalid(t *testing.T) {
	c := NewChain(1)
	grow(c, 1)
	c.Tip().Hash = "tampered"
	before := c.Blocks()

	remote := NewChain(1)
	grow(remote, 3)
	remote.Tip().Hash = "tampered"

	err := c.Replace(remote.Blocks())

	assert.True(t, errors.Is(err, ErrNoValidChain))
	assert.Equal(t, before, c.Blocks())
}

func TestCreateBlockScenario(t *testing.T) {
	c := NewChain(2)
	genesis := c.Tip()

	b := NewBlock(genesis, []Transaction{{Sender: "a", Receiver: "b", Amount: 10}})
	solve(b, 2)

	assert.Equal(t, uint64(1), b.Index)
	assert.Equal(t, genesis.Hash, b.PreviousHash)
	assert.Equal(t, "00", b.Hash[:2])
	assert.NoError(t, ValidateBlock(b, genesis, 2))

	assert.NoError(t, c.Append(b))
	assert.Equal(t, 2, c.Len())
}
