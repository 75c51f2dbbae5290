package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalHashStable(t *testing.T) {
	b := &Block{
		Index:        1,
		Timestamp:    1700000000000,
		ProofOfWork:  42,
		PreviousHash: "abc",
		Transactions: []Transaction{{Sender: "a", Receiver: "b", Amount: 10}},
	}

	h1 := CanonicalHash(b)
	h2 := CanonicalHash(b)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestCanonicalHashIgnoresHashField(t *testing.T) {
	b := &Block{Index: 1, Timestamp: 1700000000000, PreviousHash: "abc"}

	before := CanonicalHash(b)
	b.Hash = "ffff"
	after := CanonicalHash(b)

	assert.Equal(t, before, after)
}

func TestCanonicalHashSensitivity(t *testing.T) {
	base := Block{
		Index:        1,
		Timestamp:    1700000000000,
		ProofOfWork:  42,
		PreviousHash: "abc",
		Transactions: []Transaction{{Sender: "a", Receiver: "b", Amount: 10}},
	}

	ref := CanonicalHash(&base)

	mutations := map[string]func(*Block){
		"index":         func(b *Block) { b.Index++ },
		"timestamp":     func(b *Block) { b.Timestamp++ },
		"proof of work": func(b *Block) { b.ProofOfWork++ },
		"previous hash": func(b *Block) { b.PreviousHash = "abd" },
		"transactions":  func(b *Block) { b.Transactions[0].Amount++ },
	}

	for name, mutate := range mutations {
		b := base.Clone()
		mutate(b)
		assert.NotEqual(t, ref, CanonicalHash(b), "mutating %s must change the hash", name)
	}
}

func TestMeetsDifficulty(t *testing.T) {
	assert.True(t, MeetsDifficulty("00ab", 2))
	assert.True(t, MeetsDifficulty("0000", 2))
	assert.False(t, MeetsDifficulty("0a00", 2))
	assert.False(t, MeetsDifficulty("", 1))
	assert.True(t, MeetsDifficulty("ab", 0))
}

func TestIsMined(t *testing.T) {
	b := &Block{Hash: "00c4"}

	assert.True(t, IsMined(b, 2))
	assert.False(t, IsMined(b, 3))
	assert.False(t, IsMined(&Block{}, 1))
}
