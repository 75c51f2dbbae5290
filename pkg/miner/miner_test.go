package miner

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func template(txs []ledger.Transaction) *ledger.Block {
	c := ledger.NewChain(1)
	return ledger.NewBlock(c.Tip(), txs)
}

func TestMineSolvesLowDifficulty(t *testing.T) {
	b := template([]ledger.Transaction{{Sender: "a", Receiver: "b", Amount: 10}})

	mined, err := Mine(context.Background(), b, 1, testLogger())

	assert.NoError(t, err)
	assert.True(t, ledger.MeetsDifficulty(mined.Hash, 1))
	assert.Equal(t, mined.Hash, ledger.CanonicalHash(mined))

	// The template itself must stay untouched.
	assert.Empty(t, b.Hash)
	assert.Zero(t, b.ProofOfWork)
}

func TestMineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan error, 1)
	go func() {
		// Difficulty high enough that the search cannot complete before
		// the cancellation lands.
		_, err := Mine(ctx, template(nil), 12, testLogger())
		finished <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("mining did not observe cancellation")
	}
}

func TestMinerSingleJob(t *testing.T) {
	m := New(testLogger())

	// First job is effectively unsolvable; the second must supersede it.
	m.Start(context.Background(), template(nil), 12)
	assert.True(t, m.Active())

	easy := template([]ledger.Transaction{{Sender: "x", Receiver: "y", Amount: 1}})
	m.Start(context.Background(), easy, 1)

	select {
	case res := <-m.Results():
		assert.Equal(t, easy.Index, res.Block.Index)
		assert.Equal(t, easy.Transactions, res.Block.Transactions)
		assert.True(t, ledger.MeetsDifficulty(res.Block.Hash, 1))
	case <-time.After(5 * time.Second):
		t.Fatal("superseding job produced no result")
	}
}

func TestMinerCancelHeightGuard(t *testing.T) {
	m := New(testLogger())

	m.Start(context.Background(), template(nil), 12)

	// An announce below the candidate's height must not cancel the job.
	m.Cancel(0)
	assert.True(t, m.Active())

	// A competing block at the same height must.
	m.Cancel(1)
	assert.False(t, m.Active())
}

func TestCancelAllIdempotent(t *testing.T) {
	m := New(testLogger())

	m.CancelAll()

	m.Start(context.Background(), template(nil), 12)
	m.CancelAll()
	m.CancelAll()

	assert.False(t, m.Active())
}
