package miner

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

// Result is delivered when a mining job finds a proof. Cancelled jobs
// produce no result.
type Result struct {
	Block *ledger.Block
}

// Miner runs at most one proof-of-work job at a time. Starting a new job
// first cancels and joins the previous one. All methods must be called from
// the node's event loop.
type Miner struct {
	results chan Result
	log     *logrus.Entry

	cancel context.CancelFunc
	done   chan struct{}
	height uint64
}

func New(log *logrus.Entry) *Miner {
	return &Miner{
		results: make(chan Result, 1),
		log:     log,
	}
}

// Results yields mined blocks for the event loop to publish and append.
func (m *Miner) Results() <-chan Result { return m.results }

// Start begins mining candidate, superseding any job still in flight.
func (m *Miner) Start(ctx context.Context, candidate *ledger.Block, difficulty int) {
	m.CancelAll()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.cancel = cancel
	m.done = done
	m.height = candidate.Index

	go func() {
		defer close(done)

		b, err := Mine(ctx, candidate, difficulty, m.log)
		if err != nil {
			m.log.WithField("index", candidate.Index).Debug("mining interrupted")
			return
		}

		select {
		case m.results <- Result{Block: b}:
		default:
			// The loop has not drained the previous result yet; the
			// network has moved on, so the proof is stale anyway.
			m.log.WithField("index", b.Index).Warn("dropping mined block, result channel full")
		}
	}()
}

// Cancel stops the active job if a competing block at height or above has
// been announced. Jobs already working past that height keep running.
func (m *Miner) Cancel(height uint64) {
	if m.done == nil || m.height > height {
		return
	}
	m.CancelAll()
}

// CancelAll stops the active job, if any, and waits for it to terminate.
func (m *Miner) CancelAll() {
	if m.cancel == nil {
		return
	}

	m.cancel()
	<-m.done

	m.cancel = nil
	m.done = nil
}

// Active reports whether a job is still searching.
func (m *Miner) Active() bool {
	if m.done == nil {
		return false
	}

	select {
	case <-m.done:
		return false
	default:
		return true
	}
}
