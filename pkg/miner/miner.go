package miner

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gossipchain/gossipchain/pkg/ledger"
)

// progressInterval controls how often an in-flight search logs its attempt
// count at debug level.
const progressInterval = 250000

// Mine searches for a proof-of-work satisfying difficulty, mutating a clone
// of b. The context is checked on every iteration so the arrival of a
// competing mined block can interrupt the search promptly; on cancellation
// the context's error is returned.
func Mine(ctx context.Context, b *ledger.Block, difficulty int, log *logrus.Entry) (*ledger.Block, error) {
	candidate := b.Clone()
	candidate.Hash = ledger.CanonicalHash(candidate)

	for !ledger.MeetsDifficulty(candidate.Hash, difficulty) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		candidate.ProofOfWork++
		candidate.Hash = ledger.CanonicalHash(candidate)

		if candidate.ProofOfWork%progressInterval == 0 {
			log.WithFields(logrus.Fields{
				"index":    candidate.Index,
				"attempts": candidate.ProofOfWork,
			}).Debug("still mining")
		}
	}

	log.WithFields(logrus.Fields{
		"index": candidate.Index,
		"hash":  candidate.Hash,
		"pow":   candidate.ProofOfWork,
	}).Info("mined block")

	return candidate, nil
}
