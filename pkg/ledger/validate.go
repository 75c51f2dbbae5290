package ledger

import (
	"github.com/pkg/errors"
)

var (
	ErrPrevHashMismatch = errors.New("previous hash mismatch")
	ErrDifficultyNotMet = errors.New("difficulty not met")
	ErrIndexGap         = errors.New("index not contiguous")
	ErrHashMismatch     = errors.New("hash does not match block contents")
)

// ValidateBlock checks b as the immediate successor of prev. Every check is
// fatal: linkage, difficulty, index continuity and hash recompute must all
// hold for the block to be accepted.
func ValidateBlock(b, prev *Block, difficulty int) error {
	if b.PreviousHash != prev.Hash {
		return errors.Wrapf(ErrPrevHashMismatch, "block %d", b.Index)
	}
	if !MeetsDifficulty(b.Hash, difficulty) {
		return errors.Wrapf(ErrDifficultyNotMet, "block %d", b.Index)
	}
	if b.Index != prev.Index+1 {
		return errors.Wrapf(ErrIndexGap, "block %d after %d", b.Index, prev.Index)
	}
	if CanonicalHash(b) != b.Hash {
		return errors.Wrapf(ErrHashMismatch, "block %d", b.Index)
	}

	return nil
}
