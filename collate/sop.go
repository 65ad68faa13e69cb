package collate

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// SplitSentenceOrder splits one token chunk into two segments at a pivot
// drawn uniformly from the middle third of the sequence, then with
// probability 0.5 emits the later segment first. reversed reports whether the
// order was swapped; it is the sentence order prediction label.
func SplitSentenceOrder(chunk []int, rng *rand.Rand) (a, b []int, reversed bool, err error) {
	n := len(chunk)
	lo, hi := n/3, 2*n/3
	if hi <= lo {
		return nil, nil, false, errors.Wrapf(ErrInvalidExample, "chunk of %d token(s) is too short to split", n)
	}
	pivot := lo + rng.IntN(hi-lo)
	reversed = rng.Float64() < 0.5
	a, b = splitAt(chunk, pivot, reversed)
	return a, b, reversed, nil
}

// splitAt is the deterministic core of SplitSentenceOrder.
func splitAt(chunk []int, pivot int, reversed bool) (a, b []int) {
	if reversed {
		return chunk[pivot:], chunk[:pivot]
	}
	return chunk[:pivot], chunk[pivot:]
}
