package collate

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// SampleFakeToken draws a replacement id uniformly from [0, vocabSize),
// rejecting the original id and every forbidden id (the special token set).
// If the forbidden set covers the entire vocabulary the draw can never
// succeed and the call fails with ErrConfiguration instead of looping.
func SampleFakeToken(originalID int, forbiddenIDs []int, vocabSize int, rng *rand.Rand) (int, error) {
	if vocabSize <= 0 {
		return 0, errors.Wrapf(ErrConfiguration, "vocabulary size must be positive: got %d", vocabSize)
	}
	forbidden := make(map[int]bool, len(forbiddenIDs)+1)
	blocked := 0
	for _, id := range append([]int{originalID}, forbiddenIDs...) {
		if id >= 0 && id < vocabSize && !forbidden[id] {
			blocked++
		}
		forbidden[id] = true
	}
	if blocked >= vocabSize {
		return 0, errors.Wrapf(ErrConfiguration, "forbidden ids cover the whole vocabulary of %d", vocabSize)
	}
	for {
		id := rng.IntN(vocabSize)
		if !forbidden[id] {
			return id, nil
		}
	}
}
