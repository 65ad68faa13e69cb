package collate

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
)

// SpanPlanner produces boolean noise masks that partition a sequence into
// alternating non-noise/noise spans. Both the noise fraction and the span
// count are controlled: the true-count of a mask is round(density*length)
// (clamped to [1, length-1]) and the number of noise spans is
// max(1, round(noiseTokens/meanSpanLength)), clamped so every span owns at
// least one noise token and a separating non-noise token, regardless of where
// the random segmentation puts the boundaries.
type SpanPlanner struct {
	noiseDensity   float64
	meanSpanLength float64
}

// NewSpanPlanner validates the corruption hyperparameters: density must be in
// (0, 1) and the mean span length at least 1.
func NewSpanPlanner(noiseDensity, meanSpanLength float64) (*SpanPlanner, error) {
	if noiseDensity <= 0 || noiseDensity >= 1 {
		return nil, errors.Wrapf(ErrConfiguration, "noise density must be in (0, 1): got %v", noiseDensity)
	}
	if meanSpanLength < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "mean span length must be at least 1: got %v", meanSpanLength)
	}
	return &SpanPlanner{noiseDensity: noiseDensity, meanSpanLength: meanSpanLength}, nil
}

// Plan returns a noise mask of the given length. The mask always starts with
// a (possibly empty) non-noise span and interleaves from there. Sequences
// shorter than 2 tokens cannot hold a noise span next to a non-noise one and
// fail with ErrInvalidExample.
func (p *SpanPlanner) Plan(length int, rng *rand.Rand) ([]bool, error) {
	if length < 2 {
		return nil, errors.Wrapf(ErrInvalidExample, "cannot plan noise spans over %d token(s)", length)
	}

	numNoise := int(math.Round(p.noiseDensity * float64(length)))
	if numNoise < 1 {
		numNoise = 1
	}
	if numNoise > length-1 {
		numNoise = length - 1
	}
	numNonnoise := length - numNoise
	numSpans := int(math.Round(float64(numNoise) / p.meanSpanLength))
	if numSpans < 1 {
		numSpans = 1
	}
	if numSpans > numNoise {
		// every noise span needs at least one token
		numSpans = numNoise
	}
	if numSpans > numNonnoise {
		// every noise span needs a non-noise token in front to keep spans apart
		numSpans = numNonnoise
	}

	noiseLens := randomSegmentation(numNoise, numSpans, rng)
	nonnoiseLens := randomSegmentation(numNonnoise, numSpans, rng)

	mask := make([]bool, length)
	pos := 0
	for i := 0; i < numSpans; i++ {
		pos += nonnoiseLens[i]
		for j := 0; j < noiseLens[i]; j++ {
			mask[pos] = true
			pos++
		}
	}
	return mask, nil
}

// randomSegmentation partitions numItems into numSegments parts by choosing
// numSegments-1 of the numItems-1 gaps uniformly at random. The first item
// always belongs to segment 0, so no segment other than a trailing overflow
// one can be empty.
func randomSegmentation(numItems, numSegments int, rng *rand.Rand) []int {
	lens := make([]int, numSegments)
	if numItems == 0 {
		return lens
	}
	bars := make([]bool, numItems-1)
	for i := 0; i < numSegments-1 && i < len(bars); i++ {
		bars[i] = true
	}
	rng.Shuffle(len(bars), func(i, j int) {
		bars[i], bars[j] = bars[j], bars[i]
	})

	seg := 0
	lens[seg] = 1
	for _, bar := range bars {
		if bar {
			seg++
		}
		lens[seg]++
	}
	return lens
}

// encodeNoiseSpans collapses every contiguous noise run in tokens into a
// single sentinel id. Sentinels are allocated in decreasing order starting
// from firstSentinel, so decoding order matches span order. Positions that
// continue a noise run are removed, genuinely shortening the sequence. With
// appendFinalSentinel (the target side of span corruption) one more sentinel,
// one below the minimum used, is placed before the terminating EOS; EOS is
// appended unconditionally.
//
// Encoding a sequence once with a mask and once with its complement (with the
// final sentinel on the complement call) yields the matched input/target pair
// for span corruption.
func encodeNoiseSpans(tokens []int, noiseMask []bool, firstSentinel, eosID int, appendFinalSentinel bool) []int {
	out := make([]int, 0, len(tokens)+2)
	numSpans := 0
	prevNoise := false
	for i, tok := range tokens {
		noise := noiseMask[i]
		switch {
		case noise && !prevNoise:
			out = append(out, firstSentinel-numSpans)
			numSpans++
		case noise && prevNoise:
			// span continuation, dropped
		default:
			out = append(out, tok)
		}
		prevNoise = noise
	}
	if appendFinalSentinel {
		out = append(out, firstSentinel-numSpans)
	}
	return append(out, eosID)
}

// complementMask returns the logical negation of a noise mask.
func complementMask(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, v := range mask {
		out[i] = !v
	}
	return out
}
