package collate

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

// countNoise returns the number of noise positions and noise spans in a mask.
func countNoise(mask []bool) (tokens, spans int) {
	prev := false
	for _, v := range mask {
		if v {
			tokens++
			if !prev {
				spans++
			}
		}
		prev = v
	}
	return tokens, spans
}

// TestSpanPlannerMaskShape checks that planned masks hit the exact noise
// token count and span count implied by the hyperparameters.
func TestSpanPlannerMaskShape(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		density  float64
		meanSpan float64
	}{
		{"typical", 128, 0.15, 3.0},
		{"short", 8, 0.15, 3.0},
		{"minimum length", 2, 0.15, 3.0},
		{"dense", 64, 0.5, 2.0},
		{"very dense", 10, 0.9, 1.0},
		{"long spans", 512, 0.15, 10.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planner, err := NewSpanPlanner(tc.density, tc.meanSpan)
			require.NoError(t, err)

			rng := testRand(1)
			for trial := 0; trial < 50; trial++ {
				mask, err := planner.Plan(tc.length, rng)
				require.NoError(t, err)
				require.Len(t, mask, tc.length)

				wantNoise := int(math.Round(tc.density * float64(tc.length)))
				if wantNoise < 1 {
					wantNoise = 1
				}
				if wantNoise > tc.length-1 {
					wantNoise = tc.length - 1
				}
				wantSpans := int(math.Round(float64(wantNoise) / tc.meanSpan))
				if wantSpans < 1 {
					wantSpans = 1
				}
				if wantSpans > wantNoise {
					wantSpans = wantNoise
				}
				if wantSpans > tc.length-wantNoise {
					wantSpans = tc.length - wantNoise
				}

				gotNoise, gotSpans := countNoise(mask)
				assert.Equal(t, wantNoise, gotNoise)
				assert.Equal(t, wantSpans, gotSpans)
				assert.False(t, mask[0], "mask must start with a non-noise run")
			}
		})
	}
}

// TestSpanPlannerRejectsShortSequence checks that sequences that cannot hold
// a noise span fail instead of silently producing an empty mask.
func TestSpanPlannerRejectsShortSequence(t *testing.T) {
	planner, err := NewSpanPlanner(0.15, 3.0)
	require.NoError(t, err)

	for _, length := range []int{0, 1} {
		_, err := planner.Plan(length, testRand(1))
		assert.True(t, errors.Is(err, ErrInvalidExample), "length %d: got %v", length, err)
	}
}

// TestNewSpanPlannerValidation checks hyperparameter validation.
func TestNewSpanPlannerValidation(t *testing.T) {
	for _, tc := range []struct {
		density, meanSpan float64
	}{
		{0, 3}, {1, 3}, {-0.1, 3}, {0.15, 0.5}, {0.15, 0},
	} {
		_, err := NewSpanPlanner(tc.density, tc.meanSpan)
		assert.True(t, errors.Is(err, ErrConfiguration), "density=%v mean=%v: got %v", tc.density, tc.meanSpan, err)
	}
}

// TestEncodeNoiseSpansScenario pins the exact sentinel decrement pattern on a
// fixed mask, for both the input side and the complement/target side.
func TestEncodeNoiseSpansScenario(t *testing.T) {
	tokens := []int{5, 6, 7, 8, 9, 10, 11, 12}
	mask := []bool{false, false, true, true, false, false, true, false}
	const (
		firstSentinel = 99
		eos           = 1
	)

	input := encodeNoiseSpans(tokens, mask, firstSentinel, eos, false)
	assert.Equal(t, []int{5, 6, 99, 9, 10, 98, 12, eos}, input)

	target := encodeNoiseSpans(tokens, complementMask(mask), firstSentinel, eos, true)
	assert.Equal(t, []int{99, 7, 8, 98, 11, 97, 96, eos}, target)
}

// TestEncodeNoiseSpansRoundTrip checks that encoding a sequence against a
// mask and against its complement together preserve every original token,
// partitioned by the mask.
func TestEncodeNoiseSpansRoundTrip(t *testing.T) {
	planner, err := NewSpanPlanner(0.3, 2.0)
	require.NoError(t, err)
	rng := testRand(42)

	const (
		firstSentinel = 1000
		eos           = 999
	)
	tokens := make([]int, 40)
	for i := range tokens {
		tokens[i] = i + 1 // keep well below the sentinel and eos range
	}

	for trial := 0; trial < 20; trial++ {
		mask, err := planner.Plan(len(tokens), rng)
		require.NoError(t, err)

		input := encodeNoiseSpans(tokens, mask, firstSentinel, eos, false)
		target := encodeNoiseSpans(tokens, complementMask(mask), firstSentinel, eos, true)

		strip := func(seq []int) []int {
			var out []int
			for _, v := range seq {
				if v < len(tokens)+1 {
					out = append(out, v)
				}
			}
			return out
		}

		var wantKept, wantNoise []int
		for i, v := range tokens {
			if mask[i] {
				wantNoise = append(wantNoise, v)
			} else {
				wantKept = append(wantKept, v)
			}
		}
		assert.Equal(t, wantKept, strip(input))
		assert.Equal(t, wantNoise, strip(target))
	}
}

// TestEncodeNoiseSpansSentinelsDecrease checks that sentinel ids strictly
// decrease in order of first appearance.
func TestEncodeNoiseSpansSentinelsDecrease(t *testing.T) {
	planner, err := NewSpanPlanner(0.4, 1.5)
	require.NoError(t, err)
	rng := testRand(7)

	const (
		firstSentinel = 500
		eos           = 499
	)
	tokens := make([]int, 30)
	for i := range tokens {
		tokens[i] = i
	}

	mask, err := planner.Plan(len(tokens), rng)
	require.NoError(t, err)
	encoded := encodeNoiseSpans(tokens, mask, firstSentinel, eos, true)

	prev := firstSentinel + 1
	seen := 0
	for _, v := range encoded {
		if v >= len(tokens) && v != eos {
			assert.Less(t, v, prev)
			prev = v
			seen++
		}
	}
	assert.Greater(t, seen, 1, "scenario should produce multiple sentinels")
}

// TestRandomSegmentation checks that segment lengths sum to the item count
// and that no interior segment is empty when there are enough items.
func TestRandomSegmentation(t *testing.T) {
	rng := testRand(3)
	for _, tc := range []struct{ items, segments int }{
		{10, 3}, {5, 5}, {1, 1}, {100, 7},
	} {
		lens := randomSegmentation(tc.items, tc.segments, rng)
		require.Len(t, lens, tc.segments)
		total := 0
		for _, l := range lens {
			total += l
			assert.GreaterOrEqual(t, l, 1)
		}
		assert.Equal(t, tc.items, total)
	}
}
