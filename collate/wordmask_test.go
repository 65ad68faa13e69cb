package collate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWholeWordMaskKeepsWordsWhole checks that sub-word continuations are
// always masked together with their word start.
func TestWholeWordMaskKeepsWordsWhole(t *testing.T) {
	tok := testTokenizer{}
	tokens := []string{"[CLS]", "w10", "w11", "##s30", "##s31", "w12", "w13", "##s32", "[SEP]"}
	words := [][]int{{1}, {2, 3, 4}, {5}, {6, 7}}

	rng := testRand(17)
	for trial := 0; trial < 100; trial++ {
		mask := WholeWordMask(tokens, 0.3, tok, rng)
		require.Len(t, mask, len(tokens))

		for _, word := range words {
			for _, i := range word[1:] {
				assert.Equal(t, mask[word[0]], mask[i], "word split at position %d", i)
			}
		}
	}
}

// TestWholeWordMaskNeverSelectsSpecials checks special tokens stay unmasked
// even at extreme probabilities.
func TestWholeWordMaskNeverSelectsSpecials(t *testing.T) {
	tok := testTokenizer{}
	tokens := []string{"[CLS]", "w10", "w11", "[SEP]", "w12", "[SEP]"}

	rng := testRand(23)
	for trial := 0; trial < 100; trial++ {
		mask := WholeWordMask(tokens, 0.9, tok, rng)
		assert.False(t, mask[0])
		assert.False(t, mask[3])
		assert.False(t, mask[5])
	}
}

// TestWholeWordMaskBudget checks the number of masked tokens never exceeds
// the budget implied by the probability, and is at least one token when a
// word fits.
func TestWholeWordMaskBudget(t *testing.T) {
	tok := testTokenizer{}
	tokens := make([]string, 40)
	for i := range tokens {
		tokens[i] = "w10"
	}

	rng := testRand(29)
	for trial := 0; trial < 50; trial++ {
		mask := WholeWordMask(tokens, 0.15, tok, rng)
		masked := 0
		for _, v := range mask {
			if v {
				masked++
			}
		}
		assert.Equal(t, 6, masked, "single-token words fill the budget exactly")
	}
}

// TestWholeWordMaskSkipsOvershootingWords checks a word larger than the
// remaining budget is skipped in favor of smaller words.
func TestWholeWordMaskSkipsOvershootingWords(t *testing.T) {
	tok := testTokenizer{}
	// one 9-token word plus single-token words; budget is round(0.15*20) = 3
	tokens := []string{
		"w10", "##s30", "##s31", "##s32", "##s33", "##s34", "##s35", "##s36", "##s37",
		"w11", "w12", "w13", "w14", "w15", "w16", "w17", "w18", "w19", "w20", "w21",
	}

	rng := testRand(31)
	for trial := 0; trial < 100; trial++ {
		mask := WholeWordMask(tokens, 0.15, tok, rng)
		masked := 0
		for _, v := range mask {
			if v {
				masked++
			}
		}
		assert.Equal(t, 3, masked)
		assert.False(t, mask[0], "the 9-token word cannot fit a 3-token budget")
	}
}
