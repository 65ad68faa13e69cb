package collate

import (
	"math"
	"math/rand/v2"

	"github.com/seopbo/lassl/tokenizers/api"
)

// WholeWordMask selects whole words to mask at the target probability over
// total tokens and returns a flat per-token boolean mask. Sub-word tokens are
// grouped into words using the tokenizer's word boundary markers; a word is
// always masked or kept in full, never split. Special tokens are never
// eligible.
func WholeWordMask(tokens []string, probability float64, tok api.Tokenizer, rng *rand.Rand) []bool {
	var words [][]int
	for i, token := range tokens {
		if tok.IsSpecialToken(token) {
			continue
		}
		if len(words) > 0 && !tok.IsWordStart(token) {
			words[len(words)-1] = append(words[len(words)-1], i)
		} else {
			words = append(words, []int{i})
		}
	}

	rng.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	numToPredict := int(math.Round(probability * float64(len(tokens))))
	if numToPredict < 1 {
		numToPredict = 1
	}

	mask := make([]bool, len(tokens))
	masked := 0
	for _, word := range words {
		if masked >= numToPredict {
			break
		}
		// skip words that would overshoot the budget, keep trying smaller ones
		if masked+len(word) > numToPredict {
			continue
		}
		for _, i := range word {
			mask[i] = true
		}
		masked += len(word)
	}
	return mask
}
