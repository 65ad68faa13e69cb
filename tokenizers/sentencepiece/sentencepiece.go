// Package sentencepiece implements an api.Tokenizer backend based on Google's
// SentencePiece tokenizer, following T5 conventions: EOS-terminated sequences
// and a table of <extra_id_N> sentinel tokens allocated downward from the top
// of the vocabulary.
package sentencepiece

import (
	"fmt"
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"

	"github.com/seopbo/lassl/tokenizers/api"
)

// wordStartMarker is the SentencePiece metaspace (U+2581) marking pieces that
// begin a new word.
const wordStartMarker = "▁"

// Tokenizer implements api.Tokenizer based on a SentencePiece model.
//
// The <extra_id_N> sentinels used for span corruption are added tokens that
// live outside the SentencePiece model proper, so the total vocabulary size
// (model pieces plus extra ids) is a constructor argument: sentinel
// <extra_id_i> maps to id vocabSize-1-i, matching the T5 convention.
type Tokenizer struct {
	*esentencepiece.Processor
	Info *esentencepiece.ModelInfo

	vocabSize int
	extraIDs  int
}

// Compile time assert that Tokenizer implements api.Tokenizer.
var _ api.Tokenizer = &Tokenizer{}

// NewFromPath creates a SentencePiece tokenizer from a tokenizer.model file
// (a SentencePiece model proto). vocabSize is the total vocabulary size
// including extraIDs sentinel tokens.
func NewFromPath(modelPath string, vocabSize, extraIDs int) (*Tokenizer, error) {
	proc, err := esentencepiece.NewProcessorFromPath(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece processor from %q", modelPath)
	}
	return New(proc, vocabSize, extraIDs)
}

// New wraps an existing SentencePiece processor.
func New(proc *esentencepiece.Processor, vocabSize, extraIDs int) (*Tokenizer, error) {
	if extraIDs < 0 || extraIDs > vocabSize {
		return nil, errors.Errorf("extraIDs must be in [0, vocabSize]: got %d with vocabSize %d", extraIDs, vocabSize)
	}
	return &Tokenizer{
		Processor: proc,
		Info:      proc.ModelInfo(),
		vocabSize: vocabSize,
		extraIDs:  extraIDs,
	}, nil
}

// PadID returns the pad token id.
func (t *Tokenizer) PadID() int { return t.Info.PadID }

// MaskID returns -1: T5-style models have no single mask token, spans are
// marked with sentinels instead.
func (t *Tokenizer) MaskID() int { return -1 }

// EOSID returns the end-of-sequence token id.
func (t *Tokenizer) EOSID() int { return t.Info.EndOfSentenceID }

// SepID returns -1: SentencePiece models have no separator token.
func (t *Tokenizer) SepID() int { return -1 }

// AllSpecialIDs returns the reserved model ids plus the sentinel id range.
func (t *Tokenizer) AllSpecialIDs() []int {
	ids := make([]int, 0, 4+t.extraIDs)
	for _, id := range []int{t.Info.PadID, t.Info.UnknownID, t.Info.BeginningOfSentenceID, t.Info.EndOfSentenceID} {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	for i := 0; i < t.extraIDs; i++ {
		ids = append(ids, t.vocabSize-1-i)
	}
	return ids
}

// VocabSize returns the total vocabulary size including sentinel tokens.
func (t *Tokenizer) VocabSize() int { return t.vocabSize }

// Vocab returns the special and sentinel token mapping. The SentencePiece
// model pieces are not enumerable through the processor, so only the tokens
// the collators look up are included.
func (t *Tokenizer) Vocab() map[string]int {
	vocab := make(map[string]int, t.extraIDs+4)
	vocab["<pad>"] = t.Info.PadID
	vocab["<unk>"] = t.Info.UnknownID
	vocab["</s>"] = t.Info.EndOfSentenceID
	if t.Info.BeginningOfSentenceID >= 0 {
		vocab["<s>"] = t.Info.BeginningOfSentenceID
	}
	for i := 0; i < t.extraIDs; i++ {
		vocab[fmt.Sprintf("<extra_id_%d>", i)] = t.vocabSize - 1 - i
	}
	return vocab
}

// ConvertIDsToTokens maps ids back to piece strings, decoding one id at a
// time. Sentinel ids map to their <extra_id_N> names.
func (t *Tokenizer) ConvertIDsToTokens(ids []int) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		if name, ok := t.specialName(id); ok {
			tokens[i] = name
			continue
		}
		tokens[i] = t.Processor.Decode([]int{id})
	}
	return tokens
}

func (t *Tokenizer) specialName(id int) (string, bool) {
	switch id {
	case t.Info.PadID:
		return "<pad>", true
	case t.Info.UnknownID:
		return "<unk>", true
	case t.Info.EndOfSentenceID:
		return "</s>", true
	}
	if t.Info.BeginningOfSentenceID >= 0 && id == t.Info.BeginningOfSentenceID {
		return "<s>", true
	}
	if id >= t.vocabSize-t.extraIDs && id < t.vocabSize {
		return fmt.Sprintf("<extra_id_%d>", t.vocabSize-1-id), true
	}
	return "", false
}

// BuildInputsWithSpecialTokens appends EOS after each sequence: a </s> or
// a </s> b </s>.
func (t *Tokenizer) BuildInputsWithSpecialTokens(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b)+2)
	out = append(out, a...)
	out = append(out, t.Info.EndOfSentenceID)
	if b != nil {
		out = append(out, b...)
		out = append(out, t.Info.EndOfSentenceID)
	}
	return out
}

// CreateTokenTypeIDsFromSequences returns 0 over a </s> and 1 over b </s>.
func (t *Tokenizer) CreateTokenTypeIDsFromSequences(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b)+2)
	for i := 0; i < len(a)+1; i++ {
		out = append(out, 0)
	}
	if b != nil {
		for i := 0; i < len(b)+1; i++ {
			out = append(out, 1)
		}
	}
	return out
}

// SpecialTokensMask returns 1 at positions holding reserved or sentinel ids.
func (t *Tokenizer) SpecialTokensMask(ids []int, alreadyHasSpecialTokens bool) []int {
	if !alreadyHasSpecialTokens {
		ids = t.BuildInputsWithSpecialTokens(ids, nil)
	}
	special := make(map[int]bool)
	for _, id := range t.AllSpecialIDs() {
		special[id] = true
	}
	mask := make([]int, len(ids))
	for i, id := range ids {
		if special[id] {
			mask[i] = 1
		}
	}
	return mask
}

// PrepareForModel appends EOS to a single raw sequence.
func (t *Tokenizer) PrepareForModel(ids []int) []int {
	return t.BuildInputsWithSpecialTokens(ids, nil)
}

// IsWordStart reports whether the piece begins a new word (carries the
// metaspace marker).
func (t *Tokenizer) IsWordStart(token string) bool {
	return strings.HasPrefix(token, wordStartMarker)
}

// IsSpecialToken reports whether the token string names a reserved token.
func (t *Tokenizer) IsSpecialToken(token string) bool {
	switch token {
	case "<pad>", "<unk>", "<s>", "</s>":
		return true
	}
	return strings.HasPrefix(token, "<extra_id_") && strings.HasSuffix(token, ">")
}

// Encode returns the text encoded into a sequence of ids.
func (t *Tokenizer) Encode(text string) []int {
	tokens := t.Processor.Encode(text)
	return sliceMap(tokens, func(tok esentencepiece.Token) int { return tok.ID })
}

// Decode returns the text from a sequence of ids.
func (t *Tokenizer) Decode(ids []int) string {
	return t.Processor.Decode(ids)
}

// sliceMap executes the given function sequentially for every element on in,
// and returns a mapped slice.
func sliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}
