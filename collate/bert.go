package collate

import (
	"github.com/seopbo/lassl/tokenizers/api"
)

// Bert collates examples for BERT-style pretraining: masked language
// modeling with whole word masking plus sentence order prediction. Each chunk
// is split at a random middle-third pivot, optionally swapped, reassembled
// with special tokens, and whole words are masked at the configured
// probability.
//
// Fields: input_ids, token_type_ids, next_sentence_label, labels.
type Bert struct {
	tok  api.Tokenizer
	opts options
}

// NewBert creates a BERT collator. The tokenizer must have mask and pad
// tokens.
func NewBert(tok api.Tokenizer, opts ...Option) (*Bert, error) {
	o := defaultOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if err := requireCapability(tok.MaskID(), "mask"); err != nil {
		return nil, err
	}
	if err := requireCapability(tok.PadID(), "pad"); err != nil {
		return nil, err
	}
	return &Bert{tok: tok, opts: o}, nil
}

// Collate implements Collator.
func (c *Bert) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}

	inputs := make([][]int, len(rows))
	typeIDs := make([][]int, len(rows))
	sopLabels := make([]int, len(rows))
	wwmMasks := make([][]bool, len(rows))
	for i, chunk := range rows {
		a, b, reversed, err := SplitSentenceOrder(chunk, c.opts.rng)
		if err != nil {
			return nil, err
		}
		in := c.tok.BuildInputsWithSpecialTokens(a, b)
		inputs[i] = in
		typeIDs[i] = c.tok.CreateTokenTypeIDsFromSequences(a, b)
		if reversed {
			sopLabels[i] = 1
		}
		wwmMasks[i] = WholeWordMask(c.tok.ConvertIDsToTokens(in), c.opts.mlmProbability, c.tok, c.opts.rng)
	}

	paddedInputs := CollateAndPad(inputs, c.tok.PadID(), c.opts.padToMultipleOf)
	width := paddedWidth(inputs, c.opts.padToMultipleOf)
	maskedInputs, labels := maskTokens(paddedInputs, padBoolRows(wwmMasks, width), c.tok.MaskID(), c.tok.VocabSize(), c.opts.rng)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, maskedInputs)
	batch.setMatrix(FieldTokenTypeIDs, CollateAndPad(typeIDs, 0, c.opts.padToMultipleOf))
	batch.setVector(FieldNextSentenceLabel, sopLabels)
	batch.setMatrix(FieldLabels, labels)
	return batch, nil
}
