package collate

import (
	"github.com/seopbo/lassl/tokenizers/api"
)

// Albert collates examples for ALBERT-style pretraining: masked language
// modeling (per-token, no whole word constraint) plus sentence order
// prediction.
//
// Fields: input_ids, token_type_ids, special_tokens_mask,
// sentence_order_label, labels.
type Albert struct {
	tok  api.Tokenizer
	opts options
}

// NewAlbert creates an ALBERT collator. The tokenizer must have mask and pad
// tokens.
func NewAlbert(tok api.Tokenizer, opts ...Option) (*Albert, error) {
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
	return &Albert{tok: tok, opts: o}, nil
}

// Collate implements Collator.
func (c *Albert) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}

	inputs := make([][]int, len(rows))
	typeIDs := make([][]int, len(rows))
	specialMasks := make([][]int, len(rows))
	sopLabels := make([]int, len(rows))
	for i, chunk := range rows {
		a, b, reversed, err := SplitSentenceOrder(chunk, c.opts.rng)
		if err != nil {
			return nil, err
		}
		in := c.tok.BuildInputsWithSpecialTokens(a, b)
		inputs[i] = in
		typeIDs[i] = c.tok.CreateTokenTypeIDsFromSequences(a, b)
		specialMasks[i] = c.tok.SpecialTokensMask(in, true)
		if reversed {
			sopLabels[i] = 1
		}
	}

	paddedInputs := CollateAndPad(inputs, c.tok.PadID(), c.opts.padToMultipleOf)
	// pad positions count as special so they are never selected
	paddedSpecial := CollateAndPad(specialMasks, 1, c.opts.padToMultipleOf)
	selected := bernoulliMask(paddedInputs, paddedSpecial, c.opts.mlmProbability, c.opts.rng)
	maskedInputs, labels := maskTokens(paddedInputs, selected, c.tok.MaskID(), c.tok.VocabSize(), c.opts.rng)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, maskedInputs)
	batch.setMatrix(FieldTokenTypeIDs, CollateAndPad(typeIDs, 0, c.opts.padToMultipleOf))
	batch.setMatrix(FieldSpecialTokensMask, paddedSpecial)
	batch.setVector(FieldSentenceOrderLabel, sopLabels)
	batch.setMatrix(FieldLabels, labels)
	return batch, nil
}
