package collate

import (
	"github.com/seopbo/lassl/tokenizers/api"
)

// Roberta collates examples for plain masked language modeling: per-token
// random masking at the target probability, no auxiliary objective.
//
// Fields: input_ids, attention_mask, labels.
type Roberta struct {
	tok  api.Tokenizer
	opts options
}

// NewRoberta creates a masked-LM collator. The tokenizer must have mask and
// pad tokens.
func NewRoberta(tok api.Tokenizer, opts ...Option) (*Roberta, error) {
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
	return &Roberta{tok: tok, opts: o}, nil
}

// Collate implements Collator.
func (c *Roberta) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}

	specialMasks := make([][]int, len(rows))
	for i, row := range rows {
		specialMasks[i] = c.tok.SpecialTokensMask(row, true)
	}

	paddedInputs := CollateAndPad(rows, c.tok.PadID(), c.opts.padToMultipleOf)
	paddedSpecial := CollateAndPad(specialMasks, 1, c.opts.padToMultipleOf)
	// attention derives from the uncorrupted padded inputs: a random
	// replacement that happens to equal the pad id must not mask attention
	attn := attentionMask(paddedInputs, c.tok.PadID())
	selected := bernoulliMask(paddedInputs, paddedSpecial, c.opts.mlmProbability, c.opts.rng)
	maskedInputs, labels := maskTokens(paddedInputs, selected, c.tok.MaskID(), c.tok.VocabSize(), c.opts.rng)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, maskedInputs)
	batch.setMatrix(FieldAttentionMask, attn)
	batch.setMatrix(FieldLabels, labels)
	return batch, nil
}
