package collate

import (
	"github.com/seopbo/lassl/tokenizers/api"
)

// GPT2 collates examples for causal language modeling. No corruption is
// applied: labels equal the padded input ids exactly, and the shifted
// prediction is the model's responsibility.
//
// Fields: input_ids, labels.
type GPT2 struct {
	tok  api.Tokenizer
	opts options
}

// NewGPT2 creates a causal-LM collator. The tokenizer must have a pad token.
func NewGPT2(tok api.Tokenizer, opts ...Option) (*GPT2, error) {
	o := defaultOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if err := requireCapability(tok.PadID(), "pad"); err != nil {
		return nil, err
	}
	return &GPT2{tok: tok, opts: o}, nil
}

// Collate implements Collator.
func (c *GPT2) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}
	padded := CollateAndPad(rows, c.tok.PadID(), c.opts.padToMultipleOf)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, padded)
	batch.setMatrix(FieldLabels, cloneRows(padded))
	return batch, nil
}
