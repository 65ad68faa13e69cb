package collate

import (
	"slices"

	"github.com/seopbo/lassl/tokenizers/api"
)

// Electra collates examples for replaced token detection: whole words are
// selected at the masking probability and every selected position is replaced
// by a plausible fake id (never the original, never a special token). Labels
// mark the replaced positions.
//
// Fields: input_ids, attention_mask, token_type_ids, labels.
type Electra struct {
	tok  api.Tokenizer
	opts options
}

// NewElectra creates a replaced token detection collator. The tokenizer must
// have a pad token. Padded widths default to multiples of 8.
func NewElectra(tok api.Tokenizer, opts ...Option) (*Electra, error) {
	o := defaultOptions()
	o.padToMultipleOf = 8
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if err := requireCapability(tok.PadID(), "pad"); err != nil {
		return nil, err
	}
	return &Electra{tok: tok, opts: o}, nil
}

// Collate implements Collator.
func (c *Electra) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}
	padID := c.tok.PadID()
	forbidden := c.tok.AllSpecialIDs()

	fakes := make([][]int, len(rows))
	labelRows := make([][]int, len(rows))
	for i, row := range rows {
		in := c.tok.PrepareForModel(row)
		selected := WholeWordMask(c.tok.ConvertIDsToTokens(in), c.opts.mlmProbability, c.tok, c.opts.rng)

		fake := slices.Clone(in)
		labels := make([]int, len(in))
		for j, replace := range selected {
			if !replace {
				continue
			}
			id, err := SampleFakeToken(in[j], forbidden, c.tok.VocabSize(), c.opts.rng)
			if err != nil {
				return nil, err
			}
			fake[j] = id
			labels[j] = 1
		}
		fakes[i] = fake
		labelRows[i] = labels
	}

	inputs := CollateAndPad(fakes, padID, c.opts.padToMultipleOf)
	width := paddedWidth(fakes, c.opts.padToMultipleOf)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, inputs)
	batch.setMatrix(FieldAttentionMask, attentionMask(inputs, padID))
	batch.setMatrix(FieldTokenTypeIDs, tokenTypeIDsFromSep(fakes, c.tok.SepID(), width))
	batch.setMatrix(FieldLabels, CollateAndPad(labelRows, 0, c.opts.padToMultipleOf))
	return batch, nil
}
