package collate

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/seopbo/lassl/tokenizers/api"
)

// Bart collates examples for text infilling: spans with Poisson-distributed
// lengths are replaced by a single mask token each (no unique sentinels)
// until the cumulative masked length reaches the target fraction. Labels are
// the uncorrupted sequence, decoder inputs the labels shifted right behind an
// end-of-sequence start token.
//
// Fields: input_ids, attention_mask, labels, decoder_input_ids,
// decoder_attention_mask.
type Bart struct {
	tok     api.Tokenizer
	opts    options
	poisson distuv.Poisson
}

// NewBart creates a text infilling collator. The tokenizer must have mask,
// pad and end-of-sequence tokens.
func NewBart(tok api.Tokenizer, opts ...Option) (*Bart, error) {
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
	if err := requireCapability(tok.EOSID(), "end-of-sequence"); err != nil {
		return nil, err
	}
	return &Bart{
		tok:     tok,
		opts:    o,
		poisson: distuv.Poisson{Lambda: o.poissonLambda, Src: o.src},
	}, nil
}

// Collate implements Collator.
func (c *Bart) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}
	padID := c.tok.PadID()

	labels := CollateAndPad(rows, padID, 0)
	for _, row := range labels {
		for j, v := range row {
			if v == padID {
				row[j] = IgnoreIndex
			}
		}
	}
	decoderInputs := shiftTokensRight(labels, padID, c.tok.EOSID())

	infilled := make([][]int, len(rows))
	for i, row := range rows {
		infilled[i] = c.infill(row)
	}
	inputs := CollateAndPad(infilled, padID, c.opts.padToMultipleOf)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, inputs)
	batch.setMatrix(FieldAttentionMask, attentionMask(inputs, padID))
	batch.setMatrix(FieldLabels, labels)
	batch.setMatrix(FieldDecoderInputIDs, decoderInputs)
	batch.setMatrix(FieldDecoderAttentionMask, attentionMask(decoderInputs, padID))
	return batch, nil
}

// infill repeatedly samples a Poisson span length and a uniform start, and
// replaces the span with a single mask token, until the cumulative masked
// length reaches the target. The running length is decremented by
// spanLength-1 per replacement, matching the reference accounting even where
// overlapping spans near sequence boundaries bias the total masked fraction
// slightly.
func (c *Bart) infill(src []int) []int {
	out := slices.Clone(src)
	length := len(out)
	maskID := c.tok.MaskID()

	maskingLength := int(float64(length) * c.opts.mlmProbability)
	masked := 0
	for masked < maskingLength {
		spanLength := int(math.Min(c.poisson.Rand(), float64(length-1)))
		start := c.opts.rng.IntN(length - spanLength)

		next := make([]int, 0, length-spanLength+1)
		next = append(next, out[:start]...)
		next = append(next, maskID)
		next = append(next, out[start+spanLength:]...)
		out = next

		length -= spanLength - 1
		masked += spanLength
	}
	return out
}
