package collate

import (
	"github.com/seopbo/lassl/tokenizers/api"
)

// T5 collates examples for span corruption. A noise mask is planned over each
// example, then the sequence is encoded twice: once against the mask (the
// encoder input keeps non-noise tokens with sentinels standing in for noise
// spans) and once against its complement with a trailing sentinel (the target
// keeps the noise tokens). Decoder inputs are the labels shifted right behind
// a pad start token.
//
// Fields: input_ids, attention_mask, labels, decoder_input_ids,
// decoder_attention_mask.
type T5 struct {
	tok           api.Tokenizer
	opts          options
	planner       *SpanPlanner
	firstSentinel int
}

// NewT5 creates a span corruption collator. The tokenizer must have pad and
// end-of-sequence tokens; the first (highest) sentinel id is taken from the
// tokenizer's <extra_id_0> entry, falling back to the last vocabulary id.
func NewT5(tok api.Tokenizer, opts ...Option) (*T5, error) {
	o := defaultOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if err := requireCapability(tok.PadID(), "pad"); err != nil {
		return nil, err
	}
	if err := requireCapability(tok.EOSID(), "end-of-sequence"); err != nil {
		return nil, err
	}
	planner, err := NewSpanPlanner(o.noiseDensity, o.meanSpanLength)
	if err != nil {
		return nil, err
	}
	firstSentinel, ok := tok.Vocab()["<extra_id_0>"]
	if !ok {
		firstSentinel = tok.VocabSize() - 1
	}
	return &T5{tok: tok, opts: o, planner: planner, firstSentinel: firstSentinel}, nil
}

// Collate implements Collator.
func (c *T5) Collate(examples []Example) (*Batch, error) {
	rows, err := inputRows(examples)
	if err != nil {
		return nil, err
	}
	padID := c.tok.PadID()
	eosID := c.tok.EOSID()

	inputs := make([][]int, len(rows))
	targets := make([][]int, len(rows))
	for i, row := range rows {
		mask, err := c.planner.Plan(len(row), c.opts.rng)
		if err != nil {
			return nil, err
		}
		inputs[i] = encodeNoiseSpans(row, mask, c.firstSentinel, eosID, false)
		targets[i] = encodeNoiseSpans(row, complementMask(mask), c.firstSentinel, eosID, true)
	}

	// encoder and decoder sides are padded independently
	paddedInputs := CollateAndPad(inputs, padID, 0)
	labels := CollateAndPad(targets, padID, 0)
	decoderInputs := shiftTokensRight(labels, padID, padID)

	batch := newBatch()
	batch.setMatrix(FieldInputIDs, paddedInputs)
	batch.setMatrix(FieldAttentionMask, attentionMask(paddedInputs, padID))
	batch.setMatrix(FieldLabels, labels)
	batch.setMatrix(FieldDecoderInputIDs, decoderInputs)
	batch.setMatrix(FieldDecoderAttentionMask, attentionMask(decoderInputs, padID))
	return batch, nil
}
