// Package collate converts tokenized text examples into mini-batches shaped
// for self-supervised language-model pretraining objectives.
//
// Each objective gets its own Collator (Bert, Albert, Roberta, GPT2, Bart, T5,
// Electra), composed from a small set of shared corruption primitives: random
// span planning, sentinel encoding, whole word masking, sentence order
// splitting and fake token sampling. Collators hold only configuration and a
// tokenizer reference after construction; all per-call state lives on the
// stack, so one collator instance is safe to share across data-loading
// workers.
package collate

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// IgnoreIndex is the label value excluded from loss computation at padding
// and non-target positions.
const IgnoreIndex = -100

// Batch field names. These are part of the external surface consumed by the
// training loop.
const (
	FieldInputIDs             = "input_ids"
	FieldLabels               = "labels"
	FieldAttentionMask        = "attention_mask"
	FieldTokenTypeIDs         = "token_type_ids"
	FieldDecoderInputIDs      = "decoder_input_ids"
	FieldDecoderAttentionMask = "decoder_attention_mask"
	FieldNextSentenceLabel    = "next_sentence_label"
	FieldSentenceOrderLabel   = "sentence_order_label"
	FieldSpecialTokensMask    = "special_tokens_mask"
)

// Errors returned by collators and primitives. Callers test with errors.Is;
// the wrapped message carries the specifics.
var (
	// ErrInvalidExample marks an example too degenerate to corrupt (for
	// example a single-token sequence that cannot hold one noise span).
	ErrInvalidExample = errors.New("invalid example")

	// ErrConfiguration marks construction-time parameters that can never
	// produce a valid batch.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMalformedExample marks a batch call whose examples are structurally
	// broken (missing input ids). The whole batch fails; no partial batches
	// are emitted.
	ErrMalformedExample = errors.New("malformed example")
)

// Example is one tokenized training example: an ordered sequence of token
// ids. Examples are never mutated; corruption always produces new sequences.
type Example struct {
	InputIDs []int
}

// Collator turns a list of examples into one batch for a specific
// pretraining objective.
type Collator interface {
	Collate(examples []Example) (*Batch, error)
}

type options struct {
	mlmProbability  float64
	padToMultipleOf int
	poissonLambda   float64
	noiseDensity    float64
	meanSpanLength  float64
	src             rand.Source
	rng             *rand.Rand
}

func defaultOptions() options {
	return options{
		mlmProbability: 0.15,
		poissonLambda:  3,
		noiseDensity:   0.15,
		meanSpanLength: 3.0,
	}
}

func (o *options) apply(opts []Option) error {
	for _, opt := range opts {
		opt(o)
	}
	if o.src == nil {
		o.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	o.rng = rand.New(o.src)
	return o.validate()
}

func (o *options) validate() error {
	if o.mlmProbability <= 0 || o.mlmProbability >= 1 {
		return errors.Wrapf(ErrConfiguration, "masking probability must be in (0, 1): got %v", o.mlmProbability)
	}
	if o.padToMultipleOf < 0 {
		return errors.Wrapf(ErrConfiguration, "pad multiple must be non-negative: got %d", o.padToMultipleOf)
	}
	if o.poissonLambda <= 0 {
		return errors.Wrapf(ErrConfiguration, "poisson lambda must be positive: got %v", o.poissonLambda)
	}
	if o.noiseDensity <= 0 || o.noiseDensity >= 1 {
		return errors.Wrapf(ErrConfiguration, "noise density must be in (0, 1): got %v", o.noiseDensity)
	}
	if o.meanSpanLength < 1 {
		return errors.Wrapf(ErrConfiguration, "mean span length must be at least 1: got %v", o.meanSpanLength)
	}
	return nil
}

// Option configures a collator at construction time.
type Option func(*options)

// WithMLMProbability sets the target fraction of tokens selected for
// corruption. Default 0.15.
func WithMLMProbability(p float64) Option {
	return func(o *options) { o.mlmProbability = p }
}

// WithPadToMultipleOf rounds padded widths up to the nearest multiple.
// Zero disables rounding.
func WithPadToMultipleOf(n int) Option {
	return func(o *options) { o.padToMultipleOf = n }
}

// WithPoissonLambda sets the mean of the span length distribution used by
// text infilling. Default 3.
func WithPoissonLambda(lambda float64) Option {
	return func(o *options) { o.poissonLambda = lambda }
}

// WithNoiseDensity sets the fraction of tokens covered by noise spans in
// span corruption. Default 0.15.
func WithNoiseDensity(d float64) Option {
	return func(o *options) { o.noiseDensity = d }
}

// WithMeanSpanLength sets the mean noise span length for span corruption.
// Default 3.
func WithMeanSpanLength(m float64) Option {
	return func(o *options) { o.meanSpanLength = m }
}

// WithRandomSource injects the random source behind every probabilistic
// draw, making batch construction reproducible.
func WithRandomSource(src rand.Source) Option {
	return func(o *options) { o.src = src }
}

// inputRows extracts and validates the raw token id rows of a batch call.
func inputRows(examples []Example) ([][]int, error) {
	if len(examples) == 0 {
		return nil, errors.Wrap(ErrMalformedExample, "empty batch")
	}
	rows := make([][]int, len(examples))
	for i, ex := range examples {
		if len(ex.InputIDs) == 0 {
			return nil, errors.Wrapf(ErrMalformedExample, "example %d has no input ids", i)
		}
		rows[i] = ex.InputIDs
	}
	return rows, nil
}

// requireCapability checks a tokenizer id lookup needed by an objective.
func requireCapability(id int, what string) error {
	if id < 0 {
		return errors.Wrapf(ErrConfiguration, "tokenizer has no %s token", what)
	}
	return nil
}
