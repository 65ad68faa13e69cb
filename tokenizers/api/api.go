// Package api defines the Tokenizer capability set consumed by the collators.
// It's kept as a separate interface-only package so that concrete backends and
// the collate package can depend on it without depending on each other.
package api

// Tokenizer is the narrow capability interface the collators need from a
// tokenizer. It covers id lookups, sequence assembly with special tokens, and
// word boundary queries; how a backend is built or loaded is out of scope.
//
// Id lookup methods return -1 when the backend has no such token (for example
// a T5-style tokenizer has no mask token).
type Tokenizer interface {
	PadID() int
	MaskID() int
	EOSID() int
	SepID() int

	// AllSpecialIDs returns every reserved id (pad, mask, separator,
	// classification, unknown, sentinels, ...) the backend knows about.
	AllSpecialIDs() []int

	VocabSize() int

	// Vocab maps token strings to ids. Backends that cannot enumerate their
	// full vocabulary must still include all special and sentinel tokens.
	Vocab() map[string]int

	ConvertIDsToTokens(ids []int) []string

	// BuildInputsWithSpecialTokens assembles one or two sequences into a
	// model-ready input. b may be nil for a single sequence.
	BuildInputsWithSpecialTokens(a, b []int) []int

	// CreateTokenTypeIDsFromSequences returns the segment ids matching
	// BuildInputsWithSpecialTokens over the same pair.
	CreateTokenTypeIDsFromSequences(a, b []int) []int

	// SpecialTokensMask returns 1 at positions holding special tokens.
	// When alreadyHasSpecialTokens is false the mask describes the sequence
	// as it would look after BuildInputsWithSpecialTokens.
	SpecialTokensMask(ids []int, alreadyHasSpecialTokens bool) []int

	// PrepareForModel adds special tokens to a single raw sequence without
	// any padding.
	PrepareForModel(ids []int) []int

	// IsWordStart reports whether a token string begins a new word, as
	// opposed to continuing the previous one (for example a "##" WordPiece
	// continuation). Used for whole word masking boundaries.
	IsWordStart(token string) bool

	// IsSpecialToken reports whether the token string is a reserved token.
	IsSpecialToken(token string) bool
}
