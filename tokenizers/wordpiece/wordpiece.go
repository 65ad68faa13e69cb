// Package wordpiece implements a BERT-style WordPiece tokenizer backend for
// the collators' api.Tokenizer capability set. It is built directly from a
// vocabulary (a map or a vocab.txt file); it does not download or parse model
// repositories.
package wordpiece

import (
	"bufio"
	"os"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/seopbo/lassl/tokenizers/api"
)

// Standard BERT special token strings.
const (
	PadToken  = "[PAD]"
	UnkToken  = "[UNK]"
	ClsToken  = "[CLS]"
	SepToken  = "[SEP]"
	MaskToken = "[MASK]"

	// ContinuationPrefix marks sub-word pieces that continue the previous word.
	ContinuationPrefix = "##"
)

// Options configure tokenization behavior.
type Options struct {
	// Lowercase applies BERT's lowercasing and accent stripping.
	Lowercase bool
	// MaxInputCharsPerWord bounds the greedy sub-word search; longer words
	// map to [UNK]. Zero means the BERT default of 100.
	MaxInputCharsPerWord int
}

// Tokenizer implements api.Tokenizer over a WordPiece vocabulary.
type Tokenizer struct {
	vocab     map[string]int
	idToToken map[int]string
	opts      Options

	unkID  int
	padID  int
	clsID  int
	sepID  int
	maskID int
}

// Compile time assert that Tokenizer implements api.Tokenizer.
var _ api.Tokenizer = &Tokenizer{}

// New creates a WordPiece tokenizer from a vocabulary map. The vocabulary
// must contain the [PAD], [UNK], [CLS], [SEP] and [MASK] tokens.
func New(vocab map[string]int, opts Options) (*Tokenizer, error) {
	t := &Tokenizer{
		vocab:     vocab,
		idToToken: make(map[int]string, len(vocab)),
		opts:      opts,
	}
	for token, id := range vocab {
		t.idToToken[id] = token
	}
	for _, st := range []struct {
		token string
		dst   *int
	}{
		{PadToken, &t.padID},
		{UnkToken, &t.unkID},
		{ClsToken, &t.clsID},
		{SepToken, &t.sepID},
		{MaskToken, &t.maskID},
	} {
		id, ok := vocab[st.token]
		if !ok {
			return nil, errors.Errorf("vocabulary is missing the %s token", st.token)
		}
		*st.dst = id
	}
	return t, nil
}

// NewFromFile creates a WordPiece tokenizer from a vocab.txt file, one token
// per line, line number being the token id.
func NewFromFile(vocabPath string, opts Options) (*Tokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open vocabulary file %q", vocabPath)
	}
	defer f.Close()

	vocab := make(map[string]int)
	scanner := bufio.NewScanner(f)
	id := 0
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		if token == "" {
			continue
		}
		vocab[token] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read vocabulary file %q", vocabPath)
	}
	return New(vocab, opts)
}

// PadID returns the [PAD] token id.
func (t *Tokenizer) PadID() int { return t.padID }

// MaskID returns the [MASK] token id.
func (t *Tokenizer) MaskID() int { return t.maskID }

// EOSID returns the [SEP] token id; BERT-style models use [SEP] as the
// sequence terminator.
func (t *Tokenizer) EOSID() int { return t.sepID }

// SepID returns the [SEP] token id.
func (t *Tokenizer) SepID() int { return t.sepID }

// ClsID returns the [CLS] token id.
func (t *Tokenizer) ClsID() int { return t.clsID }

// AllSpecialIDs returns the ids of the five reserved tokens.
func (t *Tokenizer) AllSpecialIDs() []int {
	return []int{t.padID, t.unkID, t.clsID, t.sepID, t.maskID}
}

// VocabSize returns the size of the vocabulary.
func (t *Tokenizer) VocabSize() int { return len(t.vocab) }

// Vocab returns a copy of the full vocabulary mapping.
func (t *Tokenizer) Vocab() map[string]int {
	vocab := make(map[string]int, len(t.vocab))
	for k, v := range t.vocab {
		vocab[k] = v
	}
	return vocab
}

// ConvertIDsToTokens maps ids back to token strings. Unknown ids map to [UNK].
func (t *Tokenizer) ConvertIDsToTokens(ids []int) []string {
	tokens := make([]string, len(ids))
	for i, id := range ids {
		if token, ok := t.idToToken[id]; ok {
			tokens[i] = token
		} else {
			tokens[i] = UnkToken
		}
	}
	return tokens
}

// BuildInputsWithSpecialTokens assembles [CLS] a [SEP] or [CLS] a [SEP] b [SEP].
func (t *Tokenizer) BuildInputsWithSpecialTokens(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b)+3)
	out = append(out, t.clsID)
	out = append(out, a...)
	out = append(out, t.sepID)
	if b != nil {
		out = append(out, b...)
		out = append(out, t.sepID)
	}
	return out
}

// CreateTokenTypeIDsFromSequences returns 0 over [CLS] a [SEP] and 1 over
// b [SEP].
func (t *Tokenizer) CreateTokenTypeIDsFromSequences(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b)+3)
	for i := 0; i < len(a)+2; i++ {
		out = append(out, 0)
	}
	if b != nil {
		for i := 0; i < len(b)+1; i++ {
			out = append(out, 1)
		}
	}
	return out
}

// SpecialTokensMask returns 1 at positions holding reserved tokens.
func (t *Tokenizer) SpecialTokensMask(ids []int, alreadyHasSpecialTokens bool) []int {
	if !alreadyHasSpecialTokens {
		ids = t.BuildInputsWithSpecialTokens(ids, nil)
	}
	special := make(map[int]bool, 5)
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

// PrepareForModel adds [CLS] and [SEP] around a single raw sequence.
func (t *Tokenizer) PrepareForModel(ids []int) []int {
	return t.BuildInputsWithSpecialTokens(ids, nil)
}

// IsWordStart reports whether the token begins a new word.
func (t *Tokenizer) IsWordStart(token string) bool {
	return !strings.HasPrefix(token, ContinuationPrefix)
}

// IsSpecialToken reports whether the token string is one of the reserved
// tokens.
func (t *Tokenizer) IsSpecialToken(token string) bool {
	switch token {
	case PadToken, UnkToken, ClsToken, SepToken, MaskToken:
		return true
	}
	return false
}

// Encode converts text to a sequence of token ids (without special tokens).
func (t *Tokenizer) Encode(text string) []int {
	cleaned := cleanText(text)
	if t.opts.Lowercase {
		cleaned = removeAccents(norm.NFD.String(strings.ToLower(cleaned)))
	}

	var ids []int
	for _, word := range preTokenize(cleaned) {
		ids = append(ids, t.tokenizeWord(word)...)
	}
	return ids
}

// Decode converts ids back to text, stitching continuation pieces onto the
// previous word.
func (t *Tokenizer) Decode(ids []int) string {
	var sb strings.Builder
	for i, token := range t.ConvertIDsToTokens(ids) {
		if strings.HasPrefix(token, ContinuationPrefix) {
			sb.WriteString(strings.TrimPrefix(token, ContinuationPrefix))
		} else {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(token)
		}
	}
	return sb.String()
}

// tokenizeWord applies greedy longest-match WordPiece splitting to one word.
func (t *Tokenizer) tokenizeWord(word string) []int {
	maxChars := t.opts.MaxInputCharsPerWord
	if maxChars == 0 {
		maxChars = 100
	}
	if len(word) > maxChars {
		return []int{t.unkID}
	}

	var tokens []int
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for start < end {
			substr := word[start:end]
			if start > 0 {
				substr = ContinuationPrefix + substr
			}
			if id, ok := t.vocab[substr]; ok {
				tokens = append(tokens, id)
				found = true
				break
			}
			end--
		}
		if !found {
			return []int{t.unkID}
		}
		start = end
	}
	return tokens
}

// preTokenize splits text into words on whitespace, keeping punctuation as
// individual words.
func preTokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		switch {
		case isWhitespace(r):
			flush()
		case isPunctuation(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// cleanText drops control characters and normalizes whitespace to plain spaces.
func cleanText(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			sb.WriteRune(' ')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func removeAccents(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if !unicode.Is(unicode.Mn, r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
