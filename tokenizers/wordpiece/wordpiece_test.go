package wordpiece

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab() map[string]int {
	return map[string]int{
		PadToken:  0,
		UnkToken:  1,
		ClsToken:  2,
		SepToken:  3,
		MaskToken: 4,
		"un":      5,
		"##aff":   6,
		"##able":  7,
		"hello":   8,
		"world":   9,
		"!":       10,
		"##ing":   11,
		"want":    12,
	}
}

// TestEncode checks whitespace splitting, punctuation isolation, greedy
// longest-match sub-word splitting and the unknown fallback.
func TestEncode(t *testing.T) {
	tok, err := New(testVocab(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{8, 9, 10}, tok.Encode("hello world!"))
	assert.Equal(t, []int{5, 6, 7}, tok.Encode("unaffable"))
	assert.Equal(t, []int{1}, tok.Encode("xyz"))
	assert.Equal(t, []int{12, 11}, tok.Encode("wanting"))
	assert.Empty(t, tok.Encode("   "))
}

// TestEncodeLowercase checks lowercasing and accent stripping.
func TestEncodeLowercase(t *testing.T) {
	tok, err := New(testVocab(), Options{Lowercase: true})
	require.NoError(t, err)

	assert.Equal(t, []int{8}, tok.Encode("Héllo"))
	assert.Equal(t, []int{8, 9}, tok.Encode("HELLO World"))
}

// TestEncodeMaxInputChars checks over-long words map to the unknown token.
func TestEncodeMaxInputChars(t *testing.T) {
	tok, err := New(testVocab(), Options{MaxInputCharsPerWord: 4})
	require.NoError(t, err)

	assert.Equal(t, []int{1}, tok.Encode("unaffable"))
	assert.Equal(t, []int{12}, tok.Encode("want"))
}

// TestDecode checks continuation pieces are stitched onto the previous word.
func TestDecode(t *testing.T) {
	tok, err := New(testVocab(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "unaffable hello", tok.Decode([]int{5, 6, 7, 8}))
}

// TestSpecialTokenAssembly checks sequence pair assembly, token type ids and
// the special tokens mask.
func TestSpecialTokenAssembly(t *testing.T) {
	tok, err := New(testVocab(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 8, 9, 3}, tok.BuildInputsWithSpecialTokens([]int{8, 9}, nil))
	assert.Equal(t, []int{2, 8, 3, 9, 3}, tok.BuildInputsWithSpecialTokens([]int{8}, []int{9}))

	assert.Equal(t, []int{0, 0, 0}, tok.CreateTokenTypeIDsFromSequences([]int{8}, nil))
	assert.Equal(t, []int{0, 0, 0, 1, 1}, tok.CreateTokenTypeIDsFromSequences([]int{8}, []int{9}))

	assert.Equal(t, []int{1, 0, 0, 1}, tok.SpecialTokensMask([]int{8, 9}, false))
	assert.Equal(t, []int{1, 0, 1}, tok.SpecialTokensMask([]int{2, 8, 3}, true))

	assert.Equal(t, []int{2, 8, 9, 3}, tok.PrepareForModel([]int{8, 9}))
}

// TestCapabilityIDs checks the id accessors and word boundary predicates.
func TestCapabilityIDs(t *testing.T) {
	tok, err := New(testVocab(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, tok.PadID())
	assert.Equal(t, 4, tok.MaskID())
	assert.Equal(t, 3, tok.SepID())
	assert.Equal(t, 3, tok.EOSID())
	assert.Equal(t, 2, tok.ClsID())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, tok.AllSpecialIDs())
	assert.Equal(t, len(testVocab()), tok.VocabSize())

	assert.True(t, tok.IsWordStart("hello"))
	assert.False(t, tok.IsWordStart("##able"))
	assert.True(t, tok.IsSpecialToken("[MASK]"))
	assert.False(t, tok.IsSpecialToken("hello"))

	assert.Equal(t, []string{"[CLS]", "hello", "[SEP]", "[UNK]"}, tok.ConvertIDsToTokens([]int{2, 8, 3, 999}))
}

// TestNewMissingSpecialToken checks construction fails without the reserved
// tokens.
func TestNewMissingSpecialToken(t *testing.T) {
	vocab := testVocab()
	delete(vocab, MaskToken)
	_, err := New(vocab, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), MaskToken)
}

// TestNewFromFile checks loading a vocab.txt with line numbers as ids.
func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	content := "[PAD]\n[UNK]\n[CLS]\n[SEP]\n[MASK]\nhello\nworld\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tok, err := NewFromFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, tok.VocabSize())
	assert.Equal(t, []int{5, 6}, tok.Encode("hello world"))

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.txt"), Options{})
	assert.Error(t, err)
}
