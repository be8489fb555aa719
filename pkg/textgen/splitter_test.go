package textgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordsSplitsIntoCharacterSequences(t *testing.T) {
	seqs, err := Words().Split(strings.NewReader("ada, grace"))
	require.NoError(t, err)
	require.Len(t, seqs, 2)

	assert.Equal(t, []string{"a", "d", "a"}, seqs[0].Symbols)
	assert.Equal(t, []string{"g", "r", "a", "c", "e"}, seqs[1].Symbols)
	assert.Equal(t, 1, seqs[0].Weight)
}

func TestWordsKeepsApostrophes(t *testing.T) {
	seqs, err := Words().Split(strings.NewReader("don't stop"))
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, []string{"d", "o", "n", "'", "t"}, seqs[0].Symbols)
}

func TestSentencesSplitsIntoWordSequences(t *testing.T) {
	in := "One fish, two fish. Red fish!\nBlue fish?"
	seqs, err := Sentences().Split(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, seqs, 3)

	assert.Equal(t, []string{"One", "fish", "two", "fish"}, seqs[0].Symbols)
	assert.Equal(t, []string{"Red", "fish"}, seqs[1].Symbols)
	assert.Equal(t, []string{"Blue", "fish"}, seqs[2].Symbols)
}

func TestSplitDropsEmptySequences(t *testing.T) {
	seqs, err := Sentences().Split(strings.NewReader("Hello there... !! So long."))
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, []string{"Hello", "there"}, seqs[0].Symbols)
	assert.Equal(t, []string{"So", "long"}, seqs[1].Symbols)
}

func TestSplitEmptyInput(t *testing.T) {
	_, err := Words().Split(strings.NewReader("  \n\t "))
	assert.Error(t, err)
}

func TestFrequencyPattern(t *testing.T) {
	in := "smith:2376207\njohnson:1857160\nskipme\n"
	s := NewSplitter(
		WithSequenceDelimiter(`\n`),
		WithFrequencyPattern(`^(.+):(\d+)$`),
	)
	seqs, err := s.Split(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, seqs, 2, "lines without a frequency should be skipped")

	assert.Equal(t, []string{"s", "m", "i", "t", "h"}, seqs[0].Symbols)
	assert.Equal(t, 2376207, seqs[0].Weight)
	assert.Equal(t, 1857160, seqs[1].Weight)
}

func TestFrequencyPatternRejectsZeroWeight(t *testing.T) {
	s := NewSplitter(
		WithSequenceDelimiter(`\n`),
		WithFrequencyPattern(`^(.+):(\d+)$`),
	)
	_, err := s.Split(strings.NewReader("ghost:0\n"))
	assert.Error(t, err, "a lone zero-frequency line leaves no sequences")
}

func TestCustomElementDelimiter(t *testing.T) {
	s := NewSplitter(
		WithSequenceDelimiter(`\n`),
		WithElementDelimiter(`-`),
	)
	seqs, err := s.Split(strings.NewReader("a-b-c\nx--y"))
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	assert.Equal(t, []string{"a", "b", "c"}, seqs[0].Symbols)
	assert.Equal(t, []string{"x", "y"}, seqs[1].Symbols, "empty elements are dropped")
}
