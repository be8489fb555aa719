package textgen

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// Sequence is one tokenized training sequence with an occurrence weight.
// The weight is 1 unless the input carried explicit frequencies.
type Sequence struct {
	Symbols []string
	Weight  int
}

// Splitter cuts raw text into weighted symbol sequences using regular
// expressions. Its zero behavior is word splitting; use the options or the
// Sentences preset to change it.
type Splitter struct {
	seqDelim  *regexp.Regexp
	elemDelim *regexp.Regexp
	freqGroup *regexp.Regexp
}

// SplitterOption is a function that configures a Splitter.
type SplitterOption func(*Splitter)

// WithSequenceDelimiter sets the regex that separates one sequence from the
// next in the input text.
func WithSequenceDelimiter(pattern string) SplitterOption {
	return func(s *Splitter) {
		s.seqDelim = regexp.MustCompile(pattern)
	}
}

// WithElementDelimiter sets the regex that separates symbols inside a
// sequence. Without one, each sequence splits into single-character symbols.
func WithElementDelimiter(pattern string) SplitterOption {
	return func(s *Splitter) {
		s.elemDelim = regexp.MustCompile(pattern)
	}
}

// WithFrequencyPattern sets a grouping regex for inputs that carry explicit
// frequencies. The pattern must have two groups: the sequence text and its
// integer frequency, e.g. `(.+):(\d+)` for "Smith:2376207" lines. Sequences
// that fail to match the pattern are skipped.
func WithFrequencyPattern(pattern string) SplitterOption {
	return func(s *Splitter) {
		s.freqGroup = regexp.MustCompile(pattern)
	}
}

// NewSplitter creates a word-mode Splitter, overridable with options:
// sequences are separated by runs of non-word characters and each sequence
// becomes single-character symbols.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		seqDelim: regexp.MustCompile(`[^\w']+`),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Words returns a Splitter that produces one sequence per word, with
// single-character symbols. Useful for generating new words from a lexicon.
func Words() *Splitter {
	return NewSplitter()
}

// Sentences returns a Splitter that produces one sequence per sentence,
// with word symbols. Useful for generating new sentences from prose.
func Sentences() *Splitter {
	return NewSplitter(
		WithSequenceDelimiter(`[.!?\n]+`),
		WithElementDelimiter(`[\s,;:]+`),
	)
}

// Split reads all text from r and returns the tokenized sequences. Empty
// sequences are dropped. It is an error for the input to produce no
// sequences at all.
func (s *Splitter) Split(r io.Reader) ([]Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("textgen: reading input: %w", err)
	}

	var out []Sequence
	for _, raw := range s.seqDelim.Split(string(data), -1) {
		if raw == "" {
			continue
		}

		weight := 1
		if s.freqGroup != nil {
			m := s.freqGroup.FindStringSubmatch(raw)
			if len(m) < 3 {
				continue
			}
			raw = m[1]
			weight, err = strconv.Atoi(m[2])
			if err != nil || weight < 1 {
				continue
			}
		}

		symbols := s.symbols(raw)
		if len(symbols) == 0 {
			continue
		}
		out = append(out, Sequence{Symbols: symbols, Weight: weight})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("textgen: input produced no sequences")
	}
	return out, nil
}

// symbols cuts one raw sequence into its symbols.
func (s *Splitter) symbols(raw string) []string {
	if s.elemDelim == nil {
		runes := []rune(raw)
		out := make([]string, 0, len(runes))
		for _, r := range runes {
			out = append(out, string(r))
		}
		return out
	}
	var out []string
	for _, e := range s.elemDelim.Split(raw, -1) {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
