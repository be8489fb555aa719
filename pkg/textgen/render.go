package textgen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/CTAG07/Drosera/pkg/ngram"
)

// Renderer turns a generated symbol sequence back into display text.
type Renderer struct {
	separator  string
	terminator string
	capitalize bool
}

// RenderOption is a function that configures a Renderer.
type RenderOption func(*Renderer)

// WithSeparator sets the string joined between symbols. Word-mode output
// typically uses "" and sentence-mode output " ".
func WithSeparator(sep string) RenderOption {
	return func(r *Renderer) {
		r.separator = sep
	}
}

// WithTerminator appends a string after the last symbol, e.g. "." for
// sentences.
func WithTerminator(term string) RenderOption {
	return func(r *Renderer) {
		r.terminator = term
	}
}

// WithCapitalize upper-cases the first rune of the rendered text.
func WithCapitalize() RenderOption {
	return func(r *Renderer) {
		r.capitalize = true
	}
}

// NewRenderer creates a Renderer. The default joins symbols with nothing
// and applies no capitalization or terminator.
func NewRenderer(opts ...RenderOption) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WordRenderer renders single-character symbol sequences as one word.
func WordRenderer() *Renderer {
	return NewRenderer(WithCapitalize())
}

// SentenceRenderer renders word symbol sequences as a sentence.
func SentenceRenderer() *Renderer {
	return NewRenderer(WithSeparator(" "), WithCapitalize(), WithTerminator("."))
}

// Render joins symbols into display text.
func (r *Renderer) Render(symbols []string) string {
	text := strings.Join(symbols, r.separator)
	if r.capitalize && text != "" {
		runes := []rune(text)
		runes[0] = unicode.ToUpper(runes[0])
		text = string(runes)
	}
	return text + r.terminator
}

var boundPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)\s*$`)

// ParseBound parses a "low,high" percentile band string, e.g. "25,75".
func ParseBound(s string) (ngram.Bound, error) {
	m := boundPattern.FindStringSubmatch(s)
	if m == nil {
		return ngram.Bound{}, fmt.Errorf("textgen: %w: %q is not of the form \"low,high\"", ngram.ErrInvalidBound, s)
	}
	low, _ := strconv.ParseFloat(m[1], 64)
	high, _ := strconv.ParseFloat(m[2], 64)
	b := ngram.Bound{Low: low, High: high}
	if low > high || high > 100 {
		return ngram.Bound{}, fmt.Errorf("textgen: %w: %q", ngram.ErrInvalidBound, s)
	}
	return b, nil
}
