// Package chatfilter masks blocked words in chat messages with an Aho-Corasick automaton.
package chatfilter

import (
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"go.uber.org/zap"
)

// DefaultMask replaces each character of a blocked word.
const DefaultMask = '*'

// Filter censors a fixed word list. Matching ignores case, punctuation, spacing
// and common leet substitutions.
type Filter struct {
	matcher *goahocorasick.Machine
	mask    rune
	logger  *zap.Logger
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// New builds a filter for words. Words that normalize to nothing are skipped.
func New(words []string, mask rune, logger *zap.Logger) (*Filter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mask == 0 {
		mask = DefaultMask
	}
	f := &Filter{mask: mask, logger: logger}

	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if p := normalizeRunes([]rune(w)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return f, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build chat filter: %w", err)
	}
	f.matcher = m
	return f, nil
}

// Censor returns text with every blocked word masked.
func (f *Filter) Censor(text string) string {
	out, words := f.CensorWords(text)
	if len(words) > 0 {
		f.logger.Debug("chat message censored", zap.Strings("words", words))
	}
	return out
}

// CensorWords masks blocked words and returns the normalized words that matched.
func (f *Filter) CensorWords(text string) (string, []string) {
	if f == nil || f.matcher == nil {
		return text, nil
	}
	mapping := normalize(text)
	if len(mapping.normalized) == 0 {
		return text, nil
	}
	spans := f.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return text, nil
	}

	orig := []rune(text)
	var words []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			orig[i] = f.mask
		}
		words = append(words, string(span.Word))
	}
	return string(orig), words
}

// normalize builds the searchable form of input and remembers where each rune came from.
func normalize(input string) textMapping {
	orig := []rune(input)
	m := textMapping{
		normalized: make([]rune, 0, len(orig)),
		origIdx:    make([]int, 0, len(orig)),
	}
	for i, r := range orig {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		m.normalized = append(m.normalized, unicode.ToLower(clean))
		m.origIdx = append(m.origIdx, i)
	}
	return m
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps leet substitutions back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
