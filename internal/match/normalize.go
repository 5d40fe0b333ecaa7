// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer canonicalizes titles for comparison. The zero value removes no
// stop tokens. A Normalizer is read-only after construction and safe for
// concurrent use.
type Normalizer struct {
	stop map[string]struct{}
}

// NewNormalizer returns a Normalizer that drops stopTokens from titles.
// Stop tokens are normalized the same way titles are.
func NewNormalizer(stopTokens []string) *Normalizer {
	n := &Normalizer{stop: make(map[string]struct{}, len(stopTokens))}
	for _, s := range stopTokens {
		for _, tok := range strings.Fields(Normalize(s)) {
			n.stop[tok] = struct{}{}
		}
	}
	return n
}

// Normalize lower-cases s, folds diacritics, turns every rune that is not a
// letter or digit into a space, and collapses whitespace. Non-printable
// runes are dropped without leaving a gap.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = caseFold(foldMarks(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPrint(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleTokens returns the normalized word tokens of title with stop tokens
// removed, in title order. Repeated tokens are kept.
func (n *Normalizer) TitleTokens(title string) []string {
	fields := strings.Fields(Normalize(title))
	out := fields[:0]
	for _, f := range fields {
		if _, ok := n.stop[f]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Title returns the normalized title with stop tokens removed.
func (n *Normalizer) Title(title string) string {
	return strings.Join(n.TitleTokens(title), " ")
}

// NormalizeSurname trims and case-folds a family name. Surnames are compared
// by exact equality afterwards; punctuation and diacritics are significant.
func NormalizeSurname(s string) string {
	return caseFold(strings.TrimSpace(s))
}

// caseFold builds a fresh Caser per call; Casers are stateful.
func caseFold(s string) string {
	return cases.Fold().String(s)
}

// foldMarks strips combining marks after canonical decomposition, so "é"
// becomes "e". Runes without a decomposition ("ø", "ß") are left alone.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
