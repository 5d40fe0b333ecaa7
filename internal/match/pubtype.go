// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import "strings"

// Category is the coarse publication type shared by both vocabularies.
type Category int

const (
	Other Category = iota
	Article
	Conference
	Book
	Chapter
)

func (c Category) String() string {
	switch c {
	case Article:
		return "article"
	case Conference:
		return "conference"
	case Book:
		return "book"
	case Chapter:
		return "chapter"
	default:
		return "other"
	}
}

// MarshalText renders the category name in JSON and YAML output.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Vocabulary names a publication-type vocabulary.
type Vocabulary int

const (
	// SourceVocabulary is the DiVA publication type vocabulary.
	SourceVocabulary Vocabulary = iota
	// MetadataVocabulary is the Crossref work type vocabulary.
	MetadataVocabulary
)

// Keys are lower-cased.
var sourceTypes = map[string]Category{
	"article":         Article,
	"review":          Article,
	"bookreview":      Article,
	"conferencepaper": Conference,
	"book":            Book,
	"chapter":         Chapter,
}

var metadataTypes = map[string]Category{
	"journal-article":     Article,
	"journal-review":      Article,
	"peer-review":         Article,
	"proceedings-article": Conference,
	"proceedings-paper":   Conference,
	"conference-paper":    Conference,
	"book":                Book,
	"monograph":           Book,
	"edited-book":         Book,
	"book-chapter":        Chapter,
	"chapter":             Chapter,
	"book-section":        Chapter,
	"book-part":           Chapter,
}

// CoarseCategory maps a vocabulary-specific type to its Category.
// Unrecognized and empty strings map to Other.
func CoarseCategory(t string, v Vocabulary) Category {
	table := sourceTypes
	if v == MetadataVocabulary {
		table = metadataTypes
	}
	return table[typeKey(t)]
}

// Compatible reports whether two categories may describe the same work.
// Other is never compatible, not even with itself.
func Compatible(a, b Category) bool {
	return a == b && a != Other
}

// TypeReconciler decides type compatibility between a source record and a
// candidate. EscapeHatch lets two unmapped types match when their original
// strings are identical.
type TypeReconciler struct {
	EscapeHatch bool
}

// Compatible compares a source-vocabulary type with a metadata-vocabulary type.
func (r TypeReconciler) Compatible(sourceType, candidateType string) bool {
	a := CoarseCategory(sourceType, SourceVocabulary)
	b := CoarseCategory(candidateType, MetadataVocabulary)
	if a == Other && b == Other && r.EscapeHatch {
		k := typeKey(sourceType)
		return k != "" && k == typeKey(candidateType)
	}
	return Compatible(a, b)
}

func typeKey(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
