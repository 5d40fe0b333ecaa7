// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoarseCategory(t *testing.T) {
	tests := []struct {
		input string
		vocab Vocabulary
		want  Category
	}{
		{"article", SourceVocabulary, Article},
		{"review", SourceVocabulary, Article},
		{"bookReview", SourceVocabulary, Article},
		{"conferencePaper", SourceVocabulary, Conference},
		{" ConferencePaper ", SourceVocabulary, Conference},
		{"book", SourceVocabulary, Book},
		{"chapter", SourceVocabulary, Chapter},
		{"manuscript", SourceVocabulary, Other},
		{"", SourceVocabulary, Other},
		{"journal-article", SourceVocabulary, Other},

		{"journal-article", MetadataVocabulary, Article},
		{"peer-review", MetadataVocabulary, Article},
		{"proceedings-article", MetadataVocabulary, Conference},
		{"book", MetadataVocabulary, Book},
		{"edited-book", MetadataVocabulary, Book},
		{"book-chapter", MetadataVocabulary, Chapter},
		{"posted-content", MetadataVocabulary, Other},
		{"conferencePaper", MetadataVocabulary, Other},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CoarseCategory(tt.input, tt.vocab))
		})
	}
}

func TestCompatibleNeverWithOther(t *testing.T) {
	for _, c := range []Category{Other, Article, Conference, Book, Chapter} {
		assert.False(t, Compatible(c, Other), "%s vs other", c)
		assert.False(t, Compatible(Other, c), "other vs %s", c)
	}
	assert.True(t, Compatible(Chapter, Chapter))
	assert.False(t, Compatible(Conference, Chapter))
}

func TestTypeReconciler(t *testing.T) {
	tests := []struct {
		name        string
		escapeHatch bool
		source      string
		candidate   string
		want        bool
	}{
		{"article pair", false, "article", "journal-article", true},
		{"conference pair", false, "conferencePaper", "proceedings-article", true},
		{"conference vs chapter", false, "conferencePaper", "book-chapter", false},
		{"book vs chapter", false, "book", "book-chapter", false},
		{"unmapped pair without hatch", false, "dataset", "dataset", false},
		{"unmapped identical with hatch", true, "dataset", "Dataset", true},
		{"unmapped different with hatch", true, "dataset", "posted-content", false},
		{"both empty with hatch", true, "", "", false},
		{"hatch does not bridge categories", true, "article", "posted-content", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := TypeReconciler{EscapeHatch: tt.escapeHatch}
			assert.Equal(t, tt.want, r.Compatible(tt.source, tt.candidate))
		})
	}
}
