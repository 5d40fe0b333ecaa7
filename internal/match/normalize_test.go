// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"punctuation and case", "Deep Learning: A Survey!", "deep learning a survey"},
		{"hyphen splits words", "Self-Supervised Learning", "self supervised learning"},
		{"diacritics folded", "ÅNGSTRÖM Études", "angstrom etudes"},
		{"curly apostrophe", "l’économie", "l economie"},
		{"sharp s case folds", "Straße", "strasse"},
		{"soft hyphen dropped", "hyper\u00adgraph", "hypergraph"},
		{"whitespace collapsed", "  many   spaces\there ", "many spaces here"},
		{"digits kept", "COVID-19 in 2020", "covid 19 in 2020"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizerTitleTokens(t *testing.T) {
	n := NewNormalizer([]string{"a", "an", "The", "and"})

	assert.Equal(t, []string{"art", "of", "war", "peace"}, n.TitleTokens("The Art of War and Peace"))
	assert.Equal(t, "art of war", n.Title("An Art of War"))
	assert.Empty(t, n.TitleTokens("The and a"))
	assert.Empty(t, n.TitleTokens(""))
}

func TestNormalizerZeroValueKeepsStopTokens(t *testing.T) {
	var n Normalizer
	assert.Equal(t, []string{"the", "end"}, n.TitleTokens("The End"))
}

func TestNormalizeSurname(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Smith ", "smith"},
		{"Ångström", "ångström"},
		{"O'Brien", "o'brien"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSurname(tt.input))
		})
	}
}
