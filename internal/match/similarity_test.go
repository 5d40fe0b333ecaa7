// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Deep Learning for X", "Deep Learning for X", 1},
		{"case and punctuation ignored", "Deep-Learning for X.", "deep learning FOR x", 1},
		{"stop tokens ignored", "The Theory of Everything", "Theory of Everything", 1},
		{"subset", "Deep Learning for X", "Deep Learning", 0.5},
		{"disjoint", "Graph Theory", "Organic Chemistry", 0},
		{"both empty", "", "", 0},
		{"one empty", "Graph Theory", "", 0},
		{"only stop tokens", "The", "The", 0},
		{"repeated tokens count once", "data data data", "data", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TitleSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTitleSimilarityProperties(t *testing.T) {
	titles := []string{
		"",
		"The",
		"Deep Learning for X",
		"Deep learning for x: a survey",
		"Étude des réseaux neuronaux",
		"Etude des reseaux",
		"On the Origin of Species",
		"Origin of species, revisited",
		"!!!",
	}
	for _, a := range titles {
		self := TitleSimilarity(a, a)
		if len(defaultNormalizer.TitleTokens(a)) == 0 {
			assert.Zero(t, self, "empty title %q must not match itself", a)
		} else {
			assert.Equal(t, 1.0, self, "title %q", a)
		}
		for _, b := range titles {
			ab, ba := TitleSimilarity(a, b), TitleSimilarity(b, a)
			assert.Equal(t, ab, ba, "symmetry for %q / %q", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestSimilarityMonotonicUnderContainment(t *testing.T) {
	base := "graph neural networks"
	smaller := TitleSimilarity(base, "graph neural networks for molecules in solution")
	larger := TitleSimilarity(base, "graph neural networks for molecules")
	assert.Less(t, smaller, larger)
}

func TestNormalizerSimilarityCustomStopTokens(t *testing.T) {
	n := NewNormalizer(nil)
	assert.InDelta(t, 0.75, n.Similarity("The Theory of Everything", "Theory of Everything"), 1e-9)
}
