// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import "github.com/pdiddy/doi-enricher/pkg/types"

var defaultNormalizer = NewNormalizer(types.DefaultStopTokens)

// TitleSimilarity scores two titles with the default stop-token set.
func TitleSimilarity(a, b string) float64 {
	return defaultNormalizer.Similarity(a, b)
}

// Similarity returns the Jaccard index of the two titles' token sets, in
// [0,1]. A title with no tokens left after normalization scores 0 against
// everything, itself included.
func (n *Normalizer) Similarity(a, b string) float64 {
	return jaccard(tokenSet(n.TitleTokens(a)), tokenSet(n.TitleTokens(b)))
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
