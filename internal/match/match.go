// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match decides whether a metadata-source candidate is the same work
// as a source record lacking a DOI, and how confident that decision is.
//
// The package owns no I/O. Title search and detail lookup are supplied by
// collaborators through Searcher and DetailFetcher; rate limiting and
// retries are theirs too. An Engine holds only read-only configuration, so
// one Engine may evaluate independent records from many goroutines.
package match

import (
	"context"

	"github.com/pdiddy/doi-enricher/pkg/types"
)

// Searcher returns up to a configured number of candidate summaries for a
// title published in year.
type Searcher interface {
	Search(ctx context.Context, title string, year int) ([]types.CandidateSummary, error)
}

// DetailFetcher returns full metadata for one identifier. Implementations
// wrap ErrNotFound or ErrTransientFetch so callers can tell them apart.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, identifier string) (types.CandidateDetail, error)
}

// Source is a metadata source that can both search and fetch detail.
type Source interface {
	Searcher
	DetailFetcher
	Name() string
}

// FetcherFunc adapts a plain function to DetailFetcher.
type FetcherFunc func(ctx context.Context, identifier string) (types.CandidateDetail, error)

// FetchDetail calls f.
func (f FetcherFunc) FetchDetail(ctx context.Context, identifier string) (types.CandidateDetail, error) {
	return f(ctx, identifier)
}
