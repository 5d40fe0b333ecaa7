// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package idlookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// pubmedSearchBase is the NCBI E-utilities esearch endpoint. Declared as a
// var so tests can substitute an httptest server.
var pubmedSearchBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"

// PubMedClient finds the PMID of a DOI.
type PubMedClient struct {
	HTTP *http.Client
	// APIKey raises the NCBI rate limit; optional.
	APIKey    string
	Email     string
	UserAgent string
}

// Name returns the database name.
func (c *PubMedClient) Name() string { return PubMed }

// Lookup returns the PMID for doi, or "" when PubMed has none or more than
// one candidate.
func (c *PubMedClient) Lookup(ctx context.Context, doi string) (string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {doi + "[doi]"},
		"retmode": {"json"},
		"tool":    {"doi-enricher"},
	}
	if c.APIKey != "" {
		params.Set("api_key", c.APIKey)
	}
	if c.Email != "" {
		params.Set("email", c.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	var resp struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := getJSON(ctx, c.HTTP, req, &resp); err != nil {
		return "", fmt.Errorf("PubMed: %w", err)
	}
	if ids := resp.ESearchResult.IDList; len(ids) == 1 {
		return ids[0], nil
	}
	return "", nil
}
