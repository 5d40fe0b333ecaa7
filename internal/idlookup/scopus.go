// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package idlookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// scopusSearchBase is the Elsevier Scopus Search API endpoint. Declared as
// a var so tests can substitute an httptest server.
var scopusSearchBase = "https://api.elsevier.com/content/search/scopus"

// ScopusClient finds the Scopus EID of a DOI.
type ScopusClient struct {
	HTTP      *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the database name.
func (c *ScopusClient) Name() string { return Scopus }

// Lookup returns the EID (e.g. "2-s2.0-85012345678") for doi.
func (c *ScopusClient) Lookup(ctx context.Context, doi string) (string, error) {
	params := url.Values{
		"query": {"DOI(" + doi + ")"},
		"field": {"eid"},
		"count": {"2"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scopusSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-ELS-APIKey", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	var resp struct {
		SearchResults struct {
			Entry []struct {
				EID   string `json:"eid"`
				Error string `json:"error"`
			} `json:"entry"`
		} `json:"search-results"`
	}
	if err := getJSON(ctx, c.HTTP, req, &resp); err != nil {
		return "", fmt.Errorf("Scopus: %w", err)
	}

	// An empty result set comes back as a single entry carrying an error field.
	var eids []string
	for _, e := range resp.SearchResults.Entry {
		if e.Error == "" && strings.TrimSpace(e.EID) != "" {
			eids = append(eids, strings.TrimSpace(e.EID))
		}
	}
	if len(eids) == 1 {
		return eids[0], nil
	}
	return "", nil
}
