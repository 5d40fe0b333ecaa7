// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package idlookup

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// wosStarterBase is the Clarivate Web of Science Starter API documents
// endpoint. Declared as a var so tests can substitute an httptest server.
var wosStarterBase = "https://api.clarivate.com/apis/wos-starter/v1/documents"

// WoSClient finds the Web of Science accession number (UT) of a DOI.
type WoSClient struct {
	HTTP      *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the database name.
func (c *WoSClient) Name() string { return WoS }

// Lookup returns the accession number without its "WOS:" prefix, matching
// the form DiVA stores in its ISI column.
func (c *WoSClient) Lookup(ctx context.Context, doi string) (string, error) {
	params := url.Values{
		"q":     {"DO=" + doi},
		"db":    {"WOS"},
		"limit": {"2"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wosStarterBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-ApiKey", c.APIKey)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	var resp struct {
		Hits []struct {
			UID string `json:"uid"`
		} `json:"hits"`
	}
	if err := getJSON(ctx, c.HTTP, req, &resp); err != nil {
		return "", fmt.Errorf("Web of Science: %w", err)
	}
	if len(resp.Hits) != 1 {
		return "", nil
	}
	return strings.TrimPrefix(strings.TrimSpace(resp.Hits[0].UID), "WOS:"), nil
}
