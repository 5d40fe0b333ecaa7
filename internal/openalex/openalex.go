// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is an alternative metadata source backed by the OpenAlex
// Works API. Types are taken from type_crossref so the Crossref vocabulary
// applies unchanged.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/doi-enricher/internal/httputil"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

const doiPrefix = "https://doi.org/"

// Client queries OpenAlex. It implements match.Source.
type Client struct {
	HTTP *http.Client
	// Email is sent as mailto parameter for polite pool access.
	Email      string
	UserAgent  string
	Rows       int
	MaxRetries int
}

// New returns a Client configured from cfg.
func New(cfg types.MetadataSourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		Email:      cfg.Mailto,
		UserAgent:  cfg.UserAgent,
		Rows:       cfg.RowsPerQuery,
		MaxRetries: cfg.MaxRetries,
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return string(types.BackendOpenAlex) }

// Search queries OpenAlex for works whose title matches title, restricted to
// year when it is known.
func (c *Client) Search(ctx context.Context, title string, year int) ([]types.CandidateSummary, error) {
	text := filterValue(title)
	if text == "" {
		return nil, fmt.Errorf("empty OpenAlex title query")
	}
	rows := c.Rows
	if rows <= 0 {
		rows = 5
	}

	filters := []string{"title.search:" + text}
	if year > 0 {
		filters = append(filters, "publication_year:"+strconv.Itoa(year))
	}
	params := url.Values{
		"filter":   {strings.Join(filters, ",")},
		"per_page": {strconv.Itoa(rows)},
		"select":   {"id,doi,title,type_crossref,publication_year"},
	}
	if c.Email != "" {
		params.Set("mailto", c.Email)
	}

	var resp searchResponse
	if err := c.get(ctx, openAlexWorksBase+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("OpenAlex search: %w", err)
	}

	total := len(resp.Results)
	out := make([]types.CandidateSummary, 0, total)
	for i, w := range resp.Results {
		s := types.CandidateSummary{
			Identifier: bareDOI(w.DOI),
			Title:      strings.TrimSpace(w.Title),
			Type:       w.TypeCrossref,
			Year:       w.PublicationYear,
		}
		// Position-based relevance; OpenAlex sorts by relevance for searches.
		if total > 1 {
			s.ScoreHint = 1.0 - float64(i)/float64(total-1)*0.9
		} else {
			s.ScoreHint = 1.0
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchDetail looks a work up by DOI.
func (c *Client) FetchDetail(ctx context.Context, doi string) (types.CandidateDetail, error) {
	doi = bareDOI(doi)
	reqURL := openAlexWorksBase + "/" + httputil.EscapePath(doiPrefix+doi)
	if c.Email != "" {
		reqURL += "?" + url.Values{"mailto": {c.Email}}.Encode()
	}

	var w work
	if err := c.get(ctx, reqURL, &w); err != nil {
		return types.CandidateDetail{}, fmt.Errorf("OpenAlex work %s: %w", doi, err)
	}

	d := types.CandidateDetail{
		Identifier: bareDOI(w.DOI),
		Type:       w.TypeCrossref,
		Volume:     strings.TrimSpace(w.Biblio.Volume),
		Issue:      strings.TrimSpace(w.Biblio.Issue),
		StartPage:  strings.TrimSpace(w.Biblio.FirstPage),
		EndPage:    strings.TrimSpace(w.Biblio.LastPage),
	}
	if d.Identifier == "" {
		d.Identifier = doi
	}
	if src := w.PrimaryLocation.Source; src != nil {
		d.ISSNs = append(d.ISSNs, src.ISSN...)
		if len(d.ISSNs) == 0 && src.ISSNL != "" {
			d.ISSNs = []string{src.ISSNL}
		}
	}
	for _, a := range w.Authorships {
		if s := Surname(a.Author.DisplayName); s != "" {
			d.AuthorSurnames = append(d.AuthorSurnames, s)
		}
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, reqURL string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", match.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: HTTP 404", match.ErrNotFound)
	case resp.StatusCode >= 500 || httputil.Retryable(resp.StatusCode):
		return fmt.Errorf("%w: HTTP %d", match.ErrTransientFetch, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

// Surname returns the family name from a display name. It splits on the
// last space; single-token names are returned whole.
func Surname(displayName string) string {
	name := strings.TrimSpace(displayName)
	if idx := strings.LastIndex(name, " "); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// filterValue strips the characters OpenAlex uses as filter syntax.
func filterValue(s string) string {
	s = strings.NewReplacer(",", " ", "|", " ", ":", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func bareDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, doiPrefix)
	return strings.TrimPrefix(doi, "http://doi.org/")
}

// OpenAlex API JSON structures.
type searchResponse struct {
	Results []work `json:"results"`
}

type work struct {
	ID              string       `json:"id"`
	DOI             string       `json:"doi"`
	Title           string       `json:"title"`
	TypeCrossref    string       `json:"type_crossref"`
	PublicationYear int          `json:"publication_year"`
	Biblio          biblio       `json:"biblio"`
	PrimaryLocation location     `json:"primary_location"`
	Authorships     []authorship `json:"authorships"`
}

type biblio struct {
	Volume    string `json:"volume"`
	Issue     string `json:"issue"`
	FirstPage string `json:"first_page"`
	LastPage  string `json:"last_page"`
}

type location struct {
	Source *source `json:"source"`
}

type source struct {
	ISSNL string   `json:"issn_l"`
	ISSN  []string `json:"issn"`
}

type authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}
