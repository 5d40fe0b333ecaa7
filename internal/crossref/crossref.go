// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref searches the Crossref REST API for works by title and
// fetches the bibliographic detail used to verify a candidate DOI.
package crossref

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

// crossrefWorksBase is the Crossref Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works"

const defaultRows = 5

// Client queries Crossref. It implements match.Source.
type Client struct {
	HTTP *http.Client
	// Mailto is sent as the mailto parameter for polite pool access.
	Mailto     string
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
		Mailto:     cfg.Mailto,
		UserAgent:  cfg.UserAgent,
		Rows:       cfg.RowsPerQuery,
		MaxRetries: cfg.MaxRetries,
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return string(types.BackendCrossref) }

// Search returns up to Rows works whose title matches title. When year is
// known the query is restricted to works issued that year.
func (c *Client) Search(ctx context.Context, title string, year int) ([]types.CandidateSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("empty Crossref title query")
	}
	rows := c.Rows
	if rows <= 0 {
		rows = defaultRows
	}

	params := url.Values{
		"query.title": {title},
		"rows":        {strconv.Itoa(rows)},
		"select":      {"DOI,title,issued,type"},
	}
	if year > 0 {
		params.Set("filter", fmt.Sprintf("from-pub-date:%d-01-01,until-pub-date:%d-12-31", year, year))
	}
	if c.Mailto != "" {
		params.Set("mailto", c.Mailto)
	}

	var sr searchResponse
	if err := c.get(ctx, crossrefWorksBase+"?"+params.Encode(), &sr); err != nil {
		return nil, fmt.Errorf("Crossref search: %w", err)
	}

	items := sr.Message.Items
	out := make([]types.CandidateSummary, 0, len(items))
	for i, it := range items {
		out = append(out, types.CandidateSummary{
			Identifier: strings.TrimSpace(it.DOI),
			Title:      firstString(it.Title),
			Type:       it.Type,
			Year:       it.Issued.year(),
			ScoreHint:  positionScore(i, len(items)),
		})
	}
	return out, nil
}

// FetchDetail returns the verification metadata for doi. A 404 wraps
// match.ErrNotFound; network errors and retryable statuses wrap
// match.ErrTransientFetch.
func (c *Client) FetchDetail(ctx context.Context, doi string) (types.CandidateDetail, error) {
	doi = strings.TrimSpace(doi)
	reqURL := crossrefWorksBase + "/" + httputil.EscapePath(doi)
	if c.Mailto != "" {
		reqURL += "?" + url.Values{"mailto": {c.Mailto}}.Encode()
	}

	var wr workResponse
	if err := c.get(ctx, reqURL, &wr); err != nil {
		return types.CandidateDetail{}, fmt.Errorf("Crossref work %s: %w", doi, err)
	}
	return wr.Message.detail(doi), nil
}

func (c *Client) get(ctx context.Context, reqURL string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

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
	case httputil.Retryable(resp.StatusCode) || resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", match.ErrTransientFetch, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("parsing Crossref response: %w", err)
	}
	return nil
}

// positionScore mirrors the backend's relevance ordering as a hint in
// [0.1, 1]; the first item scores 1.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

func firstString(ss []string) string {
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// SplitPages splits a Crossref page string such as "100-110" or "100–110"
// into start and end. A single page yields an empty end.
func SplitPages(page string) (start, end string) {
	page = strings.TrimSpace(page)
	if page == "" {
		return "", ""
	}
	for _, sep := range []string{"-", "–", "—"} {
		if i := strings.Index(page, sep); i >= 0 {
			return strings.TrimSpace(page[:i]), strings.TrimSpace(page[i+len(sep):])
		}
	}
	return page, ""
}

// Crossref API JSON structures.
type searchResponse struct {
	Message struct {
		Items []work `json:"items"`
	} `json:"message"`
}

type workResponse struct {
	Message work `json:"message"`
}

type work struct {
	DOI           string       `json:"DOI"`
	Title         []string     `json:"title"`
	Type          string       `json:"type"`
	Issued        dateParts    `json:"issued"`
	Volume        string       `json:"volume"`
	Issue         string       `json:"issue"`
	Page          string       `json:"page"`
	ArticleNumber string       `json:"article-number"`
	ISSN          []string     `json:"ISSN"`
	ISSNType      []issnType   `json:"issn-type"`
	JournalIssue  journalIssue `json:"journal-issue"`
	Author        []author     `json:"author"`
}

type dateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

func (d dateParts) year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return 0
	}
	return *d.DateParts[0][0]
}

type issnType struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type journalIssue struct {
	Issue string   `json:"issue"`
	ISSN  []string `json:"ISSN"`
}

type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

func (w work) detail(requested string) types.CandidateDetail {
	d := types.CandidateDetail{
		Identifier: w.DOI,
		Type:       w.Type,
		Volume:     strings.TrimSpace(w.Volume),
		Issue:      strings.TrimSpace(w.Issue),
	}
	if d.Identifier == "" {
		d.Identifier = requested
	}
	if d.Issue == "" {
		d.Issue = strings.TrimSpace(w.JournalIssue.Issue)
	}

	d.StartPage, d.EndPage = SplitPages(w.Page)
	if d.StartPage == "" {
		d.StartPage = strings.TrimSpace(w.ArticleNumber)
	}

	seen := make(map[string]bool)
	addISSN := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		d.ISSNs = append(d.ISSNs, v)
	}
	for _, v := range w.ISSN {
		addISSN(v)
	}
	for _, it := range w.ISSNType {
		addISSN(it.Value)
	}
	for _, v := range w.JournalIssue.ISSN {
		addISSN(v)
	}

	for _, a := range w.Author {
		if f := strings.TrimSpace(a.Family); f != "" {
			d.AuthorSurnames = append(d.AuthorSurnames, f)
		}
	}
	return d
}
