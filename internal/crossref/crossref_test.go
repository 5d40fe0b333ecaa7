// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doi-enricher/internal/httputil"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

var _ match.Source = (*Client)(nil)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

const sampleSearchJSON = `{
  "status": "ok",
  "message": {
    "items": [
      {"DOI": "10.1000/abc", "title": ["Deep Learning for X"], "type": "journal-article",
       "issued": {"date-parts": [[2020, 3, 1]]}},
      {"DOI": "10.1000/def", "title": ["Deep Learning for Y"], "type": "proceedings-article",
       "issued": {"date-parts": [[2020]]}},
      {"DOI": "10.1000/ghi", "title": [], "type": "book-chapter",
       "issued": {"date-parts": [[null]]}}
    ]
  }
}`

const sampleWorkJSON = `{
  "status": "ok",
  "message": {
    "DOI": "10.1000/abc",
    "type": "journal-article",
    "volume": "12",
    "issue": "3",
    "page": "100-110",
    "ISSN": ["1234-5678"],
    "issn-type": [{"value": "1234-5678", "type": "print"}, {"value": "8765-4321", "type": "electronic"}],
    "author": [{"given": "Ada", "family": "Lovelace"}, {"name": "The Consortium"}, {"given": "Alan", "family": "Turing"}]
  }
}`

func withServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	orig := crossrefWorksBase
	crossrefWorksBase = ts.URL + "/works"
	t.Cleanup(func() {
		crossrefWorksBase = orig
		ts.Close()
	})
	return &Client{HTTP: ts.Client(), Mailto: "librarian@example.org", UserAgent: "doi-enricher/test", Rows: 3, MaxRetries: 1}
}

func TestSearch(t *testing.T) {
	var got *http.Request
	c := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, sampleSearchJSON)
	})

	results, err := c.Search(context.Background(), "Deep Learning for X", 2020)
	require.NoError(t, err)

	q := got.URL.Query()
	assert.Equal(t, "/works", got.URL.Path)
	assert.Equal(t, "Deep Learning for X", q.Get("query.title"))
	assert.Equal(t, "3", q.Get("rows"))
	assert.Equal(t, "DOI,title,issued,type", q.Get("select"))
	assert.Equal(t, "from-pub-date:2020-01-01,until-pub-date:2020-12-31", q.Get("filter"))
	assert.Equal(t, "librarian@example.org", q.Get("mailto"))
	assert.Equal(t, "doi-enricher/test", got.Header.Get("User-Agent"))

	require.Len(t, results, 3)
	assert.Equal(t, types.CandidateSummary{
		Identifier: "10.1000/abc", Title: "Deep Learning for X", Type: "journal-article", Year: 2020, ScoreHint: 1,
	}, results[0])
	assert.Equal(t, 2020, results[1].Year)
	assert.InDelta(t, 0.55, results[1].ScoreHint, 1e-9)
	assert.Equal(t, "", results[2].Title)
	assert.Equal(t, 0, results[2].Year, "null date part means unknown year")
	assert.InDelta(t, 0.1, results[2].ScoreHint, 1e-9)
}

func TestSearchWithoutYearOmitsFilter(t *testing.T) {
	var rawQuery string
	c := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"message": {"items": []}}`)
	})
	c.Rows = 0

	results, err := c.Search(context.Background(), "Title", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotContains(t, rawQuery, "filter=")
	assert.Contains(t, rawQuery, "rows=5")
}

func TestSearchEmptyTitle(t *testing.T) {
	c := &Client{}
	_, err := c.Search(context.Background(), "  ", 2020)
	assert.Error(t, err)
}

func TestFetchDetail(t *testing.T) {
	var path string
	c := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, sampleWorkJSON)
	})

	d, err := c.FetchDetail(context.Background(), "10.1000/abc")
	require.NoError(t, err)

	assert.Equal(t, "/works/10.1000/abc", path)
	assert.Equal(t, types.CandidateDetail{
		Identifier:     "10.1000/abc",
		Type:           "journal-article",
		Volume:         "12",
		Issue:          "3",
		StartPage:      "100",
		EndPage:        "110",
		ISSNs:          []string{"1234-5678", "8765-4321"},
		AuthorSurnames: []string{"Lovelace", "Turing"},
	}, d)
}

func TestFetchDetailFallbacks(t *testing.T) {
	c := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"message": {"type": "journal-article", "article-number": "e1234",
			"journal-issue": {"issue": "7", "ISSN": ["2222-3333"]}}}`)
	})

	d, err := c.FetchDetail(context.Background(), "10.1000/xyz")
	require.NoError(t, err)
	assert.Equal(t, "10.1000/xyz", d.Identifier)
	assert.Equal(t, "e1234", d.StartPage)
	assert.Equal(t, "", d.EndPage)
	assert.Equal(t, "7", d.Issue)
	assert.Equal(t, []string{"2222-3333"}, d.ISSNs)
}

func TestFetchDetailEscapesDOI(t *testing.T) {
	const sici = "10.1002/(SICI)1097-4636(199603)30:3<329::AID-JBM6>3.0.CO;2-#"
	var path, query string
	c := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, `{"type": "journal-article"}`)
	})

	d, err := c.FetchDetail(context.Background(), sici)
	require.NoError(t, err)
	assert.Equal(t, "/works/" + sici, path)
	assert.Equal(t, "mailto=librarian%40example.org", query)
	assert.Equal(t, sici, d.Identifier)
}

func TestFetchDetailErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, match.ErrNotFound},
		{"service unavailable", http.StatusServiceUnavailable, match.ErrTransientFetch},
		{"rate limited", http.StatusTooManyRequests, match.ErrTransientFetch},
		{"internal error", http.StatusInternalServerError, match.ErrTransientFetch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.FetchDetail(context.Background(), "10.1000/abc")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchDetailBadRequestIsPermanent(t *testing.T) {
	c := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.FetchDetail(context.Background(), "bogus")
	require.Error(t, err)
	assert.NotErrorIs(t, err, match.ErrTransientFetch)
	assert.NotErrorIs(t, err, match.ErrNotFound)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestFetchDetailNetworkErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close()

	orig := crossrefWorksBase
	crossrefWorksBase = ts.URL + "/works"
	defer func() { crossrefWorksBase = orig }()

	c := &Client{HTTP: &http.Client{Timeout: time.Second}}
	_, err := c.FetchDetail(context.Background(), "10.1000/abc")
	assert.ErrorIs(t, err, match.ErrTransientFetch)
}

func TestFetchDetailMalformedJSON(t *testing.T) {
	c := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{not json`)
	})
	_, err := c.FetchDetail(context.Background(), "10.1000/abc")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parsing Crossref response"))
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		in         string
		start, end string
	}{
		{"100-110", "100", "110"},
		{"100–110", "100", "110"},
		{" 7 ", "7", ""},
		{"", "", ""},
		{"e1234", "e1234", ""},
		{"S12-S19", "S12", "S19"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, e := SplitPages(tt.in)
			assert.Equal(t, tt.start, s)
			assert.Equal(t, tt.end, e)
		})
	}
}

func TestNew(t *testing.T) {
	c := New(types.MetadataSourceConfig{
		HTTPConfig:   types.HTTPConfig{UserAgent: "ua"},
		Mailto:       "m@example.org",
		RowsPerQuery: 7,
		MaxRetries:   2,
	})
	assert.Equal(t, "crossref", c.Name())
	assert.Equal(t, 30*time.Second, c.HTTP.Timeout)
	assert.Equal(t, 7, c.Rows)
	assert.Equal(t, "m@example.org", c.Mailto)
}
