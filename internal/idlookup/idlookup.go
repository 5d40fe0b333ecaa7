// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package idlookup finds the PubMed, Scopus, and Web of Science identifiers
// of a verified DOI. Lookups are best effort: a failure is reported as a
// warning and never changes the match outcome.
package idlookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/doi-enricher/internal/httputil"
	"github.com/pdiddy/doi-enricher/internal/secrets"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

// Database names returned by Lookup.Name.
const (
	PubMed = "pubmed"
	Scopus = "scopus"
	WoS    = "wos"
)

// Lookup resolves a DOI to one database's identifier. It returns "" with a
// nil error when the database has no record for the DOI.
type Lookup interface {
	Name() string
	Lookup(ctx context.Context, doi string) (string, error)
}

// Set runs several lookups for one DOI.
type Set struct {
	Lookups []Lookup
}

// New builds the lookups whose credentials are available. PubMed works
// without a key; Scopus and Web of Science are skipped when their key is
// missing.
func New(store *secrets.Store, cfg types.HTTPConfig) *Set {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	set := &Set{Lookups: []Lookup{
		&PubMedClient{HTTP: hc, APIKey: store.Get(secrets.NCBIAPIKey), Email: store.Get(secrets.CrossrefMailto), UserAgent: cfg.UserAgent},
	}}
	if key := store.Get(secrets.ScopusAPIKey); key != "" {
		set.Lookups = append(set.Lookups, &ScopusClient{HTTP: hc, APIKey: key, UserAgent: cfg.UserAgent})
	}
	if key := store.Get(secrets.WoSAPIKey); key != "" {
		set.Lookups = append(set.Lookups, &WoSClient{HTTP: hc, APIKey: key, UserAgent: cfg.UserAgent})
	}
	return set
}

// Names lists the configured lookups.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Lookups))
	for i, l := range s.Lookups {
		names[i] = l.Name()
	}
	return names
}

// Resolve runs every lookup for doi. Failures are written to w as warnings
// and leave the corresponding field empty. Only context cancellation is
// returned as an error.
func (s *Set) Resolve(ctx context.Context, doi string, w io.Writer) (types.SecondaryIDs, error) {
	var ids types.SecondaryIDs
	if s == nil {
		return ids, nil
	}
	for _, l := range s.Lookups {
		id, err := l.Lookup(ctx, doi)
		if err != nil {
			if ctx.Err() != nil {
				return ids, ctx.Err()
			}
			fmt.Fprintf(w, "  warning: %s lookup for %s failed: %v\n", l.Name(), doi, err)
			continue
		}
		switch l.Name() {
		case PubMed:
			ids.PMID = id
		case Scopus:
			ids.ScopusID = id
		case WoS:
			ids.WoSID = id
		}
	}
	return ids, nil
}

// getJSON issues req through the retrying client and decodes a 200 body.
func getJSON(ctx context.Context, client *http.Client, req *http.Request, into any) error {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 2)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
