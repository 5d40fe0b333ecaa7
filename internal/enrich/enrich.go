// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich runs the matching engine over the selected rows of a DiVA
// export: search, evaluate, look up secondary identifiers, and record each
// outcome in the ledger.
package enrich

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/doi-enricher/internal/diva"
	"github.com/pdiddy/doi-enricher/internal/idlookup"
	"github.com/pdiddy/doi-enricher/internal/ledger"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

// Deps are the collaborators of a run. Ledger and Lookups are optional.
type Deps struct {
	Searcher match.Searcher
	Engine   *match.Engine
	Ledger   *ledger.Store
	Lookups  *idlookup.Set
}

// Result is the outcome for one row.
type Result struct {
	Row    diva.Row
	Record types.SourceRecord
	Status ledger.Status

	Outcome    types.MatchOutcome
	Ambiguous  []string
	Incomplete bool
	IDs        types.SecondaryIDs

	// Skipped is set when the outcome was taken from the ledger.
	Skipped bool
	Err     error
}

// HasCandidate reports whether the result names any DOI worth reviewing.
func (r Result) HasCandidate() bool {
	return r.Outcome.HasCandidate() || len(r.Ambiguous) > 0
}

// Summary counts the outcomes of a run.
type Summary struct {
	Processed  int `json:"processed" yaml:"processed"`
	Verified   int `json:"verified" yaml:"verified"`
	Possible   int `json:"possible" yaml:"possible"`
	NoMatch    int `json:"no_match" yaml:"no_match"`
	Ambiguous  int `json:"ambiguous" yaml:"ambiguous"`
	Failed     int `json:"failed" yaml:"failed"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Incomplete int `json:"incomplete" yaml:"incomplete"`

	// Stopped is set when MaxAccepted ended the run early.
	Stopped bool `json:"stopped,omitempty" yaml:"stopped,omitempty"`
}

// Total returns the number of rows handled, evaluated or skipped.
func (s Summary) Total() int {
	return s.Processed + s.Skipped
}

// HasFailures reports whether any row failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

func (s *Summary) add(r Result) {
	if r.Skipped {
		s.Skipped++
		return
	}
	s.Processed++
	if r.Incomplete {
		s.Incomplete++
	}
	switch r.Status {
	case ledger.StatusVerified:
		s.Verified++
	case ledger.StatusPossible:
		s.Possible++
	case ledger.StatusNoMatch:
		s.NoMatch++
	case ledger.StatusAmbiguous:
		s.Ambiguous++
	case ledger.StatusFailed:
		s.Failed++
	}
}

// lockedWriter serializes writes to an underlying writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// SyncWriter returns w guarded by a mutex so that rows evaluated in
// parallel, and a match trace printing to the same writer, never write at
// the same time. A writer already returned by SyncWriter is returned as is.
func SyncWriter(w io.Writer) io.Writer {
	if _, ok := w.(*lockedWriter); ok {
		return w
	}
	return &lockedWriter{w: w}
}

// newLimiter paces searches across all workers: at most one search starts
// per delay. A zero delay does not pace.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// Run evaluates rows and returns the summary and the per-row results in
// input order. Rows the ledger has already decided are skipped unless
// cfg.Rerun is set. Per-row failures are counted and the run continues;
// only context cancellation stops it early with an error. Once
// cfg.MaxAccepted Verified outcomes are in, no further rows are started.
//
// Searches are paced by cfg.QueryDelay for the run as a whole, however many
// workers there are. The output of each row is buffered and written to w in
// one piece.
func Run(ctx context.Context, rows []diva.Row, deps Deps, cfg types.EnrichConfig, w io.Writer) (Summary, []Result, error) {
	if deps.Searcher == nil || deps.Engine == nil {
		return Summary{}, nil, fmt.Errorf("enrich: searcher and engine are required")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	w = SyncWriter(w)
	limiter := newLimiter(cfg.QueryDelay)

	var (
		mu      sync.Mutex
		summary Summary
		results = make([]Result, len(rows))
		reached = make([]bool, len(rows))
	)
	// limitReached marks the run stopped once enough rows are verified.
	limitReached := func() bool {
		mu.Lock()
		defer mu.Unlock()
		if cfg.MaxAccepted > 0 && summary.Verified >= cfg.MaxAccepted {
			summary.Stopped = true
		}
		return summary.Stopped
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		if gctx.Err() != nil || limitReached() {
			break
		}
		i, row := i, row
		g.Go(func() error {
			// The slot may have waited on a row that reached the limit.
			if limitReached() {
				return nil
			}
			var buf bytes.Buffer
			r, err := processRow(gctx, row, deps, cfg, limiter, &buf)
			w.Write(buf.Bytes())
			if err != nil {
				return err
			}
			mu.Lock()
			results[i], reached[i] = r, true
			summary.add(r)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	var out []Result
	for i, ok := range reached {
		if ok {
			out = append(out, results[i])
		}
	}

	if summary.Stopped {
		fmt.Fprintf(w, "\nStopped after %d verified (max accepted %d)\n", summary.Verified, cfg.MaxAccepted)
	}
	fmt.Fprintf(w, "\nBatch summary: %d verified, %d possible, %d ambiguous, %d no match, %d failed, %d skipped (total: %d)\n",
		summary.Verified, summary.Possible, summary.Ambiguous, summary.NoMatch, summary.Failed, summary.Skipped, summary.Total())
	if summary.Incomplete > 0 {
		fmt.Fprintf(w, "%d evaluations incomplete; they are retried on the next run\n", summary.Incomplete)
	}
	return summary, out, err
}

// processRow evaluates one row. The returned error is non-nil only when ctx
// is done or ends before the row's search may start; every other failure is
// reported in the Result.
func processRow(ctx context.Context, row diva.Row, deps Deps, cfg types.EnrichConfig, limiter *rate.Limiter, w io.Writer) (Result, error) {
	rec := row.SourceRecord()
	res := Result{Row: row, Record: rec}

	if deps.Ledger != nil && !cfg.Rerun && rec.ID != "" {
		e, ok, err := deps.Ledger.Get(ctx, rec.ID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			fmt.Fprintf(w, "warning: %v\n", err)
		case ok && e.Decided():
			fmt.Fprintf(w, "skipped: %s (%s in ledger)\n", rec.ID, e.Status)
			return fromEntry(res, e), nil
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return res, err
	}
	fmt.Fprintf(w, "[%s] %q (%d, %s)\n", rec.ID, rec.Title, rec.Year, rec.PublicationType)

	cands, err := deps.Searcher.Search(ctx, rec.Title, rec.Year)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Status, res.Err = ledger.StatusFailed, fmt.Errorf("searching: %w", err)
		fmt.Fprintf(w, "failed:  %s (%v)\n", rec.ID, res.Err)
		record(ctx, deps.Ledger, res, w)
		return res, nil
	}

	ev, err := deps.Engine.Evaluate(ctx, rec, cands)
	res.Outcome, res.Incomplete = ev.Outcome, ev.Incomplete
	var amb *match.AmbiguousMatchError
	switch {
	case errors.As(err, &amb):
		res.Status, res.Ambiguous, res.Err = ledger.StatusAmbiguous, amb.Identifiers, err
	case err != nil:
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Status, res.Err = ledger.StatusFailed, err
	default:
		res.Status = statusOf(ev.Outcome.Kind)
	}
	for _, fe := range ev.FetchErrors {
		fmt.Fprintf(w, "warning: %s: %v\n", rec.ID, fe)
	}

	if res.Status == ledger.StatusVerified && cfg.SecondaryLookups && deps.Lookups != nil {
		ids, err := deps.Lookups.Resolve(ctx, res.Outcome.Verified, w)
		if err != nil {
			return res, err
		}
		res.IDs = ids
	}

	report(w, res)
	record(ctx, deps.Ledger, res, w)
	return res, nil
}

func statusOf(k types.OutcomeKind) ledger.Status {
	switch k {
	case types.OutcomeVerified:
		return ledger.StatusVerified
	case types.OutcomePossible:
		return ledger.StatusPossible
	default:
		return ledger.StatusNoMatch
	}
}

func report(w io.Writer, r Result) {
	id := r.Record.ID
	switch r.Status {
	case ledger.StatusVerified:
		fmt.Fprintf(w, "verified: %s -> %s\n", id, r.Outcome.Verified)
	case ledger.StatusPossible:
		fmt.Fprintf(w, "possible: %s -> %s\n", id, strings.Join(r.Outcome.Possible, "; "))
	case ledger.StatusAmbiguous:
		fmt.Fprintf(w, "ambiguous: %s -> %s\n", id, strings.Join(r.Ambiguous, "; "))
	case ledger.StatusFailed:
		fmt.Fprintf(w, "failed:  %s (%v)\n", id, r.Err)
	default:
		fmt.Fprintf(w, "no match: %s\n", id)
	}
}

// record writes r to the ledger. A write failure is a warning; the result
// is still reported.
func record(ctx context.Context, store *ledger.Store, r Result, w io.Writer) {
	if store == nil || r.Record.ID == "" {
		return
	}
	e := ledger.Entry{
		RecordID:      r.Record.ID,
		Title:         r.Record.Title,
		Status:        r.Status,
		VerifiedDOI:   r.Outcome.Verified,
		PossibleDOIs:  r.Outcome.Possible,
		AmbiguousDOIs: r.Ambiguous,
		Incomplete:    r.Incomplete,
		IDs:           r.IDs,
	}
	if r.Err != nil && r.Status == ledger.StatusFailed {
		e.Error = r.Err.Error()
	}
	if err := store.Put(ctx, e); err != nil {
		fmt.Fprintf(w, "warning: %v\n", err)
	}
}

// fromEntry rebuilds a skipped row's result from its ledger entry so that
// reports still include earlier findings.
func fromEntry(res Result, e ledger.Entry) Result {
	res.Skipped = true
	res.Status = e.Status
	res.IDs = e.IDs
	res.Incomplete = e.Incomplete
	switch e.Status {
	case ledger.StatusVerified:
		res.Outcome = types.Verified(e.VerifiedDOI)
	case ledger.StatusPossible:
		res.Outcome = types.Possible(e.PossibleDOIs)
	case ledger.StatusAmbiguous:
		res.Outcome = types.NoMatch()
		res.Ambiguous = e.AmbiguousDOIs
	default:
		res.Outcome = types.NoMatch()
	}
	return res
}
