// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/doi-enricher/pkg/types"
)

// Verdict is the per-candidate decision recorded in a CandidateTrace.
type Verdict string

const (
	VerdictNoIdentifier   Verdict = "no_identifier"
	VerdictDuplicate      Verdict = "duplicate"
	VerdictYearMismatch   Verdict = "year_mismatch"
	VerdictBelowThreshold Verdict = "below_threshold"
	VerdictTypeMismatch   Verdict = "type_mismatch"
	VerdictOverCap        Verdict = "over_cap"
	VerdictFetchFailed    Verdict = "fetch_failed"
	VerdictRejected       Verdict = "rejected"
	VerdictPossible       Verdict = "possible"
	VerdictVerified       Verdict = "verified"
)

// CandidateTrace is the structured record of how one candidate was judged.
type CandidateTrace struct {
	Identifier        string       `json:"identifier" yaml:"identifier"`
	Title             string       `json:"title" yaml:"title"`
	Type              string       `json:"type" yaml:"type"`
	Similarity        float64      `json:"similarity" yaml:"similarity"`
	SourceCategory    Category     `json:"source_category" yaml:"source_category"`
	CandidateCategory Category     `json:"candidate_category" yaml:"candidate_category"`
	Checks            []FieldCheck `json:"checks,omitempty" yaml:"checks,omitempty"`
	Verdict           Verdict      `json:"verdict" yaml:"verdict"`
	Reason            string       `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Evaluation is the result of matching one record. Candidates holds one
// trace per input candidate, in input order.
type Evaluation struct {
	Record     types.SourceRecord `json:"record" yaml:"record"`
	Outcome    types.MatchOutcome `json:"outcome" yaml:"outcome"`
	Candidates []CandidateTrace   `json:"candidates" yaml:"candidates"`

	// Incomplete is set when any detail fetch failed; a NoMatch or Possible
	// outcome may then be worth retrying later.
	Incomplete  bool                `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	FetchErrors []*DetailFetchError `json:"-" yaml:"-"`
}

// TraceFunc observes each candidate trace as soon as its verdict is final.
type TraceFunc func(rec types.SourceRecord, t CandidateTrace)

// Option configures an Engine.
type Option func(*Engine)

// WithTrace installs a per-candidate observer. It may be called from several
// goroutines when the Engine is shared.
func WithTrace(fn TraceFunc) Option {
	return func(e *Engine) { e.trace = fn }
}

// Engine classifies source records against metadata-source candidates.
type Engine struct {
	cfg        types.MatchConfig
	fetcher    DetailFetcher
	norm       *Normalizer
	reconciler TypeReconciler
	trace      TraceFunc
}

// NewEngine validates cfg and returns an Engine that fetches candidate
// detail through fetcher.
func NewEngine(cfg types.MatchConfig, fetcher DetailFetcher, opts ...Option) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, invalidf("no detail fetcher")
	}
	stop := cfg.StopTokens
	if stop == nil {
		stop = types.DefaultStopTokens
	}
	e := &Engine{
		cfg:        cfg,
		fetcher:    fetcher,
		norm:       NewNormalizer(stop),
		reconciler: TypeReconciler{EscapeHatch: cfg.TypeEscapeHatch},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ValidateConfig rejects configurations that could never produce a sound
// evaluation.
func ValidateConfig(cfg types.MatchConfig) error {
	var problems []string
	if math.IsNaN(cfg.SimThreshold) || cfg.SimThreshold < 0 || cfg.SimThreshold > 1 {
		problems = append(problems, fmt.Sprintf("sim_threshold %v outside [0,1]", cfg.SimThreshold))
	}
	if cfg.MaxCandidatesToVerify < 1 {
		problems = append(problems, fmt.Sprintf("max_candidates_to_verify %d must be at least 1", cfg.MaxCandidatesToVerify))
	}
	if cfg.MaxPossibleToReport < 0 {
		problems = append(problems, fmt.Sprintf("max_possible_to_report %d must not be negative", cfg.MaxPossibleToReport))
	}
	if !anyCheckEnabled(cfg) && cfg.MaxPossibleToReport == 0 {
		problems = append(problems, "all verification checks disabled and possible reporting off")
	}
	if len(problems) > 0 {
		return invalidf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func anyCheckEnabled(cfg types.MatchConfig) bool {
	return cfg.VerifyVolume || cfg.VerifyIssue || cfg.VerifyPages || cfg.VerifyISSN || cfg.VerifyAuthors
}

// Config returns the validated configuration.
func (e *Engine) Config() types.MatchConfig { return e.cfg }

// Normalizer returns the title normalizer built from the configured stop tokens.
func (e *Engine) Normalizer() *Normalizer { return e.norm }

type screened struct {
	idx int
	sim float64
}

// Evaluate matches rec against candidates. When both years are known, a
// candidate from a different year is discarded before its title is
// compared, so search results need not be filtered by year first. Every
// candidate that survives screening and the rank cap has its detail
// fetched, so that a second fully verified candidate is always seen. More than one verified candidate yields
// an *AmbiguousMatchError. A failed fetch excludes that candidate and marks
// the evaluation incomplete; only context cancellation aborts.
func (e *Engine) Evaluate(ctx context.Context, rec types.SourceRecord, candidates []types.CandidateSummary) (Evaluation, error) {
	ev := Evaluation{
		Record:     rec,
		Outcome:    types.NoMatch(),
		Candidates: make([]CandidateTrace, len(candidates)),
	}
	srcCat := CoarseCategory(rec.PublicationType, SourceVocabulary)

	// Screen.
	var survivors []screened
	seen := make(map[string]int)
	for i, c := range candidates {
		t := &ev.Candidates[i]
		*t = CandidateTrace{
			Identifier:        c.Identifier,
			Title:             c.Title,
			Type:              c.Type,
			Similarity:        e.norm.Similarity(rec.Title, c.Title),
			SourceCategory:    srcCat,
			CandidateCategory: CoarseCategory(c.Type, MetadataVocabulary),
		}
		switch {
		case strings.TrimSpace(c.Identifier) == "":
			t.Verdict = VerdictNoIdentifier
		case rec.Year != 0 && c.Year != 0 && rec.Year != c.Year:
			t.Verdict, t.Reason = VerdictYearMismatch, fmt.Sprintf("source %d, candidate %d", rec.Year, c.Year)
		case t.Similarity == 0 || t.Similarity < e.cfg.SimThreshold:
			t.Verdict, t.Reason = VerdictBelowThreshold, fmt.Sprintf("%.3f < %.3f", t.Similarity, e.cfg.SimThreshold)
		case !e.reconciler.Compatible(rec.PublicationType, c.Type):
			t.Verdict, t.Reason = VerdictTypeMismatch, fmt.Sprintf("source %s (%q), candidate %s (%q)",
				t.SourceCategory, rec.PublicationType, t.CandidateCategory, c.Type)
		default:
			key := strings.ToLower(strings.TrimSpace(c.Identifier))
			if prev, ok := seen[key]; ok {
				t.Verdict, t.Reason = VerdictDuplicate, "same identifier as candidate "+fmt.Sprint(prev+1)
				break
			}
			seen[key] = i
			survivors = append(survivors, screened{idx: i, sim: t.Similarity})
			continue
		}
		e.emit(rec, *t)
	}

	// Rank.
	sort.SliceStable(survivors, func(a, b int) bool {
		return survivors[a].sim > survivors[b].sim
	})
	if len(survivors) > e.cfg.MaxCandidatesToVerify {
		for _, s := range survivors[e.cfg.MaxCandidatesToVerify:] {
			t := &ev.Candidates[s.idx]
			t.Verdict, t.Reason = VerdictOverCap, fmt.Sprintf("only %d candidates verified", e.cfg.MaxCandidatesToVerify)
			e.emit(rec, *t)
		}
		survivors = survivors[:e.cfg.MaxCandidatesToVerify]
	}

	// Verify.
	var verified, possible []string
	for _, s := range survivors {
		t := &ev.Candidates[s.idx]
		detail, err := e.fetcher.FetchDetail(ctx, t.Identifier)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ev, ctxErr
			}
			ev.FetchErrors = append(ev.FetchErrors, &DetailFetchError{Identifier: t.Identifier, Cause: err})
			ev.Incomplete = true
			t.Verdict, t.Reason = VerdictFetchFailed, err.Error()
			e.emit(rec, *t)
			continue
		}
		t.Checks = e.runChecks(rec, detail)
		t.Verdict, t.Reason = e.classify(t.Checks, t.Similarity)
		switch t.Verdict {
		case VerdictVerified:
			verified = append(verified, t.Identifier)
		case VerdictPossible:
			possible = append(possible, t.Identifier)
		}
		e.emit(rec, *t)
	}

	// Decide.
	switch {
	case len(verified) > 1:
		return ev, &AmbiguousMatchError{Record: rec, Identifiers: verified}
	case len(verified) == 1:
		ev.Outcome = types.Verified(verified[0])
	case len(possible) > 0 && e.cfg.MaxPossibleToReport > 0:
		if len(possible) > e.cfg.MaxPossibleToReport {
			possible = possible[:e.cfg.MaxPossibleToReport]
		}
		ev.Outcome = types.Possible(possible)
	}
	return ev, nil
}

func (e *Engine) runChecks(rec types.SourceRecord, d types.CandidateDetail) []FieldCheck {
	var checks []FieldCheck
	if e.cfg.VerifyVolume {
		checks = append(checks, CompareVolume(rec.Volume, d.Volume))
	}
	if e.cfg.VerifyIssue {
		checks = append(checks, CompareIssue(rec.Issue, d.Issue))
	}
	if e.cfg.VerifyPages {
		checks = append(checks, ComparePages(rec.StartPage, rec.EndPage, d.StartPage, d.EndPage))
	}
	if e.cfg.VerifyISSN {
		checks = append(checks, CompareISSNs(rec.ISSNs, d.ISSNs))
	}
	if e.cfg.VerifyAuthors {
		checks = append(checks, CompareAuthors(rec.AuthorSurnames, d.AuthorSurnames))
	}
	return checks
}

// classify applies the aggregation rule: any Mismatch rejects, at least one
// Match verifies, and all-NoData is only Possible.
func (e *Engine) classify(checks []FieldCheck, sim float64) (Verdict, string) {
	var matched []string
	for _, c := range checks {
		switch c.Result {
		case Mismatch:
			return VerdictRejected, fmt.Sprintf("%s mismatch: %q vs %q", c.Field, c.Source, c.Candidate)
		case Match:
			matched = append(matched, string(c.Field))
		}
	}
	if len(matched) > 0 {
		return VerdictVerified, "corroborated by " + strings.Join(matched, ", ")
	}
	if sim >= e.cfg.SimThreshold {
		return VerdictPossible, "no corroborating metadata"
	}
	return VerdictRejected, "no corroborating metadata"
}

func (e *Engine) emit(rec types.SourceRecord, t CandidateTrace) {
	if e.trace != nil {
		e.trace(rec, t)
	}
}
