// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "doi-enricher/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// MatchConfig holds the static thresholds and toggles of the matching engine.
// It is validated once when the engine is built.
type MatchConfig struct {
	// SimThreshold is the minimum title similarity, in [0,1], for a candidate
	// to pass screening (default 0.9).
	SimThreshold float64 `json:"sim_threshold" yaml:"sim_threshold"`

	// Verification toggles. Each enabled check can reject a candidate.
	VerifyVolume  bool `json:"verify_volume" yaml:"verify_volume"`
	VerifyIssue   bool `json:"verify_issue" yaml:"verify_issue"`
	VerifyPages   bool `json:"verify_pages" yaml:"verify_pages"`
	VerifyISSN    bool `json:"verify_issn" yaml:"verify_issn"`
	VerifyAuthors bool `json:"verify_authors" yaml:"verify_authors"`

	// MaxCandidatesToVerify caps how many screened candidates get their full
	// metadata fetched (default 5).
	MaxCandidatesToVerify int `json:"max_candidates_to_verify" yaml:"max_candidates_to_verify"`

	// MaxPossibleToReport caps the Possible list (default 3). Zero disables
	// Possible outcomes.
	MaxPossibleToReport int `json:"max_possible_to_report" yaml:"max_possible_to_report"`

	// TypeEscapeHatch lets two unmapped publication types match when their
	// original strings are identical.
	TypeEscapeHatch bool `json:"type_escape_hatch" yaml:"type_escape_hatch"`

	// StopTokens are removed from titles before similarity scoring. Nil means
	// the default set; an empty non-nil slice disables removal.
	StopTokens []string `json:"stop_tokens,omitempty" yaml:"stop_tokens,omitempty"`
}

// DefaultStopTokens lists the articles and conjunctions dropped from titles.
var DefaultStopTokens = []string{"a", "an", "the", "and", "or", "but", "nor"}

// DefaultMatchConfig returns the engine configuration used when nothing is
// overridden: all five checks on, threshold 0.9.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		SimThreshold:          0.9,
		VerifyVolume:          true,
		VerifyIssue:           true,
		VerifyPages:           true,
		VerifyISSN:            true,
		VerifyAuthors:         true,
		MaxCandidatesToVerify: 5,
		MaxPossibleToReport:   3,
	}
}

// SourceBackend identifies the bibliographic metadata source.
type SourceBackend string

const (
	BackendCrossref SourceBackend = "crossref"
	BackendOpenAlex SourceBackend = "openalex"
)

// MetadataSourceConfig holds settings for the metadata-source collaborators.
type MetadataSourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Backend selects crossref or openalex.
	Backend SourceBackend `json:"backend" yaml:"backend"`

	// Mailto is sent for polite-pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// RowsPerQuery bounds the number of candidates returned by one title search (default 5).
	RowsPerQuery int `json:"rows_per_query" yaml:"rows_per_query"`

	// MaxRetries is the number of retries on rate limiting (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// IDMode selects which source records are worked on, based on the
// identifiers they already carry.
type IDMode string

const (
	// IDModeNone selects records with no DOI, no ISI, and no Scopus id.
	IDModeNone IDMode = "no-id"
	// IDModeScopusOnly selects records with a Scopus id but no DOI or ISI.
	IDModeScopusOnly IDMode = "scopus-only"
	// IDModeISIOnly selects records with an ISI id but no DOI or Scopus id.
	IDModeISIOnly IDMode = "isi-only"
	// IDModeScopusOrISI selects the union of scopus-only and isi-only.
	IDModeScopusOrISI IDMode = "scopus-or-isi"
)

// DivaConfig holds settings for fetching and selecting source records.
type DivaConfig struct {
	HTTPConfig `yaml:",inline"`

	// Portal is the DiVA portal name (e.g. "kth", "uu").
	Portal string `json:"portal" yaml:"portal"`

	FromYear int `json:"from_year" yaml:"from_year"`
	ToYear   int `json:"to_year" yaml:"to_year"`

	IDMode IDMode `json:"id_mode" yaml:"id_mode"`

	// ExcludeTitles are case-insensitive titles never worked on (e.g. "preface").
	ExcludeTitles []string `json:"exclude_titles" yaml:"exclude_titles"`

	// InputPath reads a local export instead of downloading one.
	InputPath string `json:"input_path,omitempty" yaml:"input_path,omitempty"`
}

// EnrichConfig holds settings for the record-by-record enrichment run.
type EnrichConfig struct {
	// MaxAccepted stops the run once this many Verified outcomes are kept.
	// Zero means unlimited.
	MaxAccepted int `json:"max_accepted" yaml:"max_accepted"`

	// QueryDelay is the minimum interval between searches for the whole run,
	// shared by all workers (default 1s).
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`

	// Workers is the number of records evaluated in parallel (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// Rerun re-evaluates records the ledger has already decided.
	Rerun bool `json:"rerun" yaml:"rerun"`

	// LedgerPath is the SQLite database recording outcomes; empty disables it.
	LedgerPath string `json:"ledger_path,omitempty" yaml:"ledger_path,omitempty"`

	// SecondaryLookups runs PubMed/Scopus/WoS lookups after a Verified outcome.
	SecondaryLookups bool `json:"secondary_lookups" yaml:"secondary_lookups"`
}

// OutputConfig holds settings for report rendering.
type OutputConfig struct {
	// Dir is the output directory for CSV, XLSX, and summary files.
	Dir string `json:"dir" yaml:"dir"`

	// XLSX enables the spreadsheet with hyperlinks.
	XLSX bool `json:"xlsx" yaml:"xlsx"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Match  MatchConfig          `json:"match" yaml:"match"`
	Source MetadataSourceConfig `json:"source" yaml:"source"`
	Diva   DivaConfig           `json:"diva" yaml:"diva"`
	Enrich EnrichConfig         `json:"enrich" yaml:"enrich"`
	Output OutputConfig         `json:"output" yaml:"output"`
}
