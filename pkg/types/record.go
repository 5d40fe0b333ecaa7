// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the doi-enricher pipeline:
// source records awaiting a DOI, candidate records proposed by a metadata
// source, match outcomes, and stage configuration.
package types

// SourceRecord is one bibliographic entry that needs a persistent identifier.
// Optional string fields are empty when the source has no value for them.
type SourceRecord struct {
	// ID is the record identifier in the source system (e.g. a DiVA PID).
	// It is carried for reporting only and never compared.
	ID string `json:"id" yaml:"id"`

	// Title is the record title as exported by the source.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year; 0 when unknown.
	Year int `json:"year" yaml:"year"`

	// PublicationType uses the source vocabulary (e.g. "article", "conferencePaper").
	PublicationType string `json:"publication_type" yaml:"publication_type"`

	Volume    string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue     string `json:"issue,omitempty" yaml:"issue,omitempty"`
	StartPage string `json:"start_page,omitempty" yaml:"start_page,omitempty"`
	EndPage   string `json:"end_page,omitempty" yaml:"end_page,omitempty"`

	// ISSNs holds journal and series ISSNs, print and electronic.
	ISSNs []string `json:"issns,omitempty" yaml:"issns,omitempty"`

	// AuthorSurnames holds the family names of the record's authors.
	AuthorSurnames []string `json:"author_surnames,omitempty" yaml:"author_surnames,omitempty"`
}

// CandidateSummary is a lightweight search hit from the metadata source. It
// only decides whether fetching the full record is worthwhile.
type CandidateSummary struct {
	// Identifier is the candidate DOI.
	Identifier string `json:"identifier" yaml:"identifier"`

	Title string `json:"title" yaml:"title"`

	// Type uses the metadata-source vocabulary (e.g. "journal-article").
	Type string `json:"type" yaml:"type"`

	// Year is the issued year reported by the source; 0 when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// ScoreHint is an optional relevance hint from the search backend.
	ScoreHint float64 `json:"score_hint,omitempty" yaml:"score_hint,omitempty"`
}

// CandidateDetail is the full bibliographic metadata for one identifier.
type CandidateDetail struct {
	Identifier     string   `json:"identifier" yaml:"identifier"`
	Type           string   `json:"type" yaml:"type"`
	Volume         string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue          string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	StartPage      string   `json:"start_page,omitempty" yaml:"start_page,omitempty"`
	EndPage        string   `json:"end_page,omitempty" yaml:"end_page,omitempty"`
	ISSNs          []string `json:"issns,omitempty" yaml:"issns,omitempty"`
	AuthorSurnames []string `json:"author_surnames,omitempty" yaml:"author_surnames,omitempty"`
}

// SecondaryIDs are identifiers looked up for a verified DOI in citation
// databases. Empty fields were not found or not looked up.
type SecondaryIDs struct {
	PMID     string `json:"pmid,omitempty" yaml:"pmid,omitempty"`
	ScopusID string `json:"scopus_id,omitempty" yaml:"scopus_id,omitempty"`
	WoSID    string `json:"wos_id,omitempty" yaml:"wos_id,omitempty"`
}

// Empty reports whether no identifier was found.
func (s SecondaryIDs) Empty() bool {
	return s.PMID == "" && s.ScopusID == "" && s.WoSID == ""
}
