// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the rows of an enrichment run that carry a DOI
// candidate: a CSV in the DiVA export layout, a spreadsheet with clickable
// links, and a YAML run summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doi-enricher/internal/diva"
	"github.com/pdiddy/doi-enricher/internal/enrich"
)

// Columns added to the source export.
const (
	ColPossibleDOIs = "Possible DOI:s"
	ColVerifiedDOI  = "Verified DOI"
	ColStatus       = "Status"
)

// leadingColumns come first, in this order, when present.
var leadingColumns = []string{
	diva.ColPID, ColPossibleDOIs, ColVerifiedDOI, ColStatus,
	diva.ColDOI, diva.ColISI, diva.ColScopusID, diva.ColTitle, diva.ColYear,
	diva.ColPublicationType, diva.ColJournal, diva.ColVolume, diva.ColIssue, diva.ColPages,
	diva.ColStartPage, diva.ColEndPage, diva.ColJournalISSN, diva.ColJournalEISSN,
	diva.ColSeriesISSN, diva.ColSeriesEISSN, diva.ColISBN, diva.ColISBNPrint,
	diva.ColISBNElectronic, diva.ColISBNUndefined, diva.ColArticleID, diva.ColPMID, diva.ColName,
}

// Columns returns the report column order for an export with the given
// header: the known columns first, then any others in export order.
func Columns(source []string) []string {
	present := map[string]bool{ColPossibleDOIs: true, ColVerifiedDOI: true, ColStatus: true}
	for _, c := range source {
		present[c] = true
	}
	var cols []string
	for _, c := range leadingColumns {
		if present[c] {
			cols = append(cols, c)
		}
	}
	for _, c := range source {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// Candidates returns the results that name at least one DOI.
func Candidates(results []enrich.Result) []enrich.Result {
	var out []enrich.Result
	for _, r := range results {
		if r.HasCandidate() {
			out = append(out, r)
		}
	}
	return out
}

// values returns the report cells of r keyed by column. Secondary
// identifiers found by the run fill columns the export left empty.
func values(r enrich.Result) map[string]string {
	v := make(map[string]string, len(r.Row)+3)
	for k, s := range r.Row {
		v[k] = s
	}
	possible := r.Outcome.Possible
	if len(r.Ambiguous) > 0 {
		possible = r.Ambiguous
	}
	v[ColPossibleDOIs] = strings.Join(possible, ";")
	v[ColVerifiedDOI] = r.Outcome.Verified
	v[ColStatus] = string(r.Status)

	fill := func(col, id string) {
		if id != "" && strings.TrimSpace(v[col]) == "" {
			v[col] = id
		}
	}
	fill(diva.ColPMID, r.IDs.PMID)
	fill(diva.ColScopusID, r.IDs.ScopusID)
	fill(diva.ColISI, r.IDs.WoSID)
	return v
}

// WriteCSV writes the results with a candidate to w and returns how many
// rows were written.
func WriteCSV(w io.Writer, sourceColumns []string, results []enrich.Result) (int, error) {
	cols := Columns(sourceColumns)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	rows := Candidates(results)
	for _, r := range rows {
		v := values(r)
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = v[c]
		}
		if err := cw.Write(rec); err != nil {
			return 0, fmt.Errorf("writing row %s: %w", r.Record.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flushing CSV: %w", err)
	}
	return len(rows), nil
}

// WriteCSVFile writes the CSV report to path.
func WriteCSVFile(path string, sourceColumns []string, results []enrich.Result) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	n, err := WriteCSV(f, sourceColumns, results)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", path, cerr)
	}
	return n, err
}

// RunSummary describes one enrichment run.
type RunSummary struct {
	Portal     string         `json:"portal" yaml:"portal"`
	FromYear   int            `json:"from_year" yaml:"from_year"`
	ToYear     int            `json:"to_year" yaml:"to_year"`
	IDMode     string         `json:"id_mode" yaml:"id_mode"`
	Source     string         `json:"source" yaml:"source"`
	Selected   int            `json:"selected" yaml:"selected"`
	Outcomes   enrich.Summary `json:"outcomes" yaml:"outcomes"`
	Reported   int            `json:"reported" yaml:"reported"`
	Files      []string       `json:"files,omitempty" yaml:"files,omitempty"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
}

// WriteSummary writes s to w as YAML.
func WriteSummary(w io.Writer, s RunSummary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// Output file names for a year range.

func RawFilename(fromYear, toYear int) string {
	return fmt.Sprintf("%d-%d_diva_raw.csv", fromYear, toYear)
}

func CandidatesFilename(fromYear, toYear int) string {
	return fmt.Sprintf("%d-%d_doi_candidates.csv", fromYear, toYear)
}

func LinksFilename(fromYear, toYear int) string {
	return fmt.Sprintf("%d-%d_doi_candidates_links.xlsx", fromYear, toYear)
}

func SummaryFilename(fromYear, toYear int) string {
	return fmt.Sprintf("%d-%d_summary.yaml", fromYear, toYear)
}
