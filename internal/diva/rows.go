// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package diva

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/doi-enricher/pkg/types"
)

// Row is one record of an export keyed by column name. Missing columns
// read as "".
type Row map[string]string

// Get returns the trimmed value of col.
func (r Row) Get(col string) string { return strings.TrimSpace(r[col]) }

// Table is a parsed export. Columns keeps the header order so reports can
// reproduce it.
type Table struct {
	Columns []string
	Rows    []Row
}

// ReadRows parses a DiVA CSV export. Titles are cleaned of non-printable
// characters. Ragged rows are tolerated.
func ReadRows(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, fmt.Errorf("empty DiVA export")
		}
		return Table{}, fmt.Errorf("reading header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("reading row %d: %w", len(t.Rows)+2, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		if title, ok := row[ColTitle]; ok {
			row[ColTitle] = CleanText(title)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadFile opens path and parses it with ReadRows.
func ReadFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("opening DiVA export: %w", err)
	}
	defer f.Close()
	return ReadRows(f)
}

// CleanText drops non-printable runes and trims surrounding space.
func CleanText(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == ' ' {
			return r
		}
		return -1
	}, s))
}

// FilterConfig selects which rows of an export are worked on.
type FilterConfig struct {
	FromYear      int
	ToYear        int
	IDMode        types.IDMode
	ExcludeTitles []string
}

// DefaultExcludeTitles are front-matter titles that never carry a DOI of their own.
var DefaultExcludeTitles = []string{"foreword", "preface"}

// NewFilterConfig derives a FilterConfig from the DiVA stage configuration.
func NewFilterConfig(cfg types.DivaConfig) FilterConfig {
	f := FilterConfig{
		FromYear:      cfg.FromYear,
		ToYear:        cfg.ToYear,
		IDMode:        cfg.IDMode,
		ExcludeTitles: cfg.ExcludeTitles,
	}
	if f.IDMode == "" {
		f.IDMode = types.IDModeNone
	}
	if f.ExcludeTitles == nil {
		f.ExcludeTitles = DefaultExcludeTitles
	}
	return f
}

// Select returns the rows to enrich, in export order: issued within the year
// range, not an excluded title, carrying the identifiers the mode asks for,
// and with a non-empty title and year. Progress after each filter goes to w.
func Select(rows []Row, f FilterConfig, w io.Writer) ([]Row, error) {
	want, err := idPredicate(f.IDMode)
	if err != nil {
		return nil, err
	}

	var inYear []Row
	for _, r := range rows {
		y, err := strconv.Atoi(r.Get(ColYear))
		if err != nil {
			continue
		}
		if (f.FromYear > 0 && y < f.FromYear) || (f.ToYear > 0 && y > f.ToYear) {
			continue
		}
		inYear = append(inYear, r)
	}
	fmt.Fprintf(w, "After year filter %d-%d: %d rows\n", f.FromYear, f.ToYear, len(inYear))

	excluded := make(map[string]bool, len(f.ExcludeTitles))
	for _, t := range f.ExcludeTitles {
		excluded[strings.ToLower(strings.TrimSpace(t))] = true
	}
	var kept []Row
	for _, r := range inYear {
		if excluded[strings.ToLower(r.Get(ColTitle))] {
			continue
		}
		kept = append(kept, r)
	}
	fmt.Fprintf(w, "After excluding titles %v: %d rows\n", f.ExcludeTitles, len(kept))

	var working []Row
	for _, r := range kept {
		if r.Get(ColTitle) == "" || r.Get(ColYear) == "" {
			continue
		}
		if want(r.Get(ColDOI) != "", r.Get(ColISI) != "", r.Get(ColScopusID) != "") {
			working = append(working, r)
		}
	}
	fmt.Fprintf(w, "Working rows (%s): %d\n", f.IDMode, len(working))
	return working, nil
}

func idPredicate(mode types.IDMode) (func(doi, isi, scopus bool) bool, error) {
	scopusOnly := func(doi, isi, scopus bool) bool { return !doi && !isi && scopus }
	isiOnly := func(doi, isi, scopus bool) bool { return !doi && isi && !scopus }
	switch mode {
	case types.IDModeNone, "":
		return func(doi, isi, scopus bool) bool { return !doi && !isi && !scopus }, nil
	case types.IDModeScopusOnly:
		return scopusOnly, nil
	case types.IDModeISIOnly:
		return isiOnly, nil
	case types.IDModeScopusOrISI:
		return func(doi, isi, scopus bool) bool { return scopusOnly(doi, isi, scopus) || isiOnly(doi, isi, scopus) }, nil
	default:
		return nil, fmt.Errorf("unknown id mode %q (want %s, %s, %s, or %s)", mode,
			types.IDModeNone, types.IDModeScopusOnly, types.IDModeISIOnly, types.IDModeScopusOrISI)
	}
}

// ISSNColumns are read, in order, into SourceRecord.ISSNs.
var ISSNColumns = []string{ColJournalISSN, ColJournalEISSN, ColSeriesISSN, ColSeriesEISSN}

// SourceRecord converts the row into the matching engine's input. An
// unparseable year becomes 0 (unknown).
func (r Row) SourceRecord() types.SourceRecord {
	year, _ := strconv.Atoi(r.Get(ColYear))
	rec := types.SourceRecord{
		ID:              r.Get(ColPID),
		Title:           CleanText(r[ColTitle]),
		Year:            year,
		PublicationType: r.Get(ColPublicationType),
		Volume:          r.Get(ColVolume),
		Issue:           r.Get(ColIssue),
		StartPage:       r.Get(ColStartPage),
		EndPage:         r.Get(ColEndPage),
	}
	for _, col := range ISSNColumns {
		if v := r.Get(col); v != "" {
			rec.ISSNs = append(rec.ISSNs, v)
		}
	}
	for _, n := range AuthorNames(r[ColName]) {
		if fam := Surname(n); fam != "" {
			rec.AuthorSurnames = append(rec.AuthorSurnames, fam)
		}
	}
	return rec
}

var (
	bracketed  = regexp.MustCompile(`\[[^\]]*\]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// AuthorNames splits a DiVA Name field such as
//
//	Aleksanyan, Hayk [u1lv4ls8] (KTH [177], Matematik);Shahgholian, Henrik [u15h3xoo] (KTH)
//
// into "Family, Given" names with local ids and affiliations removed.
func AuthorNames(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if i := strings.Index(part, " ("); i >= 0 {
			part = part[:i]
		}
		part = bracketed.ReplaceAllString(part, "")
		part = strings.TrimSpace(whitespace.ReplaceAllString(part, " "))
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}

// Surname returns the family name of a "Family, Given" author name.
func Surname(name string) string {
	fam, _, _ := strings.Cut(name, ",")
	return strings.TrimSpace(fam)
}
