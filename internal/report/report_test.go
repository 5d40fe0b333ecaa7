// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/doi-enricher/internal/diva"
	"github.com/pdiddy/doi-enricher/internal/enrich"
	"github.com/pdiddy/doi-enricher/internal/ledger"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

func TestLinks(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"doi", DOIURL(" 10.1000/abc "), "https://doi.org/10.1000/abc"},
		{"empty doi", DOIURL(""), ""},
		{"scopus", ScopusURL("2-s2.0-85012345678"), "https://www.scopus.com/record/display.url?origin=inward&partnerID=40&eid=2-s2.0-85012345678"},
		{"isi", ISIURL("000123456700001"), "https://gateway.webofknowledge.com/api/gateway?GWVersion=2&SrcAuth=Name&SrcApp=sfx&DestApp=WOS&DestLinkType=FullRecord&KeyUT=000123456700001"},
		{"isi escaped", ISIURL("WOS:0001"), "https://gateway.webofknowledge.com/api/gateway?GWVersion=2&SrcAuth=Name&SrcApp=sfx&DestApp=WOS&DestLinkType=FullRecord&KeyUT=WOS%3A0001"},
		{"numeric pid", PIDURL("kth", "1234567"), "https://kth.diva-portal.org/smash/record.jsf?pid=diva2%3A1234567"},
		{"prefixed pid", PIDURL("uu", "diva2:99"), "https://uu.diva-portal.org/smash/record.jsf?pid=diva2%3A99"},
		{"empty pid", PIDURL("kth", " "), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestColumns(t *testing.T) {
	got := Columns([]string{"Name", "PID", "Title", "Notes", "Year"})
	assert.Equal(t, []string{"PID", "Possible DOI:s", "Verified DOI", "Status", "Title", "Year", "Name", "Notes"}, got)
}

func TestLinkColumns(t *testing.T) {
	got := LinkColumns([]string{"PID", "Possible DOI:s", "Verified DOI", "ISI", "ScopusId", "Title"})
	assert.Equal(t, []string{
		"PID", "PID_link", "Possible DOI:s", "Possible_DOI_link", "Verified DOI", "Verified_DOI_link",
		"ISI", "ISI_link", "ScopusId", "Scopus_link", "Title",
	}, got)
}

var sourceColumns = []string{diva.ColPID, diva.ColTitle, diva.ColDOI, diva.ColISI, diva.ColScopusID, diva.ColPMID}

func sampleResults() []enrich.Result {
	return []enrich.Result{
		{
			Row:     diva.Row{diva.ColPID: "1234567", diva.ColTitle: "Glacier retreat", diva.ColScopusID: "2-s2.0-1"},
			Record:  types.SourceRecord{ID: "1234567"},
			Status:  ledger.StatusVerified,
			Outcome: types.Verified("10.1/a"),
			IDs:     types.SecondaryIDs{PMID: "31452104", ScopusID: "2-s2.0-999", WoSID: "000111"},
		},
		{
			Row:     diva.Row{diva.ColPID: "2", diva.ColTitle: "No luck"},
			Record:  types.SourceRecord{ID: "2"},
			Status:  ledger.StatusNoMatch,
			Outcome: types.NoMatch(),
		},
		{
			Row:       diva.Row{diva.ColPID: "3", diva.ColTitle: "Twins"},
			Record:    types.SourceRecord{ID: "3"},
			Status:    ledger.StatusAmbiguous,
			Outcome:   types.NoMatch(),
			Ambiguous: []string{"10.1/d1", "10.1/d2"},
		},
		{
			Row:     diva.Row{diva.ColPID: "4", diva.ColTitle: "Heat islands"},
			Record:  types.SourceRecord{ID: "4"},
			Status:  ledger.StatusPossible,
			Outcome: types.Possible([]string{"10.1/b", "10.1/c"}),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, sourceColumns, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"PID", "Possible DOI:s", "Verified DOI", "Status", "DOI", "ISI", "ScopusId", "Title", "PMID"}, records[0])

	assert.Equal(t, []string{"1234567", "", "10.1/a", "verified", "", "000111", "2-s2.0-1", "Glacier retreat", "31452104"}, records[1],
		"found identifiers fill empty columns only")
	assert.Equal(t, "3", records[2][0])
	assert.Equal(t, "10.1/d1;10.1/d2", records[2][1])
	assert.Equal(t, "ambiguous", records[2][3])
	assert.Equal(t, "10.1/b;10.1/c", records[3][1])
}

func TestWriteCSVNoCandidates(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, sourceColumns, sampleResults()[1:2])
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "header only")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", LinksFilename(2021, 2022))
	n, err := WriteXLSX(path, "kth", sourceColumns, sampleResults())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, LinkColumns(Columns(sourceColumns)), rows[0])

	cols := rows[0]
	idx := func(name string) int {
		for i, c := range cols {
			if c == name {
				return i
			}
		}
		t.Fatalf("column %s missing", name)
		return -1
	}
	assert.Equal(t, "PID", rows[1][idx("PID_link")])
	assert.Equal(t, "Verified DOI", rows[1][idx("Verified_DOI_link")])
	assert.Equal(t, "", rows[1][idx("Possible_DOI_link")])

	cell := func(col string, row int) string {
		name, err := excelize.CoordinatesToCellName(idx(col)+1, row)
		require.NoError(t, err)
		return name
	}
	ok, target, err := f.GetCellHyperLink(SheetName, cell("PID_link", 2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://kth.diva-portal.org/smash/record.jsf?pid=diva2%3A1234567", target)

	ok, target, err = f.GetCellHyperLink(SheetName, cell("ISI_link", 2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ISIURL("000111"), target)

	ok, target, err = f.GetCellHyperLink(SheetName, cell("Possible_DOI_link", 4))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://doi.org/10.1/b", target)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummary(&buf, RunSummary{
		Portal:     "kth",
		FromYear:   2021,
		ToYear:     2022,
		IDMode:     "no-id",
		Source:     "crossref",
		Selected:   40,
		Outcomes:   enrich.Summary{Processed: 38, Verified: 7, Skipped: 2},
		Reported:   9,
		FinishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "portal: kth")
	assert.Contains(t, out, "source: crossref")
	assert.Contains(t, out, "outcomes:\n  processed: 38\n  verified: 7")
	assert.Contains(t, out, "skipped: 2")
	assert.NotContains(t, out, "files:")
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "2021-2022_diva_raw.csv", RawFilename(2021, 2022))
	assert.Equal(t, "2021-2022_doi_candidates.csv", CandidatesFilename(2021, 2022))
	assert.Equal(t, "2021-2022_doi_candidates_links.xlsx", LinksFilename(2021, 2022))
	assert.Equal(t, "2021-2022_summary.yaml", SummaryFilename(2021, 2022))
}
