// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/doi-enricher/internal/diva"
	"github.com/pdiddy/doi-enricher/internal/enrich"
)

// SheetName is the worksheet holding the candidates.
const SheetName = "DOI candidates"

// linkColumn is a hyperlink column inserted after the column it links.
type linkColumn struct {
	name    string
	after   string
	display string
	url     func(portal, value string) string
}

var linkColumns = []linkColumn{
	{"PID_link", diva.ColPID, "PID", PIDURL},
	{"Possible_DOI_link", ColPossibleDOIs, "Possible DOI", func(_, v string) string { return DOIURL(firstDOI(v)) }},
	{"Verified_DOI_link", ColVerifiedDOI, "Verified DOI", func(_, v string) string { return DOIURL(v) }},
	{"ISI_link", diva.ColISI, "ISI", func(_, v string) string { return ISIURL(v) }},
	{"Scopus_link", diva.ColScopusID, "Scopus", func(_, v string) string { return ScopusURL(v) }},
}

func firstDOI(list string) string {
	first, _, _ := strings.Cut(list, ";")
	return first
}

// LinkColumns returns cols with each link column placed after its target.
func LinkColumns(cols []string) []string {
	out := make([]string, 0, len(cols)+len(linkColumns))
	for _, c := range cols {
		out = append(out, c)
		for _, lc := range linkColumns {
			if lc.after == c {
				out = append(out, lc.name)
			}
		}
	}
	return out
}

// WriteXLSX writes the results with a candidate to a workbook at path, with
// clickable links to the DiVA record, the DOIs, and the citation databases.
// It returns how many rows were written.
func WriteXLSX(path, portal string, sourceColumns []string, results []enrich.Result) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, fmt.Errorf("naming sheet: %w", err)
	}
	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "1265BE", Underline: "single"},
	})
	if err != nil {
		return 0, fmt.Errorf("creating link style: %w", err)
	}

	cols := LinkColumns(Columns(sourceColumns))
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	links := make(map[string]linkColumn, len(linkColumns))
	for _, lc := range linkColumns {
		links[lc.name] = lc
	}

	rows := Candidates(results)
	for ri, r := range rows {
		v := values(r)
		for ci, c := range cols {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return 0, err
			}
			lc, isLink := links[c]
			if !isLink {
				if s := v[c]; s != "" {
					if err := f.SetCellValue(SheetName, cell, s); err != nil {
						return 0, fmt.Errorf("writing %s: %w", cell, err)
					}
				}
				continue
			}
			target := lc.url(portal, v[lc.after])
			if target == "" {
				continue
			}
			if err := f.SetCellValue(SheetName, cell, lc.display); err != nil {
				return 0, fmt.Errorf("writing %s: %w", cell, err)
			}
			if err := f.SetCellHyperLink(SheetName, cell, target, "External"); err != nil {
				return 0, fmt.Errorf("linking %s: %w", cell, err)
			}
			if err := f.SetCellStyle(SheetName, cell, cell, linkStyle); err != nil {
				return 0, fmt.Errorf("styling %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("saving %s: %w", path, err)
	}
	return len(rows), nil
}
