// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package diva fetches publication exports from a DiVA portal, selects the
// rows worth enriching, and converts them to source records.
package diva

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// divaPortalFormat builds the portal host from its short name. Declared as a
// var so tests can point it at an httptest server.
var divaPortalFormat = "https://%s.diva-portal.org"

// Column names in a DiVA publication CSV export.
const (
	ColPID             = "PID"
	ColArticleID       = "ArticleId"
	ColDOI             = "DOI"
	ColEndPage         = "EndPage"
	ColISBN            = "ISBN"
	ColISBNElectronic  = "ISBN_ELECTRONIC"
	ColISBNPrint       = "ISBN_PRINT"
	ColISBNUndefined   = "ISBN_UNDEFINED"
	ColISI             = "ISI"
	ColIssue           = "Issue"
	ColJournal         = "Journal"
	ColJournalEISSN    = "JournalEISSN"
	ColJournalISSN     = "JournalISSN"
	ColPages           = "Pages"
	ColPublicationType = "PublicationType"
	ColPMID            = "PMID"
	ColScopusID        = "ScopusId"
	ColSeriesEISSN     = "SeriesEISSN"
	ColSeriesISSN      = "SeriesISSN"
	ColStartPage       = "StartPage"
	ColTitle           = "Title"
	ColName            = "Name"
	ColVolume          = "Volume"
	ColYear            = "Year"
)

// ExportFields is the field list requested from the export endpoint.
var ExportFields = []string{
	ColPID, ColArticleID, ColDOI, ColEndPage, ColISBN, ColISBNElectronic, ColISBNPrint,
	ColISBNUndefined, ColISI, ColIssue, ColJournal, ColJournalEISSN, ColJournalISSN, ColPages,
	ColPublicationType, ColPMID, ColScopusID, ColSeriesEISSN, ColSeriesISSN, ColStartPage,
	ColTitle, ColName, ColVolume, ColYear,
}

// PublicationTypes are the DiVA publication type codes included in an export.
var PublicationTypes = []string{"bookReview", "review", "article", "book", "chapter", "conferencePaper"}

// PortalURL returns the base URL of a DiVA portal such as "kth".
func PortalURL(portal string) string {
	return fmt.Sprintf(divaPortalFormat, portal)
}

// ExportURL builds the CSV export URL for all publications of the supported
// types issued between fromYear and toYear inclusive.
func ExportURL(portal string, fromYear, toYear int) string {
	quoted := make([]string, len(PublicationTypes))
	for i, t := range PublicationTypes {
		quoted[i] = `"` + t + `"`
	}
	params := []struct{ k, v string }{
		{"format", "csv"},
		{"addFilename", "true"},
		{"aq", fmt.Sprintf(`[[{"dateIssued":{"from":"%d","to":"%d"}}]]`, fromYear, toYear)},
		{"aqe", "[]"},
		{"aq2", `[[{"publicationTypeCode":[` + strings.Join(quoted, ",") + `]}]]`},
		{"onlyFullText", "false"},
		{"noOfRows", "99999"},
		{"sortOrder", "title_sort_asc"},
		{"sortOrder2", "title_sort_asc"},
		{"csvType", "publication"},
		{"fl", strings.Join(ExportFields, ",")},
	}
	// Parameter order is kept stable; url.Values would sort it.
	encoded := make([]string, len(params))
	for i, p := range params {
		encoded[i] = p.k + "=" + url.QueryEscape(p.v)
	}
	return PortalURL(portal) + "/smash/export.jsf?" + strings.Join(encoded, "&")
}

// Download fetches rawURL to destPath using a temporary file in the same
// directory, so an interrupted download never leaves a truncated export.
func Download(ctx context.Context, client *http.Client, rawURL, destPath, userAgent string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from DiVA export", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".diva-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
