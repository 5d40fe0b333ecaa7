// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/pdiddy/doi-enricher/internal/diva"
)

// DOIURL returns the resolver link for doi, or "" when doi is empty.
func DOIURL(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	return "https://doi.org/" + doi
}

// ScopusURL returns the Scopus record page for an EID.
func ScopusURL(eid string) string {
	eid = strings.TrimSpace(eid)
	if eid == "" {
		return ""
	}
	return "https://www.scopus.com/record/display.url?origin=inward&partnerID=40&eid=" + url.QueryEscape(eid)
}

// ISIURL returns the Web of Science full-record gateway link for an
// accession number.
func ISIURL(isi string) string {
	isi = strings.TrimSpace(isi)
	if isi == "" {
		return ""
	}
	return "https://gateway.webofknowledge.com/api/gateway" +
		"?GWVersion=2&SrcAuth=Name&SrcApp=sfx&DestApp=WOS&DestLinkType=FullRecord&KeyUT=" +
		url.QueryEscape(isi)
}

// PIDURL returns the record page of pid in the given DiVA portal. A bare
// numeric pid is expanded to "diva2:<pid>".
func PIDURL(portal, pid string) string {
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return ""
	}
	if isDigits(pid) {
		pid = "diva2:" + pid
	}
	return diva.PortalURL(portal) + "/smash/record.jsf?pid=" + url.QueryEscape(pid)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
