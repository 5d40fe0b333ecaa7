// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"sort"
	"strings"
)

// CheckResult is the three-valued outcome of one field comparison.
type CheckResult int

const (
	// NoData means at least one side lacks the field.
	NoData CheckResult = iota
	Match
	Mismatch
)

func (r CheckResult) String() string {
	switch r {
	case Match:
		return "match"
	case Mismatch:
		return "mismatch"
	default:
		return "no_data"
	}
}

// MarshalText renders the result name in JSON and YAML output.
func (r CheckResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Field names a bibliographic check.
type Field string

const (
	FieldVolume  Field = "volume"
	FieldIssue   Field = "issue"
	FieldPages   Field = "pages"
	FieldISSN    Field = "issn"
	FieldAuthors Field = "authors"
)

// FieldCheck records one comparison with the normalized values on each side.
type FieldCheck struct {
	Field     Field       `json:"field" yaml:"field"`
	Result    CheckResult `json:"result" yaml:"result"`
	Source    string      `json:"source,omitempty" yaml:"source,omitempty"`
	Candidate string      `json:"candidate,omitempty" yaml:"candidate,omitempty"`

	// Partial is set on a page Match where one side lacked a page.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`

	// Common lists the shared values of a set comparison.
	Common []string `json:"common,omitempty" yaml:"common,omitempty"`
}

// CompareVolume compares journal volumes.
func CompareVolume(source, candidate string) FieldCheck {
	return compareNumbering(FieldVolume, source, candidate)
}

// CompareIssue compares journal issues.
func CompareIssue(source, candidate string) FieldCheck {
	return compareNumbering(FieldIssue, source, candidate)
}

func compareNumbering(field Field, source, candidate string) FieldCheck {
	fc := FieldCheck{
		Field:     field,
		Source:    NormalizeNumbering(source),
		Candidate: NormalizeNumbering(candidate),
	}
	switch {
	case fc.Source == "" || fc.Candidate == "":
		fc.Result = NoData
	case fc.Source == fc.Candidate:
		fc.Result = Match
	default:
		fc.Result = Mismatch
	}
	return fc
}

// ComparePages compares (start, end) page pairs. A Match needs equal start
// pages; end pages must agree only when both sides have one. Differing
// values on either position are a Mismatch.
func ComparePages(sourceStart, sourceEnd, candidateStart, candidateEnd string) FieldCheck {
	ss, se := NormalizeNumbering(sourceStart), NormalizeNumbering(sourceEnd)
	cs, ce := NormalizeNumbering(candidateStart), NormalizeNumbering(candidateEnd)

	fc := FieldCheck{
		Field:     FieldPages,
		Source:    pageRange(ss, se),
		Candidate: pageRange(cs, ce),
	}
	if (ss == "" && se == "") || (cs == "" && ce == "") {
		return fc
	}
	if (ss != "" && cs != "" && ss != cs) || (se != "" && ce != "" && se != ce) {
		fc.Result = Mismatch
		return fc
	}
	if ss == "" || cs == "" {
		return fc
	}
	fc.Result = Match
	fc.Partial = se == "" || ce == ""
	return fc
}

// CompareISSNs matches when the normalized ISSN sets intersect.
func CompareISSNs(source, candidate []string) FieldCheck {
	return compareSets(FieldISSN, source, candidate, NormalizeISSN)
}

// CompareAuthors matches when the case-folded surname sets intersect.
func CompareAuthors(source, candidate []string) FieldCheck {
	return compareSets(FieldAuthors, source, candidate, NormalizeSurname)
}

func compareSets(field Field, source, candidate []string, normalize func(string) string) FieldCheck {
	src := normalizedSet(source, normalize)
	cand := normalizedSet(candidate, normalize)

	fc := FieldCheck{
		Field:     field,
		Source:    strings.Join(sortedKeys(src), ", "),
		Candidate: strings.Join(sortedKeys(cand), ", "),
	}
	if len(src) == 0 || len(cand) == 0 {
		return fc
	}
	for v := range src {
		if _, ok := cand[v]; ok {
			fc.Common = append(fc.Common, v)
		}
	}
	sort.Strings(fc.Common)
	if len(fc.Common) > 0 {
		fc.Result = Match
	} else {
		fc.Result = Mismatch
	}
	return fc
}

// NormalizeNumbering trims and case-folds a volume, issue, or page value.
// All-digit values lose their leading zeros.
func NormalizeNumbering(s string) string {
	s = caseFold(strings.TrimSpace(s))
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return s
	}
	if t := strings.TrimLeft(s, "0"); t != "" {
		return t
	}
	return "0"
}

var issnStrip = strings.NewReplacer("-", "", " ", "", "‐", "", "‑", "", "–", "")

// NormalizeISSN returns the upper-case hyphenated form "NNNN-NNNC".
// Values that are not eight characters long are returned unhyphenated.
func NormalizeISSN(s string) string {
	s = strings.ToUpper(issnStrip.Replace(strings.TrimSpace(s)))
	if len(s) == 8 {
		return s[:4] + "-" + s[4:]
	}
	return s
}

func normalizedSet(values []string, normalize func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := normalize(v); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pageRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	default:
		return start + "-" + end
	}
}
