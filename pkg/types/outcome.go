// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutcomeKind classifies the result of matching one SourceRecord.
type OutcomeKind string

const (
	OutcomeNoMatch  OutcomeKind = "no_match"
	OutcomePossible OutcomeKind = "possible"
	OutcomeVerified OutcomeKind = "verified"
)

// MatchOutcome is the classification of one SourceRecord against its
// candidates. Verified is set only for OutcomeVerified; Possible is ordered
// best-first and set only for OutcomePossible.
type MatchOutcome struct {
	Kind     OutcomeKind `json:"kind" yaml:"kind"`
	Verified string      `json:"verified,omitempty" yaml:"verified,omitempty"`
	Possible []string    `json:"possible,omitempty" yaml:"possible,omitempty"`
}

// Verified returns an outcome naming exactly one confirmed identifier.
func Verified(identifier string) MatchOutcome {
	return MatchOutcome{Kind: OutcomeVerified, Verified: identifier}
}

// Possible returns an outcome listing plausible but unconfirmed identifiers.
func Possible(identifiers []string) MatchOutcome {
	return MatchOutcome{Kind: OutcomePossible, Possible: identifiers}
}

// NoMatch returns the outcome for a record with no surviving candidate.
func NoMatch() MatchOutcome {
	return MatchOutcome{Kind: OutcomeNoMatch}
}

// HasCandidate reports whether the outcome carries any identifier.
func (o MatchOutcome) HasCandidate() bool {
	return o.Verified != "" || len(o.Possible) > 0
}
