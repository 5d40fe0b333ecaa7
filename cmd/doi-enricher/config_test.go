// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/doi-enricher/internal/ledger"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	t.Cleanup(viper.Reset)
}

func TestPipelineConfigDefaults(t *testing.T) {
	resetViper(t)

	cfg, err := pipelineConfig()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultMatchConfig(), cfg.Match)
	assert.Equal(t, types.BackendCrossref, cfg.Source.Backend)
	assert.Equal(t, 5, cfg.Source.RowsPerQuery)
	assert.Equal(t, defaultUserAgent, cfg.Source.UserAgent)
	assert.Equal(t, "kth", cfg.Diva.Portal)
	assert.Equal(t, time.Now().Year(), cfg.Diva.FromYear)
	assert.Equal(t, types.IDModeNone, cfg.Diva.IDMode)
	assert.Nil(t, cfg.Diva.ExcludeTitles)
	assert.Equal(t, time.Second, cfg.Enrich.QueryDelay)
	assert.Equal(t, 1, cfg.Enrich.Workers)
	assert.True(t, cfg.Enrich.SecondaryLookups)
	assert.True(t, cfg.Output.XLSX)
}

func TestPipelineConfigOverrides(t *testing.T) {
	resetViper(t)
	viper.Set("match.checks", []string{"volume", "Authors"})
	viper.Set("match.sim_threshold", 0.8)
	viper.Set("match.stop_tokens", []string{})
	viper.Set("source.backend", "OpenAlex")
	viper.Set("diva.from_year", 2020)
	viper.Set("diva.to_year", 2022)
	viper.Set("diva.exclude_titles", []string{"Editorial"})

	cfg, err := pipelineConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Match.VerifyVolume)
	assert.True(t, cfg.Match.VerifyAuthors)
	assert.False(t, cfg.Match.VerifyIssue)
	assert.False(t, cfg.Match.VerifyPages)
	assert.False(t, cfg.Match.VerifyISSN)
	assert.Equal(t, 0.8, cfg.Match.SimThreshold)
	assert.NotNil(t, cfg.Match.StopTokens)
	assert.Empty(t, cfg.Match.StopTokens)
	assert.Equal(t, types.BackendOpenAlex, cfg.Source.Backend)
	assert.Equal(t, []string{"Editorial"}, cfg.Diva.ExcludeTitles)
}

func TestPipelineConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"year range reversed", "diva.from_year", time.Now().Year() + 1},
		{"no workers", "enrich.workers", 0},
		{"threshold out of range", "match.sim_threshold", 1.5},
		{"unknown check", "match.checks", []string{"colour"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			viper.Set(tt.key, tt.val)
			_, err := pipelineConfig()
			assert.Error(t, err)
		})
	}
}

func TestPipelineConfigInvalidMatch(t *testing.T) {
	resetViper(t)
	viper.Set("match.checks", []string{})
	viper.Set("match.max_possible_to_report", 0)
	_, err := pipelineConfig()
	assert.ErrorIs(t, err, match.ErrInvalidConfiguration)
}

func TestNewSource(t *testing.T) {
	src, err := newSource(types.MetadataSourceConfig{Backend: types.BackendCrossref})
	require.NoError(t, err)
	assert.Equal(t, "crossref", src.Name())

	src, err = newSource(types.MetadataSourceConfig{Backend: types.BackendOpenAlex})
	require.NoError(t, err)
	assert.Equal(t, "openalex", src.Name())

	_, err = newSource(types.MetadataSourceConfig{Backend: "scopus"})
	assert.Error(t, err)
}

func TestCheckRecord(t *testing.T) {
	cmd := checkCmd
	require.NoError(t, cmd.Flags().Set("title", "Coral reefs\u0007 under stress"))
	require.NoError(t, cmd.Flags().Set("year", "2021"))
	require.NoError(t, cmd.Flags().Set("pages", "100-110"))
	require.NoError(t, cmd.Flags().Set("volume", "12"))
	require.NoError(t, cmd.Flags().Set("author", "Lindqvist, Anna"))
	require.NoError(t, cmd.Flags().Set("author", "Berg"))

	rec, err := checkRecord(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Coral reefs under stress", rec.Title)
	assert.Equal(t, 2021, rec.Year)
	assert.Equal(t, "100", rec.StartPage)
	assert.Equal(t, "110", rec.EndPage)
	assert.Equal(t, "12", rec.Volume)
	assert.Equal(t, []string{"Lindqvist", "Berg"}, rec.AuthorSurnames)
}

func TestWriteCheckReportText(t *testing.T) {
	tests := []struct {
		name string
		rep  checkReport
		want string
	}{
		{"verified", checkReport{Evaluation: match.Evaluation{Outcome: types.Verified("10.1/a")}}, "Outcome: verified 10.1/a\n"},
		{"possible", checkReport{Evaluation: match.Evaluation{Outcome: types.Possible([]string{"10.1/a", "10.1/b"})}}, "Outcome: possible 10.1/a, 10.1/b\n"},
		{"no match", checkReport{Evaluation: match.Evaluation{Outcome: types.NoMatch()}}, "Outcome: no match\n"},
		{"ambiguous", checkReport{Evaluation: match.Evaluation{Outcome: types.NoMatch()}, Ambiguous: []string{"10.1/a", "10.1/b"}}, "Outcome: ambiguous (10.1/a, 10.1/b)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCheckReport(&buf, "text", tt.rep))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteCheckReportStructured(t *testing.T) {
	rep := checkReport{
		Evaluation: match.Evaluation{
			Record:  types.SourceRecord{ID: "check", Title: "Coral reefs"},
			Outcome: types.Verified("10.1/a"),
			Candidates: []match.CandidateTrace{{
				Identifier: "10.1/a",
				Similarity: 1,
				Verdict:    match.VerdictVerified,
				Checks:     []match.FieldCheck{{Field: match.FieldVolume, Result: match.Match, Source: "12", Candidate: "12"}},
			}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCheckReport(&buf, "yaml", rep))
	assert.Contains(t, buf.String(), "outcome:\n  kind: verified\n  verified: 10.1/a")
	assert.Contains(t, buf.String(), "verdict: verified")

	buf.Reset()
	require.NoError(t, writeCheckReport(&buf, "json", rep))
	assert.Contains(t, buf.String(), `"identifier": "10.1/a"`)
	assert.Contains(t, buf.String(), `"kind": "verified"`)
	assert.NotContains(t, buf.String(), "ambiguous")
}

func TestWriteLedgerTable(t *testing.T) {
	entries := []ledger.Entry{
		{RecordID: "r1", Status: ledger.StatusVerified, VerifiedDOI: "10.1/a"},
		{RecordID: "r2", Status: ledger.StatusFailed, Error: "HTTP 500"},
	}
	counts := map[ledger.Status]int{ledger.StatusVerified: 1, ledger.StatusFailed: 1}

	var buf bytes.Buffer
	writeLedgerTable(&buf, entries, counts)
	out := buf.String()
	assert.Contains(t, out, "r1")
	assert.Contains(t, out, "10.1/a")
	assert.Contains(t, out, "(HTTP 500)")
	assert.Contains(t, out, "Ledger: 1 verified, 0 possible, 0 ambiguous, 0 no_match, 1 failed")

	buf.Reset()
	writeLedgerTable(&buf, nil, map[ledger.Status]int{})
	assert.Contains(t, buf.String(), "No entries found.")
}
