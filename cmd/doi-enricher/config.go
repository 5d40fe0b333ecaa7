// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doi-enricher/internal/crossref"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/internal/openalex"
	"github.com/pdiddy/doi-enricher/internal/secrets"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

const defaultUserAgent = "doi-enricher/0.1"

// setDefaults registers the value of every configuration key that neither
// a flag, the environment, nor the config file sets.
func setDefaults() {
	d := types.DefaultMatchConfig()
	viper.SetDefault("match.sim_threshold", d.SimThreshold)
	viper.SetDefault("match.verify_volume", d.VerifyVolume)
	viper.SetDefault("match.verify_issue", d.VerifyIssue)
	viper.SetDefault("match.verify_pages", d.VerifyPages)
	viper.SetDefault("match.verify_issn", d.VerifyISSN)
	viper.SetDefault("match.verify_authors", d.VerifyAuthors)
	viper.SetDefault("match.max_candidates_to_verify", d.MaxCandidatesToVerify)
	viper.SetDefault("match.max_possible_to_report", d.MaxPossibleToReport)
	viper.SetDefault("match.type_escape_hatch", false)

	viper.SetDefault("source.backend", string(types.BackendCrossref))
	viper.SetDefault("source.rows_per_query", 5)
	viper.SetDefault("source.max_retries", 5)
	viper.SetDefault("source.timeout", 30*time.Second)
	viper.SetDefault("source.user_agent", defaultUserAgent)

	year := time.Now().Year()
	viper.SetDefault("diva.portal", "kth")
	viper.SetDefault("diva.from_year", year)
	viper.SetDefault("diva.to_year", year)
	viper.SetDefault("diva.id_mode", string(types.IDModeNone))
	viper.SetDefault("diva.timeout", 5*time.Minute)

	viper.SetDefault("enrich.query_delay", time.Second)
	viper.SetDefault("enrich.workers", 1)
	viper.SetDefault("enrich.ledger_path", "state/doi-enricher.db")
	viper.SetDefault("enrich.secondary_lookups", true)

	viper.SetDefault("output.dir", ".")
	viper.SetDefault("output.xlsx", true)
}

// bindFlags binds the named flags of cmd to configuration keys. Binding
// happens when the command runs, so commands sharing a key do not clash.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// addSourceFlags registers the flags shared by commands that query a
// metadata source.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "metadata source: crossref or openalex (default crossref)")
	cmd.Flags().Int("rows", 0, "candidates requested per title search (default 5)")
	cmd.Flags().String("mailto", "", "contact address for the polite API pool")
	cmd.Flags().Float64("threshold", 0, "minimum title similarity in [0,1] (default 0.9)")
	cmd.Flags().Int("max-verify", 0, "candidates whose metadata is fetched per record (default 5)")
	cmd.Flags().Int("max-possible", 0, "possible DOIs reported per record (default 3)")
	cmd.Flags().StringSlice("checks", nil, "verification checks to run: volume, issue, pages, issn, authors")
}

var sourceFlagKeys = map[string]string{
	"source":       "source.backend",
	"rows":         "source.rows_per_query",
	"mailto":       "source.mailto",
	"threshold":    "match.sim_threshold",
	"max-verify":   "match.max_candidates_to_verify",
	"max-possible": "match.max_possible_to_report",
	"checks":       "match.checks",
}

// pipelineConfig assembles the stage configurations from viper.
func pipelineConfig() (types.PipelineConfig, error) {
	cfg := types.PipelineConfig{
		Match: types.MatchConfig{
			SimThreshold:          viper.GetFloat64("match.sim_threshold"),
			VerifyVolume:          viper.GetBool("match.verify_volume"),
			VerifyIssue:           viper.GetBool("match.verify_issue"),
			VerifyPages:           viper.GetBool("match.verify_pages"),
			VerifyISSN:            viper.GetBool("match.verify_issn"),
			VerifyAuthors:         viper.GetBool("match.verify_authors"),
			MaxCandidatesToVerify: viper.GetInt("match.max_candidates_to_verify"),
			MaxPossibleToReport:   viper.GetInt("match.max_possible_to_report"),
			TypeEscapeHatch:       viper.GetBool("match.type_escape_hatch"),
		},
		Source: types.MetadataSourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: viper.GetString("source.user_agent"),
			},
			Backend:      types.SourceBackend(strings.ToLower(viper.GetString("source.backend"))),
			Mailto:       viper.GetString("source.mailto"),
			RowsPerQuery: viper.GetInt("source.rows_per_query"),
			MaxRetries:   viper.GetInt("source.max_retries"),
		},
		Diva: types.DivaConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("diva.timeout"),
				UserAgent: viper.GetString("source.user_agent"),
			},
			Portal:    viper.GetString("diva.portal"),
			FromYear:  viper.GetInt("diva.from_year"),
			ToYear:    viper.GetInt("diva.to_year"),
			IDMode:    types.IDMode(viper.GetString("diva.id_mode")),
			InputPath: viper.GetString("diva.input_path"),
		},
		Enrich: types.EnrichConfig{
			MaxAccepted:      viper.GetInt("enrich.max_accepted"),
			QueryDelay:       viper.GetDuration("enrich.query_delay"),
			Workers:          viper.GetInt("enrich.workers"),
			Rerun:            viper.GetBool("enrich.rerun"),
			LedgerPath:       viper.GetString("enrich.ledger_path"),
			SecondaryLookups: viper.GetBool("enrich.secondary_lookups"),
		},
		Output: types.OutputConfig{
			Dir:  viper.GetString("output.dir"),
			XLSX: viper.GetBool("output.xlsx"),
		},
	}
	if viper.IsSet("match.stop_tokens") {
		cfg.Match.StopTokens = viper.GetStringSlice("match.stop_tokens")
		if cfg.Match.StopTokens == nil {
			cfg.Match.StopTokens = []string{}
		}
	}
	if viper.IsSet("match.checks") {
		if err := applyChecks(&cfg.Match, viper.GetStringSlice("match.checks")); err != nil {
			return cfg, err
		}
	}
	if viper.IsSet("diva.exclude_titles") {
		cfg.Diva.ExcludeTitles = viper.GetStringSlice("diva.exclude_titles")
	}

	if cfg.Source.Mailto == "" {
		key := secrets.CrossrefMailto
		if cfg.Source.Backend == types.BackendOpenAlex {
			key = secrets.OpenAlexEmail
		}
		cfg.Source.Mailto = loadedSecrets.Get(key)
	}

	if cfg.Diva.FromYear > cfg.Diva.ToYear {
		return cfg, fmt.Errorf("from year %d is after to year %d", cfg.Diva.FromYear, cfg.Diva.ToYear)
	}
	if cfg.Enrich.Workers < 1 {
		return cfg, fmt.Errorf("workers must be at least 1, got %d", cfg.Enrich.Workers)
	}
	if err := match.ValidateConfig(cfg.Match); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyChecks enables exactly the named verification checks.
func applyChecks(cfg *types.MatchConfig, names []string) error {
	cfg.VerifyVolume, cfg.VerifyIssue, cfg.VerifyPages, cfg.VerifyISSN, cfg.VerifyAuthors = false, false, false, false, false
	for _, n := range names {
		switch match.Field(strings.ToLower(strings.TrimSpace(n))) {
		case match.FieldVolume:
			cfg.VerifyVolume = true
		case match.FieldIssue:
			cfg.VerifyIssue = true
		case match.FieldPages:
			cfg.VerifyPages = true
		case match.FieldISSN:
			cfg.VerifyISSN = true
		case match.FieldAuthors:
			cfg.VerifyAuthors = true
		case "":
		default:
			return fmt.Errorf("unknown check %q (want volume, issue, pages, issn, or authors)", n)
		}
	}
	return nil
}

// newSource returns the metadata source client for cfg.Backend.
func newSource(cfg types.MetadataSourceConfig) (match.Source, error) {
	switch cfg.Backend {
	case types.BackendCrossref, "":
		return crossref.New(cfg), nil
	case types.BackendOpenAlex:
		return openalex.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want %s or %s)", cfg.Backend, types.BackendCrossref, types.BackendOpenAlex)
	}
}
