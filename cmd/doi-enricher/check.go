// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/doi-enricher/internal/crossref"
	"github.com/pdiddy/doi-enricher/internal/diva"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Match one record given on the command line and show every check",
	Long: `Check searches the metadata source for a single record described by flags
and prints how each candidate was screened and verified. Use it to tune the
similarity threshold and checks before a full run.

Example:
  doi-enricher check --title "Ocean acidification and coral reefs" --year 2021 \
    --type article --volume 12 --pages 100-110 --author "Lindqvist, Anna"`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("id", "check", "record id shown in the trace")
	checkCmd.Flags().String("title", "", "record title (required)")
	checkCmd.Flags().Int("year", 0, "publication year (0 = unknown)")
	checkCmd.Flags().String("type", "article", "DiVA publication type")
	checkCmd.Flags().String("volume", "", "journal volume")
	checkCmd.Flags().String("issue", "", "journal issue")
	checkCmd.Flags().String("pages", "", "page range, e.g. 100-110")
	checkCmd.Flags().StringSlice("issn", nil, "journal or series ISSN (repeatable)")
	checkCmd.Flags().StringArray("author", nil, `author as "Family, Given" or a surname (repeatable)`)
	checkCmd.Flags().String("format", "text", "output format: text, yaml, or json")
	addSourceFlags(checkCmd)

	rootCmd.AddCommand(checkCmd)
}

// checkReport is the structured output of check.
type checkReport struct {
	match.Evaluation `yaml:",inline"`
	Ambiguous        []string `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, sourceFlagKeys); err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q (want text, yaml, or json)", format)
	}
	rec, err := checkRecord(cmd)
	if err != nil {
		return err
	}
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	src, err := newSource(cfg.Source)
	if err != nil {
		return err
	}
	var opts []match.Option
	if format == "text" {
		opts = append(opts, match.WithTrace(match.WriterTrace(out)))
	}
	engine, err := match.NewEngine(cfg.Match, src, opts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cands, err := src.Search(ctx, rec.Title, rec.Year)
	if err != nil {
		return fmt.Errorf("searching %s: %w", src.Name(), err)
	}
	if format == "text" {
		fmt.Fprintf(out, "%s returned %d candidates for %q\n", src.Name(), len(cands), rec.Title)
	}

	ev, err := engine.Evaluate(ctx, rec, cands)
	rep := checkReport{Evaluation: ev}
	var amb *match.AmbiguousMatchError
	switch {
	case errors.As(err, &amb):
		rep.Ambiguous = amb.Identifiers
	case err != nil:
		return err
	}
	return writeCheckReport(out, format, rep)
}

func checkRecord(cmd *cobra.Command) (types.SourceRecord, error) {
	flags := cmd.Flags()
	title, _ := flags.GetString("title")
	if strings.TrimSpace(title) == "" {
		return types.SourceRecord{}, fmt.Errorf("--title is required")
	}
	id, _ := flags.GetString("id")
	year, _ := flags.GetInt("year")
	pubType, _ := flags.GetString("type")
	volume, _ := flags.GetString("volume")
	issue, _ := flags.GetString("issue")
	pages, _ := flags.GetString("pages")
	issns, _ := flags.GetStringSlice("issn")
	authors, _ := flags.GetStringArray("author")

	rec := types.SourceRecord{
		ID:              id,
		Title:           diva.CleanText(title),
		Year:            year,
		PublicationType: pubType,
		Volume:          volume,
		Issue:           issue,
		ISSNs:           issns,
	}
	rec.StartPage, rec.EndPage = crossref.SplitPages(pages)
	for _, a := range authors {
		if fam := diva.Surname(a); fam != "" {
			rec.AuthorSurnames = append(rec.AuthorSurnames, fam)
		}
	}
	return rec, nil
}

func writeCheckReport(w io.Writer, format string, rep checkReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}

	o := rep.Outcome
	switch {
	case len(rep.Ambiguous) > 0:
		fmt.Fprintf(w, "Outcome: ambiguous (%s)\n", strings.Join(rep.Ambiguous, ", "))
	case o.Kind == types.OutcomeVerified:
		fmt.Fprintf(w, "Outcome: verified %s\n", o.Verified)
	case o.Kind == types.OutcomePossible:
		fmt.Fprintf(w, "Outcome: possible %s\n", strings.Join(o.Possible, ", "))
	default:
		fmt.Fprintln(w, "Outcome: no match")
	}
	if rep.Incomplete {
		fmt.Fprintf(w, "Incomplete: %d candidate(s) could not be fetched\n", len(rep.FetchErrors))
	}
	return nil
}
