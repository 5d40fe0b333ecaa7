// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doi-enricher/internal/diva"
	"github.com/pdiddy/doi-enricher/internal/enrich"
	"github.com/pdiddy/doi-enricher/internal/idlookup"
	"github.com/pdiddy/doi-enricher/internal/ledger"
	"github.com/pdiddy/doi-enricher/internal/match"
	"github.com/pdiddy/doi-enricher/internal/report"
	"github.com/pdiddy/doi-enricher/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download a DiVA export, match records, and write candidate reports",
	Long: `Run downloads the publications of a DiVA portal for a year range (or reads
a local export with --input), selects the records that lack identifiers, and
searches the metadata source for each title. Candidates are screened on year,
title similarity, and publication type, then verified against volume, issue,
pages, ISSN, and authors.

Records with a verified or possible DOI are written to a CSV report and a
spreadsheet with links. Every outcome is recorded in the ledger; records it
has already decided are skipped unless --rerun is given.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("portal", "", "DiVA portal name, e.g. kth or uu (default kth)")
	runCmd.Flags().Int("from", 0, "first publication year (default current year)")
	runCmd.Flags().Int("to", 0, "last publication year (default current year)")
	runCmd.Flags().String("id-mode", "", "records to work on: no-id, scopus-only, isi-only, scopus-or-isi (default no-id)")
	runCmd.Flags().StringSlice("exclude-title", nil, "titles never worked on (default foreword, preface)")
	runCmd.Flags().String("input", "", "read this DiVA CSV export instead of downloading")
	addSourceFlags(runCmd)
	runCmd.Flags().Int("max-accepted", 0, "stop after this many verified DOIs (0 = no limit)")
	runCmd.Flags().Duration("delay", 0, "pause between records per worker (default 1s)")
	runCmd.Flags().Int("workers", 0, "records evaluated in parallel (default 1)")
	runCmd.Flags().Bool("rerun", false, "re-evaluate records the ledger has already decided")
	runCmd.Flags().String("ledger", "", "ledger database path (default state/doi-enricher.db)")
	runCmd.Flags().Bool("lookups", true, "look up PMID, Scopus, and Web of Science ids for verified DOIs")
	runCmd.Flags().String("out", "", "output directory (default .)")
	runCmd.Flags().Bool("xlsx", true, "write the spreadsheet with links")

	rootCmd.AddCommand(runCmd)
}

var runFlagKeys = map[string]string{
	"portal":        "diva.portal",
	"from":          "diva.from_year",
	"to":            "diva.to_year",
	"id-mode":       "diva.id_mode",
	"exclude-title": "diva.exclude_titles",
	"input":         "diva.input_path",
	"max-accepted":  "enrich.max_accepted",
	"delay":         "enrich.query_delay",
	"workers":       "enrich.workers",
	"rerun":         "enrich.rerun",
	"ledger":        "enrich.ledger_path",
	"lookups":       "enrich.secondary_lookups",
	"out":           "output.dir",
	"xlsx":          "output.xlsx",
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, sourceFlagKeys); err != nil {
		return err
	}
	if err := bindFlags(cmd, runFlagKeys); err != nil {
		return err
	}
	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	// Shared by the trace and the workers.
	out := enrich.SyncWriter(cmd.OutOrStdout())
	from, to := cfg.Diva.FromYear, cfg.Diva.ToYear

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	exportPath := cfg.Diva.InputPath
	if exportPath == "" {
		exportPath = filepath.Join(cfg.Output.Dir, report.RawFilename(from, to))
		url := diva.ExportURL(cfg.Diva.Portal, from, to)
		fmt.Fprintf(out, "Downloading DiVA export %s (%d-%d)\n", cfg.Diva.Portal, from, to)
		client := &http.Client{Timeout: cfg.Diva.Timeout}
		if err := diva.Download(ctx, client, url, exportPath, cfg.Diva.UserAgent); err != nil {
			return fmt.Errorf("downloading DiVA export: %w", err)
		}
		fmt.Fprintf(out, "Saved raw export to %s\n", exportPath)
	}

	table, err := diva.ReadFile(exportPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %d rows from %s\n", len(table.Rows), exportPath)

	rows, err := diva.Select(table.Rows, diva.NewFilterConfig(cfg.Diva), out)
	if err != nil {
		return err
	}

	src, err := newSource(cfg.Source)
	if err != nil {
		return err
	}
	engine, err := match.NewEngine(cfg.Match, src, traceOptions(cmd, out)...)
	if err != nil {
		return err
	}

	deps := enrich.Deps{Searcher: src, Engine: engine}
	if cfg.Enrich.LedgerPath != "" {
		store, err := ledger.Open(cfg.Enrich.LedgerPath)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Ledger = store
	}
	if cfg.Enrich.SecondaryLookups {
		deps.Lookups = idlookup.New(loadedSecrets, cfg.Source.HTTPConfig)
		fmt.Fprintf(out, "Secondary lookups: %v\n", deps.Lookups.Names())
	}

	fmt.Fprintf(out, "Matching %d records against %s\n", len(rows), src.Name())
	summary, results, runErr := enrich.Run(ctx, rows, deps, cfg.Enrich, out)

	// Reports are written even for an interrupted run.
	files, reported, err := writeReports(cfg, table.Columns, results)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(out, "Wrote %s\n", f)
	}

	rs := report.RunSummary{
		Portal:     cfg.Diva.Portal,
		FromYear:   from,
		ToYear:     to,
		IDMode:     string(cfg.Diva.IDMode),
		Source:     src.Name(),
		Selected:   len(rows),
		Outcomes:   summary,
		Reported:   reported,
		Files:      files,
		FinishedAt: time.Now().UTC(),
	}
	summaryPath := filepath.Join(cfg.Output.Dir, report.SummaryFilename(from, to))
	if err := writeSummaryFile(summaryPath, rs); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d record(s) failed", summary.Failed)
	}
	return nil
}

func traceOptions(cmd *cobra.Command, w io.Writer) []match.Option {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return nil
	}
	return []match.Option{match.WithTrace(match.WriterTrace(w))}
}

func writeReports(cfg types.PipelineConfig, columns []string, results []enrich.Result) ([]string, int, error) {
	from, to := cfg.Diva.FromYear, cfg.Diva.ToYear
	csvPath := filepath.Join(cfg.Output.Dir, report.CandidatesFilename(from, to))
	n, err := report.WriteCSVFile(csvPath, columns, results)
	if err != nil {
		return nil, 0, err
	}
	files := []string{csvPath}

	if cfg.Output.XLSX {
		xlsxPath := filepath.Join(cfg.Output.Dir, report.LinksFilename(from, to))
		if _, err := report.WriteXLSX(xlsxPath, cfg.Diva.Portal, columns, results); err != nil {
			return files, n, err
		}
		files = append(files, xlsxPath)
	}
	return files, n, nil
}

func writeSummaryFile(path string, s report.RunSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := report.WriteSummary(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
