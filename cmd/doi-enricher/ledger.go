// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doi-enricher/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List recorded outcomes",
	Long: `Ledger lists the outcomes recorded by earlier runs, optionally filtered by
status (verified, possible, ambiguous, no_match, failed). With --yaml the
entries are written as a YAML list for review or import elsewhere.`,
	RunE: runLedger,
}

func init() {
	ledgerCmd.Flags().String("ledger", "", "ledger database path (default state/doi-enricher.db)")
	ledgerCmd.Flags().String("status", "", "only list entries with this status")
	ledgerCmd.Flags().Bool("yaml", false, "write entries as YAML")

	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{"ledger": "enrich.ledger_path"}); err != nil {
		return err
	}
	path := viper.GetString("enrich.ledger_path")
	if path == "" {
		return fmt.Errorf("no ledger path configured")
	}

	var status ledger.Status
	if s, _ := cmd.Flags().GetString("status"); s != "" {
		st, err := ledger.ParseStatus(s)
		if err != nil {
			return err
		}
		status = st
	}

	store, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return store.ExportYAML(ctx, out, status)
	}

	entries, err := store.List(ctx, status)
	if err != nil {
		return err
	}
	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	writeLedgerTable(out, entries, counts)
	return nil
}

func writeLedgerTable(w io.Writer, entries []ledger.Entry, counts map[ledger.Status]int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
	} else {
		fmt.Fprintf(w, "%-20s  %-10s  %-40s  %s\n", "Record", "Status", "DOI", "Evaluated")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, e := range entries {
			fmt.Fprintf(w, "%-20s  %-10s  %-40s  %s\n", e.RecordID, e.Status, entryDOIs(e), e.EvaluatedAt.Format("2006-01-02 15:04"))
		}
	}

	var parts []string
	for _, st := range ledger.Statuses {
		parts = append(parts, fmt.Sprintf("%d %s", counts[st], st))
	}
	fmt.Fprintf(w, "\nLedger: %s\n", strings.Join(parts, ", "))
}

func entryDOIs(e ledger.Entry) string {
	switch {
	case e.VerifiedDOI != "":
		return e.VerifiedDOI
	case len(e.PossibleDOIs) > 0:
		return strings.Join(e.PossibleDOIs, "; ")
	case len(e.AmbiguousDOIs) > 0:
		return strings.Join(e.AmbiguousDOIs, "; ")
	case e.Error != "":
		return "(" + e.Error + ")"
	}
	return ""
}
