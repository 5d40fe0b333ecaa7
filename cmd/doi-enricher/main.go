// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the doi-enricher CLI. It downloads a
// DiVA publication export, finds DOIs for records that lack one, and writes
// candidate reports for review.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/doi-enricher/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets *secrets.Store

// rootCmd is the base command for the doi-enricher CLI.
var rootCmd = &cobra.Command{
	Use:   "doi-enricher",
	Short: "Find and verify DOIs for DiVA publication records",
	Long: `doi-enricher searches a bibliographic metadata source (Crossref or OpenAlex)
for DiVA records that have no DOI, verifies each candidate against the record's
volume, issue, pages, ISSN, and authors, and reports verified and possible DOIs.

Outcomes are kept in a SQLite ledger so repeated runs only evaluate records that
are still undecided.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional.
		_ = godotenv.Load()

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Open(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./doi-enricher.yaml or ~/.config/doi-enricher/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of secret files (one key per file)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print every candidate and check as it is judged")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("doi-enricher")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "doi-enricher"))
		}
	}

	viper.SetEnvPrefix("DOI_ENRICHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
