// Package main provides the bibenrich CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/bibenrich/internal/config"
	"github.com/matsen/bibenrich/internal/export"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	flagEmail     string
	flagFormat    string
	flagKeys      string
	flagOutput    string
	flagTSVFields string
	flagCache     string
	flagPDFRoot   string
	flagDryRun    bool
)

var rootCmd = &cobra.Command{
	Use:   "bibenrich [file]",
	Short: "Enrich BibTeX entries with DOIs from Crossref",
	Long: `bibenrich reads a BibTeX database, queries Crossref for each entry's
title, and adds the DOI of the top-ranked result when its title is an
exact (case-insensitive) match. Existing DOIs are never overwritten.

Input is a BibTeX file or standard input. Output is either the full
BibTeX database or a tab-separated projection of selected fields.

Examples:
  bibenrich refs.bib --output enriched.bib
  bibenrich refs.bib --email you@example.org --output enriched.bib
  bibenrich refs.bib --keys wanted.txt --format tsv \
      --tsv-fields key,title,doi --output table.tsv`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "Contact e-mail for the Crossref polite pool")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "bib", "Output format: bib or tsv")
	rootCmd.Flags().StringVarP(&flagKeys, "keys", "k", "", "File with citation keys to process, one per line")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file (required)")
	rootCmd.Flags().StringVarP(&flagTSVFields, "tsv-fields", "t", "", "Comma-separated field list for tsv output")
	rootCmd.Flags().StringVar(&flagCache, "cache", "", "SQLite file caching Crossref query results")
	rootCmd.Flags().StringVar(&flagPDFRoot, "pdf-root", "", "Directory for resolving entry file fields to local PDFs")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Skip Crossref; parse, filter, and serialize only")
	rootCmd.MarkFlagRequired("output")
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
}

// buildOptions merges flags, environment, and the global config file
// into the effective run options. Validation happens before any input
// is opened so configuration errors never produce partial output.
func buildOptions(args []string) (*config.Options, error) {
	opts := &config.Options{
		Email:      flagEmail,
		Format:     config.Format(flagFormat),
		KeysPath:   flagKeys,
		OutputPath: flagOutput,
		CachePath:  flagCache,
		PDFRoot:    flagPDFRoot,
		DryRun:     flagDryRun,
	}
	if len(args) > 0 {
		opts.InputPath = args[0]
	}
	if flagTSVFields != "" {
		opts.TSVFields = export.ParseFieldList(flagTSVFields)
	}

	if opts.Email == "" {
		opts.Email = os.Getenv("CROSSREF_MAILTO")
	}

	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}
	opts.ApplyGlobal(global)

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
