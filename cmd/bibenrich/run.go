package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibenrich/internal/bibtex"
	"github.com/matsen/bibenrich/internal/config"
	"github.com/matsen/bibenrich/internal/crossref"
	"github.com/matsen/bibenrich/internal/enrich"
	"github.com/matsen/bibenrich/internal/export"
	"github.com/matsen/bibenrich/internal/normalize"
)

func runRoot(cmd *cobra.Command, args []string) error {
	// Pick up CROSSREF_MAILTO from a local .env if present.
	_ = godotenv.Load()

	opts, err := buildOptions(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitConfigError)
	}

	db, err := readInput(opts.InputPath)
	if err != nil {
		var parseErr *bibtex.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitDataError)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	fmt.Fprintf(os.Stderr, "read %d entries\n", len(db.Entries))

	normalize.Database(db)

	if opts.KeysPath != "" {
		keys, err := readKeys(opts.KeysPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		fmt.Fprintf(os.Stderr, "read %d keys\n", len(keys))

		missing := bibtex.FilterKeys(db, keys)
		fmt.Fprintf(os.Stderr, "%d keys are missing: %s\n", len(missing), strings.Join(missing, ", "))
		fmt.Fprintf(os.Stderr, "%d entries remaining after filtering\n", len(db.Entries))
	}

	if !opts.DryRun {
		if err := runEnrichment(cmd.Context(), opts, db); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
	}

	if err := writeOutput(opts, db); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}

	return nil
}

// runEnrichment queries Crossref for every entry and merges accepted
// DOIs. Per-entry failures are diagnostics, never run failures.
func runEnrichment(ctx context.Context, opts *config.Options, db *bibtex.Database) error {
	if ctx == nil {
		ctx = context.Background()
	}

	clientOpts := []crossref.ClientOption{}
	if opts.Email != "" {
		clientOpts = append(clientOpts, crossref.WithMailto(opts.Email))
	}
	if opts.CachePath != "" {
		cache, err := crossref.OpenCache(opts.CachePath)
		if err != nil {
			return err
		}
		defer cache.Close()
		clientOpts = append(clientOpts, crossref.WithCache(cache))
	}

	enrichOpts := []enrich.Option{}
	if opts.PDFRoot != "" {
		enrichOpts = append(enrichOpts, enrich.WithPDFRoot(opts.PDFRoot))
	}

	enricher := enrich.New(crossref.NewClient(clientOpts...), enrichOpts...)

	fmt.Fprintln(os.Stderr, "entries where no exact matching entry could be found on Crossref:")
	report := enricher.Run(ctx, db)
	for _, d := range report.Diagnostics {
		fmt.Fprintln(os.Stderr, d.String())
	}
	fmt.Fprintf(os.Stderr, "%d of %d had matching titles\n", report.Matched, report.Total)

	return nil
}

// readInput parses the BibTeX database from a file or stdin.
func readInput(path string) (*bibtex.Database, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return bibtex.Parse(r)
}

// readKeys reads one citation key per line, trimming surrounding
// whitespace and skipping blank lines.
func readKeys(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	keys := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, scanner.Err()
}

// writeOutput serializes the database to the output file in the
// selected format.
func writeOutput(opts *config.Options, db *bibtex.Database) error {
	f, err := os.Create(opts.OutputPath)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	switch opts.Format {
	case config.FormatTSV:
		err = export.WriteTSV(w, db, opts.TSVFields)
	default:
		err = bibtex.Write(w, db)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
