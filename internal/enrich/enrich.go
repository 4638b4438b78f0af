// Package enrich runs the DOI enrichment pipeline over a BibTeX
// database: one metadata-service query per entry, a replaceable
// matching policy, and a merge step that never overwrites existing
// identifiers.
package enrich

import (
	"context"

	"github.com/matsen/bibenrich/internal/bibtex"
	"github.com/matsen/bibenrich/internal/crossref"
)

// Service is the metadata lookup boundary: a free-text bibliographic
// query returning ranked candidate works. The concrete Crossref
// client satisfies it; tests substitute a stub with scripted results.
type Service interface {
	Works(ctx context.Context, query string) ([]crossref.Work, error)
}

// Enricher drives one enrichment run. Construct with New and run once
// per database; an Enricher holds no per-run state.
type Enricher struct {
	service Service
	matcher Matcher

	// pdfRoot, when non-empty, enables DOI recovery from local PDFs
	// named by an entry's file field.
	pdfRoot string
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithMatcher replaces the matching policy. The default is
// TitleMatcher.
func WithMatcher(m Matcher) Option {
	return func(e *Enricher) {
		e.matcher = m
	}
}

// WithPDFRoot enables the PDF DOI fallback, resolving entry file
// fields relative to root.
func WithPDFRoot(root string) Option {
	return func(e *Enricher) {
		e.pdfRoot = root
	}
}

// New creates an Enricher querying the given service.
func New(service Service, opts ...Option) *Enricher {
	e := &Enricher{
		service: service,
		matcher: TitleMatcher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes every entry of db in order, strictly sequentially:
// each query is issued and awaited before the next entry is touched,
// which keeps request order deterministic for rate-limited use of the
// service. A failure querying one entry is recorded as a diagnostic
// and never aborts the remaining entries. Entries are mutated in
// place; the returned report lists every per-entry outcome.
func (e *Enricher) Run(ctx context.Context, db *bibtex.Database) *Report {
	report := &Report{Total: len(db.Entries)}

	for _, entry := range db.Entries {
		e.processEntry(ctx, entry, report)
	}

	return report
}

func (e *Enricher) processEntry(ctx context.Context, entry *bibtex.Entry, report *Report) {
	title, ok := entry.Get("title")
	if !ok || title == "" {
		report.add(Diagnostic{Kind: DiagNoTitle, Key: entry.Key})
		return
	}

	works, err := e.service.Works(ctx, title)
	if err != nil {
		report.add(Diagnostic{Kind: DiagQueryFailed, Key: entry.Key, EntryTitle: title, Err: err})
		e.tryPDFFallback(entry, report)
		return
	}

	candidates := toCandidates(works)
	accepted, ok := e.matcher.Match(title, candidates)
	if !ok {
		if len(candidates) == 0 {
			report.add(Diagnostic{Kind: DiagNoMatch, Key: entry.Key, EntryTitle: title})
		} else {
			report.add(Diagnostic{
				Kind:           DiagTitleMismatch,
				Key:            entry.Key,
				EntryTitle:     title,
				CandidateTitle: accepted.Title,
				CandidateDOI:   accepted.DOI,
			})
		}
		e.tryPDFFallback(entry, report)
		return
	}

	report.Matched++
	e.merge(entry, accepted.DOI, report)
}

// merge applies the conflict policy: a missing doi field is set to
// the discovered identifier; an existing doi field is never changed,
// and a case-insensitive difference is reported.
func (e *Enricher) merge(entry *bibtex.Entry, doi string, report *Report) {
	existing, ok := entry.Get("doi")
	if !ok {
		entry.Set("doi", doi)
		return
	}
	if bibtex.NormalizeDOI(existing) != bibtex.NormalizeDOI(doi) {
		report.add(Diagnostic{
			Kind:         DiagDOIMismatch,
			Key:          entry.Key,
			EntryDOI:     existing,
			CandidateDOI: doi,
		})
	}
}

func toCandidates(works []crossref.Work) []Candidate {
	if len(works) == 0 {
		return nil
	}
	candidates := make([]Candidate, len(works))
	for i, w := range works {
		candidates[i] = Candidate{Title: w.Title(), DOI: w.DOI}
	}
	return candidates
}
