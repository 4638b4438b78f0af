package enrich

import "fmt"

// DiagnosticKind classifies a per-entry outcome worth surfacing.
type DiagnosticKind string

const (
	// DiagNoTitle: the entry has no title field to query with.
	DiagNoTitle DiagnosticKind = "no-title"

	// DiagNoMatch: the service returned no candidates at all.
	DiagNoMatch DiagnosticKind = "no-match"

	// DiagTitleMismatch: the top-ranked candidate's title did not
	// match the entry's title; the candidate was rejected.
	DiagTitleMismatch DiagnosticKind = "title-mismatch"

	// DiagDOIMismatch: the entry already carries a DOI that differs
	// from the accepted candidate's; the existing DOI was kept.
	DiagDOIMismatch DiagnosticKind = "doi-mismatch"

	// DiagQueryFailed: contacting the service failed for this entry;
	// the entry was left unmatched and the run continued.
	DiagQueryFailed DiagnosticKind = "query-failed"

	// DiagPDFRecovered: no candidate was accepted, but a DOI was
	// recovered from the entry's local PDF file.
	DiagPDFRecovered DiagnosticKind = "pdf-recovered"
)

// Diagnostic is one typed per-entry report. Diagnostics are data, not
// text: callers and tests assert on fields rather than scraping
// output.
type Diagnostic struct {
	Kind DiagnosticKind

	// Key is the citation key of the entry the diagnostic concerns.
	Key string

	// EntryTitle and CandidateTitle carry both sides of a rejected
	// title comparison.
	EntryTitle     string
	CandidateTitle string

	// EntryDOI and CandidateDOI carry both sides of a DOI conflict,
	// and CandidateDOI alone identifies a rejected or recovered
	// candidate.
	EntryDOI     string
	CandidateDOI string

	// Err is set for query-failed diagnostics.
	Err error
}

// String renders the diagnostic as a human-readable line.
func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagNoTitle:
		return fmt.Sprintf("%s: entry has no title, skipped", d.Key)
	case DiagNoMatch:
		return fmt.Sprintf("%s: no Crossref candidates for %q", d.Key, d.EntryTitle)
	case DiagTitleMismatch:
		return fmt.Sprintf("%s %s\n  best Crossref match: %s %s", d.Key, d.EntryTitle, d.CandidateTitle, d.CandidateDOI)
	case DiagDOIMismatch:
		return fmt.Sprintf("%s: DOI mismatch: %s != %s (kept existing)", d.Key, d.EntryDOI, d.CandidateDOI)
	case DiagQueryFailed:
		return fmt.Sprintf("%s: query failed: %v", d.Key, d.Err)
	case DiagPDFRecovered:
		return fmt.Sprintf("%s: DOI %s recovered from PDF", d.Key, d.CandidateDOI)
	}
	return fmt.Sprintf("%s: %s", d.Key, d.Kind)
}

// Report accumulates the outcome of one enrichment run.
type Report struct {
	// Total is the number of entries processed.
	Total int

	// Matched is the number of entries whose top candidate was
	// accepted by the matcher.
	Matched int

	// Diagnostics lists per-entry outcomes in processing order.
	Diagnostics []Diagnostic
}

func (r *Report) add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// ByKind returns the diagnostics of one kind, in order.
func (r *Report) ByKind(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
