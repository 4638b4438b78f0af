package enrich

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/bibenrich/internal/bibtex"
)

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// pdfScanPages limits the DOI scan to the front matter, where the DOI
// is printed in practice.
const pdfScanPages = 3

// tryPDFFallback attempts to recover a DOI from the entry's local PDF
// when the service produced no accepted candidate. A recovered DOI is
// merged under the usual conflict policy. Every failure mode (no file
// field, unreadable PDF, no DOI in text) is silent: the fallback is
// best-effort and the entry already carries a no-match diagnostic.
func (e *Enricher) tryPDFFallback(entry *bibtex.Entry, report *Report) {
	if e.pdfRoot == "" {
		return
	}
	file, ok := entry.Get("file")
	if !ok || file == "" {
		return
	}

	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.pdfRoot, path)
	}

	doi, err := extractDOI(path)
	if err != nil || doi == "" {
		return
	}

	report.add(Diagnostic{Kind: DiagPDFRecovered, Key: entry.Key, CandidateDOI: doi})
	e.merge(entry, doi, report)
}

// extractDOI scans the first pages of a PDF for a DOI pattern.
func extractDOI(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	maxPages := pdfScanPages
	if r.NumPage() < maxPages {
		maxPages = r.NumPage()
	}

	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if doi := findDOI(text); doi != "" {
			return doi, nil
		}
	}

	return "", nil // No DOI found (not an error)
}

// findDOI finds the first DOI pattern in text and trims trailing
// punctuation that the pattern over-matches.
func findDOI(text string) string {
	match := doiPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.TrimRight(match, ".,;)")
}
