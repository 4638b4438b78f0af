package enrich

import "strings"

// Candidate is one work returned by the metadata service, reduced to
// the fields the matching decision needs. It lives only for the
// duration of one entry's match.
type Candidate struct {
	Title string
	DOI   string
}

// Matcher decides whether any of the service's candidates is the same
// work as the queried entry. Implementations must not modify the
// candidate slice.
type Matcher interface {
	// Match returns the accepted candidate and true, or the rejected
	// best candidate and false. When candidates is empty it returns
	// a zero Candidate and false.
	Match(entryTitle string, candidates []Candidate) (Candidate, bool)
}

// TitleMatcher accepts only the top-ranked candidate, and only when
// its title equals the entry's title under case folding. The policy
// deliberately favors precision over recall: every rejection is
// surfaced for human review rather than silently dropped.
type TitleMatcher struct{}

// Match implements Matcher.
func (TitleMatcher) Match(entryTitle string, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	if strings.EqualFold(best.Title, entryTitle) {
		return best, true
	}
	return best, false
}
