// Package bibtex defines the core domain types for BibTeX databases
// and operations over them (parsing, writing, key filtering).
package bibtex

import "strings"

// Entry represents a single BibTeX record.
type Entry struct {
	// Key is the citation key, unique within a well-formed database.
	// Uniqueness is assumed from the source file, not enforced here.
	Key string

	// Type is the entry type tag (article, book, inproceedings, ...),
	// stored lowercase.
	Type string

	// Fields maps field names (lowercase) to raw values. Field sets
	// vary per entry type, so this stays schema-less rather than
	// hardcoding every possible field as a struct member.
	Fields map[string]string
}

// Database is an ordered collection of entries. Order is insertion
// order from the source file and is preserved by every operation.
type Database struct {
	Entries []*Entry
}

// Get returns the value of a field, with ok reporting presence.
func (e *Entry) Get(name string) (string, bool) {
	v, ok := e.Fields[strings.ToLower(name)]
	return v, ok
}

// Set stores a field value under the lowercased field name.
func (e *Entry) Set(name, value string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[strings.ToLower(name)] = value
}

// Keys returns the citation keys of all entries in order.
func (db *Database) Keys() []string {
	keys := make([]string, len(db.Entries))
	for i, e := range db.Entries {
		keys[i] = e.Key
	}
	return keys
}

// NormalizeDOI normalizes a DOI for comparison.
// Removes common prefixes like "https://doi.org/" and lowercases.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}
