package bibtex

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// fieldOrder lists fields written first, in this order. Remaining
// fields follow alphabetically so output is deterministic.
var fieldOrder = []string{"author", "editor", "title", "journal", "booktitle", "series", "year", "doi"}

// Write emits the full database in BibTeX format, entry order
// preserved, every field included.
func Write(w io.Writer, db *Database) error {
	for i, e := range db.Entries {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, format(e)); err != nil {
			return err
		}
	}
	return nil
}

// format renders a single entry.
func format(e *Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	for _, name := range sortedFields(e) {
		fmt.Fprintf(&b, "  %s = {%s},\n", name, e.Fields[name])
	}
	b.WriteString("}\n")
	return b.String()
}

// sortedFields returns field names in canonical emit order.
func sortedFields(e *Entry) []string {
	seen := make(map[string]bool, len(e.Fields))
	names := make([]string, 0, len(e.Fields))

	for _, name := range fieldOrder {
		if _, ok := e.Fields[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	rest := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(names, rest...)
}
