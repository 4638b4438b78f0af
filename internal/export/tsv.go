// Package export renders a BibTeX database in projected output
// formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/matsen/bibenrich/internal/bibtex"
)

// Pseudo-fields resolvable in a TSV projection alongside regular
// entry fields.
const (
	FieldKey  = "key"
	FieldType = "entrytype"
)

// WriteTSV writes one header row naming the requested fields, then
// one row per entry with exactly those fields in that order. A field
// absent on an entry yields an empty cell; fields present on the
// entry but not requested are omitted. "key" and "entrytype" project
// the entry's key and type.
//
// An empty field list is a caller error: format selection is
// validated before any output begins.
func WriteTSV(w io.Writer, db *bibtex.Database, fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("tsv output requires a non-empty field list")
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(fields); err != nil {
		return err
	}

	row := make([]string, len(fields))
	for _, e := range db.Entries {
		for i, name := range fields {
			row[i] = fieldValue(e, name)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// fieldValue resolves a requested field against an entry, handling
// the key/type pseudo-fields.
func fieldValue(e *bibtex.Entry, name string) string {
	switch strings.ToLower(name) {
	case FieldKey:
		return e.Key
	case FieldType:
		return e.Type
	}
	v, _ := e.Get(name)
	return v
}

// ParseFieldList splits a comma-separated field list, trimming
// whitespace and dropping empty items.
func ParseFieldList(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}
