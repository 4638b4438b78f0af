package bibtex

import (
	"strings"
	"testing"
)

func TestWrite_SingleEntry(t *testing.T) {
	db := &Database{Entries: []*Entry{{
		Key:  "Smith2020",
		Type: "article",
		Fields: map[string]string{
			"title":   "A Study",
			"author":  "Smith, John",
			"year":    "2020",
			"doi":     "10.1/abc",
			"zebra":   "z",
			"archive": "a",
		},
	}}}

	var b strings.Builder
	if err := Write(&b, db); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := b.String()

	want := `@article{Smith2020,
  author = {Smith, John},
  title = {A Study},
  year = {2020},
  doi = {10.1/abc},
  archive = {a},
  zebra = {z},
}
`
	if got != want {
		t.Errorf("Write() =\n%s\nwant:\n%s", got, want)
	}
}

func TestWrite_PreservesEntryOrder(t *testing.T) {
	db := &Database{Entries: []*Entry{
		{Key: "b", Type: "article", Fields: map[string]string{"title": "B"}},
		{Key: "a", Type: "book", Fields: map[string]string{"title": "A"}},
	}}

	var buf strings.Builder
	if err := Write(&buf, db); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := buf.String()

	bPos := strings.Index(got, "@article{b,")
	aPos := strings.Index(got, "@book{a,")
	if bPos < 0 || aPos < 0 {
		t.Fatalf("Write() missing entries:\n%s", got)
	}
	if bPos > aPos {
		t.Errorf("Write() reordered entries:\n%s", got)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	input := `@article{k1,
  author = {Doe, Jane},
  title = {Round Trips Considered Useful},
  year = {2021},
}
`
	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var buf strings.Builder
	if err := Write(&buf, db); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	db2, err := Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("reparse error = %v", err)
	}
	if len(db2.Entries) != 1 {
		t.Fatalf("reparse got %d entries, want 1", len(db2.Entries))
	}

	e1, e2 := db.Entries[0], db2.Entries[0]
	if e1.Key != e2.Key || e1.Type != e2.Type {
		t.Errorf("round trip changed identity: %q/%q -> %q/%q", e1.Key, e1.Type, e2.Key, e2.Type)
	}
	for name, v1 := range e1.Fields {
		if v2, ok := e2.Get(name); !ok || v1 != v2 {
			t.Errorf("round trip changed field %s: %q -> %q", name, v1, v2)
		}
	}
}
