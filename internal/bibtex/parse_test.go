package bibtex

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_BasicEntry(t *testing.T) {
	input := `@article{Smith2020,
  author = {Smith, John},
  title = {A Study of Things},
  year = {2020},
}`

	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("Parse() got %d entries, want 1", len(db.Entries))
	}

	e := db.Entries[0]
	if e.Key != "Smith2020" {
		t.Errorf("Key = %q, want %q", e.Key, "Smith2020")
	}
	if e.Type != "article" {
		t.Errorf("Type = %q, want %q", e.Type, "article")
	}
	if got, _ := e.Get("author"); got != "Smith, John" {
		t.Errorf("author = %q, want %q", got, "Smith, John")
	}
	if got, _ := e.Get("title"); got != "A Study of Things" {
		t.Errorf("title = %q, want %q", got, "A Study of Things")
	}
}

func TestParse_ValueForms(t *testing.T) {
	input := `@book{k1,
  title = "Quoted Title",
  year = 1999,
  note = {nested {braces} kept},
  pages = {10} # "--" # {20},
}`

	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e := db.Entries[0]

	tests := []struct {
		field string
		want  string
	}{
		{"title", "Quoted Title"},
		{"year", "1999"},
		{"note", "nested {braces} kept"},
		{"pages", "10--20"},
	}
	for _, tt := range tests {
		if got, _ := e.Get(tt.field); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestParse_StringMacro(t *testing.T) {
	input := `@string{jmlr = "Journal of Machine Learning Research"}
@article{a1,
  journal = jmlr,
  title = {T},
}`

	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, _ := db.Entries[0].Get("journal"); got != "Journal of Machine Learning Research" {
		t.Errorf("journal = %q, want macro expansion", got)
	}
}

func TestParse_SkipsCommentsAndFreeText(t *testing.T) {
	input := `This is free text before any entry.
@comment{anything goes here, even = signs}
@preamble{"\newcommand{\x}{y}"}
@misc{only, title = {The Only Entry}}
trailing text`

	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(db.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(db.Entries))
	}
	if db.Entries[0].Key != "only" {
		t.Errorf("Key = %q, want %q", db.Entries[0].Key, "only")
	}
}

func TestParse_PreservesOrder(t *testing.T) {
	input := `@article{b, title={B}}
@article{a, title={A}}
@article{c, title={C}}`

	db, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"b", "a", "c"}
	got := db.Keys()
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated entry", `@article{x, title = {T}`},
		{"unterminated value", `@article{x, title = {T`},
		{"unterminated quote", `@article{x, title = "T`},
		{"missing value", `@article{x, title = }`},
		{"undefined macro", `@article{x, journal = nosuchmacro}`},
		{"missing key comma", `@article{x title = {T}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
			}
		})
	}
}

func TestParse_ErrorReportsLine(t *testing.T) {
	input := "@article{ok, title = {T}}\n\n@article{bad, title = }\n"

	_, err := Parse(strings.NewReader(input))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Parse() error = %v, want *ParseError", err)
	}
	if parseErr.Line != 3 {
		t.Errorf("ParseError.Line = %d, want 3", parseErr.Line)
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1/ABC", "10.1/abc"},
		{"https://doi.org/10.1/abc", "10.1/abc"},
		{"doi:10.1/abc", "10.1/abc"},
		{"DOI:10.1/Abc", "10.1/abc"},
		{"  10.1/abc  ", "10.1/abc"},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
