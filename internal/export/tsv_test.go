package export

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/bibenrich/internal/bibtex"
)

func sampleDB() *bibtex.Database {
	return &bibtex.Database{Entries: []*bibtex.Entry{
		{
			Key:  "Smith2020",
			Type: "article",
			Fields: map[string]string{
				"title": "A Study",
				"doi":   "10.1/abc",
				"year":  "2020",
				"note":  "not requested",
			},
		},
		{
			Key:  "Doe2021",
			Type: "book",
			Fields: map[string]string{
				"title": "Another",
				// no doi, no year
			},
		},
	}}
}

func TestWriteTSV(t *testing.T) {
	var b strings.Builder
	err := WriteTSV(&b, sampleDB(), []string{"key", "doi", "year"})
	if err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	want := []string{
		"key\tdoi\tyear",
		"Smith2020\t10.1/abc\t2020",
		"Doe2021\t\t",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("WriteTSV() lines = %q, want %q", lines, want)
	}
}

func TestWriteTSV_PseudoFields(t *testing.T) {
	var b strings.Builder
	if err := WriteTSV(&b, sampleDB(), []string{"entrytype", "key", "title"}); err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if lines[1] != "article\tSmith2020\tA Study" {
		t.Errorf("row = %q, want type and key projected", lines[1])
	}
	if lines[2] != "book\tDoe2021\tAnother" {
		t.Errorf("row = %q, want type and key projected", lines[2])
	}
}

func TestWriteTSV_FieldOrderFollowsRequest(t *testing.T) {
	var b strings.Builder
	if err := WriteTSV(&b, sampleDB(), []string{"year", "key"}); err != nil {
		t.Fatalf("WriteTSV() error = %v", err)
	}

	lines := strings.Split(b.String(), "\n")
	if lines[0] != "year\tkey" {
		t.Errorf("header = %q, want requested order", lines[0])
	}
	if lines[1] != "2020\tSmith2020" {
		t.Errorf("row = %q, want requested order", lines[1])
	}
}

func TestWriteTSV_EmptyFieldListRejected(t *testing.T) {
	var b strings.Builder
	if err := WriteTSV(&b, sampleDB(), nil); err == nil {
		t.Error("WriteTSV() with no fields succeeded, want error")
	}
	if b.Len() != 0 {
		t.Errorf("WriteTSV() produced output %q before failing", b.String())
	}
}

func TestParseFieldList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"key,doi,year", []string{"key", "doi", "year"}},
		{" key , doi ", []string{"key", "doi"}},
		{"key,,doi", []string{"key", "doi"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseFieldList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseFieldList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
