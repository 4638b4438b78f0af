// Package normalize converts raw BibTeX field text (LaTeX markup)
// into canonical Unicode and cleans up whitespace in the
// human-readable fields.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/matsen/bibenrich/internal/bibtex"
)

// lineBreakFields are the fields whose embedded line breaks are
// collapsed to a single space.
var lineBreakFields = []string{"title", "author", "editor", "journal", "booktitle", "series"}

// reNewline matches a whitespace run containing at least one newline.
var reNewline = regexp.MustCompile(`\s*\n\s*`)

// Entry normalizes an entry in place: every field value is converted
// from LaTeX markup to NFC Unicode, and line breaks in the fields
// listed in lineBreakFields are collapsed. Absent fields stay absent.
func Entry(e *bibtex.Entry) {
	for name, value := range e.Fields {
		e.Fields[name] = ToUnicode(value)
	}
	for _, name := range lineBreakFields {
		if value, ok := e.Fields[name]; ok {
			e.Fields[name] = reNewline.ReplaceAllString(value, " ")
		}
	}
}

// Database normalizes every entry of db.
func Database(db *bibtex.Database) {
	for _, e := range db.Entries {
		Entry(e)
	}
}

// accents maps LaTeX accent markers to Unicode combining marks.
// Punctuation markers apply directly after the backslash; letter
// markers (u, v, H, ...) are commands that take an argument.
var accents = map[byte]rune{
	'`':  0x0300, // grave
	'\'': 0x0301, // acute
	'^':  0x0302, // circumflex
	'~':  0x0303, // tilde
	'=':  0x0304, // macron
	'.':  0x0307, // dot above
	'"':  0x0308, // diaeresis
	'u':  0x0306, // breve
	'v':  0x030C, // caron
	'H':  0x030B, // double acute
	'c':  0x0327, // cedilla
	'k':  0x0328, // ogonek
	'r':  0x030A, // ring above
	'b':  0x0331, // macron below
	'd':  0x0323, // dot below
	't':  0x0361, // tie
}

// symbols maps argument-less LaTeX commands to their Unicode text.
var symbols = map[string]string{
	"ss": "ß", "SS": "SS",
	"ae": "æ", "AE": "Æ",
	"oe": "œ", "OE": "Œ",
	"aa": "å", "AA": "Å",
	"o": "ø", "O": "Ø",
	"l": "ł", "L": "Ł",
	"i": "ı", "j": "ȷ",
	"dh": "ð", "DH": "Ð",
	"th": "þ", "TH": "Þ",
	"textendash": "–", "textemdash": "—",
	"textperiodcentered": "·",
	"ldots":              "…",
	"dots":               "…",
}

// ToUnicode converts LaTeX escape sequences in s to Unicode text in
// NFC form. Accents compose with their base letter, symbol commands
// expand, TeX dashes and quote ligatures become their Unicode
// equivalents, and grouping braces are removed. Commands with no
// known expansion are left verbatim. The conversion is idempotent.
func ToUnicode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\':
			n := convertCommand(&b, s[i:])
			i += n
		case c == '{' || c == '}':
			// Grouping braces are markup, not text.
			i++
		case c == '~':
			b.WriteByte(' ')
			i++
		case c == '-' && strings.HasPrefix(s[i:], "---"):
			b.WriteString("—")
			i += 3
		case c == '-' && strings.HasPrefix(s[i:], "--"):
			b.WriteString("–")
			i += 2
		case c == '`' && strings.HasPrefix(s[i:], "``"):
			b.WriteString("“")
			i += 2
		case c == '\'' && strings.HasPrefix(s[i:], "''"):
			b.WriteString("”")
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}

	return norm.NFC.String(b.String())
}

// convertCommand handles a backslash sequence at the start of s,
// writes its expansion to b, and returns the number of input bytes
// consumed (at least 1).
func convertCommand(b *strings.Builder, s string) int {
	if len(s) < 2 {
		b.WriteByte('\\')
		return 1
	}

	marker := s[1]

	// Escaped literal: \& \% \$ \# \_ \{ \}
	if strings.IndexByte("&%$#_{}", marker) >= 0 {
		b.WriteByte(marker)
		return 2
	}

	// Punctuation accent: \'e, \"{o}, \^{\i}, ...
	if !isLetter(marker) {
		mark, ok := accents[marker]
		if !ok {
			b.WriteByte('\\')
			return 1
		}
		base, n := accentArg(s[2:])
		if base == "" {
			b.WriteByte('\\')
			return 1
		}
		b.WriteString(base)
		b.WriteRune(mark)
		return 2 + n
	}

	// Letter command: read the full word.
	end := 1
	for end < len(s) && isLetter(s[end]) {
		end++
	}
	word := s[1:end]

	if text, ok := symbols[word]; ok {
		b.WriteString(text)
		// TeX eats one space after a command word.
		if end < len(s) && s[end] == ' ' {
			end++
		}
		return end
	}

	// Single-letter accent command taking an argument: \c{c}, \v s
	if len(word) == 1 {
		if mark, ok := accents[word[0]]; ok {
			rest := s[end:]
			skip := 0
			if len(rest) > 0 && rest[0] == ' ' {
				rest = rest[1:]
				skip = 1
			}
			base, n := accentArg(rest)
			if base != "" {
				b.WriteString(base)
				b.WriteRune(mark)
				return end + skip + n
			}
		}
	}

	// Unknown command: keep it verbatim.
	b.WriteString(s[:end])
	return end
}

// accentArg extracts the base letter an accent applies to: either a
// bare letter, a braced letter {x}, or a dotless \i / \j (braced or
// not). Returns the base text and bytes consumed, or "" when no
// usable argument is present.
func accentArg(s string) (string, int) {
	if s == "" {
		return "", 0
	}

	if s[0] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", 0
		}
		inner := s[1:end]
		if base := plainBase(inner); base != "" {
			return base, end + 1
		}
		return "", 0
	}

	if s[0] == '\\' {
		if base := plainBase(s[:2]); base != "" {
			return base, 2
		}
		return "", 0
	}

	if isLetter(s[0]) {
		return string(s[0]), 1
	}
	return "", 0
}

// plainBase maps an accent argument to its composable base letter.
func plainBase(s string) string {
	switch s {
	case `\i`:
		return "i"
	case `\j`:
		return "j"
	}
	if len(s) == 1 && isLetter(s[0]) {
		return s
	}
	return ""
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
