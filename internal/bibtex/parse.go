package bibtex

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ParseError describes a fatal syntax error in the input stream.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bibtex parse error at line %d: %s", e.Line, e.Msg)
}

// Parse reads a complete BibTeX database from r. The whole stream is
// consumed before any entry is returned. Supported constructs:
//
//   - @type{key, field = {value}, field = "value", field = 123}
//   - nested braces inside values
//   - value concatenation with #
//   - @string{name = "expansion"} macros, expanded at use sites
//   - @comment and @preamble blocks (skipped)
//   - free text between entries (ignored, per BibTeX convention)
//
// Any malformed entry aborts parsing with a *ParseError.
func Parse(r io.Reader) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	p := &parser{
		src:     string(data),
		line:    1,
		strings: make(map[string]string),
	}
	return p.parse()
}

type parser struct {
	src  string
	pos  int
	line int

	// strings holds @string macro definitions, keyed lowercase.
	strings map[string]string
}

func (p *parser) parse() (*Database, error) {
	db := &Database{}
	for {
		if !p.skipToEntry() {
			return db, nil
		}
		p.next() // consume '@'

		name, err := p.ident()
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(name) {
		case "comment", "preamble":
			if err := p.skipGroup(); err != nil {
				return nil, err
			}
		case "string":
			if err := p.parseString(); err != nil {
				return nil, err
			}
		default:
			entry, err := p.parseEntry(strings.ToLower(name))
			if err != nil {
				return nil, err
			}
			db.Entries = append(db.Entries, entry)
		}
	}
}

// skipToEntry advances to the next '@', ignoring intervening text.
// Returns false at end of input.
func (p *parser) skipToEntry() bool {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '@' {
			return true
		}
		if c == '\n' {
			p.line++
		}
		p.pos++
	}
	return false
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) next() (byte, bool) {
	c, ok := p.peek()
	if !ok {
		return 0, false
	}
	if c == '\n' {
		p.line++
	}
	p.pos++
	return c, true
}

func (p *parser) skipSpace() {
	for {
		c, ok := p.peek()
		if !ok || !unicode.IsSpace(rune(c)) {
			return
		}
		p.next()
	}
}

// expect consumes the next non-space byte and checks it against want.
func (p *parser) expect(want byte) error {
	p.skipSpace()
	c, ok := p.next()
	if !ok {
		return p.errf("unexpected end of input, want %q", want)
	}
	if c != want {
		return p.errf("unexpected %q, want %q", c, want)
	}
	return nil
}

// ident reads an identifier (entry type, field name, macro name).
func (p *parser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for {
		c, ok := p.peek()
		if !ok {
			break
		}
		if unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)) ||
			c == '_' || c == '-' || c == ':' || c == '.' || c == '+' {
			p.next()
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.errf("expected identifier")
	}
	return p.src[start:p.pos], nil
}

// skipGroup consumes a balanced {...} or (...) group.
func (p *parser) skipGroup() error {
	p.skipSpace()
	open, ok := p.next()
	if !ok || (open != '{' && open != '(') {
		return p.errf("expected block after @comment/@preamble")
	}
	close := byte('}')
	if open == '(' {
		close = ')'
	}
	depth := 1
	for depth > 0 {
		c, ok := p.next()
		if !ok {
			return p.errf("unterminated block")
		}
		switch c {
		case open:
			depth++
		case close:
			depth--
		}
	}
	return nil
}

// parseString handles @string{name = value}.
func (p *parser) parseString() error {
	if err := p.expect('{'); err != nil {
		return err
	}
	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect('='); err != nil {
		return err
	}
	value, err := p.value()
	if err != nil {
		return err
	}
	if err := p.expect('}'); err != nil {
		return err
	}
	p.strings[strings.ToLower(name)] = value
	return nil
}

// parseEntry handles @type{key, field = value, ...}.
func (p *parser) parseEntry(entryType string) (*Entry, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}

	key, err := p.citationKey()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}

	entry := &Entry{
		Key:    key,
		Type:   entryType,
		Fields: make(map[string]string),
	}

	for {
		p.skipSpace()
		if c, ok := p.peek(); ok && c == '}' {
			p.next()
			return entry, nil
		}

		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		entry.Fields[strings.ToLower(name)] = value

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated entry %q", key)
		}
		switch c {
		case ',':
			p.next() // trailing comma before '}' is legal
		case '}':
			// handled at loop top
		default:
			return nil, p.errf("unexpected %q after field %q in entry %q", c, name, key)
		}
	}
}

// citationKey reads the entry key, anything up to the ',' delimiter.
func (p *parser) citationKey() (string, error) {
	p.skipSpace()
	start := p.pos
	for {
		c, ok := p.peek()
		if !ok {
			return "", p.errf("unexpected end of input in citation key")
		}
		if c == ',' || c == '}' || unicode.IsSpace(rune(c)) {
			break
		}
		p.next()
	}
	key := p.src[start:p.pos]
	if key == "" {
		return "", p.errf("empty citation key")
	}
	return key, nil
}

// value reads a field value: one or more simple values joined by '#'.
func (p *parser) value() (string, error) {
	var b strings.Builder
	for {
		part, err := p.simpleValue()
		if err != nil {
			return "", err
		}
		b.WriteString(part)

		p.skipSpace()
		c, ok := p.peek()
		if !ok || c != '#' {
			return b.String(), nil
		}
		p.next()
	}
}

// simpleValue reads a braced value, a quoted value, or a bare word
// (number or @string macro reference).
func (p *parser) simpleValue() (string, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return "", p.errf("unexpected end of input in field value")
	}

	switch c {
	case '{':
		p.next()
		return p.bracedValue()
	case '"':
		p.next()
		return p.quotedValue()
	}

	word, err := p.ident()
	if err != nil {
		return "", p.errf("expected field value")
	}
	// Numbers stand for themselves; anything else must be a macro.
	if isNumber(word) {
		return word, nil
	}
	if exp, ok := p.strings[strings.ToLower(word)]; ok {
		return exp, nil
	}
	return "", p.errf("undefined string macro %q", word)
}

// bracedValue reads up to the matching '}', keeping nested braces.
func (p *parser) bracedValue() (string, error) {
	var b strings.Builder
	depth := 1
	for {
		c, ok := p.next()
		if !ok {
			return "", p.errf("unterminated braced value")
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		b.WriteByte(c)
	}
}

// quotedValue reads up to the closing '"'. Braces still nest, and a
// '"' inside a braced group does not terminate the value.
func (p *parser) quotedValue() (string, error) {
	var b strings.Builder
	depth := 0
	for {
		c, ok := p.next()
		if !ok {
			return "", p.errf("unterminated quoted value")
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				return b.String(), nil
			}
		}
		b.WriteByte(c)
	}
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
