package sqlrow

import (
	"fmt"
	"strings"
)

type valueKind int

const (
	kindDigits valueKind = iota
	kindNull
	kindQuoted
	kindSentinel
)

func (k valueKind) String() string {
	switch k {
	case kindDigits:
		return "number"
	case kindNull:
		return "NULL"
	case kindQuoted:
		return "quoted string"
	case kindSentinel:
		return "$$ block"
	}
	return "value"
}

type value struct {
	kind valueKind
	text string
}

// scanner walks a statement byte by byte. Every delimiter it looks for is
// ASCII, so multi-byte UTF-8 text inside literals passes through untouched.
type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.src)
}

// skipSpace skips whitespace and SQL comments.
func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "--"):
			nl := strings.IndexByte(s.src[s.pos:], '\n')
			if nl < 0 {
				s.pos = len(s.src)
				return
			}
			s.pos += nl + 1
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				s.pos = len(s.src)
				return
			}
			s.pos += end + 4
		default:
			return
		}
	}
}

// keyword consumes kw (case-insensitive) if it appears as a whole word.
func (s *scanner) keyword(kw string) bool {
	s.skipSpace()
	end := s.pos + len(kw)
	if end > len(s.src) || !strings.EqualFold(s.src[s.pos:end], kw) {
		return false
	}
	if end < len(s.src) && isIdentByte(s.src[end]) {
		return false
	}
	s.pos = end
	return true
}

func (s *scanner) expect(c byte) bool {
	s.skipSpace()
	if s.pos < len(s.src) && s.src[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

// ident reads a possibly schema-qualified, possibly double-quoted name and
// returns its last component.
func (s *scanner) ident() (string, bool) {
	s.skipSpace()
	var name string
	for {
		part, ok := s.identPart()
		if !ok {
			return "", false
		}
		name = part
		if s.pos < len(s.src) && s.src[s.pos] == '.' {
			s.pos++
			continue
		}
		return name, true
	}
}

func (s *scanner) identPart() (string, bool) {
	if s.pos >= len(s.src) {
		return "", false
	}
	if s.src[s.pos] == '"' {
		end := strings.IndexByte(s.src[s.pos+1:], '"')
		if end < 0 {
			return "", false
		}
		part := s.src[s.pos+1 : s.pos+1+end]
		s.pos += end + 2
		return part, part != ""
	}
	start := s.pos
	for s.pos < len(s.src) && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	if start == s.pos || isDigit(s.src[start]) {
		s.pos = start
		return "", false
	}
	return s.src[start:s.pos], true
}

// value reads one literal: quoted string, $$ block, NULL or digit run.
func (s *scanner) value() (value, error) {
	s.skipSpace()
	if s.eof() {
		return value{}, fmt.Errorf("unexpected end of statement")
	}
	rest := s.src[s.pos:]
	switch {
	case rest[0] == '\'':
		return s.quoted()
	case strings.HasPrefix(rest, "$$"):
		end := strings.Index(rest[2:], "$$")
		if end < 0 {
			return value{}, fmt.Errorf("unterminated $$ block")
		}
		s.pos += end + 4
		return value{kind: kindSentinel, text: rest[2 : 2+end]}, nil
	case isDigit(rest[0]):
		n := 0
		for n < len(rest) && isDigit(rest[n]) {
			n++
		}
		s.pos += n
		return value{kind: kindDigits, text: rest[:n]}, nil
	case s.keyword(Null):
		return value{kind: kindNull, text: Null}, nil
	}
	return value{}, fmt.Errorf("unexpected %q", firstRune(rest))
}

// quoted reads a single-quoted literal. A doubled quote is an escaped quote
// and does not end the literal.
func (s *scanner) quoted() (value, error) {
	var b strings.Builder
	i := s.pos + 1
	for {
		q := strings.IndexByte(s.src[i:], '\'')
		if q < 0 {
			return value{}, fmt.Errorf("unterminated quoted string")
		}
		b.WriteString(s.src[i : i+q])
		i += q + 1
		if i < len(s.src) && s.src[i] == '\'' {
			b.WriteByte('\'')
			i++
			continue
		}
		s.pos = i
		return value{kind: kindQuoted, text: b.String()}, nil
	}
}

// Tokenize splits one complete INSERT statement into its five fields. The
// column list may name the five columns in any order; the fields are always
// returned in Columns order. Any failure is a *MalformedRowError.
func Tokenize(stmt string) (Row, error) {
	fail := func(format string, args ...any) (Row, error) {
		return Row{}, &MalformedRowError{Reason: fmt.Sprintf(format, args...), Raw: stmt}
	}

	s := &scanner{src: stmt}
	if !s.keyword("INSERT") || !s.keyword("INTO") {
		return fail("expected INSERT INTO")
	}
	table, ok := s.ident()
	if !ok {
		return fail("expected table name")
	}

	if !s.expect('(') {
		return fail("expected column list")
	}
	var cols []string
	for {
		col, ok := s.ident()
		if !ok {
			return fail("expected column name")
		}
		cols = append(cols, strings.ToLower(col))
		if s.expect(',') {
			continue
		}
		if s.expect(')') {
			break
		}
		return fail("unterminated column list")
	}

	if !s.keyword("VALUES") {
		return fail("expected VALUES")
	}
	if !s.expect('(') {
		return fail("expected ( after VALUES")
	}
	var vals []value
	for {
		v, err := s.value()
		if err != nil {
			return fail("field %d: %v", len(vals)+1, err)
		}
		vals = append(vals, v)
		if s.expect(',') {
			continue
		}
		if s.expect(')') {
			break
		}
		s.skipSpace()
		if s.eof() {
			return fail("unterminated VALUES list")
		}
		return fail("field %d: unexpected %q after %s", len(vals), firstRune(s.src[s.pos:]), v.kind)
	}
	s.expect(';')
	s.skipSpace()
	if !s.eof() {
		return fail("unexpected text after statement")
	}

	if len(vals) != len(cols) {
		return fail("%d values for %d columns", len(vals), len(cols))
	}
	byCol := make(map[string]value, len(cols))
	for i, c := range cols {
		if !isColumn(c) {
			return fail("unknown column %s", c)
		}
		if _, dup := byCol[c]; dup {
			return fail("duplicate column %s", c)
		}
		byCol[c] = vals[i]
	}
	if len(byCol) < len(Columns) {
		for _, c := range Columns {
			if _, ok := byCol[c]; !ok {
				return fail("recovered %d of %d fields: missing %s", len(byCol), len(Columns), c)
			}
		}
	}

	row := Row{Table: table}
	for _, c := range Columns {
		v := byCol[c]
		switch c {
		case "document_id":
			if v.kind != kindDigits {
				return fail("document_id: expected number, got %s", v.kind)
			}
			row.DocumentID = v.text
		case "parent_id":
			if v.kind != kindDigits && v.kind != kindNull {
				return fail("parent_id: expected number or NULL, got %s", v.kind)
			}
			row.ParentID = v.text
		case "title":
			if v.kind != kindQuoted {
				return fail("title: expected quoted string, got %s", v.kind)
			}
			row.Title = v.text
		case "content":
			switch v.kind {
			case kindNull:
				row.ContentNull = true
			case kindSentinel, kindQuoted:
				row.Content = v.text
			default:
				return fail("content: expected $$ block, quoted string or NULL, got %s", v.kind)
			}
		case "order_num":
			if v.kind != kindDigits {
				return fail("order_num: expected number, got %s", v.kind)
			}
			row.OrderNum = v.text
		}
	}
	return row, nil
}

func isColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
