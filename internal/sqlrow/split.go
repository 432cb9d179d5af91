package sqlrow

import (
	"errors"
	"strings"
)

// Statement is one top-level statement of a SQL dump.
type Statement struct {
	Text string
	Line int // 1-based line of the first non-comment byte
}

const (
	stateCode = iota
	stateQuote
	stateSentinel
	stateLineComment
	stateBlockComment
)

// SplitStatements splits a dump at top-level semicolons. Semicolons inside
// quoted strings, $$ blocks and comments do not end a statement. Leading
// comments are not part of the statement text. A trailing statement without
// a terminator is returned as is.
func SplitStatements(text string) []Statement {
	return splitStatements(text, false)
}

// splitStatements with atInserts set also ends an open quote or $$ block at a
// line that starts with INSERT INTO, so one unbalanced literal cannot
// swallow the statements after it.
func splitStatements(text string, atInserts bool) []Statement {
	var out []Statement
	state := stateCode
	line := 1
	start, stmtLine := -1, 0

	mark := func(i int) {
		if start < 0 {
			start, stmtLine = i, line
		}
	}
	emit := func(end int) {
		if start >= 0 {
			t := strings.TrimSpace(text[start:end])
			if strings.TrimSpace(strings.TrimSuffix(t, ";")) != "" {
				out = append(out, Statement{Text: t, Line: stmtLine})
			}
		}
		start, stmtLine = -1, 0
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		var next byte
		if i+1 < len(text) {
			next = text[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case c == '-' && next == '-':
				state = stateLineComment
				i++
			case c == '/' && next == '*':
				state = stateBlockComment
				i++
			case c == '\'':
				mark(i)
				state = stateQuote
			case c == '$' && next == '$':
				mark(i)
				state = stateSentinel
				i++
			case c == ';':
				mark(i)
				emit(i + 1)
			case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			default:
				mark(i)
			}
		case stateQuote:
			if atInserts && c == '\n' && startsInsert(text[i+1:]) {
				emit(i)
				state = stateCode
				break
			}
			if c == '\'' {
				if next == '\'' {
					i++
				} else {
					state = stateCode
				}
			}
		case stateSentinel:
			if atInserts && c == '\n' && startsInsert(text[i+1:]) {
				emit(i)
				state = stateCode
				break
			}
			if c == '$' && next == '$' {
				state = stateCode
				i++
			}
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateCode
				i++
			}
		}

		if c == '\n' {
			line++
		}
	}
	emit(len(text))
	return out
}

func startsInsert(s string) bool {
	s = strings.TrimLeft(s, " \t\r")
	sc := &scanner{src: s}
	return sc.keyword("INSERT") && sc.keyword("INTO")
}

// Result is the outcome of scanning a dump.
type Result struct {
	Rows      []Row
	Malformed []*MalformedRowError
	Skipped   int // statements that are not inserts into the section table
}

// Scan tokenizes every insert into table found in text. A malformed row is
// collected and scanning continues with the next statement. An empty table
// matches inserts into any table.
func Scan(text, table string) *Result {
	res := &Result{}
	for _, st := range SplitStatements(text) {
		if pieces := resync(st, table); pieces != nil {
			for _, p := range pieces {
				res.add(p, table)
			}
			continue
		}
		res.add(st, table)
	}
	return res
}

func (res *Result) add(st Statement, table string) {
	if !targetsTable(st.Text, table) {
		res.Skipped++
		return
	}
	row, err := Tokenize(st.Text)
	if err != nil {
		var mr *MalformedRowError
		if !errors.As(err, &mr) {
			mr = &MalformedRowError{Reason: err.Error(), Raw: st.Text}
		}
		mr.Line = st.Line
		res.Malformed = append(res.Malformed, mr)
		return
	}
	row.Line = st.Line
	res.Rows = append(res.Rows, row)
}

// resync re-splits a statement that an unbalanced quote or $$ block ran
// into the inserts after it. It returns nil when st tokenizes, or when
// re-splitting recovers no further insert into table.
func resync(st Statement, table string) []Statement {
	if !strings.Contains(st.Text, "\n") {
		return nil
	}
	if targetsTable(st.Text, table) {
		if _, err := Tokenize(st.Text); err == nil {
			return nil
		}
	}
	pieces := splitStatements(st.Text, true)
	recovered := false
	for i := range pieces {
		pieces[i].Line += st.Line - 1
		if i > 0 && targetsTable(pieces[i].Text, table) {
			recovered = true
		}
	}
	if !recovered {
		return nil
	}
	return pieces
}

// targetsTable reports whether stmt is an insert into table. An insert whose
// table name cannot be read counts as targeted so that it surfaces as
// malformed instead of disappearing.
func targetsTable(stmt, table string) bool {
	s := &scanner{src: stmt}
	if !s.keyword("INSERT") || !s.keyword("INTO") {
		return false
	}
	name, ok := s.ident()
	if !ok || table == "" {
		return true
	}
	want := table
	if i := strings.LastIndexByte(want, '.'); i >= 0 {
		want = want[i+1:]
	}
	return strings.EqualFold(name, strings.Trim(want, `"`))
}
