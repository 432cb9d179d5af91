// Package sqlrow tokenizes guide section INSERT statements into raw fields
// and serializes rows back into the same statement shape.
package sqlrow

import (
	"fmt"
	"strings"
)

// Null is the bare SQL null literal.
const Null = "NULL"

// Columns is the fixed field order of a tokenized row.
var Columns = []string{"document_id", "parent_id", "title", "content", "order_num"}

// Row holds the five positional fields of one INSERT statement as raw
// strings. Type coercion is left to the caller.
type Row struct {
	DocumentID string
	ParentID   string // digit run or "NULL"
	Title      string // quote escaping already undone
	Content    string // sentinels stripped; empty when ContentNull
	OrderNum   string

	ContentNull bool

	Table string // table name as written in the statement
	Line  int    // 1-based line of the statement in its source text
}

// ParentNull reports whether parent_id is the null literal.
func (r Row) ParentNull() bool {
	return strings.EqualFold(r.ParentID, Null)
}

// MalformedRowError reports a statement that did not yield five fields.
type MalformedRowError struct {
	Line   int
	Reason string
	Raw    string
}

func (e *MalformedRowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed row at line %d: %s", e.Line, e.Reason)
	}
	return "malformed row: " + e.Reason
}

// Excerpt returns at most n runes of the offending statement on one line.
func (e *MalformedRowError) Excerpt(n int) string {
	s := strings.Join(strings.Fields(e.Raw), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
