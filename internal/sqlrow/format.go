package sqlrow

import (
	"strings"
)

// QuoteLiteral returns s as a single-quoted SQL literal with embedded quotes
// doubled.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// ContentLiteral returns s as a $$ block. Text that would end the block
// early falls back to a quoted literal.
func ContentLiteral(s string) string {
	if strings.Contains(s, "$$") || strings.HasSuffix(s, "$") {
		return QuoteLiteral(s)
	}
	return "$$" + s + "$$"
}

// FormatInsert serializes r as a single INSERT statement in Columns order.
// ParentID is written verbatim, so callers may pass a sub-query expression.
func FormatInsert(table string, r Row) string {
	parent := r.ParentID
	if parent == "" {
		parent = Null
	}
	content := Null
	if !r.ContentNull {
		content = ContentLiteral(r.Content)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(Columns, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(r.DocumentID)
	b.WriteString(", ")
	b.WriteString(parent)
	b.WriteString(", ")
	b.WriteString(QuoteLiteral(r.Title))
	b.WriteString(", ")
	b.WriteString(content)
	b.WriteString(", ")
	b.WriteString(r.OrderNum)
	b.WriteString(");")
	return b.String()
}
