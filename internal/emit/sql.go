// Package emit renders a reconciled section tree as a transactional SQL
// script and renders the run report.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/sqlrow"
)

// ParentMode selects how parent_id is written.
type ParentMode string

const (
	// ParentSubquery looks the parent row up by title within the document,
	// anchored on the parent's own ancestry.
	ParentSubquery ParentMode = "subquery"
	// ParentLiteral writes the parent's assigned identifier.
	ParentLiteral ParentMode = "literal"
	// ParentNull writes NULL for every section.
	ParentNull ParentMode = "null"
)

// ParseParentMode validates a parent mode name.
func ParseParentMode(s string) (ParentMode, error) {
	switch ParentMode(s) {
	case ParentSubquery, ParentLiteral, ParentNull:
		return ParentMode(s), nil
	case "":
		return ParentSubquery, nil
	}
	return "", fmt.Errorf("unknown parent mode %q (want subquery, literal or null)", s)
}

// SQLWriter writes corrected INSERT scripts.
type SQLWriter struct {
	Table           string
	ParentMode      ParentMode
	ReplaceExisting bool     // emit a DELETE for the document first
	Header          []string // comment lines at the top
}

// Write emits one INSERT per section in pre-order between BEGIN and COMMIT,
// so every parent row precedes its children.
func (sw *SQLWriter) Write(w io.Writer, tree *guide.Tree) error {
	table := sw.Table
	if table == "" {
		table = "guide_sections"
	}
	mode := sw.ParentMode
	if mode == "" {
		mode = ParentSubquery
	}

	bw := bufio.NewWriter(w)
	for _, h := range sw.Header {
		fmt.Fprintf(bw, "-- %s\n", h)
	}
	if len(sw.Header) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("BEGIN;\n\n")
	if sw.ReplaceExisting {
		fmt.Fprintf(bw, "DELETE FROM %s WHERE document_id = %d;\n\n", table, tree.DocumentID)
	}

	parents := make(map[*guide.Node]*guide.Node)
	err := tree.Walk(func(n, parent *guide.Node) error {
		parents[n] = parent
		row := n.Section.Row()
		switch {
		case parent == nil || mode == ParentNull:
			row.ParentID = sqlrow.Null
		case mode == ParentLiteral:
			if parent.Section.ID == 0 {
				return fmt.Errorf("section %q: parent %q has no identifier", n.Section.Title, parent.Section.Title)
			}
			row.ParentID = strconv.FormatInt(parent.Section.ID, 10)
		default:
			row.ParentID = parentLookup(table, parent, parents)
		}
		bw.WriteString(sqlrow.FormatInsert(table, row))
		bw.WriteString("\n")
		return nil
	})
	if err != nil {
		return err
	}

	bw.WriteString("\nCOMMIT;\n")
	return bw.Flush()
}

// parentLookup returns a sub-query selecting n's row id by title, nested
// through n's ancestors so repeated titles under different parents stay
// distinct.
func parentLookup(table string, n *guide.Node, parents map[*guide.Node]*guide.Node) string {
	anchor := "parent_id IS NULL"
	if gp := parents[n]; gp != nil {
		anchor = "parent_id = " + parentLookup(table, gp, parents)
	}
	return fmt.Sprintf("(SELECT id FROM %s WHERE title = %s AND document_id = %d AND %s LIMIT 1)",
		table, sqlrow.QuoteLiteral(n.Section.Title), n.Section.DocumentID, anchor)
}
