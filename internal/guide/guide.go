// Package guide holds the section model shared by the tokenizer callers,
// the reconciler, the document segmenter and the importers.
package guide

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/guidesql/internal/sqlrow"
)

// Section is one node of a guide document.
type Section struct {
	ID         int64  // Identifier parent references resolve against (0 if none)
	DocumentID int64  // Owning document
	ParentID   *int64 // nil for a top-level section
	Title      string // Non-empty; unique in practice within a document
	Content    *string
	OrderNum   int // Sibling display order
	Line       int // Source line of the statement (0 if N/A)
}

// HasContent reports whether the section carries body text.
func (s *Section) HasContent() bool {
	return s.Content != nil
}

// FromRow coerces the raw fields of a tokenized row. Any field that does not
// coerce invalidates the whole row.
func FromRow(r sqlrow.Row) (Section, error) {
	docID, err := strconv.ParseInt(r.DocumentID, 10, 64)
	if err != nil {
		return Section{}, fmt.Errorf("document_id %q: %w", r.DocumentID, err)
	}
	orderNum, err := strconv.Atoi(r.OrderNum)
	if err != nil {
		return Section{}, fmt.Errorf("order_num %q: %w", r.OrderNum, err)
	}
	if strings.TrimSpace(r.Title) == "" {
		return Section{}, fmt.Errorf("empty title")
	}

	s := Section{
		DocumentID: docID,
		Title:      r.Title,
		OrderNum:   orderNum,
		Line:       r.Line,
	}
	if !r.ParentNull() {
		pid, err := strconv.ParseInt(r.ParentID, 10, 64)
		if err != nil {
			return Section{}, fmt.Errorf("parent_id %q: %w", r.ParentID, err)
		}
		s.ParentID = &pid
	}
	if !r.ContentNull {
		c := r.Content
		s.Content = &c
	}
	return s, nil
}

// Row converts the section back to raw fields. ParentID carries the
// section's own parent reference; callers rewriting references replace it.
func (s *Section) Row() sqlrow.Row {
	r := sqlrow.Row{
		DocumentID: strconv.FormatInt(s.DocumentID, 10),
		ParentID:   sqlrow.Null,
		Title:      s.Title,
		OrderNum:   strconv.Itoa(s.OrderNum),
		Line:       s.Line,
	}
	if s.ParentID != nil {
		r.ParentID = strconv.FormatInt(*s.ParentID, 10)
	}
	if s.Content != nil {
		r.Content = *s.Content
	} else {
		r.ContentNull = true
	}
	return r
}

// Tree is the per-document forest of sections.
type Tree struct {
	Title      string  // Document title (from metadata or filename)
	DocumentID int64   // Owning document
	Roots      []*Node // Top-level sections
}

// Node is a section with its children in display order.
type Node struct {
	Section  *Section
	Children []*Node
}

// Walk visits every node in pre-order, so a parent is always visited before
// its children. parent is nil for roots. A non-nil error stops the walk.
func (t *Tree) Walk(fn func(n, parent *Node) error) error {
	var walk func(nodes []*Node, parent *Node) error
	walk = func(nodes []*Node, parent *Node) error {
		for _, n := range nodes {
			if err := fn(n, parent); err != nil {
				return err
			}
			if err := walk(n.Children, n); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.Roots, nil)
}

// Len returns the number of sections in the tree.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(*Node, *Node) error {
		n++
		return nil
	})
	return n
}

// Sections returns the tree's sections in pre-order.
func (t *Tree) Sections() []*Section {
	var out []*Section
	t.Walk(func(n, _ *Node) error {
		out = append(out, n.Section)
		return nil
	})
	return out
}
