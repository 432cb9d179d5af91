// Package store writes guide sections to the remote table one row at a time
// and reports which order numbers a document already has.
package store

import (
	"context"
	"fmt"

	"github.com/dgallion1/guidesql/internal/guide"
)

// DefaultTable is the table guide sections live in.
const DefaultTable = "guide_sections"

// Record is one row as written to the table. ParentID is the database id
// of the parent row, not a dump-level reference.
type Record struct {
	DocumentID int64   `json:"document_id"`
	ParentID   *int64  `json:"parent_id"`
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	OrderNum   int     `json:"order_num"`
}

// RecordFor builds the record for s with the given parent row id.
func RecordFor(s *guide.Section, parentID *int64) Record {
	return Record{
		DocumentID: s.DocumentID,
		ParentID:   parentID,
		Title:      s.Title,
		Content:    s.Content,
		OrderNum:   s.OrderNum,
	}
}

// Store is the remote table.
type Store interface {
	// Insert writes one row and returns its id.
	Insert(ctx context.Context, rec Record) (int64, error)
	// Existing returns the order numbers already present for a document,
	// mapped to their row ids.
	Existing(ctx context.Context, documentID int64) (map[int]int64, error)
	Close()
}

// WriteError is a failed insert of one row.
type WriteError struct {
	OrderNum int
	Title    string
	Status   int    // HTTP status, 0 if not an HTTP store
	Code     string // SQLSTATE or PostgREST error code, if any
	Err      error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("write order_num %d (%q)", e.OrderNum, e.Title)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	return msg + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func writeError(rec Record, err error) *WriteError {
	return &WriteError{OrderNum: rec.OrderNum, Title: rec.Title, Err: err}
}
