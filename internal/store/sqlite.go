package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite keeps the table in a local database file, for dry runs.
type SQLite struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens dsn (a path, or ":memory:") and creates the table if
// it does not exist.
func OpenSQLite(ctx context.Context, dsn, table string) (*SQLite, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	s := &SQLite{db: db, table: table}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id INTEGER NOT NULL,
	parent_id INTEGER REFERENCES %s(id),
	title TEXT NOT NULL,
	content TEXT,
	order_num INTEGER NOT NULL
)`, s.ident(), s.ident())
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create table: %w", err)
	}
	return s, nil
}

func (s *SQLite) ident() string {
	return `"` + strings.ReplaceAll(s.table, `"`, `""`) + `"`
}

func (s *SQLite) Insert(ctx context.Context, rec Record) (int64, error) {
	q := fmt.Sprintf("INSERT INTO %s (document_id, parent_id, title, content, order_num) VALUES (?, ?, ?, ?, ?)", s.ident())
	res, err := s.db.ExecContext(ctx, q, rec.DocumentID, rec.ParentID, rec.Title, rec.Content, rec.OrderNum)
	if err != nil {
		return 0, writeError(rec, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, writeError(rec, fmt.Errorf("last insert id: %w", err))
	}
	return id, nil
}

func (s *SQLite) Existing(ctx context.Context, documentID int64) (map[int]int64, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id, order_num FROM %s WHERE document_id = ?", s.ident()), documentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: select existing: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var id int64
		var orderNum int
		if err := rows.Scan(&id, &orderNum); err != nil {
			return nil, fmt.Errorf("sqlite: scan existing: %w", err)
		}
		out[orderNum] = id
	}
	return out, rows.Err()
}

// Count returns the number of rows stored for a document.
func (s *SQLite) Count(ctx context.Context, documentID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE document_id = ?", s.ident()), documentID).Scan(&n)
	return n, err
}

func (s *SQLite) Close() {
	s.db.Close()
}
