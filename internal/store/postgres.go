package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres writes rows directly through a pgx pool.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres connects to dsn. table may be schema-qualified.
func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	if table == "" {
		table = DefaultTable
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Postgres{pool: pool, table: table}, nil
}

func (p *Postgres) fqTable() string {
	return pgx.Identifier(strings.Split(p.table, ".")).Sanitize()
}

func (p *Postgres) Insert(ctx context.Context, rec Record) (int64, error) {
	q := fmt.Sprintf(
		"INSERT INTO %s (document_id, parent_id, title, content, order_num) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		p.fqTable(),
	)
	var id int64
	err := p.pool.QueryRow(ctx, q, rec.DocumentID, rec.ParentID, rec.Title, rec.Content, rec.OrderNum).Scan(&id)
	if err != nil {
		we := writeError(rec, err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			we.Code = pgErr.SQLState()
		}
		return 0, we
	}
	return id, nil
}

func (p *Postgres) Existing(ctx context.Context, documentID int64) (map[int]int64, error) {
	q := fmt.Sprintf("SELECT id, order_num FROM %s WHERE document_id = $1", p.fqTable())
	rows, err := p.pool.Query(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("select existing: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var id int64
		var orderNum int
		if err := rows.Scan(&id, &orderNum); err != nil {
			return nil, fmt.Errorf("scan existing: %w", err)
		}
		out[orderNum] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select existing: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
