// Package importer writes a reconciled section tree to a store, one row at
// a time, skipping order numbers the document already has.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/store"
)

// ErrParentNotWritten marks a section left out because its parent row was
// neither inserted nor already present.
var ErrParentNotWritten = errors.New("parent not written")

// Importer runs imports against one store.
type Importer struct {
	store store.Store
	log   *slog.Logger

	source string
	hash   string
}

func New(st store.Store, log *slog.Logger) *Importer {
	return &Importer{store: st, log: log}
}

// SetSource records the input the tree was built from, for the report.
func (im *Importer) SetSource(name string, data []byte) {
	im.source = name
	im.hash = ContentHashHex(data)
}

// Run writes tree in pre-order so every parent row exists before its
// children. A failed row never stops the batch; context cancellation stops
// it between rows. Insert latency covers this run only.
func (im *Importer) Run(ctx context.Context, tree *guide.Tree) *Progress {
	st := &store.Timed{Store: im.store, Stats: store.NewLatencyStats(24 * time.Hour)}
	p := &Progress{
		RunID:       uuid.NewString(),
		Source:      im.source,
		ContentHash: im.hash,
		DocumentID:  tree.DocumentID,
		StartedAt:   time.Now(),
		Total:       tree.Len(),
	}
	log := im.log.With("run_id", p.RunID, "document_id", tree.DocumentID)
	defer func() {
		p.Latency = st.Stats.Snapshot()
		p.finish()
		log.Info("import finished",
			"status", p.Status,
			"inserted", p.Inserted,
			"skipped", p.Skipped,
			"failed", p.Failed,
			"not_attempted", p.NotAttempted,
		)
	}()

	existing := make(map[int64]map[int]int64)
	lookup := func(docID int64) (map[int]int64, error) {
		if m, ok := existing[docID]; ok {
			return m, nil
		}
		m, err := st.Existing(ctx, docID)
		if err != nil {
			return nil, fmt.Errorf("existing order_nums for document %d: %w", docID, err)
		}
		existing[docID] = m
		return m, nil
	}
	if _, err := lookup(tree.DocumentID); err != nil {
		log.Error("cannot read existing rows", "error", err)
		p.Err = err
		p.NotAttempted = p.Total
		return p
	}

	rowIDs := make(map[*guide.Node]int64)
	visited := 0
	errStop := errors.New("stop")

	err := tree.Walk(func(n, parent *guide.Node) error {
		if ctx.Err() != nil {
			return errStop
		}
		visited++
		s := n.Section

		var parentID *int64
		if parent != nil {
			id, ok := rowIDs[parent]
			if !ok {
				p.addFailure(s.OrderNum, s.Title, fmt.Errorf("parent %q: %w", parent.Section.Title, ErrParentNotWritten))
				log.Warn("parent not written, skipping section", "order_num", s.OrderNum, "title", s.Title)
				return nil
			}
			parentID = &id
		}

		have, err := lookup(s.DocumentID)
		if err != nil {
			p.addFailure(s.OrderNum, s.Title, err)
			log.Error("cannot read existing rows", "order_num", s.OrderNum, "error", err)
			return nil
		}
		if id, ok := have[s.OrderNum]; ok {
			rowIDs[n] = id
			p.Skipped++
			log.Debug("order_num exists, skipping", "order_num", s.OrderNum, "id", id)
			return nil
		}

		id, err := st.Insert(ctx, store.RecordFor(s, parentID))
		if err != nil {
			p.addFailure(s.OrderNum, s.Title, err)
			log.Error("insert failed", "order_num", s.OrderNum, "title", s.Title, "error", err)
			return nil
		}
		rowIDs[n] = id
		have[s.OrderNum] = id
		p.Inserted++
		return nil
	})
	if errors.Is(err, errStop) {
		p.NotAttempted = p.Total - visited
		log.Warn("import canceled", "not_attempted", p.NotAttempted, "error", ctx.Err())
	}
	return p
}
