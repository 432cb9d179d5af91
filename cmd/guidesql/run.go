package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidesql/internal/config"
	"github.com/dgallion1/guidesql/internal/emit"
	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/hierarchy"
	"github.com/dgallion1/guidesql/internal/importer"
	"github.com/dgallion1/guidesql/internal/parser"
	"github.com/dgallion1/guidesql/internal/sqlrow"
	"github.com/dgallion1/guidesql/internal/store"
)

// dump is a decoded SQL dump file.
type dump struct {
	path string
	data []byte
	text string
}

func (a *app) readDump(path string) (*dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	text, err := parser.DecodeString(string(data), a.cfg.Charset)
	if err != nil {
		return nil, err
	}
	return &dump{path: path, data: data, text: text}, nil
}

// reconcileFlags registers the flags shared by fix and import.
func reconcileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("charset", "", "Dump encoding: utf-8, windows-1251 or koi8-u")
	f.String("id-scheme", "", "Identifier each row gets for parent_id matching: none, position or order-num")
	f.Int64("id-base", 0, "First identifier of the position scheme")
	f.String("policy", "", "Unresolved parents: skip, flatten or abort")
	f.String("curation", "", "Pipe-delimited title|parent_title|level file")
}

// reconcile tokenizes and coerces the dump, resolves parents and applies the
// unresolved-parent policy. The report is filled in even when the policy
// aborts.
func (a *app) reconcile(d *dump, rep *emit.Report) (*hierarchy.Plan, error) {
	cfg := a.cfg
	log := a.log.With("source", d.path)

	res := sqlrow.Scan(d.text, cfg.Table)
	rep.Source = d.path
	rep.Statements = len(res.Rows) + len(res.Malformed)
	rep.Skipped = res.Skipped
	rep.Malformed = res.Malformed

	var sections []*guide.Section
	for _, row := range res.Rows {
		s, err := guide.FromRow(row)
		if err != nil {
			rep.Malformed = append(rep.Malformed, &sqlrow.MalformedRowError{
				Line: row.Line, Reason: err.Error(), Raw: sqlrow.FormatInsert(cfg.Table, row),
			})
			continue
		}
		if s.DocumentID != cfg.DocumentID {
			log.Debug("row belongs to another document", "line", row.Line, "document_id", s.DocumentID)
			rep.Skipped++
			continue
		}
		sections = append(sections, &s)
	}
	for _, m := range rep.Malformed {
		log.Warn("malformed row", "line", m.Line, "reason", m.Reason)
	}
	rep.Rows = len(sections)

	scheme, _ := hierarchy.ParseScheme(cfg.IDScheme)
	hierarchy.AssignIDs(sections, scheme, cfg.IDBase)

	var opts []hierarchy.Option
	if cfg.CurationFile != "" {
		f, err := os.Open(cfg.CurationFile)
		if err != nil {
			return nil, fmt.Errorf("open curation: %w", err)
		}
		cur, err := hierarchy.LoadCuration(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		log.Info("loaded curation", "entries", cur.Len())
		opts = append(opts, hierarchy.WithCuration(cur))
	}

	result := hierarchy.Reconcile(sections, opts...)
	policy, _ := hierarchy.ParsePolicy(cfg.Policy)
	rep.Policy = policy
	rep.Unresolved = result.Unresolved
	rep.DuplicateTitles = result.DuplicateTitles
	for _, u := range result.Unresolved {
		log.Warn("unresolved parent", "line", u.Section.Line, "title", u.Section.Title, "reason", u.Reason)
	}

	plan, err := hierarchy.Apply(result, policy)
	if err != nil {
		return nil, err
	}
	plan.Tree.DocumentID = cfg.DocumentID
	rep.Dropped = plan.Dropped
	rep.Written = plan.Tree.Len()
	log.Info("reconciled",
		"rows", rep.Rows,
		"malformed", len(rep.Malformed),
		"unresolved", len(rep.Unresolved),
		"dropped", len(rep.Dropped),
		"folders", countFolders(plan.Tree),
	)
	return plan, nil
}

// countFolders counts sections without body text.
func countFolders(tree *guide.Tree) int {
	n := 0
	for _, s := range tree.Sections() {
		if !s.HasContent() {
			n++
		}
	}
	return n
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.cfg
	switch cfg.Store {
	case config.StorePostgREST:
		return store.NewPostgREST(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Table), nil
	case config.StorePostgres:
		return store.NewPostgres(ctx, cfg.PostgresDSN, cfg.Table)
	case config.StoreSQLite:
		return store.OpenSQLite(ctx, cfg.SQLitePath, cfg.Table)
	}
	return nil, errors.New("no store configured (set --store or GUIDESQL_STORE)")
}

// importTree writes tree to the configured store and records the run in rep.
func (a *app) importTree(ctx context.Context, tree *guide.Tree, src *dump, rep *emit.Report) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	im := importer.New(st, a.log.With("store", a.cfg.Store))
	im.SetSource(src.path, src.data)
	rep.Import = im.Run(ctx, tree)
	return nil
}

func (a *app) writeSQL(path string, tree *guide.Tree, src *dump) error {
	mode, _ := emit.ParseParentMode(a.cfg.ParentMode)
	sw := &emit.SQLWriter{
		Table:           a.cfg.Table,
		ParentMode:      mode,
		ReplaceExisting: a.cfg.ReplaceExisting,
		Header: []string{
			fmt.Sprintf("Guide sections of document %d", tree.DocumentID),
			fmt.Sprintf("Source: %s (sha256 %s)", filepath.Base(src.path), importer.ContentHashHex(src.data)),
			fmt.Sprintf("Parent references: %s", mode),
		},
	}
	w, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := sw.Write(w, tree); err != nil {
		w.Close()
		return fmt.Errorf("write sql: %w", err)
	}
	return w.Close()
}

// writeReport renders rep to path; a .html path gets HTML.
func writeReport(path string, rep *emit.Report) error {
	w, err := createOutput(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".html") {
		err = rep.WriteHTML(w)
	} else {
		err = rep.WriteMarkdown(w)
	}
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (a *app) done(rep *emit.Report) error {
	if a.strict && !rep.Clean() {
		return withCode(exitProblems, errors.New("some rows were malformed, unresolved or not written; see the report"))
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// createOutput opens path for writing; "" and "-" mean stdout.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
