package emit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/guidesql/internal/hierarchy"
	"github.com/dgallion1/guidesql/internal/importer"
	"github.com/dgallion1/guidesql/internal/sqlrow"
	"github.com/dgallion1/guidesql/internal/store"
)

// Report collects everything a run could not handle cleanly.
type Report struct {
	Source     string
	Statements int // INSERT statements that targeted the table
	Rows       int // rows that tokenized and coerced
	Skipped    int // statements for other tables or documents

	Malformed       []*sqlrow.MalformedRowError
	Policy          hierarchy.Policy
	Unresolved      []*hierarchy.UnresolvedParentError
	Dropped         []hierarchy.Dropped
	DuplicateTitles []string
	Written         int // sections in the emitted tree

	Import *importer.Progress
}

// Clean reports whether nothing needs attention.
func (r *Report) Clean() bool {
	return len(r.Malformed) == 0 && len(r.Unresolved) == 0 && len(r.Dropped) == 0 &&
		(r.Import == nil || r.Import.Status == importer.StatusCompleted)
}

const excerptLen = 80

// WriteMarkdown renders the report as Markdown.
func (r *Report) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# Guide import report\n\n")
	if r.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`\n\n", r.Source)
	}
	fmt.Fprintf(&b, "| Statements | Rows | Malformed | Unresolved | Dropped | Written | Other tables |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %d |\n\n",
		r.Statements, r.Rows, len(r.Malformed), len(r.Unresolved), len(r.Dropped), r.Written, r.Skipped)

	if len(r.Malformed) > 0 {
		b.WriteString("## Malformed rows\n\n| Line | Reason | Statement |\n|---|---|---|\n")
		for _, m := range r.Malformed {
			fmt.Fprintf(&b, "| %d | %s | `%s` |\n", m.Line, cell(m.Reason), cell(m.Excerpt(excerptLen)))
		}
		b.WriteString("\n")
	}

	if len(r.Unresolved) > 0 {
		fmt.Fprintf(&b, "## Unresolved parents (policy: %s)\n\n| Line | order_num | Title | Reference | Reason |\n|---|---|---|---|---|\n", r.Policy)
		for _, u := range r.Unresolved {
			ref := "title " + u.ParentTitle
			if u.ParentID != nil {
				ref = fmt.Sprintf("parent_id %d", *u.ParentID)
			}
			fmt.Fprintf(&b, "| %d | %d | %s | %s | %s |\n",
				u.Section.Line, u.Section.OrderNum, cell(u.Section.Title), cell(ref), u.Reason)
		}
		b.WriteString("\n")
	}

	if len(r.Dropped) > 0 {
		b.WriteString("## Dropped sections\n\n| order_num | Title | Because of |\n|---|---|---|\n")
		for _, d := range r.Dropped {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", d.Section.OrderNum, cell(d.Section.Title), cell(d.Cause.Section.Title))
		}
		b.WriteString("\n")
	}

	if len(r.DuplicateTitles) > 0 {
		b.WriteString("## Duplicate titles\n\n")
		for _, t := range r.DuplicateTitles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	if p := r.Import; p != nil {
		writeImport(&b, p)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeImport(b *strings.Builder, p *importer.Progress) {
	fmt.Fprintf(b, "## Import %s\n\n", p.RunID)
	fmt.Fprintf(b, "Status: **%s**. Inserted %d, skipped %d existing, failed %d, not attempted %d of %d.\n\n",
		p.Status, p.Inserted, p.Skipped, p.Failed, p.NotAttempted, p.Total)
	if p.ContentHash != "" {
		fmt.Fprintf(b, "Source SHA-256: `%s`\n\n", p.ContentHash)
	}
	if p.Err != nil {
		fmt.Fprintf(b, "Run error: %s\n\n", cell(p.Err.Error()))
	}
	if l := p.Latency; l.Count > 0 {
		fmt.Fprintf(b, "Insert latency: p50 %.0f ms, p95 %.0f ms, p99 %.0f ms, max %d ms over %d inserts.\n\n",
			l.P50Ms, l.P95Ms, l.P99Ms, l.MaxMs, l.Count)
	}
	if len(p.Failures) == 0 {
		return
	}
	b.WriteString("### Write failures\n\n| order_num | Title | Status | Error |\n|---|---|---|---|\n")
	for _, f := range p.Failures {
		status := "-"
		var we *store.WriteError
		if errors.As(f.Err, &we) && we.Status != 0 {
			status = fmt.Sprint(we.Status)
		} else if errors.Is(f.Err, importer.ErrParentNotWritten) {
			status = "parent"
		}
		fmt.Fprintf(b, "| %d | %s | %s | %s |\n", f.OrderNum, cell(f.Title), status, cell(f.Err.Error()))
	}
	b.WriteString("\n")
}

// WriteHTML renders the Markdown report to HTML.
func (r *Report) WriteHTML(w io.Writer) error {
	var src bytes.Buffer
	if err := r.WriteMarkdown(&src); err != nil {
		return err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := md.Convert(src.Bytes(), w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.NewReplacer("|", `\|`, "`", "'").Replace(s)
}
