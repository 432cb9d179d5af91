package emit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/hierarchy"
	"github.com/dgallion1/guidesql/internal/importer"
	"github.com/dgallion1/guidesql/internal/sqlrow"
	"github.com/dgallion1/guidesql/internal/store"
)

func sampleReport() *Report {
	pid := int64(92)
	orphan := &guide.Section{DocumentID: 1, ParentID: &pid, Title: "Глава | 7", OrderNum: 14, Line: 31}
	cause := &hierarchy.UnresolvedParentError{Section: orphan, ParentID: &pid, Reason: hierarchy.ReasonMissing}
	return &Report{
		Source:     "pvp.sql",
		Statements: 3,
		Rows:       2,
		Malformed: []*sqlrow.MalformedRowError{
			{Line: 7, Reason: "field 3: unterminated quoted string", Raw: "INSERT INTO guide_sections VALUES (1, NULL, 'Крок'с тест', NULL, 2);"},
		},
		Policy:     hierarchy.PolicySkip,
		Unresolved: []*hierarchy.UnresolvedParentError{cause},
		Dropped:    []hierarchy.Dropped{{Section: orphan, Cause: cause}},
		Written:    1,
		Import: &importer.Progress{
			RunID:    "run-1",
			Status:   importer.StatusPartial,
			Total:    1,
			Inserted: 0,
			Failed:   1,
			Failures: []importer.Failure{
				{OrderNum: 1, Title: "Розділ I", Err: &store.WriteError{OrderNum: 1, Title: "Розділ I", Status: 409, Err: errors.New("duplicate key")}},
				{OrderNum: 2, Title: "Глава", Err: fmt.Errorf("parent %q: %w", "Розділ I", importer.ErrParentNotWritten)},
			},
		},
	}
}

func TestReport_Markdown(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().WriteMarkdown(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"| 3 | 2 | 1 | 1 | 1 | 1 | 0 |",
		"## Malformed rows",
		"| 7 | field 3: unterminated quoted string |",
		"## Unresolved parents (policy: skip)",
		`| 31 | 14 | Глава \| 7 | parent_id 92 | missing |`,
		"## Dropped sections",
		"## Import run-1",
		"| 1 | Розділ I | 409 |",
		"| 2 | Глава | parent |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, out)
		}
	}
}

func TestReport_HTML(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleReport().WriteHTML(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<h1>Guide import report</h1>") || !strings.Contains(out, "<table>") {
		t.Errorf("expected rendered heading and table, got:\n%s", out)
	}
}

func TestReport_Clean(t *testing.T) {
	r := &Report{Statements: 1, Rows: 1, Written: 1}
	if !r.Clean() {
		t.Error("expected clean report")
	}
	if sampleReport().Clean() {
		t.Error("expected report with problems to be unclean")
	}
}
