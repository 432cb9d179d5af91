package sqlrow

import (
	"strings"
	"testing"
)

const sampleDump = `-- PVP sections export
BEGIN;

INSERT INTO guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, NULL, 'I. Загальні положення', NULL, 1);
INSERT INTO guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, 92, '1. Призначення', $$Текст; з крапкою з комою
і 'лапками'$$, 2);
INSERT INTO guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, NULL, 'Крок'с тест', NULL, 3);
/* block; comment */
INSERT INTO other_table (a) VALUES (1);
INSERT INTO guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, 162, 'Останній', NULL, 4);
COMMIT;
`

func TestSplitStatements_RespectsLiteralsAndComments(t *testing.T) {
	stmts := SplitStatements(sampleDump)
	// The unbalanced quote in the third row runs to the end of the dump.
	if len(stmts) != 4 {
		for i, s := range stmts {
			t.Logf("stmt %d (line %d): %q", i, s.Line, s.Text)
		}
		t.Fatalf("expected 4 statements, got %d", len(stmts))
	}
	if stmts[0].Text != "BEGIN;" || stmts[0].Line != 2 {
		t.Errorf("expected BEGIN; at line 2, got %q at line %d", stmts[0].Text, stmts[0].Line)
	}
	if !strings.Contains(stmts[2].Text, "і 'лапками'$$, 2);") {
		t.Errorf("expected multi-line statement to stay whole, got %q", stmts[2].Text)
	}
	if stmts[2].Line != 5 {
		t.Errorf("expected statement at line 5, got %d", stmts[2].Line)
	}
	if stmts[3].Line != 7 || !strings.HasSuffix(stmts[3].Text, "COMMIT;") {
		t.Errorf("expected unbalanced statement from line 7 to the end, got %q at line %d", stmts[3].Text, stmts[3].Line)
	}
}

func TestSplitStatements_DropsLeadingComments(t *testing.T) {
	stmts := SplitStatements("/* block; comment */\nINSERT INTO other_table (a) VALUES (1);\n-- tail\nCOMMIT;")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if stmts[0].Text != "INSERT INTO other_table (a) VALUES (1);" || stmts[0].Line != 2 {
		t.Errorf("expected leading block comment to be dropped, got %q at line %d", stmts[0].Text, stmts[0].Line)
	}
	if stmts[1].Text != "COMMIT;" || stmts[1].Line != 4 {
		t.Errorf("expected COMMIT; at line 4, got %q at line %d", stmts[1].Text, stmts[1].Line)
	}
}

func TestSplitStatements_InsertLineInsideContent(t *testing.T) {
	dump := "INSERT INTO guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, NULL, 'A', $$Приклад:\nINSERT INTO x;\nкінець$$, 1);\n"
	if stmts := SplitStatements(dump); len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}

	res := Scan(dump, "guide_sections")
	if len(res.Rows) != 1 || len(res.Malformed) != 0 || res.Skipped != 0 {
		t.Fatalf("expected 1 row, got rows=%d malformed=%d skipped=%d", len(res.Rows), len(res.Malformed), res.Skipped)
	}
	if want := "Приклад:\nINSERT INTO x;\nкінець"; res.Rows[0].Content != want {
		t.Errorf("expected content %q, got %q", want, res.Rows[0].Content)
	}

	again := Scan(FormatInsert("guide_sections", res.Rows[0]), "guide_sections")
	if len(again.Rows) != 1 || again.Rows[0].Content != res.Rows[0].Content {
		t.Errorf("expected formatted row to scan back unchanged, got %+v", again)
	}
}

func TestScan_ResyncsAfterUnbalancedQuoteInOtherTable(t *testing.T) {
	dump := "INSERT INTO other_table (a) VALUES ('it);\nINSERT INTO guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, NULL, 'A', NULL, 1);\n"
	res := Scan(dump, "guide_sections")
	if len(res.Rows) != 1 || res.Rows[0].Title != "A" || res.Rows[0].Line != 2 {
		t.Fatalf("expected row A at line 2 to be recovered, got %+v", res.Rows)
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped statement, got %d", res.Skipped)
	}
}

func TestSplitStatements_TrailingStatementWithoutTerminator(t *testing.T) {
	stmts := SplitStatements("SELECT 1;\nSELECT 2")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if stmts[1].Text != "SELECT 2" || stmts[1].Line != 2 {
		t.Errorf("expected trailing statement at line 2, got %q at line %d", stmts[1].Text, stmts[1].Line)
	}
}

func TestSplitStatements_EmptyInput(t *testing.T) {
	if stmts := SplitStatements("  \n-- only a comment\n;;"); len(stmts) != 0 {
		t.Errorf("expected no statements, got %d", len(stmts))
	}
}

func TestScan_CollectsMalformedAndContinues(t *testing.T) {
	res := Scan(sampleDump, "guide_sections")

	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	if len(res.Malformed) != 1 {
		t.Fatalf("expected 1 malformed row, got %d", len(res.Malformed))
	}
	if res.Skipped != 3 {
		t.Errorf("expected 3 skipped statements, got %d", res.Skipped)
	}

	if res.Malformed[0].Line != 7 {
		t.Errorf("expected malformed row at line 7, got %d", res.Malformed[0].Line)
	}
	if !strings.Contains(res.Malformed[0].Raw, "Крок'с тест") {
		t.Errorf("expected raw text of the malformed row, got %q", res.Malformed[0].Raw)
	}

	last := res.Rows[2]
	if last.Title != "Останній" || last.ParentID != "162" || last.Line != 10 {
		t.Errorf("expected row after malformed one to be parsed, got %+v", last)
	}
	if res.Rows[1].Content != "Текст; з крапкою з комою\nі 'лапками'" {
		t.Errorf("unexpected content %q", res.Rows[1].Content)
	}
}

func TestScan_AnyTable(t *testing.T) {
	res := Scan(sampleDump, "")
	// The other_table insert is targeted but lacks the section columns.
	if len(res.Malformed) != 2 {
		t.Errorf("expected 2 malformed rows, got %d", len(res.Malformed))
	}
}

func TestScan_SchemaQualifiedTable(t *testing.T) {
	res := Scan(`INSERT INTO public.guide_sections (document_id, parent_id, title, content, order_num) VALUES (1, NULL, 'A', NULL, 1);`, "public.guide_sections")
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d (malformed %d, skipped %d)", len(res.Rows), len(res.Malformed), res.Skipped)
	}
}
