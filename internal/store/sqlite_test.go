package store

import (
	"context"
	"testing"
)

func TestSQLite_InsertAndExisting(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:", "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	rootID, err := s.Insert(ctx, Record{DocumentID: 1, Title: "Розділ I", OrderNum: 1})
	if err != nil {
		t.Fatalf("insert root: %v", err)
	}
	content := "Текст"
	childID, err := s.Insert(ctx, Record{DocumentID: 1, ParentID: &rootID, Title: "Глава 1", Content: &content, OrderNum: 2})
	if err != nil {
		t.Fatalf("insert child: %v", err)
	}
	if _, err := s.Insert(ctx, Record{DocumentID: 2, Title: "Інший", OrderNum: 1}); err != nil {
		t.Fatalf("insert other doc: %v", err)
	}

	existing, err := s.Existing(ctx, 1)
	if err != nil {
		t.Fatalf("existing: %v", err)
	}
	if len(existing) != 2 || existing[1] != rootID || existing[2] != childID {
		t.Errorf("unexpected existing map: %v", existing)
	}
	if n, _ := s.Count(ctx, 2); n != 1 {
		t.Errorf("expected 1 row for document 2, got %d", n)
	}
}

func TestSQLite_EmptyDSN(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
