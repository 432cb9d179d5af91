package parser

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestTextParser_OneParagraphPerLine(t *testing.T) {
	input := "ПВП ДАУ\n\n  Розділ I {ред. 2021}  \nТекст розділу.\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "dir/pvp.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "pvp" {
		t.Errorf("expected title %q, got %q", "pvp", doc.Title)
	}
	want := []string{"ПВП ДАУ", "", "Розділ I {ред. 2021}", "Текст розділу."}
	if doc.Len() != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), doc.Len())
	}
	for i, w := range want {
		if doc.Paragraphs[i].Text != w {
			t.Errorf("paragraph %d: expected %q, got %q", i, w, doc.Paragraphs[i].Text)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Len() != 0 {
		t.Errorf("expected 0 paragraphs, got %d", doc.Len())
	}
}

func TestTextParser_Windows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("Розділ ІІ. Польоти\nТекст")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	doc, err := (&TextParser{Charset: "cp1251"}).Parse(strings.NewReader(encoded), "legacy.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Paragraphs[0].Text != "Розділ ІІ. Польоти" {
		t.Errorf("expected decoded heading, got %q", doc.Paragraphs[0].Text)
	}
}

func TestDecoder(t *testing.T) {
	for _, name := range []string{"", "UTF-8", "windows-1251", "CP1251", "koi8-u", "KOI8_U"} {
		if _, err := Decoder(name); err != nil {
			t.Errorf("%q: unexpected error: %v", name, err)
		}
	}
	if _, err := Decoder("latin-9"); err == nil {
		t.Error("expected error for unsupported charset")
	}

	koi, _ := charmap.KOI8U.NewEncoder().String("Крок")
	got, err := DecodeString(koi, "koi8-u")
	if err != nil || got != "Крок" {
		t.Errorf("expected %q, got %q (%v)", "Крок", got, err)
	}
	got, err = DecodeString("\ufeffТекст", "")
	if err != nil || got != "Текст" {
		t.Errorf("expected BOM stripped, got %q (%v)", got, err)
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.docx", "a.TXT", "a.md", "a.htm", "a.pdf"} {
		if _, err := ForFile(name); err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
	}
	if _, err := ForFile("old.doc"); !errors.Is(err, ErrLegacyWord) {
		t.Errorf("expected ErrLegacyWord, got %v", err)
	}
	if _, err := ForFile("sheet.xlsx"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if !IsSupportedExtension("x.docx") || IsSupportedExtension("x.doc") {
		t.Error("unexpected supported extension result")
	}
}
