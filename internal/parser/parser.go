// Package parser reads source documents into an ordered list of
// paragraphs with heading levels.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Paragraph is one paragraph of the source document.
type Paragraph struct {
	Text  string // Trimmed text; empty paragraphs are kept
	Level int    // Heading level from document styles, 0 for body text
}

// Document is the paragraph sequence of one file. Paragraph indices match
// the source's own paragraph numbering.
type Document struct {
	Title      string
	Paragraphs []Paragraph
}

// Len returns the number of paragraphs.
func (d *Document) Len() int {
	return len(d.Paragraphs)
}

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*Document, error)
}

// Options tune the parsers that support them.
type Options struct {
	Charset           string // Text encoding of .txt input (default utf-8)
	FallbackPdftotext bool   // Shell out to pdftotext when the Go reader fails
}

// ErrLegacyWord is returned for binary .doc files.
var ErrLegacyWord = errors.New("legacy .doc format is not supported; convert the file to .docx first")

// SupportedExtensions lists file extensions this tool can read.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the parser for a filename with default options.
func ForFile(filename string) (Parser, error) {
	return ForFileWith(filename, Options{})
}

// ForFileWith returns the parser for a filename.
func ForFileWith(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{Charset: opts.Charset}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".doc":
		return nil, ErrLegacyWord
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
