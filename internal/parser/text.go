package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextParser handles plain text exports, one paragraph per line.
type TextParser struct {
	Charset string
}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	rd, err := NewReader(r, p.Charset)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &Document{Title: baseTitle(filename)}
	for scanner.Scan() {
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{
			Text: strings.TrimSpace(scanner.Text()),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return doc, nil
}
