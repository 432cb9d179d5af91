package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	d, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &Document{Title: baseTitle(filename)}
	for _, item := range d.Document.Body.Items {
		// Tables do not count as body paragraphs.
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{
			Text:  docxParagraphText(para),
			Level: docxHeadingLevel(para),
		})
	}
	return doc, nil
}

// headingStyle matches English and Ukrainian heading style ids, with or
// without the space Word puts in style names.
var headingStyle = regexp.MustCompile(`(?i)^(heading|заголовок)\s*([1-9])$`)

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	m := headingStyle.FindStringSubmatch(strings.TrimSpace(para.Properties.Style.Val))
	if m == nil {
		return 0
	}
	level, _ := strconv.Atoi(m[2])
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
