package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/parser"
)

// Pattern marks paragraphs matching Re as headings of Level.
type Pattern struct {
	Level int
	Re    *regexp.Regexp
}

// Rules decide which paragraphs are headings.
type Rules struct {
	UseStyles   bool      // trust heading levels from document styles
	Patterns    []Pattern // checked in order when no style level applies
	MaxTitleLen int       // longer paragraphs are never headings (0 = no limit)
}

// Heading patterns of Ukrainian regulation documents. Roman numerals are
// often typed with Cyrillic І and Х.
var (
	RomanSection     = regexp.MustCompile(`^[IVXLІХ]+\.\s+\S`)
	NumberedChapter  = regexp.MustCompile(`^\d+\.\s+[А-ЯІЇЄҐA-Z]`)
	DottedSubchapter = regexp.MustCompile(`^\d+\.\d+\.\s+\S`)
)

// DefaultRules recognizes "ІІ. Title" sections, "1. Title" chapters and
// "1.2. Title" sub-chapters.
func DefaultRules() Rules {
	return Rules{
		UseStyles: true,
		Patterns: []Pattern{
			{Level: 1, Re: RomanSection},
			{Level: 3, Re: DottedSubchapter},
			{Level: 2, Re: NumberedChapter},
		},
		MaxTitleLen: 200,
	}
}

func (r Rules) level(p parser.Paragraph) int {
	if r.MaxTitleLen > 0 && utf8.RuneCountInString(p.Text) > r.MaxTitleLen {
		return 0
	}
	if r.UseStyles && p.Level > 0 {
		return p.Level
	}
	for _, pat := range r.Patterns {
		if pat.Re.MatchString(p.Text) {
			return pat.Level
		}
	}
	return 0
}

// Segment scans the paragraphs once. A heading opens a section under the
// nearest open heading of a lower level; body paragraphs become the cleaned
// content of the current section. Headings without body text are folder
// sections with nil content. Text before the first heading is dropped.
func Segment(doc *parser.Document, rules Rules) *guide.Tree {
	tree := &guide.Tree{Title: doc.Title}

	type stackEntry struct {
		node  *guide.Node
		level int
	}
	root := &guide.Node{}
	stack := []stackEntry{{node: root, level: 0}}
	var body []string

	flush := func() {
		top := stack[len(stack)-1].node
		if top != root && len(body) > 0 {
			c := CleanText(strings.Join(body, "\n\n"))
			if c != "" {
				top.Section.Content = &c
			}
		}
		body = body[:0]
	}

	for _, p := range doc.Paragraphs {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		level := rules.level(p)
		if level == 0 {
			body = append(body, text)
			continue
		}

		title := CleanText(text)
		if title == "" {
			// annotation-only heading
			continue
		}
		flush()
		n := &guide.Node{Section: &guide.Section{Title: title}}
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, n)
		stack = append(stack, stackEntry{node: n, level: level})
	}
	flush()

	tree.Roots = root.Children
	return tree
}

// Flatten numbers the sections of tree for documentID in pre-order, starting
// at 1. The number is the order_num and the identifier, and each ParentID
// points at the parent's number.
func Flatten(tree *guide.Tree, documentID int64) []*guide.Section {
	tree.DocumentID = documentID
	var out []*guide.Section
	tree.Walk(func(n, parent *guide.Node) error {
		s := n.Section
		s.DocumentID = documentID
		s.OrderNum = len(out) + 1
		s.ID = int64(s.OrderNum)
		s.ParentID = nil
		if parent != nil {
			pid := parent.Section.ID
			s.ParentID = &pid
		}
		out = append(out, s)
		return nil
	})
	return out
}
