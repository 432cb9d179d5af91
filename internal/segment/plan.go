package segment

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/guidesql/internal/guide"
	"github.com/dgallion1/guidesql/internal/parser"
)

// Plan lists the sections of a document explicitly, with the paragraph
// range each one takes its content from.
type Plan struct {
	DocumentID int64         `yaml:"document_id"`
	Title      string        `yaml:"title"`
	Sections   []PlanSection `yaml:"sections"`
}

// PlanSection is one section of a plan. A section without a range is a
// folder with no content.
type PlanSection struct {
	Title    string        `yaml:"title"`
	Start    *int          `yaml:"start,omitempty"`
	End      *int          `yaml:"end,omitempty"`
	Children []PlanSection `yaml:"children,omitempty"`
}

// LoadPlan decodes a YAML plan.
func LoadPlan(r io.Reader) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	if len(p.Sections) == 0 {
		return nil, fmt.Errorf("plan has no sections")
	}
	return &p, nil
}

// BuildFromPlan builds the section tree a plan describes, slicing and
// cleaning content from doc.
func BuildFromPlan(doc *parser.Document, plan *Plan) (*guide.Tree, error) {
	tree := &guide.Tree{Title: plan.Title, DocumentID: plan.DocumentID}
	if tree.Title == "" {
		tree.Title = doc.Title
	}

	var build func(ps []PlanSection, path string) ([]*guide.Node, error)
	build = func(ps []PlanSection, path string) ([]*guide.Node, error) {
		var nodes []*guide.Node
		for i, s := range ps {
			where := fmt.Sprintf("%s[%d]", path, i)
			if strings.TrimSpace(s.Title) == "" {
				return nil, fmt.Errorf("%s: empty title", where)
			}
			n := &guide.Node{Section: &guide.Section{Title: strings.TrimSpace(s.Title)}}
			switch {
			case s.Start != nil && s.End != nil:
				raw, err := Slice(doc, *s.Start, *s.End)
				if err != nil {
					return nil, fmt.Errorf("%s %q: %w", where, s.Title, err)
				}
				c := CleanText(raw)
				n.Section.Content = &c
			case s.Start != nil || s.End != nil:
				return nil, fmt.Errorf("%s %q: start and end must be given together", where, s.Title)
			}
			kids, err := build(s.Children, where+".children")
			if err != nil {
				return nil, err
			}
			n.Children = kids
			nodes = append(nodes, n)
		}
		return nodes, nil
	}

	roots, err := build(plan.Sections, "sections")
	if err != nil {
		return nil, err
	}
	tree.Roots = roots
	return tree, nil
}
