package hierarchy

import (
	"errors"
	"fmt"

	"github.com/dgallion1/guidesql/internal/guide"
)

// Policy decides what happens to sections whose parent did not resolve.
type Policy string

const (
	// PolicySkip drops unresolved sections together with their descendants.
	PolicySkip Policy = "skip"
	// PolicyFlatten keeps unresolved sections as explicit top-level roots.
	PolicyFlatten Policy = "flatten"
	// PolicyAbort refuses to build a tree while anything is unresolved.
	PolicyAbort Policy = "abort"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicySkip, PolicyFlatten, PolicyAbort:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown unresolved-parent policy %q (want skip, flatten or abort)", s)
}

// Dropped is a section left out of the tree, with the unresolved reference
// that caused it (its own or an ancestor's).
type Dropped struct {
	Section *guide.Section
	Cause   *UnresolvedParentError
}

// Plan is the tree to emit plus everything the policy changed.
type Plan struct {
	Tree      *guide.Tree
	Dropped   []Dropped
	Flattened []*UnresolvedParentError
}

// Apply builds the section tree from a reconcile result. Roots keep input
// order, children keep input order under their parent.
func Apply(res *Result, policy Policy) (*Plan, error) {
	if policy == PolicyAbort && len(res.Unresolved) > 0 {
		errs := make([]error, len(res.Unresolved))
		for i, u := range res.Unresolved {
			errs[i] = u
		}
		return nil, fmt.Errorf("%d unresolved parent references: %w", len(errs), errors.Join(errs...))
	}

	plan := &Plan{Tree: &guide.Tree{}}
	if len(res.Resolutions) > 0 {
		plan.Tree.DocumentID = res.Resolutions[0].Section.DocumentID
	}

	var build func(s *guide.Section) *guide.Node
	build = func(s *guide.Section) *guide.Node {
		n := &guide.Node{Section: s}
		for _, c := range res.Children[s] {
			n.Children = append(n.Children, build(c))
		}
		return n
	}
	var drop func(s *guide.Section, cause *UnresolvedParentError)
	drop = func(s *guide.Section, cause *UnresolvedParentError) {
		plan.Dropped = append(plan.Dropped, Dropped{Section: s, Cause: cause})
		for _, c := range res.Children[s] {
			drop(c, cause)
		}
	}

	for _, r := range res.Resolutions {
		switch r.Status {
		case TopLevel:
			plan.Tree.Roots = append(plan.Tree.Roots, build(r.Section))
		case Unresolved:
			if policy == PolicyFlatten {
				plan.Tree.Roots = append(plan.Tree.Roots, build(r.Section))
				plan.Flattened = append(plan.Flattened, r.Err)
			} else {
				drop(r.Section, r.Err)
			}
		}
	}
	return plan, nil
}
