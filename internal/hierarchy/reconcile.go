// Package hierarchy resolves parent references between guide sections and
// turns the result into a tree under a caller-chosen policy.
package hierarchy

import (
	"fmt"
	"sort"

	"github.com/dgallion1/guidesql/internal/guide"
)

// Status is the outcome of resolving one section's parent.
type Status int

const (
	TopLevel Status = iota
	Resolved
	Unresolved
)

func (s Status) String() string {
	switch s {
	case TopLevel:
		return "top-level"
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	}
	return "unknown"
}

// Reason explains an unresolved parent.
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonAmbiguous Reason = "ambiguous"
	ReasonSelf      Reason = "self reference"
	ReasonCycle     Reason = "cycle"
)

// UnresolvedParentError reports a section whose parent reference does not
// resolve within the set.
type UnresolvedParentError struct {
	Section     *guide.Section
	ParentID    *int64 // numeric reference, nil when a curated title was used
	ParentTitle string // curated parent title
	Reason      Reason
}

func (e *UnresolvedParentError) Error() string {
	ref := "curated parent " + fmt.Sprintf("%q", e.ParentTitle)
	if e.ParentID != nil {
		ref = fmt.Sprintf("parent_id %d", *e.ParentID)
	}
	return fmt.Sprintf("section %q (order_num %d, line %d): %s unresolved: %s",
		e.Section.Title, e.Section.OrderNum, e.Section.Line, ref, e.Reason)
}

// Resolution is the tagged per-section result.
type Resolution struct {
	Section *guide.Section
	Status  Status
	Parent  *guide.Section         // set when Status is Resolved
	Err     *UnresolvedParentError // set when Status is Unresolved

	// reference the parent was looked up by
	refID    *int64
	refTitle string
}

// Result holds the resolutions in input order and the parent to children
// adjacency built from the resolved links.
type Result struct {
	Resolutions     []Resolution
	Children        map[*guide.Section][]*guide.Section
	Unresolved      []*UnresolvedParentError
	DuplicateTitles []string
}

// Resolution returns the resolution of s, if s was part of the input.
func (r *Result) Resolution(s *guide.Section) (Resolution, bool) {
	for _, res := range r.Resolutions {
		if res.Section == s {
			return res, true
		}
	}
	return Resolution{}, false
}

type options struct {
	curation *Curation
}

// Option configures Reconcile.
type Option func(*options)

// WithCuration resolves curated sections by parent title instead of by
// parent_id.
func WithCuration(c *Curation) Option {
	return func(o *options) { o.curation = c }
}

// Reconcile resolves every section's parent within sections:
//
//  1. a nil ParentID is top-level;
//  2. exactly one section whose ID equals ParentID is the parent;
//  3. anything else is an UnresolvedParentError, never a silent top-level.
//
// Sections with ID 0 are never matched. Resolved links that form a cycle are
// reported for every member of the cycle. Titles and order numbers are never
// modified.
func Reconcile(sections []*guide.Section, opts ...Option) *Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	byID := make(map[int64][]*guide.Section)
	byTitle := make(map[string][]*guide.Section)
	for _, s := range sections {
		if s.ID != 0 {
			byID[s.ID] = append(byID[s.ID], s)
		}
		key := TitleKey(s.Title)
		byTitle[key] = append(byTitle[key], s)
	}

	res := &Result{
		Resolutions: make([]Resolution, len(sections)),
		Children:    make(map[*guide.Section][]*guide.Section),
	}
	index := make(map[*guide.Section]int, len(sections))

	for i, s := range sections {
		index[s] = i
		res.Resolutions[i] = resolveOne(s, byID, byTitle, o.curation)
	}

	breakCycles(res.Resolutions, index)

	for _, r := range res.Resolutions {
		switch r.Status {
		case Resolved:
			res.Children[r.Parent] = append(res.Children[r.Parent], r.Section)
		case Unresolved:
			res.Unresolved = append(res.Unresolved, r.Err)
		}
	}

	for key, group := range byTitle {
		if len(group) > 1 {
			res.DuplicateTitles = append(res.DuplicateTitles, key)
		}
	}
	sort.Strings(res.DuplicateTitles)

	return res
}

func resolveOne(s *guide.Section, byID map[int64][]*guide.Section, byTitle map[string][]*guide.Section, c *Curation) Resolution {
	unresolved := func(reason Reason, pid *int64, title string) Resolution {
		return Resolution{
			Section: s,
			Status:  Unresolved,
			Err:     &UnresolvedParentError{Section: s, ParentID: pid, ParentTitle: title, Reason: reason},
		}
	}
	pick := func(cands []*guide.Section, pid *int64, title string) Resolution {
		switch {
		case len(cands) == 0:
			return unresolved(ReasonMissing, pid, title)
		case len(cands) > 1:
			return unresolved(ReasonAmbiguous, pid, title)
		case cands[0] == s:
			return unresolved(ReasonSelf, pid, title)
		}
		return Resolution{Section: s, Status: Resolved, Parent: cands[0], refID: pid, refTitle: title}
	}

	if e, ok := c.Lookup(s.Title); ok {
		if e.Level <= 1 {
			return Resolution{Section: s, Status: TopLevel}
		}
		if e.ParentTitle == "" {
			return unresolved(ReasonMissing, nil, "")
		}
		return pick(byTitle[TitleKey(e.ParentTitle)], nil, e.ParentTitle)
	}

	if s.ParentID == nil {
		return Resolution{Section: s, Status: TopLevel}
	}
	return pick(byID[*s.ParentID], s.ParentID, "")
}

// breakCycles marks every section on a cycle of resolved links as
// unresolved.
func breakCycles(rs []Resolution, index map[*guide.Section]int) {
	const (
		unvisited = iota
		inPath
		done
	)
	state := make([]int, len(rs))
	for i := range rs {
		var path []int
		cur := i
		for state[cur] == unvisited && rs[cur].Status == Resolved {
			state[cur] = inPath
			path = append(path, cur)
			cur = index[rs[cur].Parent]
		}
		if state[cur] == inPath {
			cycle := false
			for _, p := range path {
				if p == cur {
					cycle = true
				}
				if cycle {
					r := rs[p]
					rs[p] = Resolution{
						Section: r.Section,
						Status:  Unresolved,
						Err: &UnresolvedParentError{
							Section:     r.Section,
							ParentID:    r.refID,
							ParentTitle: r.refTitle,
							Reason:      ReasonCycle,
						},
						refID:    r.refID,
						refTitle: r.refTitle,
					}
				}
			}
		}
		for _, p := range path {
			state[p] = done
		}
	}
}
