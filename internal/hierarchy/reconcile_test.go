package hierarchy

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/guidesql/internal/guide"
)

func ptr(v int64) *int64 { return &v }

func section(id int64, parent *int64, title string, order int) *guide.Section {
	return &guide.Section{ID: id, DocumentID: 1, ParentID: parent, Title: title, OrderNum: order}
}

func TestReconcile_PlacesChildUnderParent(t *testing.T) {
	a := section(10, nil, "Розділ I", 1)
	b := section(11, ptr(10), "Глава 1", 1)
	res := Reconcile([]*guide.Section{a, b})

	if len(res.Unresolved) != 0 {
		t.Fatalf("expected no unresolved, got %v", res.Unresolved)
	}
	kids := res.Children[a]
	if len(kids) != 1 || kids[0] != b {
		t.Fatalf("expected B under A, got %v", kids)
	}
	r, ok := res.Resolution(b)
	if !ok || r.Status != Resolved || r.Parent != a {
		t.Errorf("expected B resolved to A, got %+v", r)
	}
	if r, _ := res.Resolution(a); r.Status != TopLevel {
		t.Errorf("expected A top-level, got %s", r.Status)
	}
}

func TestReconcile_MissingParentIsReported(t *testing.T) {
	a := section(1, nil, "Розділ I", 1)
	b := section(2, ptr(92), "Глава 1", 1)
	res := Reconcile([]*guide.Section{a, b})

	r, _ := res.Resolution(b)
	if r.Status != Unresolved {
		t.Fatalf("expected unresolved, got %s", r.Status)
	}
	if r.Err == nil || r.Err.Reason != ReasonMissing || *r.Err.ParentID != 92 {
		t.Errorf("unexpected error: %+v", r.Err)
	}
	if len(res.Unresolved) != 1 {
		t.Errorf("expected 1 unresolved, got %d", len(res.Unresolved))
	}
	if len(res.Children[a]) != 0 {
		t.Errorf("expected no children for A")
	}
	if !strings.Contains(r.Err.Error(), "parent_id 92") {
		t.Errorf("expected parent_id in message, got %q", r.Err.Error())
	}
}

func TestReconcile_ZeroIDsNeverMatch(t *testing.T) {
	a := section(0, nil, "A", 1)
	b := section(0, ptr(0), "B", 2)
	res := Reconcile([]*guide.Section{a, b})
	if r, _ := res.Resolution(b); r.Status != Unresolved || r.Err.Reason != ReasonMissing {
		t.Errorf("expected missing, got %+v", r)
	}
}

func TestReconcile_AmbiguousAndSelf(t *testing.T) {
	a1 := section(5, nil, "A1", 1)
	a2 := section(5, nil, "A2", 2)
	b := section(6, ptr(5), "B", 1)
	self := section(7, ptr(7), "C", 3)
	res := Reconcile([]*guide.Section{a1, a2, b, self})

	if r, _ := res.Resolution(b); r.Status != Unresolved || r.Err.Reason != ReasonAmbiguous {
		t.Errorf("expected ambiguous, got %+v", r)
	}
	if r, _ := res.Resolution(self); r.Status != Unresolved || r.Err.Reason != ReasonSelf {
		t.Errorf("expected self reference, got %+v", r)
	}
}

func TestReconcile_CycleMembersUnresolved(t *testing.T) {
	a := section(1, ptr(2), "A", 1)
	b := section(2, ptr(1), "B", 2)
	c := section(3, ptr(1), "C", 3)
	res := Reconcile([]*guide.Section{a, b, c})

	for _, s := range []*guide.Section{a, b} {
		r, _ := res.Resolution(s)
		if r.Status != Unresolved || r.Err.Reason != ReasonCycle {
			t.Errorf("%s: expected cycle, got %+v", s.Title, r)
		}
	}
	// C hangs off the cycle but its own link is fine.
	if r, _ := res.Resolution(c); r.Status != Resolved || r.Parent != a {
		t.Errorf("expected C resolved to A, got %+v", r)
	}
}

func TestReconcile_CuratedCycleKeepsTitleReference(t *testing.T) {
	cur, err := LoadCuration(strings.NewReader("A|B|2\nB|A|2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := section(0, nil, "A", 1)
	b := section(0, ptr(7), "B", 2)
	res := Reconcile([]*guide.Section{a, b}, WithCuration(cur))

	if len(res.Unresolved) != 2 {
		t.Fatalf("expected 2 unresolved, got %d", len(res.Unresolved))
	}
	for _, u := range res.Unresolved {
		want := "B"
		if u.Section == b {
			want = "A"
		}
		if u.Reason != ReasonCycle || u.ParentTitle != want || u.ParentID != nil {
			t.Errorf("%s: expected cycle via curated parent %q, got %+v", u.Section.Title, want, u)
		}
	}
	if !strings.Contains(res.Unresolved[0].Error(), `curated parent "B"`) {
		t.Errorf("expected curated reference in message, got %q", res.Unresolved[0].Error())
	}
}

func TestReconcile_DoesNotMutate(t *testing.T) {
	a := section(1, nil, "  Розділ I ", 4)
	b := section(2, ptr(99), "Глава", 9)
	Reconcile([]*guide.Section{a, b})
	if a.Title != "  Розділ I " || a.OrderNum != 4 || b.OrderNum != 9 || *b.ParentID != 99 {
		t.Errorf("reconcile modified input: %+v %+v", a, b)
	}
}

func TestReconcile_DuplicateTitles(t *testing.T) {
	res := Reconcile([]*guide.Section{
		section(1, nil, "Загальні положення", 1),
		section(2, nil, "Загальні  положення", 2),
		section(3, nil, "Інше", 3),
	})
	if len(res.DuplicateTitles) != 1 || res.DuplicateTitles[0] != "Загальні положення" {
		t.Errorf("expected one duplicate title, got %v", res.DuplicateTitles)
	}
}

func TestReconcile_Curation(t *testing.T) {
	cur, err := LoadCuration(strings.NewReader("# title|parent|level\nРозділ I||1\nГлава 1|Розділ I|2\nГлава 2|Розділ IX|2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := section(0, nil, "Розділ I", 1)
	b := section(0, ptr(92), "Глава 1", 1)
	c := section(0, nil, "Глава 2", 2)
	d := section(0, nil, "Без курації", 3)
	res := Reconcile([]*guide.Section{a, b, c, d}, WithCuration(cur))

	if r, _ := res.Resolution(b); r.Status != Resolved || r.Parent != a {
		t.Errorf("expected curated B under A, got %+v", r)
	}
	r, _ := res.Resolution(c)
	if r.Status != Unresolved || r.Err.ParentTitle != "Розділ IX" || r.Err.ParentID != nil {
		t.Errorf("expected curated parent unresolved, got %+v", r)
	}
	if r, _ := res.Resolution(d); r.Status != TopLevel {
		t.Errorf("expected uncurated null parent top-level, got %s", r.Status)
	}
}

func TestLoadCuration_Errors(t *testing.T) {
	cases := []string{
		"only-title\n",
		"A|B|x\n",
		"|B|2\n",
	}
	for _, in := range cases {
		if _, err := LoadCuration(strings.NewReader(in)); err == nil {
			t.Errorf("%q: expected error, got nil", in)
		}
	}
	c, err := LoadCuration(strings.NewReader("A|B\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e, ok := c.Lookup("A"); !ok || e.Level != 1 || e.ParentTitle != "" {
		t.Errorf("expected level 1 without parent, got %+v", e)
	}
	var nilCur *Curation
	if _, ok := nilCur.Lookup("A"); ok || nilCur.Len() != 0 {
		t.Errorf("expected nil curation to be empty")
	}
}

func TestAssignIDs(t *testing.T) {
	ss := []*guide.Section{section(0, nil, "A", 3), section(0, nil, "B", 7)}

	AssignIDs(ss, SchemePosition, 90)
	if ss[0].ID != 90 || ss[1].ID != 91 {
		t.Errorf("position: expected 90,91, got %d,%d", ss[0].ID, ss[1].ID)
	}
	AssignIDs(ss, SchemeOrderNum, 0)
	if ss[0].ID != 3 || ss[1].ID != 7 {
		t.Errorf("order-num: expected 3,7, got %d,%d", ss[0].ID, ss[1].ID)
	}
	AssignIDs(ss, SchemeNone, 0)
	if ss[0].ID != 0 || ss[1].ID != 0 {
		t.Errorf("none: expected zero ids")
	}

	if s, err := ParseScheme(""); err != nil || s != SchemeNone {
		t.Errorf("expected default none, got %q %v", s, err)
	}
	if _, err := ParseScheme("serial"); err == nil {
		t.Errorf("expected error for unknown scheme")
	}
}

func TestApply_Policies(t *testing.T) {
	build := func() (*Result, []*guide.Section) {
		a := section(1, nil, "A", 1)
		b := section(2, ptr(1), "B", 1)
		orphan := section(3, ptr(42), "Orphan", 2)
		kid := section(4, ptr(3), "Kid", 1)
		ss := []*guide.Section{a, b, orphan, kid}
		return Reconcile(ss), ss
	}

	res, _ := build()
	plan, err := Apply(res, PolicySkip)
	if err != nil {
		t.Fatalf("skip: unexpected error: %v", err)
	}
	if plan.Tree.Len() != 2 || len(plan.Dropped) != 2 {
		t.Errorf("skip: expected 2 kept / 2 dropped, got %d / %d", plan.Tree.Len(), len(plan.Dropped))
	}
	if plan.Dropped[1].Section.Title != "Kid" || plan.Dropped[1].Cause.Section.Title != "Orphan" {
		t.Errorf("skip: expected Kid dropped because of Orphan, got %+v", plan.Dropped[1])
	}

	res, _ = build()
	plan, err = Apply(res, PolicyFlatten)
	if err != nil {
		t.Fatalf("flatten: unexpected error: %v", err)
	}
	if len(plan.Tree.Roots) != 2 || plan.Tree.Roots[1].Section.Title != "Orphan" {
		t.Fatalf("flatten: expected Orphan as second root")
	}
	if len(plan.Tree.Roots[1].Children) != 1 || len(plan.Flattened) != 1 {
		t.Errorf("flatten: expected Kid under Orphan and one flattened report")
	}
	if plan.Tree.DocumentID != 1 {
		t.Errorf("expected document 1, got %d", plan.Tree.DocumentID)
	}

	res, _ = build()
	_, err = Apply(res, PolicyAbort)
	if err == nil {
		t.Fatal("abort: expected error")
	}
	var upe *UnresolvedParentError
	if !errors.As(err, &upe) || upe.Section.Title != "Orphan" {
		t.Errorf("abort: expected wrapped UnresolvedParentError, got %v", err)
	}
}

func TestApply_AbortWithNothingUnresolved(t *testing.T) {
	res := Reconcile([]*guide.Section{section(1, nil, "A", 1)})
	plan, err := Apply(res, PolicyAbort)
	if err != nil || plan.Tree.Len() != 1 {
		t.Errorf("expected clean tree, got %v", err)
	}
	if _, err := ParsePolicy("ignore"); err == nil {
		t.Errorf("expected error for unknown policy")
	}
}
