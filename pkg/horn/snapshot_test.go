package horn

import "testing"

func TestSnapshotArenaAddPriorRejectsCycle(t *testing.T) {
	a := NewSnapshotArena()
	h1 := a.New("SD", NewName("v1"))
	h2 := a.New("SD", NewName("v2"))

	if err := a.AddPrior(h2, h1, AtOrBefore); err != nil {
		t.Fatalf("AddPrior(h2, h1) unexpected error: %v", err)
	}
	if err := a.AddPrior(h1, h2, AtOrBefore); err == nil {
		t.Fatal("AddPrior(h1, h2) should have been rejected as a cycle")
	}
}

func TestSnapshotArenaAddPriorRejectsSelfLoop(t *testing.T) {
	a := NewSnapshotArena()
	h := a.New("SD", NewName("v"))
	if err := a.AddPrior(h, h, AtOrBefore); err == nil {
		t.Fatal("a snapshot must not be its own prior")
	}
}

func TestSnapshotArenaAccessors(t *testing.T) {
	a := NewSnapshotArena()
	h := a.New("SD", NewName("v"))
	a.SetTransfersTo(h, NewName("next"))
	e := NewKnowEvent(NewName("msg"))
	a.AddPremise(h, e)

	if a.CellName(h) != "SD" {
		t.Errorf("CellName = %s, want SD", a.CellName(h))
	}
	dest, ok := a.TransfersTo(h)
	if !ok || !dest.Equal(NewName("next")) {
		t.Errorf("TransfersTo = %v, %v", dest, ok)
	}
	if len(a.Premises(h)) != 1 || !a.Premises(h)[0].Equal(e) {
		t.Error("AddPremise did not record the event")
	}
}

func TestSnapshotArenaSubstitutePreservesHandlesAndShape(t *testing.T) {
	a := NewSnapshotArena()
	h1 := a.New("SD", NewVariable("x"))
	h2 := a.New("SD", NewName("fixed"))
	_ = a.AddPrior(h2, h1, ImmediatelyBefore)
	a.AddPremise(h1, NewKnowEvent(NewVariable("x")))

	sub := Empty.With(NewVariable("x"), NewName("resolved"))
	out := a.Substitute(sub)

	if out.CellName(h1) != "SD" {
		t.Fatal("substitute should preserve cell names")
	}
	if !out.Value(h1).Equal(NewName("resolved")) {
		t.Errorf("Value(h1) = %v, want resolved", out.Value(h1))
	}
	if len(out.Priors(h2)) != 1 || out.Priors(h2)[0].Target != h1 {
		t.Error("substitute should preserve prior links and handles")
	}
	if !out.Premises(h1)[0].Equal(NewKnowEvent(NewName("resolved"))) {
		t.Error("substitute should rewrite premise events")
	}
	// Original arena must be unaffected.
	if !a.Value(h1).Equal(NewVariable("x")) {
		t.Error("Substitute mutated the original arena")
	}
}

func TestOrderingRefines(t *testing.T) {
	cases := []struct {
		a, b Ordering
		want bool
	}{
		{AtOrBefore, AtOrBefore, true},
		{ImmediatelyBefore, AtOrBefore, true},
		{AtOrBefore, ImmediatelyBefore, false},
		{Unchanged, Unchanged, true},
		{AtOrBefore, Unchanged, false},
		{ImmediatelyBefore, ImmediatelyBefore, true},
	}
	for _, c := range cases {
		if got := c.a.refines(c.b); got != c.want {
			t.Errorf("%v.refines(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
