package horn

import "testing"

func TestStateSetCanonicalOrder(t *testing.T) {
	s1 := NewStateSet(NewState("B", NewName("x")), NewState("A", NewName("y")))
	s2 := NewStateSet(NewState("A", NewName("y")), NewState("B", NewName("x")))

	if !s1.Equal(s2) {
		t.Error("StateSets built from the same cells in different orders should be equal")
	}
	if s1.Cells()[0].Name != "A" {
		t.Errorf("first cell = %s, want canonical order starting with A", s1.Cells()[0].Name)
	}
}

func TestStateSetReplace(t *testing.T) {
	s := NewStateSet(NewState("SD", NewName("init")))
	updated := s.Replace("SD", NewName("next"))

	cell, ok := updated.Lookup("SD")
	if !ok || !cell.Value.Equal(NewName("next")) {
		t.Errorf("Replace did not update the cell: %v", updated)
	}
	// Original must be unaffected (value-like immutability).
	orig, _ := s.Lookup("SD")
	if !orig.Value.Equal(NewName("init")) {
		t.Error("Replace mutated the original StateSet")
	}
}

func TestStateUnifyToRequiresMatchingNames(t *testing.T) {
	sf := NewSigmaFactory(OneWay)
	a := NewState("SD", NewVariable("x"))
	b := NewState("OTHER", NewName("v"))
	if a.UnifyTo(b, EmptyGuard, sf) {
		t.Error("states with different cell names must not unify")
	}
}
