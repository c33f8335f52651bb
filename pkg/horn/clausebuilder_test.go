package horn

import "testing"

func TestBuildClausesEmitsRuleClauseWithAccumulatedPremises(t *testing.T) {
	rule, err := NewConsistentRule(
		[]Event{NewKnowEvent(NewName("c"))}, nil, EmptyGuard, NewKnowEvent(NewName("d")))
	if err != nil {
		t.Fatal(err)
	}

	n := NewNession(NewStateSet(NewState("SD", NewName("init"))))
	tail := n.TailFrame()
	tail.Admitted = append(tail.Admitted, rule)
	tail.Premises = append(tail.Premises, NewKnowEvent(NewName("c")))

	clauses := BuildClauses(n, nil)
	found := false
	for _, c := range clauses {
		if c.Result.Equal(NewName("d")) {
			found = true
			if len(c.Premises) != 1 || !c.Premises[0].Equal(NewName("c")) {
				t.Errorf("expected premise {c[]}, got %v", c.Premises)
			}
		}
	}
	if !found {
		t.Error("expected a clause deriving d[]")
	}
}

func TestBuildClausesEmitsMakeClause(t *testing.T) {
	n := NewNession(NewStateSet(NewState("SD", NewName("init"))))
	tail := n.TailFrame()
	tail.Premises = append(tail.Premises, NewMakeEvent(NewName("byproduct")))

	clauses := BuildClauses(n, nil)
	found := false
	for _, c := range clauses {
		if c.Result.Equal(NewName("byproduct")) {
			found = true
		}
	}
	if !found {
		t.Error("expected a Make-sourced clause for byproduct[]")
	}
}

func TestWhenFrameIndexFindsMatchingCell(t *testing.T) {
	n := NewNession(NewStateSet(NewState("SD", NewName("init"))))
	n.AppendFrame(NewStateSet(NewState("SD", NewName("next"))), nil, EmptyGuard)

	idx := WhenFrameIndex(n, NewState("SD", NewName("next")))
	if idx != 1 {
		t.Errorf("WhenFrameIndex = %d, want 1", idx)
	}

	idx = WhenFrameIndex(n, NewState("SD", NewName("absent")))
	if idx != -1 {
		t.Errorf("WhenFrameIndex for absent value = %d, want -1", idx)
	}
}
