package horn

import "testing"

func TestNewNessionStartsWithOneFrame(t *testing.T) {
	n := NewNession(NewStateSet(NewState("SD", NewName("init"))))
	if len(n.Frames) != 1 {
		t.Fatalf("expected 1 initial frame, got %d", len(n.Frames))
	}
	if n.Tail() != 0 {
		t.Errorf("Tail() = %d, want 0", n.Tail())
	}
}

func TestNessionCloneIsolatesFrames(t *testing.T) {
	n := NewNession(NewStateSet(NewState("SD", NewName("init"))))
	n.AppendFrame(NewStateSet(NewState("SD", NewName("next"))), nil, EmptyGuard)

	clone := n.Clone()
	clone.AppendFrame(NewStateSet(NewState("SD", NewName("third"))), nil, EmptyGuard)

	if len(n.Frames) != 2 {
		t.Errorf("original nession should be unaffected by clone mutation, has %d frames", len(n.Frames))
	}
	if len(clone.Frames) != 3 {
		t.Errorf("clone should have 3 frames, has %d", len(clone.Frames))
	}
}

func TestNessionDeclareNonceRejectsDuplicate(t *testing.T) {
	n := NewNession(NewStateSet())
	if !n.DeclareNonce("n1") {
		t.Fatal("first declaration of a nonce should succeed")
	}
	if n.DeclareNonce("n1") {
		t.Error("redeclaring the same nonce should fail")
	}
	if !n.HasNonce("n1") {
		t.Error("HasNonce should report a declared nonce")
	}
}

func TestNessionIsPrefixOf(t *testing.T) {
	short := NewNession(NewStateSet(NewState("SD", NewName("init"))))

	long := NewNession(NewStateSet(NewState("SD", NewName("init"))))
	long.AppendFrame(NewStateSet(NewState("SD", NewName("next"))), nil, EmptyGuard)

	if !short.IsPrefixOf(long) {
		t.Error("short should be recognised as a prefix of long")
	}
	if long.IsPrefixOf(short) {
		t.Error("long must not be considered a prefix of the shorter short")
	}
	if short.IsPrefixOf(short) {
		t.Error("a nession is not a strict prefix of itself")
	}
}

func TestFreshenVariablesRenamesConsistently(t *testing.T) {
	msg := NewTuple(NewVariable("x"), NewVariable("x"), NewVariable("y"))
	renamed, sub := FreshenVariables(msg, 3)

	if renamed.Args()[0].Name() != renamed.Args()[1].Name() {
		t.Error("the same source variable must rename to the same fresh name throughout one message")
	}
	if renamed.Args()[0].Name() == renamed.Args()[2].Name() {
		t.Error("distinct source variables must get distinct fresh names")
	}
	if sub.Lookup(NewVariable("x")) == nil {
		t.Error("the substitution used should be returned to the caller")
	}
}

func TestNessionSubstituteAppliesAcrossFrames(t *testing.T) {
	n := NewNession(NewStateSet(NewState("SD", NewVariable("x"))))
	sub := Empty.With(NewVariable("x"), NewName("resolved"))

	out := n.Substitute(sub)
	cell, ok := out.Frames[0].Cells.Lookup("SD")
	if !ok || !cell.Value.Equal(NewName("resolved")) {
		t.Errorf("expected substituted cell value, got %v", cell.Value)
	}
	// original remains ground-free
	orig, _ := n.Frames[0].Cells.Lookup("SD")
	if !orig.Value.IsVariable() {
		t.Error("Substitute must not mutate the original nession")
	}
}
