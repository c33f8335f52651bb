package horn

import "testing"

func buildChain(a *SnapshotArena, cellName string, values ...*IMessage) SnapshotHandle {
	prev := a.New(cellName, values[0])
	for _, v := range values[1:] {
		h := a.New(cellName, v)
		_ = a.AddPrior(h, prev, AtOrBefore)
		prev = h
	}
	return prev
}

func TestSnapshotTreeTracesSingleChain(t *testing.T) {
	a := NewSnapshotArena()
	head := buildChain(a, "SD", NewName("init"), NewName("mid"), NewName("final"))
	tree := NewSnapshotTree(a, head)

	traces := tree.Traces()
	if len(traces) != 1 {
		t.Fatalf("expected exactly one trace for a linear chain, got %d", len(traces))
	}
	if len(traces[0]) != 3 {
		t.Fatalf("expected a 3-step trace, got %d steps", len(traces[0]))
	}
}

func TestSnapshotTreeTracesPrunesSuffixes(t *testing.T) {
	a := NewSnapshotArena()
	root := a.New("SD", NewName("init"))
	mid := a.New("SD", NewName("mid"))
	_ = a.AddPrior(mid, root, AtOrBefore)
	head := a.New("SD", NewName("final"))
	_ = a.AddPrior(head, mid, AtOrBefore)

	// Two heads: one sees the full chain, one is a suffix (mid-to-init)
	// of the same shape. The suffix trace should be pruned.
	tree := NewSnapshotTree(a, head, mid)
	traces := tree.Traces()

	if len(traces) != 1 {
		t.Fatalf("expected the shorter suffix trace to be pruned, got %d traces", len(traces))
	}
	if len(traces[0]) != 3 {
		t.Errorf("surviving trace should be the full 3-step chain, got %d steps", len(traces[0]))
	}
}

func TestSnapshotTreeImpliesReflexive(t *testing.T) {
	a := NewSnapshotArena()
	head := buildChain(a, "SD", NewName("init"), NewName("final"))
	tree := NewSnapshotTree(a, head)

	sf := NewSigmaFactory(TwoWay)
	if !tree.Implies(tree, EmptyGuard, EmptyGuard, sf) {
		t.Error("a snapshot tree must imply itself")
	}
}

func TestSnapshotTreeImpliesRequiresOrderRefinement(t *testing.T) {
	strict := NewSnapshotArena()
	h1 := strict.New("SD", NewName("init"))
	h2 := strict.New("SD", NewName("final"))
	_ = strict.AddPrior(h2, h1, ImmediatelyBefore)
	strictTree := NewSnapshotTree(strict, h2)

	loose := NewSnapshotArena()
	l1 := loose.New("SD", NewName("init"))
	l2 := loose.New("SD", NewName("final"))
	_ = loose.AddPrior(l2, l1, AtOrBefore)
	looseTree := NewSnapshotTree(loose, l2)

	sf := NewSigmaFactory(TwoWay)
	if !strictTree.Implies(looseTree, EmptyGuard, EmptyGuard, sf) {
		t.Error("ImmediatelyBefore should refine (and thus imply) AtOrBefore")
	}
	if looseTree.Implies(strictTree, EmptyGuard, EmptyGuard, NewSigmaFactory(TwoWay)) {
		t.Error("AtOrBefore must not imply the stricter ImmediatelyBefore")
	}
}

func TestSnapshotTreeImpliesRequiresPremiseSubset(t *testing.T) {
	a := NewSnapshotArena()
	h := a.New("SD", NewName("v"))
	a.AddPremise(h, NewKnowEvent(NewName("secret")))
	withPremise := NewSnapshotTree(a, h)

	b := NewSnapshotArena()
	hb := b.New("SD", NewName("v"))
	withoutPremise := NewSnapshotTree(b, hb)

	sf := NewSigmaFactory(TwoWay)
	if withPremise.Implies(withoutPremise, EmptyGuard, EmptyGuard, sf) {
		t.Error("a tree with an extra required premise must not imply one lacking it")
	}
	if !withoutPremise.Implies(withPremise, EmptyGuard, EmptyGuard, NewSigmaFactory(TwoWay)) {
		t.Error("a tree with no extra premises should imply one that has additional premises")
	}
}

func TestSnapshotTreeMergePreservesBothSides(t *testing.T) {
	a := NewSnapshotArena()
	ha := buildChain(a, "SD", NewName("a-init"), NewName("a-final"))
	treeA := NewSnapshotTree(a, ha)

	b := NewSnapshotArena()
	hb := buildChain(b, "OD", NewName("b-init"), NewName("b-final"))
	treeB := NewSnapshotTree(b, hb)

	merged := treeA.Merge(treeB)
	if len(merged.Traces()) != 2 {
		t.Fatalf("merged tree should keep both independent chains, got %d traces", len(merged.Traces()))
	}
}

func TestSnapshotTreeEqual(t *testing.T) {
	a := NewSnapshotArena()
	ha := buildChain(a, "SD", NewName("init"), NewName("final"))
	treeA := NewSnapshotTree(a, ha)

	b := NewSnapshotArena()
	hb := buildChain(b, "SD", NewName("init"), NewName("final"))
	treeB := NewSnapshotTree(b, hb)

	if !treeA.Equal(treeB) {
		t.Error("structurally identical trees built over independent arenas should be Equal")
	}
}
