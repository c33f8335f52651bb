package horn

import "testing"

func mustExecute(t *testing.T, e *Engine, cb Callbacks) Result {
	t.Helper()
	result, err := e.Execute(cb)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

// gateTree builds the single-cell trace pattern "SD(varName)" used
// throughout these scenarios to gate a rule on the current value of the SD
// state cell.
func gateTree(varName string) *SnapshotTree {
	arena := NewSnapshotArena()
	h := arena.New("SD", NewVariable(varName))
	return NewSnapshotTree(arena, h)
}

// TestScenarioSimpleChainedKnowledge mirrors the "k(c[]) -> k(d[]) -> k(s[])"
// three-rule chain: the attack must cite c[] as a fact and all three rules.
func TestScenarioSimpleChainedKnowledge(t *testing.T) {
	rules := []*Rule{
		mustRule(t, NewConsistentRule(nil, nil, nil, NewKnowEvent(NewName("c")))),
		mustRule(t, NewConsistentRule([]Event{NewKnowEvent(NewName("c"))}, nil, nil, NewKnowEvent(NewName("d")))),
		mustRule(t, NewConsistentRule([]Event{NewKnowEvent(NewName("d"))}, nil, nil, NewKnowEvent(NewName("s")))),
	}
	engine := NewEngine(NewStateSet(NewState("SD", NewName("init"))), NewName("s"), nil, rules)
	result := mustExecute(t, engine, Callbacks{})

	if result.Status != ProvenStatus {
		t.Fatalf("expected the leak to be proven, got %v", result.Status)
	}
	if len(result.Attack.Facts) != 1 || !result.Attack.Facts[0].Equal(NewName("c")) {
		t.Errorf("expected the attack to cite c[] as its sole fact, got %v", result.Attack.Facts)
	}
	if len(result.Attack.Clauses) != 3 {
		t.Errorf("expected a three-rule chain, got %d clauses", len(result.Attack.Clauses))
	}
}

// TestScenarioGuardedRejection mirrors the "[x ~/> a[]] k(x),k(y) -> k(enc(x,y))"
// rule: enc(a[],b[]) must fail (x would have to bind to the forbidden a[]),
// while enc(b[],a[]) must succeed with x<-b[], y<-a[].
func TestScenarioGuardedRejection(t *testing.T) {
	x, y := NewVariable("x"), NewVariable("y")
	guard := EmptyGuard.Forbid("x", NewName("a"))
	encRule := mustRule(t, NewConsistentRule(
		[]Event{NewKnowEvent(x), NewKnowEvent(y)},
		nil, guard,
		NewKnowEvent(NewFunction("enc", x, y)),
	))
	rules := []*Rule{
		encRule,
		mustRule(t, NewConsistentRule(nil, nil, nil, NewKnowEvent(NewName("a")))),
		mustRule(t, NewConsistentRule(nil, nil, nil, NewKnowEvent(NewName("b")))),
	}
	initial := NewStateSet(NewState("SD", NewName("init")))

	rejected := mustExecute(t, NewEngine(initial, NewFunction("enc", NewName("a"), NewName("b")), nil, rules), Callbacks{})
	if rejected.Status != FailedStatus {
		t.Fatalf("expected enc(a[],b[]) to be rejected by the guard, got %v", rejected.Status)
	}

	accepted := mustExecute(t, NewEngine(initial, NewFunction("enc", NewName("b"), NewName("a")), nil, rules), Callbacks{})
	if accepted.Status != ProvenStatus {
		t.Fatalf("expected enc(b[],a[]) to be proven, got %v", accepted.Status)
	}
}

// TestScenarioStateGatedDerivation mirrors the transferring rule
// "[x ~/> test1[]] k(x)(a0) -[(SD(init[]),a0)]-> <a0: SD(x)>" composed with
// the gate "-[(SD(m),a0)]-> k(h(m))": leaking h(test1[]) must fail (the
// guard forbids the state ever settling on test1[]) while h(test2[]) must
// succeed.
func TestScenarioStateGatedDerivation(t *testing.T) {
	x := NewVariable("x")
	transferGuard := EmptyGuard.Forbid("x", NewName("test1"))
	tree := gateTree("probe")
	transferRule := mustRule(t, NewTransferringRule(
		[]Event{NewKnowEvent(x)},
		tree,
		transferGuard,
		NewTransformationSet(Transformation{Snapshot: tree.Heads[0], NewState: x}),
	))
	gateRule := mustRule(t, NewConsistentRule(nil, gateTree("m"), nil, NewKnowEvent(NewFunction("h", NewVariable("m")))))
	rules := []*Rule{
		mustRule(t, NewConsistentRule(nil, nil, nil, NewKnowEvent(NewName("test1")))),
		mustRule(t, NewConsistentRule(nil, nil, nil, NewKnowEvent(NewName("test2")))),
		transferRule,
		gateRule,
	}
	initial := NewStateSet(NewState("SD", NewName("init")))

	failure := mustExecute(t, NewEngine(initial, NewFunction("h", NewName("test1")), nil, rules), Callbacks{})
	if failure.Status != FailedStatus {
		t.Fatalf("expected leak h(test1[]) to fail under the guard, got %v", failure.Status)
	}

	success := mustExecute(t, NewEngine(initial, NewFunction("h", NewName("test2")), nil, rules), Callbacks{})
	if success.Status != ProvenStatus {
		t.Fatalf("expected leak h(test2[]) to succeed, got %v", success.Status)
	}
}

// secretProtocolRules builds the shared two-rule skeleton of the
// two-parameter secret scenarios: a transferring rule that moves SD from
// init[] to a free variable (optionally guarded against the target pair),
// and a gate rule that turns the current SD value into attacker knowledge.
func secretProtocolRules(t *testing.T, guard *Guard) (*Rule, *Rule) {
	t.Helper()
	tree := gateTree("probe")
	x := NewVariable("x")
	transfer := mustRule(t, NewTransferringRule(
		nil, tree, guard,
		NewTransformationSet(Transformation{Snapshot: tree.Heads[0], NewState: x}),
	))
	gate := mustRule(t, NewConsistentRule(nil, gateTree("m"), nil, NewKnowEvent(NewVariable("m"))))
	return transfer, gate
}

// TestScenarioTwoPartySecretWithNames mirrors the named-parameter variant of
// the secret-pair protocol: with no guard blocking the derivation, leaking
// the pair succeeds within a modest level budget.
func TestScenarioTwoPartySecretWithNames(t *testing.T) {
	transfer, gate := secretProtocolRules(t, nil)
	initial := NewStateSet(NewState("SD", NewName("init")))
	query := NewTuple(NewName("bob_l"), NewName("bob_r"))

	result := mustExecute(t, NewEngine(initial, query, nil, []*Rule{transfer, gate}, WithMaxDepth(5)), Callbacks{})
	if result.Status != ProvenStatus {
		t.Fatalf("expected the named secret pair to leak, got %v", result.Status)
	}
}

// TestScenarioTwoPartySecretWithNoncesRequiresShortcut mirrors the
// nonce-parameter variant: the direct derivation is guarded against ever
// settling on the secret pair, so the query fails until a second,
// unguarded transfer rule (modelling a protocol shortcut/flaw) is added,
// at which point the query succeeds via that alternate branch.
func TestScenarioTwoPartySecretWithNoncesRequiresShortcut(t *testing.T) {
	bobl, bobr := NewNonce("bobl"), NewNonce("bobr")
	query := NewTuple(bobl, bobr)
	guardedTransfer, gate := secretProtocolRules(t, EmptyGuard.Forbid("x", query))
	initial := NewStateSet(NewState("SD", NewName("init")))

	blocked := mustExecute(t, NewEngine(initial, query, nil, []*Rule{guardedTransfer, gate}, WithMaxDepth(5)), Callbacks{})
	if blocked.Status != FailedStatus {
		t.Fatalf("expected the nonce pair to stay unreachable without the shortcut rule, got %v", blocked.Status)
	}

	shortcutTree := gateTree("any")
	y := NewVariable("y")
	shortcut := mustRule(t, NewTransferringRule(
		nil, shortcutTree, nil,
		NewTransformationSet(Transformation{Snapshot: shortcutTree.Heads[0], NewState: y}),
	))
	withShortcut := mustExecute(t, NewEngine(initial, query, nil, []*Rule{guardedTransfer, gate, shortcut}, WithMaxDepth(5)), Callbacks{})
	if withShortcut.Status != ProvenStatus {
		t.Fatalf("expected the shortcut rule to make the nonce pair leak, got %v", withShortcut.Status)
	}
}

// TestScenarioCompositionSoundness mirrors "k(x),k(y) -> k(pair(x,y))"
// composed with the fact k(a[]): querying k(pair(a[],a[])) must succeed,
// citing a[] as the fact both premises resolve to.
func TestScenarioCompositionSoundness(t *testing.T) {
	x, y := NewVariable("x"), NewVariable("y")
	rules := []*Rule{
		mustRule(t, NewConsistentRule(nil, nil, nil, NewKnowEvent(NewName("a")))),
		mustRule(t, NewConsistentRule(
			[]Event{NewKnowEvent(x), NewKnowEvent(y)},
			nil, nil,
			NewKnowEvent(NewFunction("pair", x, y)),
		)),
	}
	initial := NewStateSet(NewState("SD", NewName("init")))
	query := NewFunction("pair", NewName("a"), NewName("a"))

	result := mustExecute(t, NewEngine(initial, query, nil, rules), Callbacks{})
	if result.Status != ProvenStatus {
		t.Fatalf("expected k(pair(a[],a[])) to be proven by composition, got %v", result.Status)
	}
	if len(result.Attack.Facts) != 1 || !result.Attack.Facts[0].Equal(NewName("a")) {
		t.Errorf("expected the attack to cite a single fact a[], got %v", result.Attack.Facts)
	}
}

// TestScenarioStateVariableConsistencyGate mirrors spec.md §4.6's
// cross-branch state-variable consistency check. The SD cell moves
// init[] -> test1[] -> test2[], and a gate rule turns whatever SD
// currently holds into attacker knowledge at each frame. Querying
// pair(test1[],test1[]) cites a single SD observation and must succeed;
// pair(test1[],test2[]) stitches together two different frames'
// observations of the same cell and must be rejected even though each
// half is individually provable.
func TestScenarioStateVariableConsistencyGate(t *testing.T) {
	arena1 := NewSnapshotArena()
	toTest1 := arena1.New("SD", NewName("init"))
	transfer1 := mustRule(t, NewTransferringRule(
		nil, NewSnapshotTree(arena1, toTest1), nil,
		NewTransformationSet(Transformation{Snapshot: toTest1, NewState: NewName("test1")}),
	))

	arena2 := NewSnapshotArena()
	toTest2 := arena2.New("SD", NewName("test1"))
	transfer2 := mustRule(t, NewTransferringRule(
		nil, NewSnapshotTree(arena2, toTest2), nil,
		NewTransformationSet(Transformation{Snapshot: toTest2, NewState: NewName("test2")}),
	))

	gateRule := mustRule(t, NewConsistentRule(nil, gateTree("m"), nil, NewKnowEvent(NewVariable("m"))))
	x, y := NewVariable("x"), NewVariable("y")
	pairRule := mustRule(t, NewConsistentRule(
		[]Event{NewKnowEvent(x), NewKnowEvent(y)},
		nil, nil,
		NewKnowEvent(NewFunction("pair", x, y)),
	))

	initial := NewStateSet(NewState("SD", NewName("init")))
	rules := []*Rule{transfer1, transfer2, gateRule, pairRule}

	consistent := mustExecute(t, NewEngine(initial, NewFunction("pair", NewName("test1"), NewName("test1")), nil, rules, WithMaxDepth(4)), Callbacks{})
	if consistent.Status != ProvenStatus {
		t.Fatalf("expected pair(test1[],test1[]) to be proven from one SD observation, got %v", consistent.Status)
	}

	conflicting := mustExecute(t, NewEngine(initial, NewFunction("pair", NewName("test1"), NewName("test2")), nil, rules, WithMaxDepth(4)), Callbacks{})
	if conflicting.Status != FailedStatus {
		t.Fatalf("expected pair(test1[],test2[]) to be rejected by the state-variable consistency gate, got %v", conflicting.Status)
	}
}
