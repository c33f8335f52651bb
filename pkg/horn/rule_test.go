package horn

import "testing"

func TestNewConsistentRuleRejectsResultAsPremise(t *testing.T) {
	premise := NewKnowEvent(NewName("c"))
	_, err := NewConsistentRule([]Event{premise}, nil, EmptyGuard, premise)
	if err == nil {
		t.Fatal("expected a RuleError when the result duplicates a premise")
	}
	var re *RuleError
	if !asRuleError(err, &re) {
		t.Fatalf("expected *RuleError, got %v", err)
	}
}

func TestNewTransferringRuleRejectsEmptyTransformations(t *testing.T) {
	_, err := NewTransferringRule(nil, nil, EmptyGuard, NewTransformationSet())
	if err == nil {
		t.Fatal("expected a RuleError for an empty transformation set")
	}
}

func TestRuleIDsAreMonotonicAndStable(t *testing.T) {
	r1, err := NewConsistentRule(nil, nil, EmptyGuard, NewKnowEvent(NewName("a")))
	if err != nil {
		t.Fatal(err)
	}
	r2, err := NewConsistentRule(nil, nil, EmptyGuard, NewKnowEvent(NewName("b")))
	if err != nil {
		t.Fatal(err)
	}
	if r2.ID() <= r1.ID() {
		t.Errorf("expected monotonically increasing ids, got %d then %d", r1.ID(), r2.ID())
	}
}

func TestRuleIsStatelessRequiresNoTreeAndNoNewEvents(t *testing.T) {
	stateless, err := NewConsistentRule(
		[]Event{NewKnowEvent(NewName("c"))}, nil, EmptyGuard, NewKnowEvent(NewName("d")))
	if err != nil {
		t.Fatal(err)
	}
	if !stateless.IsStateless() {
		t.Error("a tree-less, New-free consistent rule should be stateless")
	}

	withNew, err := NewConsistentRule(
		[]Event{NewNewEvent(NewNonce("n"), "")}, nil, EmptyGuard, NewKnowEvent(NewName("d")))
	if err != nil {
		t.Fatal(err)
	}
	if withNew.IsStateless() {
		t.Error("a rule consuming a New premise must not be stateless")
	}
}

func TestRuleSubstitutePreservesID(t *testing.T) {
	r, err := NewConsistentRule(
		[]Event{NewKnowEvent(NewVariable("x"))}, nil, EmptyGuard, NewKnowEvent(NewVariable("y")))
	if err != nil {
		t.Fatal(err)
	}
	sub := Empty.With(NewVariable("x"), NewName("c")).With(NewVariable("y"), NewName("d"))
	out := r.Substitute(sub)

	if out.ID() != r.ID() {
		t.Error("substitution must preserve the rule's id-tag")
	}
	if !out.Premises()[0].Equal(NewKnowEvent(NewName("c"))) {
		t.Errorf("premise not substituted: %v", out.Premises()[0])
	}
	if !out.ResultEvent().Equal(NewKnowEvent(NewName("d"))) {
		t.Errorf("result not substituted: %v", out.ResultEvent())
	}
}

func TestTransformationSetUnifyToRequiresMatchingHandles(t *testing.T) {
	sf := NewSigmaFactory(OneWay)
	a := NewTransformationSet(Transformation{Snapshot: SnapshotHandle(0), NewState: NewVariable("x")})
	b := NewTransformationSet(Transformation{Snapshot: SnapshotHandle(1), NewState: NewName("v")})

	if a.UnifyTo(b, EmptyGuard, sf) {
		t.Error("transformation sets over mismatched snapshot handles must not unify")
	}
}

// asRuleError unwraps err (which may be wrapped by github.com/pkg/errors)
// looking for a *RuleError, assigning it to *target on success.
func asRuleError(err error, target **RuleError) bool {
	type causer interface{ Cause() error }
	for err != nil {
		if re, ok := err.(*RuleError); ok {
			*target = re
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}
