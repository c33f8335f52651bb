package horn

import "testing"

func TestUnifyToSoundness(t *testing.T) {
	// Property from spec.md §8: unification soundness.
	x := NewVariable("x")
	a := NewFunction("enc", x, NewName("b"))
	b := NewFunction("enc", NewName("a"), NewName("b"))

	sf := NewSigmaFactory(OneWay)
	if !UnifyTo(a, b, EmptyGuard, sf) {
		t.Fatal("UnifyTo failed on a unifiable pair")
	}
	if got := sf.Forward.Apply(a); !got.Equal(b) {
		t.Errorf("apply(sigma_fwd, a) = %s, want %s", got, b)
	}
}

func TestUnifyToContradiction(t *testing.T) {
	x := NewVariable("x")
	sf := NewSigmaFactory(OneWay)

	if !UnifyTo(x, NewName("a"), EmptyGuard, sf) {
		t.Fatal("first binding should succeed")
	}
	if UnifyTo(x, NewName("b"), EmptyGuard, sf) {
		t.Error("rebinding x to a different ground value should fail")
	}
}

func TestUnifyToArityMismatch(t *testing.T) {
	sf := NewSigmaFactory(OneWay)
	a := NewTuple(NewName("a"), NewName("b"))
	b := NewTuple(NewName("a"))
	if UnifyTo(a, b, EmptyGuard, sf) {
		t.Error("tuples of different arity should not unify")
	}
}

func TestUnifyToRespectsGuard(t *testing.T) {
	x := NewVariable("x")
	g := EmptyGuard.Forbid("x", NewName("a"))

	sf := NewSigmaFactory(OneWay)
	if UnifyTo(x, NewName("a"), g, sf) {
		t.Error("UnifyTo should refuse a binding that violates the guard")
	}

	sf2 := NewSigmaFactory(OneWay)
	if !UnifyTo(x, NewName("b"), g, sf2) {
		t.Error("UnifyTo should accept a binding the guard does not forbid")
	}
}

func TestUnifiableSymmetry(t *testing.T) {
	// Property from spec.md §8: two-way unification symmetry.
	x := NewVariable("x")
	a := NewFunction("pair", x, NewName("b"))
	b := NewFunction("pair", NewName("a"), NewVariable("y"))

	sf1 := NewSigmaFactory(TwoWay)
	ok1 := Unifiable(a, b, EmptyGuard, EmptyGuard, sf1)

	sf2 := NewSigmaFactory(TwoWay)
	ok2 := Unifiable(b, a, EmptyGuard, EmptyGuard, sf2)

	if ok1 != ok2 {
		t.Fatalf("Unifiable(a,b) = %v but Unifiable(b,a) = %v", ok1, ok2)
	}
	if !ok1 {
		t.Fatal("expected a and b to be unifiable")
	}

	got1 := sf1.Forward.Apply(a)
	got2 := sf2.Forward.Apply(b)
	if !got1.Equal(got2) {
		t.Errorf("unified terms differ: %s vs %s", got1, got2)
	}
}

func TestUnifiableFunctionSymbolMismatch(t *testing.T) {
	sf := NewSigmaFactory(TwoWay)
	a := NewFunction("enc", NewName("a"))
	b := NewFunction("dec", NewName("a"))
	if Unifiable(a, b, EmptyGuard, EmptyGuard, sf) {
		t.Error("functions with different symbols must not unify")
	}
}

func TestCanUnifyMessagesBothWaysRefreshesGuard(t *testing.T) {
	// x must not unify to whatever y ends up bound to.
	x := NewVariable("x")
	y := NewVariable("y")
	gFwd := EmptyGuard.Forbid("x", NewName("shared"))
	gBwd := EmptyGuard

	sf := NewSigmaFactory(TwoWay)
	pairs := [][2]*IMessage{
		{y, NewName("shared")},
		{x, y},
	}
	if CanUnifyMessagesBothWays(pairs, gFwd, gBwd, sf) {
		t.Error("second pair should be rejected once y is known to be shared[]")
	}
}
