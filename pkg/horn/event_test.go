package horn

import "testing"

func TestEventTagsMustMatchToUnify(t *testing.T) {
	know := NewKnowEvent(NewVariable("x"))
	leak := NewLeakEvent(NewVariable("x"))

	sf := NewSigmaFactory(OneWay)
	if know.UnifyTo(leak, EmptyGuard, sf) {
		t.Error("events with different tags must not unify even with the same payload")
	}
}

func TestEventUnifyToPayload(t *testing.T) {
	k1 := NewKnowEvent(NewVariable("x"))
	k2 := NewKnowEvent(NewName("secret"))

	sf := NewSigmaFactory(OneWay)
	if !k1.UnifyTo(k2, EmptyGuard, sf) {
		t.Fatal("Know events with unifiable payloads should unify")
	}
	if got := sf.Forward.Apply(NewVariable("x")); !got.Equal(NewName("secret")) {
		t.Errorf("x = %s, want secret[]", got)
	}
}

func TestNewEventLocation(t *testing.T) {
	e := NewNewEvent(NewNonce("n1"), "alice")
	if e.Location() != "alice" {
		t.Errorf("Location() = %q, want alice", e.Location())
	}
	if e.String() != "new([n1], alice)" {
		t.Errorf("String() = %q", e.String())
	}
}

func TestEventSubstitute(t *testing.T) {
	x := NewVariable("x")
	e := NewKnowEvent(NewFunction("enc", x))
	sub := NewSubstitution().With(x, NewName("a"))

	got := e.Substitute(sub)
	if !got.Message().Equal(NewFunction("enc", NewName("a"))) {
		t.Errorf("Substitute did not rewrite the payload: %s", got)
	}
}

func TestEventMessagePanicsOnSequence(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Message() on an Init event should panic")
		}
	}()
	NewInitEvent(NewName("a"), NewName("b")).Message()
}
