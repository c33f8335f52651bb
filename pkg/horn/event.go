package horn

import "fmt"

// EventTag discriminates the six Event variants of spec.md §3.
type EventTag int

const (
	// Know tags the attacker-knowledge predicate: the main unification
	// predicate events must share to be mutually unifiable.
	Know EventTag = iota
	// New tags the generation of a fresh nonce, optionally at a location.
	New
	// Init tags a sequence of initialization messages.
	Init
	// Accept tags a sequence of acceptance messages.
	Accept
	// Leak tags the leak-query predicate.
	Leak
	// Make tags a message that a rule produces as a side effect, feeding
	// the frame-level clause emission of spec.md §4.5.
	Make
)

func (t EventTag) String() string {
	switch t {
	case Know:
		return "know"
	case New:
		return "new"
	case Init:
		return "init"
	case Accept:
		return "accept"
	case Leak:
		return "leak"
	case Make:
		return "make"
	default:
		return "unknown"
	}
}

// Event is a tagged message pack, per spec.md §3. Know/Leak/Make carry one
// message; New carries one nonce and an optional location name; Init/Accept
// carry an ordered sequence. Grounded on pkg/minikanren/pldb.go's Fact (an
// immutable tagged tuple of terms with structural hashing), which spec.md
// §9 calls out directly: "events used as dictionary keys during rule
// composition rely on structural equality, not identity" — the same
// invariant Fact establishes for PLDB lookups.
type Event struct {
	tag      EventTag
	messages []*IMessage
	location string // only meaningful for New
}

// NewKnowEvent, NewLeakEvent and NewMakeEvent build single-message events.
func NewKnowEvent(m *IMessage) Event { return Event{tag: Know, messages: []*IMessage{m}} }
func NewLeakEvent(m *IMessage) Event { return Event{tag: Leak, messages: []*IMessage{m}} }
func NewMakeEvent(m *IMessage) Event { return Event{tag: Make, messages: []*IMessage{m}} }

// NewNewEvent builds a New event for a nonce, with an optional location
// name (empty string if none was declared).
func NewNewEvent(nonce *IMessage, location string) Event {
	return Event{tag: New, messages: []*IMessage{nonce}, location: location}
}

// NewInitEvent and NewAcceptEvent build ordered-sequence events.
func NewInitEvent(msgs ...*IMessage) Event   { return Event{tag: Init, messages: msgs} }
func NewAcceptEvent(msgs ...*IMessage) Event { return Event{tag: Accept, messages: msgs} }

// Tag reports the event's variant.
func (e Event) Tag() EventTag { return e.tag }

// Messages returns the event's carried messages: a one-element slice for
// Know/New/Leak/Make, the full ordered sequence for Init/Accept.
func (e Event) Messages() []*IMessage { return e.messages }

// Message returns the single carried message of a Know/New/Leak/Make event.
// Panics if called on an Init or Accept event; callers should check Tag
// first, matching spec.md's "carry one message" invariant.
func (e Event) Message() *IMessage {
	if e.tag == Init || e.tag == Accept {
		panic(fmt.Sprintf("horn: Message() called on a %s event carrying a sequence", e.tag))
	}
	return e.messages[0]
}

// Location returns the declared generation site of a New event, or "" if
// none was given or the event is not a New event.
func (e Event) Location() string { return e.location }

// Equal is structural equality over tag, messages and location.
func (e Event) Equal(other Event) bool {
	if e.tag != other.tag || e.location != other.location || len(e.messages) != len(other.messages) {
		return false
	}
	for i := range e.messages {
		if !e.messages[i].Equal(other.messages[i]) {
			return false
		}
	}
	return true
}

// Substitute applies sub to every message the event carries.
func (e Event) Substitute(sub *Substitution) Event {
	out := Event{tag: e.tag, location: e.location, messages: make([]*IMessage, len(e.messages))}
	for i, m := range e.messages {
		out.messages[i] = sub.Apply(m)
	}
	return out
}

// Variables returns the distinct variables occurring across the event's
// messages, implementing the ISigmaUnifiable capability of spec.md §9.
func (e Event) Variables() []*IMessage {
	seen := map[string]bool{}
	var out []*IMessage
	for _, m := range e.messages {
		for _, v := range m.Variables() {
			if !seen[v.Name()] {
				seen[v.Name()] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// UnifyTo implements ISigmaUnifiable.UnifyTo: events unify only when tags
// match (spec.md §3), then defer to message-level UnifyTo element-wise.
func (e Event) UnifyTo(other Event, g *Guard, sf *SigmaFactory) bool {
	if e.tag != other.tag || len(e.messages) != len(other.messages) {
		return false
	}
	for i := range e.messages {
		if !UnifyTo(e.messages[i], other.messages[i], g, sf) {
			return false
		}
	}
	return true
}

// Unifiable implements ISigmaUnifiable.Unifiable, the two-sided form.
func (e Event) Unifiable(other Event, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	if e.tag != other.tag || len(e.messages) != len(other.messages) {
		return false
	}
	for i := range e.messages {
		if !Unifiable(e.messages[i], other.messages[i], gFwd, gBwd, sf) {
			return false
		}
	}
	return true
}

// String renders e using the §6.1 prefix(args) textual form.
func (e Event) String() string {
	switch e.tag {
	case New:
		if e.location != "" {
			return fmt.Sprintf("new(%s, %s)", e.messages[0], e.location)
		}
		return fmt.Sprintf("new(%s)", e.messages[0])
	case Init, Accept:
		parts := make([]string, len(e.messages))
		for i, m := range e.messages {
			parts[i] = m.String()
		}
		sep := ""
		for i, p := range parts {
			if i > 0 {
				sep += ", "
			}
			sep += p
		}
		return fmt.Sprintf("%s(%s)", e.tag, sep)
	default:
		return fmt.Sprintf("%s(%s)", e.tag, e.messages[0])
	}
}
