// Package horn implements the stateful Horn-clause verification core: a
// term algebra with two-sided unification, a nession elaborator that
// performs forward symbolic execution over state cells, and a ranked
// backward-chaining resolver that answers leak queries over the clauses
// the elaborator derives.
//
// The package is organized the way a hand-rolled term-rewriting engine
// usually is: one flat package, one file per concept, with the dependency
// order running leaves first — messages, guards, substitutions and the
// sigma-factory, then events, states, snapshots and snapshot trees, then
// rules, Horn clauses, nessions, the elaborator, the query engine, and
// finally attacks.
package horn

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the five IMessage variants.
type Kind int

const (
	// KindVariable identifies a logic variable, unifiable with anything
	// subject to a guard.
	KindVariable Kind = iota
	// KindName identifies a ground atomic constant written foo[].
	KindName
	// KindNonce identifies a ground atomic constant with generation-site
	// identity, written [nonce].
	KindNonce
	// KindTuple identifies an ordered sequence of sub-messages.
	KindTuple
	// KindFunction identifies a symbol applied to an ordered argument list.
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "Variable"
	case KindName:
		return "Name"
	case KindNonce:
		return "Nonce"
	case KindTuple:
		return "Tuple"
	case KindFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// IMessage is the recursive algebraic value described in spec.md §3.
// Messages are immutable once constructed; all the operations below return
// new values instead of mutating receivers.
type IMessage struct {
	kind Kind

	// name holds the variable name for KindVariable, the constant name for
	// KindName/KindNonce, and the function symbol for KindFunction.
	name string

	// args holds tuple elements for KindTuple and function arguments for
	// KindFunction. Unused for the other three kinds.
	args []*IMessage
}

// NewVariable builds a variable message identified by name. Two variables
// with the same name are the same variable: Equal compares variables by
// name, not by pointer. Callers that need alpha-distinct fresh variables
// should mint names through a counter (see Nession's v-number freshening).
func NewVariable(name string) *IMessage {
	return &IMessage{kind: KindVariable, name: name}
}

// NewName builds a ground constant, written name[] in the textual syntax.
func NewName(name string) *IMessage {
	return &IMessage{kind: KindName, name: name}
}

// NewNonce builds a ground constant distinguished from names, written
// [name] in the textual syntax, intended to represent a freshly generated
// value.
func NewNonce(name string) *IMessage {
	return &IMessage{kind: KindNonce, name: name}
}

// NewTuple builds an ordered sequence of sub-messages, written <m1, m2, ...>.
func NewTuple(elems ...*IMessage) *IMessage {
	cp := make([]*IMessage, len(elems))
	copy(cp, elems)
	return &IMessage{kind: KindTuple, args: cp}
}

// NewFunction builds a symbol applied to an ordered argument list, written
// symbol(m1, ..., mk).
func NewFunction(symbol string, args ...*IMessage) *IMessage {
	cp := make([]*IMessage, len(args))
	copy(cp, args)
	return &IMessage{kind: KindFunction, name: symbol, args: cp}
}

// Kind reports which of the five variants m is.
func (m *IMessage) Kind() Kind { return m.kind }

// Name returns the variable name, the constant name, or the function
// symbol, depending on Kind. Empty for tuples.
func (m *IMessage) Name() string { return m.name }

// Args returns the tuple elements or function arguments. Callers must not
// mutate the returned slice.
func (m *IMessage) Args() []*IMessage { return m.args }

// IsVariable, IsName, IsNonce, IsTuple and IsFunction are Kind predicates.
func (m *IMessage) IsVariable() bool { return m.kind == KindVariable }
func (m *IMessage) IsName() bool     { return m.kind == KindName }
func (m *IMessage) IsNonce() bool    { return m.kind == KindNonce }
func (m *IMessage) IsTuple() bool    { return m.kind == KindTuple }
func (m *IMessage) IsFunction() bool { return m.kind == KindFunction }

// IsAtomicConstant reports whether m is a ground Name or Nonce leaf — the
// "basic fact" candidates of spec.md §4.6.
func (m *IMessage) IsAtomicConstant() bool { return m.kind == KindName || m.kind == KindNonce }

// IsComplex reports whether m is a Function or Tuple — the shapes that
// Horn-clause composition (spec.md §4.3) requires of a composing clause's
// result.
func (m *IMessage) IsComplex() bool { return m.kind == KindTuple || m.kind == KindFunction }

// ContainsVariables is true iff any leaf of m is a variable.
func (m *IMessage) ContainsVariables() bool {
	switch m.kind {
	case KindVariable:
		return true
	case KindTuple, KindFunction:
		for _, a := range m.args {
			if a.ContainsVariables() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Ground reports whether m contains no variables.
func (m *IMessage) Ground() bool { return !m.ContainsVariables() }

// FindMaximumDepth returns the longest nesting depth of m. A leaf (Variable,
// Name or Nonce) has depth 1.
func (m *IMessage) FindMaximumDepth() int {
	switch m.kind {
	case KindTuple, KindFunction:
		max := 0
		for _, a := range m.args {
			if d := a.FindMaximumDepth(); d > max {
				max = d
			}
		}
		return 1 + max
	default:
		return 1
	}
}

// Variables returns the set of distinct variables occurring in m, in
// first-occurrence order.
func (m *IMessage) Variables() []*IMessage {
	seen := map[string]bool{}
	var out []*IMessage
	var walk func(t *IMessage)
	walk = func(t *IMessage) {
		switch t.kind {
		case KindVariable:
			if !seen[t.name] {
				seen[t.name] = true
				out = append(out, t)
			}
		case KindTuple, KindFunction:
			for _, a := range t.args {
				walk(a)
			}
		}
	}
	walk(m)
	return out
}

// Equal is structural equality: variables compare by name, constants by
// kind and name, tuples and functions by arity, symbol (for functions) and
// element-wise equality.
func (m *IMessage) Equal(other *IMessage) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	if m.kind != other.kind {
		return false
	}
	switch m.kind {
	case KindVariable, KindName, KindNonce:
		return m.name == other.name
	case KindFunction:
		if m.name != other.name || len(m.args) != len(other.args) {
			return false
		}
	case KindTuple:
		if len(m.args) != len(other.args) {
			return false
		}
	}
	for i := range m.args {
		if !m.args[i].Equal(other.args[i]) {
			return false
		}
	}
	return true
}

// Clone returns m unchanged: messages are immutable value-like aggregates,
// so cloning is the identity. Clone exists to satisfy ISigmaUnifiable-
// adjacent code that expects a Clone method on shared value types (see
// spec.md §9's ISigmaUnifiable note).
func (m *IMessage) Clone() *IMessage { return m }

// String renders m using the textual grammar of spec.md §6.1.
func (m *IMessage) String() string {
	switch m.kind {
	case KindVariable:
		return m.name
	case KindName:
		return m.name + "[]"
	case KindNonce:
		return "[" + m.name + "]"
	case KindTuple:
		parts := make([]string, len(m.args))
		for i, a := range m.args {
			parts[i] = a.String()
		}
		return "<" + strings.Join(parts, ", ") + ">"
	case KindFunction:
		parts := make([]string, len(m.args))
		for i, a := range m.args {
			parts[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", m.name, strings.Join(parts, ", "))
	default:
		return "?"
	}
}

// sortKey is a total order used to give slices of messages ("StateSets" and
// the like, spec.md §9) a canonical ordering independent of insertion order.
func (m *IMessage) sortKey() string { return m.String() }

// SortMessages returns a new slice containing msgs in canonical order.
func SortMessages(msgs []*IMessage) []*IMessage {
	out := make([]*IMessage, len(msgs))
	copy(out, msgs)
	sort.Slice(out, func(i, j int) bool { return out[i].sortKey() < out[j].sortKey() })
	return out
}
