package horn

// Binding is one entry of a Substitution: a variable mapped to a message.
type Binding struct {
	Var   *IMessage
	Value *IMessage
}

// Substitution is an ordered finite mapping from variables to messages,
// as specified in spec.md §3. Grounded on pkg/minikanren/core.go's
// Substitution (map[int64]Term, Walk, Bind), generalized to an ordered
// sequence over IMessage so that StateSet-style canonical ordering (spec.md
// §9) is reproducible, and keyed by variable name rather than a numeric id
// since IMessage variables are named rather than arena-allocated.
type Substitution struct {
	order []string
	index map[string]int
	vars  map[string]*IMessage
	vals  map[string]*IMessage
}

// Empty is the identity substitution.
var Empty = NewSubstitution()

// NewSubstitution returns an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{
		index: map[string]int{},
		vars:  map[string]*IMessage{},
		vals:  map[string]*IMessage{},
	}
}

// Bindings returns the substitution's entries in insertion order. Callers
// must not mutate the returned slice's contents.
func (s *Substitution) Bindings() []Binding {
	out := make([]Binding, len(s.order))
	for i, name := range s.order {
		out[i] = Binding{Var: s.vars[name], Value: s.vals[name]}
	}
	return out
}

// LookupName returns the message bound to the variable named name, or nil
// if unbound.
func (s *Substitution) LookupName(name string) *IMessage {
	return s.vals[name]
}

// Lookup returns the message bound to v, or nil if unbound.
func (s *Substitution) Lookup(v *IMessage) *IMessage {
	return s.LookupName(v.Name())
}

// Size returns the number of bindings.
func (s *Substitution) Size() int { return len(s.order) }

// With returns a new substitution extending s with v -> value. If v is
// already bound, the prior binding is replaced in place (insertion order is
// preserved).
func (s *Substitution) With(v, value *IMessage) *Substitution {
	out := &Substitution{
		order: append([]string{}, s.order...),
		index: make(map[string]int, len(s.index)),
		vars:  make(map[string]*IMessage, len(s.vars)),
		vals:  make(map[string]*IMessage, len(s.vals)),
	}
	for k, i := range s.index {
		out.index[k] = i
	}
	for k, v := range s.vars {
		out.vars[k] = v
	}
	for k, v := range s.vals {
		out.vals[k] = v
	}
	if _, exists := out.index[v.Name()]; !exists {
		out.index[v.Name()] = len(out.order)
		out.order = append(out.order, v.Name())
	}
	out.vars[v.Name()] = v
	out.vals[v.Name()] = value
	return out
}

// Union concatenates two substitutions; entries of other take precedence
// over entries of s for variables bound in both, matching the rule that the
// more recently recorded binding wins.
func (s *Substitution) Union(other *Substitution) *Substitution {
	out := s
	for _, b := range other.Bindings() {
		out = out.With(b.Var, b.Value)
	}
	return out
}

// Apply substitutes m structurally. Applying to a ground message returns
// the message itself without allocating.
func (s *Substitution) Apply(m *IMessage) *IMessage {
	if m.Ground() {
		return m
	}
	switch m.Kind() {
	case KindVariable:
		if bound := s.Lookup(m); bound != nil {
			return s.Apply(bound)
		}
		return m
	case KindTuple:
		return NewTuple(s.applyAll(m.Args())...)
	case KindFunction:
		return NewFunction(m.Name(), s.applyAll(m.Args())...)
	default:
		return m
	}
}

func (s *Substitution) applyAll(msgs []*IMessage) []*IMessage {
	out := make([]*IMessage, len(msgs))
	for i, a := range msgs {
		out[i] = s.Apply(a)
	}
	return out
}
