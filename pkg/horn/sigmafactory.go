package horn

// SigmaMode selects whether a SigmaFactory accepts writes to only its
// forward map (one-way, for unify_to) or to either side (two-way, for full
// unification), per spec.md §4.1.
type SigmaMode int

const (
	// OneWay restricts a SigmaFactory to forward-only writes.
	OneWay SigmaMode = iota
	// TwoWay allows either side of a SigmaFactory to record a binding.
	TwoWay
)

// SigmaFactory is the pair of co-maintained substitutions (Forward,
// Backward) described in spec.md §3 and §4.1. Forward transforms the first
// operand of a unification toward the second; Backward transforms the
// second toward the first. There is no direct teacher counterpart — the
// teacher unifies into a single Substitution — so this is grounded only on
// the clone-before-mutate, fail-on-contradiction shape of
// pkg/minikanren/primitives.go's unifyWithConstraints, extended here to two
// independent maps with mutual "settle" propagation.
type SigmaFactory struct {
	Forward  *Substitution
	Backward *Substitution
	mode     SigmaMode

	// stateVars holds committed values (or nil for "seen but unconstrained")
	// for variables recognised as naming state-cell contents, the substrate
	// for cross-call consistency checking used by the query engine
	// (spec.md §4.1, §4.6).
	stateVars map[string]*IMessage
}

// NewSigmaFactory returns an empty factory in the given mode.
func NewSigmaFactory(mode SigmaMode) *SigmaFactory {
	return &SigmaFactory{
		Forward:   Empty,
		Backward:  Empty,
		mode:      mode,
		stateVars: map[string]*IMessage{},
	}
}

// Mode reports the factory's write discipline.
func (sf *SigmaFactory) Mode() SigmaMode { return sf.mode }

// Clone returns a deep-enough copy of sf that callers may mutate the copy
// without affecting sf — used when a candidate unification must be
// discarded (spec.md §4.1: "sf may have partial writes and must be
// discarded" on failure).
func (sf *SigmaFactory) Clone() *SigmaFactory {
	out := &SigmaFactory{
		Forward:   sf.Forward,
		Backward:  sf.Backward,
		mode:      sf.mode,
		stateVars: make(map[string]*IMessage, len(sf.stateVars)),
	}
	for k, v := range sf.stateVars {
		out.stateVars[k] = v
	}
	return out
}

// addForward records v -> m on the forward map, settling it into the
// backward map (substituting the new binding into every existing backward
// entry) so the two maps stay mutually consistent. Returns false if v
// already maps to a different message on the forward side.
func (sf *SigmaFactory) addForward(v, m *IMessage) bool {
	if existing := sf.Forward.Lookup(v); existing != nil {
		return existing.Equal(m)
	}
	sf.Forward = sf.Forward.With(v, m)
	sf.settleBackward(v, m)
	return true
}

// addBackward records v -> m on the backward map (only valid in TwoWay
// mode), settling it into the forward map.
func (sf *SigmaFactory) addBackward(v, m *IMessage) bool {
	if sf.mode != TwoWay {
		return false
	}
	if existing := sf.Backward.Lookup(v); existing != nil {
		return existing.Equal(m)
	}
	sf.Backward = sf.Backward.With(v, m)
	sf.settleForward(v, m)
	return true
}

// settleBackward substitutes the newly recorded forward binding v -> m into
// every existing backward entry's value, so that composing Forward and
// Backward stays consistent as new bindings accrue.
func (sf *SigmaFactory) settleBackward(v, m *IMessage) {
	one := NewSubstitution().With(v, m)
	settled := NewSubstitution()
	for _, b := range sf.Backward.Bindings() {
		settled = settled.With(b.Var, one.Apply(b.Value))
	}
	sf.Backward = settled
}

// settleForward is settleBackward's mirror image.
func (sf *SigmaFactory) settleForward(v, m *IMessage) {
	one := NewSubstitution().With(v, m)
	settled := NewSubstitution()
	for _, b := range sf.Forward.Bindings() {
		settled = settled.With(b.Var, one.Apply(b.Value))
	}
	sf.Forward = settled
}

// CommitStateVar records value as the committed value for the state
// variable named name. Returns false if name was already committed to a
// different value — a contradiction the caller must treat as a failed
// admission (spec.md §4.1's state-variable consistency substrate).
func (sf *SigmaFactory) CommitStateVar(name string, value *IMessage) bool {
	if existing, ok := sf.stateVars[name]; ok && existing != nil {
		return existing.Equal(value)
	}
	sf.stateVars[name] = value
	return true
}

// StateVar returns the committed value for name, or nil if the state
// variable has not yet been committed.
func (sf *SigmaFactory) StateVar(name string) *IMessage { return sf.stateVars[name] }

// CommitAll commits every entry of vars in turn, stopping at the first
// contradiction. Returns false (with some prefix of vars possibly already
// committed) if any entry conflicts with an existing commitment; callers
// that need an all-or-nothing commit should call this on a Clone.
func (sf *SigmaFactory) CommitAll(vars map[string]*IMessage) bool {
	for name, value := range vars {
		if !sf.CommitStateVar(name, value) {
			return false
		}
	}
	return true
}
