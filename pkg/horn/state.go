package horn

import "sort"

// State is a named cell holding a message value (spec.md §3). Equality is
// name + value. Grounded on pkg/minikanren/pldb.go's Relation/indexed-fact
// model, simplified here to a single named cell since a nession's
// StateSet, not an individual State, is the thing that needs indexed
// lookup by name.
type State struct {
	Name  string
	Value *IMessage
}

// NewState builds a state cell.
func NewState(name string, value *IMessage) State {
	return State{Name: name, Value: value}
}

// Equal compares two states by name and value.
func (s State) Equal(other State) bool {
	return s.Name == other.Name && s.Value.Equal(other.Value)
}

// Substitute applies sub to the state's value.
func (s State) Substitute(sub *Substitution) State {
	return State{Name: s.Name, Value: sub.Apply(s.Value)}
}

// UnifyTo implements ISigmaUnifiable.UnifyTo: cell names must match
// literally (cell names are not symbolic), then the values unify.
func (s State) UnifyTo(other State, g *Guard, sf *SigmaFactory) bool {
	if s.Name != other.Name {
		return false
	}
	return UnifyTo(s.Value, other.Value, g, sf)
}

// Unifiable implements ISigmaUnifiable.Unifiable, the two-sided form.
func (s State) Unifiable(other State, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	if s.Name != other.Name {
		return false
	}
	return Unifiable(s.Value, other.Value, gFwd, gBwd, sf)
}

func (s State) String() string { return s.Name + "(" + s.Value.String() + ")" }

// StateSet is a multiset of state cells ordered by name, giving a nession
// frame a canonical form per spec.md §9's "sorted containers" note: "use an
// ordered sequence sorted at construction rather than a hash set to make
// frame equality canonical."
type StateSet struct {
	cells []State
}

// NewStateSet builds a StateSet, sorting its cells by name.
func NewStateSet(cells ...State) StateSet {
	cp := make([]State, len(cells))
	copy(cp, cells)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Name < cp[j].Name })
	return StateSet{cells: cp}
}

// Cells returns the set's cells in canonical (name-sorted) order. Callers
// must not mutate the returned slice.
func (s StateSet) Cells() []State { return s.cells }

// Lookup returns the cell named name and true, or the zero State and false.
func (s StateSet) Lookup(name string) (State, bool) {
	for _, c := range s.cells {
		if c.Name == name {
			return c, true
		}
	}
	return State{}, false
}

// Equal compares two state sets structurally: same length, same cells in
// canonical order. Because both sides are canonically sorted, this is a
// true multiset comparison independent of construction order.
func (s StateSet) Equal(other StateSet) bool {
	if len(s.cells) != len(other.cells) {
		return false
	}
	for i := range s.cells {
		if !s.cells[i].Equal(other.cells[i]) {
			return false
		}
	}
	return true
}

// Replace returns a new StateSet with the cell named name replaced by
// newValue. If no cell named name exists, the set is returned unchanged —
// callers in the elaborator are expected to have already validated the
// cell exists via snapshot-tree implication.
func (s StateSet) Replace(name string, newValue *IMessage) StateSet {
	cp := make([]State, len(s.cells))
	copy(cp, s.cells)
	for i, c := range cp {
		if c.Name == name {
			cp[i] = State{Name: name, Value: newValue}
		}
	}
	return NewStateSet(cp...)
}

// Substitute applies sub to every cell's value.
func (s StateSet) Substitute(sub *Substitution) StateSet {
	cp := make([]State, len(s.cells))
	for i, c := range s.cells {
		cp[i] = c.Substitute(sub)
	}
	return NewStateSet(cp...)
}
