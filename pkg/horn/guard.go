package horn

// Guard is an immutable mapping from variables (by name) to forbidden
// value sets, as specified in spec.md §3. Grounded on
// pkg/minikanren/constraint_types.go's DisequalityConstraint — generalized
// from a single pairwise (term1 ≠ term2) constraint to a per-variable set
// of forbidden messages, with the forward cross-reference closure that
// CanUnifyAllMessages performs.
type Guard struct {
	forbidden map[string][]*IMessage
}

// EmptyGuard is the identity constraint: every substitution is compatible
// with it.
var EmptyGuard = &Guard{}

// NewGuard builds a guard from an explicit variable-name -> forbidden-value
// map. The supplied map is copied.
func NewGuard(forbidden map[string][]*IMessage) *Guard {
	if len(forbidden) == 0 {
		return EmptyGuard
	}
	cp := make(map[string][]*IMessage, len(forbidden))
	for k, v := range forbidden {
		vv := make([]*IMessage, len(v))
		copy(vv, v)
		cp[k] = vv
	}
	return &Guard{forbidden: cp}
}

// Forbid returns a new guard with var forbidden from unifying with value,
// in addition to any existing constraints on var.
func (g *Guard) Forbid(varName string, value *IMessage) *Guard {
	cp := map[string][]*IMessage{}
	for k, v := range g.forbidden {
		cp[k] = append([]*IMessage{}, v...)
	}
	cp[varName] = append(cp[varName], value)
	return NewGuard(cp)
}

// ForbiddenValues returns the forbidden-value set recorded for varName.
func (g *Guard) ForbiddenValues(varName string) []*IMessage {
	return g.forbidden[varName]
}

// Variables returns the set of variable names this guard constrains.
func (g *Guard) Variables() []string {
	out := make([]string, 0, len(g.forbidden))
	for k := range g.forbidden {
		out = append(out, k)
	}
	return out
}

// IsEmpty reports whether g carries no constraints.
func (g *Guard) IsEmpty() bool { return len(g.forbidden) == 0 }

// Union merges two guards, concatenating forbidden-value sets for variables
// that appear in both.
func (g *Guard) Union(other *Guard) *Guard {
	if g.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return g
	}
	cp := map[string][]*IMessage{}
	for k, v := range g.forbidden {
		cp[k] = append([]*IMessage{}, v...)
	}
	for k, v := range other.forbidden {
		cp[k] = append(cp[k], v...)
	}
	return NewGuard(cp)
}

// Filter restricts g to the given variable names, dropping constraints on
// any variable not in the set.
func (g *Guard) Filter(varNames map[string]bool) *Guard {
	cp := map[string][]*IMessage{}
	for k, v := range g.forbidden {
		if varNames[k] {
			cp[k] = v
		}
	}
	return NewGuard(cp)
}

// Substitute applies sub to every forbidden value, and drops entries whose
// left-hand variable has itself been instantiated to a non-variable by sub
// — those variables no longer exist to be guarded.
func (g *Guard) Substitute(sub *Substitution) *Guard {
	cp := map[string][]*IMessage{}
	for varName, values := range g.forbidden {
		if bound := sub.LookupName(varName); bound != nil && !bound.IsVariable() {
			continue
		}
		newValues := make([]*IMessage, len(values))
		for i, v := range values {
			newValues[i] = sub.Apply(v)
		}
		// the variable may have been renamed to another variable by sub
		key := varName
		if bound := sub.LookupName(varName); bound != nil && bound.IsVariable() {
			key = bound.Name()
		}
		cp[key] = append(cp[key], newValues...)
	}
	return NewGuard(cp)
}

// CanUnifyAllMessages checks guard compatibility for a whole substitution:
// for every (x -> v) binding in sub, no element of g(x) may become equal to
// v once sub itself is applied to that element — including when an
// indirect chain of bindings makes them equal only after closure, per
// spec.md §4.1 ("or if an indirect chain of bindings makes them equal
// after closure").
func (g *Guard) CanUnifyAllMessages(sub *Substitution) bool {
	if g.IsEmpty() {
		return true
	}
	for _, b := range sub.Bindings() {
		forbidden := g.forbidden[b.Var.Name()]
		resolvedValue := sub.Apply(b.Value)
		for _, banned := range forbidden {
			if sub.Apply(banned).Equal(resolvedValue) {
				return false
			}
		}
	}
	return true
}

// CanUnifyMessagesOneWay checks guard compatibility for a list of candidate
// bindings applied in order (spec.md §4.1's multi-message helper), without
// refreshing the guard between pairs — used for the one-way unify_to form.
func CanUnifyMessagesOneWay(pairs [][2]*IMessage, g *Guard, sf *SigmaFactory) bool {
	for _, p := range pairs {
		if !UnifyTo(p[0], p[1], g, sf) {
			return false
		}
	}
	return true
}

// CanUnifyMessagesBothWays checks guard compatibility for a list of
// candidate pairs under the two-sided unification form, substituting the
// partial sigma into the trailing guards after each pair so that later
// pairs see a refreshed guard, per spec.md §4.1.
func CanUnifyMessagesBothWays(pairs [][2]*IMessage, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	for _, p := range pairs {
		if !Unifiable(p[0], p[1], gFwd, gBwd, sf) {
			return false
		}
		gFwd = gFwd.Substitute(sf.Forward)
		gBwd = gBwd.Substitute(sf.Backward)
	}
	return true
}
