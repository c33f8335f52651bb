package horn

// Provenance records how a HornClause came to exist, per spec.md §3's
// "derived invariants... and a provenance" and §4.3's "provenance records
// the two parents." A clause with no ParentA/ParentB is a leaf: either a
// directly declared fact/rule, or a frame-level Make clause.
type Provenance struct {
	Source    string // "fact", "rule", "make", "compose", or "detuple"
	Nession   int    // nession index, -1 if not nession-derived
	Frame     int    // frame index within the nession, -1 if not applicable
	RuleID    int    // originating rule's id-tag, 0 if not applicable
	ParentA   *HornClause
	ParentB   *HornClause

	// StateVars names the cells the originating rule's snapshot tree
	// matched against, mapped to the ground value each held at admission
	// time. The query engine commits these into its σ-factory's
	// state-variable dictionary (spec.md §4.1, §4.6) so that two proof
	// branches citing the same cell at different ranks are rejected if
	// they disagree on its value.
	StateVars map[string]*IMessage
}

// unboundedRank is the sentinel spec.md §3 calls "-1 meaning
// unbounded/any".
const unboundedRank = -1

// HornClause is a premise set, a result message, a guard, a rank and a
// provenance, per spec.md §3. Grounded on pkg/minikanren/pldb.go's
// Query/join logic (matching a pattern against stored facts, substituting,
// and returning new derived facts), generalized from fact-vs-relation
// matching to clause-vs-clause resolution with guard and rank bookkeeping,
// and on pkg/minikanren/fact_store.go's provenance chain for derived facts.
type HornClause struct {
	Premises   []*IMessage
	Result     *IMessage
	Guard      *Guard
	Rank       int
	Provenance Provenance
}

// NewFact builds a premise-less, fact-sourced clause.
func NewFact(result *IMessage, guard *Guard) *HornClause {
	if guard == nil {
		guard = EmptyGuard
	}
	return &HornClause{Result: result, Guard: guard, Rank: unboundedRank, Provenance: Provenance{Source: "fact", Nession: -1, Frame: -1}}
}

// NewClause builds a general clause with an explicit rank and provenance.
func NewClause(premises []*IMessage, result *IMessage, guard *Guard, rank int, prov Provenance) *HornClause {
	if guard == nil {
		guard = EmptyGuard
	}
	return &HornClause{Premises: append([]*IMessage{}, premises...), Result: result, Guard: guard, Rank: rank, Provenance: prov}
}

// Complexity is the max depth of any term the clause mentions, per
// spec.md §3.
func (c *HornClause) Complexity() int {
	max := c.Result.FindMaximumDepth()
	for _, p := range c.Premises {
		if d := p.FindMaximumDepth(); d > max {
			max = d
		}
	}
	return max
}

// IncreasesComplexity reports whether the result is strictly deeper than
// every premise (spec.md §3).
func (c *HornClause) IncreasesComplexity() bool {
	rd := c.Result.FindMaximumDepth()
	for _, p := range c.Premises {
		if p.FindMaximumDepth() >= rd {
			return false
		}
	}
	return true
}

// DecreasesComplexity reports whether the result is no deeper than some
// premise.
func (c *HornClause) DecreasesComplexity() bool {
	return !c.IncreasesComplexity()
}

// BeforeRank holds if either rank is unbounded or c.Rank <= r, per
// spec.md §3.
func (c *HornClause) BeforeRank(r int) bool {
	return c.Rank == unboundedRank || r == unboundedRank || c.Rank <= r
}

// RatchetRank computes min(r1, r2) treating -1 as infinity, per spec.md §3.
func RatchetRank(r1, r2 int) int {
	switch {
	case r1 == unboundedRank:
		return r2
	case r2 == unboundedRank:
		return r1
	case r1 < r2:
		return r1
	default:
		return r2
	}
}

// ComposeUpon produces the clauses that result from unifying a's result
// with each of b's premises, per spec.md §4.3. a must have a complex
// (function or tuple) result; a's rank must precede b's (BeforeRank); and
// the substituted result must not recur among the composed premises.
// Grounded on pkg/minikanren/pldb.go's join-and-substitute Query logic,
// generalized to clause-clause resolution instead of fact-relation
// matching.
func (a *HornClause) ComposeUpon(b *HornClause) []*HornClause {
	if !a.Result.IsComplex() {
		return nil
	}
	if !a.BeforeRank(b.Rank) {
		return nil
	}

	var out []*HornClause
	for i, premise := range b.Premises {
		sf := NewSigmaFactory(TwoWay)
		if !Unifiable(a.Result, premise, a.Guard, b.Guard, sf) {
			continue
		}

		newPremises := make([]*IMessage, 0, len(a.Premises)+len(b.Premises)-1)
		for _, p := range a.Premises {
			newPremises = append(newPremises, sf.Forward.Apply(p))
		}
		for j, bp := range b.Premises {
			if j == i {
				continue
			}
			newPremises = append(newPremises, sf.Backward.Apply(bp))
		}

		newResult := sf.Backward.Apply(b.Result)
		if messageListContains(newPremises, newResult) {
			continue
		}

		newGuard := a.Guard.Substitute(sf.Forward).Union(b.Guard.Substitute(sf.Backward))
		clause := &HornClause{
			Premises: newPremises,
			Result:   newResult,
			Guard:    newGuard,
			Rank:     RatchetRank(a.Rank, b.Rank),
			Provenance: Provenance{
				Source:  "compose",
				Nession: -1,
				Frame:   -1,
				ParentA: a,
				ParentB: b,
			},
		}
		out = append(out, clause)
	}
	return out
}

func messageListContains(list []*IMessage, m *IMessage) bool {
	for _, item := range list {
		if item.Equal(m) {
			return true
		}
	}
	return false
}

// Detuple replaces a clause whose result is a tuple <m1,...,mk> with k
// clauses sharing its premises, guard and rank, each with result mi, per
// spec.md §4.3. Returns a single-element slice containing c unchanged if
// c's result is not a tuple — detupling is idempotent.
func (c *HornClause) Detuple() []*HornClause {
	if !c.Result.IsTuple() {
		return []*HornClause{c}
	}
	out := make([]*HornClause, len(c.Result.Args()))
	for i, elem := range c.Result.Args() {
		out[i] = &HornClause{
			Premises:   c.Premises,
			Result:     elem,
			Guard:      c.Guard,
			Rank:       c.Rank,
			Provenance: Provenance{Source: "detuple", Nession: c.Provenance.Nession, Frame: c.Provenance.Frame, ParentA: c},
		}
	}
	return out
}

// DetupleAll applies Detuple across a whole clause set.
func DetupleAll(clauses []*HornClause) []*HornClause {
	var out []*HornClause
	for _, c := range clauses {
		out = append(out, c.Detuple()...)
	}
	return out
}
