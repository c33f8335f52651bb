package horn

import "sync/atomic"

// RuleKind discriminates the two Rule variants of spec.md §3 and §9.
type RuleKind int

const (
	// ConsistentRule fires without rewriting any cell: premises and a
	// snapshot tree gate a single event result.
	ConsistentRule RuleKind = iota
	// TransferringRule rewrites one or more cells: premises and a
	// snapshot tree gate a set of (snapshot, new-state) transformations.
	TransferringRule
)

func (k RuleKind) String() string {
	if k == TransferringRule {
		return "transferring"
	}
	return "consistent"
}

// Transformation is one (snapshot, new-state) pair a transferring rule
// applies, per spec.md §3.
type Transformation struct {
	Snapshot SnapshotHandle
	NewState *IMessage
}

// TransformationSet is the ISigmaUnifiable-capable ordered collection of
// transformations a transferring rule's result carries (spec.md §9).
type TransformationSet struct {
	items []Transformation
}

// NewTransformationSet builds a transformation set.
func NewTransformationSet(items ...Transformation) TransformationSet {
	cp := make([]Transformation, len(items))
	copy(cp, items)
	return TransformationSet{items: cp}
}

// Items returns the set's transformations. Callers must not mutate the
// returned slice.
func (ts TransformationSet) Items() []Transformation { return ts.items }

// Variables implements ISigmaUnifiable.Variables for a transformation set.
func (ts TransformationSet) Variables() []*IMessage {
	seen := map[string]bool{}
	var out []*IMessage
	for _, item := range ts.items {
		for _, v := range item.NewState.Variables() {
			if !seen[v.Name()] {
				seen[v.Name()] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Substitute applies sub to every transformation's new-state value.
func (ts TransformationSet) Substitute(sub *Substitution) TransformationSet {
	out := make([]Transformation, len(ts.items))
	for i, item := range ts.items {
		out[i] = Transformation{Snapshot: item.Snapshot, NewState: sub.Apply(item.NewState)}
	}
	return TransformationSet{items: out}
}

// UnifyTo implements ISigmaUnifiable.UnifyTo: transformation sets unify
// elementwise, by position, matching snapshot handles over the same arena.
func (ts TransformationSet) UnifyTo(other TransformationSet, g *Guard, sf *SigmaFactory) bool {
	if len(ts.items) != len(other.items) {
		return false
	}
	for i := range ts.items {
		if ts.items[i].Snapshot != other.items[i].Snapshot {
			return false
		}
		if !UnifyTo(ts.items[i].NewState, other.items[i].NewState, g, sf) {
			return false
		}
	}
	return true
}

// Unifiable implements ISigmaUnifiable.Unifiable, the two-sided form.
func (ts TransformationSet) Unifiable(other TransformationSet, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	if len(ts.items) != len(other.items) {
		return false
	}
	for i := range ts.items {
		if ts.items[i].Snapshot != other.items[i].Snapshot {
			return false
		}
		if !Unifiable(ts.items[i].NewState, other.items[i].NewState, gFwd, gBwd, sf) {
			return false
		}
	}
	return true
}

// ruleSeq assigns the monotonic id-tag spec.md §4.4 step 1 uses for
// idempotent admission: "if n's tail frame already contains a rule with
// the same id-tag as r, skip." The counter is package-level and shared by
// every engine in the process, so it is advanced atomically: hosts such
// as the batch command compile models concurrently.
var ruleSeq int64

func nextRuleID() int {
	return int(atomic.AddInt64(&ruleSeq, 1))
}

// Rule is the tagged sum of spec.md §3 and §9: either Consistent (a single
// Event result) or Transferring (a TransformationSet result). Grounded on
// pkg/minikanren/concrete_solvers.go's solver-registry pattern, which
// dispatches by a discriminator field instead of a class hierarchy — the
// same replacement spec.md §9 asks for here.
type Rule struct {
	id       int
	kind     RuleKind
	premises []Event
	tree     *SnapshotTree
	guard    *Guard

	resultEvent Event
	resultSet   TransformationSet
}

// NewConsistentRule builds a state-consistent rule. Returns a *RuleError if
// result also occurs (structurally) among premises — spec.md §7's "rule
// result also appears as premise" construction error.
func NewConsistentRule(premises []Event, tree *SnapshotTree, guard *Guard, result Event) (*Rule, error) {
	if guard == nil {
		guard = EmptyGuard
	}
	for _, p := range premises {
		if p.Equal(result) {
			return nil, wrapRuleError("consistent rule result duplicates one of its own premises")
		}
	}
	return &Rule{
		id:          nextRuleID(),
		kind:        ConsistentRule,
		premises:    append([]Event{}, premises...),
		tree:        tree,
		guard:       guard,
		resultEvent: result,
	}, nil
}

// NewTransferringRule builds a state-transferring rule. Returns a
// *RuleError if the transformation set is empty — a transferring rule that
// changes nothing is not a meaningful construction.
func NewTransferringRule(premises []Event, tree *SnapshotTree, guard *Guard, result TransformationSet) (*Rule, error) {
	if guard == nil {
		guard = EmptyGuard
	}
	if len(result.items) == 0 {
		return nil, wrapRuleError("transferring rule must declare at least one transformation")
	}
	return &Rule{
		id:        nextRuleID(),
		kind:      TransferringRule,
		premises:  append([]Event{}, premises...),
		tree:      tree,
		guard:     guard,
		resultSet: result,
	}, nil
}

// ID returns the rule's id-tag, assigned at construction and used for
// idempotent admission (spec.md §4.4 step 1).
func (r *Rule) ID() int { return r.id }

// Kind reports which variant r is.
func (r *Rule) Kind() RuleKind { return r.kind }

// Premises returns r's premise events. Callers must not mutate the
// returned slice.
func (r *Rule) Premises() []Event { return r.premises }

// SnapshotTree returns r's required trace pattern, or nil if r has none
// (a stateless rule).
func (r *Rule) SnapshotTree() *SnapshotTree { return r.tree }

// Guard returns r's guard.
func (r *Rule) Guard() *Guard { return r.guard }

// ResultEvent returns the single event result of a Consistent rule. Panics
// if r is Transferring.
func (r *Rule) ResultEvent() Event {
	if r.kind != ConsistentRule {
		panic("horn: ResultEvent called on a transferring rule")
	}
	return r.resultEvent
}

// ResultTransformations returns the transformation set of a Transferring
// rule. Panics if r is Consistent.
func (r *Rule) ResultTransformations() TransformationSet {
	if r.kind != TransferringRule {
		panic("horn: ResultTransformations called on a consistent rule")
	}
	return r.resultSet
}

// IsStateless reports whether r is a consistent rule with no snapshot tree
// (or an empty one) and no New events among its premises or result — the
// "projects to a Horn clause" condition of spec.md §3.
func (r *Rule) IsStateless() bool {
	if r.kind != ConsistentRule {
		return false
	}
	if r.tree != nil && len(r.tree.Heads) > 0 {
		return false
	}
	for _, p := range r.premises {
		if p.Tag() == New {
			return false
		}
	}
	return r.resultEvent.Tag() != New
}

// Variables returns the distinct variables occurring anywhere in r:
// premises, snapshot tree, guard and result, in first-occurrence order.
func (r *Rule) Variables() []*IMessage {
	seen := map[string]bool{}
	var out []*IMessage
	collect := func(vs []*IMessage) {
		for _, v := range vs {
			if !seen[v.Name()] {
				seen[v.Name()] = true
				out = append(out, v)
			}
		}
	}
	for _, p := range r.premises {
		collect(p.Variables())
	}
	if r.tree != nil {
		collect(r.tree.Variables())
	}
	for _, name := range r.guard.Variables() {
		collect([]*IMessage{NewVariable(name)})
	}
	switch r.kind {
	case ConsistentRule:
		collect(r.resultEvent.Variables())
	case TransferringRule:
		collect(r.resultSet.Variables())
	}
	return out
}

// Freshen renames every variable in r with a vNumber-tagged fresh name,
// implementing spec.md §4.4 step 2 ("freshen r's variables with the next
// v-number"). The rule's id-tag is preserved: freshening is a renaming of
// one logical rule, not the creation of a new one.
func (r *Rule) Freshen(vNumber int) *Rule {
	sub := NewSubstitution()
	for _, v := range r.Variables() {
		sub = sub.With(v, NewVariable(freshName(v.Name(), vNumber)))
	}
	return r.Substitute(sub)
}

// Substitute applies sub across every component of r, returning a new Rule
// sharing r's id-tag (substitution does not mint a new logical rule).
func (r *Rule) Substitute(sub *Substitution) *Rule {
	out := &Rule{id: r.id, kind: r.kind, guard: r.guard.Substitute(sub)}
	out.premises = make([]Event, len(r.premises))
	for i, p := range r.premises {
		out.premises[i] = p.Substitute(sub)
	}
	if r.tree != nil {
		out.tree = r.tree.Substitute(sub)
	}
	switch r.kind {
	case ConsistentRule:
		out.resultEvent = r.resultEvent.Substitute(sub)
	case TransferringRule:
		out.resultSet = r.resultSet.Substitute(sub)
	}
	return out
}
