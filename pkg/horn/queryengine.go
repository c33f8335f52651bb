package horn

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// QueryEngine is the ranked backward-chaining resolver of spec.md §4.6.
// Grounded on pkg/minikanren/slg_engine.go's tabled subgoal resolution
// (a matrix of subgoals keyed by structural identity, with an
// in-progress/proving set guarding against infinite recursion on mutually
// recursive goals) — the same tabling discipline applied here to Horn-
// clause goals instead of miniKanren subgoals, extended with rank
// discipline and guard propagation that SLG tabling does not need.
type QueryEngine struct {
	Clauses []*HornClause
	SF      *SigmaFactory

	// DepthMultiplier overrides the "2 ×" constant in the depth-budget
	// formula below; defaults to 2, settable via horn.WithDepthBudgetMultiplier.
	DepthMultiplier int

	matrix  *Matrix
	proving map[string]bool

	maxClauseDepthDelta int
	queryDepth          int

	// failedOptions caches, per node key and rank, clause indices already
	// known to fail — spec.md §4.6's "failed option sets are cached per
	// rank so that the same clause is not retried when the rank envelope
	// shrinks."
	failedOptions map[string]map[int]bool
}

// NewQueryEngine builds an engine over clauses, computing the depth budget
// constant from the clause set's own complexity deltas.
func NewQueryEngine(clauses []*HornClause, queryDepth int) *QueryEngine {
	delta := 0
	for _, c := range clauses {
		d := c.Result.FindMaximumDepth()
		for _, p := range c.Premises {
			if pd := p.FindMaximumDepth(); pd-d > delta {
				delta = pd - d
			} else if d-pd > delta {
				delta = d - pd
			}
		}
	}
	return &QueryEngine{
		Clauses:             clauses,
		SF:                  NewSigmaFactory(TwoWay),
		DepthMultiplier:     2,
		matrix:              NewMatrix(),
		proving:             map[string]bool{},
		failedOptions:       map[string]map[int]bool{},
		maxClauseDepthDelta: delta,
		queryDepth:          queryDepth,
	}
}

// depthBudget implements spec.md §4.6's "2 × max clause depth-delta +
// query depth".
func (e *QueryEngine) depthBudget() int {
	return e.DepthMultiplier*e.maxClauseDepthDelta + e.queryDepth
}

// Prove attempts to prove msg at the given rank, returning the resulting
// node. It is the entry point for both the top-level query and recursive
// premise goals.
func (e *QueryEngine) Prove(msg *IMessage, rank int, guard *Guard) *QueryNode {
	node, existed := e.matrix.GetOrCreate(msg, rank)
	if existed && node.Status != Waiting {
		return node
	}
	if node.Status == Unresolvable {
		return node
	}

	key := nodeKey(msg, rank)
	if e.proving[key] {
		// Breadth guard: a node already in the proving set returns Failed
		// immediately — a local cut on cyclic resolution, not a
		// permanent negative judgement (spec.md §4.6).
		return &QueryNode{Message: msg, Rank: rank, Status: Failed}
	}
	if msg.FindMaximumDepth() > e.depthBudget() {
		logBacktrack(logrus.Fields{"goal": msg.String(), "depth": msg.FindMaximumDepth(), "budget": e.depthBudget()}, "goal exceeds depth budget")
		node.Status = TooComplex
		return node
	}

	// Prior global check: if msg is a basic ground fact already present
	// in the clause set, succeed trivially.
	for _, c := range e.Clauses {
		if len(c.Premises) == 0 && c.Result.Equal(msg) && c.BeforeRank(rank) {
			node.Status = Proven
			node.Clause = c
			node.Result = msg
			return node
		}
	}

	e.proving[key] = true
	node.Status = InProgress
	defer delete(e.proving, key)

	if msg.IsTuple() {
		if e.proveTuple(msg, rank, guard, node) {
			return node
		}
		node.Status = Failed
		return node
	}

	candidates := e.candidatesFor(msg, rank)
	failedAt := e.failedSetFor(key)

	for idx, c := range candidates {
		if failedAt[idx] {
			continue
		}
		sfCandidate := e.SF.Clone()
		gFwd := guard.Substitute(sfCandidate.Forward)
		gBwd := c.Guard.Substitute(sfCandidate.Backward)
		if !Unifiable(msg, c.Result, gFwd, gBwd, sfCandidate) {
			logTrace(logrus.Fields{"goal": msg.String(), "candidate": c.Result.String()}, "candidate rejected: unification failed")
			failedAt[idx] = true
			continue
		}
		if !sfCandidate.CommitAll(c.Provenance.StateVars) {
			// spec.md §4.6: "reject those that contradict the current
			// state-variable commitment."
			logTrace(logrus.Fields{"goal": msg.String(), "candidate": c.Result.String()}, "candidate rejected: state-variable conflict")
			failedAt[idx] = true
			continue
		}

		var children []*QueryNode
		allOK := true
		newRank := RatchetRank(node.Rank, c.Rank)
		for _, premise := range c.Premises {
			resolved := sfCandidate.Backward.Apply(premise)
			childGuard := c.Guard.Substitute(sfCandidate.Backward)
			child := e.Prove(resolved, newRank, childGuard)
			children = append(children, child)
			if child.Status != Proven && child.Status != Unresolvable {
				allOK = false
			}
		}
		if !allOK {
			failedAt[idx] = true
			continue
		}

		e.SF = sfCandidate
		node.Status = Proven
		node.Clause = c
		node.Children = children
		node.Result = sfCandidate.Backward.Apply(c.Result)
		return node
	}

	node.Status = Failed
	return node
}

// proveTuple implements spec.md §4.6's "tuple goals are proven by proving
// each member."
func (e *QueryEngine) proveTuple(msg *IMessage, rank int, guard *Guard, node *QueryNode) bool {
	elems := make([]*IMessage, len(msg.Args()))
	var children []*QueryNode
	for i, arg := range msg.Args() {
		child := e.Prove(arg, rank, guard)
		children = append(children, child)
		if child.Status != Proven && child.Status != Unresolvable {
			return false
		}
		if child.Result != nil {
			elems[i] = child.Result
		} else {
			elems[i] = arg
		}
	}
	node.Status = Proven
	node.Children = children
	node.Result = NewTuple(elems...)
	return true
}

func (e *QueryEngine) failedSetFor(key string) map[int]bool {
	if e.failedOptions[key] == nil {
		e.failedOptions[key] = map[int]bool{}
	}
	return e.failedOptions[key]
}

// candidatesFor selects clauses whose rank precedes rank, without
// pre-filtering on whether their result unifies with msg (callers try
// unification per candidate), sorted per spec.md §4.6: exact-match (no
// parameter substitution needed) first, then higher-rank-first, then
// fewer variables, then lower complexity.
func (e *QueryEngine) candidatesFor(msg *IMessage, rank int) []*HornClause {
	var out []*HornClause
	for _, c := range e.Clauses {
		if c.BeforeRank(rank) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i], out[j]
		ei, ej := ci.Result.Equal(msg), cj.Result.Equal(msg)
		if ei != ej {
			return ei
		}
		if ci.Rank != cj.Rank {
			if ci.Rank == unboundedRank {
				return false
			}
			if cj.Rank == unboundedRank {
				return true
			}
			return ci.Rank > cj.Rank
		}
		vi, vj := len(ci.Result.Variables()), len(cj.Result.Variables())
		if vi != vj {
			return vi < vj
		}
		return ci.Complexity() < cj.Complexity()
	})
	return out
}
