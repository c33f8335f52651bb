package horn

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LevelCallback is invoked at the start of each elaboration level, per
// spec.md §5's "yields at every level boundary" cooperative-scheduling
// note.
type LevelCallback func(level int)

// CompletionPredicate inspects the nessions produced so far and reports
// whether elaboration has done "enough" — spec.md §4.4's optional
// "predicate callback that may signal enough (attack found in
// intermediate results, iterative mode)". Returning true stops
// elaboration early.
type CompletionPredicate func(nessions []*Nession) bool

// Elaborator performs the forward symbolic execution of spec.md §4.4:
// starting from the initial StateSet, it grows a set of nessions level by
// level, admitting state-consistent rules into frames and applying
// state-transferring rules to produce new frames. Grounded on
// pkg/minikanren/slg_engine.go's level-by-level subgoal evaluation loop
// (a bounded outer loop that sweeps a frontier, checking a cancellation
// context at each boundary) and pkg/minikanren/parallel_search.go's
// yield-at-a-boundary control shape, both reused here in a strictly
// single-threaded form per spec.md §5 — no goroutines are spawned inside
// the elaborator itself.
type Elaborator struct {
	SystemRules   []*Rule
	TransferRules []*Rule
	MaxDepth      int

	OnStartLevel     LevelCallback
	CheckIteratively bool
	Predicate        CompletionPredicate

	// EnableKnitPatterns turns on the optional transfer-rule grouping
	// analysis of spec.md §4.4: transfer rules whose snapshot patterns
	// touch disjoint cells are folded into a single successor frame
	// instead of one frame per rule. Off by default (SPEC_FULL.md §11);
	// the base per-rule application below remains correct either way.
	EnableKnitPatterns bool

	cancelled bool
}

// NewElaborator builds an elaborator over the given rule sets, defaulting
// MaxDepth to |system rules| + |transfer rules| as spec.md §4.4 specifies,
// doubled by the caller when a `when` clause is set.
func NewElaborator(systemRules, transferRules []*Rule) *Elaborator {
	return &Elaborator{
		SystemRules:   systemRules,
		TransferRules: transferRules,
		MaxDepth:      len(systemRules) + len(transferRules),
	}
}

// Cancel requests cooperative termination. Per spec.md §5, cancellation is
// advisory: it is observed only at level boundaries.
func (e *Elaborator) Cancel() { e.cancelled = true }

// Elaborate runs the level-by-level loop and returns the final list of
// nessions. It stops when: MaxDepth levels have run, the cancellation flag
// is observed at a level boundary, or (when CheckIteratively is true) the
// predicate reports "enough" at a level boundary. A non-nil error means a
// *StructuralError was raised during a trace match (spec.md §7); elaboration
// stops immediately and the nessions produced so far are not meaningful.
func (e *Elaborator) Elaborate(initial StateSet) ([]*Nession, error) {
	nessions := []*Nession{NewNession(initial)}

	for level := 0; level < e.MaxDepth; level++ {
		if e.OnStartLevel != nil {
			e.OnStartLevel(level)
		}
		if e.cancelled {
			return nessions, nil
		}

		var err error
		nessions, err = e.admitSystemRules(nessions)
		if err != nil {
			return nil, err
		}
		nessions, err = e.applyTransferRules(nessions)
		if err != nil {
			return nil, err
		}
		nessions = prunePrefixes(nessions)

		if e.CheckIteratively && e.Predicate != nil && e.Predicate(nessions) {
			return nessions, nil
		}
	}

	if !e.CheckIteratively && e.Predicate != nil {
		e.Predicate(nessions)
	}
	return nessions, nil
}

// admitSystemRules performs one sweep of state-consistent rule admission
// over every nession, per spec.md §4.4's admission algorithm.
func (e *Elaborator) admitSystemRules(nessions []*Nession) ([]*Nession, error) {
	out := append([]*Nession{}, nessions...)
	for _, r := range e.SystemRules {
		var grown []*Nession
		for _, n := range out {
			admitted, err := admitRule(n, r)
			if err != nil {
				return nil, err
			}
			grown = append(grown, admitted...)
		}
		out = grown
	}
	return out, nil
}

// admitRule implements spec.md §4.4 steps 1-5 for one (nession, rule)
// pair, returning the set of nessions that result. When admission succeeds
// with an empty backward σ, the rule is admitted into n's tail frame in
// place and only n is returned; when the backward σ is non-empty, n is
// left unchanged and returned alongside a substituted copy that carries
// the admission (and any nonces the rule's New premises declare).
func admitRule(n *Nession, r *Rule) ([]*Nession, error) {
	tail := n.TailFrame()
	for _, admitted := range tail.Admitted {
		if admitted.ID() == r.ID() {
			return []*Nession{n}, nil
		}
	}

	fresh := r.Freshen(n.NextV())

	for _, premise := range fresh.Premises() {
		if premise.Tag() != New {
			continue
		}
		nonceName := premise.Message().Name()
		if n.HasNonce(nonceName) {
			logBacktrack(logrus.Fields{"rule": r.ID(), "nonce": nonceName}, "admission rejected: nonce already declared")
			return []*Nession{n}, nil
		}
	}

	sf := NewSigmaFactory(TwoWay)
	matched, err := matchSnapshotTree(n, fresh.SnapshotTree(), fresh.Guard(), sf)
	if err != nil {
		return nil, err
	}
	if !matched {
		logBacktrack(logrus.Fields{"rule": r.ID(), "frame": n.Tail()}, "admission rejected: snapshot tree not implied by nession history")
		return []*Nession{n}, nil
	}

	declareNonces := func(target *Nession) {
		for _, premise := range fresh.Premises() {
			if premise.Tag() == New {
				target.DeclareNonce(premise.Message().Name())
			}
		}
	}

	admittedCopy := fresh.Substitute(sf.Forward)
	if sf.Backward.Size() == 0 {
		declareNonces(n)
		tail.Admitted = append(tail.Admitted, admittedCopy)
		if admittedCopy.Kind() == ConsistentRule && admittedCopy.ResultEvent().Tag() == Make {
			tail.Premises = append(tail.Premises, admittedCopy.ResultEvent())
		}
		return []*Nession{n}, nil
	}

	branched := n.Substitute(sf.Backward)
	declareNonces(branched)
	branchedTail := branched.TailFrame()
	branchedTail.Admitted = append(branchedTail.Admitted, admittedCopy)
	if admittedCopy.Kind() == ConsistentRule && admittedCopy.ResultEvent().Tag() == Make {
		branchedTail.Premises = append(branchedTail.Premises, admittedCopy.ResultEvent())
	}
	return []*Nession{n, branched}, nil
}

// applyTransferRules performs one sweep of transfer-rule application,
// appending a new frame to every nession each rule successfully matches
// against, per spec.md §4.4. Duplicate successor frames (identical
// StateSet) are dropped.
func (e *Elaborator) applyTransferRules(nessions []*Nession) ([]*Nession, error) {
	var out []*Nession
	for _, n := range nessions {
		out = append(out, n)
		var matches []transferMatch
		for _, r := range e.TransferRules {
			m, ok, err := matchTransferRule(n, r)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, buildTransferFrame(m))
				matches = append(matches, m)
			}
		}
		if e.EnableKnitPatterns {
			out = append(out, knitTransferGroups(matches)...)
		}
	}
	return dedupeByTailState(out), nil
}

// transferMatch is one transfer rule's resolved application against a
// nession's tail frame: the branch it applies to (after any backward
// substitution), the resolved rule, and the cell replacements its result
// transformations describe.
type transferMatch struct {
	branch      *Nession
	resolved    *Rule
	cellUpdates map[string]*IMessage
}

// touchedCells returns the set of cell names m's result transformations
// rewrite.
func (m transferMatch) touchedCells() map[string]bool {
	touched := make(map[string]bool, len(m.cellUpdates))
	for name := range m.cellUpdates {
		touched[name] = true
	}
	return touched
}

// matchTransferRule checks r's preconditions (nonce validity, snapshot-tree
// match) against n's tail frame, the same preconditions admitRule applies,
// without building the successor frame.
func matchTransferRule(n *Nession, r *Rule) (transferMatch, bool, error) {
	if r.Kind() != TransferringRule {
		return transferMatch{}, false, nil
	}
	fresh := r.Freshen(n.NextV())

	for _, premise := range fresh.Premises() {
		if premise.Tag() == New && n.HasNonce(premise.Message().Name()) {
			return transferMatch{}, false, nil
		}
	}

	sf := NewSigmaFactory(TwoWay)
	matched, err := matchSnapshotTree(n, fresh.SnapshotTree(), fresh.Guard(), sf)
	if err != nil {
		return transferMatch{}, false, err
	}
	if !matched {
		return transferMatch{}, false, nil
	}

	resolved := fresh.Substitute(sf.Forward)
	branch := n
	if sf.Backward.Size() > 0 {
		branch = n.Substitute(sf.Backward)
	}

	updates := make(map[string]*IMessage)
	for _, tr := range resolved.ResultTransformations().Items() {
		cellName := resolved.SnapshotTree().Arena.CellName(tr.Snapshot)
		updates[cellName] = tr.NewState
	}
	return transferMatch{branch: branch, resolved: resolved, cellUpdates: updates}, true, nil
}

// buildTransferFrame appends the single-rule successor frame for one match,
// per spec.md §4.4's base (non-grouped) transfer application.
func buildTransferFrame(m transferMatch) *Nession {
	newCells := m.branch.TailFrame().Cells
	for name, value := range m.cellUpdates {
		newCells = newCells.Replace(name, value)
	}
	grown := m.branch.Clone()
	grown.AppendFrame(newCells, []*Rule{m.resolved}, m.resolved.Guard())
	return grown
}

// knitTransferGroups implements the "knit pattern" optimisation of
// spec.md §4.4: transfer rules whose snapshot patterns touch disjoint
// cells commute, so they can be applied in a single successor frame
// instead of a chain of single-rule frames. Matches are grouped greedily
// by rule order; a match joins the first group whose touched cells don't
// overlap its own, or starts a new group. Groups of size one duplicate a
// frame buildTransferFrame already produced and are skipped.
func knitTransferGroups(matches []transferMatch) []*Nession {
	if len(matches) < 2 {
		return nil
	}

	type group struct {
		members []transferMatch
		touched map[string]bool
	}
	var groups []*group

	for _, m := range matches {
		mt := m.touchedCells()
		placed := false
		for _, g := range groups {
			if !overlaps(g.touched, mt) && sameBranch(g.members[0].branch, m.branch) {
				g.members = append(g.members, m)
				for name := range mt {
					g.touched[name] = true
				}
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, &group{members: []transferMatch{m}, touched: mt})
		}
	}

	var out []*Nession
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		newCells := g.members[0].branch.TailFrame().Cells
		rules := make([]*Rule, 0, len(g.members))
		guard := NewGuard(nil)
		for _, m := range g.members {
			for name, value := range m.cellUpdates {
				newCells = newCells.Replace(name, value)
			}
			rules = append(rules, m.resolved)
			guard = guard.Union(m.resolved.Guard())
		}
		grown := g.members[0].branch.Clone()
		grown.AppendFrame(newCells, rules, guard)
		out = append(out, grown)
	}
	return out
}

func overlaps(a, b map[string]bool) bool {
	for name := range a {
		if b[name] {
			return true
		}
	}
	return false
}

// sameBranch reports whether two matches resolved against the same backward
// branch of the originating nession — grouping only makes sense when both
// transfers apply to the same frame history.
func sameBranch(a, b *Nession) bool {
	return a.Tail() == b.Tail() && a.TailFrame().Cells.Equal(b.TailFrame().Cells)
}

// dedupeByTailState drops nessions whose tail StateSet duplicates one
// already kept, per spec.md §4.4 ("duplicate successor frames... are
// dropped").
func dedupeByTailState(nessions []*Nession) []*Nession {
	var out []*Nession
	for _, n := range nessions {
		dup := false
		for _, kept := range out {
			if kept.Tail() == n.Tail() && kept.TailFrame().Cells.Equal(n.TailFrame().Cells) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

// prunePrefixes removes any nession whose history is a strict prefix of
// another nession's history, per spec.md §4.4.
func prunePrefixes(nessions []*Nession) []*Nession {
	var out []*Nession
	for i, n := range nessions {
		dominated := false
		for j, other := range nessions {
			if i != j && n.IsPrefixOf(other) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, n)
		}
	}
	return out
}

// matchSnapshotTree implements spec.md §4.4 step 4: for each trace head in
// tree, find a matching cell in n's tail frame, then walk backwards
// through n's frames, matching each prior link. A nil or empty tree always
// matches (a stateless rule has no trace requirement). A non-nil error is a
// *StructuralError (spec.md §7): the trace walk landed on a frame that
// should carry the named cell but doesn't.
func matchSnapshotTree(n *Nession, tree *SnapshotTree, guard *Guard, sf *SigmaFactory) (bool, error) {
	if tree == nil || len(tree.Heads) == 0 {
		return true, nil
	}
	for _, trace := range tree.Traces() {
		matched, err := matchTraceAgainstNession(n, tree.Arena, trace, guard, sf)
		if err != nil {
			return false, err
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

func matchTraceAgainstNession(n *Nession, arena *SnapshotArena, trace []TraceStep, guard *Guard, sf *SigmaFactory) (bool, error) {
	frameIdx := n.Tail()
	for i, step := range trace {
		if frameIdx < 0 {
			return false, nil
		}
		cellName := arena.CellName(step.Snapshot)
		cell, ok := n.Frames[frameIdx].Cells.Lookup(cellName)
		if !ok {
			// spec.md §4.4 step 4: "Missing cells are a hard error."
			return false, wrapStructuralError("missing-cell-in-trace",
				fmt.Sprintf("cell %q absent from frame %d during trace match", cellName, frameIdx))
		}
		if !Unifiable(arena.Value(step.Snapshot), cell.Value, guard, guard, sf) {
			return false, nil
		}
		for _, premise := range arena.Premises(step.Snapshot) {
			if !containsEvent(n.Frames[frameIdx].Premises, premise) {
				return false, nil
			}
		}
		if i+1 == len(trace) {
			break
		}
		switch step.Order {
		case ImmediatelyBefore:
			frameIdx--
		case Unchanged:
			// stays at the same frame index
		default: // AtOrBefore
			frameIdx = findEarlierFrameWithCell(n, arena.CellName(trace[i+1].Snapshot), frameIdx)
		}
	}
	return true, nil
}

func findEarlierFrameWithCell(n *Nession, cellName string, before int) int {
	for j := before - 1; j >= 0; j-- {
		if _, ok := n.Frames[j].Cells.Lookup(cellName); ok {
			return j
		}
	}
	return -1
}
