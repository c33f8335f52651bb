package horn

import "strings"

// TraceStep is one element of a trace: a snapshot, and the ordering that
// connects it to the *next* step (the zero Ordering on the last step of a
// trace is unused).
type TraceStep struct {
	Snapshot SnapshotHandle
	Order    Ordering
}

// SnapshotTree is a forest of snapshot chains, as specified in spec.md §3:
// "the trace pattern required by a rule." Grounded, structurally, on the
// acyclic dependency graph of pkg/minikanren/slg_engine.go, walked here
// from each head down to a root (a snapshot with no priors) to enumerate
// traces.
type SnapshotTree struct {
	Arena *SnapshotArena
	Heads []SnapshotHandle
}

// NewSnapshotTree builds a tree over arena rooted at the given head
// snapshots.
func NewSnapshotTree(arena *SnapshotArena, heads ...SnapshotHandle) *SnapshotTree {
	return &SnapshotTree{Arena: arena, Heads: heads}
}

// Traces enumerates every head-to-root path through the tree, after
// dropping traces that are a suffix of another trace and eliminating exact
// duplicates, per spec.md §3's construction invariants.
func (t *SnapshotTree) Traces() [][]TraceStep {
	var raw [][]TraceStep
	for _, h := range t.Heads {
		raw = append(raw, t.tracesFrom(h)...)
	}
	return dedupeAndPruneSuffixes(t.Arena, raw)
}

func (t *SnapshotTree) tracesFrom(h SnapshotHandle) [][]TraceStep {
	priors := t.Arena.Priors(h)
	if len(priors) == 0 {
		return [][]TraceStep{{{Snapshot: h}}}
	}
	var out [][]TraceStep
	for _, p := range priors {
		for _, tail := range t.tracesFrom(p.Target) {
			step := TraceStep{Snapshot: h, Order: p.Order}
			out = append(out, append([]TraceStep{step}, tail...))
		}
	}
	return out
}

// traceKey renders a trace as a structural string (cell name, value and
// connecting ordering per step) so duplicate-detection and suffix-pruning
// compare traces by shape, not by arena handle identity.
func traceKey(a *SnapshotArena, trace []TraceStep) []string {
	out := make([]string, len(trace))
	for i, step := range trace {
		out[i] = a.CellName(step.Snapshot) + "=" + a.Value(step.Snapshot).String()
		if i+1 < len(trace) {
			out[i] += step.Order.String()
		}
	}
	return out
}

// dedupeAndPruneSuffixes removes exact duplicate traces, then removes any
// trace whose key sequence is a suffix of another, strictly longer,
// trace's key sequence — the longer trace
// already encodes everything the shorter one requires, per spec.md §3.
func dedupeAndPruneSuffixes(a *SnapshotArena, traces [][]TraceStep) [][]TraceStep {
	type keyed struct {
		trace []TraceStep
		key   []string
	}
	seen := map[string]bool{}
	var kept []keyed
	for _, tr := range traces {
		k := traceKey(a, tr)
		sig := strings.Join(k, "|")
		if seen[sig] {
			continue
		}
		seen[sig] = true
		kept = append(kept, keyed{trace: tr, key: k})
	}

	isSuffix := func(short, long []string) bool {
		if len(short) >= len(long) {
			return false
		}
		offset := len(long) - len(short)
		for i := range short {
			if short[i] != long[offset+i] {
				return false
			}
		}
		return true
	}

	var out [][]TraceStep
	for i, candidate := range kept {
		dominated := false
		for j, other := range kept {
			if i == j {
				continue
			}
			if isSuffix(candidate.key, other.key) {
				dominated = true
				break
			}
		}
		if !dominated {
			out = append(out, candidate.trace)
		}
	}
	return out
}

// Variables returns the distinct variables occurring across the tree's
// arena.
func (t *SnapshotTree) Variables() []*IMessage {
	return t.Arena.Variables()
}

// Implies reports whether every trace in t is matched by some trace in
// other under the combined guard, per spec.md §4.2: corresponding
// snapshots must share a cell name and unify their values; t's ordering at
// each step must refine other's; and every premise attached on t's side
// must be present on other's side.
func (t *SnapshotTree) Implies(other *SnapshotTree, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	for _, ta := range t.Traces() {
		matched := false
		for _, tb := range other.Traces() {
			if matchTrace(t.Arena, ta, other.Arena, tb, gFwd, gBwd, sf) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func matchTrace(aArena *SnapshotArena, a []TraceStep, bArena *SnapshotArena, b []TraceStep, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if aArena.CellName(a[i].Snapshot) != bArena.CellName(b[i].Snapshot) {
			return false
		}
		if !Unifiable(aArena.Value(a[i].Snapshot), bArena.Value(b[i].Snapshot), gFwd, gBwd, sf) {
			return false
		}
		if i+1 < len(a) && !a[i].Order.refines(b[i].Order) {
			return false
		}
		for _, premise := range aArena.Premises(a[i].Snapshot) {
			if !containsEvent(bArena.Premises(b[i].Snapshot), premise) {
				return false
			}
		}
	}
	return true
}

func containsEvent(set []Event, e Event) bool {
	for _, other := range set {
		if other.Equal(e) {
			return true
		}
	}
	return false
}

// Merge concatenates two trees' trace lists (by merging their arenas and
// head lists) with suffix-deduplication applied on read, per spec.md §4.2.
// Since the two trees may have been built over independent arenas, Merge
// re-arenas both sides into a single fresh arena so handles remain valid.
func (t *SnapshotTree) Merge(other *SnapshotTree) *SnapshotTree {
	merged := NewSnapshotArena()
	remapT := copyInto(merged, t.Arena)
	remapO := copyInto(merged, other.Arena)

	heads := make([]SnapshotHandle, 0, len(t.Heads)+len(other.Heads))
	for _, h := range t.Heads {
		heads = append(heads, remapT[h])
	}
	for _, h := range other.Heads {
		heads = append(heads, remapO[h])
	}
	return NewSnapshotTree(merged, heads...)
}

// copyInto copies every node of src into dst, translating prior-link
// targets through the returned handle map.
func copyInto(dst *SnapshotArena, src *SnapshotArena) map[SnapshotHandle]SnapshotHandle {
	remap := make(map[SnapshotHandle]SnapshotHandle, len(src.nodes))
	for i := range src.nodes {
		h := SnapshotHandle(i)
		remap[h] = dst.New(src.CellName(h), src.Value(h))
	}
	for i, n := range src.nodes {
		h := SnapshotHandle(i)
		if n.transfersTo != nil {
			dst.SetTransfersTo(remap[h], n.transfersTo)
		}
		for _, p := range n.premises {
			dst.AddPremise(remap[h], p)
		}
		for _, p := range n.priors {
			// Edges were already validated acyclic in src; re-validating
			// here would always succeed, so write directly.
			dst.nodes[remap[h]].priors = append(dst.nodes[remap[h]].priors, PriorLink{Target: remap[p.Target], Order: p.Order})
		}
	}
	return remap
}

// Substitute applies sub across every snapshot's value, transfer
// destination and premises, sharing the arena's replacement so identical
// premise events remain structurally equal after rewrite (spec.md §4.2).
func (t *SnapshotTree) Substitute(sub *Substitution) *SnapshotTree {
	return NewSnapshotTree(t.Arena.Substitute(sub), t.Heads...)
}

// Equal reports whether t and other have the same trace set up to
// canonicalisation — used to verify the antisymmetry-up-to-equality
// property of spec.md §8 (A⇒B and B⇒A implies A and B are equal trees).
func (t *SnapshotTree) Equal(other *SnapshotTree) bool {
	ta, tb := t.Traces(), other.Traces()
	if len(ta) != len(tb) {
		return false
	}
	ka := map[string]int{}
	for _, tr := range ta {
		ka[strings.Join(traceKey(t.Arena, tr), "|")]++
	}
	for _, tr := range tb {
		k := strings.Join(traceKey(other.Arena, tr), "|")
		if ka[k] == 0 {
			return false
		}
		ka[k]--
	}
	return true
}
