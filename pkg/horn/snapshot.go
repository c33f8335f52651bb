package horn

// Ordering is the relation a prior link carries between two snapshots in a
// trace, per spec.md §3 and §6.1.
type Ordering int

const (
	// AtOrBefore ("≤") means "some time earlier" — intervening frames may
	// have left the cell unchanged.
	AtOrBefore Ordering = iota
	// ImmediatelyBefore ("⋖") means the cell was modified exactly once
	// between the two snapshots.
	ImmediatelyBefore
	// Unchanged ("~") means the cell held the same value at both points.
	Unchanged
)

func (o Ordering) String() string {
	switch o {
	case ImmediatelyBefore:
		return "⋖"
	case Unchanged:
		return "~"
	default:
		return "≤"
	}
}

// refines reports whether ordering a is "as-or-more organised than" b, the
// comparison spec.md §4.2 uses for trace implication: ImmediatelyBefore
// refines AtOrBefore, Unchanged refines only itself, and every ordering
// refines itself.
func (a Ordering) refines(b Ordering) bool {
	switch b {
	case Unchanged:
		return a == Unchanged
	case ImmediatelyBefore:
		return a == ImmediatelyBefore
	default: // AtOrBefore
		return a == AtOrBefore || a == ImmediatelyBefore
	}
}

// SnapshotHandle indexes a snapshot node inside a SnapshotArena. Snapshots
// are arena-allocated rather than linked by pointer so that the "no
// snapshot is a predecessor of itself" invariant (spec.md §3, §9) can be
// enforced once, at construction, instead of re-checked by every consumer.
type SnapshotHandle int

// PriorLink is one "prior" edge from a snapshot to an earlier one.
type PriorLink struct {
	Target SnapshotHandle
	Order  Ordering
}

type snapshotNode struct {
	cellName    string
	value       *IMessage
	priors      []PriorLink
	transfersTo *IMessage
	premises    []Event
}

// SnapshotArena owns a set of snapshot nodes and enforces acyclicity.
// Grounded on pkg/minikanren/slg_engine.go's dependency-adjacency map
// (depAdj map[uint64]map[uint64]*edgePolarity) used there for cycle
// detection over subgoal dependencies — the same "small integer handle,
// adjacency by handle, reject edges that would close a cycle" shape,
// applied here to snapshot prior-links instead of subgoal call edges.
type SnapshotArena struct {
	nodes []snapshotNode
}

// NewSnapshotArena returns an empty arena.
func NewSnapshotArena() *SnapshotArena { return &SnapshotArena{} }

// New allocates a snapshot node for cellName holding value and returns its
// handle.
func (a *SnapshotArena) New(cellName string, value *IMessage) SnapshotHandle {
	a.nodes = append(a.nodes, snapshotNode{cellName: cellName, value: value})
	return SnapshotHandle(len(a.nodes) - 1)
}

// AddPrior records that target is a prior snapshot of h under the given
// ordering. Returns a *StructuralError if this would make h reachable from
// itself (spec.md §3's acyclicity invariant).
func (a *SnapshotArena) AddPrior(h, target SnapshotHandle, order Ordering) error {
	if a.reaches(target, h) {
		return wrapStructuralError("cyclic-snapshot-tree", "snapshot would become its own predecessor")
	}
	a.nodes[h].priors = append(a.nodes[h].priors, PriorLink{Target: target, Order: order})
	return nil
}

// reaches reports whether to is reachable from from by following prior
// links (used to detect would-be cycles before they are created).
func (a *SnapshotArena) reaches(from, to SnapshotHandle) bool {
	if from == to {
		return true
	}
	for _, p := range a.nodes[from].priors {
		if a.reaches(p.Target, to) {
			return true
		}
	}
	return false
}

// SetTransfersTo records the destination value a transfer rule moves this
// snapshot's cell to.
func (a *SnapshotArena) SetTransfersTo(h SnapshotHandle, dest *IMessage) {
	a.nodes[h].transfersTo = dest
}

// AddPremise records an event the rule requires to hold at the frame h
// names.
func (a *SnapshotArena) AddPremise(h SnapshotHandle, e Event) {
	a.nodes[h].premises = append(a.nodes[h].premises, e)
}

// CellName, Value, Priors, TransfersTo and Premises are accessors over a
// handle's node.
func (a *SnapshotArena) CellName(h SnapshotHandle) string      { return a.nodes[h].cellName }
func (a *SnapshotArena) Value(h SnapshotHandle) *IMessage      { return a.nodes[h].value }
func (a *SnapshotArena) Priors(h SnapshotHandle) []PriorLink   { return a.nodes[h].priors }
func (a *SnapshotArena) Premises(h SnapshotHandle) []Event     { return a.nodes[h].premises }
func (a *SnapshotArena) TransfersTo(h SnapshotHandle) (*IMessage, bool) {
	return a.nodes[h].transfersTo, a.nodes[h].transfersTo != nil
}

// Variables returns the distinct variables occurring across every node's
// value, transfer destination and premise events, in first-occurrence
// order — used by Rule.Freshen to rename a whole rule's variable set
// consistently, including the ones hidden inside its snapshot tree.
func (a *SnapshotArena) Variables() []*IMessage {
	seen := map[string]bool{}
	var out []*IMessage
	collect := func(m *IMessage) {
		for _, v := range m.Variables() {
			if !seen[v.Name()] {
				seen[v.Name()] = true
				out = append(out, v)
			}
		}
	}
	for _, n := range a.nodes {
		collect(n.value)
		if n.transfersTo != nil {
			collect(n.transfersTo)
		}
		for _, p := range n.premises {
			for _, v := range p.Variables() {
				if !seen[v.Name()] {
					seen[v.Name()] = true
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// Substitute returns a new arena with sub applied to every node's value,
// transfersTo destination and premise events. Handles are preserved so a
// SnapshotTree built over the original arena remains valid over the
// substituted one. Grounded on spec.md §4.2's "substitution across a tree
// recurses, sharing a replacement dictionary so identical premise events
// remain equal by identity after rewrite" — here "identity" becomes
// structural equality, since Events compare structurally (spec.md §9).
func (a *SnapshotArena) Substitute(sub *Substitution) *SnapshotArena {
	out := &SnapshotArena{nodes: make([]snapshotNode, len(a.nodes))}
	for i, n := range a.nodes {
		newNode := snapshotNode{
			cellName: n.cellName,
			value:    sub.Apply(n.value),
			priors:   append([]PriorLink{}, n.priors...),
		}
		if n.transfersTo != nil {
			newNode.transfersTo = sub.Apply(n.transfersTo)
		}
		newNode.premises = make([]Event, len(n.premises))
		for j, p := range n.premises {
			newNode.premises[j] = p.Substitute(sub)
		}
		out.nodes[i] = newNode
	}
	return out
}
