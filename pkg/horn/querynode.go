package horn

// NodeStatus is the status lattice of spec.md §4.6.
type NodeStatus int

const (
	// InProgress marks a node currently being expanded — used to detect
	// the breadth/chase-depth cycles spec.md §4.6 describes.
	InProgress NodeStatus = iota
	// Waiting marks a node whose candidate clauses have not finished
	// being tried.
	Waiting
	// Unresolvable marks a variable-only goal: anything satisfies it.
	Unresolvable
	// Proven marks a node with at least one successful option set.
	Proven
	// Failed marks a node all of whose candidates were exhausted without
	// success, or that hit a depth/breadth guard.
	Failed
	// TooComplex marks a node whose message depth exceeded the depth
	// budget before any candidate was tried.
	TooComplex
)

func (s NodeStatus) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Waiting:
		return "waiting"
	case Unresolvable:
		return "unresolvable"
	case Proven:
		return "proven"
	case Failed:
		return "failed"
	case TooComplex:
		return "too-complex"
	default:
		return "unknown"
	}
}

// QueryNode is a (message, rank) goal, cached in a matrix by structural
// equality of that pair; it carries no guard of its own, and guards are
// checked per candidate instead (see nodeKey). Once Proven, Clause
// and Children record the option that succeeded, for attack assembly.
type QueryNode struct {
	Message *IMessage
	Rank    int

	Status   NodeStatus
	Clause   *HornClause
	Children []*QueryNode
	Result   *IMessage
}

// nodeKey is the matrix lookup key: structural equality of message and
// rank. Guard is deliberately not part of the key — two nodes differing
// only by guard still denote "prove this message at this rank" and are
// reconciled by re-checking the guard against the candidate's σ at
// expansion time, avoiding a combinatorial key blowup across progressively
// refined guards.
func nodeKey(msg *IMessage, rank int) string {
	return msg.String() + "@" + itoa(rank)
}

// Matrix caches QueryNodes by nodeKey, per spec.md §4.6's "a matrix caches
// them."
type Matrix struct {
	nodes map[string]*QueryNode
}

// NewMatrix returns an empty matrix.
func NewMatrix() *Matrix { return &Matrix{nodes: map[string]*QueryNode{}} }

// GetOrCreate returns the cached node for (msg, rank), creating one if
// absent. A newly created variable-only node starts Unresolvable per
// spec.md §4.6; all others start Waiting.
func (m *Matrix) GetOrCreate(msg *IMessage, rank int) (*QueryNode, bool) {
	key := nodeKey(msg, rank)
	if n, ok := m.nodes[key]; ok {
		return n, true
	}
	status := Waiting
	if msg.IsVariable() {
		status = Unresolvable
	}
	n := &QueryNode{Message: msg, Rank: rank, Status: status}
	m.nodes[key] = n
	return n, false
}
