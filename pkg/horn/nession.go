package horn

// Frame is a single time index within a nession, per spec.md §3: a set of
// state-change premises consumed to reach this frame, the cells held at
// this frame, the state-consistent rules admitted here, the transfer
// rule(s) that produced the frame (nil for the initial frame), and an
// accumulated guard.
type Frame struct {
	Premises      []Event
	Cells         StateSet
	Admitted      []*Rule
	TransferredBy []*Rule
	Guard         *Guard
}

// newInitialFrame builds frame 0 of a nession: no premises, no admitted
// rules, no transferring rule, the declared initial cells.
func newInitialFrame(cells StateSet) Frame {
	return Frame{Cells: cells, Guard: EmptyGuard}
}

// Nession is a non-empty ordered sequence of frames, per spec.md §3.
// Grounded on pkg/minikanren/pldb.go's copy-on-write Database: the same
// "substituted copy vs in-place mutation" discipline spec.md §4.4 step 5
// requires (mutate in place when no backward σ is produced, otherwise
// branch into a substituted copy) mirrors the persistent-structure pattern
// there, generalized from fact tables to frame sequences.
type Nession struct {
	Frames         []Frame
	DeclaredNonces map[string]bool
	NextVNumber    int
}

// NewNession builds the single-frame nession an elaboration starts from.
func NewNession(initial StateSet) *Nession {
	return &Nession{
		Frames:         []Frame{newInitialFrame(initial)},
		DeclaredNonces: map[string]bool{},
		NextVNumber:    0,
	}
}

// Tail returns the index of the nession's last frame.
func (n *Nession) Tail() int { return len(n.Frames) - 1 }

// TailFrame returns a pointer to the nession's last frame, for in-place
// mutation during admission (spec.md §4.4 step 5's "mutate the tail frame
// in place" branch).
func (n *Nession) TailFrame() *Frame { return &n.Frames[n.Tail()] }

// Clone returns a deep-enough copy of n that mutating the copy's frames,
// admitted-rule slices or nonce set leaves n untouched — used for the
// "produce a substituted copy of the nession" branch of spec.md §4.4 step
// 5, and for prefix-pruning comparisons that must not disturb the
// original.
func (n *Nession) Clone() *Nession {
	frames := make([]Frame, len(n.Frames))
	for i, f := range n.Frames {
		frames[i] = Frame{
			Premises:      append([]Event{}, f.Premises...),
			Cells:         f.Cells,
			Admitted:      append([]*Rule{}, f.Admitted...),
			TransferredBy: append([]*Rule{}, f.TransferredBy...),
			Guard:         f.Guard,
		}
	}
	nonces := make(map[string]bool, len(n.DeclaredNonces))
	for k, v := range n.DeclaredNonces {
		nonces[k] = v
	}
	return &Nession{Frames: frames, DeclaredNonces: nonces, NextVNumber: n.NextVNumber}
}

// Substitute returns a new nession with sub applied across every frame's
// cells, premises, admitted rules and guard, preserving DeclaredNonces and
// NextVNumber (substitution specializes values, it does not introduce new
// nonces or rename v-numbers).
func (n *Nession) Substitute(sub *Substitution) *Nession {
	out := n.Clone()
	for i, f := range out.Frames {
		newPremises := make([]Event, len(f.Premises))
		for j, p := range f.Premises {
			newPremises[j] = p.Substitute(sub)
		}
		newAdmitted := make([]*Rule, len(f.Admitted))
		for j, r := range f.Admitted {
			newAdmitted[j] = r.Substitute(sub)
		}
		out.Frames[i] = Frame{
			Premises:      newPremises,
			Cells:         f.Cells.Substitute(sub),
			Admitted:      newAdmitted,
			TransferredBy: f.TransferredBy,
			Guard:         f.Guard.Substitute(sub),
		}
	}
	return out
}

// NextV mints the next v-number and advances the counter, implementing
// spec.md §4.4 step 2's "freshen r's variables with the next v-number".
func (n *Nession) NextV() int {
	v := n.NextVNumber
	n.NextVNumber++
	return v
}

// FreshenVariables renames every variable in msg by appending a v-number
// suffix, returning the renamed message and the substitution used (so
// callers can apply the same renaming to the rest of a rule).
func FreshenVariables(msg *IMessage, vNumber int) (*IMessage, *Substitution) {
	sub := NewSubstitution()
	for _, v := range msg.Variables() {
		sub = sub.With(v, NewVariable(freshName(v.Name(), vNumber)))
	}
	return sub.Apply(msg), sub
}

func freshName(base string, vNumber int) string {
	return base + "#v" + itoa(vNumber)
}

// itoa avoids importing strconv solely for this one conversion, mirroring
// the teacher's preference for small local helpers over additional
// stdlib imports in leaf files.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// DeclareNonce registers name as declared within this nession. Returns
// false if it was already declared — the nonce-uniqueness violation of
// spec.md §4.4 step 3 ("no nonce declared by r may already appear in the
// nession's declared-nonce set").
func (n *Nession) DeclareNonce(name string) bool {
	if n.DeclaredNonces[name] {
		return false
	}
	n.DeclaredNonces[name] = true
	return true
}

// HasNonce reports whether name has already been declared in this
// nession — spec.md §4.4 step 3's "every nonce r consumes must appear
// there" check.
func (n *Nession) HasNonce(name string) bool { return n.DeclaredNonces[name] }

// AppendFrame grows the nession by one frame, produced by applying a
// transfer rule's transformations to the current tail's StateSet.
func (n *Nession) AppendFrame(newCells StateSet, transferredBy []*Rule, guard *Guard) {
	n.Frames = append(n.Frames, Frame{Cells: newCells, TransferredBy: transferredBy, Guard: guard})
}

// IsPrefixOf reports whether n's frame history is a strict prefix of
// other's, per spec.md §4.4's prefix-pruning rule: the longer nession
// dominates because any attack derivable from the prefix is derivable from
// the extension (spec.md §8's prefix-pruning property).
func (n *Nession) IsPrefixOf(other *Nession) bool {
	if len(n.Frames) >= len(other.Frames) {
		return false
	}
	for i, f := range n.Frames {
		if !f.Cells.Equal(other.Frames[i].Cells) {
			return false
		}
	}
	return true
}
