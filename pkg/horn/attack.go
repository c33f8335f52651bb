package horn

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Attack is a derivation witness, per spec.md §3: the satisfied query, the
// ground facts cited, the Horn clauses applied (with provenance), and an
// optional `when` state annotation.
type Attack struct {
	Query  *IMessage
	Actual *IMessage
	Facts  []*IMessage
	Clauses []*HornClause
	When    *State
}

// BuildAttack walks a Proven QueryNode's option tree and assembles the
// Attack it witnesses, per spec.md §4.6's completion step: "compose an
// Attack from the instantiated clauses and cited facts; propagate the
// backward σ so that the Actual message recorded in the attack is the
// specific ground leak."
//
// The matrix that backs QueryEngine.Prove tables nodes by structural
// identity of (message, rank), so the same QueryNode can be shared between
// two option subtrees that were proven under different ambient context.
// BuildAttack re-derives state-variable consistency across the whole tree
// as it walks — spec.md §4.6's "cross-option consistency" check — and
// returns an error if two cited clauses disagree on a cell's value.
func BuildAttack(query *IMessage, root *QueryNode, when *State) (*Attack, error) {
	a := &Attack{Query: query, Actual: root.Result, When: when}
	seenFact := map[string]bool{}
	seenClause := map[*HornClause]bool{}
	sf := NewSigmaFactory(TwoWay)

	var walkErr error
	var walk func(n *QueryNode)
	walk = func(n *QueryNode) {
		if walkErr != nil || n == nil || n.Status == Unresolvable {
			return
		}
		if n.Clause != nil {
			if !sf.CommitAll(n.Clause.Provenance.StateVars) {
				walkErr = errors.Errorf("conflicting state-variable commitment assembling attack for %s", n.Clause.Result)
				return
			}
			if !seenClause[n.Clause] {
				seenClause[n.Clause] = true
				a.Clauses = append(a.Clauses, n.Clause)
			}
			if len(n.Clause.Premises) == 0 {
				key := n.Clause.Result.String()
				if !seenFact[key] {
					seenFact[key] = true
					a.Facts = append(a.Facts, n.Clause.Result)
				}
			}
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	if walkErr != nil {
		return nil, walkErr
	}
	return a, nil
}

// Describe renders the attack to w as text: the leaked query (plus the
// actual message and when state where present), the facts used, and one
// line per clause used giving its result, premises, provenance source and
// rank. Parent clauses and citing nessions are not printed.
func (a *Attack) Describe(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "attack: leak %s\n", a.Query); err != nil {
		return err
	}
	if a.Actual != nil && !a.Actual.Equal(a.Query) {
		if _, err := fmt.Fprintf(w, "  actual: %s\n", a.Actual); err != nil {
			return err
		}
	}
	if a.When != nil {
		if _, err := fmt.Fprintf(w, "  when: %s\n", a.When); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "  facts used:\n"); err != nil {
		return err
	}
	for _, f := range a.Facts {
		if _, err := fmt.Fprintf(w, "    %s\n", f); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "  clauses used:\n"); err != nil {
		return err
	}
	for _, c := range a.Clauses {
		if err := describeClause(w, c, "    "); err != nil {
			return err
		}
	}
	return nil
}

func describeClause(w io.Writer, c *HornClause, indent string) error {
	_, err := fmt.Fprintf(w, "%s%s <- %s  [%s, rank=%d]\n", indent, c.Result, premiseList(c.Premises), c.Provenance.Source, c.Rank)
	return err
}

func premiseList(premises []*IMessage) string {
	if len(premises) == 0 {
		return "<>"
	}
	out := ""
	for i, p := range premises {
		if i > 0 {
			out += ", "
		}
		out += p.String()
	}
	return out
}
