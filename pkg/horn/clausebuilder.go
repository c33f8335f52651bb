package horn

// BuildClauses derives the rank-annotated Horn-clause set for one nession,
// per spec.md §4.5. Grounded on pkg/minikanren/pldb_slg.go's translation
// from stored facts into tabled subgoals: each frame's accumulated
// knowledge plays the role PLDB's fact table plays there, and each
// admitted rule or Make event plays the role of a tabled subgoal
// definition.
//
// If when is non-nil, clauses are still emitted for every frame (per
// spec.md §4.5: "later clauses are still emitted"), but the caller should
// reformulate the query using ReformulateForWhen before resolving.
func BuildClauses(n *Nession, when *IMessage) []*HornClause {
	var clauses []*HornClause
	var accumulated []*IMessage

	for rank, frame := range n.Frames {
		for _, premise := range frame.Premises {
			if premise.Tag() == Make {
				clauses = append(clauses, &HornClause{
					Premises: append([]*IMessage{}, accumulated...),
					Result:   premise.Message(),
					Guard:    frame.Guard,
					Rank:     rank,
					Provenance: Provenance{
						Source:  "make",
						Nession: 0,
						Frame:   rank,
					},
				})
			}
		}

		for _, r := range frame.Admitted {
			if r.Kind() != ConsistentRule {
				continue
			}
			premises := append([]*IMessage{}, accumulated...)
			for _, p := range r.Premises() {
				if p.Tag() == Know {
					premises = append(premises, p.Message())
				}
				if p.Tag() == Make {
					clauses = append(clauses, &HornClause{
						Premises: append([]*IMessage{}, accumulated...),
						Result:   p.Message(),
						Guard:    frame.Guard.Union(r.Guard()),
						Rank:     rank,
						Provenance: Provenance{
							Source:  "make",
							Nession: 0,
							Frame:   rank,
							RuleID:  r.ID(),
						},
					})
				}
			}
			result := r.ResultEvent()
			if result.Tag() != Know {
				continue
			}
			clauses = append(clauses, &HornClause{
				Premises: premises,
				Result:   result.Message(),
				Guard:    frame.Guard.Union(r.Guard()),
				Rank:     rank,
				Provenance: Provenance{
					Source:    "rule",
					Nession:   0,
					Frame:     rank,
					RuleID:    r.ID(),
					StateVars: stateVarsForRule(r, frame),
				},
			})
		}

		for _, premise := range frame.Premises {
			if premise.Tag() == Know {
				accumulated = append(accumulated, premise.Message())
			}
		}
	}

	return clauses
}

// stateVarsForRule returns, for each cell r's snapshot tree names at its
// heads, the ground value that cell held in frame at admission time. An
// admitted rule's tree has already been matched against the nession (§4.4
// step 4), so every head cell is present in frame; a head that somehow
// cannot be resolved here is omitted rather than treated as an error —
// Horn-clause derivation is not the place spec.md §4.4 calls that a hard
// failure.
func stateVarsForRule(r *Rule, frame Frame) map[string]*IMessage {
	tree := r.SnapshotTree()
	if tree == nil || len(tree.Heads) == 0 {
		return nil
	}
	vars := make(map[string]*IMessage, len(tree.Heads))
	for _, h := range tree.Heads {
		name := tree.Arena.CellName(h)
		if cell, ok := frame.Cells.Lookup(name); ok {
			vars[name] = cell.Value
		}
	}
	if len(vars) == 0 {
		return nil
	}
	return vars
}

// WhenFrameIndex returns the index of the first frame whose StateSet
// contains a cell unifiable with when, or -1 if none does, per spec.md
// §4.6's "select the nession variant whose tail frame contains a cell
// unifiable with when".
func WhenFrameIndex(n *Nession, when State) int {
	for i, frame := range n.Frames {
		cell, ok := frame.Cells.Lookup(when.Name)
		if !ok {
			continue
		}
		sf := NewSigmaFactory(TwoWay)
		if Unifiable(cell.Value, when.Value, EmptyGuard, EmptyGuard, sf) {
			return i
		}
	}
	return -1
}

// ReformulateForWhen builds the resolver's actual goal per spec.md §4.6:
// the tuple of {q} union the ground Know-premises of every frame of the
// nession up to and including whenFrame. whenCellName is not consulted:
// the premises are not filtered by the when cell.
func ReformulateForWhen(q *IMessage, n *Nession, whenFrame int, whenCellName string) *IMessage {
	elems := []*IMessage{q}
	for i := 0; i <= whenFrame && i < len(n.Frames); i++ {
		for _, premise := range n.Frames[i].Premises {
			if premise.Tag() != Know {
				continue
			}
			msg := premise.Message()
			if msg.Ground() {
				elems = append(elems, msg)
			}
		}
	}
	if len(elems) == 1 {
		return q
	}
	return NewTuple(elems...)
}
