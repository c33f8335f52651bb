package horn

// UnifyTo computes a one-way substitution sigma such that sigma(a) == b,
// recording only into sf.Forward, per spec.md §4.1. Fails (returns false)
// if it would contradict an existing forward entry or would violate guard
// g; on failure sf may contain partial writes and the caller must discard
// it. Grounded on pkg/minikanren/primitives.go's unify/unifyWithConstraints
// structural recursion (variable binds to anything; compound terms require
// recursive, arity-matched unification of their parts), generalized from
// binary Pair structure to n-ary Tuple/Function.
func UnifyTo(a, b *IMessage, g *Guard, sf *SigmaFactory) bool {
	a = sf.Forward.Apply(a)
	b = sf.Forward.Apply(b)

	if a.Equal(b) {
		return true
	}

	if a.IsVariable() {
		if !sf.addForward(a, b) {
			return false
		}
		return g.CanUnifyAllMessages(sf.Forward)
	}

	switch a.Kind() {
	case KindName, KindNonce:
		return false // already checked Equal above
	case KindTuple:
		if !b.IsTuple() || len(a.Args()) != len(b.Args()) {
			return false
		}
	case KindFunction:
		if !b.IsFunction() || a.Name() != b.Name() || len(a.Args()) != len(b.Args()) {
			return false
		}
	default:
		return false
	}

	for i := range a.Args() {
		if !UnifyTo(a.Args()[i], b.Args()[i], g, sf) {
			return false
		}
	}
	return true
}

// Unifiable computes forward sigma1 and backward sigma2 such that
// sigma1(a) == sigma2(b), recording into either side of sf as needed, per
// spec.md §4.1. sf must be in TwoWay mode. Constants unify to themselves;
// function terms unify iff names and arities match and parameters unify
// element-wise; tuples likewise require equal arity; variables on either
// side unify with anything subject to the corresponding guard.
func Unifiable(a, b *IMessage, gFwd, gBwd *Guard, sf *SigmaFactory) bool {
	wa := sf.Forward.Apply(a)
	wb := sf.Backward.Apply(b)

	if wa.Equal(wb) {
		return true
	}

	if wa.IsVariable() && wb.IsVariable() {
		// Bind the forward side to the backward side's (possibly still
		// variable) value; this keeps a single canonical representative
		// without needing a union-find structure, matching the teacher's
		// "bind whichever side is a variable" rule.
		if !sf.addForward(wa, wb) {
			return false
		}
		return gFwd.CanUnifyAllMessages(sf.Forward)
	}
	if wa.IsVariable() {
		if !sf.addForward(wa, wb) {
			return false
		}
		return gFwd.CanUnifyAllMessages(sf.Forward)
	}
	if wb.IsVariable() {
		if !sf.addBackward(wb, wa) {
			return false
		}
		return gBwd.CanUnifyAllMessages(sf.Backward)
	}

	switch wa.Kind() {
	case KindName, KindNonce:
		return false
	case KindTuple:
		if !wb.IsTuple() || len(wa.Args()) != len(wb.Args()) {
			return false
		}
	case KindFunction:
		if !wb.IsFunction() || wa.Name() != wb.Name() || len(wa.Args()) != len(wb.Args()) {
			return false
		}
	default:
		return false
	}

	for i := range wa.Args() {
		if !Unifiable(wa.Args()[i], wb.Args()[i], gFwd, gBwd, sf) {
			return false
		}
	}
	return true
}
