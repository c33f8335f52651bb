package rulelang

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/gitrdm/hornverify/pkg/horn"
)

// Query is the leak target and optional precondition state, the second
// element of compile's (states, query, rules, limit, errors) tuple.
type Query struct {
	Target *horn.IMessage
	When   *horn.State
}

// Model is the structured result of compiling one clause-source file:
// everything horn.NewEngine needs, plus the rule-source's own depth limit.
type Model struct {
	States horn.StateSet
	Query  Query
	Rules  []*horn.Rule

	// Limit is the rule source's "limit N" declaration, or 0 if absent —
	// callers fall back to the engine's own default maxDepth.
	Limit int
}

// Compile implements §6.2 operation 1: compile(source) → (states, query,
// rules, limit, errors). Parsing is total in the sense §6.1 promises —
// a parse failure yields a single CompileError rather than a panic, and a
// rule construction failure (from horn.NewConsistentRule or
// horn.NewTransferringRule) is collected per-line rather than aborting the
// rest of the file.
func Compile(source string) (Model, []CompileError) {
	doc, err := parser.ParseString("", preprocess(source))
	if err != nil {
		return Model{}, []CompileError{fromParseError(err)}
	}

	c := &compiler{}
	for _, line := range doc.Lines {
		c.compileLine(line)
	}
	return Model{States: horn.NewStateSet(c.initCells...), Query: c.query, Rules: c.rules, Limit: c.limit}, c.errs
}

// preprocess joins backslash-continued physical lines into one logical
// line, per §6.1's "a trailing \ joins with the next line (space-
// separated)". Run before lexing since line continuation is a property of
// the raw text, not the grammar.
func preprocess(source string) string {
	lines := strings.Split(source, "\n")
	var out []string
	var pending string
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasSuffix(trimmed, `\`) {
			pending += strings.TrimSuffix(trimmed, `\`) + " "
			continue
		}
		out = append(out, pending+trimmed)
		pending = ""
	}
	if pending != "" {
		out = append(out, pending)
	}
	return strings.Join(out, "\n")
}

// ParseState parses a standalone "Name(Value)" fragment, the same grammar
// a rule's init/when cells use, for hosts that take a state override as a
// command-line flag rather than part of a source file.
func ParseState(text string) (horn.State, error) {
	cell, err := stateParser.ParseString("", text)
	if err != nil {
		return horn.State{}, errors.Wrap(err, "parsing state")
	}
	return horn.NewState(cell.Name, convertMessage(cell.Value)), nil
}

type compiler struct {
	initCells []horn.State
	query     Query
	rules     []*horn.Rule
	limit     int
	errs      []CompileError
}

func (c *compiler) fail(pos lexer.Position, format string, args ...any) {
	c.errs = append(c.errs, newCompileError(pos, format, args...))
}

func (c *compiler) compileLine(line *Line) {
	switch {
	case line.Init != nil:
		for _, cell := range line.Init.Cells {
			c.initCells = append(c.initCells, horn.NewState(cell.Name, convertMessage(cell.Value)))
		}
	case line.Query != nil:
		c.query.Target = convertMessage(line.Query.Target)
		if line.Query.When != nil {
			when := horn.NewState(line.Query.When.Name, convertMessage(line.Query.When.Value))
			c.query.When = &when
		}
	case line.Limit != nil:
		c.limit = *line.Limit
	case line.Rule != nil:
		rule, err := c.buildRule(line.Rule)
		if err != nil {
			c.fail(line.Pos, "%s", err)
			return
		}
		c.rules = append(c.rules, rule)
	}
}

// buildRule converts one parsed RuleLine into a *horn.Rule, wiring its
// guard, snapshot tree (if any), premises and result through the same
// factories horn's own tests use.
func (c *compiler) buildRule(rl *RuleLine) (*horn.Rule, error) {
	guard := horn.EmptyGuard
	if rl.Guard != nil {
		for _, f := range rl.Guard.Forbids {
			guard = guard.Forbid(f.Var, convertMessage(f.Value))
		}
	}

	labels, arena, err := buildSnapshotArena(rl.Snapshot)
	if err != nil {
		return nil, err
	}

	premises := make([]horn.Event, 0, len(rl.Premises))
	for _, tagged := range rl.Premises {
		event, err := convertEvent(tagged.Event)
		if err != nil {
			return nil, err
		}
		premises = append(premises, event)
		if tagged.Label != nil {
			h, ok := labels[*tagged.Label]
			if !ok {
				return nil, errors.Errorf("premise references undeclared snapshot label %q", *tagged.Label)
			}
			arena.AddPremise(h, event)
		}
	}

	var tree *horn.SnapshotTree
	if len(labels) > 0 {
		tree = horn.NewSnapshotTree(arena, headHandles(rl.Snapshot, labels)...)
	}

	if rl.Result.Transfer != nil {
		h, ok := labels[rl.Result.Transfer.Label]
		if !ok {
			return nil, errors.Errorf("transfer result references undeclared snapshot label %q", rl.Result.Transfer.Label)
		}
		newState := convertMessage(rl.Result.Transfer.NewState)
		arena.SetTransfersTo(h, newState)
		result := horn.NewTransformationSet(horn.Transformation{Snapshot: h, NewState: newState})
		return horn.NewTransferringRule(premises, tree, guard, result)
	}

	event, err := convertEvent(rl.Result.Event)
	if err != nil {
		return nil, err
	}
	return horn.NewConsistentRule(premises, tree, guard, event)
}

// buildSnapshotArena materialises the (State, label) declarations of a
// rule's snapshot clause into an arena, then applies its orderings as
// prior-links. Returns the label→handle map alongside the arena so the
// caller can resolve premise tags and the transfer result's label.
func buildSnapshotArena(sc *SnapshotClause) (map[string]horn.SnapshotHandle, *horn.SnapshotArena, error) {
	arena := horn.NewSnapshotArena()
	labels := map[string]horn.SnapshotHandle{}
	if sc == nil {
		return labels, arena, nil
	}
	for _, rel := range sc.Relations {
		if rel.Pair == nil {
			continue
		}
		h := arena.New(rel.Pair.Cell.Name, convertMessage(rel.Pair.Cell.Value))
		labels[rel.Pair.Label] = h
	}
	for _, rel := range sc.Relations {
		if rel.Order == nil {
			continue
		}
		left, ok := labels[rel.Order.Left]
		if !ok {
			return nil, nil, errors.Errorf("ordering references undeclared snapshot label %q", rel.Order.Left)
		}
		right, ok := labels[rel.Order.Right]
		if !ok {
			return nil, nil, errors.Errorf("ordering references undeclared snapshot label %q", rel.Order.Right)
		}
		if err := arena.AddPrior(right, left, convertOrdering(rel.Order.Op)); err != nil {
			return nil, nil, errors.Wrap(err, "snapshot clause")
		}
	}
	return labels, arena, nil
}

// headHandles picks the snapshot tree's entry points: labels never named
// as the earlier (left) side of an ordering, since those are reachable by
// walking down from whichever label supersedes them.
func headHandles(sc *SnapshotClause, labels map[string]horn.SnapshotHandle) []horn.SnapshotHandle {
	isPrior := map[string]bool{}
	for _, rel := range sc.Relations {
		if rel.Order != nil {
			isPrior[rel.Order.Left] = true
		}
	}
	var heads []horn.SnapshotHandle
	for name, h := range labels {
		if !isPrior[name] {
			heads = append(heads, h)
		}
	}
	return heads
}

func convertOrdering(op string) horn.Ordering {
	switch op {
	case "⋖":
		return horn.ImmediatelyBefore
	case "~":
		return horn.Unchanged
	default:
		return horn.AtOrBefore
	}
}

// convertEvent maps one parsed EventExpr onto the horn.Event constructor
// its tag selects, per §6.1's "know|k, new|n, init|i, accept|a, leak|l,
// make|m".
func convertEvent(e *EventExpr) (horn.Event, error) {
	args := make([]*horn.IMessage, len(e.Args))
	for i, a := range e.Args {
		args[i] = convertMessage(a)
	}
	switch e.Tag {
	case "know", "k":
		if len(args) != 1 {
			return horn.Event{}, errors.Errorf("know() takes exactly one argument, got %d", len(args))
		}
		return horn.NewKnowEvent(args[0]), nil
	case "leak", "l":
		if len(args) != 1 {
			return horn.Event{}, errors.Errorf("leak() takes exactly one argument, got %d", len(args))
		}
		return horn.NewLeakEvent(args[0]), nil
	case "make", "m":
		if len(args) != 1 {
			return horn.Event{}, errors.Errorf("make() takes exactly one argument, got %d", len(args))
		}
		return horn.NewMakeEvent(args[0]), nil
	case "new", "n":
		if len(e.Args) != 2 || e.Args[1].Variable == nil {
			return horn.Event{}, errors.Errorf("new() takes a nonce and a bare location identifier")
		}
		return horn.NewNewEvent(args[0], *e.Args[1].Variable), nil
	case "init", "i":
		return horn.NewInitEvent(args...), nil
	case "accept", "a":
		return horn.NewAcceptEvent(args...), nil
	default:
		return horn.Event{}, errors.Errorf("unknown event tag %q", e.Tag)
	}
}

// convertMessage walks a parsed Message into a horn.IMessage, dispatching
// on whichever alternative the grammar populated.
func convertMessage(m *Message) *horn.IMessage {
	switch {
	case m.Function != nil:
		args := make([]*horn.IMessage, len(m.Function.Args))
		for i, a := range m.Function.Args {
			args[i] = convertMessage(a)
		}
		return horn.NewFunction(m.Function.Symbol, args...)
	case m.Name != nil:
		return horn.NewName(*m.Name)
	case m.Nonce != nil:
		return horn.NewNonce(*m.Nonce)
	case m.Tuple != nil:
		elems := make([]*horn.IMessage, len(m.Tuple))
		for i, e := range m.Tuple {
			elems[i] = convertMessage(e)
		}
		return horn.NewTuple(elems...)
	default:
		return horn.NewVariable(*m.Variable)
	}
}
