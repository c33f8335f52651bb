// Package rulelang is a reference compiler for the textual clause-source
// grammar of spec §6.1: a line-oriented language of init/query/limit
// declarations and rules, compiled into the horn package's structured
// model. It is a host collaborator, not part of the verification core —
// the core never parses text.
//
// Grounded on the lexer/parser-combinator shape used by participle-based
// DSLs throughout the retrieval pack (manifests reference
// github.com/alecthomas/participle/v2 for small configuration and query
// languages): one struct per grammar production, captured via struct
// tags, built once into a package-level *participle.Parser.
package rulelang

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "EOL", Pattern: `\n`},
	{Name: "NotUnify", Pattern: `~/>`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "ImmedPrecedes", Pattern: `⋖`},
	{Name: "Precedes", Pattern: `≤|<=`},
	{Name: "Concurrent", Pattern: `~`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[-\[\]<>(),:]`},
})

// Document is a whole clause-source file: a sequence of lines, blank
// lines allowed anywhere between them.
type Document struct {
	Lines []*Line `( EOL | @@ )*`
}

// Line is one of the four line kinds of §6.1. Alternatives are tried in
// this order, so "init"/"query"/"limit" are reserved words only when they
// appear as a line's leading token — a rule premise tagged "init(...)"
// still falls through to Rule once the Init/Query/Limit alternatives fail
// to match what follows.
type Line struct {
	Pos   lexer.Position
	Init  *InitLine  `  "init" @@`
	Query *QueryLine `| "query" "leak" @@`
	Limit *int       `| "limit" @Int`
	Rule  *RuleLine  `| @@`
}

// InitLine sets the initial state cells.
type InitLine struct {
	Cells []*CellState `@@ ("," @@)*`
}

// CellState is a state-cell name applied to a message value, written
// Name(Value) — e.g. SD(init[]).
type CellState struct {
	Name  string   `@Ident "("`
	Value *Message `@@ ")"`
}

// QueryLine is the leak target and optional precondition state.
type QueryLine struct {
	Target *Message   `@@`
	When   *CellState `( "when" @@ )?`
}

// RuleLine is "[guard] premises -[ snapshot-relations ]-> result".
type RuleLine struct {
	Guard    *GuardClause    `( @@ )?`
	Premises []*TaggedEvent  `( @@ ("," @@)* )?`
	Snapshot *SnapshotClause `"-" "[" @@ "]" "->"`
	Result   *ResultClause   `@@`
}

// GuardClause is a bracketed list of forbidden-value constraints.
type GuardClause struct {
	Forbids []*Forbid `"[" @@ ("," @@)* "]"`
}

// Forbid is one "x ~/> v" constraint: variable x cannot unify to v.
type Forbid struct {
	Var   string   `@Ident "~/>"`
	Value *Message `@@`
}

// TaggedEvent is a premise event, optionally associated with a snapshot
// label via a trailing "(label)".
type TaggedEvent struct {
	Event *EventExpr `@@`
	Label *string    `( "(" @Ident ")" )?`
}

// EventExpr is a tagged event call: know|k, new|n, init|i, accept|a,
// leak|l, or make|m applied to a parenthesised argument list.
type EventExpr struct {
	Tag  string     `@("know"|"k"|"new"|"n"|"init"|"i"|"accept"|"a"|"leak"|"l"|"make"|"m")`
	Args []*Message `"(" ( @@ ("," @@)* )? ")"`
}

// SnapshotClause is the bracketed body of a rule's "-[ ... ]->": a list of
// (State, label) pairs and label orderings.
type SnapshotClause struct {
	Relations []*Relation `( @@ ("," @@)* )?`
}

// Relation is one element of a snapshot clause: a (State, label)
// declaration or an ordering between two already-declared labels.
type Relation struct {
	Pair  *PairRelation  `  @@`
	Order *OrderRelation `| @@`
}

// PairRelation declares a label for a cell state, e.g. "(SD(init[]), a0)".
type PairRelation struct {
	Cell  *CellState `"(" @@ ","`
	Label string     `@Ident ")"`
}

// OrderRelation relates two labels: "≤"/"<=" (at-or-before), "⋖"
// (immediately before), or "~" (unchanged/concurrent).
type OrderRelation struct {
	Left  string `@Ident`
	Op    string `@("≤"|"<="|"⋖"|"~")`
	Right string `@Ident`
}

// ResultClause is either a transfer ("<label: NewState>") or a plain
// event — the two rule-result forms of §6.1.
type ResultClause struct {
	Transfer *TransferResult `  @@`
	Event    *EventExpr      `| @@`
}

// TransferResult is "<label: NewState>", the state-transferring result
// form.
type TransferResult struct {
	Label    string   `"<" @Ident ":"`
	NewState *Message `@@ ">"`
}

// Message is the recursive term grammar of §6.1: function applications
// and ground names are tried before the bare-identifier variable case, so
// "f(...)" and "name[]" are only ever read as a function or a name, never
// misparsed as a variable followed by dangling tokens.
type Message struct {
	Function *FunctionMsg `  @@`
	Name     *string      `| @Ident "[" "]"`
	Nonce    *string      `| "[" @Ident "]"`
	Tuple    []*Message   `| "<" @@ ("," @@)* ">"`
	Variable *string      `| @Ident`
}

// FunctionMsg is a symbol applied to an ordered argument list.
type FunctionMsg struct {
	Symbol string     `@Ident "("`
	Args   []*Message `( @@ ("," @@)* )? ")"`
}

var parser = participle.MustBuild[Document](
	participle.Lexer(ruleLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(8),
)

// stateParser parses a single "Name(Value)" fragment in isolation, used by
// ParseState for the host's --when command-line override rather than a
// whole document.
var stateParser = participle.MustBuild[CellState](
	participle.Lexer(ruleLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(8),
)
