package horn

import "github.com/sirupsen/logrus"

// Status is the outcome of a completed Engine.Execute run.
type Status int

const (
	// ProvenStatus means some nession's clause set derived the query.
	ProvenStatus Status = iota
	// FailedStatus means elaboration completed without deriving the
	// query — a query failure, not a Go error, per spec.md §7.
	FailedStatus
	// CancelledStatus means the host cancelled the engine before any
	// nession proved the query.
	CancelledStatus
)

func (s Status) String() string {
	switch s {
	case ProvenStatus:
		return "proven"
	case CancelledStatus:
		return "cancelled"
	default:
		return "failed"
	}
}

// Result is the outcome of an Engine run, per spec.md §7's "query failure
// ... represented by a Failed result carrying the query and optional
// when" and "cancellation ... horn.Result{Status: CancelledStatus}".
type Result struct {
	Status Status
	Query  *IMessage
	When   *State
	Attack *Attack
}

// EngineConfig holds the ambient tuning knobs of SPEC_FULL.md §7: max
// depth, depth-budget multiplier, logger, the iterative-checking flag,
// and the knit-pattern flag. Grounded on the functional-option pattern the
// teacher uses for pkg/minikanren/slg_engine.go's SLGConfig and
// internal/parallel/pool.go's DynamicConfig.
type EngineConfig struct {
	maxDepth            int
	maxDepthSet         bool
	depthBudgetMultiplier int
	logger              *logrus.Logger
	checkIteratively    bool
	enableKnitPatterns  bool
}

// Option configures an EngineConfig.
type Option func(*EngineConfig)

// WithMaxDepth overrides the elaborator's default maxDepth.
func WithMaxDepth(n int) Option {
	return func(c *EngineConfig) { c.maxDepth, c.maxDepthSet = n, true }
}

// WithLogger overrides the package-wide logrus logger used for ambient
// backtracking/trace logging.
func WithLogger(l *logrus.Logger) Option {
	return func(c *EngineConfig) { c.logger = l }
}

// WithDepthBudgetMultiplier overrides the query engine's depth-budget
// multiplier (default 2, per spec.md §4.6's "2 × max clause depth-delta +
// query depth").
func WithDepthBudgetMultiplier(n int) Option {
	return func(c *EngineConfig) { c.depthBudgetMultiplier = n }
}

// WithCheckIteratively enables spec.md §5's iterative completion-predicate
// mode.
func WithCheckIteratively() Option {
	return func(c *EngineConfig) { c.checkIteratively = true }
}

// WithKnitPatterns enables the optional transfer-rule grouping
// optimisation of spec.md §4.4, off by default per SPEC_FULL.md §11.
func WithKnitPatterns() Option {
	return func(c *EngineConfig) { c.enableKnitPatterns = true }
}

func newEngineConfig(opts []Option) *EngineConfig {
	c := &EngineConfig{depthBudgetMultiplier: 2}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Callbacks is the engine.execute callback surface fixed by
// SPEC_FULL.md §11: OnStartNextLevel runs at every elaboration level
// boundary; OnGlobalAttackFound fires the first time any nession proves
// the query; OnAttackAssessed fires each time a nession is assessed (nil
// Attack on a failed assessment) and can fire more than once for the same
// nession; OnCompletion fires exactly once with the final
// Result.
type Callbacks struct {
	OnStartNextLevel   func(level int)
	OnGlobalAttackFound func(*Attack)
	OnAttackAssessed    func(n *Nession, clauses []*HornClause, a *Attack)
	OnCompletion        func(Result)
}

// Engine is the top-level object spec.md §6.2 describes: constructed from
// the compiled model (states, query, rules, limit), it runs elaboration
// and backward search cooperatively via Execute.
type Engine struct {
	initial       StateSet
	query         *IMessage
	when          *State
	systemRules   []*Rule
	transferRules []*Rule
	knowledgeRules []*Rule
	config        *EngineConfig
}

// NewEngine partitions rules into knowledge rules (stateless consistent
// rules), system rules (state-consistent with a snapshot tree) and
// transfer rules (state-transferring), per spec.md §2's "user rules are
// partitioned by the engine into facts, knowledge rules, system rules, and
// transfer rules."
func NewEngine(initial StateSet, query *IMessage, when *State, rules []*Rule, opts ...Option) *Engine {
	e := &Engine{initial: initial, query: query, when: when, config: newEngineConfig(opts)}
	for _, r := range rules {
		switch {
		case r.Kind() == TransferringRule:
			e.transferRules = append(e.transferRules, r)
		case r.IsStateless():
			e.knowledgeRules = append(e.knowledgeRules, r)
		default:
			e.systemRules = append(e.systemRules, r)
		}
	}
	if e.config.logger != nil {
		logger = e.config.logger
	}
	return e
}

// Execute runs elaboration and backward search cooperatively, invoking cb
// at the points SPEC_FULL.md §11 specifies, and returns the final Result.
// A non-nil error is always a *StructuralError (spec.md §7); callers
// distinguish it from an ordinary query failure with errors.As, since a
// Result with FailedStatus is returned only when err is nil.
func (e *Engine) Execute(cb Callbacks) (Result, error) {
	elaborator := NewElaborator(e.systemRules, e.transferRules)
	if e.config.maxDepthSet {
		elaborator.MaxDepth = e.config.maxDepth
	}
	if e.when != nil {
		elaborator.MaxDepth *= 2
	}
	elaborator.CheckIteratively = e.config.checkIteratively
	elaborator.EnableKnitPatterns = e.config.enableKnitPatterns
	elaborator.OnStartLevel = cb.OnStartNextLevel

	var found *Attack
	assess := func(n *Nession) *Attack {
		whenFrame := -1
		goal := e.query
		if e.when != nil {
			whenFrame = WhenFrameIndex(n, *e.when)
			if whenFrame < 0 {
				if cb.OnAttackAssessed != nil {
					cb.OnAttackAssessed(n, nil, nil)
				}
				return nil
			}
			goal = ReformulateForWhen(e.query, n, whenFrame, e.when.Name)
		}

		var whenValue *IMessage
		if e.when != nil {
			whenValue = e.when.Value
		}
		clauses := BuildClauses(n, whenValue)
		clauses = append(clauses, factClauses(e.knowledgeRules)...)
		clauses = DetupleAll(clauses)

		qe := NewQueryEngine(clauses, goal.FindMaximumDepth())
		qe.DepthMultiplier = e.config.depthBudgetMultiplier
		node := qe.Prove(goal, unboundedRank, EmptyGuard)

		if node.Status != Proven {
			if cb.OnAttackAssessed != nil {
				cb.OnAttackAssessed(n, clauses, nil)
			}
			return nil
		}

		attack, err := BuildAttack(e.query, node, e.when)
		if err != nil {
			// A proof that only became inconsistent once reassembled
			// across shared tabled nodes is not an attack (spec.md
			// §4.6: "if none consistent, the parent node fails at that
			// option") — not a structural error.
			logBacktrack(logrus.Fields{"query": e.query.String(), "error": err.Error()}, "attack assembly rejected: state-variable conflict")
			if cb.OnAttackAssessed != nil {
				cb.OnAttackAssessed(n, clauses, nil)
			}
			return nil
		}
		if cb.OnAttackAssessed != nil {
			cb.OnAttackAssessed(n, clauses, attack)
		}
		return attack
	}

	elaborator.Predicate = func(nessions []*Nession) bool {
		for _, n := range nessions {
			if a := assess(n); a != nil {
				found = a
				if cb.OnGlobalAttackFound != nil {
					cb.OnGlobalAttackFound(a)
				}
				return true
			}
		}
		return false
	}
	nessions, err := elaborator.Elaborate(e.initial)
	if err != nil {
		return Result{}, err
	}
	if !e.config.checkIteratively && found == nil {
		for _, n := range nessions {
			if a := assess(n); a != nil {
				found = a
				if cb.OnGlobalAttackFound != nil {
					cb.OnGlobalAttackFound(a)
				}
				break
			}
		}
	}

	result := Result{Query: e.query, When: e.when}
	switch {
	case found != nil:
		result.Status = ProvenStatus
		result.Attack = found
	case elaborator.cancelled:
		result.Status = CancelledStatus
	default:
		result.Status = FailedStatus
	}

	if cb.OnCompletion != nil {
		cb.OnCompletion(result)
	}
	return result, nil
}

// factClauses renders the engine's stateless knowledge rules as Horn
// clauses, combined with each nession's own derived clause set per
// spec.md §2's "the engine derives a rank-annotated Horn-clause set
// combined with the global knowledge rules."
func factClauses(knowledgeRules []*Rule) []*HornClause {
	var out []*HornClause
	for _, r := range knowledgeRules {
		premises := make([]*IMessage, 0, len(r.Premises()))
		for _, p := range r.Premises() {
			if p.Tag() == Know {
				premises = append(premises, p.Message())
			}
		}
		out = append(out, &HornClause{
			Premises: premises,
			Result:   r.ResultEvent().Message(),
			Guard:    r.Guard(),
			Rank:     unboundedRank,
			Provenance: Provenance{Source: "rule", Nession: -1, Frame: -1, RuleID: r.ID()},
		})
	}
	return out
}
