package horn

import (
	"fmt"

	"github.com/pkg/errors"
)

// StructuralError is the distinguished, fatal error kind of spec.md §7:
// "e.g. missing cell during trace match, cyclic snapshot tree; fatal
// (indicates upstream corruption)". Hosts recover it with errors.As rather
// than string matching.
type StructuralError struct {
	Kind   string
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("horn: structural invariant violated (%s): %s", e.Kind, e.Detail)
}

// RuleError is the "rule construction error" kind of spec.md §7: misuse of
// the rule-construction factory: a result that also appears among the
// rule's own premises, or a transferring rule with no transformations.
// Event tags are not checked against the position they are used in.
type RuleError struct {
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("horn: invalid rule: %s", e.Reason)
}

// wrapRuleError builds a *RuleError already wrapped with github.com/pkg/errors
// so a caller can still errors.Cause down to the *RuleError, matching the
// wrapping convention used pack-wide for error annotation (see
// SPEC_FULL.md §10).
func wrapRuleError(reason string) error {
	return errors.WithStack(&RuleError{Reason: reason})
}

func wrapStructuralError(kind, detail string) error {
	return errors.WithStack(&StructuralError{Kind: kind, Detail: detail})
}
