package rulelang

import (
	"fmt"
	"strings"
)

// FormatErrors renders a compile error list one per line, in the order
// given (Compile reports them in source order), for a host to print
// directly to its error stream.
func FormatErrors(errs []CompileError) string {
	var b strings.Builder
	for i, e := range errs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// String summarises a compiled Model for diagnostic output: cell count,
// query target, and rule count. Not used by the compiler itself — a
// convenience for hosts that want to confirm what was parsed before
// running it.
func (m Model) String() string {
	limit := "default"
	if m.Limit > 0 {
		limit = fmt.Sprintf("%d", m.Limit)
	}
	when := ""
	if m.Query.When != nil {
		when = " when " + m.Query.When.String()
	}
	target := "<none>"
	if m.Query.Target != nil {
		target = m.Query.Target.String()
	}
	return fmt.Sprintf("states=%d rules=%d limit=%s query=leak %s%s",
		len(m.States.Cells()), len(m.Rules), limit, target, when)
}
