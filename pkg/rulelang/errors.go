package rulelang

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// CompileError is one per-line diagnostic of §7's "parse error ... surfaces
// per line to the host". Line and Column are 1-based.
type CompileError struct {
	Line    int
	Column  int
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

func newCompileError(pos lexer.Position, format string, args ...any) CompileError {
	return CompileError{Line: pos.Line, Column: pos.Column, Message: fmt.Sprintf(format, args...)}
}

// fromParseError converts a participle parse failure into a CompileError,
// falling back to line 1 if the underlying error carries no position
// (participle.Error wraps lexer.Position; errors.Cause unwraps any
// github.com/pkg/errors annotation added along the way).
func fromParseError(err error) CompileError {
	cause := errors.Cause(err)
	if pe, ok := cause.(interface{ Position() lexer.Position }); ok {
		return newCompileError(pe.Position(), "%s", err.Error())
	}
	return CompileError{Line: 1, Column: 1, Message: err.Error()}
}
