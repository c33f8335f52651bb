package horn

import "github.com/sirupsen/logrus"

// logger is the package-wide structured logger. It defaults to logrus's
// standard logger so the package is usable without configuration; hosts
// wire their own via WithLogger. Grounded on the ambient logging style
// pervasive across the retrieval pack (SPEC_FULL.md §10) — the teacher
// carries no logging library of its own, so this is adopted from the rest
// of the pack rather than hand-rolled.
var logger = logrus.StandardLogger()

// logBacktrack records a recoverable, silently-backtracked local failure
// at Debug level, per spec.md §7's policy: "the resolver and elaborator
// recover from local failures... by silently backtracking"; these are
// never surfaced as a Go error.
func logBacktrack(fields logrus.Fields, msg string) {
	logger.WithFields(fields).Debug(msg)
}

// logTrace records a fine-grained step (node expansion, candidate
// rejection) at Trace level.
func logTrace(fields logrus.Fields, msg string) {
	logger.WithFields(fields).Trace(msg)
}
