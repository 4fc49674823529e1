package ir

import "fmt"

// InternalError is a fatal assertion failure (spec §7.1): a bug in an
// upstream pass that the scheduling core detected but cannot recover from
// locally. It is returned as a Go error rather than panicking, so a caller
// (cmd/schedctl, or a test) can report it with context instead of crashing
// the process outright — matching the teacher's "return error, let cmd/
// decide whether to exit" discipline (internal/indexer returned LintResult,
// error; only cmd/vhdl-lint called os.Exit).
type InternalError struct {
	Loc     SourceLoc
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %s", e.Loc, e.Message)
}

// Fatalf constructs an *InternalError at loc, mirroring UASSERT_OBJ's
// "message and location" shape.
func Fatalf(loc SourceLoc, format string, args ...interface{}) error {
	return &InternalError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}
