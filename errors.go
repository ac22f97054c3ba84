package tracerx

import "fmt"

// ErrorKind classifies why a state terminated in an error state, mirroring
// KLEE's error-kind taxonomy (original_source lib/Core/Executor.cpp's
// terminateStateOnError reason codes).
type ErrorKind string

const (
	ErrorKindAbort       ErrorKind = "abort"        // explicit abort/exit call
	ErrorKindAssert      ErrorKind = "assert"       // Assert() constraint violated
	ErrorKindExec        ErrorKind = "exec"         // unsupported/illegal instruction
	ErrorKindExternal    ErrorKind = "external"     // external function call failure
	ErrorKindFree        ErrorKind = "free"         // invalid free/double free
	ErrorKindModel       ErrorKind = "model"        // modeling limitation hit
	ErrorKindOverflow    ErrorKind = "overflow"     // arithmetic overflow
	ErrorKindPtr         ErrorKind = "ptr"          // invalid pointer dereference
	ErrorKindReadOnly    ErrorKind = "readonly"     // write to read-only object
	ErrorKindReportError ErrorKind = "reporterror"  // user-level error report
	ErrorKindUser        ErrorKind = "user"         // user-triggered runtime panic
	ErrorKindUnhandled   ErrorKind = "unhandled"    // uncategorized Go panic
)

// TerminationReason records why a state stopped running: its kind plus a
// free-form message and the source position at the point of termination.
type TerminationReason struct {
	Kind    ErrorKind
	Message string
	Pos     string
}

func (r TerminationReason) String() string {
	if r.Pos != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Kind, r.Message, r.Pos)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// ErrorKindSet is a multiset-like membership set of ErrorKinds, used for
// Options.ExitOnErrorType: the run halts entirely the first time a state
// terminates with an error kind present in the set.
type ErrorKindSet map[ErrorKind]struct{}

// NewErrorKindSet returns a set containing the given kinds.
func NewErrorKindSet(kinds ...ErrorKind) ErrorKindSet {
	s := make(ErrorKindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Contains returns true if kind is a member of the set.
func (s ErrorKindSet) Contains(kind ErrorKind) bool {
	_, ok := s[kind]
	return ok
}
