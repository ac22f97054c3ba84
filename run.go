package tracerx

import "fmt"

// Run drives the executor to completion, implementing the search loop of
// spec component K: repeatedly select a state from the searcher, execute
// it to its next decision point, apply the resource governor's quotas, and
// stop either when no more states remain or when a state's error kind is
// in Options.ExitOnErrorType. It returns every terminal state reached.
//
// Callers that want to interleave other work (for example cmd/tracerx's
// incremental test-case emission) can instead call ExecuteNextState
// directly in their own loop; Run exists for the common case of draining
// an executor unattended.
func (e *Executor) Run() ([]*ExecutionState, error) {
	e.governor()

	if e.Options != nil {
		if err := e.LoadDependencyFolder(e.Options.DependencyFolder); err != nil {
			return nil, fmt.Errorf("loading dependency folder: %w", err)
		}
	}

	var terminal []*ExecutionState
	for {
		state, err := e.ExecuteNextState()
		if err == ErrNoStateAvailable {
			break
		} else if err != nil {
			return terminal, err
		}

		if !state.Terminated() {
			continue
		}

		terminal = append(terminal, state)

		if state.Status() == ExecutionStatusPanicked || state.Status() == ExecutionStatusFailed {
			if kind := classifyTermination(state); e.Options.ExitOnErrorType.Contains(kind) {
				log.WithField("reason", state.Reason()).Warn("halting run: exitOnErrorType matched")
				break
			}
		}
	}
	return terminal, nil
}

// classifyTermination maps a terminated state to an ErrorKind for
// ExitOnErrorType matching. The precise kind is recorded by the instruction
// that terminated the state (state.errKind, via ExecutionState.fail), the
// same way klee's terminateStateOnError callers each pass their own
// TerminateReason; state.Status() alone only distinguishes panic vs. clean
// exit vs. assertion failure, so it is used only as a coarse fallback for
// the handful of call sites (if any) that terminate a state without going
// through fail.
func classifyTermination(state *ExecutionState) ErrorKind {
	if kind := state.ErrorKind(); kind != "" {
		return kind
	}
	switch state.Status() {
	case ExecutionStatusFailed:
		return ErrorKindAssert
	case ExecutionStatusPanicked:
		return ErrorKindUnhandled
	default:
		return ErrorKindExec
	}
}
