package consensus

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid option combination. It is raised
// before any round executes.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "consensus configuration: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// SolverError reports a failed restricted optimization. It is fatal for the
// whole run and carries enough round/agent context for offline diagnosis.
type SolverError struct {
	Round int
	Agent int
	// Violated lists the constraint family ids that entered the restricted
	// set because they were violated at the consensus point.
	Violated []int
	Info     string
	Err      error
}

func (e *SolverError) Error() string {
	msg := fmt.Sprintf("round %d agent %d: restricted solve failed: %s", e.Round, e.Agent, e.Info)
	if len(e.Violated) > 0 {
		ids := make([]string, len(e.Violated))
		for i, v := range e.Violated {
			ids[i] = fmt.Sprintf("%d", v)
		}
		msg += " (violated families: " + strings.Join(ids, ",") + ")"
	}
	return msg
}

func (e *SolverError) Unwrap() error { return e.Err }

// WarningKind classifies non-fatal warnings.
type WarningKind string

const (
	// KindConvergence marks max-rounds exhaustion or cross-agent
	// disagreement after the loop.
	KindConvergence WarningKind = "convergence"
	// KindOptions marks recognized-but-ignored or unknown options.
	KindOptions WarningKind = "options"
)

// Warning is surfaced on the Result; it never aborts a run.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Message
}
