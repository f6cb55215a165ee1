package models

// RunStatus represents the terminal state of one update run
type RunStatus string

const (
	// RunStatusNoChangeNeeded indicates the installed block already matches the remote list
	RunStatusNoChangeNeeded RunStatus = "NO_CHANGE_NEEDED"
	// RunStatusUpdated indicates the managed block was replaced and promoted
	RunStatusUpdated RunStatus = "UPDATED"
	// RunStatusFailed indicates the run aborted at some pipeline stage
	RunStatusFailed RunStatus = "FAILED"
)

// RunOutcome is the terminal result of a single pipeline execution
type RunOutcome struct {
	Status        RunStatus
	FailureReason string
}

// Success reports whether the run finished without an unrecovered failure.
// The no-op case counts as success.
func (ro RunOutcome) Success() bool {
	return ro.Status != RunStatusFailed
}

// ExitCode maps the outcome to the process exit signal
func (ro RunOutcome) ExitCode() int {
	if ro.Success() {
		return 0
	}
	return 1
}

// NewFailedOutcome creates a failed outcome with the given reason
func NewFailedOutcome(reason string) RunOutcome {
	return RunOutcome{
		Status:        RunStatusFailed,
		FailureReason: reason,
	}
}
