package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "INFORMATION", SeverityInformation.String())
	assert.Equal(t, "WARNING", SeverityWarning.String())
	assert.Equal(t, "ERROR", SeverityError.String())
	assert.Equal(t, "UNKNOWN", Severity(42).String())
}

func TestSeverityEventCode(t *testing.T) {
	assert.Equal(t, 1000, SeverityInformation.EventCode())
	assert.Equal(t, 2000, SeverityWarning.EventCode())
	assert.Equal(t, 3000, SeverityError.EventCode())
}

func TestSeverityOrdering(t *testing.T) {
	assert.Greater(t, SeverityError, SeverityWarning)
	assert.Greater(t, SeverityWarning, SeverityInformation)
}

func TestRunOutcome(t *testing.T) {
	assert.True(t, RunOutcome{Status: RunStatusUpdated}.Success())
	assert.True(t, RunOutcome{Status: RunStatusNoChangeNeeded}.Success())
	assert.Equal(t, 0, RunOutcome{Status: RunStatusNoChangeNeeded}.ExitCode())

	failed := NewFailedOutcome("fetch failed")
	assert.False(t, failed.Success())
	assert.Equal(t, 1, failed.ExitCode())
	assert.Equal(t, "fetch failed", failed.FailureReason)
}
