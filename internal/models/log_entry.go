package models

import "time"

// Severity classifies a run log entry. Ordering matters: higher values
// are worse and win during flush escalation.
type Severity int

const (
	SeverityInformation Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the severity name used in flushed and mirrored output
func (s Severity) String() string {
	switch s {
	case SeverityInformation:
		return "INFORMATION"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// EventCode returns the numeric code distinguishing flush categories at the sink
func (s Severity) EventCode() int {
	switch s {
	case SeverityWarning:
		return 2000
	case SeverityError:
		return 3000
	default:
		return 1000
	}
}

// LogEntry is one timestamped, leveled line accumulated during a run
type LogEntry struct {
	Timestamp time.Time
	Severity  Severity
	Message   string
}

// SinkEvent is the single record delivered to the structured sink at flush time
type SinkEvent struct {
	Source   string
	Severity Severity
	Code     int
	Message  string
}
