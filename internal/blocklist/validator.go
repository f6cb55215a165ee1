package blocklist

import (
	"fmt"
	"strings"

	"hostpatch/internal/config"
	"hostpatch/internal/fetcher"

	"github.com/rs/zerolog"
	"golang.org/x/net/idna"
)

const (
	// CommentPrefix marks a comment line in the blocklist grammar
	CommentPrefix = "#"
	// EntrySentinel is the fixed address prefix every entry line must start with
	EntrySentinel = "0.0.0.0"
)

// ValidationError indicates the fetched payload contains a non-conforming line.
// The whole payload is rejected; there is no partial acceptance.
type ValidationError struct {
	LineNumber int
	Line       string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("blocklist validation failed at line %d: %s (line: %q)", e.LineNumber, e.Reason, e.Line)
}

// NewValidationError creates a new validation error
func NewValidationError(lineNumber int, line, reason string) *ValidationError {
	return &ValidationError{
		LineNumber: lineNumber,
		Line:       line,
		Reason:     reason,
	}
}

// Validator enforces the per-line blocklist grammar. A line must be blank,
// a comment, or an entry: the sentinel prefix, whitespace, then one or more
// hostnames (an inline trailing comment is allowed). Lines carrying the
// configured block markers are rejected outright: splicing one into the
// target would break the single-managed-block invariant.
type Validator struct {
	startMarker string
	endMarker   string
	logger      zerolog.Logger
}

// NewValidator creates a new Validator aware of the managed block markers
func NewValidator(cfg config.HostsPatchConfig, logger zerolog.Logger) *Validator {
	return &Validator{
		startMarker: cfg.StartMarker,
		endMarker:   cfg.EndMarker,
		logger:      logger.With().Str("component", "BlocklistValidator").Logger(),
	}
}

// Validate checks every line of content against the grammar and fails fast
// on the first non-conforming line. Any line-ending convention is accepted.
func (v *Validator) Validate(content string) error {
	lines := strings.Split(fetcher.NormalizeLineEndings(content), "\n")

	for i, line := range lines {
		if err := v.validateLine(i+1, line); err != nil {
			v.logger.Error().Int("line", i+1).Str("content", line).Msg("Rejecting blocklist payload")
			return err
		}
	}

	v.logger.Debug().Int("lines", len(lines)).Msg("Blocklist payload validated")
	return nil
}

// validateLine checks a single line against the grammar
func (v *Validator) validateLine(lineNumber int, line string) error {
	// A marker smuggled through the comment grammar would end up inside
	// the managed block and corrupt the marker pairing on the next run.
	if v.containsMarker(line) {
		return NewValidationError(lineNumber, line, "line contains a managed block marker")
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, CommentPrefix) {
		return nil
	}

	if !strings.HasPrefix(trimmed, EntrySentinel) {
		return NewValidationError(lineNumber, line, "line is neither blank, comment, nor a sentinel entry")
	}
	rest := trimmed[len(EntrySentinel):]
	if rest == "" || !isSpace(rest[0]) {
		return NewValidationError(lineNumber, line, "sentinel prefix must be followed by whitespace")
	}

	hostnames := 0
	for _, field := range strings.Fields(rest) {
		if strings.HasPrefix(field, CommentPrefix) {
			break // inline trailing comment
		}
		if _, err := idna.Lookup.ToASCII(field); err != nil {
			return NewValidationError(lineNumber, line, fmt.Sprintf("invalid hostname %q: %v", field, err))
		}
		hostnames++
	}
	if hostnames == 0 {
		return NewValidationError(lineNumber, line, "entry has no hostname")
	}

	return nil
}

// containsMarker reports whether line carries either configured marker
func (v *Validator) containsMarker(line string) bool {
	if v.startMarker != "" && strings.Contains(line, v.startMarker) {
		return true
	}
	return v.endMarker != "" && strings.Contains(line, v.endMarker)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
