package hostsfile

import (
	"errors"
	"strings"
)

// Marker scan errors. Malformed marker layouts are treated as corrupt input
// and abort the run before any mutation.
var (
	// ErrAmbiguousBlock indicates more than one marker pair exists in the target
	ErrAmbiguousBlock = errors.New("multiple managed block marker pairs found in target")
	// ErrUnpairedMarkers indicates a start marker without a matching end marker, or vice versa
	ErrUnpairedMarkers = errors.New("managed block markers are unpaired or out of order")
)

// Markers holds the literal delimiter lines of the managed block
type Markers struct {
	Start string
	End   string
}

// ExtractManagedBlock returns the content strictly between the start and end
// markers, using an explicit two-phase index scan instead of a multi-line
// regex. found is false when neither marker is present. Unpaired, reversed,
// or duplicated markers yield an error.
func ExtractManagedBlock(content string, markers Markers) (block string, found bool, err error) {
	startIdx := strings.Index(content, markers.Start)
	endIdx := strings.Index(content, markers.End)

	if startIdx == -1 && endIdx == -1 {
		return "", false, nil
	}
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return "", false, ErrUnpairedMarkers
	}

	innerStart := startIdx + len(markers.Start)
	inner := content[innerStart:endIdx]

	// Any further marker occurrence after the first pair is ambiguous input.
	tail := content[endIdx+len(markers.End):]
	if strings.Contains(tail, markers.Start) || strings.Contains(tail, markers.End) || strings.Contains(inner, markers.Start) {
		return "", false, ErrAmbiguousBlock
	}

	return inner, true, nil
}

// RemoveManagedBlock removes the marker span, inclusive of both markers and a
// single trailing line terminator, from content. Content without a block is
// returned unchanged.
func RemoveManagedBlock(content string, markers Markers) (string, error) {
	_, found, err := ExtractManagedBlock(content, markers)
	if err != nil {
		return "", err
	}
	if !found {
		return content, nil
	}

	startIdx := strings.Index(content, markers.Start)
	endIdx := strings.Index(content, markers.End) + len(markers.End)

	// Swallow the line terminator that followed the end marker so removal
	// does not leave a stray blank line behind.
	if endIdx < len(content) && content[endIdx] == '\n' {
		endIdx++
	}

	return content[:startIdx] + content[endIdx:], nil
}
