package hostsfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hostpatch/internal/config"

	"github.com/rs/zerolog"
)

// MissingTargetError indicates the target hosts file does not exist
type MissingTargetError struct {
	Path string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("target file '%s' does not exist", e.Path)
}

// ApplyError indicates the patched content could not be written or promoted
type ApplyError struct {
	Path    string
	Reason  string
	Wrapped error
}

func (e *ApplyError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("apply failed for '%s': %s: %v", e.Path, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("apply failed for '%s': %s", e.Path, e.Reason)
}

func (e *ApplyError) Unwrap() error {
	return e.Wrapped
}

// Patcher owns the target hosts file: it extracts the installed managed
// block, decides whether an update is needed, and atomically replaces the
// file with a re-spliced version. The target is never edited in place; the
// only mutation is a single rename over it.
type Patcher struct {
	targetPath string
	markers    Markers
	logger     zerolog.Logger

	// replaced in tests to inject promotion failures
	rename func(oldpath, newpath string) error
}

// NewPatcher creates a new Patcher from the hosts patch configuration
func NewPatcher(cfg config.HostsPatchConfig, logger zerolog.Logger) *Patcher {
	return &Patcher{
		targetPath: cfg.TargetPath,
		markers:    Markers{Start: cfg.StartMarker, End: cfg.EndMarker},
		logger:     logger.With().Str("component", "Patcher").Logger(),
		rename:     os.Rename,
	}
}

// TargetPath returns the path of the managed hosts file
func (p *Patcher) TargetPath() string {
	return p.targetPath
}

// ReadTarget reads the whole target file. A missing file is reported as a
// MissingTargetError; target-file mutation requires that the invoking
// environment already holds the necessary filesystem permission.
func (p *Patcher) ReadTarget() (string, error) {
	data, err := os.ReadFile(p.targetPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &MissingTargetError{Path: p.targetPath}
		}
		return "", &ApplyError{Path: p.targetPath, Reason: "failed to read target", Wrapped: err}
	}
	return string(data), nil
}

// InstalledBlock extracts the currently installed managed block from
// targetContent, reporting whether one is present
func (p *Patcher) InstalledBlock(targetContent string) (string, bool, error) {
	return ExtractManagedBlock(targetContent, p.markers)
}

// NeedsUpdate reports whether the installed managed block differs from
// newBlock. Both sides are compared after trimming leading and trailing
// whitespace only, so trivial trailing-newline differences never cause
// update oscillation. An absent block always needs an update.
func (p *Patcher) NeedsUpdate(targetContent, newBlock string) (bool, error) {
	installed, found, err := ExtractManagedBlock(targetContent, p.markers)
	if err != nil {
		return false, err
	}

	if !found {
		p.logger.Info().Str("path", p.targetPath).Msg("No managed block installed, first-time install needed")
		return true, nil
	}

	if strings.TrimSpace(installed) == strings.TrimSpace(newBlock) {
		p.logger.Info().Str("path", p.targetPath).Msg("Installed managed block already matches remote content")
		return false, nil
	}

	stats := CalculateBlockChange(installed, newBlock)
	p.logger.Info().
		Int("lines_added", stats.LinesAdded).
		Int("lines_removed", stats.LinesRemoved).
		Msg("Installed managed block differs from remote content")
	return true, nil
}

// Apply splices newBlock into the target content and atomically promotes the
// result over the target file:
//  1. remove any existing marker span, inclusive of both markers
//  2. trim trailing line terminators, then append a blank separator line,
//     the start marker, the block content, and the end marker
//  3. write the result to a temporary file in the target's directory
//  4. rename the temporary file over the target
//
// On any failure in steps 3-4 the temporary file is removed and the target
// is left untouched.
func (p *Patcher) Apply(targetContent, newBlock string) error {
	// Marker text inside the block would pair up with the real delimiters
	// and leave the target with more than one managed block.
	if strings.Contains(newBlock, p.markers.Start) || strings.Contains(newBlock, p.markers.End) {
		return &ApplyError{Path: p.targetPath, Reason: "block content contains a managed block marker"}
	}

	remainder, err := RemoveManagedBlock(targetContent, p.markers)
	if err != nil {
		return &ApplyError{Path: p.targetPath, Reason: "failed to remove existing managed block", Wrapped: err}
	}

	patched := p.splice(remainder, newBlock)

	mode := os.FileMode(0644)
	if info, statErr := os.Stat(p.targetPath); statErr == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(p.targetPath)
	tmpFile, err := os.CreateTemp(dir, ".hostpatch-*.tmp")
	if err != nil {
		return &ApplyError{Path: p.targetPath, Reason: "failed to create temporary file", Wrapped: err}
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.WriteString(patched); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return &ApplyError{Path: p.targetPath, Reason: "failed to write temporary file", Wrapped: err}
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return &ApplyError{Path: p.targetPath, Reason: "failed to close temporary file", Wrapped: err}
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return &ApplyError{Path: p.targetPath, Reason: "failed to set temporary file mode", Wrapped: err}
	}

	if err := p.rename(tmpPath, p.targetPath); err != nil {
		os.Remove(tmpPath)
		return &ApplyError{Path: p.targetPath, Reason: "failed to promote temporary file", Wrapped: err}
	}

	p.logger.Info().Str("path", p.targetPath).Int("bytes", len(patched)).Msg("Managed block applied and promoted")
	return nil
}

// splice appends the freshly delimited block to the remainder content
func (p *Patcher) splice(remainder, newBlock string) string {
	var b strings.Builder

	trimmed := strings.TrimRight(remainder, "\r\n")
	if trimmed != "" {
		b.WriteString(trimmed)
		b.WriteString("\n\n") // blank separator line before the block
	}

	b.WriteString(p.markers.Start)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(newBlock))
	b.WriteString("\n")
	b.WriteString(p.markers.End)
	b.WriteString("\n")

	return b.String()
}
