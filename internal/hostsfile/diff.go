package hostsfile

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// BlockChangeStats summarizes the line-level change between the installed
// and the freshly fetched managed block
type BlockChangeStats struct {
	LinesAdded   int
	LinesRemoved int
}

// CalculateBlockChange computes line-level change statistics between the two
// block versions. Used for log context only; the update decision itself is
// the trimmed equality check in NeedsUpdate.
func CalculateBlockChange(installed, fetched string) BlockChangeStats {
	dmp := diffmatchpatch.New()

	oldLines := strings.TrimSpace(installed) + "\n"
	newLines := strings.TrimSpace(fetched) + "\n"

	chars1, chars2, lineArray := dmp.DiffLinesToChars(oldLines, newLines)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	stats := BlockChangeStats{}
	for _, diff := range diffs {
		lines := strings.Count(diff.Text, "\n")
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			stats.LinesAdded += lines
		case diffmatchpatch.DiffDelete:
			stats.LinesRemoved += lines
		}
	}
	return stats
}
