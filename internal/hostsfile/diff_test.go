package hostsfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBlockChange(t *testing.T) {
	t.Run("counts added and removed lines", func(t *testing.T) {
		installed := "0.0.0.0 a.example.com\n0.0.0.0 b.example.com\n"
		fetched := "0.0.0.0 a.example.com\n0.0.0.0 c.example.com\n0.0.0.0 d.example.com\n"

		stats := CalculateBlockChange(installed, fetched)
		assert.Equal(t, 2, stats.LinesAdded)
		assert.Equal(t, 1, stats.LinesRemoved)
	})

	t.Run("identical blocks have no change", func(t *testing.T) {
		block := "# comment\n0.0.0.0 example.com\n"
		stats := CalculateBlockChange(block, block)
		assert.Equal(t, 0, stats.LinesAdded)
		assert.Equal(t, 0, stats.LinesRemoved)
	})

	t.Run("trailing whitespace differences are not changes", func(t *testing.T) {
		stats := CalculateBlockChange("0.0.0.0 a.example.com", "0.0.0.0 a.example.com\n\n")
		assert.Equal(t, 0, stats.LinesAdded)
		assert.Equal(t, 0, stats.LinesRemoved)
	})
}
