package service

import (
	"math"
	"strings"

	"github.com/turtacn/dataguard/internal/domain/models"
)

// DiffEngine computes position-aligned line diffs.
//
// Line i of the old content is compared with line i of the new content only, so a
// single insertion near the top reports every following line as changed. Change
// percentages used for high-impact reporting are calibrated against this behaviour.
type DiffEngine struct{}

// NewDiffEngine creates a DiffEngine.
func NewDiffEngine() *DiffEngine {
	return &DiffEngine{}
}

// Diff compares old and new content line by line. A differing pair is emitted as a
// removal followed by an addition.
func (e *DiffEngine) Diff(oldContent, newContent []byte) ([]models.DiffLine, models.DiffStats) {
	oldLines := SplitLines(oldContent)
	newLines := SplitLines(newContent)

	n := len(oldLines)
	if len(newLines) > n {
		n = len(newLines)
	}

	lines := make([]models.DiffLine, 0, n)
	var stats models.DiffStats
	for i := 0; i < n; i++ {
		hasOld, hasNew := i < len(oldLines), i < len(newLines)
		switch {
		case hasOld && hasNew && oldLines[i] == newLines[i]:
			lines = append(lines, models.DiffLine{Type: models.DiffUnchanged, OldLineNo: i + 1, NewLineNo: i + 1, Content: oldLines[i]})
			stats.Unchanged++
		default:
			if hasOld {
				lines = append(lines, models.DiffLine{Type: models.DiffRemoved, OldLineNo: i + 1, Content: oldLines[i]})
				stats.Removed++
			}
			if hasNew {
				lines = append(lines, models.DiffLine{Type: models.DiffAdded, NewLineNo: i + 1, Content: newLines[i]})
				stats.Added++
			}
		}
	}
	stats.ChangePercentage = ChangePercentage(stats.Added, stats.Removed, stats.Unchanged)
	return lines, stats
}

// ChangePercentage returns (added+removed)/(added+removed+unchanged)*100 rounded to one
// decimal, or 0 when there are no lines at all.
func ChangePercentage(added, removed, unchanged int) float64 {
	total := added + removed + unchanged
	if total == 0 {
		return 0
	}
	pct := float64(added+removed) / float64(total) * 100
	return math.Round(pct*10) / 10
}

// SplitLines splits content on "\n". Empty content has no lines and a trailing newline
// does not open an extra empty line.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	s := strings.TrimSuffix(string(content), "\n")
	return strings.Split(s, "\n")
}

//Personal.AI order the ending
