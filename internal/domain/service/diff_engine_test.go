package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/service"
)

func TestDiffEngine_Substitution(t *testing.T) {
	lines, stats := service.NewDiffEngine().Diff([]byte("a\nb"), []byte("a\nc"))

	assert.Equal(t, []models.DiffLine{
		{Type: models.DiffUnchanged, OldLineNo: 1, NewLineNo: 1, Content: "a"},
		{Type: models.DiffRemoved, OldLineNo: 2, Content: "b"},
		{Type: models.DiffAdded, NewLineNo: 2, Content: "c"},
	}, lines)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Removed)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 66.7, stats.ChangePercentage)
}

func TestDiffEngine_Identical(t *testing.T) {
	content := []byte("line one\nline two\nline three\n")
	lines, stats := service.NewDiffEngine().Diff(content, content)

	assert.Len(t, lines, 3)
	assert.Zero(t, stats.Added)
	assert.Zero(t, stats.Removed)
	assert.Equal(t, 3, stats.Unchanged)
	assert.Zero(t, stats.ChangePercentage)
}

func TestDiffEngine_Cases(t *testing.T) {
	tests := []struct {
		name      string
		old, new  string
		added     int
		removed   int
		unchanged int
		pct       float64
	}{
		{"both empty", "", "", 0, 0, 0, 0},
		{"from empty", "", "a\nb", 2, 0, 0, 100},
		{"to empty", "a\nb", "", 0, 2, 0, 100},
		{"appended line", "a\nb", "a\nb\nc", 1, 0, 2, 33.3},
		{"truncated", "a\nb\nc\nd", "a\nb", 0, 2, 2, 50},
		// an insertion at the top shifts every line
		{"inserted at top", "a\nb", "x\na\nb", 3, 2, 0, 100},
		{"trailing newline only", "a\nb", "a\nb\n", 0, 0, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stats := service.NewDiffEngine().Diff([]byte(tt.old), []byte(tt.new))
			assert.Equal(t, tt.added, stats.Added, "added")
			assert.Equal(t, tt.removed, stats.Removed, "removed")
			assert.Equal(t, tt.unchanged, stats.Unchanged, "unchanged")
			assert.Equal(t, tt.pct, stats.ChangePercentage)
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, service.SplitLines(nil))
	assert.Equal(t, []string{""}, service.SplitLines([]byte("\n")))
	assert.Equal(t, []string{"a", "", "b"}, service.SplitLines([]byte("a\n\nb")))
}
