package models

import "github.com/google/uuid"

// DiffLineType classifies one line of a diff.
type DiffLineType string

const (
	DiffAdded     DiffLineType = "added"
	DiffRemoved   DiffLineType = "removed"
	DiffUnchanged DiffLineType = "unchanged"
)

// DiffLine is one entry of a diff. Line numbers are 1-based; zero means the line has no
// counterpart on that side.
type DiffLine struct {
	Type      DiffLineType `json:"type"`
	OldLineNo int          `json:"old_line_no,omitempty"`
	NewLineNo int          `json:"new_line_no,omitempty"`
	Content   string       `json:"content"`
}

// DiffStats are the change statistics of a diff.
type DiffStats struct {
	Added            int     `json:"added"`
	Removed          int     `json:"removed"`
	Unchanged        int     `json:"unchanged"`
	ChangePercentage float64 `json:"change_percentage"`
}

// DiffResult is the full diff between two versions.
type DiffResult struct {
	OldVersionID uuid.UUID  `json:"old_version_id"`
	NewVersionID uuid.UUID  `json:"new_version_id"`
	Lines        []DiffLine `json:"lines"`
	Stats        DiffStats  `json:"stats"`
}

//Personal.AI order the ending
