package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutSplitWidth is the minimum width for the side-by-side job and
	// preview panes.
	LayoutSplitWidth = 110

	// LayoutJobPaneWidth is the job pane width in the split layout.
	LayoutJobPaneWidth = 46
)

// Log display limits.
const (
	// LogTailLines is how many lines of the client log the log view shows.
	LogTailLines = 200
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second
)
