package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/upload"
)

func TestReadinessLabel(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "CHECKING", readinessLabel(false, time.Time{}))
	assert.Equal(t, "CHECKING", readinessLabel(true, time.Time{}))
	assert.Equal(t, "READY", readinessLabel(true, now))
	assert.Equal(t, "NOT READY", readinessLabel(false, now))
}

func TestChapterLine(t *testing.T) {
	assert.Equal(t, "", chapterLine(state.Job{}))
	assert.Equal(t, "Chapter 2 of 5", chapterLine(state.Job{CurrentChapter: 2, TotalChapters: 5}))
	assert.Equal(t, "Chapter 0 of 3", chapterLine(state.Job{TotalChapters: 3}))
}

func TestProgressFraction_Clamps(t *testing.T) {
	assert.InDelta(t, 0.0, progressFraction(state.Job{Progress: -5}), 1e-9)
	assert.InDelta(t, 0.42, progressFraction(state.Job{Progress: 42}), 1e-9)
	assert.InDelta(t, 1.0, progressFraction(state.Job{Progress: 250}), 1e-9)
}

func TestCandidateLine(t *testing.T) {
	assert.Equal(t, "", candidateLine(upload.Candidate{}))
	assert.Equal(t, "a.pdf", candidateLine(upload.Candidate{Name: "a.pdf"}))
	assert.Equal(t, "a.pdf · 1 page", candidateLine(upload.Candidate{Name: "a.pdf", Pages: 1}))
	assert.Equal(t, "book.pdf · 212 pages · 4.1 MB",
		candidateLine(upload.Candidate{Name: "book.pdf", Pages: 212, Size: 4_100_000}))
}

func TestJobHint(t *testing.T) {
	tests := []struct {
		name string
		snap state.Snapshot
		want string
	}{
		{"idle", state.Snapshot{Job: state.Job{Status: state.StatusIdle}}, "Press o to choose a PDF to summarize."},
		{"uploading", state.Snapshot{Job: state.Job{Status: state.StatusProcessing}, UploadInFlight: true}, "Uploading…"},
		{"completed", state.Snapshot{Job: state.Job{Status: state.StatusCompleted}}, "Done. Press d to save summary.docx."},
		{"error", state.Snapshot{Job: state.Job{Status: state.StatusError}}, "Press o to upload a document again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jobHint(tt.snap))
		})
	}
}

func TestLastSeen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", lastSeen(time.Time{}, now))
	assert.Equal(t, "just now", lastSeen(now.Add(-200*time.Millisecond), now))
	assert.Equal(t, "10 seconds ago", lastSeen(now.Add(-10*time.Second), now))
}

func TestPreviewLanguage(t *testing.T) {
	assert.Equal(t, "", previewLanguage(""))
	assert.Equal(t, "", previewLanguage("Too short to tell."))

	english := "The first chapter follows the keeper of a remote lighthouse through a long winter. " +
		"She records every passing ship in her journal and slowly realises that the same vessel " +
		"has been circling the island for weeks, always just beyond the reach of her lamp."
	assert.Equal(t, "English", previewLanguage(english))
}

func TestNextLogLevel_Cycles(t *testing.T) {
	level := ""
	var seen []string
	for range logLevels {
		level = nextLogLevel(level)
		seen = append(seen, logLevelLabel(level))
	}
	assert.Equal(t, []string{"info+", "warn+", "error+", "all"}, seen)
	assert.Equal(t, "", nextLogLevel("bogus"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "/ho…docx", truncateMiddle("/home/user/summary.docx", 8))
}
