package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/upload"
)

func statusLabel(status state.Status) string {
	switch status {
	case state.StatusProcessing:
		return "PROCESSING"
	case state.StatusCompleted:
		return "COMPLETED"
	case state.StatusError:
		return "ERROR"
	default:
		return "IDLE"
	}
}

// readinessLabel describes the capability gate. Before the first check the
// processor is reported as checking rather than not ready.
func readinessLabel(ready bool, checkedAt time.Time) string {
	switch {
	case checkedAt.IsZero():
		return "CHECKING"
	case ready:
		return "READY"
	default:
		return "NOT READY"
	}
}

// chapterLine returns "Chapter X of Y", or "" when the chapter count is unknown.
func chapterLine(job state.Job) string {
	if job.TotalChapters <= 0 {
		return ""
	}
	return fmt.Sprintf("Chapter %d of %d", job.CurrentChapter, job.TotalChapters)
}

func progressFraction(job state.Job) float64 {
	return float64(min(max(job.Progress, 0), 100)) / 100
}

// candidateLine summarizes a picked file, e.g. "book.pdf · 212 pages · 4.1 MB".
func candidateLine(c upload.Candidate) string {
	if c.Name == "" {
		return ""
	}
	parts := []string{c.Name}
	switch {
	case c.Pages == 1:
		parts = append(parts, "1 page")
	case c.Pages > 1:
		parts = append(parts, fmt.Sprintf("%d pages", c.Pages))
	}
	if c.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(c.Size)))
	}
	return strings.Join(parts, " · ")
}

// jobHint tells the user what they can do next.
func jobHint(snap state.Snapshot) string {
	switch {
	case snap.UploadInFlight:
		return "Uploading…"
	case snap.Status == state.StatusProcessing:
		return "Summarizing. Uploads are disabled until the job finishes."
	case snap.Status == state.StatusCompleted:
		return "Done. Press d to save summary.docx."
	case snap.Status == state.StatusError:
		return "Press o to upload a document again."
	default:
		return "Press o to choose a PDF to summarize."
	}
}

// lastSeen formats how long ago t happened, or "never".
func lastSeen(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// minDetectRunes is the shortest preview worth running language detection on.
const minDetectRunes = 80

// previewLanguage names the language the summary is written in, e.g.
// "English", or "" while the preview is too short to tell.
func previewLanguage(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minDetectRunes {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	tag, err := language.Parse(info.Lang.Iso6391())
	if err != nil {
		return ""
	}
	return display.English.Languages().Name(tag)
}

var logLevels = []string{"", "info", "warn", "error"}

func nextLogLevel(current string) string {
	for i, level := range logLevels {
		if level == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

func logLevelLabel(level string) string {
	if level == "" {
		return "all"
	}
	return level + "+"
}
