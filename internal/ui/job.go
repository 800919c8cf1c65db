package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/conspect/internal/state"
)

// renderMain renders the header, command bar, content and banners.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderJobView())
	}

	if banners := m.renderBanners(); banners != "" {
		b.WriteString("\n")
		b.WriteString(banners)
	}
	return b.String()
}

func (m Model) renderJobView() string {
	if m.width >= LayoutSplitWidth {
		job := m.renderJobPane(LayoutJobPaneWidth)
		preview := m.renderPreviewPane(m.width - LayoutJobPaneWidth - 4)
		return lipgloss.JoinHorizontal(lipgloss.Top, job, preview)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderJobPane(m.width-2),
		m.renderPreviewPane(m.width-2),
	)
}

// renderJobPane shows the job status, progress and the job-scoped error.
func (m Model) renderJobPane(width int) string {
	styles := m.theme.Styles()
	snap := m.snapshot
	inner := max(width-4, 10)

	var lines []string
	lines = append(lines, styles.PanelTitle.Render("Job")+"  "+styles.StatusChip(snap.Status))

	if name := m.fileLine(); name != "" {
		lines = append(lines, styles.Text.Render(truncate(name, inner)))
	}

	if snap.Status != state.StatusIdle {
		bar := progress.New(
			progress.WithGradient(m.theme.Accent, m.theme.Success),
			progress.WithWidth(inner),
		)
		lines = append(lines, "", bar.ViewAs(progressFraction(snap.Job)))
		if chapter := chapterLine(snap.Job); chapter != "" {
			lines = append(lines, styles.MutedText.Render(chapter))
		}
	}

	if snap.Status == state.StatusError {
		msg := lipgloss.NewStyle().Width(inner).Render(snap.ErrorMessage)
		lines = append(lines, "", styles.DangerText.Render(msg))
	}

	lines = append(lines, "", styles.FaintText.Render(lipgloss.NewStyle().Width(inner).Render(jobHint(snap))))

	if m.retriever != nil && snap.Status == state.StatusCompleted {
		lines = append(lines, styles.FaintText.Render("→ "+truncateMiddle(m.retriever.Dir(), inner-2)))
	}

	return styles.Panel.Width(width).Render(strings.Join(lines, "\n"))
}

func (m Model) fileLine() string {
	if m.snapshot.FileName == "" {
		return ""
	}
	if m.candidate.Name == m.snapshot.FileName {
		return candidateLine(m.candidate)
	}
	return m.snapshot.FileName
}

func (m Model) renderPreviewPane(width int) string {
	styles := m.theme.Styles()
	title := styles.PanelTitle.Render("Preview")
	if lang := m.previewLang; lang != "" {
		title += styles.MutedText.Render(" · " + lang)
	}
	if !m.preview.AtBottom() {
		title += styles.FaintText.Render("  (scrolled, G to follow)")
	}
	body := m.preview.View()
	if strings.TrimSpace(m.previewText) == "" {
		body = styles.FaintText.Render("Summaries appear here as chapters are processed.")
	}
	return styles.PanelFocus.Width(width).Render(title + "\n" + body)
}

// renderBanners renders the scoped, dismissable messages.
func (m Model) renderBanners() string {
	var out []string
	if m.validationErr != "" {
		out = append(out, m.theme.Styles().Banner(m.theme.Warning, "✗ "+m.validationErr+"  (esc)", m.width))
	}
	if m.downloadErr != "" {
		out = append(out, m.theme.Styles().Banner(m.theme.Danger, "✗ "+m.downloadErr+"  (esc)", m.width))
	}
	if m.notice != "" {
		out = append(out, m.theme.Styles().Banner(m.theme.Info, m.notice, m.width))
	}
	return strings.Join(out, "\n")
}

func (m *Model) initPreview() {
	m.preview = viewport.New(0, 0)
}

// previewSize returns the viewport dimensions for the current layout.
func (m Model) previewSize() (int, int) {
	chrome := 2 + 2 + 1 + 1 // header, command bar, panel border, title
	if m.width >= LayoutSplitWidth {
		return max(m.width-LayoutJobPaneWidth-8, 10), max(m.height-chrome-3, 3)
	}
	jobHeight := 12
	return max(m.width-6, 10), max(m.height-chrome-jobHeight-3, 3)
}

func (m *Model) resizePreview() {
	m.preview.Width, m.preview.Height = m.previewSize()
}

// updatePreview replaces the preview text. The pane keeps following new text
// unless the user has scrolled away from the bottom.
func (m *Model) updatePreview() {
	text := m.snapshot.PreviewText
	if text == m.previewText {
		return
	}
	follow := m.preview.AtBottom() || m.previewText == ""
	m.previewText = text
	m.previewLang = previewLanguage(text)
	m.preview.SetContent(lipgloss.NewStyle().Width(m.preview.Width).Render(text))
	if follow {
		m.preview.GotoBottom()
	}
}

func (m Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Top):
		m.preview.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.preview.GotoBottom()
	case key.Matches(msg, m.keys.Up):
		m.preview.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.preview.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.preview.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.preview.PageDown()
	}
	return m, nil
}
