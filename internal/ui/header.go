package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/conspect/internal/state"
)

// renderHeader renders the status bar: logo, processor readiness, job status
// and connection health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := lipgloss.Color(m.theme.Surface)
	on := func(s lipgloss.Style) lipgloss.Style { return s.Background(bg) }
	sep := on(lipgloss.NewStyle()).Render("  ")

	parts := []string{on(styles.Logo).Render("conspect")}

	switch readinessLabel(m.gateReady, m.checkedAt) {
	case "READY":
		parts = append(parts, on(styles.SuccessText).Render("● services ready"))
	case "NOT READY":
		parts = append(parts, on(styles.DangerText).Render("● services not ready"))
	default:
		parts = append(parts, on(styles.WarningText).Render("● checking services…"))
	}

	chip := m.theme.Styles().StatusChip(m.snapshot.Status)
	if m.snapshot.Status == state.StatusProcessing || m.snapshot.UploadInFlight {
		chip += on(lipgloss.NewStyle()).Render(" ") + on(styles.AccentText).Render(m.spinner.View())
	}
	parts = append(parts, chip)

	if m.snapshot.IsOffline() {
		parts = append(parts, on(styles.WarningText.Bold(true)).Render("OFFLINE")+
			on(styles.MutedText).Render(" last ok "+lastSeen(m.snapshot.LastResponse, time.Now())))
	}

	if m.apiURL != "" {
		parts = append(parts, on(styles.FaintText).Render(truncateMiddle(m.apiURL, 40)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderCommandBar renders the short key help.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	h := m.help
	h.Styles.ShortKey = styles.WarningText
	h.Styles.ShortDesc = styles.MutedText
	h.Styles.ShortSeparator = styles.FaintText
	return styles.Footer.Render(h.ShortHelpView(m.keys.ShortHelp()))
}
