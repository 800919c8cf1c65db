package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Job",
			items: []helpItem{
				{"o", "Choose a PDF and upload it"},
				{"d", "Save summary.docx (when completed)"},
				{"r", "Recheck processor services"},
			},
		},
		{
			title: "Views",
			items: []helpItem{
				{"s", "Processor settings"},
				{"l", "Client log"},
				{"f", "Cycle log level filter"},
				{"esc", "Dismiss banner / back"},
			},
		},
		{
			title: "Scrolling",
			items: []helpItem{
				{"j/k", "Scroll down/up"},
				{"g/G", "Top / bottom (follow)"},
				{"pgup/pgdn", "Page up/down"},
			},
		},
		{
			title: "Settings form",
			items: []helpItem{
				{"tab", "Next field"},
				{"shift+tab", "Previous field"},
				{"ctrl+s", "Save"},
				{"esc", "Discard changes"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"T", "Cycle theme"},
				{"h/?", "Toggle help"},
				{"e/ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 34)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)
	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return placeModal(m.theme, m.width, m.height, 50, b.String())
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
