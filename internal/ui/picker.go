package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// pickerChrome is the number of rows the modal frame and title take up.
const pickerChrome = 10

// filePickerModal wraps the bubbles file picker. Every file is selectable;
// the upload validator decides what is acceptable.
type filePickerModal struct {
	picker filepicker.Model
}

func newFilePicker(startDir string, width, height int) (*filePickerModal, tea.Cmd) {
	fp := filepicker.New()
	fp.CurrentDirectory = pickerStartDir(startDir)
	fp.ShowHidden = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.DirAllowed = false
	fp.FileAllowed = true
	// esc closes the modal instead of going up a directory.
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "back"))

	m := &filePickerModal{picker: fp}
	m.resize(width, height)
	return m, m.picker.Init()
}

// resize feeds the picker a window size so its auto height leaves room for
// the modal frame.
func (m *filePickerModal) resize(width, height int) {
	if height <= 0 {
		return
	}
	m.picker, _ = m.picker.Update(tea.WindowSizeMsg{Width: width, Height: max(height-pickerChrome, 8)})
}

func (m *filePickerModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			return m, nil, true
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil, false
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m, tea.Batch(cmd, func() tea.Msg { return filePickedMsg{path: path} }), true
	}
	return m, cmd, false
}

func (m *filePickerModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Choose a PDF"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(truncateMiddle(m.picker.CurrentDirectory, 60)))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter select · h back · esc cancel"))
	return placeModal(theme, width, height, min(max(width-10, 40), 90), b.String())
}

func pickerStartDir(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
