package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/conspect/internal/settings"
	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

const (
	fieldOutputDir = iota
	fieldEngineURL
	fieldEnginePort
	fieldModel
	fieldChunkSize
	fieldKeywords
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldOutputDir:  "Output directory",
	fieldEngineURL:  "LM Studio URL",
	fieldEnginePort: "LM Studio port",
	fieldModel:      "Model",
	fieldChunkSize:  "Max chunk size",
	fieldKeywords:   "Split keywords",
}

// settingsForm edits the processor configuration draft. It never writes the
// draft itself; ctrl+s emits a settingsSubmitMsg for the root model.
type settingsForm struct {
	inputs  [fieldCount]textinput.Model
	focus   int
	saving  bool
	err     string
	loadErr string
}

func newSettingsForm(draft summarizer.AppConfig, loadErr error) *settingsForm {
	f := &settingsForm{}
	values := [fieldCount]string{
		fieldOutputDir:  draft.OutputDir,
		fieldEngineURL:  draft.EngineURL,
		fieldEnginePort: intField(draft.EnginePort),
		fieldModel:      draft.Model,
		fieldChunkSize:  intField(draft.MaxChunkSize),
		fieldKeywords:   settings.FormatKeywords(draft.SplitKeywords),
	}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = 44
		ti.CharLimit = 512
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}
	f.inputs[fieldKeywords].Placeholder = "Chapter, Part"
	f.inputs[fieldEnginePort].CharLimit = 5
	if loadErr != nil {
		f.loadErr = "Processor settings could not be loaded; starting from an empty form."
	}
	return f
}

func intField(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func (f *settingsForm) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focus].Focus()
}

// values parses the form into an edit function for the settings store.
func (f *settingsForm) values() (func(*summarizer.AppConfig), error) {
	port, err := settings.ParseInt("LM Studio port", f.inputs[fieldEnginePort].Value())
	if err != nil {
		return nil, err
	}
	if port > 65535 {
		return nil, state.NewError(state.KindValidation, "LM Studio port must be at most 65535", nil)
	}
	chunk, err := settings.ParseInt("Max chunk size", f.inputs[fieldChunkSize].Value())
	if err != nil {
		return nil, err
	}
	outputDir := strings.TrimSpace(f.inputs[fieldOutputDir].Value())
	engineURL := strings.TrimSpace(f.inputs[fieldEngineURL].Value())
	model := strings.TrimSpace(f.inputs[fieldModel].Value())
	keywords := settings.ParseKeywords(f.inputs[fieldKeywords].Value())

	return func(c *summarizer.AppConfig) {
		c.OutputDir = outputDir
		c.EngineURL = engineURL
		c.EnginePort = port
		c.Model = model
		c.MaxChunkSize = chunk
		c.SplitKeywords = keywords
	}, nil
}

func (f *settingsForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case f.saving:
			// The save cannot be recalled; wait for its result.
			return f, nil, false
		case key.Matches(keyMsg, keys.Escape):
			return f, nil, true
		case key.Matches(keyMsg, keys.Save):
			apply, err := f.values()
			if err != nil {
				f.err = state.UserMessage(err)
				return f, nil, false
			}
			return f, func() tea.Msg { return settingsSubmitMsg{apply: apply} }, false
		case key.Matches(keyMsg, keys.NextField), keyMsg.String() == "enter":
			f.focus = (f.focus + 1) % fieldCount
			return f, f.focusCmd(), false
		case key.Matches(keyMsg, keys.PrevField):
			f.focus = (f.focus + fieldCount - 1) % fieldCount
			return f, f.focusCmd(), false
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *settingsForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Processor Settings"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")
	if f.loadErr != "" {
		b.WriteString(styles.WarningText.Render(f.loadErr))
		b.WriteString("\n\n")
	}

	label := lipgloss.NewStyle().Width(18)
	for i := range f.inputs {
		style := label.Foreground(lipgloss.Color(theme.Muted))
		if i == f.focus {
			style = label.Foreground(lipgloss.Color(theme.Accent)).Bold(true)
		}
		b.WriteString(style.Render(fieldLabels[i]))
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case f.saving:
		b.WriteString(styles.InfoText.Render("Saving…"))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render("tab next · ctrl+s save · esc discard"))
	}
	return placeModal(theme, width, height, 70, b.String())
}
