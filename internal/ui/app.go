package ui

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/conspect/internal/artifact"
	"github.com/five82/conspect/internal/config"
	"github.com/five82/conspect/internal/prefs"
	"github.com/five82/conspect/internal/readiness"
	"github.com/five82/conspect/internal/settings"
	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
	"github.com/five82/conspect/internal/upload"
)

// View represents the current active view.
type View int

const (
	ViewJob View = iota
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context     context.Context
	Store       *state.Store
	Submitter   *upload.Submitter
	Gate        *readiness.Gate
	Settings    *settings.Store
	Retriever   *artifact.Retriever
	Config      *config.Config
	APIURL      string
	PollTick    time.Duration
	ThemeName   string
	StartDir    string // directory the file picker opens in
	PrefsPath   string
	InitialFile string // submitted as soon as the program starts
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Collaborators
	ctx       context.Context
	store     *state.Store
	submitter *upload.Submitter
	gate      *readiness.Gate
	settings  *settings.Store
	retriever *artifact.Retriever
	config    *config.Config
	apiURL    string
	prefsPath string
	pollTick  time.Duration

	// UI state
	keys        keyMap
	help        help.Model
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal
	startDir    string
	initialFile string

	// Data state
	snapshot  state.Snapshot
	gateReady bool
	checkedAt time.Time
	candidate upload.Candidate

	// Preview pane
	preview     viewport.Model
	previewText string
	previewLang string
	spinner     spinner.Model

	// Scoped banners. Each is cleared independently; none of them is the job
	// error, which comes from the store.
	validationErr string
	downloadErr   string
	notice        string

	downloading bool

	// Log view
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	return Model{
		ctx:         ctx,
		store:       store,
		submitter:   opts.Submitter,
		gate:        opts.Gate,
		settings:    opts.Settings,
		retriever:   opts.Retriever,
		config:      opts.Config,
		apiURL:      opts.APIURL,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewJob,
		startDir:    opts.StartDir,
		initialFile: strings.TrimSpace(opts.InitialFile),
		snapshot:    store.Snapshot(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		logState:    logState{follow: true},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store, m.gate),
		m.spinner.Tick,
	}
	if m.initialFile != "" {
		cmds = append(cmds, inspectCmd(m.initialFile), submitCmd(m.ctx, m.submitter, m.initialFile))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initPreview()
			m.initLogViewport()
		}
		m.ready = true
		m.help.Width = m.width
		m.resizePreview()
		m.resizeLogViewport()
		m.updatePreview()
		m.updateLogViewport()
		if m.modal != nil {
			var cmd tea.Cmd
			m.modal, cmd, _ = m.modal.Update(msg, m.keys)
			return m, cmd
		}
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.gateReady = msg.ready
		m.checkedAt = msg.checkedAt
		m.updatePreview()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case readinessMsg:
		m.gateReady = msg.ready
		m.checkedAt = msg.checkedAt
		return m, nil

	case inspectMsg:
		m.candidate = msg.candidate
		return m, nil

	case uploadDoneMsg:
		return m.handleUploadDone(msg)

	case downloadDoneMsg:
		m.downloading = false
		if msg.err != nil {
			m.downloadErr = state.UserMessage(msg.err)
			m.notice = ""
			return m, nil
		}
		m.downloadErr = ""
		m.notice = "Saved " + msg.path
		return m, nil

	case settingsSavedMsg:
		return m.handleSettingsSaved(msg)

	case filePickedMsg:
		m.modal = nil
		return m, m.filePicked(msg.path)

	case settingsSubmitMsg:
		form, ok := m.modal.(*settingsForm)
		if !ok || m.settings == nil {
			return m, nil
		}
		form.saving = true
		form.err = ""
		return m, saveSettingsCmd(m.ctx, m.settings, msg.apply)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	// Everything else (file picker directory reads, cursor blinks) belongs to
	// the open modal.
	if m.modal != nil {
		return m.updateModal(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateModal(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.dismiss()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if !m.snapshot.CanUpload() {
			m.notice = "Upload is disabled while a document is being processed."
			return m, nil
		}
		return m.openPicker()

	case key.Matches(msg, m.keys.Settings):
		return m.openSettings()

	case key.Matches(msg, m.keys.Download):
		if !m.snapshot.CanDownload() {
			m.notice = "The summary is not ready yet."
			return m, nil
		}
		if m.downloading {
			return m, nil
		}
		cmd := downloadCmd(m.ctx, m.retriever)
		if cmd == nil {
			return m, nil
		}
		m.downloading = true
		m.notice = "Downloading summary…"
		m.downloadErr = ""
		return m, cmd

	case key.Matches(msg, m.keys.Recheck):
		m.checkedAt = time.Time{}
		return m, recheckCmd(m.ctx, m.gate)

	case key.Matches(msg, m.keys.Logs):
		if m.currentView == ViewLogs {
			m.currentView = ViewJob
			return m, nil
		}
		m.currentView = ViewLogs
		return m, m.refreshLogs()
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handlePreviewKey(msg)
	}
}

// dismiss clears the most recent banner, or leaves the log view.
func (m *Model) dismiss() {
	switch {
	case m.validationErr != "":
		m.validationErr = ""
	case m.downloadErr != "":
		m.downloadErr = ""
	case m.notice != "":
		m.notice = ""
	case m.currentView != ViewJob:
		m.currentView = ViewJob
	}
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		done bool
	)
	m.modal, cmd, done = m.modal.Update(msg, m.keys)
	if done {
		if _, ok := m.modal.(*settingsForm); ok && m.settings != nil {
			m.settings.Cancel()
		}
		m.modal = nil
	}
	return m, cmd
}

func (m Model) openPicker() (tea.Model, tea.Cmd) {
	m.validationErr = ""
	m.notice = ""
	picker, cmd := newFilePicker(m.startDir, m.width, m.height)
	m.modal = picker
	return m, cmd
}

func (m Model) openSettings() (tea.Model, tea.Cmd) {
	if m.settings == nil {
		return m, nil
	}
	draft := m.settings.Open()
	form := newSettingsForm(draft, m.settings.LoadErr())
	m.modal = form
	return m, form.focusCmd()
}

func (m Model) handleUploadDone(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Failures past validation are recorded on the job itself.
		if state.KindOf(msg.err) == state.KindValidation {
			m.validationErr = state.UserMessage(msg.err)
		}
	} else {
		m.validationErr = ""
		m.previewText = ""
		m.previewLang = ""
		m.preview.SetContent("")
	}
	return m, fetchSnapshotCmd(m.store, m.gate)
}

func (m Model) handleSettingsSaved(msg settingsSavedMsg) (tea.Model, tea.Cmd) {
	form, ok := m.modal.(*settingsForm)
	if msg.err != nil {
		if ok {
			form.saving = false
			form.err = state.UserMessage(msg.err)
		} else {
			m.notice = state.UserMessage(msg.err)
		}
		return m, nil
	}
	if ok {
		m.modal = nil
	}
	m.notice = "Settings saved."
	return m, nil
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{fetchSnapshotCmd(m.store, m.gate)}
	if m.currentView == ViewLogs && m.logState.follow {
		cmds = append(cmds, m.refreshLogs())
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// filePicked is called by the picker modal once a file has been chosen.
func (m *Model) filePicked(path string) tea.Cmd {
	m.startDir = filepath.Dir(path)
	m.savePrefs()
	return tea.Batch(inspectCmd(path), submitCmd(m.ctx, m.submitter, path))
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, LastDir: m.startDir}); err != nil {
		slog.Warn("save prefs failed", "error", err)
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snapshot  state.Snapshot
	ready     bool
	checkedAt time.Time
}

type readinessMsg struct {
	ready     bool
	checkedAt time.Time
}

type inspectMsg struct {
	candidate upload.Candidate
}

type uploadDoneMsg struct {
	path string
	err  error
}

type downloadDoneMsg struct {
	path string
	err  error
}

type settingsSavedMsg struct {
	cfg summarizer.AppConfig
	err error
}

// filePickedMsg is emitted by the picker modal.
type filePickedMsg struct {
	path string
}

// settingsSubmitMsg is emitted by the settings form with the parsed draft.
type settingsSubmitMsg struct {
	apply func(*summarizer.AppConfig)
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store, gate *readiness.Gate) tea.Cmd {
	return func() tea.Msg {
		msg := snapshotMsg{snapshot: store.Snapshot()}
		if gate != nil {
			msg.ready = gate.Ready()
			msg.checkedAt = gate.CheckedAt()
		}
		return msg
	}
}

func recheckCmd(ctx context.Context, gate *readiness.Gate) tea.Cmd {
	if gate == nil {
		return nil
	}
	return func() tea.Msg {
		ready := gate.Check(ctx)
		return readinessMsg{ready: ready, checkedAt: gate.CheckedAt()}
	}
}

func inspectCmd(path string) tea.Cmd {
	return func() tea.Msg {
		c, err := upload.Inspect(path)
		if err != nil {
			return nil
		}
		return inspectMsg{candidate: c}
	}
}

func submitCmd(ctx context.Context, submitter *upload.Submitter, path string) tea.Cmd {
	if submitter == nil {
		return nil
	}
	return func() tea.Msg {
		return uploadDoneMsg{path: path, err: submitter.Submit(ctx, path)}
	}
}

func downloadCmd(ctx context.Context, retriever *artifact.Retriever) tea.Cmd {
	if retriever == nil {
		return nil
	}
	return func() tea.Msg {
		path, err := retriever.Download(ctx)
		return downloadDoneMsg{path: path, err: err}
	}
}

func saveSettingsCmd(ctx context.Context, store *settings.Store, apply func(*summarizer.AppConfig)) tea.Cmd {
	return func() tea.Msg {
		if err := store.Edit(apply); err != nil {
			return settingsSavedMsg{err: err}
		}
		cfg, err := store.Save(ctx)
		return settingsSavedMsg{cfg: cfg, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
