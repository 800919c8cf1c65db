package ui

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/conspect/internal/artifact"
	"github.com/five82/conspect/internal/config"
	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func escKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEsc}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok, "Update returned %T", next)
	return out, cmd
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func newTestModel(t *testing.T, store *state.Store) Model {
	t.Helper()
	if store == nil {
		store = &state.Store{}
	}
	return sized(t, New(Options{Store: store, PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")}))
}

func processingStore(t *testing.T) *state.Store {
	t.Helper()
	var s state.Store
	require.NoError(t, s.BeginUpload("book.pdf"))
	s.FinishUpload(4)
	return &s
}

func completedStore(t *testing.T) *state.Store {
	t.Helper()
	s := processingStore(t)
	seq := s.NextSeq()
	require.Equal(t, state.Applied, s.Apply(seq, &summarizer.StatusResponse{
		Status: "completed", Progress: 100, CurrentChapter: 4, TotalChapters: 4, PreviewText: "All done.",
	}))
	return s
}

func TestDownload_DisabledUntilCompleted(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := update(t, m, runeKey("d"))
	assert.Nil(t, cmd)
	assert.Equal(t, "The summary is not ready yet.", m.notice)
}

type docFetcher struct {
	calls atomic.Int32
}

func (f *docFetcher) DownloadArtifact(context.Context) (io.ReadCloser, error) {
	f.calls.Add(1)
	return io.NopCloser(strings.NewReader("PK docx")), nil
}

func TestDownload_IgnoresRepeatWhilePending(t *testing.T) {
	store := completedStore(t)
	fetcher := &docFetcher{}
	dir := t.TempDir()
	m := sized(t, New(Options{Store: store, Retriever: artifact.NewRetriever(store, fetcher, dir)}))

	m, cmd := update(t, m, runeKey("d"))
	require.NotNil(t, cmd)
	assert.True(t, m.downloading)
	assert.Equal(t, "Downloading summary…", m.notice)

	m, again := update(t, m, runeKey("d"))
	assert.Nil(t, again, "second press while pending starts nothing")

	m, _ = update(t, m, cmd())
	assert.False(t, m.downloading)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, "Saved "+filepath.Join(dir, artifact.FileName), m.notice)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, cmd = update(t, m, runeKey("d"))
	assert.NotNil(t, cmd, "a finished download can be repeated")
}

func TestOpen_DisabledWhileProcessing(t *testing.T) {
	m := newTestModel(t, processingStore(t))

	m, cmd := update(t, m, runeKey("o"))
	assert.Nil(t, cmd)
	assert.Nil(t, m.modal)
	assert.Contains(t, m.notice, "disabled")
}

func TestOpen_ShowsPickerWhenIdle(t *testing.T) {
	m := New(Options{Store: &state.Store{}, StartDir: t.TempDir(), PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	m = sized(t, m)

	m, _ = update(t, m, runeKey("o"))
	_, ok := m.modal.(*filePickerModal)
	assert.True(t, ok, "modal = %T", m.modal)

	m, _ = update(t, m, escKey())
	assert.Nil(t, m.modal)
}

func TestUploadDone_OnlyValidationErrorsBecomeBanners(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = update(t, m, uploadDoneMsg{path: "notes.txt", err: state.NewError(state.KindValidation, "notes.txt is not a PDF file", nil)})
	assert.Equal(t, "notes.txt is not a PDF file", m.validationErr)

	m.validationErr = ""
	m, _ = update(t, m, uploadDoneMsg{path: "book.pdf", err: state.NewError(state.KindTransport, "connection refused", nil)})
	assert.Empty(t, m.validationErr, "transport failures are shown on the job, not as a banner")
}

func TestDownloadDone_SetsScopedMessages(t *testing.T) {
	m := newTestModel(t, completedStore(t))

	m, _ = update(t, m, downloadDoneMsg{err: state.NewError(state.KindDownload, "failed to download summary", errors.New("404"))})
	assert.NotEmpty(t, m.downloadErr)
	assert.Equal(t, state.StatusCompleted, m.snapshot.Status, "a failed download leaves the job alone")

	m, _ = update(t, m, downloadDoneMsg{path: "/tmp/summary.docx"})
	assert.Empty(t, m.downloadErr)
	assert.Equal(t, "Saved /tmp/summary.docx", m.notice)
}

func TestEscape_DismissesBannersInOrder(t *testing.T) {
	m := newTestModel(t, nil)
	m.validationErr = "bad file"
	m.downloadErr = "bad download"
	m.notice = "hello"
	m.currentView = ViewLogs

	m, _ = update(t, m, escKey())
	assert.Empty(t, m.validationErr)
	assert.NotEmpty(t, m.downloadErr)

	m, _ = update(t, m, escKey())
	assert.Empty(t, m.downloadErr)
	assert.NotEmpty(t, m.notice)

	m, _ = update(t, m, escKey())
	assert.Empty(t, m.notice)
	assert.Equal(t, ViewLogs, m.currentView)

	m, _ = update(t, m, escKey())
	assert.Equal(t, ViewJob, m.currentView)
}

func TestSnapshot_UpdatesPreview(t *testing.T) {
	store := processingStore(t)
	m := newTestModel(t, store)

	seq := store.NextSeq()
	require.Equal(t, state.Applied, store.Apply(seq, &summarizer.StatusResponse{
		Status: "processing", Progress: 30, CurrentChapter: 1, TotalChapters: 4, PreviewText: "Chapter one is about tides.",
	}))

	m, _ = update(t, m, fetchSnapshotCmd(store, nil)())
	assert.Equal(t, "Chapter one is about tides.", m.previewText)
	assert.Contains(t, m.View(), "Chapter 1 of 4")
}

func TestView_ShowsJobError(t *testing.T) {
	store := processingStore(t)
	msg := "LM Studio is not reachable"
	seq := store.NextSeq()
	require.Equal(t, state.Applied, store.Apply(seq, &summarizer.StatusResponse{Status: "error", ErrorMessage: &msg}))

	m := newTestModel(t, store)
	view := m.View()
	assert.Contains(t, view, "ERROR")
	assert.Contains(t, view, msg)
}

func TestLogsView_ReadsAndFiltersClientLog(t *testing.T) {
	stateDir := t.TempDir()
	cfg := config.Config{StateDir: stateDir}
	require.NoError(t, os.WriteFile(cfg.LogPath(), []byte(
		"time=1 level=DEBUG msg=\"poll applied\"\n"+
			"time=2 level=WARN msg=\"status poll failed\"\n",
	), 0o644))

	m := sized(t, New(Options{Store: &state.Store{}, Config: &cfg}))

	m, cmd := update(t, m, runeKey("l"))
	require.NotNil(t, cmd)
	assert.Equal(t, ViewLogs, m.currentView)
	m, _ = update(t, m, cmd())
	assert.Len(t, m.logState.lines, 2)

	m, cmd = update(t, m, runeKey("f"))
	require.NotNil(t, cmd)
	assert.Equal(t, "info", m.logState.level)
	m, _ = update(t, m, cmd())
	require.Len(t, m.logState.lines, 1)
	assert.Contains(t, m.logState.lines[0], "status poll failed")
}

func TestSettingsForm_EscapeIgnoredWhileSaving(t *testing.T) {
	form := newSettingsForm(summarizer.AppConfig{}, nil)
	form.saving = true

	_, _, done := form.Update(escKey(), DefaultKeyMap())
	assert.False(t, done)

	form.saving = false
	_, _, done = form.Update(escKey(), DefaultKeyMap())
	assert.True(t, done)
}

func TestSettingsSaved_FailureWithoutFormBecomesNotice(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = update(t, m, settingsSavedMsg{err: state.NewError(state.KindConfigSave, "failed to save settings", nil)})
	assert.Equal(t, "failed to save settings", m.notice)
}

func TestSettingsForm_RejectsBadPort(t *testing.T) {
	form := newSettingsForm(summarizer.AppConfig{EnginePort: 1234}, nil)
	form.inputs[fieldEnginePort].SetValue("70000")

	_, cmd, done := form.Update(tea.KeyMsg{Type: tea.KeyCtrlS}, DefaultKeyMap())
	assert.Nil(t, cmd)
	assert.False(t, done)
	assert.Contains(t, form.err, "65535")
}

func TestSettingsForm_SubmitsParsedValues(t *testing.T) {
	form := newSettingsForm(summarizer.AppConfig{}, nil)
	form.inputs[fieldModel].SetValue(" qwen ")
	form.inputs[fieldChunkSize].SetValue("4000")
	form.inputs[fieldKeywords].SetValue("Chapter, , Part")

	_, cmd, done := form.Update(tea.KeyMsg{Type: tea.KeyCtrlS}, DefaultKeyMap())
	require.NotNil(t, cmd)
	assert.False(t, done)

	submit, ok := cmd().(settingsSubmitMsg)
	require.True(t, ok)
	var cfg summarizer.AppConfig
	submit.apply(&cfg)
	assert.Equal(t, "qwen", cfg.Model)
	assert.Equal(t, 4000, cfg.MaxChunkSize)
	assert.Equal(t, []string{"Chapter", "Part"}, cfg.SplitKeywords)
}
