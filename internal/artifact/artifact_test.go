package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

func completedStore(t *testing.T) *state.Store {
	t.Helper()
	s := &state.Store{}
	require.NoError(t, s.BeginUpload("book.pdf"))
	s.FinishUpload(3)
	seq := s.NextSeq()
	require.Equal(t, state.Applied, s.Apply(seq, &summarizer.StatusResponse{Status: "completed", Progress: 100, CurrentChapter: 3, TotalChapters: 3}))
	return s
}

type fakeFetcher struct {
	calls atomic.Int32
	body  string
	err   error
}

func (f *fakeFetcher) DownloadArtifact(context.Context) (io.ReadCloser, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestDownload_RequiresCompletedJob(t *testing.T) {
	fetcher := &fakeFetcher{body: "docx"}
	r := NewRetriever(&state.Store{}, fetcher, t.TempDir())

	_, err := r.Download(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrNotCompleted)
	assert.Equal(t, state.KindDownload, state.KindOf(err))
	assert.Zero(t, fetcher.calls.Load())
}

func TestDownload_SavesSummaryOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download-docx" || r.Header.Get("Accept") != "application/octet-stream" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		_, _ = w.Write([]byte("PK\x03\x04 docx bytes"))
	}))
	defer srv.Close()

	client, err := summarizer.NewClient(srv.URL, 0)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "downloads")
	store := completedStore(t)
	before := store.Snapshot()

	path, err := NewRetriever(store, client, dir).Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04 docx bytes", string(data))
	assert.Equal(t, []string{FileName}, listDir(t, dir))
	assert.Equal(t, before, store.Snapshot())
}

func TestDownload_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary (1).docx"), []byte("older"), 0o644))

	r := NewRetriever(completedStore(t), &fakeFetcher{body: "new"}, dir)
	path, err := r.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary (2).docx"), path)

	old, _ := os.ReadFile(filepath.Join(dir, FileName))
	assert.Equal(t, "old", string(old))
}

func TestDownload_FailureIsScopedAndCleansUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Document not found"})
	}))
	defer srv.Close()

	client, err := summarizer.NewClient(srv.URL, 0)
	require.NoError(t, err)

	dir := t.TempDir()
	store := completedStore(t)
	_, err = NewRetriever(store, client, dir).Download(context.Background())
	require.Error(t, err)
	assert.Equal(t, state.KindDownload, state.KindOf(err))
	assert.Contains(t, state.UserMessage(err), "Document not found")

	assert.Equal(t, state.StatusCompleted, store.Snapshot().Status)
	assert.Empty(t, listDir(t, dir))
}

func TestDownload_EmptyBodyLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	_, err := NewRetriever(completedStore(t), &fakeFetcher{}, dir).Download(context.Background())
	require.Error(t, err)
	assert.Empty(t, listDir(t, dir))
}

func TestDownload_TransportError(t *testing.T) {
	_, err := NewRetriever(completedStore(t), &fakeFetcher{err: errors.New("connection reset")}, t.TempDir()).Download(context.Background())
	require.Error(t, err)
	assert.Equal(t, downloadFailed, state.UserMessage(err))
}
