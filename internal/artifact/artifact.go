// Package artifact saves the finished summary document to disk.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

// FileName is the name given to the saved document.
const FileName = "summary.docx"

const downloadFailed = "download failed"

// Retriever fetches the artifact of a completed job. It reads the job state
// but never changes it.
type Retriever struct {
	store  *state.Store
	client summarizer.ArtifactFetcher
	dir    string
}

// NewRetriever returns a Retriever saving into dir.
func NewRetriever(store *state.Store, client summarizer.ArtifactFetcher, dir string) *Retriever {
	return &Retriever{store: store, client: client, dir: dir}
}

// Dir returns the download directory.
func (r *Retriever) Dir() string {
	return r.dir
}

// Download streams the document into the download directory and returns the
// saved path. Errors are KindDownload.
func (r *Retriever) Download(ctx context.Context) (string, error) {
	if !r.store.Snapshot().CanDownload() {
		return "", state.NewError(state.KindDownload, "the summary is not ready yet", state.ErrNotCompleted)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", r.fail("cannot create download folder", err)
	}

	body, err := r.client.DownloadArtifact(ctx)
	if err != nil {
		msg := downloadFailed
		if detail, ok := summarizer.Detail(err); ok {
			msg = downloadFailed + ": " + detail
		}
		return "", r.fail(msg, err)
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp(r.dir, ".summary-*.docx.part")
	if err != nil {
		return "", r.fail("cannot write to download folder", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	written, err := io.Copy(tmp, body)
	if err != nil {
		cleanup()
		return "", r.fail(downloadFailed, fmt.Errorf("copy artifact: %w", err))
	}
	if written == 0 {
		cleanup()
		return "", r.fail("the processor returned an empty document", nil)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", r.fail(downloadFailed, fmt.Errorf("close artifact: %w", err))
	}

	dest, err := availableName(r.dir, FileName)
	if err != nil {
		_ = os.Remove(tmpName)
		return "", r.fail(downloadFailed, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return "", r.fail(downloadFailed, fmt.Errorf("rename artifact: %w", err))
	}

	slog.Info("summary saved", "path", dest, "bytes", written)
	return dest, nil
}

func (r *Retriever) fail(message string, err error) error {
	slog.Warn("download failed", "message", message, "error", err)
	return state.NewError(state.KindDownload, message, err)
}

// availableName returns dir/name, or dir/"stem (N)ext" for the first N that
// is not taken.
func availableName(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	candidate := filepath.Join(dir, name)
	for n := 1; n < 10000; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}
