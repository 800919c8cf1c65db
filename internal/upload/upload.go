// Package upload validates a selected document and submits it to the
// processor, driving the idle to processing transition of the job state.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

const (
	pdfSuffix     = ".pdf"
	genericFailed = "upload failed"
)

// Candidate describes a file picked for upload. Pages is zero when the page
// count could not be read.
type Candidate struct {
	Name  string
	Path  string
	Size  int64
	Pages int
}

// Submitter performs uploads against the shared job state.
type Submitter struct {
	store  *state.Store
	client summarizer.Uploader
}

// NewSubmitter wires a Submitter to the job store and the processor client.
func NewSubmitter(store *state.Store, client summarizer.Uploader) *Submitter {
	return &Submitter{store: store, client: client}
}

// Validate rejects names that do not end in ".pdf". The check is
// case-sensitive and runs entirely locally.
func Validate(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return state.NewError(state.KindValidation, "no file selected", nil)
	}
	if !strings.HasSuffix(trimmed, pdfSuffix) {
		return state.NewError(state.KindValidation, fmt.Sprintf("%s is not a PDF file", filepath.Base(trimmed)), nil)
	}
	return nil
}

var disablePDFConfig sync.Once

// Inspect stats path and reads its page count. A page count failure is not an
// error; the processor is the authority on whether the document is usable.
func Inspect(path string) (Candidate, error) {
	path = strings.TrimSpace(path)
	if err := Validate(path); err != nil {
		return Candidate{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Candidate{}, state.NewError(state.KindValidation, "cannot read "+filepath.Base(path), err)
	}
	if info.IsDir() {
		return Candidate{}, state.NewError(state.KindValidation, filepath.Base(path)+" is a directory", nil)
	}

	c := Candidate{Name: filepath.Base(path), Path: path, Size: info.Size()}

	disablePDFConfig.Do(api.DisableConfigDir)
	pages, err := api.PageCountFile(path)
	if err != nil {
		slog.Debug("page count unavailable", "file", c.Name, "error", err)
	} else {
		c.Pages = pages
	}
	return c, nil
}

// Submit validates path, switches the job to processing and uploads the file.
// Validation failures leave the job untouched and never reach the network.
func (s *Submitter) Submit(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	name := filepath.Base(path)
	if err := Validate(path); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return state.NewError(state.KindValidation, "cannot read "+name, err)
	}
	defer file.Close()

	if err := s.store.BeginUpload(name); err != nil {
		return state.NewError(state.KindValidation, "an upload is already in progress", err)
	}
	slog.Info("upload started", "file", name)

	resp, err := s.client.Upload(ctx, name, file)
	if err != nil {
		msg := genericFailed
		if detail, ok := summarizer.Detail(err); ok {
			msg = detail
		}
		s.store.FailUpload(state.KindTransport, msg)
		slog.Warn("upload failed", "file", name, "error", err)
		return state.NewError(state.KindTransport, msg, err)
	}
	if !resp.Success {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = genericFailed
		}
		s.store.FailUpload(state.KindTransport, msg)
		slog.Warn("upload rejected", "file", name, "message", msg)
		return state.NewError(state.KindTransport, msg, errors.New("processor reported success=false"))
	}

	s.store.FinishUpload(resp.ChaptersCount)
	slog.Info("upload accepted", "file", name, "chapters", resp.ChaptersCount)
	return nil
}
