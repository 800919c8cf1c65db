// Package settings owns the processor configuration as seen by the client: a
// confirmed copy last accepted by the processor and an optional draft being
// edited in the settings form.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

// ErrNoSession is returned by Edit and Save when no edit session is open.
var ErrNoSession = errors.New("no settings session open")

const saveFailed = "failed to save settings"

// Store holds the confirmed and draft configuration slots. The draft only
// replaces the confirmed copy through a successful Save.
type Store struct {
	client summarizer.ConfigClient

	mu        sync.RWMutex
	confirmed *summarizer.AppConfig
	draft     *summarizer.AppConfig
	loadErr   error
}

// NewStore returns an empty Store backed by client.
func NewStore(client summarizer.ConfigClient) *Store {
	return &Store{client: client}
}

// Load fetches the processor configuration. On failure the confirmed slot
// stays empty and the error is only logged; Load reports it for callers that
// want to display a hint.
func (s *Store) Load(ctx context.Context) error {
	cfg, err := s.client.FetchConfig(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		slog.Warn("config load failed", "error", err)
		s.loadErr = err
		return fmt.Errorf("load config: %w", err)
	}
	confirmed := cfg.Clone()
	s.confirmed = &confirmed
	s.loadErr = nil
	slog.Debug("config loaded", "model", confirmed.Model, "chunk_size", confirmed.MaxChunkSize)
	return nil
}

// LoadErr returns the error from the most recent failed Load, if any.
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Confirmed returns a copy of the confirmed configuration.
func (s *Store) Confirmed() (summarizer.AppConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.confirmed == nil {
		return summarizer.AppConfig{}, false
	}
	return s.confirmed.Clone(), true
}

// Draft returns a copy of the draft being edited.
func (s *Store) Draft() (summarizer.AppConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return summarizer.AppConfig{}, false
	}
	return s.draft.Clone(), true
}

// Editing reports whether an edit session is open.
func (s *Store) Editing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft != nil
}

// Open starts an edit session seeded from the confirmed copy, or from an empty
// record when nothing is confirmed. An already open session is kept as is.
func (s *Store) Open() summarizer.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		var draft summarizer.AppConfig
		if s.confirmed != nil {
			draft = s.confirmed.Clone()
		}
		s.draft = &draft
	}
	return s.draft.Clone()
}

// Edit applies fn to the draft.
func (s *Store) Edit(fn func(*summarizer.AppConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return ErrNoSession
	}
	fn(s.draft)
	return nil
}

// Cancel closes the edit session and discards the draft.
func (s *Store) Cancel() {
	s.mu.Lock()
	s.draft = nil
	s.mu.Unlock()
}

// Save sends the draft to the processor. On success the accepted record
// becomes the confirmed copy and the session closes. On failure the draft is
// left untouched and a KindConfigSave error is returned.
func (s *Store) Save(ctx context.Context) (summarizer.AppConfig, error) {
	s.mu.RLock()
	if s.draft == nil {
		s.mu.RUnlock()
		return summarizer.AppConfig{}, ErrNoSession
	}
	sent := s.draft.Clone()
	s.mu.RUnlock()

	accepted, err := s.client.SaveConfig(ctx, sent)
	if err != nil {
		slog.Warn("config save failed", "error", err)
		msg := saveFailed
		if detail, ok := summarizer.Detail(err); ok {
			msg = saveFailed + ": " + detail
		}
		return summarizer.AppConfig{}, state.NewError(state.KindConfigSave, msg, err)
	}

	confirmed := accepted.Clone()
	s.mu.Lock()
	s.confirmed = &confirmed
	s.draft = nil
	s.loadErr = nil
	s.mu.Unlock()

	slog.Info("config saved", "model", confirmed.Model, "chunk_size", confirmed.MaxChunkSize)
	return confirmed.Clone(), nil
}

// ParseKeywords splits a comma separated list, trimming entries and dropping
// empty ones.
func ParseKeywords(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// FormatKeywords is the inverse of ParseKeywords for display in the form.
func FormatKeywords(keywords []string) string {
	return strings.Join(keywords, ", ")
}

// ParseInt parses a non-negative integer form field. An empty field is zero.
func ParseInt(field, input string) (int, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, state.NewError(state.KindValidation, fmt.Sprintf("%s must be a whole number", field), err)
	}
	if n < 0 {
		return 0, state.NewError(state.KindValidation, fmt.Sprintf("%s must not be negative", field), nil)
	}
	return n, nil
}
