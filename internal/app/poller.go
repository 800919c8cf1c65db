package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
)

const defaultPollInterval = time.Second

// Synchronizer reconciles the local job state against GET /status on a fixed
// cadence.
type Synchronizer struct {
	store    *state.Store
	client   summarizer.StatusFetcher
	interval time.Duration

	wg sync.WaitGroup
}

// NewSynchronizer builds a Synchronizer. A non-positive interval uses the
// default of one second.
func NewSynchronizer(store *state.Store, client summarizer.StatusFetcher, interval time.Duration) *Synchronizer {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Synchronizer{store: store, client: client, interval: interval}
}

// StartSynchronizer launches the polling loop in the background and returns
// immediately. The loop stops when ctx is cancelled.
func StartSynchronizer(ctx context.Context, store *state.Store, client summarizer.StatusFetcher, interval time.Duration) *Synchronizer {
	s := NewSynchronizer(store, client, interval)
	s.Start(ctx)
	return s
}

// Start launches the polling loop for s. Call it once.
func (s *Synchronizer) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Interval returns the polling cadence.
func (s *Synchronizer) Interval() time.Duration {
	return s.interval
}

// Wait blocks until the loop and every outstanding poll have returned.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

func (s *Synchronizer) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// A slow request must not hold up the next tick.
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_, _ = s.PollOnce(ctx)
		}()
	}
}

// PollOnce issues one sequenced status request and applies the result. A
// response that arrives after ctx is cancelled is dropped without touching
// the store.
func (s *Synchronizer) PollOnce(ctx context.Context) (state.Outcome, error) {
	seq := s.store.NextSeq()
	report, err := s.client.FetchStatus(ctx)
	if ctx.Err() != nil {
		return state.DiscardedStale, ctx.Err()
	}
	if err != nil {
		s.store.RecordPollFailure(seq, err)
		attrs := []any{"seq", seq, "error", err}
		var apiErr *summarizer.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "request_id", apiErr.RequestID, "status", apiErr.Status)
		}
		slog.Warn("status poll failed", attrs...)
		return state.DiscardedStale, err
	}

	outcome := s.store.Apply(seq, report)
	if outcome == state.Applied {
		slog.Debug("status applied", "seq", seq, "status", report.Status, "progress", report.Progress)
	} else {
		slog.Debug("status discarded", "seq", seq, "status", report.Status, "reason", outcome.String())
	}
	return outcome, nil
}
