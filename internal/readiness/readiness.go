// Package readiness tracks whether the summarization processor can accept
// work. Readiness is advisory: a false result never blocks an upload.
package readiness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/five82/conspect/internal/summarizer"
)

// Gate caches the outcome of the most recent readiness check.
type Gate struct {
	checker summarizer.ReadinessChecker
	group   singleflight.Group
	ready   atomic.Bool

	mu        sync.RWMutex
	checkedAt time.Time
	nextAt    time.Time
}

// NewGate returns a Gate that reports not ready until the first Check.
func NewGate(checker summarizer.ReadinessChecker) *Gate {
	return &Gate{checker: checker}
}

// Check asks the processor and records the result. Transport failures and
// error responses count as not ready; Check never returns an error.
// Concurrent callers share a single request.
func (g *Gate) Check(ctx context.Context) bool {
	v, _, _ := g.group.Do("check", func() (any, error) {
		ready, err := g.checker.CheckServices(ctx)
		if err != nil {
			slog.Warn("readiness check failed", "error", err)
			ready = false
		} else {
			slog.Debug("readiness checked", "ready", ready)
		}
		g.ready.Store(ready)
		g.mu.Lock()
		g.checkedAt = time.Now()
		g.mu.Unlock()
		return ready, nil
	})
	ready, _ := v.(bool)
	return ready
}

// Ready reports the cached result of the last Check.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// CheckedAt returns when the last Check finished; zero before the first.
func (g *Gate) CheckedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.checkedAt
}

// NextCheckAt returns when the scheduled recheck will next fire; zero when
// no schedule is running.
func (g *Gate) NextCheckAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nextAt
}

// Start re-runs Check on the given cron schedule until ctx is cancelled. An
// empty schedule disables rechecks. The returned channel is closed once the
// scheduler has fully stopped.
func (g *Gate) Start(ctx context.Context, schedule string) (<-chan struct{}, error) {
	done := make(chan struct{})
	if schedule == "" {
		close(done)
		return done, nil
	}

	c := cron.New()
	var id cron.EntryID
	id, err := c.AddFunc(schedule, func() {
		g.Check(ctx)
		g.setNext(c.Entry(id).Next)
	})
	if err != nil {
		return nil, fmt.Errorf("readiness schedule %q: %w", schedule, err)
	}
	c.Start()
	g.setNext(c.Entry(id).Next)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		g.setNext(time.Time{})
		close(done)
	}()
	return done, nil
}

func (g *Gate) setNext(t time.Time) {
	g.mu.Lock()
	g.nextAt = t
	g.mu.Unlock()
}
