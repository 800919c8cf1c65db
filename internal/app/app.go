package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/conspect/internal/artifact"
	"github.com/five82/conspect/internal/config"
	"github.com/five82/conspect/internal/logging"
	"github.com/five82/conspect/internal/prefs"
	"github.com/five82/conspect/internal/readiness"
	"github.com/five82/conspect/internal/settings"
	"github.com/five82/conspect/internal/state"
	"github.com/five82/conspect/internal/summarizer"
	"github.com/five82/conspect/internal/ui"
	"github.com/five82/conspect/internal/upload"
)

const startupTimeout = 5 * time.Second

// Options configure the Conspect application.
type Options struct {
	ConfigPath   string
	PrefsPath    string        // empty uses default ~/.config/conspect/prefs.toml
	APIURL       string        // overrides api_url when set
	PollInterval time.Duration // overrides poll_interval when positive
	File         string        // PDF to submit right after startup
}

// Run boots the Conspect TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if url := strings.TrimSpace(opts.APIURL); url != "" {
		cfg.APIURL = url
	}
	if opts.PollInterval > 0 {
		cfg.PollInterval = opts.PollInterval
	}

	logFile, err := logging.Setup(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		slog.Warn("prefs unavailable, using defaults", "error", err)
	}

	client, err := summarizer.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init processor client: %w", err)
	}
	slog.Info("conspect starting", "api", client.BaseURL(), "poll", cfg.PollInterval)

	store := &state.Store{}
	gate := readiness.NewGate(client)
	cfgStore := settings.NewStore(client)
	syncer := NewSynchronizer(store, client, cfg.PollInterval)

	startup(ctx, gate, cfgStore, syncer)

	if _, err := gate.Start(ctx, cfg.ReadinessSchedule); err != nil {
		slog.Warn("readiness schedule disabled", "error", err)
	}
	syncer.Start(ctx)

	runErr := ui.Run(ui.Options{
		Context:     ctx,
		Store:       store,
		Submitter:   upload.NewSubmitter(store, client),
		Gate:        gate,
		Settings:    cfgStore,
		Retriever:   artifact.NewRetriever(store, client, cfg.DownloadDir),
		Config:      &cfg,
		APIURL:      client.BaseURL(),
		ThemeName:   userPrefs.Theme,
		StartDir:    userPrefs.LastDir,
		PrefsPath:   opts.PrefsPath,
		InitialFile: opts.File,
	})
	cancel()
	syncer.Wait()
	slog.Info("conspect stopped")
	return runErr
}

// startup runs the independent one-shot initializers concurrently: the
// readiness check, the processor config load and a first status poll. The
// store is idle at this point, so the poll only primes connection health
// (offline marker, last response time). None of them is fatal.
func startup(ctx context.Context, gate *readiness.Gate, cfgStore *settings.Store, syncer *Synchronizer) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gate.Check(gctx)
		return nil
	})
	g.Go(func() error {
		_ = cfgStore.Load(gctx)
		return nil
	})
	g.Go(func() error {
		_, _ = syncer.PollOnce(gctx)
		return nil
	})
	_ = g.Wait()
}
