// Package app wires Conspect together and owns the status synchronizer.
//
// # Overview
//
// Run is the composition root. It loads the client config, opens the log
// file, builds the processor client and the shared state.Store, then hands
// everything to the UI:
//
//	Run()
//	 ├─> config.Load()          client config (TOML, .env, env)
//	 ├─> logging.Setup()        slog to <state_dir>/conspect.log
//	 ├─> summarizer.NewClient() HTTP client for the processor
//	 ├─> startup()              errgroup: readiness check, config load, first poll
//	 ├─> gate.Start()           cron-scheduled readiness rechecks
//	 ├─> syncer.Start()         status polling loop
//	 └─> ui.Run()               TUI (blocks)
//
// None of the startup steps is fatal. A processor that is down at launch
// simply shows as not ready and offline until it comes back.
//
// # Status Synchronizer
//
// The synchronizer fires on a fixed ticker (one second by default). Every
// tick starts a poll in its own goroutine, so a hung request delays only its
// own update and never the cadence. Each poll takes a sequence number from
// the store before the request goes out and hands it back with the result:
//
//	seq := store.NextSeq()
//	report, err := client.FetchStatus(ctx)
//	store.Apply(seq, report)      // or store.RecordPollFailure(seq, err)
//
// The store discards results whose sequence is not newer than the last
// applied one, so responses take effect in issue order regardless of network
// latency. Poll failures are logged at WARN and never change the job.
//
// Cancelling the context stops the ticker. Polls still in flight are
// dropped when they return; Wait blocks until all of them have.
package app
