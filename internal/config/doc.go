// Package config loads Conspect's client-side configuration.
//
// # Overview
//
// Conspect needs to know where the summarization processor listens, how often
// to poll it, where to save finished documents and where to keep its own log.
// The processor's configuration record (model, chunk size, split keywords) is
// a different thing: it lives on the processor and is edited through the
// settings package.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/conspect/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. Apply CONSPECT_* overrides from ./.env, then from the process environment
//
// # Default Values
//
//   - api_url: http://127.0.0.1:8000
//   - poll_interval: 1s
//   - request_timeout: none (transport defaults)
//   - readiness_schedule: @every 30s (empty string disables rechecks)
//   - download_dir: ~/Downloads
//   - state_dir: ~/.local/state/conspect (holds conspect.log)
//   - log_level: info
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:8000"
//	poll_interval = "1s"
//	readiness_schedule = "@every 30s"
//	download_dir = "~/Documents/conspect"
//	log_level = "debug"
//
// readiness_schedule accepts standard five-field cron expressions and
// descriptors such as @every and @hourly.
//
// # Error Handling
//
// Load returns errors for unreadable files, invalid TOML, unparsable
// durations, invalid cron expressions and unknown log levels. A missing file
// is not an error.
package config
