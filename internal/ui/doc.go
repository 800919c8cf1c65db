// Package ui provides the terminal user interface for Conspect.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model owns no job state of its own: every
// tick it copies a state.Snapshot out of the store and renders it. Uploads,
// downloads, readiness rechecks and settings saves run as tea.Cmds so the
// update loop never blocks on the network.
//
// # Package Structure
//
//   - app.go: Model, Update, key dispatch, messages and commands
//   - job.go: the job pane, the live summary preview and scoped banners
//   - logs.go: the client log view (tail, level filter, follow)
//   - header.go: readiness, job status chip and connection health
//   - picker.go: the PDF file picker modal
//   - settings_form.go: the processor settings form modal
//   - help.go, modal.go: the help overlay and modal placement
//   - theme.go, keys.go, layout.go: palettes, key bindings and sizes
//
// # Messages
//
// Three kinds of failure are shown separately. Validation errors (wrong file
// type, unreadable file, upload already running) appear as a dismissable
// banner and leave the job untouched. Download errors get their own banner
// and do not alter a completed job. Job errors come from the store and are
// shown in the job pane until the next upload.
//
// # Key Bindings
//
//   - o: Choose a PDF and upload it (disabled while processing)
//   - d: Save summary.docx (only when completed)
//   - s: Processor settings
//   - r: Recheck processor services
//   - l: Toggle the client log view; f cycles its level filter
//   - j/k, g/G, pgup/pgdn: Scroll the preview or the log
//   - T: Cycle theme
//   - esc: Dismiss the latest banner, or leave the log view
//   - h or ?: Help
//   - e or Ctrl+C: Exit
package ui
