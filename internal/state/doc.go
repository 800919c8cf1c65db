// Package state holds the client's single job state and the rules for
// changing it.
//
// # Overview
//
// Two writers share one Job value:
//
//	Submitter (upload):                 Synchronizer (poll loop):
//	┌──────────────────────┐            ┌──────────────────────────┐
//	│ BeginUpload()        │            │ seq := NextSeq()         │
//	│   idle -> processing │            │ report := FetchStatus()  │
//	│ Upload()             │            │ Apply(seq, report)       │
//	│ FinishUpload(n)      │──(mutex)──→│   or RecordPollFailure() │
//	│   or FailUpload(msg) │            └──────────────────────────┘
//	└──────────────────────┘
//	              ↓
//	        Snapshot() → UI
//
// # State Machine
//
//	idle ──submit──→ processing ──poll: completed──→ completed
//	  │                  │ ↺ poll: processing
//	  │                  └──────poll: error─────────→ error
//	  └──submit fails──────────────────────────────→ error
//
// completed and error are terminal for a job; only a new upload leaves them.
// Reports that imply any other transition are discarded.
//
// # Ordering
//
// Every status request is tagged with a sequence number from NextSeq before it
// is sent. Apply keeps the highest applied sequence and discards reports that
// are not newer, so responses reordered by the network can never roll the
// state back. Two more fences protect uploads:
//
//   - while an upload is in flight no report is applied, so the optimistic
//     processing state stays visible until the upload answers
//   - when the upload finishes (either way) every request already issued is
//     fenced off; those requests may describe the previous job
//
// Transient poll failures only update LastPollError and ConsecutiveFailures;
// the job itself is never touched by a failed request.
//
// # Errors
//
// errors.go defines the user-facing error taxonomy (Kind, *Error). Job errors
// live on Job; validation, settings and download errors are returned to their
// callers and shown by separate UI surfaces.
//
// # Concurrency
//
// Store uses a sync.RWMutex; the zero value is an idle store. Snapshot copies
// are safe to hold across goroutines.
package state
