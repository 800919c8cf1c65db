package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/conspect/internal/summarizer"
)

// Status is the job lifecycle state. Exactly one holds at a time.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ParseStatus maps a processor status string onto Status.
func ParseStatus(value string) (Status, error) {
	switch s := Status(value); s {
	case StatusIdle, StatusProcessing, StatusCompleted, StatusError:
		return s, nil
	default:
		return "", fmt.Errorf("unknown job status %q", value)
	}
}

// Terminal reports whether no further automatic transition occurs.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

const (
	genericJobFailure    = "processing failed"
	genericUploadFailure = "upload failed"
	lostJobFailure       = "the processor no longer has this job"
)

// Job mirrors the processor's job state as last reconciled locally.
type Job struct {
	Status         Status
	Progress       int
	CurrentChapter int
	TotalChapters  int
	PreviewText    string
	ErrorMessage   string
	ErrorKind      Kind
	FileName       string
	UpdatedAt      time.Time
}

// Err returns the job error as an *Error, or nil unless Status is error.
func (j Job) Err() error {
	if j.Status != StatusError {
		return nil
	}
	return NewError(j.ErrorKind, j.ErrorMessage, nil)
}

// Snapshot is the copy of the store handed to readers.
type Snapshot struct {
	Job

	Issued              uint64 // highest sequence handed to a status request
	LastApplied         uint64 // sequence of the last applied report
	UploadInFlight      bool
	LastPollError       error
	LastPolled          time.Time // last poll outcome, success or failure
	LastResponse        time.Time // last time the processor answered a poll
	ConsecutiveFailures int
}

// IsOffline returns true when the processor has been unreachable for
// multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// CanUpload reports whether a new upload may start.
func (s Snapshot) CanUpload() bool {
	return !s.UploadInFlight && s.Status != StatusProcessing
}

// CanDownload reports whether the artifact is available.
func (s Snapshot) CanDownload() bool {
	return s.Status == StatusCompleted
}

// Outcome describes what Apply did with a report.
type Outcome int

const (
	Applied Outcome = iota
	// DiscardedStale: a report with an equal or newer sequence was applied.
	DiscardedStale
	// DiscardedFenced: the request was issued before the current job started.
	DiscardedFenced
	// DiscardedUploading: an upload is in flight and owns the state.
	DiscardedUploading
	// DiscardedIllegal: the report implies a transition the state machine
	// does not allow, e.g. completed -> processing.
	DiscardedIllegal
	// DiscardedUnknown: the report carried an unrecognized status.
	DiscardedUnknown
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case DiscardedStale:
		return "stale"
	case DiscardedFenced:
		return "fenced"
	case DiscardedUploading:
		return "uploading"
	case DiscardedIllegal:
		return "illegal transition"
	case DiscardedUnknown:
		return "unknown status"
	default:
		return "unknown"
	}
}

// Store owns the single Job value. The synchronizer writes it through
// NextSeq/Apply and the submitter through BeginUpload/FinishUpload/FailUpload.
// The zero value is an idle store ready for use.
type Store struct {
	mu sync.RWMutex

	job       Job
	issued    uint64
	applied   uint64
	fence     uint64
	uploading bool

	lastPollErr error
	failSeq     uint64
	failures    int
	lastPolled  time.Time
	lastResp    time.Time
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Job:                 s.job,
		Issued:              s.issued,
		LastApplied:         s.applied,
		UploadInFlight:      s.uploading,
		LastPolled:          s.lastPolled,
		LastResponse:        s.lastResp,
		ConsecutiveFailures: s.failures,
	}
	if s.job.Status == "" {
		snap.Status = StatusIdle
	}
	if s.lastPollErr != nil {
		snap.LastPollError = fmt.Errorf("%w", s.lastPollErr)
	}
	return snap
}

// NextSeq tags an outbound status request. Sequences start at 1; the
// submitter's optimistic write behaves as sequence zero of the new job.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply reconciles a status report tagged with seq. Reports are applied only
// when seq is newer than the last applied one and was issued after the
// current job's upload succeeded. The report replaces progress, chapter
// counters and preview wholesale.
func (s *Store) Apply(seq uint64, report *summarizer.StatusResponse) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastPolled = time.Now()
	s.lastResp = s.lastPolled
	if seq > s.failSeq {
		s.failures = 0
		s.lastPollErr = nil
	}

	if seq <= s.applied {
		return DiscardedStale
	}
	if seq <= s.fence {
		return DiscardedFenced
	}
	if s.uploading {
		return DiscardedUploading
	}
	if report == nil {
		return DiscardedUnknown
	}
	next, err := ParseStatus(report.Status)
	if err != nil {
		return DiscardedUnknown
	}

	current := s.job.Status
	if current != StatusProcessing {
		// idle -> processing belongs to the submitter; terminal states only
		// leave through a new upload.
		return DiscardedIllegal
	}

	switch next {
	case StatusProcessing:
		s.replaceProgress(report)
	case StatusCompleted:
		s.replaceProgress(report)
		s.job.ErrorMessage = ""
		s.job.ErrorKind = KindUnknown
	case StatusError:
		msg := report.Message()
		if msg == "" {
			msg = genericJobFailure
		}
		s.job.ErrorMessage = msg
		s.job.ErrorKind = KindRemoteJob
	case StatusIdle:
		// The processor forgot the job, e.g. after a restart. Failing it
		// keeps re-upload possible.
		next = StatusError
		s.job.ErrorMessage = lostJobFailure
		s.job.ErrorKind = KindRemoteJob
	default:
		return DiscardedIllegal
	}
	s.job.Status = next
	s.job.UpdatedAt = time.Now()
	s.applied = seq
	return Applied
}

// RecordPollFailure notes a failed status request. The job is untouched.
func (s *Store) RecordPollFailure(seq uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.failSeq {
		return
	}
	s.failSeq = seq
	s.failures++
	s.lastPollErr = err
	s.lastPolled = time.Now()
}

// BeginUpload switches to processing optimistically before the upload call.
// It fails with ErrUploadInFlight while an upload is outstanding or the
// current job is still processing.
func (s *Store) BeginUpload(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uploading || s.job.Status == StatusProcessing {
		return ErrUploadInFlight
	}
	s.uploading = true
	s.fence = s.issued
	s.job = Job{
		Status:    StatusProcessing,
		FileName:  fileName,
		UpdatedAt: time.Now(),
	}
	return nil
}

// FinishUpload records a successful upload. Only status requests issued from
// here on may update the job.
func (s *Store) FinishUpload(chapters int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.uploading {
		return
	}
	s.uploading = false
	s.fence = s.issued
	s.job.TotalChapters = max(chapters, 0)
	s.job.UpdatedAt = time.Now()
}

// FailUpload moves the job to error with message, or a generic message when
// message is empty.
func (s *Store) FailUpload(kind Kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.uploading {
		return
	}
	if message == "" {
		message = genericUploadFailure
	}
	if kind == KindUnknown {
		kind = KindTransport
	}
	s.uploading = false
	s.fence = s.issued
	s.job.Status = StatusError
	s.job.ErrorMessage = message
	s.job.ErrorKind = kind
	s.job.UpdatedAt = time.Now()
}

func (s *Store) replaceProgress(report *summarizer.StatusResponse) {
	total := max(report.TotalChapters, 0)
	current := max(report.CurrentChapter, 0)
	if total > 0 && current > total {
		current = total
	}
	s.job.Progress = min(max(report.Progress, 0), 100)
	s.job.CurrentChapter = current
	s.job.TotalChapters = total
	s.job.PreviewText = report.PreviewText
}
