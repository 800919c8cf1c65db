package state

import (
	"errors"
	"fmt"
)

// Kind classifies errors by the surface that reports them. Kinds never
// overwrite one another: a download failure does not replace a job error and
// a settings failure stays inside the settings form.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a local rejection; nothing reached the network.
	KindValidation
	// KindTransport means the processor was unreachable or answered with a
	// non-success status.
	KindTransport
	// KindRemoteJob is a failure reported by the processor for the job itself.
	KindRemoteJob
	// KindConfigSave is a failed settings round-trip.
	KindConfigSave
	// KindDownload is a failed artifact fetch after the job completed.
	KindDownload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindRemoteJob:
		return "remote job"
	case KindConfigSave:
		return "config save"
	case KindDownload:
		return "download"
	default:
		return "unknown"
	}
}

// Error is a user-facing error with a kind and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError builds an *Error. Message is what the UI shows; err is kept for
// logs and errors.Is/As.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the message to display for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

var (
	// ErrUploadInFlight rejects a second upload while one is outstanding or the
	// current job is still processing.
	ErrUploadInFlight = errors.New("an upload is already in progress")

	// ErrNotCompleted rejects a download before the job has completed.
	ErrNotCompleted = errors.New("no completed job to download")
)
