// Package summarizer provides an HTTP client for the remote summarization
// processor.
//
// # Overview
//
// The processor is an opaque job runner: it parses the uploaded PDF, splits it
// into chapters, summarizes each chapter with a language model and renders the
// result as a .docx document. Conspect only sees it through six endpoints:
//
//   - GET  /status          current job snapshot (polled every second)
//   - POST /check-services  {ready: bool}
//   - GET  /config          configuration record
//   - POST /config          full record in, accepted record out
//   - POST /upload          multipart body, field "file"
//   - GET  /download-docx   finished document as a byte stream
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept, User-Agent (conspect/0.1) and a fresh X-Request-ID
//   - Return wrapped errors with context about what failed
//
// No client timeout is set unless the caller asks for one; a hung status
// request only delays that poll cycle because the synchronizer issues each
// poll on its own goroutine.
//
// # Error Handling
//
// Non-2xx responses become *APIError. When the body carries FastAPI's
// {"detail": ...} the message is kept in APIError.Detail and is what the UI
// shows for failed uploads. Use Detail(err) to extract it.
//
// Example error messages:
//   - "execute request: dial tcp: connection refused"
//   - "api /upload returned status 400: file must be a PDF"
//   - "decode response: unexpected EOF"
//
// # Configuration Records
//
// AppConfig models the keys the settings form edits. Keys it does not model are
// retained in AppConfig.Extra and written back unchanged, so saving from this
// client never drops settings a newer processor added.
package summarizer
