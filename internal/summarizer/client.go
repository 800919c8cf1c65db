package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StatusFetcher fetches job snapshots. Implemented by *Client and used by the
// status synchronizer so tests can substitute a fake.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*StatusResponse, error)
}

// ReadinessChecker asks the processor whether its backing services are up.
type ReadinessChecker interface {
	CheckServices(ctx context.Context) (bool, error)
}

// ConfigClient reads and writes the processor configuration record.
type ConfigClient interface {
	FetchConfig(ctx context.Context) (*AppConfig, error)
	SaveConfig(ctx context.Context, cfg AppConfig) (*AppConfig, error)
}

// Uploader submits a document to the processor.
type Uploader interface {
	Upload(ctx context.Context, fileName string, content io.Reader) (*UploadResponse, error)
}

// ArtifactFetcher streams the finished document.
type ArtifactFetcher interface {
	DownloadArtifact(ctx context.Context) (io.ReadCloser, error)
}

// Ensure Client implements every collaborator interface at compile time.
var (
	_ StatusFetcher    = (*Client)(nil)
	_ ReadinessChecker = (*Client)(nil)
	_ ConfigClient     = (*Client)(nil)
	_ Uploader         = (*Client)(nil)
	_ ArtifactFetcher  = (*Client)(nil)
)

// Client talks to the summarization processor HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "127.0.0.1:8000"
	defaultUserAgent = "conspect/0.1"
	maxErrorBody     = 64 * 1024
)

// NewClient builds a Client for the given base URL. A zero timeout leaves
// request deadlines to the transport and the caller's context.
func NewClient(apiURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized processor URL.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchStatus retrieves the current job snapshot from GET /status.
func (c *Client) FetchStatus(ctx context.Context) (*StatusResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, "", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CheckServices asks POST /check-services whether the engine is reachable.
func (c *Client) CheckServices(ctx context.Context) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	var payload ReadinessResponse
	if err := c.do(ctx, http.MethodPost, "/check-services", nil, "", &payload); err != nil {
		return false, err
	}
	return payload.Ready, nil
}

// FetchConfig loads the processor configuration from GET /config.
func (c *Client) FetchConfig(ctx context.Context) (*AppConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload AppConfig
	if err := c.do(ctx, http.MethodGet, "/config", nil, "", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SaveConfig writes the full record with POST /config and returns the record
// the processor accepted. Processors that only acknowledge with
// {"success": true} are treated as having accepted cfg verbatim.
func (c *Client) SaveConfig(ctx context.Context, cfg AppConfig) (*AppConfig, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/config", bytes.NewReader(body), "application/json", &raw); err != nil {
		return nil, err
	}
	return acceptedConfig(raw, cfg)
}

// Upload streams content as a multipart body under the field "file".
func (c *Client) Upload(ctx context.Context, fileName string, content io.Reader) (*UploadResponse, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if content == nil {
		return nil, fmt.Errorf("upload content is nil")
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	var payload UploadResponse
	if err := c.do(ctx, http.MethodPost, "/upload", pr, mw.FormDataContentType(), &payload); err != nil {
		_ = pr.Close()
		return nil, err
	}
	return &payload, nil
}

// DownloadArtifact opens GET /download-docx as an opaque byte stream. The
// caller must close the returned reader.
func (c *Client) DownloadArtifact(ctx context.Context) (io.ReadCloser, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	resp, err := c.send(ctx, http.MethodGet, &url.URL{Path: "/download-docx"}, nil, "", "application/octet-stream")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, dest any) error {
	resp, err := c.send(ctx, method, &url.URL{Path: path}, body, contentType, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send executes the request and returns the response when the status is
// below 400. Error responses are drained into an *APIError.
func (c *Client) send(ctx context.Context, method string, rel *url.URL, body io.Reader, contentType, accept string) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	slog.Debug("processor request", "method", method, "path", rel.Path, "request_id", requestID)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newAPIError(rel.Path, requestID, resp)
	}
	return resp, nil
}

func newAPIError(path, requestID string, resp *http.Response) *APIError {
	apiErr := &APIError{Path: path, Status: resp.StatusCode, RequestID: requestID}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Detail       json.RawMessage `json:"detail"`
		ErrorMessage *string         `json:"error_message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return apiErr
	}
	if len(payload.Detail) > 0 && string(payload.Detail) != "null" {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Detail = strings.TrimSpace(detail)
		} else {
			// Validation failures carry structured detail; keep it readable.
			apiErr.Detail = strings.TrimSpace(string(payload.Detail))
		}
	}
	// Upload failures answer with the job state instead of a detail.
	if apiErr.Detail == "" && payload.ErrorMessage != nil {
		apiErr.Detail = strings.TrimSpace(*payload.ErrorMessage)
	}
	return apiErr
}

func acceptedConfig(raw map[string]json.RawMessage, sent AppConfig) (*AppConfig, error) {
	if nested, ok := raw["config"]; ok {
		var cfg AppConfig
		if err := json.Unmarshal(nested, &cfg); err != nil {
			return nil, fmt.Errorf("decode accepted config: %w", err)
		}
		return &cfg, nil
	}
	if !hasConfigKeys(raw) {
		if ok, present := raw["success"]; present && string(ok) == "false" {
			return nil, fmt.Errorf("processor rejected config")
		}
		accepted := sent.Clone()
		return &accepted, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode accepted config: %w", err)
	}
	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode accepted config: %w", err)
	}
	return &cfg, nil
}

// Detail returns the processor-provided detail message carried by err, if
// any.
func Detail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
