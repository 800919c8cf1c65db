package summarizer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, defaultAPIURL, u.Host)

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	require.NoError(t, err)
	assert.Empty(t, u.Path, u.String())
	assert.Empty(t, u.RawQuery)
	assert.Empty(t, u.Fragment)
}

func TestParseBaseURL_MissingHostFails(t *testing.T) {
	_, err := parseBaseURL("http://")
	assert.Error(t, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, 0)
	require.NoError(t, err)
	return c
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotRequestID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/status":
			_, _ = w.Write([]byte(`{"status":"processing","progress":40,"current_chapter":2,"total_chapters":5,"preview_text":"## Chapter 1","error_message":null}`))
		case r.Method == http.MethodPost && r.URL.Path == "/check-services":
			_, _ = w.Write([]byte(`{"lm_studio":true,"ready":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/config":
			_, _ = w.Write([]byte(`{"output_dir":"/out","lm_studio_port":1234,"split_keywords":["Chapter"],"theme":"dark"}`))
		default:
			http.NotFound(w, r)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	status, err := c.FetchStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "processing", status.Status)
	assert.Equal(t, 40, status.Progress)
	assert.Equal(t, 2, status.CurrentChapter)
	assert.Equal(t, 5, status.TotalChapters)
	assert.Nil(t, status.ErrorMessage)
	assert.Empty(t, status.Message())

	ready, err := c.CheckServices(ctx)
	require.NoError(t, err)
	assert.True(t, ready)

	cfg, err := c.FetchConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/out", cfg.OutputDir)
	assert.Equal(t, 1234, cfg.EnginePort)
	assert.Equal(t, []string{"Chapter"}, cfg.SplitKeywords)
	assert.JSONEq(t, `"dark"`, string(cfg.Extra["theme"]))

	assert.True(t, strings.HasPrefix(gotUserAgent, "conspect/"), "User-Agent = %q", gotUserAgent)
	assert.NotEmpty(t, gotRequestID, "X-Request-ID header")
}

func TestClient_UploadSendsMultipartFile(t *testing.T) {
	t.Parallel()

	var gotName, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotName = header.Filename
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(UploadResponse{Success: true, ChaptersCount: 5})
	})

	resp, err := c.Upload(context.Background(), "book.pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.ChaptersCount)
	assert.Equal(t, "book.pdf", gotName)
	assert.Equal(t, "%PDF-1.7", gotBody)
}

func TestClient_ErrorDetailIsSurfaced(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"detail":"engine is not reachable"}`))
		case "/download-docx":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":[{"loc":["x"]}]}`))
		case "/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	})

	_, err := c.Upload(context.Background(), "book.pdf", strings.NewReader("x"))
	detail, ok := Detail(err)
	assert.True(t, ok, "Detail(%v)", err)
	assert.Equal(t, "engine is not reachable", detail)

	_, err = c.DownloadArtifact(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 404")
	detail, ok = Detail(err)
	assert.True(t, ok)
	assert.Contains(t, detail, "loc", "structured detail is kept as raw JSON")

	_, err = c.FetchStatus(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	_, err = c.CheckServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 500")
	_, ok = Detail(err)
	assert.False(t, ok, "plain-text error body should not produce a detail")
}

func TestClient_UploadFailureCarriesJobErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "engine unavailable",
			status: http.StatusServiceUnavailable,
			body:   `{"status":"error","progress":0,"current_chapter":0,"total_chapters":0,"preview_text":"","error_message":"LM Studio not available on port 1234"}`,
			want:   "LM Studio not available on port 1234",
		},
		{
			name:   "no text extracted",
			status: http.StatusInternalServerError,
			body:   `{"status":"error","error_message":" could not extract text from PDF "}`,
			want:   "could not extract text from PDF",
		},
		{
			name:   "detail wins over job message",
			status: http.StatusBadRequest,
			body:   `{"detail":"file must be a PDF","error_message":"stale"}`,
			want:   "file must be a PDF",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Upload(context.Background(), "book.pdf", strings.NewReader("x"))
			detail, ok := Detail(err)
			assert.True(t, ok, "Detail(%v)", err)
			assert.Equal(t, tt.want, detail)
		})
	}
}

func TestClient_NullJobErrorMessageIsNotADetail(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","error_message":null}`))
	})

	_, err := c.Upload(context.Background(), "book.pdf", strings.NewReader("x"))
	require.Error(t, err)
	_, ok := Detail(err)
	assert.False(t, ok)
}

func TestClient_DownloadArtifactStreamsBytes(t *testing.T) {
	t.Parallel()

	var gotAccept string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		_, _ = w.Write([]byte("PK\x03\x04docx"))
	})

	body, err := c.DownloadArtifact(context.Background())
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "PK\x03\x04docx", string(data))
	assert.Equal(t, "application/octet-stream", gotAccept)
}

func TestClient_SaveConfigAcceptsEnvelopeAndBareRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		wantDir  string
		wantErr  bool
	}{
		{"envelope", `{"success":true,"config":{"output_dir":"/server","lm_studio_port":1}}`, "/server", false},
		{"bare record", `{"output_dir":"/bare","lm_studio_port":2}`, "/bare", false},
		{"acknowledgement only", `{"success":true}`, "/sent", false},
		{"rejected", `{"success":false}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody map[string]any
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&gotBody)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.response))
			})

			sent := AppConfig{OutputDir: "/sent", Extra: map[string]json.RawMessage{"custom": json.RawMessage(`1`)}}
			got, err := c.SaveConfig(context.Background(), sent)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, got.OutputDir)
			assert.Equal(t, float64(1), gotBody["custom"], "extra key preserved in request")
		})
	}
}

func TestAppConfig_ExtraKeysDoNotOverrideKnownFields(t *testing.T) {
	cfg := AppConfig{
		OutputDir: "/known",
		Extra:     map[string]json.RawMessage{"output_dir": json.RawMessage(`"/extra"`), "x": json.RawMessage(`true`)},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "/known", decoded["output_dir"])
	assert.Equal(t, true, decoded["x"])
}

func TestAppConfig_CloneIsDeep(t *testing.T) {
	orig := AppConfig{SplitKeywords: []string{"a"}, Extra: map[string]json.RawMessage{"k": json.RawMessage(`1`)}}
	dup := orig.Clone()
	dup.SplitKeywords[0] = "b"
	dup.Extra["k"] = json.RawMessage(`2`)
	assert.Equal(t, "a", orig.SplitKeywords[0])
	assert.Equal(t, "1", string(orig.Extra["k"]))
}
