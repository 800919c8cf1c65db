package summarizer

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// StatusResponse mirrors the payload returned by GET /status.
type StatusResponse struct {
	Status         string  `json:"status"`
	Progress       int     `json:"progress"`
	CurrentChapter int     `json:"current_chapter"`
	TotalChapters  int     `json:"total_chapters"`
	PreviewText    string  `json:"preview_text"`
	ErrorMessage   *string `json:"error_message"`
}

// Message returns the error message, or "" when absent.
func (s StatusResponse) Message() string {
	if s.ErrorMessage == nil {
		return ""
	}
	return *s.ErrorMessage
}

// ReadinessResponse mirrors POST /check-services.
type ReadinessResponse struct {
	Ready bool `json:"ready"`
}

// UploadResponse mirrors a successful POST /upload.
type UploadResponse struct {
	Success       bool   `json:"success"`
	ChaptersCount int    `json:"chapters_count"`
	Message       string `json:"message"`
}

// AppConfig is the processor configuration record exchanged via /config.
// Keys the client does not model are kept in Extra and written back on save.
type AppConfig struct {
	OutputDir     string   `json:"output_dir"`
	EnginePort    int      `json:"lm_studio_port"`
	EngineURL     string   `json:"lm_studio_url"`
	Model         string   `json:"lm_studio_model"`
	MaxChunkSize  int      `json:"max_chunk_size"`
	SplitKeywords []string `json:"split_keywords"`

	Extra map[string]json.RawMessage `json:"-"`
}

var configKeys = []string{
	"output_dir",
	"lm_studio_port",
	"lm_studio_url",
	"lm_studio_model",
	"max_chunk_size",
	"split_keywords",
}

// UnmarshalJSON decodes the known keys and retains the rest in Extra.
func (c *AppConfig) UnmarshalJSON(data []byte) error {
	type plain AppConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range configKeys {
		delete(raw, key)
	}
	p.Extra = nil
	if len(raw) > 0 {
		p.Extra = raw
	}
	*c = AppConfig(p)
	return nil
}

// MarshalJSON encodes the known keys merged with Extra. Known keys win.
func (c AppConfig) MarshalJSON() ([]byte, error) {
	type plain AppConfig
	base, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return base, nil
	}
	merged := make(map[string]json.RawMessage, len(configKeys)+len(c.Extra))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, fmt.Errorf("merge config keys: %w", err)
	}
	for key, value := range c.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// Clone returns a deep copy.
func (c AppConfig) Clone() AppConfig {
	dup := c
	dup.SplitKeywords = slices.Clone(c.SplitKeywords)
	if c.Extra != nil {
		dup.Extra = maps.Clone(c.Extra)
	}
	return dup
}

func hasConfigKeys(raw map[string]json.RawMessage) bool {
	for _, key := range configKeys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

// APIError is returned for 4xx/5xx responses.
type APIError struct {
	Path      string
	Status    int
	Detail    string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
}
