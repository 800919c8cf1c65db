package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIURL, EnvPollInterval, EnvDownloadDir, EnvLogLevel} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := load(filepath.Join(home, "does-not-exist.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, defaultAPIURL, cfg.APIURL)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, defaultReadinessSchedule, cfg.ReadinessSchedule)
	assert.Zero(t, cfg.RequestTimeout)

	wantStateDir, err := expandPath(defaultStateDir)
	require.NoError(t, err)
	assert.Equal(t, wantStateDir, cfg.StateDir)
	assert.Equal(t, filepath.Join(wantStateDir, "conspect.log"), cfg.LogPath())
	assert.Contains(t, cfg.DownloadDir, home)
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  http://10.0.0.5:9999  "
poll_interval = "2s"
request_timeout = "30s"
readiness_schedule = "*/5 * * * *"
download_dir = "  ~/books  "
state_dir = "~/.conspect"
log_level = "DEBUG"
`)

	cfg, err := load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9999", cfg.APIURL)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "*/5 * * * *", cfg.ReadinessSchedule)
	assert.Equal(t, filepath.Join(home, "books"), cfg.DownloadDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EmptyScheduleDisablesRechecks(t *testing.T) {
	clearEnv(t)
	cfg, err := load(writeConfig(t, `readiness_schedule = ""`), "")
	require.NoError(t, err)
	assert.Empty(t, cfg.ReadinessSchedule)
}

func TestLoad_EnvOverridesFileAndDotenv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "api_url = \"http://file:1\"\npoll_interval = \"5s\"")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONSPECT_API_URL=http://dotenv:2\nCONSPECT_POLL_INTERVAL=3s\n"), 0o600))
	t.Setenv(EnvPollInterval, "250ms")

	cfg, err := load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:2", cfg.APIURL, "value from .env")
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval, "process env wins")
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", `api_url = [`, "parse config"},
		{"bad duration", `poll_interval = "soon"`, "poll_interval"},
		{"zero interval", `poll_interval = "0s"`, "poll_interval"},
		{"bad schedule", `readiness_schedule = "every now and then"`, "readiness_schedule"},
		{"bad level", `log_level = "loud"`, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a/b"), got)
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	_, err := expandPath("   ")
	assert.Error(t, err)
}

func TestLogPath_DefaultsWhenStateDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	assert.Contains(t, got, home)
	assert.Equal(t, "conspect.log", filepath.Base(got))
}
