package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config captures the client-side settings Conspect needs. The processor's own
// configuration record is edited through the settings package, not here.
type Config struct {
	APIURL            string
	PollInterval      time.Duration
	RequestTimeout    time.Duration
	ReadinessSchedule string
	DownloadDir       string
	StateDir          string
	LogLevel          string
}

const (
	defaultConfigPath        = "~/.config/conspect/config.toml"
	defaultEnvFile           = ".env"
	defaultAPIURL            = "http://127.0.0.1:8000"
	defaultPollInterval      = time.Second
	defaultReadinessSchedule = "@every 30s"
	defaultDownloadDir       = "~/Downloads"
	defaultStateDir          = "~/.local/state/conspect"
	defaultLogLevel          = "info"
)

// Environment overrides, read from the process environment and then from an
// optional .env file in the working directory.
const (
	EnvAPIURL       = "CONSPECT_API_URL"
	EnvPollInterval = "CONSPECT_POLL_INTERVAL"
	EnvDownloadDir  = "CONSPECT_DOWNLOAD_DIR"
	EnvLogLevel     = "CONSPECT_LOG_LEVEL"
)

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	return load(path, defaultEnvFile)
}

func load(path, envFile string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}

	env, err := readEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	raw.applyEnv(env)

	return raw.build()
}

type rawConfig struct {
	APIURL            string  `toml:"api_url"`
	PollInterval      string  `toml:"poll_interval"`
	RequestTimeout    string  `toml:"request_timeout"`
	ReadinessSchedule *string `toml:"readiness_schedule"`
	DownloadDir       string  `toml:"download_dir"`
	StateDir          string  `toml:"state_dir"`
	LogLevel          string  `toml:"log_level"`
}

func readFile(path string) (rawConfig, error) {
	var raw rawConfig
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

// readEnv merges the .env file under the process environment. A missing
// file is not an error.
func readEnv(envFile string) (map[string]string, error) {
	env := map[string]string{}
	if strings.TrimSpace(envFile) != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, key := range []string{EnvAPIURL, EnvPollInterval, EnvDownloadDir, EnvLogLevel} {
		if value, ok := os.LookupEnv(key); ok {
			env[key] = value
		}
	}
	return env, nil
}

func (r *rawConfig) applyEnv(env map[string]string) {
	if v := strings.TrimSpace(env[EnvAPIURL]); v != "" {
		r.APIURL = v
	}
	if v := strings.TrimSpace(env[EnvPollInterval]); v != "" {
		r.PollInterval = v
	}
	if v := strings.TrimSpace(env[EnvDownloadDir]); v != "" {
		r.DownloadDir = v
	}
	if v := strings.TrimSpace(env[EnvLogLevel]); v != "" {
		r.LogLevel = v
	}
}

func (r rawConfig) build() (Config, error) {
	cfg := Config{
		APIURL:            strings.TrimSpace(r.APIURL),
		PollInterval:      defaultPollInterval,
		ReadinessSchedule: defaultReadinessSchedule,
		LogLevel:          strings.ToLower(strings.TrimSpace(r.LogLevel)),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("parse config: unknown log_level %q", r.LogLevel)
	}

	if v := strings.TrimSpace(r.PollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: poll_interval: %w", err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: poll_interval must be positive")
		}
		cfg.PollInterval = d
	}
	if v := strings.TrimSpace(r.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: request_timeout: %w", err)
		}
		cfg.RequestTimeout = max(d, 0)
	}

	if r.ReadinessSchedule != nil {
		cfg.ReadinessSchedule = strings.TrimSpace(*r.ReadinessSchedule)
	}
	if cfg.ReadinessSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReadinessSchedule); err != nil {
			return Config{}, fmt.Errorf("parse config: readiness_schedule: %w", err)
		}
	}

	cfg.DownloadDir = mustExpand(orDefault(r.DownloadDir, defaultDownloadDir))
	cfg.StateDir = mustExpand(orDefault(r.StateDir, defaultStateDir))
	return cfg, nil
}

// LogPath returns the path to the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/conspect.log")
	}
	return filepath.Join(c.StateDir, "conspect.log")
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
