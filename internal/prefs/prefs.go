// Package prefs remembers UI choices between runs: the colour theme and the
// directory the file picker last opened in.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/conspect/internal/config"
)

// Prefs is the content of prefs.toml. Unknown keys are ignored.
type Prefs struct {
	Theme   string `toml:"theme"`
	LastDir string `toml:"last_dir,omitempty"`
}

const (
	defaultPath  = "~/.config/conspect/prefs.toml"
	defaultTheme = "Nightfox"
)

// DefaultPath returns where prefs live when no path is given.
func DefaultPath() string {
	return defaultPath
}

// Default returns the preferences of a first run.
func Default() Prefs {
	return Prefs{Theme: defaultTheme}
}

func (p Prefs) normalize() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastDir = strings.TrimSpace(p.LastDir)
	return p
}

// Load reads prefs from path ("" for DefaultPath). It always returns usable
// prefs; a non-nil error only explains why the defaults were used. A missing
// file is not an error.
func Load(path string) (Prefs, error) {
	resolved, err := locate(path)
	if err != nil {
		return Default(), err
	}
	data, err := os.ReadFile(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return Default(), nil
	case err != nil:
		return Default(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	return p.normalize(), nil
}

// Save replaces the prefs file at path ("" for DefaultPath). The file is
// written next to its final name and renamed, so a crash never leaves a
// truncated prefs.toml behind.
func Save(path string, p Prefs) error {
	resolved, err := locate(path)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func locate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return resolved, nil
}
