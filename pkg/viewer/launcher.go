// Package viewer spawns the external mesh viewer as an independent
// process. The catalog never waits on the viewer: once the process has
// started, its outcome is its own business.
package viewer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const DefaultExecutable = "stl-viewer"

var (
	ErrFileNotFound = errors.New("model file not found")
	ErrNotSTLFile   = errors.New("not an STL file")
)

// Settings is the display bundle handed to the viewer process.
type Settings struct {
	Color           [4]uint8   `json:"color"`
	BackgroundColor [4]uint8   `json:"background_color"`
	Rotation        [3]float64 `json:"rotation"`
	ShowAxes        bool       `json:"show_axes"`
	ZoomFactor      float64    `json:"zoom_factor"`
}

// DefaultSettings returns the stock display bundle: neutral gray model on a
// dark background at a three-quarter viewing angle.
func DefaultSettings() Settings {
	return Settings{
		Color:           [4]uint8{180, 180, 180, 255},
		BackgroundColor: [4]uint8{30, 30, 30, 255},
		Rotation:        [3]float64{45, 45, 0},
		ShowAxes:        false,
		ZoomFactor:      1.0,
	}
}

// Launcher starts viewer processes for catalog entries.
type Launcher struct {
	executable string
	log        *zap.Logger
}

// NewLauncher returns a Launcher that runs the given executable; an empty
// executable falls back to DefaultExecutable on PATH.
func NewLauncher(executable string, log *zap.Logger) *Launcher {
	if executable == "" {
		executable = DefaultExecutable
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{executable: executable, log: log}
}

// commandArgs builds the argument list for a viewer invocation.
func (l *Launcher) commandArgs(absPath string, s Settings) ([]string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode viewer settings: %w", err)
	}
	return []string{absPath, "--settings", string(payload)}, nil
}

// Launch spawns the viewer for the given model file, fire-and-forget. The
// file must exist and carry a .stl extension. Errors are only reported for
// problems before the process starts; once started, nothing is awaited.
func (l *Launcher) Launch(path string, s Settings) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path '%s': %w", path, err)
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, absPath)
		}
		return fmt.Errorf("failed to stat '%s': %w", absPath, err)
	}
	if !strings.EqualFold(filepath.Ext(absPath), ".stl") {
		return fmt.Errorf("%w: %s", ErrNotSTLFile, absPath)
	}

	args, err := l.commandArgs(absPath, s)
	if err != nil {
		return err
	}

	cmd := exec.Command(l.executable, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer '%s': %w", l.executable, err)
	}

	l.log.Info("viewer launched",
		zap.String("executable", l.executable),
		zap.String("file", absPath),
		zap.Int("pid", cmd.Process.Pid))

	// Reap the child when it exits; the result is deliberately ignored.
	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
