// Package settings persists the flat key-value application settings as a
// JSON document. Values from the file are merged over built-in defaults; a
// missing or corrupt file silently yields the defaults, which the next save
// rewrites.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings is the application configuration document.
type Settings struct {
	ShowSuccessMessages    bool   `mapstructure:"show_success_messages" json:"show_success_messages"`
	ConfirmDelete          bool   `mapstructure:"confirm_delete" json:"confirm_delete"`
	RememberWindowGeometry bool   `mapstructure:"remember_window_geometry" json:"remember_window_geometry"`
	WindowGeometry         string `mapstructure:"window_geometry" json:"window_geometry"`
	WindowMaximized        bool   `mapstructure:"window_maximized" json:"window_maximized"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		ShowSuccessMessages:    true,
		ConfirmDelete:          true,
		RememberWindowGeometry: false,
		WindowGeometry:         "",
		WindowMaximized:        false,
	}
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("show_success_messages", true)
	v.SetDefault("confirm_delete", true)
	v.SetDefault("remember_window_geometry", false)
	v.SetDefault("window_geometry", "")
	v.SetDefault("window_maximized", false)
	return v
}

// Load reads the settings file at path, merging missing keys from the
// defaults. An unreadable or corrupt file resets to the defaults.
func Load(path string) Settings {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		return Default()
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Default()
	}
	return s
}

// Save writes the settings document to path, creating the parent directory
// when needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	v := newViper(path)
	v.Set("show_success_messages", s.ShowSuccessMessages)
	v.Set("confirm_delete", s.ConfirmDelete)
	v.Set("remember_window_geometry", s.RememberWindowGeometry)
	v.Set("window_geometry", s.WindowGeometry)
	v.Set("window_maximized", s.WindowMaximized)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write settings to '%s': %w", path, err)
	}
	return nil
}
