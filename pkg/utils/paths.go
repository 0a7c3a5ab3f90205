package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// appDataDir returns the platform directory stlcat keeps its state in.
func appDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", "stlcat")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "stlcat")
	default: // Primarily Linux, but also other UNIX-like systems.
		return filepath.Join(homeDir, ".local", "share", "stlcat")
	}
}

// DefaultDBPath returns the system-appropriate default path for the catalog database.
func DefaultDBPath() string {
	return filepath.Join(appDataDir(), "stl_catalog.db")
}

// DefaultSettingsPath returns the default path for the settings JSON file.
func DefaultSettingsPath() string {
	return filepath.Join(appDataDir(), "stl_catalog_settings.json")
}

// DefaultLegacyDocumentPath is where the pre-database flat-file catalog
// lived; checked once on startup for a one-time migration.
func DefaultLegacyDocumentPath() string {
	return filepath.Join(appDataDir(), "stl_catalog.json")
}

// ResolveAndEnsurePath expands and absolutizes the provided path (falling
// back to fallbackPath when empty) and creates its parent directory.
func ResolveAndEnsurePath(providedPath, fallbackPath string) (string, error) {
	targetPath := providedPath
	if targetPath == "" {
		targetPath = fallbackPath
	}

	if strings.HasPrefix(targetPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", targetPath, err)
		}
		targetPath = filepath.Join(homeDir, targetPath[2:])
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}
	targetPath = absPath

	parentDir := filepath.Dir(targetPath)
	if _, err := os.Stat(parentDir); os.IsNotExist(err) {
		if err := os.MkdirAll(parentDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory '%s': %w", parentDir, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to stat directory '%s': %w", parentDir, err)
	}

	return targetPath, nil
}
