package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/bitwatch/
//   - Linux:   ~/.local/share/bitwatch/ (XDG_DATA_HOME honored)
//   - Windows: %APPDATA%\bitwatch\
//
// Falls back to ~/.bitwatch if platform detection fails.
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		home := homeDir()
		return filepath.Join(home, "Library", "Application Support", "bitwatch")
	case "linux":
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "bitwatch")
		}
		return filepath.Join(homeDir(), ".local", "share", "bitwatch")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "bitwatch")
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", "bitwatch")
	default:
		return filepath.Join(homeDir(), ".bitwatch")
	}
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return home
}
