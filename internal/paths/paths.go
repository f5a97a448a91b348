// Package paths resolves where frames keeps its configuration file, its run
// journal and user-supplied knowledge files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under platform config and data roots.
const AppName = "frames"

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "FRAMES_CONFIG_DIR"
	EnvDataDir   = "FRAMES_DATA_DIR"
	EnvKnowledge = "FRAMES_KNOWLEDGE"
)

// platform holds the OS lookups, swapped out in tests.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getenv        func(string) string
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getenv:        os.Getenv,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/frames (fallback ~/.config/frames)
// macOS:   ~/Library/Application Support/frames
// Windows: %APPDATA%/frames
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory. Outside Linux it is
// the same as DefaultConfigDir.
//
// Linux:   $XDG_DATA_HOME/frames (fallback ~/.local/share/frames)
func DefaultDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformDir(xdgVar, homeRel string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := platform.getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir applies flag > FRAMES_CONFIG_DIR > DefaultConfigDir.
// Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := first(flag, platform.getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config value > FRAMES_DATA_DIR >
// DefaultDataDir. Overrides are made absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := first(flag, configValue, platform.getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultDataDir()
}

// ResolveKnowledgeFile applies flag > config value > FRAMES_KNOWLEDGE. An
// empty result selects the embedded knowledge base.
func ResolveKnowledgeFile(flag, configValue string) (string, error) {
	if path := first(flag, configValue, platform.getenv(EnvKnowledge)); path != "" {
		return filepath.Abs(path)
	}
	return "", nil
}

// ConfigFile returns the configuration file path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
