// Package paths resolves where traitctl looks for its configuration.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Names used when no override is active.
const (
	AppName        = "traitctl"
	ConfigFileName = "config.yaml"
)

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "TRAITCTL_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/traitctl (fallback ~/.config/traitctl)
// macOS:   ~/Library/Application Support/traitctl
// Windows: %APPDATA%/traitctl
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > TRAITCTL_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveConfigFile returns the configuration file: an explicit file flag
// wins, otherwise config.yaml inside the resolved configuration directory.
func ResolveConfigFile(fileFlag, dirFlag string) (string, error) {
	if fileFlag != "" {
		return filepath.Abs(fileFlag)
	}
	dir, err := ResolveConfigDir(dirFlag)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}
