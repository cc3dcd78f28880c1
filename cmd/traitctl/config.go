// Config loading for the traitctl CLI.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/traitkit/internal/appconfig"
	"github.com/mesh-intelligence/traitkit/internal/docgen"
	"github.com/mesh-intelligence/traitkit/internal/paths"
)

const configHeader = `traitctl configuration
Each section is named after a class. Uncomment a setting to change it.`

// configPath resolves the configuration file: --config > --config-dir >
// TRAITCTL_CONFIG_DIR > platform default.
func (c *cli) configPath() (string, error) {
	return paths.ResolveConfigFile(c.configFile, c.configDir)
}

// loadConfig reads the configuration file with viper. When no explicit
// --config is given, the config directory and a commented default file are
// created on first run.
func (c *cli) loadConfig() (*viper.Viper, error) {
	path, err := c.configPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	if c.configFile == "" {
		if _, err := ensureDefaultConfigFile(path); err != nil {
			return nil, fmt.Errorf("ensure default config: %w", err)
		}
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: config file %s does not exist", errUsage, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile writes the default configuration to path unless a
// file already exists there. It reports whether it wrote one.
func ensureDefaultConfigFile(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	text, err := docgen.ConfigTemplate(configHeader, appconfig.Classes()...)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
