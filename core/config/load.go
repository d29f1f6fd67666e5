package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads and validates the configuration from the directory.
func Load(fs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fs, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", ConfigurationName, err)
	}
	out.configFs = fs
	out.configurationDir = path
	return &out, nil
}

// Initialize writes the default configuration into dir, leaving an existing
// configuration untouched, and loads it.
func Initialize(fs afero.Fs, dir string, log *slog.Logger) (*Configuration, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	exists, err := afero.Exists(fs, configPath)
	switch {
	case err != nil:
		return nil, err
	case exists:
		log.Info("configuration already exists, skipping", "path", configPath)
	default:
		log.Info("writing default configuration", "path", configPath)
		if err := afero.WriteFile(fs, configPath, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return Load(fs, dir)
}
