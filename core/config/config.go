// Package config holds the shell's configuration file.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
	DefaultDirName    = ".nesh"
)

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	Prompt        string `json:"prompt"`
	Home          string `json:"home"`
	Path          string `json:"path"`
	Color         string `json:"color" validate:"omitempty,oneof=always auto never"`
	GrepSeparator string `json:"grep_separator"`
	SessionLog    string `json:"session_log"`
	History       string `json:"history"`
	Verbosity     int    `json:"verbosity" validate:"gte=0,lte=2"`
	PipeBuffer    int    `json:"pipe_buffer" validate:"gte=0"`
	PipeFail      bool   `json:"pipe_fail"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// resolve makes name relative to the configuration directory unless it's
// absolute or starts with ~.
func (c *Configuration) resolve(name string) (string, error) {
	expanded, err := homedir.Expand(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(c.configurationDir, expanded), nil
}

// HomeDir returns the configured home directory, or the user's home directory
// if none is set.
func (c *Configuration) HomeDir() (string, error) {
	if c.Home == "" {
		return homedir.Dir()
	}
	return homedir.Expand(c.Home)
}

// SearchPath returns the configured PATH, or fallback if none is set.
func (c *Configuration) SearchPath(fallback string) string {
	if c.Path == "" {
		return fallback
	}
	return c.Path
}

// OpenSessionLog opens the session event log in an append only state. It
// returns nil if session logging is disabled.
func (c *Configuration) OpenSessionLog() (afero.File, error) {
	if c.SessionLog == "" {
		return nil, nil
	}
	path, err := c.resolve(c.SessionLog)
	if err != nil {
		return nil, err
	}
	return c.fs().OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadSessionLog opens the session event log for reading.
func (c *Configuration) ReadSessionLog() (afero.File, error) {
	path, err := c.resolve(c.SessionLog)
	if err != nil {
		return nil, err
	}
	return c.fs().OpenFile(path, os.O_RDONLY, 0600)
}

// HistoryPath returns the path of the line editing history file, or an empty
// string if history is disabled.
func (c *Configuration) HistoryPath() (string, error) {
	if c.History == "" {
		return "", nil
	}
	return c.resolve(c.History)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built in configuration rooted at dir, used when no
// configuration file exists.
func Default(fs afero.Fs, dir string) *Configuration {
	out := defaultConfig()
	out.configFs = fs
	out.configurationDir = dir
	return out
}

// DefaultDir returns the directory the configuration lives in when no path
// is given.
func DefaultDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName), nil
}
