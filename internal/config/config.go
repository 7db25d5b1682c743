package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/index"
	"github.com/systmms/hemli/internal/lifecycle"
	"github.com/systmms/hemli/internal/logging"
	"github.com/systmms/hemli/internal/metrics"
	"github.com/systmms/hemli/internal/source"
)

// Config holds the runtime configuration
type Config struct {
	Path            string
	Required        bool // Path was given explicitly and must exist
	Logger          *logging.Logger
	IndexPath       string
	Shell           string
	MetricsTextfile string
	Metrics         *metrics.Recorder

	// Engine replaces the engine built from the settings above.
	Engine *lifecycle.Engine
}

// File is the config.yaml structure. Every key is optional.
type File struct {
	IndexPath       string `yaml:"index_path,omitempty"`
	Shell           string `yaml:"shell,omitempty"`
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hemli", "config.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "hemli", "config.yaml")
	}
	return "hemli.yaml"
}

// Load reads the config file and fills every setting that flags and
// environment left empty, then applies defaults.
func (c *Config) Load() error {
	file, err := c.readFile()
	if err != nil {
		return err
	}
	if c.IndexPath == "" {
		c.IndexPath = file.IndexPath
	}
	if c.Shell == "" {
		c.Shell = file.Shell
	}
	if c.MetricsTextfile == "" {
		c.MetricsTextfile = file.MetricsTextfile
	}

	if c.IndexPath == "" {
		c.IndexPath = index.DefaultPath()
	}
	if c.Shell == "" {
		c.Shell = source.DefaultShell
	}
	if strings.ContainsAny(c.Shell, " \t") {
		return dserrors.ConfigError{
			Field:      "shell",
			Value:      c.Shell,
			Message:    "shell must be a single program name or path",
			Suggestion: "Set 'shell: bash' or 'shell: /bin/zsh'",
		}
	}

	c.IndexPath = expandHome(c.IndexPath)
	c.MetricsTextfile = expandHome(c.MetricsTextfile)
	return nil
}

func (c *Config) readFile() (*File, error) {
	if c.Path == "" {
		return &File{}, nil
	}

	f, err := os.Open(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if c.Required {
				return nil, dserrors.ConfigError{
					Field:      "path",
					Value:      c.Path,
					Message:    "configuration file not found",
					Suggestion: "Check the --config path or remove the flag to use " + DefaultPath(),
				}
			}
			c.Logger.Debug("no config file at %s, using defaults", c.Path)
			return &File{}, nil
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}
	defer f.Close()

	var file File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, dserrors.ConfigError{
			Field:      "path",
			Value:      c.Path,
			Message:    "invalid configuration file: " + err.Error(),
			Suggestion: "Valid keys are index_path, shell and metrics_textfile",
		}
	}
	c.Logger.Debug("loaded config file %s", c.Path)
	return &file, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
