// Package config loads the YAML configuration of the objsh command.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-objshell/pkg/env"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// Config is the content of a configuration file.
//
//	dir: /srv
//	vars:
//	  USER: alice
//	pipeline:
//	  ops:
//	    - op: ls
//	      args: ["-r"]
//	remote:
//	  command: [ssh, "{host}", objsh, serve]
//	log:
//	  level: debug
type Config struct {
	// Dir is the initial working directory, the current one when empty.
	Dir      string             `yaml:"dir"`
	Vars     map[string]any     `yaml:"vars"`
	Pipeline model.PipelineSpec `yaml:"pipeline"`
	Remote   Remote             `yaml:"remote"`
	Log      Log                `yaml:"log"`
}

// Remote configures how the remote op reaches its hosts.
type Remote struct {
	// Command starts a runner, "{host}" is replaced by the host name.
	Command []string `yaml:"command"`
	// Local serves every host in the current process, Command is ignored.
	Local   bool     `yaml:"local"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Remote: Remote{Command: []string{"ssh", "{host}", "objsh", "serve"}},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML configuration file.
func Load(path string) (*Config, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
	default:
		return nil, errors.Wrap(ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read configuration")
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	return cfg, nil
}

// Parse decodes a YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse YAML")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	for name := range c.Vars {
		if name == env.PWD || name == env.DIRS {
			return errors.Wrapf(ErrInvalidConfig, "variable %s is set from dir", name)
		}
	}

	for i, opSpec := range c.Pipeline.Ops {
		if opSpec.Op == "" {
			return errors.Wrapf(ErrInvalidConfig, "op %d has no name", i+1)
		}
	}

	if _, err := c.level(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log format %q", c.Log.Format)
	}

	return nil
}

// Env creates the environment the configured pipeline runs against.
func (c *Config) Env() (*env.Env, error) {
	dir := c.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "unable to get working directory")
		}

		dir = cwd
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve dir")
	}

	e := env.New(dir)
	for name, value := range c.Vars {
		e.Setvar(name, value)
	}

	return e, nil
}

// Logger creates the logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}

	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}

	err := level.UnmarshalText([]byte(c.Log.Level))
	if err != nil {
		return level, errors.Wrapf(ErrInvalidConfig, "log level %q", c.Log.Level)
	}

	return level, nil
}
