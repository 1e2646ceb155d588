// Package config loads CLI settings from an optional JSON file and
// environment variables. Environment variables take precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/illarion/blackbox/internal/entry"
	"github.com/illarion/blackbox/internal/logger"
)

// Environment variables read by Load.
const (
	EnvConfig         = "BLACKBOX_CONFIG"
	EnvContainer      = "BLACKBOX_FILE"
	EnvStageThreshold = "BLACKBOX_STAGE_THRESHOLD"
	EnvStageMode      = "BLACKBOX_STAGE_MODE"
	EnvTempDir        = "BLACKBOX_TEMP_DIR"
	EnvLogLevel       = "BLACKBOX_LOG_LEVEL"
)

// DefaultContainer is the container file used when none is configured.
const DefaultContainer = ".blackbox"

// Options holds the configuration values for the CLI.
type Options struct {
	// Container is the path of the container file commands operate on.
	Container string `json:"container"`

	// StageThreshold is the content size in bytes above which content is staged
	// to a temp file in auto mode.
	StageThreshold int64 `json:"stage_threshold"`

	// StageMode is one of auto, memory or staged.
	StageMode string `json:"stage_mode"`

	// TempDir is where staged content is written. Empty means os.TempDir().
	TempDir string `json:"temp_dir"`

	// LogLevel is a zap level name or "off".
	LogLevel string `json:"log_level"`

	// Config is the path of the file the options were read from, if any.
	Config string `json:"-"`
}

// Default returns options with built-in defaults.
func Default() *Options {
	return &Options{
		Container:      DefaultContainer,
		StageThreshold: entry.DefaultThreshold,
		StageMode:      entry.ModeAuto.String(),
		LogLevel:       logger.Off,
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blackbox", "config.json")
}

// Parse loads options from the process environment.
func Parse() (*Options, error) {
	return Load(os.Getenv)
}

// Load builds options from defaults, then the config file, then getenv.
// A missing config file is not an error unless it was named explicitly.
func Load(getenv func(string) string) (*Options, error) {
	options := Default()

	explicit := false
	options.Config = DefaultPath()
	if configPath := getenv(EnvConfig); configPath != "" {
		options.Config = configPath
		explicit = true
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file %s: %w", options.Config, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
			options.Config = ""
		default:
			return nil, fmt.Errorf("error while reading config file: %w", err)
		}
	}

	if v := getenv(EnvContainer); v != "" {
		options.Container = v
	}
	if v := getenv(EnvStageThreshold); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvStageThreshold, err)
		}
		options.StageThreshold = n
	}
	if v := getenv(EnvStageMode); v != "" {
		options.StageMode = v
	}
	if v := getenv(EnvTempDir); v != "" {
		options.TempDir = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		options.LogLevel = v
	}

	if options.Container == "" {
		return nil, fmt.Errorf("container path must not be empty")
	}
	if options.StageThreshold < 0 {
		return nil, fmt.Errorf("stage threshold must not be negative: %d", options.StageThreshold)
	}
	if _, err := entry.ParseMode(options.StageMode); err != nil {
		return nil, err
	}
	return options, nil
}

// Spool returns the entry spool described by the options.
func (o *Options) Spool() (entry.Spool, error) {
	mode, err := entry.ParseMode(o.StageMode)
	if err != nil {
		return entry.Spool{}, err
	}
	return entry.Spool{Mode: mode, Threshold: o.StageThreshold, Dir: o.TempDir}, nil
}
