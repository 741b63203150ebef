// Package config holds the application settings and the process-wide
// directories.
//
// Settings are read from settings.toml or settings.yaml in the user data
// directory, then overridden by INPUTMAP_* environment variables. Load and
// Save report failure as a boolean and log the cause; a broken settings
// file never stops the program.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/inputmap/internal/logging"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings file names, in lookup order.
const (
	TOMLFile = "settings.toml"
	YAMLFile = "settings.yaml"
)

// DefaultCycleInterval is the dispatch cycle period.
const DefaultCycleInterval = 20 * time.Millisecond

// AppConfig is the persisted application settings.
type AppConfig struct {
	// ProfilesDir holds profile documents. Relative to the user data
	// directory unless absolute.
	ProfilesDir string `toml:"profiles_dir" yaml:"profiles_dir"`

	// TransformsDir holds the upgrade rule files. Relative to the user
	// data directory unless absolute.
	TransformsDir string `toml:"transforms_dir" yaml:"transforms_dir"`

	// LastProfile is the name of the profile opened last.
	LastProfile string `toml:"last_profile" yaml:"last_profile"`

	LogLevel string `toml:"log_level" yaml:"log_level"`

	// CycleIntervalMS is the dispatch cycle period in milliseconds.
	CycleIntervalMS int `toml:"cycle_interval_ms" yaml:"cycle_interval_ms"`

	// WatchProfile reloads the open profile when its file changes.
	WatchProfile bool `toml:"watch_profile" yaml:"watch_profile"`

	// AutoUpgrade upgrades profiles written by older releases on load.
	AutoUpgrade bool `toml:"auto_upgrade" yaml:"auto_upgrade"`

	// BackupOnUpgrade keeps the pre-upgrade file as <name>.xml.bak.
	BackupOnUpgrade bool `toml:"backup_on_upgrade" yaml:"backup_on_upgrade"`

	dirs   Dirs
	path   string
	logger *logging.Logger
}

// New creates settings with defaults. The settings file is
// settings.yaml when only that exists in the user data directory,
// otherwise settings.toml.
func New(dirs Dirs, logger *logging.Logger) *AppConfig {
	path := filepath.Join(dirs.UserDataDir, TOMLFile)
	if _, err := os.Stat(path); err != nil {
		yamlPath := filepath.Join(dirs.UserDataDir, YAMLFile)
		if _, err := os.Stat(yamlPath); err == nil {
			path = yamlPath
		}
	}
	return NewAt(path, dirs, logger)
}

// NewAt creates settings with defaults stored at path. The format follows
// the file extension.
func NewAt(path string, dirs Dirs, logger *logging.Logger) *AppConfig {
	if logger == nil {
		logger = logging.Nop()
	}
	c := &AppConfig{dirs: dirs, path: path, logger: logger.WithComponent("config")}
	c.Reset()
	return c
}

// Reset restores the defaults.
func (c *AppConfig) Reset() {
	c.ProfilesDir = "profiles"
	c.TransformsDir = filepath.Join(c.dirs.BaseDir, "transforms")
	c.LastProfile = ""
	c.LogLevel = "info"
	c.CycleIntervalMS = int(DefaultCycleInterval / time.Millisecond)
	c.WatchProfile = true
	c.AutoUpgrade = true
	c.BackupOnUpgrade = true
}

// Path returns the settings file path.
func (c *AppConfig) Path() string { return c.path }

// Dirs returns the directories the settings were created with.
func (c *AppConfig) Dirs() Dirs { return c.dirs }

// ProfilesPath returns the absolute profiles directory.
func (c *AppConfig) ProfilesPath() string { return c.dirs.Resolve(c.ProfilesDir) }

// TransformsPath returns the absolute transforms directory.
func (c *AppConfig) TransformsPath() string { return c.dirs.Resolve(c.TransformsDir) }

// ProfilePath returns the path of a named profile. Names with a path
// separator or extension are used as given.
func (c *AppConfig) ProfilePath(name string) string {
	if strings.ContainsRune(name, filepath.Separator) || filepath.Ext(name) != "" {
		return c.dirs.Resolve(name)
	}
	return filepath.Join(c.ProfilesPath(), name+".xml")
}

// CycleInterval returns the dispatch cycle period.
func (c *AppConfig) CycleInterval() time.Duration {
	if c.CycleIntervalMS <= 0 {
		return DefaultCycleInterval
	}
	return time.Duration(c.CycleIntervalMS) * time.Millisecond
}

// Level returns the parsed log level.
func (c *AppConfig) Level() logging.Level {
	level, ok := logging.ParseLevel(c.LogLevel)
	if !ok {
		c.logger.Warn("unknown log level %q, using %s", c.LogLevel, level)
	}
	return level
}

func (c *AppConfig) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(c.path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the settings file and applies environment overrides. A
// missing file leaves the defaults in place and is not a failure.
func (c *AppConfig) Load() bool {
	ok := true
	if err := c.read(); err != nil {
		c.logger.WithField("path", c.path).Error("loading settings: %v", err)
		ok = false
	}
	for _, err := range c.applyEnv() {
		c.logger.Warn("environment override: %v", err)
	}
	return ok
}

func (c *AppConfig) read() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	format := "toml"
	if c.isYAML() {
		format = "yaml"
		err = yaml.Unmarshal(data, c)
	} else {
		err = toml.Unmarshal(data, c)
	}
	if err != nil {
		return newParseError(c.path, format, err)
	}
	return nil
}

func newParseError(path, format string, err error) *ParseError {
	pe := &ParseError{Path: path, Format: format, Err: err}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		pe.Line, pe.Column = de.Position()
		return pe
	}
	if format != "yaml" {
		return pe
	}

	// yaml.v3 reports positions only inside the message text.
	msg := err.Error()
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")
	if _, scanErr := fmt.Sscanf(msg, "line %d:", &pe.Line); scanErr != nil {
		pe.Line = 0
	}
	return pe
}

// Save writes the settings file atomically.
func (c *AppConfig) Save() bool {
	if err := c.write(); err != nil {
		c.logger.WithField("path", c.path).Error("saving settings: %v", err)
		return false
	}
	return true
}

func (c *AppConfig) write() error {
	var (
		data []byte
		err  error
	)
	if c.isYAML() {
		data, err = yaml.Marshal(c)
	} else {
		data, err = toml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// envOverrides maps environment variable suffixes to setters. Setters
// return the expected type name when the value does not convert.
var envOverrides = map[string]func(c *AppConfig, v string) (expected string){
	"PROFILES_DIR":      func(c *AppConfig, v string) string { c.ProfilesDir = v; return "" },
	"TRANSFORMS_DIR":    func(c *AppConfig, v string) string { c.TransformsDir = v; return "" },
	"LAST_PROFILE":      func(c *AppConfig, v string) string { c.LastProfile = v; return "" },
	"LOG_LEVEL":         func(c *AppConfig, v string) string { c.LogLevel = v; return "" },
	"CYCLE_INTERVAL_MS": func(c *AppConfig, v string) string { return setInt(&c.CycleIntervalMS, v) },
	"WATCH_PROFILE":     func(c *AppConfig, v string) string { return setBool(&c.WatchProfile, v) },
	"AUTO_UPGRADE":      func(c *AppConfig, v string) string { return setBool(&c.AutoUpgrade, v) },
	"BACKUP_ON_UPGRADE": func(c *AppConfig, v string) string { return setBool(&c.BackupOnUpgrade, v) },
}

func (c *AppConfig) applyEnv() []error {
	var errs []error
	for suffix, set := range envOverrides {
		name := EnvPrefix + suffix
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		if expected := set(c, strings.TrimSpace(v)); expected != "" {
			errs = append(errs, &ValueError{Name: name, Value: v, Expected: expected})
		}
	}
	return errs
}

func setInt(dst *int, s string) string {
	v, err := strconv.Atoi(s)
	if err != nil {
		return "integer"
	}
	*dst = v
	return ""
}

func setBool(dst *bool, s string) string {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		*dst = true
	case "false", "no", "off", "0":
		*dst = false
	default:
		return "boolean"
	}
	return ""
}
