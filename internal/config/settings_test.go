package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testDirs(t *testing.T) Dirs {
	t.Helper()
	root := t.TempDir()
	return Dirs{BaseDir: filepath.Join(root, "base"), UserDataDir: filepath.Join(root, "data")}
}

func TestDefaults(t *testing.T) {
	dirs := testDirs(t)
	c := New(dirs, nil)

	if got, want := c.Path(), filepath.Join(dirs.UserDataDir, TOMLFile); got != want {
		t.Errorf("Path() = %s, want %s", got, want)
	}
	if got, want := c.ProfilesPath(), filepath.Join(dirs.UserDataDir, "profiles"); got != want {
		t.Errorf("ProfilesPath() = %s, want %s", got, want)
	}
	if got, want := c.TransformsPath(), filepath.Join(dirs.BaseDir, "transforms"); got != want {
		t.Errorf("TransformsPath() = %s, want %s", got, want)
	}
	if c.CycleInterval() != DefaultCycleInterval {
		t.Errorf("CycleInterval() = %v, want %v", c.CycleInterval(), DefaultCycleInterval)
	}
	if !c.AutoUpgrade || !c.WatchProfile || !c.BackupOnUpgrade {
		t.Errorf("boolean defaults = %v/%v/%v, want all true", c.AutoUpgrade, c.WatchProfile, c.BackupOnUpgrade)
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New(testDirs(t), nil)
	if !c.Load() {
		t.Error("Load() = false for a missing file, want true")
	}
}

func TestSaveLoadTOML(t *testing.T) {
	dirs := testDirs(t)
	c := New(dirs, nil)
	c.LastProfile = "racing"
	c.CycleIntervalMS = 5
	c.WatchProfile = false
	if !c.Save() {
		t.Fatal("Save() = false")
	}

	data, err := os.ReadFile(c.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "last_profile = 'racing'") && !strings.Contains(string(data), `last_profile = "racing"`) {
		t.Errorf("settings file does not use TOML keys:\n%s", data)
	}

	d := New(dirs, nil)
	if !d.Load() {
		t.Fatal("Load() = false")
	}
	if d.LastProfile != "racing" || d.CycleInterval() != 5*time.Millisecond || d.WatchProfile {
		t.Errorf("loaded %+v", d)
	}
}

func TestYAMLSelectedWhenPresent(t *testing.T) {
	dirs := testDirs(t)
	if err := os.MkdirAll(dirs.UserDataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dirs.UserDataDir, YAMLFile)
	if err := os.WriteFile(yamlPath, []byte("log_level: debug\nauto_upgrade: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(dirs, nil)
	if c.Path() != yamlPath {
		t.Fatalf("Path() = %s, want %s", c.Path(), yamlPath)
	}
	if !c.Load() {
		t.Fatal("Load() = false")
	}
	if c.LogLevel != "debug" || c.AutoUpgrade {
		t.Errorf("LogLevel/AutoUpgrade = %q/%v, want debug/false", c.LogLevel, c.AutoUpgrade)
	}
	if !c.WatchProfile {
		t.Error("unset key lost its default")
	}

	c.LastProfile = "x"
	if !c.Save() {
		t.Fatal("Save() = false")
	}
	data, _ := os.ReadFile(yamlPath)
	if !strings.Contains(string(data), "last_profile: x") {
		t.Errorf("YAML not written:\n%s", data)
	}
}

func TestLoadMalformedIsSoftFailure(t *testing.T) {
	dirs := testDirs(t)
	c := New(dirs, nil)
	if err := os.MkdirAll(dirs.UserDataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(), []byte("log_level = = debug"), 0o644); err != nil {
		t.Fatal(err)
	}
	if c.Load() {
		t.Error("Load() = true for a malformed file")
	}
	if c.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default info", c.LogLevel)
	}
}

func TestSaveFailureIsSoft(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewAt(filepath.Join(blocker, TOMLFile), Dirs{UserDataDir: dir}, nil)
	if c.Save() {
		t.Error("Save() = true below a regular file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"LOG_LEVEL", "warn")
	t.Setenv(EnvPrefix+"CYCLE_INTERVAL_MS", "7")
	t.Setenv(EnvPrefix+"WATCH_PROFILE", "off")
	t.Setenv(EnvPrefix+"AUTO_UPGRADE", "maybe")

	c := New(testDirs(t), nil)
	c.Load()
	if c.LogLevel != "warn" || c.CycleIntervalMS != 7 || c.WatchProfile {
		t.Errorf("overrides not applied: %+v", c)
	}
	if !c.AutoUpgrade {
		t.Error("invalid override replaced the default")
	}
}

func TestProfilePath(t *testing.T) {
	dirs := Dirs{UserDataDir: "/data"}
	c := NewAt("/data/settings.toml", dirs, nil)
	tests := []struct {
		name string
		want string
	}{
		{"gaming", filepath.Join("/data", "profiles", "gaming.xml")},
		{"other.xml", filepath.Join("/data", "other.xml")},
		{"/abs/p.xml", "/abs/p.xml"},
	}
	for _, tt := range tests {
		if got := c.ProfilePath(tt.name); got != tt.want {
			t.Errorf("ProfilePath(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestResolveDirsHonorsEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"DATA_DIR", "/tmp/inputmap-data")
	d, err := ResolveDirs()
	if err != nil {
		t.Fatalf("ResolveDirs: %v", err)
	}
	if d.UserDataDir != "/tmp/inputmap-data" {
		t.Errorf("UserDataDir = %s, want /tmp/inputmap-data", d.UserDataDir)
	}
	if d.BaseDir == "" {
		t.Error("BaseDir is empty")
	}
}

func TestParseErrorPosition(t *testing.T) {
	dirs := testDirs(t)
	c := New(dirs, nil)
	if err := os.MkdirAll(dirs.UserDataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(), []byte("log_level = \"debug\"\ncycle_interval_ms = = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := c.read()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("read() error = %v, want *ParseError", err)
	}
	if pe.Path != c.Path() {
		t.Errorf("ParseError.Path = %s, want %s", pe.Path, c.Path())
	}
	if pe.Line != 2 {
		t.Errorf("ParseError.Line = %d, want 2", pe.Line)
	}
}

func TestParseErrorYAMLLine(t *testing.T) {
	tests := []struct {
		name string
		body string
		line int
	}{
		{"syntax", "log_level: debug\nauto_upgrade: yes: no\n", 2},
		{"type", "log_level: debug\ncycle_interval_ms: fast\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dirs := testDirs(t)
			if err := os.MkdirAll(dirs.UserDataDir, 0o755); err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(dirs.UserDataDir, YAMLFile)
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}

			c := NewAt(path, dirs, nil)
			var pe *ParseError
			if err := c.read(); !errors.As(err, &pe) {
				t.Fatalf("read() error = %v, want *ParseError", err)
			}
			if pe.Format != "yaml" {
				t.Errorf("ParseError.Format = %q, want yaml", pe.Format)
			}
			if pe.Line != tt.line {
				t.Errorf("ParseError.Line = %d, want %d", pe.Line, tt.line)
			}
		})
	}
}

func TestEnvOverrideErrors(t *testing.T) {
	t.Setenv(EnvPrefix+"CYCLE_INTERVAL_MS", "fast")

	c := New(testDirs(t), nil)
	errs := c.applyEnv()
	if len(errs) != 1 {
		t.Fatalf("applyEnv() returned %d errors, want 1", len(errs))
	}
	if !errors.Is(errs[0], ErrInvalidValue) {
		t.Errorf("error %v does not match ErrInvalidValue", errs[0])
	}
	var ve *ValueError
	if !errors.As(errs[0], &ve) || ve.Expected != "integer" {
		t.Errorf("error = %#v, want ValueError expecting integer", errs[0])
	}
}
