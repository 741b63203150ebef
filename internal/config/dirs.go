package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INPUTMAP_"

// Dirs are the process-wide directories. They are resolved once at startup
// and passed to the components that need them.
type Dirs struct {
	// BaseDir holds files shipped with the program, such as upgrade rules.
	BaseDir string

	// UserDataDir holds the settings file and the user's profiles.
	UserDataDir string
}

// ResolveDirs determines the directories. BaseDir is the directory of the
// executable. UserDataDir is $INPUTMAP_DATA_DIR if set, otherwise
// "inputmap" under the user configuration directory.
func ResolveDirs() (Dirs, error) {
	var d Dirs

	exe, err := os.Executable()
	if err != nil {
		return d, fmt.Errorf("locating executable: %w", err)
	}
	d.BaseDir = filepath.Dir(exe)

	if dir, ok := os.LookupEnv(EnvPrefix + "DATA_DIR"); ok && dir != "" {
		d.UserDataDir = dir
		return d, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return d, fmt.Errorf("locating user config directory: %w", err)
	}
	d.UserDataDir = filepath.Join(cfg, "inputmap")
	return d, nil
}

// Resolve makes a relative path absolute against UserDataDir.
func (d Dirs) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(d.UserDataDir, path)
}
