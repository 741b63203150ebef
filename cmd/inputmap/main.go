// Package main is the inputmap command: it validates, upgrades and lists
// input mapping profiles, and runs them against a terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dshills/inputmap/internal/config"
	"github.com/dshills/inputmap/internal/logging"
	"github.com/dshills/inputmap/internal/profile"
	"github.com/dshills/inputmap/internal/upgrade"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage marks a command line error already reported to the user.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		configPath  string
		logLevel    string
		showVersion bool
	)

	flags := flag.NewFlagSet("inputmap", flag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "Path to the settings file (.toml or .yaml)")
	flags.StringVar(&configPath, "c", "", "Path to the settings file (shorthand)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides settings")
	flags.BoolVar(&showVersion, "version", false, "Show version information")
	flags.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flags.Usage = func() { usage(flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		fmt.Printf("inputmap %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	}

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return 2
	}

	logger := logging.New(logging.Config{Level: logging.LevelWarn, Output: os.Stderr, Prefix: "inputmap"})

	dirs, err := config.ResolveDirs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	var cfg *config.AppConfig
	if configPath != "" {
		cfg = config.NewAt(dirs.Resolve(configPath), dirs, logger)
	} else {
		cfg = config.New(dirs, logger)
	}
	cfg.Load()

	level := cfg.Level()
	if logLevel != "" {
		var ok bool
		if level, ok = logging.ParseLevel(logLevel); !ok {
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", logLevel)
			return 2
		}
	}
	logger.SetLevel(level)

	c := newCLI(cfg, logger, os.Stdout)

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "validate":
		err = c.validate(cmdArgs)
	case "upgrade":
		err = c.upgrade(cmdArgs)
	case "bindings":
		err = c.bindings(cmdArgs)
	case "run":
		err = c.run(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		flags.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func usage(flags *flag.FlagSet) {
	w := flags.Output()
	fmt.Fprintf(w, "inputmap - input mapping profile tool\n\n")
	fmt.Fprintf(w, "Usage: inputmap [options] <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  validate <profile>...        Load profiles and report upgrades and repairs\n")
	fmt.Fprintf(w, "  upgrade [-o file] <profile>  Upgrade a profile to the current schema\n")
	fmt.Fprintf(w, "  bindings [-type t] [-state m/a/p] <profile>\n")
	fmt.Fprintf(w, "                               List action lists\n")
	fmt.Fprintf(w, "  run [profile]                Try a profile in the terminal\n\n")
	fmt.Fprintf(w, "Options:\n")
	flags.PrintDefaults()
	fmt.Fprintf(w, "\nProfiles are names in the profiles directory or paths to %s files.\n", profile.FileExt)
}

// cli holds what every command needs.
type cli struct {
	cfg    *config.AppConfig
	logger *logging.Logger
	store  *profile.Store
	out    io.Writer
}

func newCLI(cfg *config.AppConfig, logger *logging.Logger, out io.Writer) *cli {
	var u *upgrade.Upgrader
	if cfg.AutoUpgrade {
		u = upgrade.New(cfg.TransformsPath(), logger)
	}
	store := profile.NewStore(u, logger)
	store.Backup = cfg.BackupOnUpgrade
	return &cli{cfg: cfg, logger: logger, store: store, out: out}
}

func (c *cli) flagSet(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: inputmap %s %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func (c *cli) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}
