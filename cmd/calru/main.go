package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	clog "calru/internal/log"
	"calru/internal/util"
)

var (
	// Version is the current version of the calru binary, set at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

// errReported marks a failure that has already been printed to the user.
var errReported = errors.New("reported")

type app struct {
	cfg       util.Configuration
	cfgFile   string
	logWriter *clog.Writer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{cfg: util.DefaultConfiguration()}
	a.cfg.Version, a.cfg.BuildDate, a.cfg.Commit = Version, BuildDate, Commit

	root := &cobra.Command{
		Use:   "calru",
		Short: "calru - a small statically typed calculator language",
		Long: `calru runs programs written in a small statically typed language with
integers, floats, booleans and typed lists.

Programs are lexed, type checked while parsing and then interpreted. The
integer subset can also be lowered to x86-64 assembly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "Config file, TOML or YAML (default: $CALRU_HOME/config.toml)")
	flags.String("log-level", "none", "Log level: trace, debug, info, warn, error, none")
	flags.String("log-file", "", "Log file path (if not set, logs to stderr)")
	flags.Bool("color", true, "Colorize diagnostics")

	root.AddCommand(
		newRunCmd(a),
		newReplCmd(a),
		newAsmCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)
	return root, a
}

// close releases the log file. cobra skips post-run hooks when a command
// fails, so callers close after Execute returns.
func (a *app) close() {
	if a.logWriter != nil {
		_ = a.logWriter.Close()
		a.logWriter = nil
	}
}

// configure layers defaults, the config file and explicit flags, then
// installs the logger.
func (a *app) configure(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		candidate := filepath.Join(util.ConfigDir(), "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := util.LoadConfiguration(path, &a.cfg); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		a.cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		a.cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("color") {
		a.cfg.Color, _ = flags.GetBool("color")
	}

	w, err := clog.Setup(a.cfg.LogLevel, a.cfg.LogFile, a.cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%v; falling back to stderr\n", err)
	}
	a.logWriter = w
	return nil
}

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
