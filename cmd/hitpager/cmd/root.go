// Package cmd provides the CLI commands for hitpager.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hitpager/internal/config"
	"github.com/Aman-CERP/hitpager/internal/errors"
	"github.com/Aman-CERP/hitpager/internal/logging"
	"github.com/Aman-CERP/hitpager/internal/profiling"
	"github.com/Aman-CERP/hitpager/pkg/version"
)

// app holds state shared by every command of one invocation.
type app struct {
	dir       string
	debug     bool
	logFormat string
	profile   profiling.Options

	cfg            *config.Config
	loggingCleanup func()
	profiler       *profiling.Profiler
}

// NewRootCmd creates the root command for the hitpager CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "hitpager",
		Short: "Search and paginate an indexed record catalog",
		Long: `hitpager indexes newline-delimited JSON records into a local bleve
index and SQLite record store, then searches them eagerly or page by page.

Queries use the bleve query string syntax, e.g. 'status:active report'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("hitpager version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "Project directory holding .hitpager.yaml and the data directory")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text, json (overrides config)")

	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = a.setup
	cmd.PersistentPostRunE = a.teardown

	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newPageCmd(a))
	cmd.AddCommand(newCountCmd(a))
	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads configuration and installs the default logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}
	a.dir = dir

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Logging.Level = "debug"
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.FilePath = cfg.Logging.File
	logCfg.Stderr = cmd.ErrOrStderr()
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.loggingCleanup = cleanup

	if a.profile.Enabled() {
		p, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.profiler = p
	}

	slog.Debug("cli_started",
		slog.String("command", cmd.Name()),
		slog.String("dir", dir),
		slog.String("version", version.Short()))
	return nil
}

// teardown stops profiling and flushes logs.
func (a *app) teardown(_ *cobra.Command, _ []string) error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
		a.profiler = nil
	}
	if a.loggingCleanup != nil {
		a.loggingCleanup()
		a.loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and reports errors on stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
	}
	return err
}
