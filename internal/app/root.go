package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/pranshuparmar/taskman/internal/config"
	"github.com/pranshuparmar/taskman/internal/logging"
	"github.com/pranshuparmar/taskman/internal/monitor"
	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/internal/proc"
	"github.com/pranshuparmar/taskman/internal/tui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Collaborators used by every command; tests swap them out.
var (
	newLister = func(cfg *config.Config) proc.Lister {
		return &proc.PSLister{Path: cfg.PSPath}
	}
	newSignaler = proc.NewSignaler
)

// NewRootCmd builds the taskman command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskman",
		Short: "Watch and end processes",
		Long: `taskman shows a live, CPU-ordered view of the running processes and
ends the ones you pick: SIGTERM first, SIGKILL if the process is still
alive after a short grace period.

Without a subcommand taskman opens the interactive view.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	def := config.Default()
	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default $XDG_CONFIG_HOME/taskman/taskman.yaml)")
	pf.Duration("interval", def.Interval, "refresh interval")
	pf.String("ps-path", def.PSPath, "ps binary used to list processes")
	pf.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", def.LogFormat, "log format: console or json")
	pf.String("log-file", "", "write logs to this file")

	root.Flags().String("filter", "", "start with this name or PID filter")
	root.Flags().Int("concurrency", def.Concurrency, "processes ended in parallel when several are marked")

	root.AddCommand(
		newPSCmd(),
		newKillCmd(),
		newServeCmd(),
		newCompletionCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and returns the first error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// session holds what a command needs after configuration is resolved.
type session struct {
	cfg      *config.Config
	log      *zap.Logger
	closeLog func()
}

func (s *session) Close() {
	s.closeLog()
}

// newSession loads and validates configuration and sets up logging. quiet
// keeps logs off stderr while the terminal UI is running.
func newSession(cmd *cobra.Command, quiet bool) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Quiet:  quiet,
	})
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, log: log, closeLog: closeLog}, nil
}

// controller builds a Controller for this session. interval 0 leaves the
// refresh timer disarmed.
func (s *session) controller(lister proc.Lister, interval time.Duration, metrics *monitor.Metrics) (*monitor.Controller, error) {
	if lister == nil {
		lister = newLister(s.cfg)
	}
	return monitor.New(monitor.Options{
		Lister:      lister,
		Signaler:    newSignaler(),
		Interval:    interval,
		GracePeriod: s.cfg.GracePeriod,
		Logger:      s.log,
		Metrics:     metrics,
	})
}

var errNoTerminal = errors.New("the interactive view needs a terminal; use 'taskman ps' for a one-shot listing")

func runTUI(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNoTerminal
	}

	s, err := newSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	ctrl, err := s.controller(nil, s.cfg.Interval, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	filter, _ := cmd.Flags().GetString("filter")
	s.log.Info("starting interactive view", zap.Duration("interval", s.cfg.Interval))

	return tui.Run(cmd.Context(), ctrl, tui.Options{
		Perf:        perf.NewCollector(s.log),
		Concurrency: s.cfg.Concurrency,
		Filter:      filter,
	})
}
