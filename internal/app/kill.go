package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranshuparmar/taskman/internal/batch"
	"github.com/pranshuparmar/taskman/internal/config"
	"github.com/pranshuparmar/taskman/internal/monitor"
)

func newKillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill PID...",
		Short: "End processes: SIGTERM, then SIGKILL if they outlive the grace period",
		Example: `  taskman kill 4242
  taskman kill --grace 2s 4242 4243`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completePIDs,
		RunE:              runKill,
	}

	def := config.Default()
	cmd.Flags().Duration("grace", def.GracePeriod, "time between SIGTERM and the liveness check")
	cmd.Flags().Int("concurrency", def.Concurrency, "processes ended in parallel")

	return cmd
}

func runKill(cmd *cobra.Command, args []string) error {
	pids, err := parsePIDs(args)
	if err != nil {
		return err
	}
	slices.Sort(pids)
	pids = slices.Compact(pids)

	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctrl, err := s.controller(nil, 0, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for r := range batch.Run(cmd.Context(), pids, s.cfg.Concurrency, ctrl.Terminate) {
		if r.Err != nil {
			failed++
			s.log.Debug("terminate failed", zap.Int("pid", r.PID), zap.Error(r.Err))
			fmt.Fprintf(out, "PID %d: %s\n", r.PID, describeTerminateError(r.Err))
			continue
		}
		fmt.Fprintf(out, "PID %d ended\n", r.PID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d processes could not be ended", failed, len(pids))
	}
	return nil
}

func describeTerminateError(err error) string {
	switch {
	case errors.Is(err, monitor.ErrPermissionDenied):
		return "permission denied"
	case errors.Is(err, monitor.ErrInvalidPID):
		return "invalid PID"
	case errors.Is(err, monitor.ErrTerminationFailed):
		return "failed to kill process"
	default:
		return err.Error()
	}
}
