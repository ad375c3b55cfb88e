package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pranshuparmar/taskman/internal/config"
	"github.com/pranshuparmar/taskman/internal/monitor"
	"github.com/pranshuparmar/taskman/internal/output"
	"github.com/pranshuparmar/taskman/internal/perf"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Refresh in the background and serve snapshots and metrics over HTTP",
		Long: `serve keeps a live snapshot and exposes it on:

  /processes  the current snapshot as JSON (?q=, ?sort=, ?limit=)
  /metrics    Prometheus metrics
  /healthz    liveness`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", config.Default().MetricsAddr, "listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctrl, err := s.controller(nil, s.cfg.Interval, monitor.NewMetrics(reg))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	srv := &http.Server{
		Addr:              s.cfg.MetricsAddr,
		Handler:           newServeMux(ctrl, perf.NewCollector(s.log), reg, s.log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	s.log.Info("serving",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("interval", s.cfg.Interval))

	return serve(cmd.Context(), srv, ln, s.log)
}

// serve runs srv on ln until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type snapshotSource interface {
	Snapshot() *monitor.Snapshot
}

type summarizer interface {
	Collect(ctx context.Context, snap *monitor.Snapshot) perf.Summary
}

func newServeMux(src snapshotSource, sum summarizer, gatherer prometheus.Gatherer, log *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("GET /processes", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 0
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
			limit = n
		}

		snap := src.Snapshot()
		procs := output.Filter(snap.Processes(), q.Get("q"))
		if by := q.Get("sort"); by != "" {
			if err := output.SortProcesses(procs, by); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		procs = output.Limit(procs, limit)

		summary := sum.Collect(r.Context(), snap)
		w.Header().Set("Content-Type", "application/json")
		if err := output.WriteJSON(w, output.NewListing(snap.TakenAt(), procs, &summary)); err != nil {
			log.Warn("failed to write listing", zap.Error(err))
		}
	})
	return mux
}
