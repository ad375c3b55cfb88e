// Package perf summarizes overall system load for the performance view:
// the share of CPU and memory taken by the heaviest processes of a snapshot
// alongside host totals read through gopsutil.
package perf

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/pranshuparmar/taskman/internal/monitor"
)

// TopN is how many processes the approximate usage figures add up.
const TopN = 8

// Summary is a point-in-time performance overview.
type Summary struct {
	TopCPUPercent float64 `json:"top_cpu_percent" yaml:"top_cpu_percent"`
	TopMemPercent float64 `json:"top_mem_percent" yaml:"top_mem_percent"`
	Processes     int     `json:"processes" yaml:"processes"`

	CPUPercent     float64 `json:"cpu_percent" yaml:"cpu_percent"`
	LogicalCPUs    int     `json:"logical_cpus" yaml:"logical_cpus"`
	MemTotal       uint64  `json:"mem_total_bytes" yaml:"mem_total_bytes"`
	MemUsed        uint64  `json:"mem_used_bytes" yaml:"mem_used_bytes"`
	MemUsedPercent float64 `json:"mem_used_percent" yaml:"mem_used_percent"`
	Load1          float64 `json:"load1" yaml:"load1"`
	Load5          float64 `json:"load5" yaml:"load5"`
	Load15         float64 `json:"load15" yaml:"load15"`
}

// TopUsage adds up CPU and memory percentages of the TopN heaviest processes.
func TopUsage(snap *monitor.Snapshot) (cpuPercent, memPercent float64) {
	for _, p := range snap.Top(TopN) {
		cpuPercent += p.CPUPercent
		memPercent += p.MemPercent
	}
	return cpuPercent, memPercent
}

// Collector reads host statistics. The zero value is not usable; call
// NewCollector.
type Collector struct {
	log *zap.Logger

	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	cpuPercent    func(ctx context.Context) ([]float64, error)
	cpuCount      func(ctx context.Context) (int, error)
	loadAvg       func(ctx context.Context) (*load.AvgStat, error)
}

func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		log:           logger.Named("perf"),
		virtualMemory: mem.VirtualMemoryWithContext,
		cpuPercent: func(ctx context.Context) ([]float64, error) {
			// Interval 0 compares against the previous call.
			return cpu.PercentWithContext(ctx, 0, false)
		},
		cpuCount: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		loadAvg: load.AvgWithContext,
	}
}

// Collect builds a Summary for snap. Host figures that cannot be read are
// left at zero and logged at debug level; Collect never fails.
func (c *Collector) Collect(ctx context.Context, snap *monitor.Snapshot) Summary {
	var s Summary
	s.TopCPUPercent, s.TopMemPercent = TopUsage(snap)
	s.Processes = snap.Len()

	if vm, err := c.virtualMemory(ctx); err != nil {
		c.log.Debug("virtual memory unavailable", zap.Error(err))
	} else {
		s.MemTotal = vm.Total
		s.MemUsed = vm.Used
		s.MemUsedPercent = vm.UsedPercent
	}

	if pct, err := c.cpuPercent(ctx); err != nil {
		c.log.Debug("cpu percent unavailable", zap.Error(err))
	} else if len(pct) > 0 {
		s.CPUPercent = pct[0]
	}

	if n, err := c.cpuCount(ctx); err != nil {
		c.log.Debug("cpu count unavailable", zap.Error(err))
	} else {
		s.LogicalCPUs = n
	}

	if avg, err := c.loadAvg(ctx); err != nil {
		c.log.Debug("load average unavailable", zap.Error(err))
	} else {
		s.Load1, s.Load5, s.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	return s
}
