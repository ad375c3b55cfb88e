package output

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pranshuparmar/taskman/pkg/model"
)

// SortKeys lists the accepted values for SortProcesses.
var SortKeys = []string{"cpu", "mem", "pid", "name"}

// SortProcesses orders procs in place. cpu keeps the input order for ties,
// so a snapshot that is already CPU-ordered is left untouched.
func SortProcesses(procs []model.Process, by string) error {
	var less func(a, b model.Process) bool
	switch strings.ToLower(by) {
	case "", "cpu":
		less = func(a, b model.Process) bool { return a.CPUPercent > b.CPUPercent }
	case "mem":
		less = func(a, b model.Process) bool { return a.MemPercent > b.MemPercent }
	case "pid":
		less = func(a, b model.Process) bool { return a.PID < b.PID }
	case "name":
		less = func(a, b model.Process) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	default:
		return fmt.Errorf("unknown sort key %q (valid: %s)", by, strings.Join(SortKeys, ", "))
	}

	sort.SliceStable(procs, func(i, j int) bool { return less(procs[i], procs[j]) })
	return nil
}

// Filter keeps processes whose name contains pattern (case-insensitive) or
// whose PID equals pattern. An empty pattern keeps everything.
func Filter(procs []model.Process, pattern string) []model.Process {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return procs
	}

	pid, pidErr := strconv.Atoi(pattern)
	needle := strings.ToLower(pattern)

	out := make([]model.Process, 0, len(procs))
	for _, p := range procs {
		if (pidErr == nil && p.PID == pid) || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Limit returns at most n processes; n <= 0 means no limit.
func Limit(procs []model.Process, n int) []model.Process {
	if n <= 0 || n >= len(procs) {
		return procs
	}
	return procs[:n]
}
