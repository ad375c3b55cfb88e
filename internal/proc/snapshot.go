package proc

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/pranshuparmar/taskman/pkg/model"
)

// minSnapshotFields is pid + ppid + name + cpu + mem.
const minSnapshotFields = 5

// ParseSnapshot turns the output of `ps -axo pid,ppid,comm,%cpu,%mem` into
// process records, keeping the listing order.
//
// The first line is always treated as the header and skipped. pid and ppid
// are read from the front of each line and cpu/mem from the back, so
// everything in between is the name and may contain spaces. A line that does
// not parse completely is dropped; it never shows up with zeroed metrics.
func ParseSnapshot(raw string) []model.Process {
	lines := strings.Split(raw, "\n")

	// Skip header
	if len(lines) > 0 {
		lines = lines[1:]
	}

	processes := make([]model.Process, 0, len(lines))
	seen := make(map[int]bool, len(lines))
	for _, line := range lines {
		p, ok := parseSnapshotLine(line)
		if !ok || seen[p.PID] {
			continue
		}
		seen[p.PID] = true
		processes = append(processes, p)
	}

	return processes
}

func parseSnapshotLine(line string) (model.Process, bool) {
	fields := strings.Fields(line)
	if len(fields) < minSnapshotFields {
		return model.Process{}, false
	}

	pid, err := strconv.Atoi(fields[0])
	if err != nil || pid <= 0 {
		return model.Process{}, false
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return model.Process{}, false
	}

	last := len(fields) - 1
	cpu, err := parsePercent(fields[last-1])
	if err != nil {
		return model.Process{}, false
	}
	mem, err := parsePercent(fields[last])
	if err != nil {
		return model.Process{}, false
	}

	name := strings.TrimSpace(strings.Join(fields[2:last-1], " "))
	if name == "" {
		return model.Process{}, false
	}

	return model.Process{
		PID:        pid,
		PPID:       ppid,
		Name:       name,
		CPUPercent: cpu,
		MemPercent: mem,
	}, true
}

var errNotFinite = errors.New("not a finite number")

// parsePercent accepts both "12.3" and "12,3" since ps follows the locale.
// Values are not clamped to [0,100].
func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
