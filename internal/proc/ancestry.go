package proc

import (
	"fmt"

	"github.com/pranshuparmar/taskman/pkg/model"
)

// ResolveAncestry returns the parent chain of pid as found in processes,
// ordered from the oldest known ancestor down to pid itself. The walk stops
// at the first parent that is not part of the listing, so a reaped parent
// simply shortens the chain.
func ResolveAncestry(processes []model.Process, pid int) ([]model.Process, error) {
	byPID := make(map[int]model.Process, len(processes))
	for _, p := range processes {
		byPID[p.PID] = p
	}

	var chain []model.Process
	seen := make(map[int]bool)

	current := pid

	for current > 0 {
		if seen[current] {
			break // loop protection
		}
		seen[current] = true

		p, ok := byPID[current]
		if !ok {
			break
		}

		chain = append([]model.Process{p}, chain...)

		if p.PPID == 0 || p.PID == 1 {
			break
		}
		current = p.PPID
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no process ancestry found for PID %d", pid)
	}

	return chain, nil
}
