package monitor

import (
	"sort"
	"time"

	"github.com/pranshuparmar/taskman/pkg/model"
)

// Snapshot is one complete, immutable view of the process table, ordered by
// CPU usage descending. Processes with equal CPU keep their listing order.
type Snapshot struct {
	processes []model.Process
	index     map[int]int
	takenAt   time.Time
}

// NewSnapshot sorts a copy of processes and indexes it by PID.
func NewSnapshot(processes []model.Process, takenAt time.Time) *Snapshot {
	sorted := make([]model.Process, len(processes))
	copy(sorted, processes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CPUPercent > sorted[j].CPUPercent
	})

	index := make(map[int]int, len(sorted))
	for i, p := range sorted {
		if _, dup := index[p.PID]; !dup {
			index[p.PID] = i
		}
	}

	return &Snapshot{processes: sorted, index: index, takenAt: takenAt}
}

func emptySnapshot() *Snapshot {
	return NewSnapshot(nil, time.Time{})
}

// Processes returns a copy of the ordered process list.
func (s *Snapshot) Processes() []model.Process {
	out := make([]model.Process, len(s.processes))
	copy(out, s.processes)
	return out
}

func (s *Snapshot) Len() int {
	return len(s.processes)
}

// Lookup finds a process by PID.
func (s *Snapshot) Lookup(pid int) (model.Process, bool) {
	i, ok := s.index[pid]
	if !ok {
		return model.Process{}, false
	}
	return s.processes[i], true
}

// Top returns the n heaviest processes by CPU. n larger than the snapshot
// returns everything; n <= 0 returns nothing.
func (s *Snapshot) Top(n int) []model.Process {
	if n <= 0 {
		return nil
	}
	if n > len(s.processes) {
		n = len(s.processes)
	}
	out := make([]model.Process, n)
	copy(out, s.processes[:n])
	return out
}

// TakenAt is the time the listing was captured; zero for the initial
// empty snapshot.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}
