package tui

import (
	"time"

	"github.com/pranshuparmar/taskman/internal/monitor"
	"github.com/pranshuparmar/taskman/internal/perf"
)

// snapshotMsg carries a newly published snapshot
type snapshotMsg struct {
	snap             *monitor.Snapshot
	fromSubscription bool
}

// subscriptionClosedMsg is sent once the controller stops publishing
type subscriptionClosedMsg struct{}

// perfMsg carries the performance summary for the current snapshot
type perfMsg perf.Summary

// killResultMsg contains the result of End Task, keyed by PID
type killResultMsg struct {
	results map[int]error
}

// clockMsg re-renders the "updated ... ago" indicator
type clockMsg time.Time
