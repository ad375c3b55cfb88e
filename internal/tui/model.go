// Package tui is the interactive process list. It only reads snapshots
// from the controller and asks it to refresh or terminate; it never
// changes process state on its own.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/taskman/internal/monitor"
	"github.com/pranshuparmar/taskman/internal/output"
	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/pkg/model"
)

// Controller is the part of monitor.Controller the UI drives.
type Controller interface {
	Snapshot() *monitor.Snapshot
	Refresh(ctx context.Context) *monitor.Snapshot
	TerminateAll(ctx context.Context, pids []int, concurrency int) map[int]error
	Subscribe() (<-chan *monitor.Snapshot, func())
}

// Summarizer produces the performance header for a snapshot.
type Summarizer interface {
	Collect(ctx context.Context, snap *monitor.Snapshot) perf.Summary
}

// SortField determines how processes are sorted
type SortField int

const (
	SortByCPU SortField = iota
	SortByMem
	SortByPID
	SortByName
)

func (s SortField) String() string {
	switch s {
	case SortByCPU:
		return "cpu"
	case SortByMem:
		return "mem"
	case SortByPID:
		return "pid"
	case SortByName:
		return "name"
	default:
		return "cpu"
	}
}

// Options configures the UI.
type Options struct {
	Perf        Summarizer // nil hides host figures
	Concurrency int        // parallel End Task protocols for marked rows
	Filter      string     // initial filter
}

// Model is the bubbletea model for the process list.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	perf   Summarizer
	keys   KeyMap
	help   help.Model
	filter textinput.Model

	updates     <-chan *monitor.Snapshot
	unsubscribe func()

	snap     *monitor.Snapshot
	filtered []model.Process
	summary  perf.Summary

	// selectedPID is the process the cursor is on. It stays set when that
	// process disappears from the snapshot.
	selectedPID int
	cursorIndex int
	offset      int
	marked      map[int]bool

	concurrency int
	sortField   SortField
	paused      bool
	filterMode  bool
	killing     bool
	refreshing  bool

	status    string
	statusErr bool

	width  int
	height int
}

// New builds the UI model. The subscription it opens is released by Close.
func New(ctx context.Context, ctrl Controller, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "name or pid"
	ti.CharLimit = 128
	ti.Prompt = "/"
	ti.PromptStyle = filterPromptStyle
	ti.SetValue(opts.Filter)

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	updates, unsubscribe := ctrl.Subscribe()

	m := Model{
		ctx:         ctx,
		ctrl:        ctrl,
		perf:        opts.Perf,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		filter:      ti,
		updates:     updates,
		unsubscribe: unsubscribe,
		marked:      make(map[int]bool),
		concurrency: opts.Concurrency,
	}
	m.applySnapshot(ctrl.Snapshot())
	return m
}

// Close releases the snapshot subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the UI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	m := New(ctx, ctrl, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running tui: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForSnapshot(m.updates),
		m.perfCmd(m.snap),
		clockCmd(),
	)
}

// waitForSnapshot blocks on the subscription and delivers the next snapshot.
func waitForSnapshot(updates <-chan *monitor.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg{snap: snap, fromSubscription: true}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return snapshotMsg{snap: ctrl.Refresh(ctx)}
	}
}

func (m Model) perfCmd(snap *monitor.Snapshot) tea.Cmd {
	if m.perf == nil || snap == nil {
		return nil
	}
	ctx, p := m.ctx, m.perf
	return func() tea.Msg {
		return perfMsg(p.Collect(ctx, snap))
	}
}

func (m Model) killCmd(pids []int) tea.Cmd {
	ctx, ctrl, n := m.ctx, m.ctrl, m.concurrency
	return func() tea.Msg {
		return killResultMsg{results: ctrl.TerminateAll(ctx, pids, n)}
	}
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// applySnapshot swaps in snap and rebuilds the visible rows, keeping the
// cursor on the selected process when it is still listed.
func (m *Model) applySnapshot(snap *monitor.Snapshot) {
	if snap == nil {
		return
	}
	m.snap = snap
	m.rebuild()
}

func (m *Model) rebuild() {
	rows := output.Filter(m.snap.Processes(), m.filter.Value())
	_ = output.SortProcesses(rows, m.sortField.String())
	m.filtered = rows

	for pid := range m.marked {
		if _, ok := m.snap.Lookup(pid); !ok {
			delete(m.marked, pid)
		}
	}

	if m.selectedPID != 0 {
		for i, p := range m.filtered {
			if p.PID == m.selectedPID {
				m.cursorIndex = i
				m.clampOffset()
				return
			}
		}
	}

	m.cursorIndex = min(m.cursorIndex, max(len(m.filtered)-1, 0))
	if m.selectedPID == 0 && len(m.filtered) > 0 {
		m.selectedPID = m.filtered[m.cursorIndex].PID
	}
	m.clampOffset()
}

// moveCursor moves by delta rows and re-anchors the selection there.
func (m *Model) moveCursor(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.cursorIndex = min(max(m.cursorIndex+delta, 0), len(m.filtered)-1)
	m.selectedPID = m.filtered[m.cursorIndex].PID
	m.clampOffset()
}

func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.cursorIndex < m.offset {
		m.offset = m.cursorIndex
	}
	if m.cursorIndex >= m.offset+rows {
		m.offset = m.cursorIndex - rows + 1
	}
	m.offset = max(m.offset, 0)
}

// visibleRows is how many table rows fit between the header and help bar.
func (m Model) visibleRows() int {
	return max(m.height-9, 1)
}

// currentProcess returns the selected process if it is still running.
func (m Model) currentProcess() (model.Process, bool) {
	if m.snap == nil || m.selectedPID == 0 {
		return model.Process{}, false
	}
	return m.snap.Lookup(m.selectedPID)
}

func (m Model) markedCount() int {
	return len(m.marked)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}
