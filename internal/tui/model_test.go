package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/taskman/internal/monitor"
	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/pkg/model"
)

type fakeController struct {
	mu         sync.Mutex
	snap       *monitor.Snapshot
	updates    chan *monitor.Snapshot
	refreshes  int
	terminated [][]int
	results    map[int]error
}

func newFakeController(procs ...model.Process) *fakeController {
	return &fakeController{
		snap:    monitor.NewSnapshot(procs, time.Now()),
		updates: make(chan *monitor.Snapshot, 1),
	}
}

func (f *fakeController) Snapshot() *monitor.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Refresh(context.Context) *monitor.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.snap
}

func (f *fakeController) TerminateAll(_ context.Context, pids []int, _ int) map[int]error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = append(f.terminated, pids)
	out := make(map[int]error, len(pids))
	for _, pid := range pids {
		out[pid] = f.results[pid]
	}
	return out
}

func (f *fakeController) Subscribe() (<-chan *monitor.Snapshot, func()) {
	return f.updates, func() {}
}

func (f *fakeController) publish(procs ...model.Process) *monitor.Snapshot {
	f.mu.Lock()
	f.snap = monitor.NewSnapshot(procs, time.Now())
	f.mu.Unlock()
	return f.snap
}

var (
	procA = model.Process{PID: 100, PPID: 1, Name: "/usr/bin/alpha", CPUPercent: 30, MemPercent: 1}
	procB = model.Process{PID: 200, PPID: 100, Name: "/usr/bin/beta", CPUPercent: 20, MemPercent: 12}
	procC = model.Process{PID: 300, PPID: 1, Name: "gamma", CPUPercent: 10, MemPercent: 2}
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model)
}

func TestNewSelectsFirstRow(t *testing.T) {
	m := New(context.Background(), newFakeController(procA, procB, procC), Options{})

	if m.selectedPID != procA.PID {
		t.Errorf("selectedPID = %d, want %d", m.selectedPID, procA.PID)
	}
	if len(m.filtered) != 3 {
		t.Errorf("filtered = %d rows, want 3", len(m.filtered))
	}
}

func TestCursorMovement(t *testing.T) {
	m := sized(New(context.Background(), newFakeController(procA, procB, procC), Options{}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selectedPID != procB.PID {
		t.Fatalf("after down selectedPID = %d, want %d", m.selectedPID, procB.PID)
	}
	m, _ = update(t, m, keyRunes("j"))
	m, _ = update(t, m, keyRunes("j"))
	if m.selectedPID != procC.PID {
		t.Errorf("cursor should stop at last row, selectedPID = %d", m.selectedPID)
	}
	m, _ = update(t, m, keyRunes("k"))
	if m.selectedPID != procB.PID {
		t.Errorf("after up selectedPID = %d, want %d", m.selectedPID, procB.PID)
	}
}

func TestSelectionFollowsProcessAcrossSnapshots(t *testing.T) {
	ctrl := newFakeController(procA, procB, procC)
	m := sized(New(context.Background(), ctrl, Options{}))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown}) // beta

	busyB := procB
	busyB.CPUPercent = 90
	snap := ctrl.publish(procA, busyB, procC)

	m, _ = update(t, m, snapshotMsg{snap: snap, fromSubscription: true})
	if m.selectedPID != procB.PID || m.cursorIndex != 0 {
		t.Errorf("selection = pid %d at row %d, want pid %d at row 0", m.selectedPID, m.cursorIndex, procB.PID)
	}
}

func TestSelectionDanglesWhenProcessExits(t *testing.T) {
	ctrl := newFakeController(procA, procB, procC)
	m := sized(New(context.Background(), ctrl, Options{}))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown}) // beta

	m, _ = update(t, m, snapshotMsg{snap: ctrl.publish(procA, procC)})

	if m.selectedPID != procB.PID {
		t.Fatalf("selectedPID = %d, want dangling %d", m.selectedPID, procB.PID)
	}
	if _, ok := m.currentProcess(); ok {
		t.Error("currentProcess should report the process as gone")
	}
	if view := m.View(); !strings.Contains(view, "no longer running") {
		t.Error("details panel should say the process is no longer running")
	}

	// End Task on a vanished process does nothing but explain.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("no terminate command expected for a vanished process")
	}
	if !strings.Contains(m.status, "no longer running") {
		t.Errorf("status = %q", m.status)
	}
}

func TestEndTask(t *testing.T) {
	ctrl := newFakeController(procA, procB, procC)
	m := sized(New(context.Background(), ctrl, Options{}))

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a terminate command")
	}
	if !m.killing {
		t.Error("model should be waiting for the terminate result")
	}

	// A second request while one is in flight is ignored.
	if _, again := update(t, m, keyRunes("x")); again != nil {
		t.Error("duplicate terminate request should be ignored")
	}

	msg := cmd()
	ctrl.publish(procB, procC)
	m, _ = update(t, m, msg)

	if len(ctrl.terminated) != 1 || len(ctrl.terminated[0]) != 1 || ctrl.terminated[0][0] != procA.PID {
		t.Fatalf("terminated = %v, want [[%d]]", ctrl.terminated, procA.PID)
	}
	if m.statusErr || !strings.Contains(m.status, "ended PID 100") {
		t.Errorf("status = %q (err=%v)", m.status, m.statusErr)
	}
	if m.snap.Len() != 2 {
		t.Errorf("snapshot not refreshed after terminate, len = %d", m.snap.Len())
	}
}

func TestEndTaskMarked(t *testing.T) {
	ctrl := newFakeController(procA, procB, procC)
	ctrl.results = map[int]error{procC.PID: &monitor.TerminateError{PID: procC.PID, State: monitor.Failed, Err: monitor.ErrPermissionDenied}}
	m := sized(New(context.Background(), ctrl, Options{Concurrency: 2}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab}) // mark alpha, move to beta
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab}) // mark gamma
	if m.markedCount() != 2 {
		t.Fatalf("marked = %d, want 2", m.markedCount())
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())

	got := ctrl.terminated[0]
	if len(got) != 2 || got[0] != procA.PID || got[1] != procC.PID {
		t.Errorf("terminated = %v, want [100 300]", got)
	}
	if !m.statusErr || !strings.Contains(m.status, "PID 300: permission denied") {
		t.Errorf("status = %q (err=%v)", m.status, m.statusErr)
	}
	if m.marked[procA.PID] {
		t.Error("ended process should be unmarked")
	}
	if !m.marked[procC.PID] {
		t.Error("failed process should stay marked")
	}
}

func TestRefreshKey(t *testing.T) {
	ctrl := newFakeController(procA)
	m := sized(New(context.Background(), ctrl, Options{}))

	m, cmd := update(t, m, keyRunes("r"))
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	if !m.refreshing {
		t.Error("refresh key should show the refreshing indicator")
	}
	if !strings.Contains(m.View(), "refreshing...") {
		t.Error("view should show the refreshing indicator")
	}

	msg, ok := cmd().(snapshotMsg)
	if !ok {
		t.Fatal("refresh command should produce a snapshot")
	}
	if ctrl.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", ctrl.refreshes)
	}

	m, _ = update(t, m, msg)
	if m.refreshing {
		t.Error("refreshing indicator should clear once the snapshot arrives")
	}
}

func TestPauseHoldsSnapshot(t *testing.T) {
	ctrl := newFakeController(procA, procB)
	m := sized(New(context.Background(), ctrl, Options{}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.paused {
		t.Fatal("space should pause")
	}

	m, cmd := update(t, m, snapshotMsg{snap: ctrl.publish(procC), fromSubscription: true})
	if m.snap.Len() != 2 {
		t.Errorf("paused model applied a new snapshot")
	}
	if cmd == nil {
		t.Error("subscription must be re-armed while paused")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if m.snap.Len() != 1 {
		t.Errorf("resume should pick up the latest snapshot, len = %d", m.snap.Len())
	}
}

func TestFilterMode(t *testing.T) {
	m := sized(New(context.Background(), newFakeController(procA, procB, procC), Options{}))

	m, _ = update(t, m, keyRunes("/"))
	if !m.filterMode {
		t.Fatal("/ should enter filter mode")
	}
	for _, r := range "gam" {
		m, _ = update(t, m, keyRunes(string(r)))
	}
	if len(m.filtered) != 1 || m.filtered[0].PID != procC.PID {
		t.Fatalf("filtered = %+v, want only gamma", m.filtered)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Error("enter should leave filter mode")
	}
	if len(m.filtered) != 1 {
		t.Error("enter should keep the filter")
	}

	m, _ = update(t, m, keyRunes("/"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.filtered) != 3 {
		t.Errorf("esc should clear the filter, rows = %d", len(m.filtered))
	}
}

func TestSortCycle(t *testing.T) {
	m := sized(New(context.Background(), newFakeController(procA, procB, procC), Options{}))

	m, _ = update(t, m, keyRunes("s"))
	if m.sortField != SortByMem || m.filtered[0].PID != procB.PID {
		t.Errorf("sort = %s first = %d, want mem/200", m.sortField, m.filtered[0].PID)
	}
	m, _ = update(t, m, keyRunes("s"))
	m, _ = update(t, m, keyRunes("s"))
	m, _ = update(t, m, keyRunes("s"))
	if m.sortField != SortByCPU {
		t.Errorf("sort should wrap back to cpu, got %s", m.sortField)
	}
}

func TestPerfHeader(t *testing.T) {
	m := sized(New(context.Background(), newFakeController(procA), Options{}))
	m, _ = update(t, m, perfMsg(perf.Summary{TopCPUPercent: 30, MemTotal: 8 << 30, MemUsed: 2 << 30}))

	view := m.View()
	for _, want := range []string{"30.0%", "8.0G", "alpha"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m := New(context.Background(), newFakeController(), Options{})
	_, cmd := update(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}
}
