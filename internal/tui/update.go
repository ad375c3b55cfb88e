package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pranshuparmar/taskman/internal/monitor"
	"github.com/pranshuparmar/taskman/internal/perf"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampOffset()
		return m, nil

	case snapshotMsg:
		// A manual refresh answers directly; timer refreshes come through the
		// subscription, which must be re-armed after every delivery.
		var cmds []tea.Cmd
		if msg.fromSubscription {
			cmds = append(cmds, waitForSnapshot(m.updates))
		} else {
			m.refreshing = false
		}
		if !m.paused {
			m.applySnapshot(msg.snap)
			cmds = append(cmds, m.perfCmd(msg.snap))
		}
		return m, tea.Batch(cmds...)

	case subscriptionClosedMsg:
		return m, nil

	case perfMsg:
		m.summary = perf.Summary(msg)
		return m, nil

	case killResultMsg:
		m.killing = false
		m.handleKillResult(msg)
		if !m.paused {
			m.applySnapshot(m.ctrl.Snapshot())
		}
		return m, nil

	case clockMsg:
		return m, clockCmd()
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle filter mode input
	if m.filterMode {
		return m.handleFilterInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows())

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows())

	case key.Matches(msg, m.keys.Select):
		if p, ok := m.currentProcess(); ok {
			if m.marked[p.PID] {
				delete(m.marked, p.PID)
			} else {
				m.marked[p.PID] = true
			}
			m.moveCursor(1)
		}

	case key.Matches(msg, m.keys.SelectAll):
		for _, p := range m.filtered {
			m.marked[p.PID] = true
		}

	case key.Matches(msg, m.keys.DeselectAll):
		m.marked = make(map[int]bool)

	case key.Matches(msg, m.keys.Kill):
		return m.handleKill()

	case key.Matches(msg, m.keys.Refresh):
		m.refreshing = true
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused {
			m.applySnapshot(m.ctrl.Snapshot())
			return m, m.perfCmd(m.snap)
		}

	case key.Matches(msg, m.keys.Filter):
		m.filterMode = true
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Sort):
		m.sortField = (m.sortField + 1) % 4
		m.rebuild()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Escape):
		m.setStatus("", false)
	}

	return m, nil
}

// handleFilterInput handles input in filter mode
func (m Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.filterMode = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.rebuild()
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.rebuild()
	return m, cmd
}

// handleKill ends the marked processes, or the selected one if none are marked.
func (m Model) handleKill() (tea.Model, tea.Cmd) {
	if m.killing {
		return m, nil
	}

	var pids []int
	if m.markedCount() > 0 {
		for pid := range m.marked {
			pids = append(pids, pid)
		}
		sort.Ints(pids)
	} else if p, ok := m.currentProcess(); ok {
		pids = append(pids, p.PID)
	} else if m.selectedPID != 0 {
		m.setStatus(fmt.Sprintf("PID %d is no longer running", m.selectedPID), false)
		return m, nil
	}

	if len(pids) == 0 {
		return m, nil
	}

	m.killing = true
	if len(pids) == 1 {
		m.setStatus(fmt.Sprintf("ending PID %d...", pids[0]), false)
	} else {
		m.setStatus(fmt.Sprintf("ending %d processes...", len(pids)), false)
	}
	return m, m.killCmd(pids)
}

func (m *Model) handleKillResult(msg killResultMsg) {
	var (
		ended  []int
		failed []string
	)
	for pid, err := range msg.results {
		if err == nil {
			ended = append(ended, pid)
			delete(m.marked, pid)
			continue
		}
		failed = append(failed, fmt.Sprintf("PID %d: %s", pid, describeKillError(err)))
	}
	sort.Ints(ended)
	sort.Strings(failed)

	switch {
	case len(failed) > 0:
		m.setStatus(strings.Join(failed, "; "), true)
	case len(ended) == 1:
		m.setStatus(fmt.Sprintf("ended PID %d", ended[0]), false)
	default:
		m.setStatus(fmt.Sprintf("ended %d processes", len(ended)), false)
	}
}

func describeKillError(err error) string {
	switch {
	case errors.Is(err, monitor.ErrPermissionDenied):
		return "permission denied"
	case errors.Is(err, monitor.ErrTerminationFailed):
		return "failed to kill process"
	case errors.Is(err, monitor.ErrInvalidPID):
		return "invalid PID"
	default:
		return err.Error()
	}
}
