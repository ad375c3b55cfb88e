package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pranshuparmar/taskman/internal/output"
	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/pkg/model"
)

// Fixed column widths; NAME takes what is left.
const (
	colMarker = 2
	colPID    = 7
	colPPID   = 7
	colCPU    = 7
	colMem    = 7
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	// Calculate panel widths (70% table, 30% details)
	tableWidth := int(float64(m.width) * 0.68)
	detailsWidth := m.width - tableWidth - 3 // Account for borders

	header := m.renderHeader()
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderTablePanel(tableWidth),
		m.renderDetailsPanel(detailsWidth))

	return lipgloss.JoinVertical(lipgloss.Left, header, mainContent, m.renderHelpBar())
}

// renderHeader renders the performance summary line
func (m Model) renderHeader() string {
	s := m.summary
	parts := []string{
		fmt.Sprintf("Processes %s", headerValueStyle.Render(fmt.Sprint(m.processCount()))),
		fmt.Sprintf("Top %d CPU %s MEM %s", perf.TopN,
			headerValueStyle.Render(output.FormatPercent(s.TopCPUPercent)),
			headerValueStyle.Render(output.FormatPercent(s.TopMemPercent))),
	}
	if s.MemTotal > 0 {
		parts = append(parts, fmt.Sprintf("Memory %s / %s",
			headerValueStyle.Render(output.FormatBytes(s.MemUsed)),
			headerValueStyle.Render(output.FormatBytes(s.MemTotal))))
	}
	if s.LogicalCPUs > 0 {
		parts = append(parts, fmt.Sprintf("Load %s (%d CPUs)",
			headerValueStyle.Render(fmt.Sprintf("%.2f %.2f %.2f", s.Load1, s.Load5, s.Load15)),
			s.LogicalCPUs))
	}
	return headerStyle.Width(m.width).Render(strings.Join(parts, "  •  "))
}

func (m Model) processCount() int {
	if m.snap == nil {
		return 0
	}
	return m.snap.Len()
}

// renderTablePanel renders the process table
func (m Model) renderTablePanel(width int) string {
	var sb strings.Builder

	sb.WriteString(m.renderTableHeader(width))
	sb.WriteString("\n")
	sb.WriteString(m.renderSeparator(width))
	sb.WriteString("\n")

	if len(m.filtered) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(width - 4).
			Align(lipgloss.Center).
			Render("No processes found")
		sb.WriteString(empty)
	} else {
		end := min(len(m.filtered), m.offset+m.visibleRows())
		for i := m.offset; i < end; i++ {
			sb.WriteString(m.renderTableRow(i, width))
			if i < end-1 {
				sb.WriteString("\n")
			}
		}
	}

	return panelStyle.
		Width(width).
		Height(m.visibleRows() + 2).
		Render(sb.String())
}

func nameWidth(width int) int {
	// Panel border and padding take 4 cells, each column gap one.
	return max(width-4-colMarker-colPID-colPPID-colCPU-colMem-5, 8)
}

// renderTableHeader renders the table header
func (m Model) renderTableHeader(width int) string {
	cols := []struct {
		name  string
		width int
	}{
		{"", colMarker},
		{"PID", colPID},
		{"PPID", colPPID},
		{"CPU%", colCPU},
		{"MEM%", colMem},
		{"NAME", nameWidth(width)},
	}

	var parts []string
	for _, col := range cols {
		parts = append(parts, tableHeaderStyle.UnsetPadding().Width(col.width).Render(col.name))
	}
	return strings.Join(parts, " ")
}

// renderSeparator renders a separator line
func (m Model) renderSeparator(width int) string {
	return lipgloss.NewStyle().
		Foreground(colorBorder).
		Render(strings.Repeat("─", max(width-4, 0)))
}

// renderTableRow renders a single table row
func (m Model) renderTableRow(idx int, width int) string {
	p := m.filtered[idx]
	isMarked := m.marked[p.PID]
	isCursor := p.PID == m.selectedPID

	marker := "  "
	switch {
	case isCursor && isMarked:
		marker = tableMultiSelectStyle.Render("▸ ")
	case isCursor:
		marker = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("> ")
	case isMarked:
		marker = tableMultiSelectStyle.Render("• ")
	}

	nw := nameWidth(width)
	cols := []struct {
		value string
		width int
	}{
		{fmt.Sprint(p.PID), colPID},
		{fmt.Sprint(p.PPID), colPPID},
		{formatCPU(p.CPUPercent), colCPU},
		{formatMem(p.MemPercent), colMem},
		{output.Truncate(output.ShortenPath(p.Name), nw), nw},
	}

	parts := []string{lipgloss.NewStyle().Width(colMarker).Render(marker)}
	for _, col := range cols {
		parts = append(parts, lipgloss.NewStyle().Width(col.width).Render(col.value))
	}
	row := strings.Join(parts, " ")

	if isCursor {
		row = tableSelectedStyle.UnsetPadding().Render(row)
	}
	return row
}

// formatCPU formats CPU percentage with color
func formatCPU(cpu float64) string {
	str := output.FormatPercent(cpu)
	if cpu > 50 {
		return cpuHighStyle.Render(str)
	}
	if cpu > 20 {
		return cpuMedStyle.Render(str)
	}
	return cpuNormalStyle.Render(str)
}

// formatMem formats memory percentage with color
func formatMem(mem float64) string {
	str := output.FormatPercent(mem)
	if mem > 10 {
		return memHighStyle.Render(str)
	}
	if mem > 5 {
		return memMedStyle.Render(str)
	}
	return str
}

// renderHelpBar renders the bottom help/status bar
func (m Model) renderHelpBar() string {
	var status string
	switch {
	case m.filterMode:
		status = m.filter.View()
	case m.status != "" && m.statusErr:
		status = errorStyle.Render(m.status)
	case m.refreshing:
		status = refreshingStyle.Render("↻ refreshing...")
	case m.status != "":
		status = successStyle.Render(m.status)
	case m.paused:
		status = pausedStyle.Render("⏸ PAUSED")
	default:
		status = statusDescStyle.Render(fmt.Sprintf("sort:%s  updated %s", m.sortField, formatTimeSince(m.snapTime())))
	}

	if f := m.filter.Value(); f != "" && !m.filterMode {
		status += statusDescStyle.Render(fmt.Sprintf(" | filter %q", f))
	}
	if count := m.markedCount(); count > 0 {
		status += statusDescStyle.Render(fmt.Sprintf(" | %d marked", count))
	}

	leftSide := helpStyle.Render(m.help.View(m.keys))
	rightSide := helpStyle.Render(status)

	spacing := max(m.width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide)-4, 0)
	return statusBarStyle.
		Width(m.width).
		Render(leftSide + strings.Repeat(" ", spacing) + rightSide)
}

func (m Model) snapTime() time.Time {
	if m.snap == nil {
		return time.Time{}
	}
	return m.snap.TakenAt()
}

// formatTimeSince formats duration since a time
func formatTimeSince(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := time.Since(t)
	if d < time.Second {
		return "just now"
	}
	return fmt.Sprintf("%s ago", d.Truncate(time.Second))
}

// rowName returns the display name for a process in narrow spaces.
func rowName(p model.Process, width int) string {
	return output.Truncate(output.ShortenPath(p.Name), width)
}
