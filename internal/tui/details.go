package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"

	"github.com/pranshuparmar/taskman/internal/output"
	"github.com/pranshuparmar/taskman/internal/proc"
)

// maxAncestry is how many levels of the parent chain the panel shows.
const maxAncestry = 5

// renderDetailsPanel renders the right-side details panel
func (m Model) renderDetailsPanel(width int) string {
	height := m.visibleRows() + 2
	inner := max(width-4, 1)

	p, ok := m.currentProcess()
	if !ok {
		text := "Select a process"
		if m.selectedPID != 0 {
			text = fmt.Sprintf("PID %d\n\nprocess no longer running", m.selectedPID)
		}
		empty := goneStyle.
			Width(inner).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render(text)
		return detailsPanelStyle.Width(width).Height(height).Render(empty)
	}

	sections := []string{
		detailsTitleStyle.Render(fmt.Sprintf("PID %d", p.PID)),
		m.renderDetailSection("NAME", wrap.String(output.ShortenPath(p.Name), inner), inner),
		m.renderDetailSection("PARENT", fmt.Sprint(p.PPID), inner),
		m.renderDetailSection("RESOURCES",
			fmt.Sprintf("CPU: %s  MEM: %s", formatCPU(p.CPUPercent), formatMem(p.MemPercent)), inner),
	}

	if ancestry := m.renderAncestrySection(p.PID, inner); ancestry != "" {
		sections = append(sections, ancestry)
	}

	actions := fmt.Sprintf("%s End Task   %s Refresh",
		statusKeyStyle.Render("enter"), statusKeyStyle.Render("r"))
	sections = append(sections, actions)

	return detailsPanelStyle.
		Width(width).
		Height(height).
		Render(strings.Join(sections, "\n\n"))
}

// renderDetailSection renders a labeled section
func (m Model) renderDetailSection(label, value string, width int) string {
	labelStr := detailsLabelStyle.Render(label)
	valueStr := detailsValueStyle.Width(width).Render(value)
	return labelStr + "\n" + valueStr
}

// renderAncestrySection renders the parent chain from the current snapshot
func (m Model) renderAncestrySection(pid int, width int) string {
	ancestry, err := proc.ResolveAncestry(m.snap.Processes(), pid)
	if err != nil || len(ancestry) < 2 {
		return ""
	}

	lines := []string{detailsLabelStyle.Render("ANCESTRY")}

	start := 0
	if len(ancestry) > maxAncestry {
		start = len(ancestry) - maxAncestry
		lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render("  ..."))
	}

	for i := start; i < len(ancestry); i++ {
		a := ancestry[i]
		indent := strings.Repeat("  ", i-start)
		arrow := "→"
		if i == len(ancestry)-1 {
			arrow = "▸"
		}
		line := fmt.Sprintf("%s%s %s", indent, arrow, rowName(a, max(width-len(indent)-2, 4)))
		if i == len(ancestry)-1 {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render(line))
		} else {
			lines = append(lines, lipgloss.NewStyle().Foreground(colorMuted).Render(line))
		}
	}

	return strings.Join(lines, "\n")
}
