package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/pkg/model"
)

var (
	tableColorReset  = "\033[0m"
	tableColorRed    = "\033[31m"
	tableColorGreen  = "\033[32m"
	tableColorBlue   = "\033[34m"
	tableColorYellow = "\033[33m"
)

// nameWidth caps the NAME column so long bundle paths keep the table readable.
const nameWidth = 60

// TableRenderer prints process rows as an aligned table.
type TableRenderer struct {
	out          io.Writer
	writer       *tabwriter.Writer
	colorEnabled bool
}

func NewTableRenderer(w io.Writer, colorEnabled bool) *TableRenderer {
	return &TableRenderer{
		out:          w,
		writer:       tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		colorEnabled: colorEnabled,
	}
}

// PrintHeader outputs the table header
func (t *TableRenderer) PrintHeader() {
	header := " PID\tPPID\tCPU%\tMEM%\tNAME"
	if t.colorEnabled {
		fmt.Fprintf(t.writer, "%s%s%s\n", tableColorBlue, header, tableColorReset)
	} else {
		fmt.Fprintln(t.writer, header)
	}
	fmt.Fprintln(t.writer, " ───\t────\t────\t────\t────")
}

func (t *TableRenderer) AddRow(p model.Process) {
	cpu := FormatPercent(p.CPUPercent)
	mem := FormatPercent(p.MemPercent)

	if t.colorEnabled {
		if p.CPUPercent > 50 {
			cpu = tableColorRed + cpu + tableColorReset
		} else if p.CPUPercent > 20 {
			cpu = tableColorYellow + cpu + tableColorReset
		}
		if p.MemPercent > 10 {
			mem = tableColorRed + mem + tableColorReset
		} else if p.MemPercent > 5 {
			mem = tableColorYellow + mem + tableColorReset
		}
	}

	fmt.Fprintf(t.writer, " %d\t%d\t%s\t%s\t%s\n",
		p.PID, p.PPID, cpu, mem, Truncate(ShortenPath(p.Name), nameWidth))
}

// Render prints header and rows and flushes.
func (t *TableRenderer) Render(procs []model.Process) {
	t.PrintHeader()
	for _, p := range procs {
		t.AddRow(p)
	}
	t.Flush()
}

func (t *TableRenderer) Flush() {
	t.writer.Flush()
}

// PrintFooter outputs the summary line. shown is the number of rows printed,
// total the size of the snapshot they were taken from.
func (t *TableRenderer) PrintFooter(shown, total int, s perf.Summary, elapsed time.Duration) {
	fmt.Fprintln(t.out)
	found := fmt.Sprintf("Showing %d of %d processes", shown, total)
	if t.colorEnabled {
		found = tableColorGreen + found + tableColorReset
	}
	fmt.Fprint(t.out, found)
	fmt.Fprintf(t.out, " · top %d: CPU %s MEM %s", perf.TopN,
		FormatPercent(s.TopCPUPercent), FormatPercent(s.TopMemPercent))
	if s.MemTotal > 0 {
		fmt.Fprintf(t.out, " · physical memory %s", FormatBytes(s.MemTotal))
	}
	fmt.Fprintf(t.out, " (%.1fs)\n", elapsed.Seconds())
}
