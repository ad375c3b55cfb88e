package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pranshuparmar/taskman/pkg/model"
)

var (
	colorResetTree   = "\033[0m"
	colorMagentaTree = "\033[35m"
	colorDimTree     = "\033[2m"
)

// PrintTree prints an ancestry chain, oldest first, one level per line.
func PrintTree(w io.Writer, chain []model.Process, colorEnabled bool) {
	colorReset := ""
	colorMagenta := ""
	colorDim := ""
	if colorEnabled {
		colorReset = colorResetTree
		colorMagenta = colorMagentaTree
		colorDim = colorDimTree
	}
	for i, p := range chain {
		prefix := strings.Repeat("  ", i)
		if i > 0 {
			prefix += colorMagenta + "└─ " + colorReset
		}
		fmt.Fprintf(w, "%s%s (%spid %d%s)\n", prefix, ShortenPath(p.Name), colorDim, p.PID, colorReset)
	}
}

// AncestryLine renders a chain on a single line: "launchd (pid 1) → zsh (pid 20)".
func AncestryLine(chain []model.Process) string {
	parts := make([]string, 0, len(chain))
	for _, p := range chain {
		parts = append(parts, fmt.Sprintf("%s (pid %d)", baseName(p.Name), p.PID))
	}
	return strings.Join(parts, " → ")
}

func baseName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}
