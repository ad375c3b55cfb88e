package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pranshuparmar/taskman/internal/output"
	"github.com/pranshuparmar/taskman/internal/perf"
	"github.com/pranshuparmar/taskman/internal/proc"
)

func newPSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ps [pattern]",
		Short: "Print one snapshot of the process table",
		Example: `  taskman ps                  # every process, heaviest CPU first
  taskman ps node             # processes whose name contains "node"
  taskman ps --sort mem -n 10 # ten largest by memory
  taskman ps -o json          # machine-readable listing
  taskman ps --tree 4242      # where PID 4242 came from`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeNames,
		RunE:              runPS,
	}

	f := cmd.Flags()
	f.String("sort", "cpu", "sort by: "+strings.Join(output.SortKeys, ", "))
	f.IntP("limit", "n", 0, "show at most this many processes (0 for all)")
	f.StringP("output", "o", "table", "output format: "+strings.Join(output.Formats, ", "))
	f.Bool("no-color", false, "disable colors")
	f.Int("tree", 0, "print the ancestry of this PID instead of the listing")
	f.Bool("short", false, "with --tree, print the ancestry on one line")
	f.String("from-file", "", "read a captured ps listing from this file instead of running ps (- for stdin)")

	_ = cmd.RegisterFlagCompletionFunc("sort", cobra.FixedCompletions(output.SortKeys, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(output.Formats, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("tree", completePIDs)

	return cmd
}

func runPS(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	sortBy, _ := f.GetString("sort")
	limit, _ := f.GetInt("limit")
	format, _ := f.GetString("output")
	noColor, _ := f.GetBool("no-color")
	treePID, _ := f.GetInt("tree")
	short, _ := f.GetBool("short")
	fromFile, _ := f.GetString("from-file")

	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	var lister proc.Lister
	if fromFile != "" {
		raw, err := readListing(cmd.InOrStdin(), fromFile)
		if err != nil {
			return err
		}
		lister = proc.StaticLister(raw)
	}

	ctrl, err := s.controller(lister, 0, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	start := time.Now()
	ctx := cmd.Context()
	snap := ctrl.Refresh(ctx)
	out := cmd.OutOrStdout()
	colorEnabled := !noColor && colorWanted(out)

	if f.Changed("tree") {
		chain, err := proc.ResolveAncestry(snap.Processes(), treePID)
		if err != nil {
			return err
		}
		if short {
			fmt.Fprintln(out, output.AncestryLine(chain))
			return nil
		}
		output.PrintTree(out, chain, colorEnabled)
		return nil
	}

	var pattern string
	if len(args) > 0 {
		pattern = args[0]
	}

	procs := output.Filter(snap.Processes(), pattern)
	if err := output.SortProcesses(procs, sortBy); err != nil {
		return err
	}
	procs = output.Limit(procs, limit)

	if len(procs) == 0 && pattern != "" && (format == "" || format == "table") {
		fmt.Fprintf(out, "No processes matching %q found\n", pattern)
		return nil
	}

	summary := perf.NewCollector(s.log).Collect(ctx, snap)
	listing := output.NewListing(snap.TakenAt(), procs, &summary)

	return output.Write(out, format, listing, snap.Len(), colorEnabled, time.Since(start))
}

func readListing(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read listing from stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read listing: %w", err)
	}
	return string(raw), nil
}

// colorWanted reports whether w is a terminal and NO_COLOR is unset.
func colorWanted(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func parsePIDs(args []string) ([]int, error) {
	pids := make([]int, 0, len(args))
	for _, arg := range args {
		pid, err := strconv.Atoi(arg)
		if err != nil || pid <= 0 {
			return nil, fmt.Errorf("invalid PID %q", arg)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
