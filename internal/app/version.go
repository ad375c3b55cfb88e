package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/taskman/internal/output"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func newVersionCmd() *cobra.Command {
	var (
		quiet   bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := currentVersion()
			out := cmd.OutOrStdout()

			if jsonOut {
				return output.WriteJSON(out, info)
			}
			if quiet {
				fmt.Fprintln(out, info.Version)
				return nil
			}

			fmt.Fprintf(out, "taskman %s\n", info.Version)
			fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "  built:      %s\n", info.BuildDate)
			fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "  platform:   %s\n", info.Platform)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the version number")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print version information as JSON")
	return cmd
}
