package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pranshuparmar/taskman/internal/completion"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Generate a shell completion script",
		Long: `Generate a shell completion script.

  bash:        source <(taskman completion bash)
  zsh:         taskman completion zsh > "${fpath[1]}/_taskman"
  fish:        taskman completion fish | source
  powershell:  taskman completion powershell | Out-String | Invoke-Expression

PID and process name arguments complete from a live snapshot.`,
		Args:                  cobra.ExactArgs(1),
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell", "pwsh"},
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell", "pwsh":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell, pwsh)", args[0])
			}
		},
	}
}

func completePIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return complete(cmd, completion.KindPIDs, toComplete)
}

func completeNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return complete(cmd, completion.KindNames, toComplete)
}

// complete takes one snapshot and returns the candidates of kind. Any
// failure yields no candidates rather than an error in the shell.
func complete(cmd *cobra.Command, kind completion.Kind, toComplete string) ([]string, cobra.ShellCompDirective) {
	s, err := newSession(cmd, true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer s.Close()

	ctrl, err := s.controller(nil, 0, nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer ctrl.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	snap := ctrl.Refresh(ctx)
	return completion.Candidates(kind, snap.Processes(), toComplete), cobra.ShellCompDirectiveNoFileComp
}
