package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragdesk/internal/version"
)

// NewVersionCmd constructs the `ragdesk version` subcommand.
// It prints the binary version, git commit, and build date injected at
// build time via -ldflags. Falls back to "dev"/"unknown" for local builds.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ragdesk version, git commit, and build date",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragdesk %s\n", version.String())
		},
	}
}
