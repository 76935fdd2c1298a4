package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragdesk/internal/logging"
)

// NewAgentsCmd constructs the `ragdesk agents` command, which lists the
// personas a chat request can address. Agents created over HTTP live in the
// server's memory only, so this shows the built-in set.
func NewAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the built-in chat agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logging.FromContext(ctx))
			if err != nil {
				return fmt.Errorf("agents: %w", err)
			}
			defer func() { _ = a.Close() }()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCAPABILITIES")
			for _, ag := range a.svc.ListAgents(ctx) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ag.ID, ag.Name, strings.Join(ag.Capabilities, ", "))
			}
			return tw.Flush()
		},
	}
}
