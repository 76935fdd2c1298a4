package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragdesk/internal/logging"
	"github.com/54b3r/ragdesk/internal/rag"
)

// snippetRunes bounds the content preview printed per search hit.
const snippetRunes = 80

// NewSearchCmd constructs the `ragdesk search` command, which ranks stored
// documents against a query the same way a chat turn retrieves context.
func NewSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Show the documents a chat turn would receive as context",
		Long: `Embed the query and print the most similar stored documents, best first.

Examples:
  ragdesk search "how do refunds work"
  ragdesk search --limit 10 "onboarding checklist"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logging.FromContext(ctx))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer func() { _ = a.Close() }()

			if !cmd.Flags().Changed("limit") {
				limit = a.runtime.ContextSize
			}

			docs, err := a.svc.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tSCORE\tDOCUMENT ID\tFILENAME\tSNIPPET")
			for i, d := range docs {
				fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\t%s\n", i+1, d.Score, d.ID, d.Metadata.Filename, snippet(d))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of documents (default RAGDESK_CONTEXT_SIZE)")
	return cmd
}

// snippet flattens whitespace and truncates d's content for one-line display.
func snippet(d rag.Document) string {
	text := strings.Join(strings.Fields(d.Content), " ")
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes]) + "..."
}
