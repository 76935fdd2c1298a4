package commands

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragdesk/internal/logging"
)

// NewDocumentsCmd constructs the `ragdesk documents` command group.
func NewDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List, show and delete stored documents",
	}
	cmd.AddCommand(
		newDocumentsListCmd(),
		newDocumentsGetCmd(),
		newDocumentsDeleteCmd(),
	)
	return cmd
}

func newDocumentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logging.FromContext(ctx))
			if err != nil {
				return fmt.Errorf("documents list: %w", err)
			}
			defer func() { _ = a.Close() }()

			docs, err := a.svc.ListDocuments(ctx)
			if err != nil {
				return fmt.Errorf("documents list: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOCUMENT ID\tFILENAME\tUPLOADED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.DocumentID, d.Filename, d.UploadDate)
			}
			return tw.Flush()
		},
	}
}

func newDocumentsGetCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <document-id>",
		Short: "Print a stored document and its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logging.FromContext(ctx))
			if err != nil {
				return fmt.Errorf("documents get: %w", err)
			}
			defer func() { _ = a.Close() }()

			doc, err := a.svc.GetDocument(ctx, args[0])
			if err != nil {
				return fmt.Errorf("documents get: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			fmt.Fprintf(out, "document_id: %s\nfilename: %s\nupload_date: %s\n", doc.DocumentID, doc.Filename, doc.UploadDate)
			for _, k := range slices.Sorted(maps.Keys(doc.Metadata)) {
				fmt.Fprintf(out, "%s: %s\n", k, doc.Metadata[k])
			}
			fmt.Fprintf(out, "\n%s\n", doc.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the document as JSON")
	return cmd
}

func newDocumentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>...",
		Short: "Delete stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, logging.FromContext(ctx))
			if err != nil {
				return fmt.Errorf("documents delete: %w", err)
			}
			defer func() { _ = a.Close() }()

			for _, id := range args {
				if err := a.svc.DeleteDocument(ctx, id); err != nil {
					return fmt.Errorf("documents delete: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		},
	}
}
