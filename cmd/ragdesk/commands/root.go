// Package commands defines all Cobra CLI commands for the ragdesk binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/ragdesk/internal/audit"
	"github.com/54b3r/ragdesk/internal/config"
	"github.com/54b3r/ragdesk/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ragdesk",
		Short: "ragdesk: retrieval-augmented chat over your own documents",
		Long: `ragdesk stores uploaded text documents in a vector store and answers chat
requests with the most relevant documents as context.

The document store is selected via VECTOR_STORE (sqlite or qdrant) and the
embedding backend via EMBEDDING_PROVIDER (hash, ollama, openai, azure), or a
YAML config file (~/.ragdesk/config.yaml).
See 'ragdesk --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			ctx := logging.WithLogger(cmd.Context(), log)
			cmd.SetContext(ctx)

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(ctx, log, cmd.CommandPath(), path)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ragdesk/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewDocumentsCmd(),
		NewSearchCmd(),
		NewAgentsCmd(),
		NewVersionCmd(),
	)

	return root
}
