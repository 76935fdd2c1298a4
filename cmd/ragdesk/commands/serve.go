package commands

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragdesk/internal/logging"
	"github.com/54b3r/ragdesk/internal/server"
	"github.com/54b3r/ragdesk/internal/tracing"
)

// NewServeCmd constructs the `ragdesk serve` command, which starts the HTTP API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ragdesk HTTP server",
		Long: `Start the ragdesk HTTP server.

The server exposes chat, document upload and agent management endpoints plus
/health, /ready and /metrics. It shuts down gracefully on SIGINT or SIGTERM.

Examples:
  ragdesk serve
  ragdesk serve --port 9090
  VECTOR_STORE=qdrant EMBEDDING_PROVIDER=ollama ragdesk serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.FromContext(ctx)

			// Langfuse tracing is opt-in and a no-op if keys are absent.
			flush, enabled := tracing.Install()
			defer flush()
			if enabled {
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set"))
			}

			a, err := newApp(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = a.Close() }()

			cfg := &server.Config{
				Host:           a.runtime.Host,
				Port:           a.runtime.Port,
				Logger:         log,
				Pingers:        a.pingers,
				RateLimit:      a.runtime.RateLimit,
				RateBurst:      a.runtime.RateBurst,
				MaxUploadBytes: a.runtime.MaxUploadBytes,
				CORSOrigins:    a.runtime.CORSOrigins,
			}
			if cmd.Flags().Changed("host") || cfg.Host == "" {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") || cfg.Port == 0 {
				cfg.Port = port
			}

			srv, err := server.New(a.svc, cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			log.Info("serve starting",
				slog.String("vector_store", a.runtime.VectorStore),
				slog.String("collection", a.runtime.Collection),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env RAGDESK_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8000, "TCP port to listen on (env RAGDESK_PORT)")

	return cmd
}
