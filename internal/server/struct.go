package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/ragdesk/internal/agent"
	"github.com/54b3r/ragdesk/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8000).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /ready.
	// If empty, /ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on POST /chat
	// and POST /upload (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// MaxUploadBytes caps the multipart body of POST /upload (default 10 MiB).
	MaxUploadBytes int64
	// CORSOrigins lists the allowed origins. Empty or "*" allows any origin.
	CORSOrigins []string
	// MetricsRegistry receives the server's collectors. If nil, a fresh
	// registry is created so metrics never leak into the global default.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer serves GET /metrics. Defaults to MetricsRegistry when it
	// is also a Gatherer.
	MetricsGatherer prometheus.Gatherer
}

// backend is the set of operations the handlers call.
// *service.Service satisfies it; tests may inject a fake.
type backend interface {
	Chat(ctx context.Context, req service.ChatRequest) (service.Message, error)
	Upload(ctx context.Context, filename string, data []byte) (service.UploadResult, error)
	ListDocuments(ctx context.Context) ([]service.DocumentInfo, error)
	GetDocument(ctx context.Context, id string) (service.DocumentDetail, error)
	DeleteDocument(ctx context.Context, id string) error
	CreateAgent(ctx context.Context, spec service.AgentSpec) (agent.Agent, error)
	ListAgents(ctx context.Context) []agent.Agent
	GetAgent(ctx context.Context, id string) (agent.Agent, error)
	DeleteAgent(ctx context.Context, id string)
}

// Server is the HTTP server that exposes the service operations.
type Server struct {
	// svc handles every request operation.
	svc backend
	// cfg holds the resolved server configuration.
	cfg *Config
	// handler is the fully wrapped mux.
	handler http.Handler
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors for this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// agentCreatedResponse is the JSON response for POST /agents.
type agentCreatedResponse struct {
	Message string      `json:"message"`
	Agent   agent.Agent `json:"agent"`
}

// healthResponse is the JSON response for GET /health.
type healthResponse struct {
	Status string `json:"status"`
}
