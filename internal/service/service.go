// Package service implements the request operations behind the HTTP and CLI
// surfaces: chat, document upload and listing, and agent management. A
// Service is constructed explicitly from its collaborators and holds no
// package-level state, so tests can build isolated instances.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/54b3r/ragdesk/internal/agent"
	"github.com/54b3r/ragdesk/internal/ident"
	"github.com/54b3r/ragdesk/internal/rag"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultContextSize = 5
	DefaultMaxContext  = 50
)

// Config holds the collaborators and limits for a Service.
type Config struct {
	// Registry holds the agent personas. Required.
	Registry *agent.Registry
	// Engine indexes and retrieves documents. Required.
	Engine *rag.Engine
	// Responder produces chat replies (default: agent.MockResponder).
	Responder agent.Responder
	// Clock supplies timestamps for ids and upload dates (default: time.Now).
	Clock ident.Clock
	// DefaultContextSize is the number of documents retrieved when a chat
	// request omits context_size (default: 5).
	DefaultContextSize int
	// MaxContextSize caps context_size; larger values are clamped (default: 50).
	MaxContextSize int
	// MaxContextTokens bounds the context string handed to the responder.
	// Zero or negative disables trimming.
	MaxContextTokens int
	// MaxHistoryTokens bounds the conversation handed to the responder;
	// the oldest non-system turns are dropped first. Zero or negative
	// disables trimming.
	MaxHistoryTokens int
}

// Service implements the request operations. It is safe for concurrent use.
type Service struct {
	registry  *agent.Registry
	engine    *rag.Engine
	responder agent.Responder
	clock     ident.Clock

	docIDs   *ident.Generator
	agentIDs *ident.Generator

	defaultContextSize int
	maxContextSize     int
	maxContextTokens   int
	maxHistoryTokens   int

	chat compose.Runnable[*chatTurn, *chatTurn]
}

// New validates cfg, applies defaults and compiles the chat chain.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("service: registry must not be nil")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("service: engine must not be nil")
	}
	if cfg.Responder == nil {
		cfg.Responder = agent.MockResponder{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.DefaultContextSize <= 0 {
		cfg.DefaultContextSize = DefaultContextSize
	}
	if cfg.MaxContextSize <= 0 {
		cfg.MaxContextSize = DefaultMaxContext
	}
	if cfg.DefaultContextSize > cfg.MaxContextSize {
		return nil, fmt.Errorf("service: default context size %d exceeds max %d",
			cfg.DefaultContextSize, cfg.MaxContextSize)
	}

	s := &Service{
		registry:           cfg.Registry,
		engine:             cfg.Engine,
		responder:          cfg.Responder,
		clock:              cfg.Clock,
		docIDs:             ident.NewGenerator("doc_", cfg.Clock),
		agentIDs:           ident.NewGenerator("agent_", cfg.Clock),
		defaultContextSize: cfg.DefaultContextSize,
		maxContextSize:     cfg.MaxContextSize,
		maxContextTokens:   cfg.MaxContextTokens,
		maxHistoryTokens:   cfg.MaxHistoryTokens,
	}

	chat, err := s.buildChatChain(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: compile chat chain: %w", err)
	}
	s.chat = chat
	return s, nil
}
