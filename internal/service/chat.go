package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/ragdesk/internal/agent"
	"github.com/54b3r/ragdesk/internal/budget"
	"github.com/54b3r/ragdesk/internal/logging"
	"github.com/54b3r/ragdesk/internal/rag"
)

// Message is one chat turn as exchanged with callers.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input to Chat.
type ChatRequest struct {
	// Messages is the conversation so far; the last entry is the query.
	Messages []Message `json:"messages"`
	// AgentID selects the persona that answers.
	AgentID string `json:"agent_id"`
	// ContextSize is the number of documents to retrieve. Nil means the
	// service default.
	ContextSize *int `json:"context_size,omitempty"`
}

// chatTurn carries one request through the chat chain. Node failures are
// recorded on the turn so Chat can return the original error regardless of
// how the chain wraps it.
type chatTurn struct {
	agent        agent.Agent
	query        string
	limit        int
	conversation []*schema.Message

	docs    []rag.Document
	context string
	reply   string

	err error
}

func (t *chatTurn) fail(err error) (*chatTurn, error) {
	t.err = err
	return nil, err
}

// Chat answers the last message of req as the requested agent, grounded on
// the top context-size documents retrieved for it. The agent is resolved
// before any retrieval happens.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (Message, error) {
	if len(req.Messages) == 0 {
		return Message{}, fmt.Errorf("%w: messages must not be empty", ErrValidation)
	}
	if req.AgentID == "" {
		return Message{}, fmt.Errorf("%w: agent_id is required", ErrValidation)
	}
	limit, err := s.contextSize(req.ContextSize)
	if err != nil {
		return Message{}, err
	}

	a, ok := s.registry.Get(req.AgentID)
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrAgentNotFound, req.AgentID)
	}

	turn := &chatTurn{
		agent:        a,
		query:        req.Messages[len(req.Messages)-1].Content,
		limit:        limit,
		conversation: toSchema(req.Messages),
	}
	out, err := s.chat.Invoke(ctx, turn)
	if err != nil {
		if turn.err != nil {
			return Message{}, turn.err
		}
		return Message{}, fmt.Errorf("service: chat: %w", err)
	}

	logging.FromContext(ctx).Debug("chat answered",
		"agent_id", a.ID,
		"context_size", limit,
		"documents", len(out.docs),
	)
	return Message{Role: string(schema.Assistant), Content: out.reply}, nil
}

// contextSize resolves the requested retrieval size: nil selects the
// default, non-positive values are rejected and values above the maximum
// are clamped.
func (s *Service) contextSize(requested *int) (int, error) {
	if requested == nil {
		return s.defaultContextSize, nil
	}
	n := *requested
	if n <= 0 {
		return 0, fmt.Errorf("%w: context_size must be positive, got %d", ErrValidation, n)
	}
	return min(n, s.maxContextSize), nil
}

// buildChatChain compiles retrieve -> context -> respond.
func (s *Service) buildChatChain(ctx context.Context) (compose.Runnable[*chatTurn, *chatTurn], error) {
	chain := compose.NewChain[*chatTurn, *chatTurn]()
	chain.
		AppendLambda(compose.InvokableLambda(s.retrieve), compose.WithNodeName("retrieve")).
		AppendLambda(compose.InvokableLambda(s.buildContext), compose.WithNodeName("context")).
		AppendLambda(compose.InvokableLambda(s.respond), compose.WithNodeName("respond"))
	return chain.Compile(ctx, compose.WithGraphName("chat"))
}

func (s *Service) retrieve(ctx context.Context, t *chatTurn) (*chatTurn, error) {
	docs, err := s.engine.Search(ctx, t.query, t.limit)
	if err != nil {
		return t.fail(err)
	}
	t.docs = docs
	return t, nil
}

func (s *Service) buildContext(_ context.Context, t *chatTurn) (*chatTurn, error) {
	contents := make([]string, 0, len(t.docs))
	for _, d := range t.docs {
		contents = append(contents, d.Content)
	}
	contents = budget.FitContents(contents, s.maxContextTokens)
	t.context = strings.Join(contents, "\n")
	t.conversation = s.fitConversation(t.context, t.conversation)
	return t, nil
}

// fitConversation drops the oldest non-system turns until the conversation,
// together with the retrieved context, fits maxHistoryTokens. System
// messages and the final message are always kept.
func (s *Service) fitConversation(retrieved string, conv []*schema.Message) []*schema.Message {
	if s.maxHistoryTokens <= 0 || len(conv) < 2 {
		return conv
	}
	last := conv[len(conv)-1]

	var system, history []*schema.Message
	for _, m := range conv[:len(conv)-1] {
		if m.Role == schema.System {
			system = append(system, m)
		} else {
			history = append(history, m)
		}
	}

	fixed := append(slices.Clone(system), schema.SystemMessage(retrieved), last)
	history = budget.TrimHistory(fixed, history, s.maxHistoryTokens)

	out := make([]*schema.Message, 0, len(system)+len(history)+1)
	out = append(out, system...)
	out = append(out, history...)
	return append(out, last)
}

func (s *Service) respond(ctx context.Context, t *chatTurn) (*chatTurn, error) {
	reply, err := s.responder.Respond(ctx, t.agent, t.context, t.conversation)
	if err != nil {
		return t.fail(fmt.Errorf("service: responder: %w", err))
	}
	t.reply = reply
	return t, nil
}

func toSchema(msgs []Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch schema.RoleType(m.Role) {
		case schema.User:
			out = append(out, schema.UserMessage(m.Content))
		case schema.Assistant:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case schema.System:
			out = append(out, schema.SystemMessage(m.Content))
		default:
			out = append(out, &schema.Message{Role: schema.RoleType(m.Role), Content: m.Content})
		}
	}
	return out
}
