package service

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/54b3r/ragdesk/internal/agent"
	"github.com/54b3r/ragdesk/internal/logging"
)

// AgentCreatedMessage is the confirmation text returned with a new agent.
const AgentCreatedMessage = "Agent created successfully"

// AgentSpec describes an agent to create. The id is always assigned by the
// service.
type AgentSpec struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Capabilities []string       `json:"capabilities"`
	Parameters   map[string]any `json:"parameters,omitempty"`
}

// CreateAgent registers a new agent under a fresh "agent_<timestamp>" id.
func (s *Service) CreateAgent(ctx context.Context, spec AgentSpec) (agent.Agent, error) {
	if spec.Name == "" {
		return agent.Agent{}, fmt.Errorf("%w: agent name is required", ErrValidation)
	}

	var id string
	for {
		id = s.agentIDs.Next()
		if _, taken := s.registry.Get(id); !taken {
			break
		}
	}

	a := agent.Agent{
		ID:           id,
		Name:         spec.Name,
		Description:  spec.Description,
		Capabilities: slices.Clone(spec.Capabilities),
		Parameters:   maps.Clone(spec.Parameters),
	}
	if a.Capabilities == nil {
		a.Capabilities = []string{}
	}
	s.registry.Register(a)

	logging.FromContext(ctx).Info("agent created", "agent_id", id, "name", a.Name)
	return a, nil
}

// ListAgents returns every registered agent in registration order.
func (s *Service) ListAgents(context.Context) []agent.Agent {
	return s.registry.List()
}

// GetAgent returns the agent registered under id.
func (s *Service) GetAgent(_ context.Context, id string) (agent.Agent, error) {
	a, ok := s.registry.Get(id)
	if !ok {
		return agent.Agent{}, fmt.Errorf("%w: %q", ErrAgentNotFound, id)
	}
	return a, nil
}

// DeleteAgent removes the agent registered under id. Unknown ids are a no-op.
func (s *Service) DeleteAgent(ctx context.Context, id string) {
	s.registry.Remove(id)
	logging.FromContext(ctx).Info("agent deleted", "agent_id", id)
}
