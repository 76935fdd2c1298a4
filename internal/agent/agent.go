// Package agent holds the agent personas a chat request can address and the
// Responder seam that turns a persona, retrieved context, and conversation
// into reply text.
//
// The Registry is an explicitly constructed value rather than process-wide
// state: the serve command builds one at startup and hands it to the service
// layer, and tests build their own isolated instances.
package agent

import (
	"maps"
	"slices"
	"sync"
)

// Agent describes a named persona with declared capabilities.
type Agent struct {
	// ID uniquely identifies the agent within a Registry.
	ID string `json:"id"`
	// Name is the human-readable display name (e.g. "General Assistant").
	Name string `json:"name"`
	// Description is free text shown to users choosing an agent.
	Description string `json:"description"`
	// Capabilities is an ordered list of capability tags.
	Capabilities []string `json:"capabilities"`
	// Parameters is an optional free-form parameter mapping.
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Clone returns a deep copy of a so the caller and the registry never share
// slices or maps.
func (a Agent) Clone() Agent {
	out := a
	if a.Capabilities != nil {
		out.Capabilities = slices.Clone(a.Capabilities)
	}
	if a.Parameters != nil {
		out.Parameters = maps.Clone(a.Parameters)
	}
	return out
}

// Defaults returns the three personas every Registry starts with, in
// registration order.
func Defaults() []Agent {
	return []Agent{
		{
			ID:           "general",
			Name:         "General Assistant",
			Description:  "A general-purpose AI assistant that can help with various tasks.",
			Capabilities: []string{"chat", "analysis", "writing"},
		},
		{
			ID:           "researcher",
			Name:         "Research Assistant",
			Description:  "Specialized in research, document analysis, and information retrieval.",
			Capabilities: []string{"research", "summarization", "citation"},
		},
		{
			ID:           "coder",
			Name:         "Code Assistant",
			Description:  "Expert in programming and technical tasks.",
			Capabilities: []string{"coding", "debugging", "code review"},
		},
	}
}

// Registry maps agent ids to agents. Iteration order is insertion order; an
// overwrite keeps the agent's original position.
// It is safe for concurrent use.
type Registry struct {
	// mu guards agents and order.
	mu sync.RWMutex
	// agents holds the current agent for each id.
	agents map[string]Agent
	// order records ids in first-registration order.
	order []string
}

// NewRegistry constructs a Registry seeded with [Defaults].
func NewRegistry() *Registry {
	r := &Registry{agents: make(map[string]Agent)}
	for _, a := range Defaults() {
		r.Register(a)
	}
	return r
}

// Register inserts a, or overwrites the agent already stored under a.ID.
func (r *Registry) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.agents[a.ID] = a.Clone()
}

// Get returns the agent stored under id. The boolean is false when no such
// agent exists.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return Agent{}, false
	}
	return a.Clone(), true
}

// List returns a snapshot of every registered agent in insertion order.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id].Clone())
	}
	return out
}

// Remove deletes the agent stored under id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return
	}
	delete(r.agents, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
