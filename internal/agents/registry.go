package agents

import (
	"sort"
	"sync"

	"finassist/pkg/errors"
)

// Registry stores agent instances by type.
type Registry struct {
	mu     sync.RWMutex
	agents map[AgentType]Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[AgentType]Agent)}
}

// Register adds or replaces an agent.
func (r *Registry) Register(a Agent) error {
	if a == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil agent")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Type()] = a
	return nil
}

// Get returns an agent by type.
func (r *Registry) Get(t AgentType) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[t]
	return a, ok
}

// List returns registered agents in routing order, then any others by name.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, 0, len(r.agents))
	seen := make(map[AgentType]bool, len(r.agents))
	for _, t := range AllAgentTypes {
		if a, ok := r.agents[t]; ok {
			out = append(out, a)
			seen[t] = true
		}
	}

	var rest []Agent
	for t, a := range r.agents {
		if !seen[t] {
			rest = append(rest, a)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Type() < rest[j].Type() })
	return append(out, rest...)
}
