package tools

import (
	"sort"
	"sync"

	"google.golang.org/adk/tool"

	"finassist/pkg/errors"
)

// Registry stores tools by name for discovery and lookup.
type Registry struct {
	tools map[string]tool.Tool
	mu    sync.RWMutex
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]tool.Tool),
	}
}

// Register adds or replaces a tool under the provided name.
func (r *Registry) Register(name string, t tool.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
}

// Get retrieves a tool by name if registered.
func (r *Registry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Resolve returns the named tools in order, failing on the first unknown name.
func (r *Registry) Resolve(names []string) ([]tool.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tool.Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, errors.Wrapf(errors.ErrNotFound, "tool %s", name)
		}
		out = append(out, t)
	}
	return out, nil
}

// List returns the names of all registered tools in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ListByCategory returns the registered tools of a catalog category.
func (r *Registry) ListByCategory(category string) []string {
	var names []string
	for _, name := range r.List() {
		if def, ok := DefinitionFor(name); ok && def.Category == category {
			names = append(names, name)
		}
	}
	return names
}
