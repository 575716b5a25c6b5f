package tools

import (
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// NewDefaultRegistry builds a registry with every tool registered and checks
// that the registry and the catalog agree.
func NewDefaultRegistry(deps shared.Deps) (*Registry, error) {
	registry := NewRegistry()
	RegisterAllTools(registry, deps)

	for _, name := range registry.List() {
		if _, ok := DefinitionFor(name); !ok {
			return nil, errors.Newf("tool %s is registered but missing from the catalog", name)
		}
	}
	for _, def := range toolDefinitions {
		if _, ok := registry.Get(def.Name); !ok && (def.Name != "search_knowledge_base" || deps.HasKnowledge()) {
			return nil, errors.Newf("tool %s is in the catalog but not registered", def.Name)
		}
	}
	return registry, nil
}
