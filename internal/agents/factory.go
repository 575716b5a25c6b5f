package agents

import (
	"time"

	adksession "google.golang.org/adk/session"
	adktool "google.golang.org/adk/tool"

	adkadapter "finassist/internal/adapters/adk"
	"finassist/internal/adapters/ai"
	"finassist/internal/tools"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
	"finassist/pkg/templates"
)

// FactoryDeps gathers external dependencies needed to instantiate agents.
type FactoryDeps struct {
	Provider     ai.ChatProvider
	Model        string // empty uses the provider default
	ToolRegistry *tools.Registry
	Templates    *templates.Registry
	Usage        *UsageTracker

	// TimeoutOverride replaces every agent's TotalTimeout when positive.
	TimeoutOverride time.Duration
}

// Factory creates configured agents and registries.
type Factory struct {
	deps     FactoryDeps
	model    *adkadapter.ModelAdapter
	sessions adksession.Service
	log      *logger.Logger
}

// NewFactory builds an agent factory with required dependencies.
func NewFactory(deps FactoryDeps) (*Factory, error) {
	if deps.ToolRegistry == nil {
		return nil, errors.Wrap(errors.ErrNotConfigured, "tool registry is required")
	}
	if deps.Provider == nil {
		return nil, errors.Wrap(errors.ErrNotConfigured, "chat provider is required")
	}
	if deps.Templates == nil {
		deps.Templates = templates.Get()
	}
	if deps.Usage == nil {
		deps.Usage = NewUsageTracker()
	}

	return &Factory{
		deps:     deps,
		model:    adkadapter.NewModelAdapter(deps.Provider, deps.Model),
		sessions: adksession.InMemoryService(),
		log:      logger.Get().With("component", "agent_factory"),
	}, nil
}

// Config returns the effective config of an agent type.
func (f *Factory) Config(t AgentType) (AgentConfig, bool) {
	return ConfigFor(t, f.deps.TimeoutOverride)
}

// CreateAgent constructs a single ADK-backed agent from a config. Assigned
// tools that are not registered are skipped.
func (f *Factory) CreateAgent(cfg AgentConfig) (*ADKAgent, error) {
	agentTools := make([]adktool.Tool, 0, len(cfg.Tools))
	for _, name := range cfg.Tools {
		t, ok := f.deps.ToolRegistry.Get(name)
		if !ok {
			f.log.Debugw("Tool not registered, skipping", "agent", cfg.Type, "tool", name)
			continue
		}
		agentTools = append(agentTools, t)
	}

	ag, err := NewADKAgent(cfg, ADKAgentDeps{
		Model:     f.model,
		Tools:     agentTools,
		Templates: f.deps.Templates,
		Sessions:  f.sessions,
		Usage:     f.deps.Usage,
	})
	if err != nil {
		return nil, err
	}

	f.log.Infow("Agent created",
		"agent", cfg.Type,
		"model", f.model.Name(),
		"tools", len(agentTools),
		"timeout", cfg.TotalTimeout,
	)
	return ag, nil
}

// CreateDefaultRegistry builds and registers every agent of DefaultAgentConfigs.
func (f *Factory) CreateDefaultRegistry() (*Registry, error) {
	reg := NewRegistry()
	for _, t := range AllAgentTypes {
		cfg, _ := f.Config(t)
		ag, err := f.CreateAgent(cfg)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(ag); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Usage returns the tracker agents report token usage to.
func (f *Factory) Usage() *UsageTracker {
	return f.deps.Usage
}
