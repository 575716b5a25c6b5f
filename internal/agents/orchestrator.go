package agents

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

// DefaultMaxWorkers bounds concurrent agent invocations per request.
const DefaultMaxWorkers = 5

// OrchestratorConfig tunes multi-agent execution.
type OrchestratorConfig struct {
	MaxWorkers int

	// AgentTimeout replaces every agent's TotalTimeout when positive.
	AgentTimeout time.Duration

	// Sequential runs agents one after another instead of concurrently.
	Sequential bool
}

// Merged is the combined answer of one or more agents.
type Merged struct {
	Text        string
	Results     []AgentResult
	Synthesized bool
}

// Orchestrator dispatches a question to the routed agents and merges their
// answers. A failing agent yields a placeholder section and never affects
// its siblings.
type Orchestrator struct {
	registry *Registry
	synth    Synthesizer
	usage    *UsageTracker
	cfg      OrchestratorConfig
	log      *logger.Logger
}

// NewOrchestrator creates an orchestrator. synth may be nil, in which case
// answers are always concatenated.
func NewOrchestrator(registry *Registry, synth Synthesizer, usage *UsageTracker, cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}
	if usage == nil {
		usage = NewUsageTracker()
	}
	return &Orchestrator{
		registry: registry,
		synth:    synth,
		usage:    usage,
		cfg:      cfg,
		log:      logger.Get().With("component", "orchestrator"),
	}
}

// Unavailable is the section text substituted for an agent that failed.
func Unavailable(t AgentType) string {
	return fmt.Sprintf("⚠️ This section is unavailable: %s could not complete the request.", t.ShortLabel())
}

// NotAvailable is the text returned for an agent name that is not registered.
func NotAvailable(t AgentType) string {
	return fmt.Sprintf("Error: Agent '%s' not available.", t)
}

// Execute runs the named agents and merges their answers. A single agent is
// returned as is; several run concurrently on a bounded pool and are merged
// in the order given.
func (o *Orchestrator) Execute(ctx context.Context, names []AgentType, query, sessionID string) (*Merged, error) {
	if o.cfg.Sequential {
		return o.ExecuteSequential(ctx, names, query, sessionID)
	}

	names = dedupe(names)
	if len(names) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no agents to execute")
	}
	if len(names) == 1 {
		return o.single(ctx, names[0], query, sessionID), nil
	}

	start := time.Now()
	o.log.Infow("Dispatching agents", "agents", names, "session", sessionID, "workers", o.cfg.MaxWorkers)

	results := make([]AgentResult, len(names))

	g := new(errgroup.Group)
	g.SetLimit(o.cfg.MaxWorkers)
	for i, name := range names {
		g.Go(func() error {
			// failures are captured per result so siblings keep running
			results[i] = o.invoke(ctx, name, query, sessionID)
			return nil
		})
	}
	_ = g.Wait()

	o.log.Infow("Agents finished",
		"agents", len(names),
		"failed", countFailed(results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return o.merge(ctx, query, results), nil
}

// ExecuteSequential has the semantics of Execute but invokes the agents one
// after another.
func (o *Orchestrator) ExecuteSequential(ctx context.Context, names []AgentType, query, sessionID string) (*Merged, error) {
	names = dedupe(names)
	if len(names) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no agents to execute")
	}
	if len(names) == 1 {
		return o.single(ctx, names[0], query, sessionID), nil
	}

	results := make([]AgentResult, 0, len(names))
	for i, name := range names {
		o.log.Debugf("Running agent %d/%d: %s", i+1, len(names), name)
		results = append(results, o.invoke(ctx, name, query, sessionID))
	}
	return o.merge(ctx, query, results), nil
}

func (o *Orchestrator) single(ctx context.Context, name AgentType, query, sessionID string) *Merged {
	r := o.invoke(ctx, name, query, sessionID)
	return &Merged{Text: r.Output, Results: []AgentResult{r}}
}

// invoke runs one agent under its own timeout. The returned result always
// carries display text: the answer or a placeholder.
func (o *Orchestrator) invoke(ctx context.Context, name AgentType, query, sessionID string) (res AgentResult) {
	res.Agent = name

	a, ok := o.registry.Get(name)
	if !ok {
		o.log.Warnw("Agent not available", "agent", name)
		res.Error = errors.Wrapf(errors.ErrAgentNotFound, "%s", name)
		res.Output = NotAvailable(name)
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout(name))
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res.Error = errors.Newf("agent %s panicked: %v", name, p)
		}
		res.Duration = time.Since(start)

		timedOut := res.Error != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
		if timedOut {
			res.Error = errors.Wrapf(errors.ErrTimeout, "%s after %s: %v", name, o.timeout(name), res.Error)
		}
		if res.Error != nil {
			o.log.Warnw("Agent failed", "agent", name, "error", res.Error, "duration_ms", res.Duration.Milliseconds())
			res.Output = Unavailable(name)
		}

		metrics.RecordAgentCall(string(name), res.Duration, res.Error, timedOut)
		o.usage.RecordCall(name, res.Duration, res.Error)
	}()

	res.Output, res.Error = a.Invoke(ctx, query, sessionID)
	return res
}

func (o *Orchestrator) timeout(name AgentType) time.Duration {
	if o.cfg.AgentTimeout > 0 {
		return o.cfg.AgentTimeout
	}
	if cfg, ok := DefaultAgentConfigs[name]; ok && cfg.TotalTimeout > 0 {
		return cfg.TotalTimeout
	}
	return defaultTotalTimeout
}

func (o *Orchestrator) merge(ctx context.Context, query string, results []AgentResult) *Merged {
	sections := make([]Section, len(results))
	for i, r := range results {
		sections[i] = Section{Label: r.Agent.ShortLabel(), Text: r.Output}
	}
	merged := &Merged{Results: results}

	if o.synth == nil || countFailed(results) == len(results) {
		merged.Text = ConcatSections(sections)
		return merged
	}

	text, err := o.synth.Synthesize(ctx, query, sections)
	if err != nil {
		o.log.Warnw("Synthesis failed, concatenating answers", "error", err)
		metrics.SynthesisFallbacks.Inc()
		merged.Text = ConcatSections(sections)
		return merged
	}

	merged.Text = text
	merged.Synthesized = true
	return merged
}

// AgentInfo lists the registered agents.
func (o *Orchestrator) AgentInfo() []AgentInfo {
	list := o.registry.List()
	out := make([]AgentInfo, 0, len(list))
	for _, a := range list {
		out = append(out, a.Info())
	}
	return out
}

// Usage returns per-agent call statistics.
func (o *Orchestrator) Usage() []AgentUsage {
	return o.usage.Snapshot()
}

func dedupe(names []AgentType) []AgentType {
	seen := make(map[AgentType]bool, len(names))
	out := make([]AgentType, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func countFailed(results []AgentResult) int {
	n := 0
	for _, r := range results {
		if !r.Success() {
			n++
		}
	}
	return n
}
