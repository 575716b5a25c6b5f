// Package router decides which specialist agents answer a question.
package router

import (
	"context"
	"strings"

	"finassist/internal/agents"
	"finassist/internal/metrics"
	"finassist/pkg/logger"
)

// MaxAgents caps how many agents one question is dispatched to.
const MaxAgents = 3

// RoutingDecision is the ordered, de-duplicated set of agents chosen for a
// question. Route never returns an empty decision.
type RoutingDecision struct {
	Agents    []agents.AgentType `json:"agents"`
	Rationale string             `json:"rationale,omitempty"`
	Fallback  bool               `json:"fallback,omitempty"`
}

// Classifier picks agents for a question.
type Classifier interface {
	Classify(ctx context.Context, text string) (RoutingDecision, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (RoutingDecision, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (RoutingDecision, error) {
	return f(ctx, text)
}

// StaticClassifier always returns the same decision or error.
type StaticClassifier struct {
	Decision RoutingDecision
	Err      error
}

// Classify implements Classifier.
func (s StaticClassifier) Classify(context.Context, string) (RoutingDecision, error) {
	return s.Decision, s.Err
}

// Router wraps a classifier with validation and the finance_qa fallback.
type Router struct {
	classifier Classifier
	log        *logger.Logger
}

// New creates a router.
func New(classifier Classifier) *Router {
	return &Router{
		classifier: classifier,
		log:        logger.Get().With("component", "router"),
	}
}

// Route classifies text. Unknown and repeated agents are dropped, at most
// MaxAgents are kept, and a failed or empty classification falls back to
// the finance Q&A agent.
func (r *Router) Route(ctx context.Context, text string) RoutingDecision {
	var (
		decision RoutingDecision
		err      error
	)
	if r.classifier != nil {
		decision, err = r.classifier.Classify(ctx, text)
	}
	if err != nil {
		r.log.Warnw("Routing failed, using default agent", "error", err)
		return r.fallback("classifier error")
	}

	decision.Agents = Normalize(decision.Agents)
	if len(decision.Agents) == 0 {
		r.log.Warnw("No valid agents in routing result, using default agent")
		return r.fallback("no valid agents")
	}

	for _, a := range decision.Agents {
		metrics.RoutingDecisions.WithLabelValues(string(a)).Inc()
	}
	r.log.Infow("Routed query", "agents", decision.Agents, "rationale", decision.Rationale)
	return decision
}

func (r *Router) fallback(reason string) RoutingDecision {
	metrics.RoutingFallbacks.Inc()
	metrics.RoutingDecisions.WithLabelValues(string(agents.DefaultAgent)).Inc()
	return RoutingDecision{
		Agents:    []agents.AgentType{agents.DefaultAgent},
		Rationale: reason,
		Fallback:  true,
	}
}

// Normalize keeps known agents in order, without repeats, capped at MaxAgents.
func Normalize(in []agents.AgentType) []agents.AgentType {
	out := make([]agents.AgentType, 0, min(len(in), MaxAgents))
	seen := make(map[agents.AgentType]bool, len(in))
	for _, a := range in {
		t, ok := agents.ParseAgentType(string(a))
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxAgents {
			break
		}
	}
	return out
}

// Explain renders the routing line shown above answers, e.g.
// "Routing to: **Market Analyst (real-time data)**".
func Explain(d RoutingDecision) string {
	labels := make([]string, 0, len(d.Agents))
	for _, a := range d.Agents {
		labels = append(labels, a.Label())
	}
	return "Routing to: **" + strings.Join(labels, ", ") + "**"
}

// Explain renders the routing line for d.
func (r *Router) Explain(d RoutingDecision) string {
	return Explain(d)
}
