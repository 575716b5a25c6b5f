// Package agents holds the specialist agent set and the orchestrator that
// fans a question out to several of them.
package agents

import (
	"strings"
	"time"
)

// AgentType enumerates supported agent specializations.
type AgentType string

const (
	AgentFinanceQA         AgentType = "finance_qa"
	AgentPortfolioAnalyzer AgentType = "portfolio_analyzer"
	AgentMarketAnalyst     AgentType = "market_analyst"
	AgentGoalPlanner       AgentType = "goal_planner"
	AgentTaxEducator       AgentType = "tax_educator"
)

// DefaultAgent answers whenever routing cannot decide.
const DefaultAgent = AgentFinanceQA

// AllAgentTypes lists the agents in routing-prompt order.
var AllAgentTypes = []AgentType{
	AgentMarketAnalyst,
	AgentPortfolioAnalyzer,
	AgentGoalPlanner,
	AgentTaxEducator,
	AgentFinanceQA,
}

// ParseAgentType normalizes a name such as "Market Analyst" or
// " market-analyst " to its AgentType.
func ParseAgentType(name string) (AgentType, bool) {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	t := AgentType(s)
	return t, t.Valid()
}

// Valid reports whether t is one of the known agents.
func (t AgentType) Valid() bool {
	for _, known := range AllAgentTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t AgentType) String() string { return string(t) }

// Label is the human name shown in routing explanations, e.g.
// "Market Analyst (real-time data)".
func (t AgentType) Label() string {
	if cfg, ok := DefaultAgentConfigs[t]; ok {
		return cfg.Label
	}
	return string(t)
}

// ShortLabel is the section heading used when answers are merged.
func (t AgentType) ShortLabel() string {
	if cfg, ok := DefaultAgentConfigs[t]; ok {
		return cfg.Name
	}
	return string(t)
}

// AgentResult is the outcome of one agent invocation.
type AgentResult struct {
	Agent    AgentType
	Output   string
	Error    error
	Duration time.Duration
}

// Success reports whether the agent produced an answer.
func (r AgentResult) Success() bool {
	return r.Error == nil
}

// AgentInfo describes an agent for listings.
type AgentInfo struct {
	Type      AgentType `json:"type"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	ToolCount int       `json:"tool_count"`
	Tools     []string  `json:"tools"`
}
