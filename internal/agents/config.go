package agents

import "time"

// AgentConfig captures runtime settings for an agent instance.
type AgentConfig struct {
	Type        AgentType
	Name        string
	Label       string
	Description string

	// Examples are sample questions shown to the router.
	Examples []string

	Tools                []string
	SystemPromptTemplate string

	MaxToolCalls   int
	TimeoutPerTool time.Duration
	TotalTimeout   time.Duration
}

const (
	defaultTimeoutPerTool = 15 * time.Second
	defaultTotalTimeout   = 60 * time.Second
)

// DefaultAgentConfigs holds the prompts, tools and limits of every agent.
var DefaultAgentConfigs = map[AgentType]AgentConfig{
	AgentFinanceQA: {
		Type:        AgentFinanceQA,
		Name:        "Finance Q&A",
		Label:       "Finance Q&A (general education)",
		Description: "General financial education: definitions, concepts, how products work.",
		Examples: []string{
			"What is compound interest?",
			"How do index funds work?",
			"What's the difference between a stock and a bond?",
		},
		Tools:                AgentToolMap[AgentFinanceQA],
		SystemPromptTemplate: "agents/finance_qa",
		MaxToolCalls:         6,
		TimeoutPerTool:       defaultTimeoutPerTool,
		TotalTimeout:         defaultTotalTimeout,
	},
	AgentPortfolioAnalyzer: {
		Type:        AgentPortfolioAnalyzer,
		Name:        "Portfolio Analyzer",
		Label:       "Portfolio Analyzer (investment analysis)",
		Description: "Analyzes a user's holdings: allocation, concentration and diversification.",
		Examples: []string{
			"I own 10 AAPL and 5 MSFT, how is my portfolio allocated?",
			"Is my portfolio of VTI, QQQ and TSLA diversified?",
		},
		Tools:                AgentToolMap[AgentPortfolioAnalyzer],
		SystemPromptTemplate: "agents/portfolio_analyzer",
		MaxToolCalls:         8,
		TimeoutPerTool:       defaultTimeoutPerTool,
		TotalTimeout:         defaultTotalTimeout,
	},
	AgentMarketAnalyst: {
		Type:        AgentMarketAnalyst,
		Name:        "Market Analyst",
		Label:       "Market Analyst (real-time data)",
		Description: "Live market data: stock quotes, company fundamentals, indices and news.",
		Examples: []string{
			"What's the current price of Apple stock?",
			"How are the markets doing today?",
			"Any recent news about Tesla?",
		},
		Tools:                AgentToolMap[AgentMarketAnalyst],
		SystemPromptTemplate: "agents/market_analyst",
		MaxToolCalls:         10,
		TimeoutPerTool:       defaultTimeoutPerTool,
		TotalTimeout:         90 * time.Second,
	},
	AgentGoalPlanner: {
		Type:        AgentGoalPlanner,
		Name:        "Goal Planner",
		Label:       "Goal Planner (financial planning)",
		Description: "Retirement projections, savings goals and financial calculators.",
		Examples: []string{
			"I'm 30 and want to retire at 65. How much should I save?",
			"How much do I need to save each month for a $50,000 down payment in 5 years?",
		},
		Tools:                AgentToolMap[AgentGoalPlanner],
		SystemPromptTemplate: "agents/goal_planner",
		MaxToolCalls:         6,
		TimeoutPerTool:       defaultTimeoutPerTool,
		TotalTimeout:         defaultTotalTimeout,
	},
	AgentTaxEducator: {
		Type:        AgentTaxEducator,
		Name:        "Tax Educator",
		Label:       "Tax Educator (tax concepts)",
		Description: "Tax concepts: retirement account types, capital gains and tax-loss harvesting.",
		Examples: []string{
			"Should I use a Traditional IRA or Roth IRA?",
			"How are capital gains taxed?",
		},
		Tools:                AgentToolMap[AgentTaxEducator],
		SystemPromptTemplate: "agents/tax_educator",
		MaxToolCalls:         6,
		TimeoutPerTool:       defaultTimeoutPerTool,
		TotalTimeout:         defaultTotalTimeout,
	},
}

// ConfigFor returns the config of an agent, applying a global timeout
// override when positive.
func ConfigFor(t AgentType, timeoutOverride time.Duration) (AgentConfig, bool) {
	cfg, ok := DefaultAgentConfigs[t]
	if !ok {
		return AgentConfig{}, false
	}
	cfg.Tools = append([]string(nil), cfg.Tools...)
	if timeoutOverride > 0 {
		cfg.TotalTimeout = timeoutOverride
	}
	return cfg, true
}

// MinTimeoutPerTool returns the smallest per-tool timeout across agents. Tools
// are shared between agents, so the tightest bound wins.
func MinTimeoutPerTool() time.Duration {
	var d time.Duration
	for _, cfg := range DefaultAgentConfigs {
		if cfg.TimeoutPerTool > 0 && (d == 0 || cfg.TimeoutPerTool < d) {
			d = cfg.TimeoutPerTool
		}
	}
	if d == 0 {
		return defaultTimeoutPerTool
	}
	return d
}
