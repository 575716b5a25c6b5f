package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request pipeline metrics
	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_queries_total",
			Help: "Total number of user queries processed",
		},
		[]string{"channel", "outcome"}, // outcome: answered|rejected|error
	)

	QueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finassist_query_latency_seconds",
			Help:    "End-to-end query latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"channel"},
	)

	// Guardrail metrics
	GuardrailRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_guardrail_rejections_total",
			Help: "Queries rejected by the input guardrails",
		},
		[]string{"reason"}, // empty|too_long|rate_limited|prohibited|malicious|intent
	)

	OutputRewrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_output_rewrites_total",
			Help: "Prescriptive phrases softened in generated answers",
		},
		[]string{"rule"},
	)

	// Routing metrics
	RoutingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_routing_decisions_total",
			Help: "Agents selected by the router",
		},
		[]string{"agent"},
	)

	RoutingFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "finassist_routing_fallbacks_total",
			Help: "Routing decisions that fell back to the default agent",
		},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_agent_calls_total",
			Help: "Total number of agent invocations",
		},
		[]string{"agent", "status"}, // status: success|error|timeout
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finassist_agent_latency_seconds",
			Help:    "Agent execution latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		},
		[]string{"agent"},
	)

	SynthesisFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "finassist_synthesis_fallbacks_total",
			Help: "Multi-agent answers assembled by concatenation after synthesis failed",
		},
	)

	// LLM metrics
	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_llm_tokens_total",
			Help: "Tokens consumed by LLM calls",
		},
		[]string{"model", "type"}, // type: input|output
	)

	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_llm_calls_total",
			Help: "LLM API calls",
		},
		[]string{"model", "purpose", "status"}, // purpose: agent|router|synthesis|intent
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"},
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finassist_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)

	// Upstream data provider metrics
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_provider_calls_total",
			Help: "Calls to market data, news and scraping providers",
		},
		[]string{"provider", "endpoint", "status"}, // status: success|error|cache_hit
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finassist_provider_latency_seconds",
			Help:    "Upstream provider latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "endpoint"},
	)

	// Transport metrics
	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "finassist_websocket_connections",
			Help: "Open websocket chat connections",
		},
	)

	ChatCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finassist_chat_commands_total",
			Help: "Telegram bot commands handled",
		},
		[]string{"command", "status"},
	)
)

func init() {
	prometheus.MustRegister(Queries)
	prometheus.MustRegister(QueryLatency)

	prometheus.MustRegister(GuardrailRejections)
	prometheus.MustRegister(OutputRewrites)

	prometheus.MustRegister(RoutingDecisions)
	prometheus.MustRegister(RoutingFallbacks)

	prometheus.MustRegister(AgentCalls)
	prometheus.MustRegister(AgentLatency)
	prometheus.MustRegister(SynthesisFallbacks)

	prometheus.MustRegister(LLMTokens)
	prometheus.MustRegister(LLMCalls)

	prometheus.MustRegister(ToolExecutions)
	prometheus.MustRegister(ToolLatency)

	prometheus.MustRegister(ProviderCalls)
	prometheus.MustRegister(ProviderLatency)

	prometheus.MustRegister(WebSocketConnections)
	prometheus.MustRegister(ChatCommands)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordQuery records one processed query
func RecordQuery(channel, outcome string, latency time.Duration) {
	Queries.WithLabelValues(channel, outcome).Inc()
	QueryLatency.WithLabelValues(channel).Observe(latency.Seconds())
}

// RecordAgentCall records an agent invocation
func RecordAgentCall(agent string, latency time.Duration, err error, timedOut bool) {
	s := status(err)
	if timedOut {
		s = "timeout"
	}
	AgentCalls.WithLabelValues(agent, s).Inc()
	AgentLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordLLMCall records an LLM request and its token usage
func RecordLLMCall(model, purpose string, inputTokens, outputTokens int64, err error) {
	LLMCalls.WithLabelValues(model, purpose, status(err)).Inc()
	if inputTokens > 0 {
		LLMTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordToolExecution records a tool execution
func RecordToolExecution(tool string, latency time.Duration, err error) {
	ToolExecutions.WithLabelValues(tool, status(err)).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}

// RecordProviderCall records an upstream data provider call
func RecordProviderCall(provider, endpoint string, latency time.Duration, err error) {
	ProviderCalls.WithLabelValues(provider, endpoint, status(err)).Inc()
	ProviderLatency.WithLabelValues(provider, endpoint).Observe(latency.Seconds())
}

// RecordChatCommand records a handled bot command
func RecordChatCommand(command string, success bool, _ time.Duration) {
	s := "success"
	if !success {
		s = "error"
	}
	ChatCommands.WithLabelValues(command, s).Inc()
}

// RecordCacheHit records a provider response served from cache
func RecordCacheHit(provider, endpoint string) {
	ProviderCalls.WithLabelValues(provider, endpoint, "cache_hit").Inc()
}
