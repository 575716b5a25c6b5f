package ai

// ProviderName represents an AI provider identifier
type ProviderName string

const (
	ProviderNameOpenAI ProviderName = "openai"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// Purpose labels what an LLM call is for
type Purpose string

const (
	PurposeAgent     Purpose = "agent"
	PurposeRouter    Purpose = "router"
	PurposeSynthesis Purpose = "synthesis"
	PurposeIntent    Purpose = "intent"
	PurposeEmbedding Purpose = "embedding"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"

	// DefaultEmbeddingModel is used when no embedding model is configured
	DefaultEmbeddingModel = "text-embedding-3-small"

	defaultMaxTokens = 2048
)
