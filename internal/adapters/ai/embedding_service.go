package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"finassist/internal/metrics"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

// EmbeddingService generates vector embeddings for the knowledge base.
type EmbeddingService struct {
	client  openai.Client
	model   string
	limiter RateLimiter
	log     *logger.Logger
}

// NewEmbeddingService creates an embedding service over the OpenAI embeddings API.
func NewEmbeddingService(cfg OpenAIConfig, model string, limiter RateLimiter) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrNotConfigured, "openai API key")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	if limiter == nil {
		limiter = NewNoOpLimiter()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &EmbeddingService{
		client:  openai.NewClient(opts...),
		model:   model,
		limiter: limiter,
		log:     logger.Get().With("component", "embedding_service", "model", model),
	}, nil
}

// GenerateEmbedding creates a vector embedding for the given text.
// Its signature matches chromem.EmbeddingFunc.
func (s *EmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.GenerateBatchEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateBatchEmbeddings creates embeddings for multiple texts in one API call.
func (s *EmbeddingService) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "texts cannot be empty")
	}
	for _, t := range texts {
		if t == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "text cannot be empty")
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &RateLimitError{Provider: ProviderNameOpenAI, Limit: s.limiter.Limit(), Err: err}
	}

	resp, err := s.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: s.model,
	})
	if err != nil {
		metrics.RecordLLMCall(s.model, string(PurposeEmbedding), 0, 0, err)
		return nil, errors.Wrapf(errors.ErrProviderUnavailable, "openai embeddings: %v", err)
	}
	metrics.RecordLLMCall(s.model, string(PurposeEmbedding), resp.Usage.PromptTokens, 0, nil)

	if len(resp.Data) != len(texts) {
		return nil, errors.Wrapf(errors.ErrNoData, "expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, errors.Wrapf(errors.ErrNoData, "embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		embeddings[d.Index] = vec
	}

	s.log.Debugw("Generated embeddings",
		"batch_size", len(texts),
		"dims", len(embeddings[0]),
		"tokens_used", resp.Usage.TotalTokens,
	)

	return embeddings, nil
}
