package knowledge

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"

	"finassist/pkg/errors"
)

// Embedder kinds accepted by NewEmbedder.
const (
	EmbedderAuto   = "auto"
	EmbedderOpenAI = "openai"
	EmbedderOllama = "ollama"
	EmbedderHash   = "hash"
)

// DefaultOllamaModel is used when no Ollama model is configured.
const DefaultOllamaModel = "nomic-embed-text"

// EmbedderConfig selects the embedding backend.
type EmbedderConfig struct {
	Kind        string
	OllamaURL   string // empty uses chromem's local default
	OllamaModel string
}

// NewEmbedder resolves the configured embedder to a collection name and an
// embedding func. openAI may be nil when no API key is set. Auto picks
// OpenAI when available and falls back to the hashing embedder.
func NewEmbedder(cfg EmbedderConfig, openAI chromem.EmbeddingFunc) (string, chromem.EmbeddingFunc, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", EmbedderAuto:
		if openAI != nil {
			return EmbedderOpenAI, openAI, nil
		}
		return EmbedderHash, HashEmbedding(), nil
	case EmbedderOpenAI:
		if openAI == nil {
			return "", nil, errors.Wrap(errors.ErrInvalidInput, "openai embedder requires OPENAI_API_KEY")
		}
		return EmbedderOpenAI, openAI, nil
	case EmbedderOllama:
		model := cfg.OllamaModel
		if model == "" {
			model = DefaultOllamaModel
		}
		return EmbedderOllama + "_" + collectionSafe(model), chromem.NewEmbeddingFuncOllama(model, cfg.OllamaURL), nil
	case EmbedderHash:
		return EmbedderHash, HashEmbedding(), nil
	default:
		return "", nil, errors.Wrapf(errors.ErrInvalidInput, "unknown embedder %q", cfg.Kind)
	}
}

func collectionSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, s)
}

// HashDims is the vector size of the hashing embedder.
const HashDims = 512

// HashEmbedding returns an offline embedding function. Words and adjacent
// word pairs are hashed into HashDims buckets and the vector is normalized,
// so texts sharing vocabulary score a high cosine similarity.
func HashEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		return hashVector(text), nil
	}
}

func hashVector(text string) []float32 {
	vec := make([]float32, HashDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	add := func(token string, weight float32) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[(sum>>1)%HashDims] += sign * weight
	}

	for i, w := range words {
		if stopWords[w] {
			continue
		}
		add(w, 1)
		if i+1 < len(words) && !stopWords[words[i+1]] {
			add(w+" "+words[i+1], 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		// chromem requires a non-zero vector
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "is": true, "are": true, "it": true, "for": true,
	"on": true, "as": true, "by": true, "with": true, "what": true, "how": true,
	"does": true, "do": true, "i": true, "my": true, "me": true, "be": true,
	"that": true, "this": true, "at": true, "can": true, "should": true,
}
