package education

import (
	"context"
	"math"
	"strings"

	"google.golang.org/adk/tool"

	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// QueryArgs is a free-text knowledge base query.
type QueryArgs struct {
	Query string `json:"query" jsonschema:"Question or concept to look up"`
}

// Passage is one knowledge base hit.
type Passage struct {
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// KnowledgeResult lists the best matching passages, best first.
type KnowledgeResult struct {
	Passages []Passage `json:"passages"`
}

// NewSearchKnowledgeBaseTool returns the knowledge base search tool.
func NewSearchKnowledgeBaseTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"search_knowledge_base",
		"Search the finance knowledge base for explanations of investing, tax, planning and market concepts",
		searchKnowledgeBase(deps),
		deps,
	).
		WithStats().
		Build()
}

func searchKnowledgeBase(deps shared.Deps) shared.Handler[QueryArgs, KnowledgeResult] {
	return func(ctx context.Context, args QueryArgs) (KnowledgeResult, error) {
		if !deps.HasKnowledge() {
			return KnowledgeResult{}, errors.Wrap(errors.ErrNotConfigured, "knowledge base")
		}
		query := strings.TrimSpace(args.Query)
		if query == "" {
			return KnowledgeResult{}, errors.NewValidationError("query", "required", args.Query)
		}

		hits, err := deps.Knowledge.Search(ctx, query)
		if err != nil {
			return KnowledgeResult{}, errors.Wrap(err, "search knowledge base")
		}

		res := KnowledgeResult{Passages: make([]Passage, 0, len(hits))}
		for _, h := range hits {
			res.Passages = append(res.Passages, Passage{
				Title:      h.Title,
				Category:   h.Category,
				Content:    h.Content,
				Similarity: math.Round(float64(h.Similarity)*1000) / 1000,
			})
		}
		return res, nil
	}
}
