// Package education provides term definitions, learning resources,
// calculator explanations and knowledge base search.
package education

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/adk/tool"

	"finassist/internal/adapters/scraper"
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

// TermArgs names a financial term.
type TermArgs struct {
	Term string `json:"term" jsonschema:"Financial term to define, for example compound interest"`
}

// TermResult is a term definition. Found is false when no source knows the
// term; Message then says so.
type TermResult struct {
	Found      bool   `json:"found"`
	Term       string `json:"term"`
	Title      string `json:"title,omitempty"`
	Definition string `json:"definition,omitempty"`
	Source     string `json:"source,omitempty"`
	URL        string `json:"url,omitempty"`
	Message    string `json:"message,omitempty"`
}

// NewSearchFinancialTermTool returns the term definition tool.
func NewSearchFinancialTermTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"search_financial_term",
		"Search for the definition and explanation of a financial term",
		searchFinancialTerm(deps),
		deps,
	).
		WithRetry(2, time.Second).
		WithStats().
		Build()
}

func searchFinancialTerm(deps shared.Deps) shared.Handler[TermArgs, TermResult] {
	return func(ctx context.Context, args TermArgs) (TermResult, error) {
		term := strings.TrimSpace(args.Term)
		if term == "" {
			return TermResult{}, errors.NewValidationError("term", "required", args.Term)
		}

		var (
			def *scraper.TermDefinition
			err error
		)
		if deps.HasTerms() {
			def, err = deps.Terms.LookupTerm(ctx, term)
		} else if builtin, ok := scraper.BuiltinDefinition(term); ok {
			def = builtin
		} else {
			err = errors.ErrNotFound
		}

		switch {
		case errors.Is(err, errors.ErrNotFound):
			return TermResult{
				Term:    term,
				Message: fmt.Sprintf("Could not find a definition for '%s'. Try a different term or rephrasing.", term),
			}, nil
		case err != nil:
			return TermResult{}, errors.Wrapf(err, "look up %q", term)
		}

		return TermResult{
			Found:      true,
			Term:       term,
			Title:      def.Title,
			Definition: def.Definition,
			Source:     def.Source,
			URL:        def.URL,
		}, nil
	}
}
