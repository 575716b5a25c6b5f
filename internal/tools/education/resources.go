package education

import (
	"context"
	"strings"

	"google.golang.org/adk/tool"

	"finassist/internal/adapters/scraper"
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
)

const resourceLimit = 3

// TopicArgs names a topic to learn about.
type TopicArgs struct {
	Topic string `json:"topic" jsonschema:"Financial topic, for example index funds"`
}

// Resource is one learning resource.
type Resource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
}

// ResourcesResult lists learning resources for a topic.
type ResourcesResult struct {
	Topic     string     `json:"topic"`
	Resources []Resource `json:"resources"`
}

// NewGetEducationalContentTool returns the learning resources tool.
func NewGetEducationalContentTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"get_educational_content",
		"Get educational articles and resources on a financial topic",
		getEducationalContent,
		deps,
	).Build()
}

func getEducationalContent(_ context.Context, args TopicArgs) (ResourcesResult, error) {
	topic := strings.Join(strings.Fields(args.Topic), " ")
	if topic == "" {
		return ResourcesResult{}, errors.NewValidationError("topic", "required", args.Topic)
	}

	res := ResourcesResult{Topic: topic, Resources: make([]Resource, 0, resourceLimit)}
	for _, r := range scraper.EducationContent(topic, resourceLimit) {
		res.Resources = append(res.Resources, Resource{
			Title:       r.Title,
			Description: r.Description,
			URL:         r.URL,
			Source:      r.Source,
		})
	}
	return res, nil
}

// CalculatorArgs names a calculator.
type CalculatorArgs struct {
	CalculatorType string `json:"calculator_type" jsonschema:"One of compound_interest, retirement, mortgage"`
}

// CalculatorResult explains a financial formula.
type CalculatorResult struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Formula     string   `json:"formula"`
	Parameters  []string `json:"parameters"`
}

// NewExplainFinancialCalculatorTool returns the calculator explainer.
func NewExplainFinancialCalculatorTool(deps shared.Deps) tool.Tool {
	return shared.NewToolBuilder(
		"explain_financial_calculator",
		"Explain how a financial calculator works: compound_interest, retirement or mortgage",
		explainCalculator,
		deps,
	).Build()
}

func explainCalculator(_ context.Context, args CalculatorArgs) (CalculatorResult, error) {
	c, ok := scraper.CalculatorInfo(args.CalculatorType)
	if !ok {
		return CalculatorResult{}, errors.NewValidationError("calculator_type",
			"unknown calculator; use "+strings.Join(scraper.CalculatorTypes, ", "), args.CalculatorType)
	}
	return CalculatorResult{
		Name:        c.Name,
		Description: c.Description,
		Formula:     c.Formula,
		Parameters:  append([]string(nil), c.Parameters...),
	}, nil
}
