package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/knowledge"
	"finassist/internal/tools/shared"
	"finassist/pkg/errors"
	"finassist/pkg/logger"
)

func TestNewDefaultRegistry(t *testing.T) {
	kb, err := knowledge.Open(context.Background(), knowledge.Config{})
	require.NoError(t, err)

	registry, err := NewDefaultRegistry(shared.Deps{Knowledge: kb, Log: logger.Nop()})
	require.NoError(t, err)

	assert.Len(t, registry.List(), len(Definitions()))
	for _, def := range Definitions() {
		tl, ok := registry.Get(def.Name)
		require.True(t, ok, def.Name)
		assert.Equal(t, def.Name, tl.Name())
		assert.NotEmpty(t, tl.Description())
	}
}

func TestNewDefaultRegistry_WithoutKnowledge(t *testing.T) {
	registry, err := NewDefaultRegistry(shared.Deps{Log: logger.Nop()})
	require.NoError(t, err)

	_, ok := registry.Get("search_knowledge_base")
	assert.False(t, ok)
	assert.Len(t, registry.List(), len(Definitions())-1)
}

func TestRegistry_Resolve(t *testing.T) {
	registry, err := NewDefaultRegistry(shared.Deps{Log: logger.Nop()})
	require.NoError(t, err)

	got, err := registry.Resolve([]string{"get_stock_quote", "get_stock_news"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "get_stock_news", got[1].Name())

	_, err = registry.Resolve([]string{"get_stock_quote", "place_order"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistry_ListByCategory(t *testing.T) {
	registry, err := NewDefaultRegistry(shared.Deps{Log: logger.Nop()})
	require.NoError(t, err)

	assert.Equal(t, []string{"compare_retirement_accounts", "explain_capital_gains_tax", "explain_tax_loss_harvesting"},
		registry.ListByCategory(CategoryTax))
	assert.Equal(t, []string{"get_market_news", "get_stock_news"}, registry.ListByCategory(CategoryNews))
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	defs[0].Name = "mutated"
	assert.Equal(t, "get_stock_quote", Definitions()[0].Name)

	def, ok := DefinitionFor("calculate_savings_goal")
	require.True(t, ok)
	assert.Equal(t, CategoryPlanning, def.Category)
}
