package templates

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/pkg/errors"
)

func TestRegistryFromDisk(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "agents", "finance_qa.tmpl"), []byte("Hello {{.Name}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "agents", "README.md"), []byte("ignored"), 0o644))

	reg, err := NewRegistry(base)
	require.NoError(t, err)

	assert.Equal(t, []string{"agents/finance_qa"}, reg.IDs())

	out, err := reg.Render("agents/finance_qa", map[string]string{"Name": "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Alice", out)
}

func TestRegistry_MissingDir(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestRegistry_UnknownTemplate(t *testing.T) {
	reg, err := NewRegistryFromFS(fstest.MapFS{})
	require.NoError(t, err)

	_, err = reg.Render("agents/unknown", nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistry_ParseError(t *testing.T) {
	_, err := NewRegistryFromFS(fstest.MapFS{
		"broken.tmpl": {Data: []byte("{{.Name")},
	})
	require.Error(t, err)
}

func TestRegistry_AddAndFuncs(t *testing.T) {
	reg, err := NewRegistryFromFS(fstest.MapFS{})
	require.NoError(t, err)

	require.NoError(t, reg.Add("x", "  {{join .Items \", \" | upper}}  \n"))
	assert.True(t, reg.Has("x"))

	out, err := reg.Render("x", map[string][]string{"Items": {"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "A, B", out)
}

func TestEmbeddedPrompts(t *testing.T) {
	reg := Get()

	agents := []string{"finance_qa", "portfolio_analyzer", "market_analyst", "goal_planner", "tax_educator"}
	for _, name := range agents {
		t.Run(name, func(t *testing.T) {
			out, err := reg.Render("agents/"+name, struct {
				Label string
				Tools []string
				Date  string
			}{Label: "Test Agent", Tools: []string{"tool_a", "tool_b"}, Date: "2024-01-02"})
			require.NoError(t, err)
			assert.Contains(t, out, "Test Agent")
			assert.Contains(t, out, "tool_a, tool_b")
			assert.Contains(t, out, "2024-01-02")
		})
	}

	for _, id := range []string{"router/classify", "synthesis/system", "synthesis/merge", "guardrails/intent", "guardrails/intent_system", "tax/capital_gains", "tax/loss_harvesting"} {
		assert.True(t, reg.Has(id), id)
	}
}

func TestEmbeddedMergePrompt(t *testing.T) {
	type section struct{ Label, Text string }
	out, err := Get().Render("synthesis/merge", struct {
		Query    string
		Sections []section
	}{
		Query:    "AAPL price and should I buy?",
		Sections: []section{{"Market Analyst", "AAPL is $190"}, {"Finance Q&A", "Diversify."}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "=== Market Analyst ===\nAAPL is $190\n\n=== Finance Q&A ===\nDiversify.")
}
