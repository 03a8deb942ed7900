package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/chorus/internal/registry"
)

func mustRegistry(t *testing.T, names ...string) *registry.Registry {
	t.Helper()
	descs := make([]registry.ModelDescriptor, len(names))
	for i, n := range names {
		descs[i] = registry.ModelDescriptor{Name: n, Endpoint: "http://upstream.test/v1"}
	}
	r, err := registry.New(descs)
	require.NoError(t, err)
	return r
}

func simpleWorkflow() *Workflow {
	return &Workflow{
		Analyzer: ModelRef{Name: "analyzer-model"},
		Workers: []WorkflowNode{
			{Kind: NodeLeaf, ModelName: "worker-a"},
			{Kind: NodeLeaf, ModelName: "worker-b"},
		},
		Synthesizer: ModelRef{Name: "synth-model"},
	}
}

func TestParseRoundTrips(t *testing.T) {
	doc := []byte(`{
		"analyzer": {"name": "analyzer-model"},
		"workers": [
			{"type": "leaf", "name": "worker-a"},
			{"type": "leaf", "name": "worker-b", "temperature": 0.9}
		],
		"synthesizer": {"name": "synth-model"}
	}`)
	w, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "analyzer-model", w.Analyzer.Name)
	assert.Len(t, w.Workers, 2)
	require.NotNil(t, w.Workers[1].Temperature)
	assert.Equal(t, 0.9, *w.Workers[1].Temperature)
}

func TestValidateModelClosure(t *testing.T) {
	reg := mustRegistry(t, "analyzer-model", "worker-a", "worker-b", "synth-model")
	w := simpleWorkflow()
	assert.NoError(t, w.Validate(reg))

	reg2 := mustRegistry(t, "analyzer-model", "worker-a", "synth-model")
	assert.Error(t, w.Validate(reg2), "expected UndefinedModel error for worker-b")
}

func TestValidateTemperatureRange(t *testing.T) {
	reg := mustRegistry(t, "analyzer-model", "worker-a", "worker-b", "synth-model")
	w := simpleWorkflow()
	bad := 3.5
	w.Workers[0].Temperature = &bad
	assert.Error(t, w.Validate(reg), "expected TemperatureOutOfRange error")
}

func TestExpandDepthLaw(t *testing.T) {
	cases := []struct {
		n        int
		expected int
	}{
		{n: 1, expected: 2},
		{n: 2, expected: 4},
		{n: 3, expected: 8},
		{n: 4, expected: 16},
	}
	for _, c := range cases {
		w := simpleWorkflow()
		expanded := w.ExpandDepth(c.n)
		got := CountLeaves(expanded.Workers)
		assert.Equalf(t, c.expected, got, "n=%d", c.n)
	}
}

func TestExpandDepthPreservesOrder(t *testing.T) {
	w := simpleWorkflow()
	expanded := w.ExpandDepth(2)
	require.Len(t, expanded.Workers, 2)

	first := expanded.Workers[0]
	require.Equal(t, NodeSub, first.Kind)
	require.Len(t, first.Workers, 2)
	assert.Equal(t, "worker-a", first.Workers[0].ModelName)
	assert.Equal(t, "worker-a", first.Workers[1].ModelName)

	second := expanded.Workers[1]
	require.Len(t, second.Workers, 2)
	assert.Equal(t, "worker-b", second.Workers[0].ModelName)
}
