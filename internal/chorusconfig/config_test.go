package chorusconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[server]
port = 8080

[[model]]
name = "analyzer-model"
endpoint = "http://upstream.test/analyzer"
credential = "key-a"

[[model]]
name = "worker-a"
endpoint = "http://upstream.test/worker-a"
credential = "key-b"

[[model]]
name = "worker-b"
endpoint = "http://upstream.test/worker-b"
credential = "key-c"

[workflow-integration]
nested_worker_depth = 1
json = '''
{
  "analyzer": {"name": "analyzer-model"},
  "workers": [
    {"type": "leaf", "name": "worker-a"},
    {"type": "leaf", "name": "worker-b"}
  ],
  "synthesizer": {"name": "analyzer-model"}
}
'''

[workflow.timeouts]
analyzer = 10
worker = 20
synthesizer = 30
`

func TestParseAndLoad(t *testing.T) {
	doc, err := Parse([]byte(sampleTOML))
	require.NoError(t, err)
	assert.Equal(t, 8080, doc.Server.Port)
	require.Len(t, doc.Models, 3)

	loaded, err := Load(doc)
	require.NoError(t, err)
	assert.Len(t, loaded.Workflow.Workers, 2)
	assert.Equal(t, float64(20), loaded.Timeouts.Defaults.Worker.Seconds())
}

func TestLoadFailsOnUndefinedModel(t *testing.T) {
	bad := strings.Replace(sampleTOML, `"name": "worker-b"`, `"name": "ghost-model"`, 1)
	doc, err := Parse([]byte(bad))
	require.NoError(t, err)
	_, err = Load(doc)
	require.Error(t, err, "expected Load to fail for an undefined model reference")
	assert.Contains(t, err.Error(), "Workflow configuration references undefined model(s): ghost-model")
}

func TestMigrateLegacy(t *testing.T) {
	wi := WorkflowIntegrationConfig{
		Analyzer: &legacyRef{Name: "analyzer-model"},
		Workers: []legacyWorker{
			{Name: "worker-a"},
			{Name: "worker-b"},
		},
		Synthesizer: &legacyRef{Name: "analyzer-model"},
	}
	migrated, err := MigrateLegacy(wi)
	require.NoError(t, err)
	assert.True(t,
		strings.Contains(migrated, `"name":"worker-a"`) || strings.Contains(migrated, `"name": "worker-a"`),
		"expected migrated JSON to reference worker-a, got %s", migrated)
}
