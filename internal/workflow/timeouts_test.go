package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveFallsBackToDefault(t *testing.T) {
	p := TimeoutPolicy{
		Defaults: StageDefaults{Analyzer: 5 * time.Second, Worker: 10 * time.Second, Synthesizer: 20 * time.Second},
	}
	assert.Equal(t, 10*time.Second, p.Resolve("worker", "unconfigured.host"))
}

func TestResolveHostOverride(t *testing.T) {
	override := 30 * time.Second
	p := TimeoutPolicy{
		Defaults: StageDefaults{Analyzer: 5 * time.Second, Worker: 10 * time.Second, Synthesizer: 20 * time.Second},
		Hosts: map[string]HostOverride{
			"slow.example.com": {Worker: &override},
		},
	}
	assert.Equal(t, 30*time.Second, p.Resolve("worker", "slow.example.com"))
	assert.Equal(t, 5*time.Second, p.Resolve("analyzer", "slow.example.com"), "analyzer should fall back to default when unoverridden")
}

func TestResolveSelectorInheritsWorker(t *testing.T) {
	p := TimeoutPolicy{
		Defaults: StageDefaults{Analyzer: 5 * time.Second, Worker: 10 * time.Second, Synthesizer: 20 * time.Second},
	}
	assert.Equal(t, 10*time.Second, p.Resolve("selector", "any.host"))
}

func TestHostExtractsComponent(t *testing.T) {
	assert.Equal(t, "api.example.com:8443", Host("https://api.example.com:8443/v1"))
}
