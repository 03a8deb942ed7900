package workflow

import (
	"net/url"
	"time"
)

// StageDefaults holds the three global per-stage timeouts. The
// selector stage has no timeout of its own: it resolves to the worker
// value, default or host override alike.
type StageDefaults struct {
	Analyzer    time.Duration
	Worker      time.Duration
	Synthesizer time.Duration
}

// HostOverride optionally overrides any subset of the three stage
// timeouts for model endpoints sharing a given host.
type HostOverride struct {
	Analyzer    *time.Duration
	Worker      *time.Duration
	Synthesizer *time.Duration
}

// TimeoutPolicy layers global defaults with per-host overrides, keyed
// by the host component of a model's endpoint URL.
type TimeoutPolicy struct {
	Defaults StageDefaults
	Hosts    map[string]HostOverride
}

// Host extracts the host component of an endpoint URL, suitable for
// use as a TimeoutPolicy.Hosts key. Returns the raw string unchanged
// if it doesn't parse as a URL, matching registry.ModelDescriptor's
// own host-derivation fallback.
func Host(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

// Resolve returns the effective deadline for stage at the given host,
// layering the host override (if any) over the global default.
// Selector inherits the Worker resolution.
func (p TimeoutPolicy) Resolve(stage, host string) time.Duration {
	override, hasOverride := p.Hosts[host]

	switch stage {
	case "analyzer":
		if hasOverride && override.Analyzer != nil {
			return *override.Analyzer
		}
		return p.Defaults.Analyzer
	case "worker", "selector":
		if hasOverride && override.Worker != nil {
			return *override.Worker
		}
		return p.Defaults.Worker
	case "synthesizer":
		if hasOverride && override.Synthesizer != nil {
			return *override.Synthesizer
		}
		return p.Defaults.Synthesizer
	default:
		return p.Defaults.Worker
	}
}
