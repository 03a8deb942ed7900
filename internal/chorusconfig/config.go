// Package chorusconfig loads the TOML configuration document into the
// Registry/Workflow/TimeoutPolicy triple the engine runs against.
package chorusconfig

import (
	"encoding/json"
	"fmt"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/jinterlante1206/chorus/internal/registry"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// ServerConfig is the [server] table.
type ServerConfig struct {
	Port                  int     `toml:"port"`
	MetricsAddr           string  `toml:"metrics_addr"`
	DebugTracing          bool    `toml:"debug_tracing"`
	StreamChunksPerSecond float64 `toml:"stream_chunks_per_second"`
}

// ModelConfig is one [[model]] table entry.
type ModelConfig struct {
	Name            string   `toml:"name"`
	Endpoint        string   `toml:"endpoint"`
	Credential      string   `toml:"credential"`
	Temperature     *float64 `toml:"temperature"`
	AutoTemperature bool     `toml:"auto_temperature"`
}

// WorkflowIntegrationConfig is the [workflow-integration] table.
type WorkflowIntegrationConfig struct {
	NestedWorkerDepth int    `toml:"nested_worker_depth"`
	JSON              string `toml:"json"`

	// Legacy form, migrated to JSON when present and JSON is empty.
	Analyzer    *legacyRef     `toml:"analyzer"`
	Workers     []legacyWorker `toml:"workers"`
	Synthesizer *legacyRef     `toml:"synthesizer"`
}

type legacyRef struct {
	Name            string `toml:"name"`
	AutoTemperature bool   `toml:"auto_temperature"`
}

type legacyWorker struct {
	Name            string   `toml:"name"`
	Temperature     *float64 `toml:"temperature"`
	AutoTemperature bool     `toml:"auto_temperature"`
}

// TimeoutsConfig is the [workflow.timeouts] table, and the per-host
// entries of [workflow.domains."<host>"].
type TimeoutsConfig struct {
	AnalyzerSeconds    int                       `toml:"analyzer"`
	WorkerSeconds      int                       `toml:"worker"`
	SynthesizerSeconds int                       `toml:"synthesizer"`
	Domains            map[string]DomainOverride `toml:"domains"`
}

// DomainOverride is one [workflow.domains."<host>"] entry.
type DomainOverride struct {
	AnalyzerSeconds    *int `toml:"analyzer"`
	WorkerSeconds      *int `toml:"worker"`
	SynthesizerSeconds *int `toml:"synthesizer"`
}

// Document is the full parsed TOML configuration.
type Document struct {
	Server             ServerConfig              `toml:"server"`
	Models             []ModelConfig             `toml:"model"`
	WorkflowIntegration WorkflowIntegrationConfig `toml:"workflow-integration"`
	Workflow           struct {
		Timeouts TimeoutsConfig            `toml:"timeouts"`
		Domains  map[string]DomainOverride `toml:"domains"`
	} `toml:"workflow"`
}

// Loaded is the triple the engine is constructed from.
type Loaded struct {
	Registry *registry.Registry
	Workflow *workflow.Workflow
	Timeouts workflow.TimeoutPolicy
	Server   ServerConfig
}

// Parse decodes raw TOML bytes into a Document without validating or
// building the Registry/Workflow/TimeoutPolicy triple.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("chorusconfig: parsing TOML: %w", err)
	}
	return &doc, nil
}

// Load builds the Registry/Workflow/TimeoutPolicy triple from doc.
// Deterministic and side-effect-free: legacy tables are migrated in
// memory only. LoadFile is the entry point that also writes the
// migration's sibling backup file.
func Load(doc *Document) (*Loaded, error) {
	reg, err := buildRegistry(doc.Models)
	if err != nil {
		return nil, err
	}

	workflowJSON := doc.WorkflowIntegration.JSON
	if workflowJSON == "" && doc.WorkflowIntegration.Analyzer != nil {
		migrated, err := MigrateLegacy(doc.WorkflowIntegration)
		if err != nil {
			return nil, err
		}
		workflowJSON = migrated
	}
	if workflowJSON == "" {
		return nil, fmt.Errorf("chorusconfig: workflow-integration.json is empty and no legacy tables were found")
	}

	wf, err := workflow.Parse([]byte(workflowJSON))
	if err != nil {
		return nil, err
	}
	if err := wf.Validate(reg); err != nil {
		return nil, err
	}

	depth := doc.WorkflowIntegration.NestedWorkerDepth
	if depth < 1 {
		depth = 1
	}
	wf = wf.ExpandDepth(depth)

	timeoutsCfg := doc.Workflow.Timeouts
	if len(doc.Workflow.Domains) > 0 {
		timeoutsCfg.Domains = doc.Workflow.Domains
	}
	timeouts, err := buildTimeoutPolicy(timeoutsCfg)
	if err != nil {
		return nil, err
	}

	return &Loaded{Registry: reg, Workflow: wf, Timeouts: timeouts, Server: doc.Server}, nil
}

func buildRegistry(models []ModelConfig) (*registry.Registry, error) {
	descs := make([]registry.ModelDescriptor, len(models))
	for i, m := range models {
		descs[i] = registry.ModelDescriptor{
			Name:            m.Name,
			Endpoint:        m.Endpoint,
			Credential:      m.Credential,
			DefaultTemp:     m.Temperature,
			AutoTemperature: m.AutoTemperature,
		}
	}
	reg, err := registry.New(descs)
	if err != nil {
		return nil, fmt.Errorf("chorusconfig: building registry: %w", err)
	}
	return reg, nil
}

func buildTimeoutPolicy(t TimeoutsConfig) (workflow.TimeoutPolicy, error) {
	policy := workflow.TimeoutPolicy{
		Defaults: workflow.StageDefaults{
			Analyzer:    secondsOrDefault(t.AnalyzerSeconds, 30),
			Worker:      secondsOrDefault(t.WorkerSeconds, 60),
			Synthesizer: secondsOrDefault(t.SynthesizerSeconds, 60),
		},
	}
	if len(t.Domains) > 0 {
		policy.Hosts = make(map[string]workflow.HostOverride, len(t.Domains))
		for host, override := range t.Domains {
			policy.Hosts[host] = workflow.HostOverride{
				Analyzer:    secondsPtr(override.AnalyzerSeconds),
				Worker:      secondsPtr(override.WorkerSeconds),
				Synthesizer: secondsPtr(override.SynthesizerSeconds),
			}
		}
	}
	return policy, nil
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func secondsPtr(seconds *int) *time.Duration {
	if seconds == nil {
		return nil
	}
	d := time.Duration(*seconds) * time.Second
	return &d
}

// legacyWireWorkflow mirrors workflow.Parse's wire schema, used only
// to marshal the migrated legacy tables back into JSON.
type legacyWireWorkflow struct {
	Analyzer    legacyWireRef    `json:"analyzer"`
	Workers     []legacyWireNode `json:"workers"`
	Synthesizer legacyWireRef    `json:"synthesizer"`
}

type legacyWireRef struct {
	Name            string `json:"name"`
	AutoTemperature bool   `json:"auto_temperature,omitempty"`
}

type legacyWireNode struct {
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	Temperature     *float64 `json:"temperature,omitempty"`
	AutoTemperature bool     `json:"auto_temperature,omitempty"`
}

// MigrateLegacy translates the pre-JSON analyzer/workers/synthesizer
// tables into the workflow-integration.json schema. Pure translation;
// the sibling backup file write is done by LoadFile, not here — this
// function has no side effects so configuration loading stays
// deterministic.
func MigrateLegacy(wi WorkflowIntegrationConfig) (string, error) {
	if wi.Analyzer == nil || wi.Synthesizer == nil {
		return "", fmt.Errorf("chorusconfig: legacy migration requires both analyzer and synthesizer tables")
	}
	workers := make([]legacyWireNode, len(wi.Workers))
	for i, w := range wi.Workers {
		workers[i] = legacyWireNode{
			Type:            "leaf",
			Name:            w.Name,
			Temperature:     w.Temperature,
			AutoTemperature: w.AutoTemperature,
		}
	}
	wire := legacyWireWorkflow{
		Analyzer:    legacyWireRef{Name: wi.Analyzer.Name, AutoTemperature: wi.Analyzer.AutoTemperature},
		Workers:     workers,
		Synthesizer: legacyWireRef{Name: wi.Synthesizer.Name, AutoTemperature: wi.Synthesizer.AutoTemperature},
	}
	out, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("chorusconfig: marshaling migrated workflow: %w", err)
	}
	return string(out), nil
}
