// Package engine implements the recursive, concurrent,
// temperature-propagating workflow dispatcher: analyze, fan out to
// workers, select a candidate, synthesize a final reply.
package engine

import (
	"context"
	"math/rand/v2"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinterlante1206/chorus/internal/chorerr"
	"github.com/jinterlante1206/chorus/internal/llmclient"
	"github.com/jinterlante1206/chorus/internal/obslog"
	"github.com/jinterlante1206/chorus/internal/registry"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// ClientFactory resolves the llmclient.Client serving a given model
// descriptor. In production this wraps the pooled *openai.Client the
// Registry built for the descriptor's endpoint host; tests substitute
// a mock.
type ClientFactory func(registry.ModelDescriptor) llmclient.Client

// Engine orchestrates execution of a Workflow for one prompt. It
// closes over shared, read-only state (Registry, TimeoutPolicy, client
// factory); no package-level mutable state.
type Engine struct {
	Registry       *registry.Registry
	Timeouts       workflow.TimeoutPolicy
	Clients        ClientFactory
	Log            *obslog.Logger
	Tracer         trace.Tracer
	ConcurrencyCap int // 0 means unbounded

	// StreamChunksPerSecond caps how fast ExecuteStreaming delivers
	// synthesizer chunks to the caller's sink. 0 means unbounded.
	StreamChunksPerSecond float64

	// randTemp supplies the analyzer's own sampling temperature when its
	// reference declares auto_temperature=true. Defaults to a small
	// jitter around the fixed 0.3 baseline; overridable for tests.
	randTemp func() float64

	workerLatency  metric.Float64Histogram
	workerFailures metric.Int64Counter
}

// New builds an Engine from shared, read-only state.
func New(reg *registry.Registry, timeouts workflow.TimeoutPolicy, clients ClientFactory, log *obslog.Logger) *Engine {
	if log == nil {
		log = obslog.Default()
	}
	meter := otel.Meter("chorus/engine")
	workerLatency, _ := meter.Float64Histogram("chorus.worker.latency_seconds",
		metric.WithDescription("Latency of a single worker invocation, in seconds"))
	workerFailures, _ := meter.Int64Counter("chorus.worker.failures_total",
		metric.WithDescription("Count of worker invocations that failed"))
	return &Engine{
		Registry:       reg,
		Timeouts:       timeouts,
		Clients:        clients,
		Log:            log,
		Tracer:         otel.Tracer("chorus/engine"),
		randTemp:       defaultRandTemp,
		workerLatency:  workerLatency,
		workerFailures: workerFailures,
	}
}

func defaultRandTemp() float64 {
	return 0.2 + rand.Float64()*0.2 // jitter in [0.2, 0.4)
}

// Result is the outcome of a completed (non-streaming) Execute call.
type Result struct {
	Text  string
	Trace *ExecutionTrace
}

// Execute runs wf against prompt to completion and returns the final
// synthesized text, optionally with its ExecutionTrace.
func (e *Engine) Execute(ctx context.Context, wf *workflow.Workflow, prompt string, includeTrace bool) (*Result, error) {
	text, tr, err := e.run(ctx, wf, prompt, nil)
	if err != nil {
		return nil, err
	}
	res := &Result{Text: text}
	if includeTrace {
		res.Trace = tr
	}
	return res, nil
}

// ExecuteStreaming runs wf against prompt, forwarding the synthesizer's
// upstream stream into sink as it arrives. Workers and the analyzer
// remain non-streaming: their outputs must be fully materialized
// before selection, per the engine's synthesizer-only streaming
// design. Returns the final trace (always non-nil; callers filter by
// include_trace before serializing it).
func (e *Engine) ExecuteStreaming(ctx context.Context, wf *workflow.Workflow, prompt string, sink func(llmclient.StreamChunk) error) (*ExecutionTrace, error) {
	_, tr, err := e.run(ctx, wf, prompt, sink)
	return tr, err
}

// run is the shared recursive entry point. streamSink is non-nil only
// for the outermost call when the caller requested streaming; nested
// sub-workflows always run fully materialized, since their output is
// just one worker's candidate text.
func (e *Engine) run(ctx context.Context, wf *workflow.Workflow, prompt string, streamSink func(llmclient.StreamChunk) error) (string, *ExecutionTrace, error) {
	tr := &ExecutionTrace{}

	analyzerTemp, err := e.analyze(ctx, wf.Analyzer, prompt, tr)
	if err != nil {
		if !chorerr.Recoverable(chorerr.StageAnalyzer, err) {
			return "", tr, err
		}
		// analyze() already recorded the failure; fall back to the
		// default temperature and keep going.
		analyzerTemp = defaultFallbackTemperature
	}

	workers, err := e.dispatchWorkers(ctx, wf.Workers, prompt, analyzerTemp, tr)
	if err != nil && !chorerr.Recoverable(chorerr.StageWorker, err) {
		return "", tr, err
	}

	chosen, rest := e.selectCandidate(ctx, wf.Selector, prompt, workers, analyzerTemp, tr)

	text, err := e.synthesize(ctx, wf.Synthesizer, prompt, chosen, rest, analyzerTemp, tr, streamSink)
	if err != nil && !chorerr.Recoverable(chorerr.StageSynthesizer, err) {
		return "", tr, err
	}
	return text, tr, nil
}

// runSubWorkflow adapts a WorkflowNode of kind SubWorkflow into the
// same run() entry point, so recursion through the tree is uniform:
// a sub-workflow's output is just another worker's candidate text.
func (e *Engine) runSubWorkflow(ctx context.Context, n workflow.WorkflowNode, prompt string) (string, error) {
	sub := &workflow.Workflow{
		Analyzer:    *n.Analyzer,
		Workers:     n.Workers,
		Selector:    n.Selector,
		Synthesizer: *n.Synthesizer,
	}
	text, _, err := e.run(ctx, sub, prompt, nil)
	if err != nil {
		return "", err
	}
	return text, nil
}

func (e *Engine) descriptorOrFail(name string) (registry.ModelDescriptor, error) {
	desc, ok := e.Registry.Lookup(name)
	if !ok {
		return registry.ModelDescriptor{}, chorerr.UndefinedModel([]string{name})
	}
	return desc, nil
}
