// Package chorerr defines the error taxonomy shared by the config loader,
// the workflow engine, and the HTTP façade.
//
// Every error Chorus produces is one of the kinds below. Handlers map them
// to the wire envelope {error:{message,code}}; the engine decides, per
// kind, whether a failure is recoverable (captured in the trace) or fatal
// (short-circuits the pipeline).
package chorerr

import (
	"fmt"
	"strings"
)

// Stage identifies which pipeline stage produced a Timeout.
type Stage string

const (
	StageAnalyzer    Stage = "analyzer"
	StageWorker      Stage = "worker"
	StageSelector    Stage = "selector"
	StageSynthesizer Stage = "synthesizer"
)

// ConfigInvalid reports a fatal startup configuration failure: an
// undefined model reference, an out-of-range temperature, or malformed
// workflow JSON.
type ConfigInvalid struct {
	Reason string
	Names  []string // model names involved, when applicable
}

func (e *ConfigInvalid) Error() string {
	if len(e.Names) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Names, ", "))
}

// UndefinedModel builds the ConfigInvalid returned when a workflow
// references a model absent from the registry.
func UndefinedModel(names []string) *ConfigInvalid {
	return &ConfigInvalid{
		Reason: "Workflow configuration references undefined model(s)",
		Names:  names,
	}
}

// TemperatureOutOfRange reports a temperature outside [0.0, 2.0].
type TemperatureOutOfRange struct {
	Where string
	Value float64
}

func (e *TemperatureOutOfRange) Error() string {
	return fmt.Sprintf("temperature %.3f at %s is out of range [0.0, 2.0]", e.Value, e.Where)
}

// InvalidRequest reports a 4xx-mapped client input error: a missing
// prompt, a malformed body, or a request that names no recognised input.
type InvalidRequest struct {
	Reason string
}

func (e *InvalidRequest) Error() string { return e.Reason }

// Timeout reports that a stage's deadline elapsed.
type Timeout struct {
	Stage Stage
}

func (e *Timeout) Error() string { return fmt.Sprintf("%s stage timed out", e.Stage) }

// UpstreamError reports a non-2xx response from an upstream provider.
type UpstreamError struct {
	Status  int
	Excerpt string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Excerpt)
}

// TransportError reports a network or TLS failure reaching an upstream
// provider, as distinct from a provider-returned error status.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %v", e.Cause) }
func (e *TransportError) Unwrap() error { return e.Cause }

// AllWorkersFailed reports that every worker in a fan-out stage failed;
// fatal at the request level.
type AllWorkersFailed struct {
	Count int
}

func (e *AllWorkersFailed) Error() string {
	return fmt.Sprintf("all %d worker(s) failed", e.Count)
}

// Cancelled reports client disconnect or deadline-derived cancellation.
// The engine aborts in-flight calls silently. If one reaches the HTTP
// façade's error writer, it is sent as status 408 with code "cancelled".
type Cancelled struct{}

func (e *Cancelled) Error() string { return "request cancelled" }

// Recoverable reports whether err, at the given stage, should be captured
// in the ExecutionTrace and the pipeline continued, rather than
// short-circuiting the request. The analyzer always falls back to a
// default temperature; the selector always degrades to first-success;
// neither ever aborts the request. A worker-stage error reaching this
// point is already the all-workers-failed aggregate, and a
// synthesizer-stage error is always fatal, so both are unrecoverable.
func Recoverable(stage Stage, err error) bool {
	switch stage {
	case StageAnalyzer, StageSelector:
		return true
	case StageWorker, StageSynthesizer:
		return false
	default:
		return false
	}
}
