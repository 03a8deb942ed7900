package engine

import "time"

// WorkerTrace records one worker invocation's resolved parameters and
// outcome, in the worker's original declaration order.
type WorkerTrace struct {
	Index       int
	Model       string
	Temperature float64
	Success     bool
	Latency     time.Duration
	Text        string
	Error       string
}

// ExecutionTrace accumulates the resolved parameters, successes, and
// errors of every stage of one workflow run. Returned to the caller
// only when include_trace is requested.
type ExecutionTrace struct {
	AnalyzerTemperature float64
	AnalyzerAuto        bool
	AnalyzerError       string

	Workers []WorkerTrace

	SelectorIndex     int
	SelectorRationale string
	SelectorDegraded  bool
	SelectorSkipped   bool

	SynthesizerModel       string
	SynthesizerTemperature float64
}
