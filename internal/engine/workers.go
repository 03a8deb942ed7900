package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	"github.com/jinterlante1206/chorus/internal/chorerr"
	"github.com/jinterlante1206/chorus/internal/llmclient"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// workerOutcome is one worker's resolved output, threaded from
// dispatchWorkers through selection and synthesis.
type workerOutcome struct {
	Index   int
	Model   string
	Success bool
	Text    string
}

// dispatchWorkers runs Stage 2: every node in nodes concurrently,
// reporting results in original declaration order regardless of
// completion order. An individual worker's failure is captured in tr
// and does not cancel its siblings; if every worker fails, returns
// chorerr.AllWorkersFailed.
func (e *Engine) dispatchWorkers(ctx context.Context, nodes []workflow.WorkflowNode, prompt string, analyzerTemp float64, tr *ExecutionTrace) ([]workerOutcome, error) {
	results := make([]workerOutcome, len(nodes))
	traces := make([]WorkerTrace, len(nodes))

	var sem *semaphore.Weighted
	if e.ConcurrencyCap > 0 {
		sem = semaphore.NewWeighted(int64(e.ConcurrencyCap))
	}

	var wg sync.WaitGroup
	for i, node := range nodes {
		wg.Add(1)
		go func(i int, node workflow.WorkflowNode) {
			defer wg.Done()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					results[i] = workerOutcome{Index: i, Success: false}
					traces[i] = WorkerTrace{Index: i, Success: false, Error: err.Error()}
					return
				}
				defer sem.Release(1)
			}
			results[i], traces[i] = e.runWorker(ctx, i, node, prompt, analyzerTemp)
		}(i, node)
	}
	wg.Wait()

	tr.Workers = traces

	failures := 0
	for _, r := range results {
		if !r.Success {
			failures++
		}
	}
	if len(nodes) > 0 && failures == len(nodes) {
		e.Log.WithStage("worker").Error("every worker failed", "count", len(nodes))
		return results, &chorerr.AllWorkersFailed{Count: len(nodes)}
	}
	return results, nil
}

func (e *Engine) runWorker(ctx context.Context, index int, node workflow.WorkflowNode, prompt string, analyzerTemp float64) (workerOutcome, WorkerTrace) {
	start := time.Now()
	outcome, wt := e.runWorkerDispatch(ctx, index, node, prompt, analyzerTemp, start)

	if e.workerLatency != nil {
		e.workerLatency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("model", wt.Model)))
	}
	if !outcome.Success && e.workerFailures != nil {
		e.workerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("model", wt.Model)))
	}
	return outcome, wt
}

func (e *Engine) runWorkerDispatch(ctx context.Context, index int, node workflow.WorkflowNode, prompt string, analyzerTemp float64, start time.Time) (workerOutcome, WorkerTrace) {
	switch node.Kind {
	case workflow.NodeSub:
		text, err := e.runSubWorkflow(ctx, node, prompt)
		if err != nil {
			return workerOutcome{Index: index, Success: false},
				WorkerTrace{Index: index, Model: "(sub-workflow)", Success: false, Latency: time.Since(start), Error: err.Error()}
		}
		return workerOutcome{Index: index, Model: "(sub-workflow)", Success: true, Text: text},
			WorkerTrace{Index: index, Model: "(sub-workflow)", Success: true, Latency: time.Since(start), Text: text}

	case workflow.NodeLeaf:
		desc, err := e.descriptorOrFail(node.ModelName)
		if err != nil {
			return workerOutcome{Index: index, Model: node.ModelName, Success: false},
				WorkerTrace{Index: index, Model: node.ModelName, Success: false, Latency: time.Since(start), Error: err.Error()}
		}
		temp := resolveLeafTemperature(node.Temperature, node.AutoTemperature, desc, analyzerTemp)

		workerCtx, cancel := context.WithTimeout(ctx, e.Timeouts.Resolve("worker", workflow.Host(desc.Endpoint)))
		defer cancel()

		client := e.Clients(desc)
		text, err := client.Call(workerCtx, desc.Name, []llmclient.Message{{Role: "user", Content: prompt}}, temp)
		if err != nil {
			return workerOutcome{Index: index, Model: desc.Name, Success: false},
				WorkerTrace{Index: index, Model: desc.Name, Temperature: temp, Success: false, Latency: time.Since(start), Error: err.Error()}
		}
		return workerOutcome{Index: index, Model: desc.Name, Success: true, Text: text},
			WorkerTrace{Index: index, Model: desc.Name, Temperature: temp, Success: true, Latency: time.Since(start), Text: text}

	default:
		return workerOutcome{Index: index, Success: false},
			WorkerTrace{Index: index, Success: false, Latency: time.Since(start), Error: "unrecognised workflow node kind"}
	}
}
