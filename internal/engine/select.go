package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jinterlante1206/chorus/internal/llmclient"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// indexPattern matches the selector's required "INDEX: <n>" line,
// case-insensitively.
var indexPattern = regexp.MustCompile(`(?i)index:\s*(\d+)`)

// selectCandidate runs Stage 3. If ref is nil, every successful
// worker's text is returned as candidates for the synthesizer and no
// explicit selection happens. Otherwise the selector model is prompted
// with the enumerated successful outputs and asked to name the best
// index; a parse failure or selector error degrades to first-success.
//
// Returns the chosen candidate (empty if none succeeded) and the
// remaining successful candidates, both fed to synthesize.
func (e *Engine) selectCandidate(ctx context.Context, ref *workflow.ModelRef, prompt string, workers []workerOutcome, analyzerTemp float64, tr *ExecutionTrace) (chosen string, rest []string) {
	successful := make([]workerOutcome, 0, len(workers))
	for _, w := range workers {
		if w.Success {
			successful = append(successful, w)
		}
	}
	if len(successful) == 0 {
		tr.SelectorSkipped = true
		return "", nil
	}

	if ref == nil {
		tr.SelectorSkipped = true
		chosen = successful[0].Text
		for _, w := range successful[1:] {
			rest = append(rest, w.Text)
		}
		return chosen, rest
	}

	idx, rationale, err := e.runSelector(ctx, *ref, prompt, successful, analyzerTemp)
	if err != nil || idx < 0 || idx >= len(successful) {
		tr.SelectorDegraded = true
		if err != nil {
			tr.SelectorRationale = err.Error()
		} else {
			tr.SelectorRationale = fmt.Sprintf("selector returned out-of-range index %d", idx)
		}
		e.Log.WithStage("selector").Warn("selector degraded to first-success", "reason", tr.SelectorRationale)
		idx = 0
	} else {
		tr.SelectorRationale = rationale
	}
	tr.SelectorIndex = idx

	chosen = successful[idx].Text
	for i, w := range successful {
		if i != idx {
			rest = append(rest, w.Text)
		}
	}
	return chosen, rest
}

func (e *Engine) runSelector(ctx context.Context, ref workflow.ModelRef, prompt string, successful []workerOutcome, analyzerTemp float64) (int, string, error) {
	desc, err := e.descriptorOrFail(ref.Name)
	if err != nil {
		return -1, "", err
	}
	auto := ref.AutoTemperature != nil && *ref.AutoTemperature
	temp := resolveLeafTemperature(nil, boolOrNil(auto), desc, analyzerTemp)

	ctx, cancel := context.WithTimeout(ctx, e.Timeouts.Resolve("selector", workflow.Host(desc.Endpoint)))
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Original prompt: %s\n\n", prompt)
	for i, w := range successful {
		fmt.Fprintf(&b, "Candidate %d:\n%s\n\n", i, w.Text)
	}
	b.WriteString("Reply with a line of the form \"INDEX: <n>\" naming the best candidate, followed by a brief rationale.")

	client := e.Clients(desc)
	reply, err := client.Call(ctx, desc.Name, []llmclient.Message{{Role: "user", Content: b.String()}}, temp)
	if err != nil {
		return -1, "", err
	}

	m := indexPattern.FindStringSubmatch(reply)
	if m == nil {
		return -1, "", fmt.Errorf("selector reply did not contain a parseable INDEX line: %q", reply)
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, "", fmt.Errorf("selector INDEX %q did not parse as an integer", m[1])
	}
	return idx, strings.TrimSpace(reply), nil
}

func boolOrNil(b bool) *bool {
	if !b {
		return nil
	}
	return &b
}
