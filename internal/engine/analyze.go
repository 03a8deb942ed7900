package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jinterlante1206/chorus/internal/llmclient"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// analyzerSamplingTemp is the fixed temperature the analyzer itself is
// queried at, unless its reference declares auto_temperature.
const analyzerSamplingTemp = 0.3

// floatPattern is the tolerant extractor: the first floating-point
// literal in the analyzer's reply that falls in [0.0, 2.0] becomes the
// recommended worker temperature. This takes the first match rather
// than requiring a specific JSON field, since the reply format isn't
// otherwise constrained.
var floatPattern = regexp.MustCompile(`-?\d+\.?\d*`)

// analyze runs Stage 1: derive the recommended worker temperature from
// the analyzer's interpretation of prompt. On failure or a reply that
// doesn't parse into range, records the failure in tr and returns an
// error — callers fall back to defaultFallbackTemperature and
// continue; this is always recoverable.
func (e *Engine) analyze(ctx context.Context, ref workflow.ModelRef, prompt string, tr *ExecutionTrace) (float64, error) {
	ctx, span := e.Tracer.Start(ctx, "chorus.analyze")
	defer span.End()
	log := e.Log.WithStage("analyzer")

	desc, err := e.descriptorOrFail(ref.Name)
	if err != nil {
		tr.AnalyzerError = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("analyzer model undefined", "model", ref.Name, "error", err)
		return defaultFallbackTemperature, err
	}
	span.SetAttributes(attribute.String("model", desc.Name))

	samplingTemp := analyzerSamplingTemp
	auto := ref.AutoTemperature != nil && *ref.AutoTemperature
	if auto {
		samplingTemp = e.randTemp()
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeouts.Resolve("analyzer", workflow.Host(desc.Endpoint)))
	defer cancel()

	client := e.Clients(desc)
	messages := []llmclient.Message{
		{Role: "system", Content: "Classify the following prompt (creative, factual, or code) and recommend a generation temperature between 0.0 and 2.0. State the temperature clearly in your reply."},
		{Role: "user", Content: prompt},
	}
	reply, err := client.Call(ctx, desc.Name, messages, samplingTemp)
	if err != nil {
		tr.AnalyzerError = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("analyzer call failed, falling back to default temperature", "model", desc.Name, "error", err)
		return defaultFallbackTemperature, err
	}

	temp, ok := extractTemperature(reply)
	if !ok {
		parseErr := fmt.Errorf("analyzer reply did not contain a parseable temperature: %q", reply)
		tr.AnalyzerError = parseErr.Error()
		span.RecordError(parseErr)
		span.SetStatus(codes.Error, parseErr.Error())
		log.Warn("analyzer reply unparseable, falling back to default temperature", "model", desc.Name)
		return defaultFallbackTemperature, parseErr
	}

	tr.AnalyzerTemperature = temp
	tr.AnalyzerAuto = auto
	span.SetAttributes(attribute.Float64("temperature", temp))
	log.Debug("analyzer recommended temperature", "model", desc.Name, "temperature", temp)
	return temp, nil
}

// extractTemperature finds the first float in s that lies in [0.0, 2.0].
func extractTemperature(s string) (float64, bool) {
	for _, m := range floatPattern.FindAllString(s, -1) {
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if f >= 0.0 && f <= 2.0 {
			return f, true
		}
	}
	return 0, false
}
