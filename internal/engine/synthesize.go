package engine

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jinterlante1206/chorus/internal/llmclient"
	"github.com/jinterlante1206/chorus/internal/workflow"
)

// synthesize runs Stage 4. chosen is the selector's pick (or the first
// successful output when no selector ran); rest holds the remaining
// successful candidates as supporting context. Failure here is fatal
// and surfaces as the request's error. When streamSink is non-nil the
// synthesizer's upstream reply is streamed into it chunk by chunk;
// otherwise a single blocking call is made.
func (e *Engine) synthesize(ctx context.Context, ref workflow.ModelRef, prompt, chosen string, rest []string, analyzerTemp float64, tr *ExecutionTrace, streamSink func(llmclient.StreamChunk) error) (string, error) {
	ctx, span := e.Tracer.Start(ctx, "chorus.synthesize")
	defer span.End()
	log := e.Log.WithStage("synthesizer")

	desc, err := e.descriptorOrFail(ref.Name)
	if err != nil {
		span.RecordError(err)
		log.Error("synthesizer model undefined", "model", ref.Name, "error", err)
		return "", err
	}
	auto := ref.AutoTemperature != nil && *ref.AutoTemperature
	temp := resolveLeafTemperature(nil, boolOrNil(auto), desc, analyzerTemp)

	tr.SynthesizerModel = desc.Name
	tr.SynthesizerTemperature = temp
	span.SetAttributes(attribute.String("model", desc.Name), attribute.Float64("temperature", temp))

	ctx, cancel := context.WithTimeout(ctx, e.Timeouts.Resolve("synthesizer", workflow.Host(desc.Endpoint)))
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Original prompt: %s\n\n", prompt)
	if chosen != "" {
		fmt.Fprintf(&b, "Primary candidate:\n%s\n\n", chosen)
	}
	for i, r := range rest {
		fmt.Fprintf(&b, "Supporting candidate %d:\n%s\n\n", i, r)
	}
	b.WriteString("Produce the final reply to the original prompt, drawing on the candidates above.")

	messages := []llmclient.Message{{Role: "user", Content: b.String()}}
	client := e.Clients(desc)

	if streamSink == nil {
		text, err := client.Call(ctx, desc.Name, messages, temp)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("synthesizer call failed", "model", desc.Name, "error", err)
			return "", err
		}
		return text, nil
	}

	sink := streamSink
	if e.StreamChunksPerSecond > 0 {
		sink = llmclient.RateLimitedSink(ctx, e.StreamChunksPerSecond, streamSink)
	}

	var full strings.Builder
	err = client.Stream(ctx, desc.Name, messages, temp, func(c llmclient.StreamChunk) error {
		if !c.Done {
			full.WriteString(c.Delta)
		}
		return sink(c)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("synthesizer stream failed", "model", desc.Name, "error", err)
		return "", err
	}
	return full.String(), nil
}
