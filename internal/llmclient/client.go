// Package llmclient is the concrete LLM transport the engine dispatches
// through: one reusable client per endpoint host, issuing OpenAI-
// compatible chat-completion calls in blocking or streaming mode.
package llmclient

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jinterlante1206/chorus/internal/chorerr"
	"github.com/jinterlante1206/chorus/internal/obslog"
)

// Message is one turn of chat history, independent of any wire DTO.
type Message struct {
	Role    string
	Content string
}

// StreamChunk is one arrival-ordered fragment of a streaming reply.
type StreamChunk struct {
	Delta string
	Done  bool
}

// Client is the contract the engine calls through. Implementations
// must be safe for concurrent use — the engine may call one Client from
// several worker goroutines at once.
type Client interface {
	// Call issues a non-streaming chat completion and returns the full
	// reply text.
	Call(ctx context.Context, model string, messages []Message, temperature float64) (string, error)

	// Stream issues a streaming chat completion, invoking onChunk for
	// each arrival-ordered delta. onChunk receives a final chunk with
	// Done=true (empty Delta) on successful completion.
	Stream(ctx context.Context, model string, messages []Message, temperature float64, onChunk func(StreamChunk) error) error
}

// openAIClient adapts an *openai.Client to the Client contract. The
// wrapped *openai.Client is the one registry.Registry pools per endpoint
// host and is reused across every call to that host; the wrapper itself
// is lightweight and may be built per call.
type openAIClient struct {
	raw        *openai.Client
	credential string
	log        *obslog.Logger
}

// New wraps raw (as pooled by internal/registry) as a Client. credential
// is the descriptor's configured API key, logged only in redacted form
// before each upstream call; log is tagged with stage "llmclient".
func New(raw *openai.Client, credential string, log *obslog.Logger) Client {
	if log == nil {
		log = obslog.Default()
	}
	return &openAIClient{raw: raw, credential: credential, log: log.WithStage("llmclient")}
}

// lastContent returns the final message's content, the one most
// representative of what the caller is actually asking this call to
// do (the system preamble, if any, precedes it).
func lastContent(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Content
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func (c *openAIClient) Call(ctx context.Context, model string, messages []Message, temperature float64) (string, error) {
	c.log.Debug("dispatching call", "model", model, "credential", obslog.Redact(c.credential),
		"prompt", obslog.TruncatePrompt(lastContent(messages)))
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(temperature),
	}
	resp, err := c.raw.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &chorerr.UpstreamError{Status: 502, Excerpt: "upstream returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) Stream(ctx context.Context, model string, messages []Message, temperature float64, onChunk func(StreamChunk) error) error {
	c.log.Debug("dispatching stream", "model", model, "credential", obslog.Redact(c.credential),
		"prompt", obslog.TruncatePrompt(lastContent(messages)))
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(temperature),
		Stream:      true,
	}
	stream, err := c.raw.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return classify(ctx, err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return onChunk(StreamChunk{Done: true})
		}
		if err != nil {
			return classify(ctx, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onChunk(StreamChunk{Delta: delta}); err != nil {
			return err
		}
	}
}

// classify maps a go-openai error, or context cancellation, into the
// chorerr taxonomy expected by the engine and the HTTP façade.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &chorerr.Timeout{}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &chorerr.UpstreamError{Status: apiErr.HTTPStatusCode, Excerpt: excerpt(apiErr.Message)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &chorerr.UpstreamError{Status: reqErr.HTTPStatusCode, Excerpt: excerpt(reqErr.Error())}
	}
	return &chorerr.TransportError{Cause: err}
}

func excerpt(s string) string {
	const max = 200
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
