package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jinterlante1206/chorus/internal/chorerr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL
	return New(openai.NewClientWithConfig(cfg), "test-key", nil)
}

func TestCallReturnsReplyText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "TA|TB"}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	text, err := client.Call(context.Background(), "analyzer-model", []Message{{Role: "user", Content: "hi"}}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "TA|TB", text)
}

func TestCallClassifiesUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "boom"},
		})
	})
	_, err := client.Call(context.Background(), "worker-b", nil, 1.0)
	assert.Error(t, err, "expected an error for a 500 response")
	var upstream *chorerr.UpstreamError
	require.ErrorAs(t, err, &upstream, "expected a 500 response to classify as UpstreamError")
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
}

func TestStreamDeliversDeltasInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		frames := []string{"he", "ll", "o"}
		for _, f := range frames {
			chunk := openai.ChatCompletionStreamResponse{
				Choices: []openai.ChatCompletionStreamChoice{
					{Delta: openai.ChatCompletionStreamChoiceDelta{Content: f}},
				},
			}
			data, _ := json.Marshal(chunk)
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
		w.Write([]byte("data: [DONE]\n\n"))
		if flusher != nil {
			flusher.Flush()
		}
	})

	var got []string
	err := client.Stream(context.Background(), "synth-model", []Message{{Role: "user", Content: "hi"}}, 1.0, func(c StreamChunk) error {
		if !c.Done {
			got = append(got, c.Delta)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"he", "ll", "o"}, got)
}
