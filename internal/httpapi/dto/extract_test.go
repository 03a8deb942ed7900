package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPromptFromInputString(t *testing.T) {
	r := ResponsesRequest{Instructions: "be terse", Input: "what is 2+2"}
	got, err := r.ExtractPrompt()
	require.NoError(t, err)
	assert.Equal(t, "be terse\n\nwhat is 2+2", got)
}

func TestExtractPromptFromInputParts(t *testing.T) {
	r := ResponsesRequest{
		Input: []any{
			map[string]any{"type": "text", "text": "part one"},
			map[string]any{"type": "text", "text": "part two"},
		},
	}
	got, err := r.ExtractPrompt()
	require.NoError(t, err)
	assert.Equal(t, "part one\npart two", got)
}

func TestExtractPromptFromMessages(t *testing.T) {
	r := ResponsesRequest{Messages: []Message{{Role: "user", Content: "hi"}}}
	got, err := r.ExtractPrompt()
	require.NoError(t, err)
	assert.Equal(t, "user: hi", got)
}

func TestExtractPromptFromBarePrompt(t *testing.T) {
	r := ResponsesRequest{Prompt: "hello"}
	got, err := r.ExtractPrompt()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestExtractPromptMissingEverything(t *testing.T) {
	r := ResponsesRequest{}
	_, err := r.ExtractPrompt()
	assert.Error(t, err, "expected an error when no recognised input is present")
}

func TestCompletionRequestExtractPromptArray(t *testing.T) {
	r := CompletionRequest{Prompt: []any{"a", "b"}}
	got, err := r.ExtractPrompt()
	require.NoError(t, err)
	assert.Equal(t, "a\nb", got)
}
