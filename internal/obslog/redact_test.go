package obslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		want       string
	}{
		{"empty", "", "(none)"},
		{"bearer token", "sk-abcdef123456", "[redacted]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.credential))
		})
	}
}

func TestTruncatePrompt(t *testing.T) {
	short := "hello world"
	assert.Equal(t, short, TruncatePrompt(short))

	long := make([]rune, MaxLoggedPromptChars+50)
	for i := range long {
		long[i] = 'x'
	}
	got := TruncatePrompt(string(long))
	want := string(long[:MaxLoggedPromptChars]) + "…(truncated)"
	assert.Equal(t, want, got)
}
