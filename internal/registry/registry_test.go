package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeduplicatesClientsByHost(t *testing.T) {
	descs := []ModelDescriptor{
		{Name: "fast", Endpoint: "http://llm-a.internal:8000/v1", Credential: "k1"},
		{Name: "smart", Endpoint: "http://llm-a.internal:8000/v1", Credential: "k1"},
		{Name: "remote", Endpoint: "https://api.example.com/v1", Credential: "k2"},
	}
	r, err := New(descs)
	require.NoError(t, err)
	assert.Len(t, r.clients, 2, "expected 2 pooled clients")

	fast, ok := r.Lookup("fast")
	require.True(t, ok, "expected fast to be registered")
	smart, _ := r.Lookup("smart")
	assert.Same(t, r.Client(fast), r.Client(smart), "fast and smart share a host and should share a pooled client")
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	descs := []ModelDescriptor{
		{Name: "fast", Endpoint: "http://a/v1"},
		{Name: "fast", Endpoint: "http://b/v1"},
	}
	_, err := New(descs)
	assert.Error(t, err, "expected error for duplicate model name")
}

func TestMissing(t *testing.T) {
	r, err := New([]ModelDescriptor{{Name: "fast", Endpoint: "http://a/v1"}})
	require.NoError(t, err)

	missing := r.Missing([]string{"fast", "ghost", "phantom"})
	assert.Equal(t, []string{"ghost", "phantom"}, missing)
}

func TestNamesSorted(t *testing.T) {
	r, err := New([]ModelDescriptor{
		{Name: "zeta", Endpoint: "http://a/v1"},
		{Name: "alpha", Endpoint: "http://b/v1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}
