// Package registry holds the set of models a workflow may reference
// and the pooled HTTP clients used to reach them.
//
// A Registry is built once at config-load time and never mutated
// afterward; workflows reference models by name and the engine looks
// them up through the Registry for every call.
package registry

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// ModelDescriptor names one upstream model endpoint and the defaults
// applied when a workflow node doesn't override them.
type ModelDescriptor struct {
	Name            string
	Endpoint        string
	Credential      string
	DefaultTemp     *float64
	AutoTemperature bool
}

func (m ModelDescriptor) host() string {
	u, err := url.Parse(m.Endpoint)
	if err != nil || u.Host == "" {
		return m.Endpoint
	}
	return u.Host
}

// Registry is the immutable, name-indexed set of configured models.
// One *openai.Client is pooled per distinct endpoint host: co-located
// models share connection pooling instead of each paying its own
// dial/TLS cost.
type Registry struct {
	models  map[string]ModelDescriptor
	clients map[string]*openai.Client // keyed by host
	mu      sync.RWMutex
}

// New builds a Registry from descs, constructing one pooled client per
// distinct endpoint host. Descs with duplicate names are rejected.
func New(descs []ModelDescriptor) (*Registry, error) {
	r := &Registry{
		models:  make(map[string]ModelDescriptor, len(descs)),
		clients: make(map[string]*openai.Client),
	}
	for _, d := range descs {
		if _, exists := r.models[d.Name]; exists {
			return nil, fmt.Errorf("registry: duplicate model name %q", d.Name)
		}
		r.models[d.Name] = d

		host := d.host()
		if _, ok := r.clients[host]; ok {
			continue
		}
		cfg := openai.DefaultConfig(d.Credential)
		if d.Endpoint != "" {
			cfg.BaseURL = d.Endpoint
		}
		r.clients[host] = openai.NewClientWithConfig(cfg)
	}
	return r, nil
}

// Lookup returns the descriptor for name and reports whether it exists.
func (r *Registry) Lookup(name string) (ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.models[name]
	return d, ok
}

// Client returns the pooled *openai.Client serving desc's endpoint host.
func (r *Registry) Client(desc ModelDescriptor) *openai.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[desc.host()]
}

// Names returns every configured model name, sorted for deterministic
// iteration (used by /v1/models and by the validate command's summary).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing filters names down to those absent from the registry,
// preserving input order. Used to build chorerr.UndefinedModel.
func (r *Registry) Missing(names []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, n := range names {
		if _, ok := r.models[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
