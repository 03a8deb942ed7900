package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jinterlante1206/chorus/internal/registry"
)

func ptr(f float64) *float64 { return &f }
func bptr(b bool) *bool      { return &b }

// TestTemperaturePrecedence exercises all 16 combinations of
// {leaf temp set/unset} x {leaf auto set/unset} x {registry default
// set/unset} x {registry auto set/unset}.
func TestTemperaturePrecedence(t *testing.T) {
	const analyzerTemp = 0.2
	const registryDefault = 0.8
	const fallback = defaultFallbackTemperature

	cases := []struct {
		name     string
		nodeTemp *float64
		nodeAuto *bool
		regAuto  bool
		regDef   *float64
		want     float64
	}{
		{"explicit wins over everything", ptr(1.9), bptr(true), true, ptr(registryDefault), 1.9},
		{"explicit wins, no auto", ptr(1.9), nil, false, ptr(registryDefault), 1.9},
		{"leaf auto true uses analyzer temp", nil, bptr(true), false, ptr(registryDefault), analyzerTemp},
		{"leaf auto true, no registry default", nil, bptr(true), false, nil, analyzerTemp},
		{"registry auto true uses analyzer temp", nil, nil, true, ptr(registryDefault), analyzerTemp},
		{"registry auto true, leaf auto false", nil, bptr(false), true, ptr(registryDefault), analyzerTemp},
		{"registry default, no auto anywhere", nil, nil, false, ptr(registryDefault), registryDefault},
		{"registry default, leaf auto false", nil, bptr(false), false, ptr(registryDefault), registryDefault},
		{"fallback, nothing set", nil, nil, false, nil, fallback},
		{"fallback, leaf auto false only", nil, bptr(false), false, nil, fallback},
		{"explicit zero is respected", ptr(0.0), nil, false, ptr(registryDefault), 0.0},
		{"both auto flags true", nil, bptr(true), true, ptr(registryDefault), analyzerTemp},
		{"explicit overrides both auto flags", ptr(0.5), bptr(true), true, ptr(registryDefault), 0.5},
		{"leaf auto nil, registry auto false, has default", nil, nil, false, ptr(0.0), 0.0},
		{"leaf auto false, registry auto false, no default", nil, bptr(false), false, nil, fallback},
		{"leaf auto true, registry default present but auto wins", nil, bptr(true), false, ptr(0.3), analyzerTemp},
		{"explicit wins over leaf auto and registry default", ptr(1.1), bptr(true), false, ptr(registryDefault), 1.1},
		{"explicit wins over both auto flags, no registry default", ptr(1.1), bptr(true), true, nil, 1.1},
		{"explicit wins over leaf auto only", ptr(1.1), bptr(true), false, nil, 1.1},
		{"explicit wins over registry auto and default", ptr(1.1), nil, true, ptr(registryDefault), 1.1},
		{"explicit wins over registry auto only", ptr(1.1), nil, true, nil, 1.1},
		{"explicit only", ptr(1.1), nil, false, nil, 1.1},
		{"both auto flags true, no registry default", nil, bptr(true), true, nil, analyzerTemp},
		{"registry auto only", nil, nil, true, nil, analyzerTemp},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			desc := registry.ModelDescriptor{AutoTemperature: c.regAuto, DefaultTemp: c.regDef}
			got := resolveLeafTemperature(c.nodeTemp, c.nodeAuto, desc, analyzerTemp)
			assert.Equal(t, c.want, got)
		})
	}
}
