package engine

import "github.com/jinterlante1206/chorus/internal/registry"

// defaultFallbackTemperature is used when no other source of
// temperature applies anywhere in the resolution chain.
const defaultFallbackTemperature = 1.4

// resolveLeafTemperature implements the worker/synthesizer temperature
// precedence chain: explicit node override, then auto_temperature
// (node or registry) resolving to the analyzer's recommended
// temperature, then the registry's declared default, then the global
// fallback.
func resolveLeafTemperature(nodeTemp *float64, nodeAuto *bool, desc registry.ModelDescriptor, analyzerTemp float64) float64 {
	if nodeTemp != nil {
		return *nodeTemp
	}
	if (nodeAuto != nil && *nodeAuto) || desc.AutoTemperature {
		return analyzerTemp
	}
	if desc.DefaultTemp != nil {
		return *desc.DefaultTemp
	}
	return defaultFallbackTemperature
}
