package app

import "github.com/eakgun/intervo/internal/core"

func testDispatchConfig() core.DispatchConfig {
	return core.DispatchConfig{NoiseFloor: 100, MinFirst: 40000, MinDelta: 20000, MaxBuffer: 8 << 20, Language: "tr"}
}

// Small thresholds so tests do not need 40k of fake audio per call.
func testDispatchConfigSmall() core.DispatchConfig {
	return core.DispatchConfig{NoiseFloor: 100, MinFirst: 4000, MinDelta: 2000, MaxBuffer: 1 << 20, Language: "tr"}
}
