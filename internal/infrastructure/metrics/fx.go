// Package metrics contains Prometheus metrics for the whisper bot
package metrics

import (
	"go.uber.org/fx"
)

// Module provides metrics for fx dependency injection
var Module = fx.Module("metrics",
	fx.Provide(GetDefaultMetrics),
)
