// Package cache contains in-memory side storage for the whisper flow
package cache

import (
	"go.uber.org/fx"
)

// Module provides cache components for fx DI
var Module = fx.Module("cache",
	fx.Provide(NewWhisperCache),
)
