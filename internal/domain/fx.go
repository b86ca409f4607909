// Package domain contains all domain modules
package domain

import (
	"go.uber.org/fx"

	"github.com/oldkaseb/najbot/internal/domain/whisper"
)

// Module aggregates all domain modules for fx dependency injection
var Module = fx.Module("domain",
	whisper.Module,
)
