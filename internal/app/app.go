// Package app contains application bootstrap
package app

import (
	"go.uber.org/fx"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/domain"
	"github.com/oldkaseb/najbot/internal/infrastructure"
)

// CreateApp creates fx application with all modules
func CreateApp() fx.Option {
	return fx.Options(
		// Configuration
		fx.Provide(config.Out),

		// Infrastructure (logger, database, cache, kafka, telegram, http)
		infrastructure.Module,

		// Domain (whisper business logic)
		domain.Module,
	)
}
