// Package whisper contains the whisper domain module
package whisper

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/oldkaseb/najbot/config"
	telegramDelivery "github.com/oldkaseb/najbot/internal/domain/whisper/delivery/telegram"
	"github.com/oldkaseb/najbot/internal/domain/whisper/repository/postgres"
	"github.com/oldkaseb/najbot/internal/domain/whisper/usecase/buissines"
	"github.com/oldkaseb/najbot/internal/domain/whisper/workers"
	"github.com/oldkaseb/najbot/internal/infrastructure/metrics"
	"github.com/oldkaseb/najbot/internal/infrastructure/telegram"
)

// Module provides whisper domain components for fx dependency injection
var Module = fx.Module("whisper",
	// Repository
	fx.Provide(postgres.NewTokenRepository),
	fx.Provide(postgres.NewWaitingRepository),
	fx.Provide(postgres.NewSubscriptionRepository),

	// UseCase
	fx.Provide(buissines.NewUseCase),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Workers
	workers.Module,

	// Wire cyclic dependency and register routes
	fx.Invoke(wireAndRegister),
)

// provideTelegramHandlers creates Telegram handlers with raw bot
func provideTelegramHandlers(
	uc *buissines.UseCase,
	bot *telegram.Bot,
	m *metrics.Metrics,
	telegramCfg *config.TelegramConfig,
	logger zerolog.Logger,
) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot.Raw(), m, telegramCfg, logger)
}

// wireAndRegister resolves the cyclic dependency and registers routes
func wireAndRegister(
	uc *buissines.UseCase,
	handlers *telegramDelivery.Handlers,
	router *telegramDelivery.Router,
	bot *telegram.Bot,
) {
	// Handlers implements deps.TelegramSender interface
	// This resolves the cyclic dependency: UseCase -> TelegramSender <- Handlers -> UseCase
	uc.SetSender(handlers)

	// Register Telegram routes
	router.RegisterRoutes(bot.Raw())
}
