// Package telegram contains Telegram delivery layer
package telegram

import (
	tgbot "github.com/go-telegram/bot"
	"github.com/rs/zerolog"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers all command, trigger and callback handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	// Command handlers
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypePrefix, r.handlers.HandleStart)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/help", tgbot.MatchTypeExact, r.handlers.HandleHelp)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/cancel", tgbot.MatchTypeExact, r.handlers.HandleCancel)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/subscribe", tgbot.MatchTypePrefix, r.handlers.HandleSubscribe)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/unsubscribe", tgbot.MatchTypePrefix, r.handlers.HandleUnsubscribe)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/subscriptions", tgbot.MatchTypeExact, r.handlers.HandleSubscriptions)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/stats", tgbot.MatchTypeExact, r.handlers.HandleStats)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/broadcast", tgbot.MatchTypePrefix, r.handlers.HandleBroadcast)

	// Whisper flow: group trigger, DM text collector, shell read button
	bot.RegisterHandlerMatchFunc(r.handlers.MatchGroupTrigger, r.handlers.HandleGroupTrigger)
	bot.RegisterHandlerMatchFunc(r.handlers.MatchPrivateText, r.handlers.HandlePrivateText)
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, readCallbackPrefix, tgbot.MatchTypePrefix, r.handlers.HandleReadCallback)

	r.logger.Info().Msg("All Telegram handlers registered successfully")
}
