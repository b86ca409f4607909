// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/domain/whisper/consts"
	"github.com/oldkaseb/najbot/internal/domain/whisper/dto"
	werrors "github.com/oldkaseb/najbot/internal/domain/whisper/errors"
	"github.com/oldkaseb/najbot/internal/domain/whisper/usecase/buissines"
	"github.com/oldkaseb/najbot/internal/infrastructure/metrics"
)

// Constants for Telegram API
const (
	RequestTimeout = 30 * time.Second

	// Telegram caps callback alert popups at around 200 characters
	MaxAlertLength = 190

	readCallbackPrefix = "read:"
)

// Handlers contains Telegram command and callback handlers.
// Implements deps.TelegramSender interface.
type Handlers struct {
	uc          *buissines.UseCase
	bot         *tgbot.Bot
	metrics     *metrics.Metrics
	telegramCfg *config.TelegramConfig
	logger      zerolog.Logger
}

// NewHandlers creates new Telegram handlers
func NewHandlers(
	uc *buissines.UseCase,
	bot *tgbot.Bot,
	m *metrics.Metrics,
	telegramCfg *config.TelegramConfig,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		uc:          uc,
		bot:         bot,
		metrics:     m,
		telegramCfg: telegramCfg,
		logger:      logger,
	}
}

// SendMessage implements deps.TelegramSender interface
func (h *Handlers) SendMessage(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		h.logger.Warn().Int64("chat_id", chatID).Msg("Attempt to send empty message")
		return fmt.Errorf("message text cannot be empty")
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return h.handleSendError(chatID, err)
	}

	return nil
}

// SendWhisperShell posts the sealed whisper message with its read button
func (h *Handlers) SendWhisperShell(ctx context.Context, chatID int64, replyTo int, token, text string) (int, error) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyMarkup: &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{
					{Text: "👁 خواندن نجوا", CallbackData: readCallbackPrefix + token},
				},
			},
		},
	}
	if replyTo > 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}

	msg, err := h.bot.SendMessage(msgCtx, params)
	if err != nil {
		return 0, h.handleSendError(chatID, err)
	}

	return msg.ID, nil
}

// SendHelperMessage posts the group hint that points the sender to the bot DM.
// An empty deepLink sends the hint without a button; Telegram rejects
// URL buttons with an invalid URL.
func (h *Handlers) SendHelperMessage(ctx context.Context, chatID int64, replyTo int, text, deepLink string) (int, error) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if deepLink != "" {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{
					{Text: "✍️ نوشتن نجوا", URL: deepLink},
				},
			},
		}
	}
	if replyTo > 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}

	msg, err := h.bot.SendMessage(msgCtx, params)
	if err != nil {
		return 0, h.handleSendError(chatID, err)
	}

	return msg.ID, nil
}

// EditMessage implements deps.TelegramSender interface.
// Editing without a markup also drops the inline keyboard.
func (h *Handlers) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		return h.handleSendError(chatID, err)
	}

	return nil
}

// DeleteMessage implements deps.TelegramSender interface
func (h *Handlers) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.DeleteMessage(msgCtx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return h.handleSendError(chatID, err)
	}

	return nil
}

// HandleStart handles /start command, including the whisper deep link
func (h *Handlers) HandleStart(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	if strings.Contains(update.Message.Text, "whisper") {
		_ = h.SendMessage(ctx, chatID, "🤫 متن نجوا را همین‌جا بفرست.")
		return
	}

	text := "سلام! 👋\n" +
		"من ربات نجوا هستم.\n\n" +
		"در گروه روی پیام کسی ریپلای کن و بنویس «نجوا» تا برایش پیام محرمانه بفرستی.\n" +
		"برای دیدن دستورها /help را بزن."
	_ = h.SendMessage(ctx, chatID, text)
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	text := "📚 دستورها:\n\n" +
		"نجوا (در ریپلای، داخل گروه) - شروع نجوا\n" +
		"/cancel - لغو نجوای در انتظار\n" +
		"/subscribe - دریافت گزارش فعالیت گروه (داخل گروه)\n" +
		"/unsubscribe - قطع گزارش گروه\n" +
		"/subscriptions - فهرست گزارش‌های فعال (در پیام خصوصی)"
	_ = h.SendMessage(ctx, update.Message.Chat.ID, text)
}

// HandleSubscribe handles /subscribe inside a group
func (h *Handlers) HandleSubscribe(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chat := update.Message.Chat
	userID := update.Message.From.ID

	if !isGroupChat(chat) {
		_ = h.SendMessage(ctx, chat.ID, "این دستور فقط داخل گروه کار می‌کند.")
		return
	}

	err := h.uc.Subscribe(ctx, chat.ID, userID)
	switch {
	case err == nil:
		_ = h.SendMessage(ctx, chat.ID, "✅ گزارش فعالیت این گروه برایت فعال شد.")
	case errors.Is(err, werrors.ErrAlreadySubscribed):
		_ = h.SendMessage(ctx, chat.ID, "قبلاً مشترک این گروه شده‌ای.")
	default:
		h.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("subscribe failed")
		_ = h.SendMessage(ctx, chat.ID, "خطایی پیش آمد، دوباره تلاش کن.")
	}
}

// HandleUnsubscribe handles /unsubscribe inside a group
func (h *Handlers) HandleUnsubscribe(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chat := update.Message.Chat
	userID := update.Message.From.ID

	if !isGroupChat(chat) {
		_ = h.SendMessage(ctx, chat.ID, "این دستور فقط داخل گروه کار می‌کند.")
		return
	}

	err := h.uc.Unsubscribe(ctx, chat.ID, userID)
	switch {
	case err == nil:
		_ = h.SendMessage(ctx, chat.ID, "✅ گزارش فعالیت این گروه قطع شد.")
	case errors.Is(err, werrors.ErrNotSubscribed):
		_ = h.SendMessage(ctx, chat.ID, "مشترک این گروه نیستی.")
	default:
		h.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("unsubscribe failed")
		_ = h.SendMessage(ctx, chat.ID, "خطایی پیش آمد، دوباره تلاش کن.")
	}
}

// HandleSubscriptions lists active report subscriptions in DM
func (h *Handlers) HandleSubscriptions(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chat := update.Message.Chat
	userID := update.Message.From.ID

	if chat.Type != "private" {
		_ = h.SendMessage(ctx, chat.ID, "این دستور را در پیام خصوصی بزن.")
		return
	}

	groups, err := h.uc.ListSubscriptions(ctx, userID)
	if err != nil {
		_ = h.SendMessage(ctx, chat.ID, "خطایی پیش آمد، دوباره تلاش کن.")
		return
	}

	if len(groups) == 0 {
		_ = h.SendMessage(ctx, chat.ID, "هیچ گزارش فعالی نداری.")
		return
	}

	var b strings.Builder
	b.WriteString("📋 گزارش‌های فعال:\n")
	for _, groupID := range groups {
		fmt.Fprintf(&b, "• %d\n", groupID)
	}
	_ = h.SendMessage(ctx, chat.ID, b.String())
}

// HandleCancel drops the pending whisper wait
func (h *Handlers) HandleCancel(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	err := h.uc.CancelWait(ctx, userID)
	switch {
	case err == nil:
		_ = h.SendMessage(ctx, chatID, "نجوای در انتظار لغو شد.")
	case errors.Is(err, werrors.ErrWaitingNotFound):
		_ = h.SendMessage(ctx, chatID, "نجوای در انتظاری نداری.")
	default:
		_ = h.SendMessage(ctx, chatID, "خطایی پیش آمد، دوباره تلاش کن.")
	}
}

// HandleStats reports storage counters to the admin
func (h *Handlers) HandleStats(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	stats, err := h.uc.Stats(ctx, userID)
	if err != nil {
		if errors.Is(err, werrors.ErrNotAuthorized) {
			return
		}
		_ = h.SendMessage(ctx, chatID, "خطایی پیش آمد، دوباره تلاش کن.")
		return
	}

	text := fmt.Sprintf(
		"📊 وضعیت:\nنجواهای در انتظار: %d\nمنتظر متن: %d\nاشتراک‌ها: %d",
		stats.PendingWhispers, stats.ActiveWaits, stats.Subscriptions,
	)
	_ = h.SendMessage(ctx, chatID, text)
}

// HandleBroadcast sends the text after the command to every subscriber
func (h *Handlers) HandleBroadcast(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	text := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/broadcast"))

	delivered, err := h.uc.Broadcast(ctx, userID, text)
	switch {
	case err == nil:
		_ = h.SendMessage(ctx, chatID, fmt.Sprintf("پیام برای %d نفر ارسال شد.", delivered))
	case errors.Is(err, werrors.ErrNotAuthorized):
		return
	case errors.Is(err, werrors.ErrEmptyContent):
		_ = h.SendMessage(ctx, chatID, "متن پیام را بعد از دستور بنویس.")
	default:
		_ = h.SendMessage(ctx, chatID, "خطایی پیش آمد، دوباره تلاش کن.")
	}
}

// MatchGroupTrigger reports whether the update is a whisper trigger:
// a trigger word replied to another user's message inside a group
func (h *Handlers) MatchGroupTrigger(update *models.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.ReplyToMessage == nil {
		return false
	}
	if !isGroupChat(msg.Chat) {
		return false
	}
	return consts.IsTrigger(msg.Text, h.telegramCfg.BotUsername)
}

// HandleGroupTrigger opens a whisper wait for the sender
func (h *Handlers) HandleGroupTrigger(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	msg := update.Message
	target := msg.ReplyToMessage.From
	if target == nil || target.IsBot {
		return
	}

	req := dto.BeginWhisperRequest{
		FromID:          msg.From.ID,
		FromName:        displayName(msg.From),
		TargetID:        target.ID,
		TargetName:      displayName(target),
		ChatID:          msg.Chat.ID,
		ChatTitle:       msg.Chat.Title,
		TargetMessageID: msg.ReplyToMessage.ID,
	}

	if err := h.uc.BeginWhisper(ctx, req); err != nil {
		if errors.Is(err, werrors.ErrSelfWhisper) {
			_ = h.SendMessage(ctx, msg.Chat.ID, "به خودت که نمی‌شود نجوا کرد! 🙂")
		} else {
			h.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("failed to begin whisper")
		}
		return
	}

	// The trigger message is noise once the helper is posted
	if err := h.DeleteMessage(ctx, msg.Chat.ID, msg.ID); err != nil {
		h.logger.Debug().Err(err).Int64("chat_id", msg.Chat.ID).Msg("could not delete trigger message")
	}
}

// MatchPrivateText reports whether the update is a whisper text arriving in DM
func (h *Handlers) MatchPrivateText(update *models.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return false
	}
	if msg.Chat.Type != "private" {
		return false
	}
	return !strings.HasPrefix(msg.Text, "/")
}

// HandlePrivateText treats any non-command DM text as the whisper body
func (h *Handlers) HandlePrivateText(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	_, err := h.uc.SubmitWhisper(ctx, msg.From.ID, msg.Text)
	switch {
	case err == nil:
		_ = h.SendMessage(ctx, chatID, "✅ نجوا ارسال شد.")
	case errors.Is(err, werrors.ErrWaitingNotFound):
		_ = h.SendMessage(ctx, chatID, "نجوای در انتظاری نداری. اول در گروه روی پیام کسی ریپلای کن و «نجوا» بنویس.")
	case errors.Is(err, werrors.ErrWaitingExpired):
		_ = h.SendMessage(ctx, chatID, "مهلت ارسال به پایان رسید. دوباره در گروه «نجوا» بزن.")
	case errors.Is(err, werrors.ErrEmptyContent):
		_ = h.SendMessage(ctx, chatID, "متن نجوا خالی است.")
	case errors.Is(err, werrors.ErrContentTooLong):
		_ = h.SendMessage(ctx, chatID, fmt.Sprintf("متن نجوا نباید بیشتر از %d حرف باشد.", MaxAlertLength))
	default:
		h.logger.Error().Err(err).Int64("user_id", msg.From.ID).Msg("failed to submit whisper")
		_ = h.SendMessage(ctx, chatID, "خطایی پیش آمد، دوباره تلاش کن.")
	}
}

// HandleReadCallback answers the shell button with the whisper text.
// The text is shown only as a callback alert, it never becomes a message.
func (h *Handlers) HandleReadCallback(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	token := strings.TrimPrefix(cb.Data, readCallbackPrefix)

	result, err := h.uc.ReadWhisper(ctx, token, cb.From.ID)

	var text string
	switch {
	case err == nil:
		text = result.Content
	case errors.Is(err, werrors.ErrNotAuthorized):
		text = "🚫 این نجوا برای تو نیست!"
	case errors.Is(err, werrors.ErrTokenNotFound), errors.Is(err, werrors.ErrContentGone):
		text = "این نجوا دیگر در دسترس نیست."
	default:
		h.logger.Error().Err(err).Int64("user_id", cb.From.ID).Msg("failed to read whisper")
		text = "خطایی پیش آمد، دوباره تلاش کن."
	}

	h.answerCallback(ctx, cb.ID, text)
}

func (h *Handlers) answerCallback(ctx context.Context, callbackID, text string) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	if len([]rune(text)) > MaxAlertLength {
		text = string([]rune(text)[:MaxAlertLength])
	}

	_, err := h.bot.AnswerCallbackQuery(msgCtx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to answer callback query")
	}
}

func (h *Handlers) handleSendError(chatID int64, err error) error {
	errorMsg := err.Error()

	switch {
	case strings.Contains(errorMsg, "Forbidden"):
		h.metrics.SendErrors.WithLabelValues("forbidden").Inc()
		h.logger.Warn().Int64("chat_id", chatID).Msg("User blocked the bot or chat not found")
		return fmt.Errorf("user blocked the bot or chat not found")

	case strings.Contains(errorMsg, "Bad Request: chat not found"):
		h.metrics.SendErrors.WithLabelValues("chat_not_found").Inc()
		h.logger.Warn().Int64("chat_id", chatID).Msg("Chat not found")
		return fmt.Errorf("chat not found")

	case strings.Contains(errorMsg, "Too Many Requests"):
		h.metrics.SendErrors.WithLabelValues("rate_limited").Inc()
		h.logger.Warn().Int64("chat_id", chatID).Msg("Rate limit exceeded")
		return fmt.Errorf("rate limit exceeded, please try again later")

	case strings.Contains(errorMsg, "network error"), strings.Contains(errorMsg, "timeout"):
		h.metrics.SendErrors.WithLabelValues("network").Inc()
		h.logger.Warn().Int64("chat_id", chatID).Msg("Network error while sending message")
		return fmt.Errorf("network error, please try again")

	default:
		h.metrics.SendErrors.WithLabelValues("unknown").Inc()
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Unknown error while sending message")
		return fmt.Errorf("failed to send message: %w", err)
	}
}

func isGroupChat(chat models.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}

func displayName(user *models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return name
}
