package buissines

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
	"github.com/oldkaseb/najbot/internal/domain/whisper/dto"
	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
	werrors "github.com/oldkaseb/najbot/internal/domain/whisper/errors"
	"github.com/oldkaseb/najbot/internal/infrastructure/metrics"
	"github.com/oldkaseb/najbot/internal/utils"
	"github.com/rs/zerolog"
)

type UseCase struct {
	tokens        deps.TokenRepository
	waits         deps.WaitingRepository
	subscriptions deps.SubscriptionRepository
	cache         deps.WhisperCache
	audit         deps.AuditProducer
	sender        deps.TelegramSender
	metrics       *metrics.Metrics
	whisperCfg    *config.WhisperConfig
	telegramCfg   *config.TelegramConfig
	logger        zerolog.Logger
}

func NewUseCase(
	tokens deps.TokenRepository,
	waits deps.WaitingRepository,
	subscriptions deps.SubscriptionRepository,
	cache deps.WhisperCache,
	audit deps.AuditProducer,
	m *metrics.Metrics,
	whisperCfg *config.WhisperConfig,
	telegramCfg *config.TelegramConfig,
	logger zerolog.Logger,
) *UseCase {
	return &UseCase{
		tokens:        tokens,
		waits:         waits,
		subscriptions: subscriptions,
		cache:         cache,
		audit:         audit,
		metrics:       m,
		whisperCfg:    whisperCfg,
		telegramCfg:   telegramCfg,
		logger:        logger,
	}
}

// SetSender injects the delivery layer after construction.
// The delivery layer depends on the usecase for handlers, so the reverse
// edge is wired late.
func (u *UseCase) SetSender(sender deps.TelegramSender) {
	u.sender = sender
}

// BeginWhisper handles a trigger word sent as a reply in a group.
// It opens a wait for the sender and posts a helper message pointing
// them to the bot DM.
func (u *UseCase) BeginWhisper(ctx context.Context, req dto.BeginWhisperRequest) error {
	if req.FromID == req.TargetID {
		return werrors.ErrSelfWhisper
	}

	waiting := &entities.WaitingText{
		UserID:    req.FromID,
		TargetID:  req.TargetID,
		ChatID:    req.ChatID,
		ChatTitle: req.ChatTitle,
		ExpiresAt: time.Now().UTC().Add(u.whisperCfg.WaitTTL),
	}

	if err := u.waits.Upsert(ctx, waiting); err != nil {
		u.logger.Error().Err(err).
			Int64("user_id", req.FromID).
			Int64("chat_id", req.ChatID).
			Msg("failed to open whisper wait")
		return err
	}

	// A fresh trigger replaces the previous helper message
	if prev, ok := u.cache.HelperMessage(req.FromID); ok {
		if err := u.sender.DeleteMessage(ctx, prev.ChatID, prev.MessageID); err != nil {
			u.logger.Warn().Err(err).
				Int64("chat_id", prev.ChatID).
				Msg("failed to delete previous helper message")
		}
		u.cache.DropHelperMessage(req.FromID)
	}

	helperText := fmt.Sprintf(
		"🤫 %s می‌خواهد به %s نجوا کند.\nمتن نجوا را در پیام خصوصی برای من بفرست.",
		req.FromName, req.TargetName,
	)
	// Without a known username there is no valid t.me link; the helper
	// goes out without a button then
	deepLink := ""
	if u.telegramCfg.BotUsername != "" {
		deepLink = fmt.Sprintf("https://t.me/%s?start=whisper", u.telegramCfg.BotUsername)
	}

	messageID, err := u.sender.SendHelperMessage(ctx, req.ChatID, req.TargetMessageID, helperText, deepLink)
	if err != nil {
		u.logger.Error().Err(err).
			Int64("chat_id", req.ChatID).
			Msg("failed to send helper message")
		return err
	}

	u.cache.PutHelperMessage(req.FromID, entities.StoredMessage{
		ChatID:    req.ChatID,
		MessageID: messageID,
	})

	u.metrics.WaitsStarted.Inc()

	u.logger.Info().
		Int64("from_id", req.FromID).
		Int64("target_id", req.TargetID).
		Int64("chat_id", req.ChatID).
		Msg("whisper wait opened")

	return nil
}

// SubmitWhisper handles the whisper text arriving in the DM.
// It issues a single-use token, posts the shell in the group and
// reports the activity to the group's subscribers.
func (u *UseCase) SubmitWhisper(ctx context.Context, userID int64, text string) (*dto.SubmitWhisperResult, error) {
	waiting, err := u.waits.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if time.Now().UTC().After(waiting.ExpiresAt) {
		if err := u.waits.Delete(ctx, userID); err != nil && err != werrors.ErrWaitingNotFound {
			u.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to drop expired wait")
		}
		return nil, werrors.ErrWaitingExpired
	}

	content := strings.TrimSpace(text)
	if content == "" {
		return nil, werrors.ErrEmptyContent
	}
	if len([]rune(content)) > u.whisperCfg.MaxAlertChars {
		return nil, werrors.ErrContentTooLong
	}

	token, err := utils.GenerateToken()
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to generate whisper token")
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(u.whisperCfg.ReadTTL)
	pending := &entities.PendingToken{
		Token:     token,
		FromID:    userID,
		TargetID:  waiting.TargetID,
		ChatID:    waiting.ChatID,
		ChatTitle: waiting.ChatTitle,
		ExpiresAt: expiresAt,
	}

	if err := u.tokens.Create(ctx, pending); err != nil {
		u.logger.Error().Err(err).
			Int64("user_id", userID).
			Msg("failed to store pending token")
		return nil, err
	}

	u.cache.PutContent(token, content, expiresAt)

	if err := u.waits.Delete(ctx, userID); err != nil && err != werrors.ErrWaitingNotFound {
		u.logger.Warn().Err(err).
			Int64("user_id", userID).
			Msg("failed to close whisper wait")
	}

	if helper, ok := u.cache.HelperMessage(userID); ok {
		if err := u.sender.DeleteMessage(ctx, helper.ChatID, helper.MessageID); err != nil {
			u.logger.Warn().Err(err).
				Int64("chat_id", helper.ChatID).
				Msg("failed to delete helper message")
		}
		u.cache.DropHelperMessage(userID)
	}

	shellText := "🤫 یک نجوا رسید!\nفقط گیرنده می‌تواند آن را بخواند."
	messageID, err := u.sender.SendWhisperShell(ctx, waiting.ChatID, 0, token, shellText)
	if err != nil {
		u.logger.Error().Err(err).
			Int64("chat_id", waiting.ChatID).
			Msg("failed to send whisper shell")
		return nil, err
	}

	u.cache.PutShellMessage(token, entities.StoredMessage{
		ChatID:    waiting.ChatID,
		MessageID: messageID,
	})

	u.metrics.WhispersIssued.Inc()

	if err := u.audit.WhisperIssued(ctx, token, userID, waiting.TargetID, waiting.ChatID); err != nil {
		u.logger.Warn().Err(err).Msg("failed to publish whisper issued event")
	}

	u.reportActivity(ctx, waiting, userID, content)

	u.logger.Info().
		Int64("from_id", userID).
		Int64("target_id", waiting.TargetID).
		Int64("chat_id", waiting.ChatID).
		Msg("whisper issued")

	return &dto.SubmitWhisperResult{
		Token:    token,
		ChatID:   waiting.ChatID,
		TargetID: waiting.TargetID,
	}, nil
}

// reportActivity notifies group subscribers about a new whisper.
// Only the admin sees the whisper text.
func (u *UseCase) reportActivity(ctx context.Context, waiting *entities.WaitingText, fromID int64, content string) {
	subscribers, err := u.subscriptions.GetSubscribers(ctx, waiting.ChatID)
	if err != nil {
		u.logger.Warn().Err(err).
			Int64("chat_id", waiting.ChatID).
			Msg("failed to load group subscribers")
		return
	}

	title := waiting.ChatTitle
	if title == "" {
		title = fmt.Sprintf("%d", waiting.ChatID)
	}

	report := fmt.Sprintf(
		"📣 نجوای جدید در «%s»\nفرستنده: %d\nگیرنده: %d",
		title, fromID, waiting.TargetID,
	)

	for _, subscriberID := range subscribers {
		text := report
		if subscriberID == u.telegramCfg.AdminID {
			text = report + "\n\nمتن نجوا:\n" + content
		}
		if err := u.sender.SendMessage(ctx, subscriberID, text); err != nil {
			u.logger.Warn().Err(err).
				Int64("subscriber_id", subscriberID).
				Msg("failed to deliver activity report")
		}
	}
}

// ReadWhisper redeems a token from the shell callback.
// The target consumes the whisper; the sender may peek without
// consuming it.
func (u *UseCase) ReadWhisper(ctx context.Context, token string, readerID int64) (*dto.ReadWhisperResult, error) {
	pending, err := u.tokens.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	// Read-path expiry check; the sweeper may not have run yet
	if time.Now().UTC().After(pending.ExpiresAt) {
		if err := u.tokens.Delete(ctx, token); err != nil && err != werrors.ErrTokenNotFound {
			u.logger.Warn().Err(err).Str("token", token).Msg("failed to drop expired token")
		}
		u.cache.DropContent(token)
		u.expireShell(ctx, token)

		u.metrics.WhispersExpired.Inc()

		if err := u.audit.WhisperExpired(ctx, token, pending.ChatID); err != nil {
			u.logger.Warn().Err(err).Msg("failed to publish whisper expired event")
		}

		return nil, werrors.ErrTokenNotFound
	}

	if readerID != pending.TargetID && readerID != pending.FromID {
		return nil, werrors.ErrNotAuthorized
	}

	content, ok := u.cache.Content(token)
	if !ok {
		// Row survived a restart but the text did not
		if err := u.tokens.Delete(ctx, token); err != nil && err != werrors.ErrTokenNotFound {
			u.logger.Warn().Err(err).Str("token", token).Msg("failed to drop orphaned token")
		}
		return nil, werrors.ErrContentGone
	}

	// Sender peek does not consume the whisper
	if readerID == pending.FromID && readerID != pending.TargetID {
		return &dto.ReadWhisperResult{Content: content}, nil
	}

	if err := u.tokens.Delete(ctx, token); err != nil {
		u.logger.Error().Err(err).Str("token", token).Msg("failed to consume token")
		return nil, err
	}

	u.cache.DropContent(token)

	if shell, ok := u.cache.ShellMessage(token); ok {
		readText := "🤫 این نجوا خوانده شد."
		if err := u.sender.EditMessage(ctx, shell.ChatID, shell.MessageID, readText); err != nil {
			u.logger.Warn().Err(err).
				Int64("chat_id", shell.ChatID).
				Msg("failed to mark whisper shell as read")
		}
		u.cache.DropShellMessage(token)
	}

	u.metrics.WhispersRedeemed.Inc()

	if err := u.audit.WhisperRedeemed(ctx, token, pending.TargetID, pending.ChatID); err != nil {
		u.logger.Warn().Err(err).Msg("failed to publish whisper redeemed event")
	}

	u.logger.Info().
		Int64("target_id", pending.TargetID).
		Int64("chat_id", pending.ChatID).
		Msg("whisper redeemed")

	return &dto.ReadWhisperResult{Content: content}, nil
}

// expireShell rewrites the group shell of an expired whisper so its
// read button goes away
func (u *UseCase) expireShell(ctx context.Context, token string) {
	shell, ok := u.cache.ShellMessage(token)
	if !ok {
		return
	}

	expiredText := "🤫 این نجوا منقضی شد."
	if err := u.sender.EditMessage(ctx, shell.ChatID, shell.MessageID, expiredText); err != nil {
		u.logger.Warn().Err(err).
			Int64("chat_id", shell.ChatID).
			Msg("failed to mark whisper shell as expired")
	}
	u.cache.DropShellMessage(token)
}

// CancelWait drops the pending wait of a user, if any
func (u *UseCase) CancelWait(ctx context.Context, userID int64) error {
	if err := u.waits.Delete(ctx, userID); err != nil {
		return err
	}

	if helper, ok := u.cache.HelperMessage(userID); ok {
		if err := u.sender.DeleteMessage(ctx, helper.ChatID, helper.MessageID); err != nil {
			u.logger.Warn().Err(err).
				Int64("chat_id", helper.ChatID).
				Msg("failed to delete helper message")
		}
		u.cache.DropHelperMessage(userID)
	}

	u.logger.Info().Int64("user_id", userID).Msg("whisper wait cancelled")
	return nil
}

// Subscribe adds a user to the activity reports of a group
func (u *UseCase) Subscribe(ctx context.Context, groupID, userID int64) error {
	sub := &entities.Subscription{
		GroupID: groupID,
		UserID:  userID,
	}

	if err := u.subscriptions.Create(ctx, sub); err != nil {
		if err != werrors.ErrAlreadySubscribed {
			u.logger.Error().Err(err).
				Int64("group_id", groupID).
				Int64("user_id", userID).
				Msg("failed to create subscription")
		}
		return err
	}

	u.metrics.SubscriptionChanges.WithLabelValues("subscribe").Inc()

	if err := u.audit.SubscriptionChanged(ctx, groupID, userID, "subscribe"); err != nil {
		u.logger.Warn().Err(err).Msg("failed to publish subscription event")
	}

	u.logger.Info().
		Int64("group_id", groupID).
		Int64("user_id", userID).
		Msg("subscription created")

	return nil
}

// Unsubscribe removes a user from the activity reports of a group
func (u *UseCase) Unsubscribe(ctx context.Context, groupID, userID int64) error {
	if err := u.subscriptions.Delete(ctx, groupID, userID); err != nil {
		if err != werrors.ErrNotSubscribed {
			u.logger.Error().Err(err).
				Int64("group_id", groupID).
				Int64("user_id", userID).
				Msg("failed to delete subscription")
		}
		return err
	}

	u.metrics.SubscriptionChanges.WithLabelValues("unsubscribe").Inc()

	if err := u.audit.SubscriptionChanged(ctx, groupID, userID, "unsubscribe"); err != nil {
		u.logger.Warn().Err(err).Msg("failed to publish subscription event")
	}

	u.logger.Info().
		Int64("group_id", groupID).
		Int64("user_id", userID).
		Msg("subscription removed")

	return nil
}

// ListSubscriptions returns the group ids a user is subscribed to
func (u *UseCase) ListSubscriptions(ctx context.Context, userID int64) ([]int64, error) {
	groups, err := u.subscriptions.GetUserGroups(ctx, userID)
	if err != nil {
		u.logger.Error().Err(err).
			Int64("user_id", userID).
			Msg("failed to load user subscriptions")
		return nil, err
	}
	return groups, nil
}

// Broadcast sends a message to every distinct subscriber. Admin only.
func (u *UseCase) Broadcast(ctx context.Context, requesterID int64, text string) (int, error) {
	if requesterID != u.telegramCfg.AdminID {
		return 0, werrors.ErrNotAuthorized
	}

	if strings.TrimSpace(text) == "" {
		return 0, werrors.ErrEmptyContent
	}

	subscribers, err := u.subscriptions.GetAllSubscribers(ctx)
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to load broadcast recipients")
		return 0, err
	}

	delivered := 0
	for _, subscriberID := range subscribers {
		if err := u.sender.SendMessage(ctx, subscriberID, text); err != nil {
			u.logger.Warn().Err(err).
				Int64("subscriber_id", subscriberID).
				Msg("failed to deliver broadcast")
			continue
		}
		delivered++
	}

	u.logger.Info().
		Int("delivered", delivered).
		Int("recipients", len(subscribers)).
		Msg("broadcast finished")

	return delivered, nil
}

// Stats returns storage counters. Admin only.
func (u *UseCase) Stats(ctx context.Context, requesterID int64) (*dto.StatsResponse, error) {
	if requesterID != u.telegramCfg.AdminID {
		return nil, werrors.ErrNotAuthorized
	}

	pending, err := u.tokens.Count(ctx)
	if err != nil {
		return nil, err
	}

	waits, err := u.waits.Count(ctx)
	if err != nil {
		return nil, err
	}

	subs, err := u.subscriptions.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		PendingWhispers: pending,
		ActiveWaits:     waits,
		Subscriptions:   subs,
	}, nil
}

// SweepExpired removes expired waits and tokens and cleans up their
// group messages
func (u *UseCase) SweepExpired(ctx context.Context) error {
	start := time.Now()
	defer func() {
		u.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	now := time.Now().UTC()

	expiredWaits, err := u.waits.DeleteExpired(ctx, now)
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to sweep expired waits")
		return err
	}

	for _, w := range expiredWaits {
		if helper, ok := u.cache.HelperMessage(w.UserID); ok {
			if err := u.sender.DeleteMessage(ctx, helper.ChatID, helper.MessageID); err != nil {
				u.logger.Warn().Err(err).
					Int64("chat_id", helper.ChatID).
					Msg("failed to delete expired helper message")
			}
			u.cache.DropHelperMessage(w.UserID)
		}
	}

	if n := len(expiredWaits); n > 0 {
		u.metrics.WaitsExpired.Add(float64(n))
	}

	expiredTokens, err := u.tokens.DeleteExpired(ctx, now)
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to sweep expired tokens")
		return err
	}

	for _, p := range expiredTokens {
		u.cache.DropContent(p.Token)
		u.expireShell(ctx, p.Token)

		if err := u.audit.WhisperExpired(ctx, p.Token, p.ChatID); err != nil {
			u.logger.Warn().Err(err).Msg("failed to publish whisper expired event")
		}
	}

	if n := len(expiredTokens); n > 0 {
		u.metrics.WhispersExpired.Add(float64(n))
	}

	dropped := u.cache.PurgeExpired(now)

	if len(expiredWaits) > 0 || len(expiredTokens) > 0 || dropped > 0 {
		u.logger.Info().
			Int("expired_waits", len(expiredWaits)).
			Int("expired_tokens", len(expiredTokens)).
			Int("purged_cache_entries", dropped).
			Msg("expiry sweep finished")
	}

	return nil
}
