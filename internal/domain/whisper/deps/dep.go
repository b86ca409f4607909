package deps

import (
	"context"
	"time"

	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
)

// TokenRepository manages pending whisper tokens
type TokenRepository interface {
	Create(ctx context.Context, token *entities.PendingToken) error
	Get(ctx context.Context, token string) (*entities.PendingToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) ([]entities.PendingToken, error)
	Count(ctx context.Context) (int64, error)
}

// WaitingRepository manages the DM collector state
type WaitingRepository interface {
	Upsert(ctx context.Context, waiting *entities.WaitingText) error
	Get(ctx context.Context, userID int64) (*entities.WaitingText, error)
	Delete(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, now time.Time) ([]entities.WaitingText, error)
	Count(ctx context.Context) (int64, error)
}

// SubscriptionRepository manages group activity report subscriptions
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entities.Subscription) error
	Delete(ctx context.Context, groupID, userID int64) error
	GetSubscribers(ctx context.Context, groupID int64) ([]int64, error)
	GetUserGroups(ctx context.Context, userID int64) ([]int64, error)
	GetAllSubscribers(ctx context.Context) ([]int64, error)
	Count(ctx context.Context) (int64, error)
}

// WhisperCache holds whisper texts and bookkeeping messages in memory.
// Texts are keyed by token and must never reach persistent storage.
type WhisperCache interface {
	PutContent(token, content string, expiresAt time.Time)
	Content(token string) (string, bool)
	DropContent(token string)

	PutHelperMessage(userID int64, msg entities.StoredMessage)
	HelperMessage(userID int64) (entities.StoredMessage, bool)
	DropHelperMessage(userID int64)

	PutShellMessage(token string, msg entities.StoredMessage)
	ShellMessage(token string) (entities.StoredMessage, bool)
	DropShellMessage(token string)

	PurgeExpired(now time.Time) int
}

// AuditProducer publishes whisper lifecycle events to the audit bus
type AuditProducer interface {
	WhisperIssued(ctx context.Context, token string, fromID, targetID, chatID int64) error
	WhisperRedeemed(ctx context.Context, token string, targetID, chatID int64) error
	WhisperExpired(ctx context.Context, token string, chatID int64) error
	SubscriptionChanged(ctx context.Context, groupID, userID int64, action string) error
	Close() error
}

// TelegramSender sends and maintains bot messages.
// Implemented by the delivery layer and injected into the usecase after
// construction to break the cycle between them.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendWhisperShell(ctx context.Context, chatID int64, replyTo int, token, text string) (int, error)
	SendHelperMessage(ctx context.Context, chatID int64, replyTo int, text, deepLink string) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
