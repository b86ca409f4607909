package buissines

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
	"github.com/oldkaseb/najbot/internal/domain/whisper/dto"
	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
	werrors "github.com/oldkaseb/najbot/internal/domain/whisper/errors"
	"github.com/oldkaseb/najbot/internal/infrastructure/cache"
	"github.com/oldkaseb/najbot/internal/infrastructure/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTokenRepository is a mock implementation of deps.TokenRepository
type mockTokenRepository struct {
	createFunc        func(ctx context.Context, token *entities.PendingToken) error
	getFunc           func(ctx context.Context, token string) (*entities.PendingToken, error)
	deleteFunc        func(ctx context.Context, token string) error
	deleteExpiredFunc func(ctx context.Context, now time.Time) ([]entities.PendingToken, error)
	countFunc         func(ctx context.Context) (int64, error)
}

func (m *mockTokenRepository) Create(ctx context.Context, token *entities.PendingToken) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, token)
	}
	return nil
}

func (m *mockTokenRepository) Get(ctx context.Context, token string) (*entities.PendingToken, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, token)
	}
	return nil, werrors.ErrTokenNotFound
}

func (m *mockTokenRepository) Delete(ctx context.Context, token string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, token)
	}
	return nil
}

func (m *mockTokenRepository) DeleteExpired(ctx context.Context, now time.Time) ([]entities.PendingToken, error) {
	if m.deleteExpiredFunc != nil {
		return m.deleteExpiredFunc(ctx, now)
	}
	return nil, nil
}

func (m *mockTokenRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

// mockWaitingRepository is a mock implementation of deps.WaitingRepository
type mockWaitingRepository struct {
	upsertFunc        func(ctx context.Context, waiting *entities.WaitingText) error
	getFunc           func(ctx context.Context, userID int64) (*entities.WaitingText, error)
	deleteFunc        func(ctx context.Context, userID int64) error
	deleteExpiredFunc func(ctx context.Context, now time.Time) ([]entities.WaitingText, error)
	countFunc         func(ctx context.Context) (int64, error)
}

func (m *mockWaitingRepository) Upsert(ctx context.Context, waiting *entities.WaitingText) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, waiting)
	}
	return nil
}

func (m *mockWaitingRepository) Get(ctx context.Context, userID int64) (*entities.WaitingText, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, werrors.ErrWaitingNotFound
}

func (m *mockWaitingRepository) Delete(ctx context.Context, userID int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID)
	}
	return nil
}

func (m *mockWaitingRepository) DeleteExpired(ctx context.Context, now time.Time) ([]entities.WaitingText, error) {
	if m.deleteExpiredFunc != nil {
		return m.deleteExpiredFunc(ctx, now)
	}
	return nil, nil
}

func (m *mockWaitingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

// mockSubscriptionRepository is a mock implementation of deps.SubscriptionRepository
type mockSubscriptionRepository struct {
	createFunc            func(ctx context.Context, sub *entities.Subscription) error
	deleteFunc            func(ctx context.Context, groupID, userID int64) error
	getSubscribersFunc    func(ctx context.Context, groupID int64) ([]int64, error)
	getUserGroupsFunc     func(ctx context.Context, userID int64) ([]int64, error)
	getAllSubscribersFunc func(ctx context.Context) ([]int64, error)
	countFunc             func(ctx context.Context) (int64, error)
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepository) Delete(ctx context.Context, groupID, userID int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, groupID, userID)
	}
	return nil
}

func (m *mockSubscriptionRepository) GetSubscribers(ctx context.Context, groupID int64) ([]int64, error) {
	if m.getSubscribersFunc != nil {
		return m.getSubscribersFunc(ctx, groupID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) GetUserGroups(ctx context.Context, userID int64) ([]int64, error) {
	if m.getUserGroupsFunc != nil {
		return m.getUserGroupsFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) GetAllSubscribers(ctx context.Context) ([]int64, error) {
	if m.getAllSubscribersFunc != nil {
		return m.getAllSubscribersFunc(ctx)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

// mockAuditProducer is a mock implementation of deps.AuditProducer
type mockAuditProducer struct {
	issuedCount   int
	redeemedCount int
	expiredCount  int
	subEvents     []string
}

func (m *mockAuditProducer) WhisperIssued(ctx context.Context, token string, fromID, targetID, chatID int64) error {
	m.issuedCount++
	return nil
}

func (m *mockAuditProducer) WhisperRedeemed(ctx context.Context, token string, targetID, chatID int64) error {
	m.redeemedCount++
	return nil
}

func (m *mockAuditProducer) WhisperExpired(ctx context.Context, token string, chatID int64) error {
	m.expiredCount++
	return nil
}

func (m *mockAuditProducer) SubscriptionChanged(ctx context.Context, groupID, userID int64, action string) error {
	m.subEvents = append(m.subEvents, action)
	return nil
}

func (m *mockAuditProducer) Close() error {
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
	link   string
}

// mockSender is a mock implementation of deps.TelegramSender
type mockSender struct {
	sent        []sentMessage
	shells      []sentMessage
	helpers     []sentMessage
	edits       []sentMessage
	deleted     []entities.StoredMessage
	sendErr     error
	nextID      int
	sendFailFor map[int64]bool
}

func (m *mockSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	if m.sendFailFor[chatID] {
		return werrors.ErrDatabaseOperation
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *mockSender) SendWhisperShell(ctx context.Context, chatID int64, replyTo int, token, text string) (int, error) {
	m.nextID++
	m.shells = append(m.shells, sentMessage{chatID: chatID, text: text})
	return m.nextID, nil
}

func (m *mockSender) SendHelperMessage(ctx context.Context, chatID int64, replyTo int, text, deepLink string) (int, error) {
	m.nextID++
	m.helpers = append(m.helpers, sentMessage{chatID: chatID, text: text, link: deepLink})
	return m.nextID, nil
}

func (m *mockSender) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	m.edits = append(m.edits, sentMessage{chatID: chatID, text: text})
	return nil
}

func (m *mockSender) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.deleted = append(m.deleted, entities.StoredMessage{ChatID: chatID, MessageID: messageID})
	return nil
}

type ucFixture struct {
	uc     *UseCase
	tokens *mockTokenRepository
	waits  *mockWaitingRepository
	subs   *mockSubscriptionRepository
	audit  *mockAuditProducer
	sender *mockSender
	cache  deps.WhisperCache
}

func newFixture() *ucFixture {
	tokens := &mockTokenRepository{}
	waits := &mockWaitingRepository{}
	subs := &mockSubscriptionRepository{}
	audit := &mockAuditProducer{}
	sender := &mockSender{}
	whisperCache := cache.NewWhisperCache(zerolog.Nop())

	uc := NewUseCase(
		tokens,
		waits,
		subs,
		whisperCache,
		audit,
		metrics.GetDefaultMetrics(),
		&config.WhisperConfig{
			WaitTTL:       15 * time.Minute,
			ReadTTL:       24 * time.Hour,
			MaxAlertChars: 190,
			SweepInterval: time.Minute,
		},
		&config.TelegramConfig{
			BotUsername: "najbot",
			AdminID:     999,
		},
		zerolog.Nop(),
	)
	uc.SetSender(sender)

	return &ucFixture{
		uc:     uc,
		tokens: tokens,
		waits:  waits,
		subs:   subs,
		audit:  audit,
		sender: sender,
		cache:  whisperCache,
	}
}

func TestBeginWhisper(t *testing.T) {
	f := newFixture()

	var stored *entities.WaitingText
	f.waits.upsertFunc = func(ctx context.Context, waiting *entities.WaitingText) error {
		stored = waiting
		return nil
	}

	err := f.uc.BeginWhisper(context.Background(), dto.BeginWhisperRequest{
		FromID:     1,
		FromName:   "Ali",
		TargetID:   2,
		TargetName: "Sara",
		ChatID:     -100,
		ChatTitle:  "Friends",
	})
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, int64(1), stored.UserID)
	assert.Equal(t, int64(2), stored.TargetID)
	assert.Equal(t, int64(-100), stored.ChatID)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), stored.ExpiresAt, time.Minute)

	require.Len(t, f.sender.helpers, 1)
	assert.Equal(t, int64(-100), f.sender.helpers[0].chatID)
	assert.Equal(t, "https://t.me/najbot?start=whisper", f.sender.helpers[0].link)
}

func TestBeginWhisperNoUsername(t *testing.T) {
	f := newFixture()
	f.uc.telegramCfg.BotUsername = ""

	err := f.uc.BeginWhisper(context.Background(), dto.BeginWhisperRequest{
		FromID:   1,
		TargetID: 2,
		ChatID:   -100,
	})
	require.NoError(t, err)

	// No username means no t.me link; the helper still goes out
	require.Len(t, f.sender.helpers, 1)
	assert.Empty(t, f.sender.helpers[0].link)
}

func TestBeginWhisperSelf(t *testing.T) {
	f := newFixture()

	err := f.uc.BeginWhisper(context.Background(), dto.BeginWhisperRequest{
		FromID:   1,
		TargetID: 1,
		ChatID:   -100,
	})
	assert.ErrorIs(t, err, werrors.ErrSelfWhisper)
	assert.Empty(t, f.sender.helpers)
}

func TestBeginWhisperReplacesHelper(t *testing.T) {
	f := newFixture()

	req := dto.BeginWhisperRequest{FromID: 1, TargetID: 2, ChatID: -100}
	require.NoError(t, f.uc.BeginWhisper(context.Background(), req))
	require.NoError(t, f.uc.BeginWhisper(context.Background(), req))

	// The first helper message was deleted when the second trigger arrived
	assert.Len(t, f.sender.helpers, 2)
	assert.Len(t, f.sender.deleted, 1)
}

func TestSubmitWhisperNoWait(t *testing.T) {
	f := newFixture()

	_, err := f.uc.SubmitWhisper(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, werrors.ErrWaitingNotFound)
}

func TestSubmitWhisperExpiredWait(t *testing.T) {
	f := newFixture()

	f.waits.getFunc = func(ctx context.Context, userID int64) (*entities.WaitingText, error) {
		return &entities.WaitingText{
			UserID:    userID,
			TargetID:  2,
			ChatID:    -100,
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}, nil
	}

	waitDeleted := false
	f.waits.deleteFunc = func(ctx context.Context, userID int64) error {
		waitDeleted = true
		return nil
	}

	_, err := f.uc.SubmitWhisper(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, werrors.ErrWaitingExpired)
	assert.True(t, waitDeleted)
}

func TestSubmitWhisperValidation(t *testing.T) {
	f := newFixture()
	f.waits.getFunc = func(ctx context.Context, userID int64) (*entities.WaitingText, error) {
		return &entities.WaitingText{
			UserID:    userID,
			TargetID:  2,
			ChatID:    -100,
			ExpiresAt: time.Now().UTC().Add(time.Minute),
		}, nil
	}

	_, err := f.uc.SubmitWhisper(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, werrors.ErrEmptyContent)

	_, err = f.uc.SubmitWhisper(context.Background(), 1, strings.Repeat("x", 191))
	assert.ErrorIs(t, err, werrors.ErrContentTooLong)
}

func TestSubmitWhisper(t *testing.T) {
	f := newFixture()

	f.waits.getFunc = func(ctx context.Context, userID int64) (*entities.WaitingText, error) {
		return &entities.WaitingText{
			UserID:    userID,
			TargetID:  2,
			ChatID:    -100,
			ChatTitle: "Friends",
			ExpiresAt: time.Now().UTC().Add(time.Minute),
		}, nil
	}

	var created *entities.PendingToken
	f.tokens.createFunc = func(ctx context.Context, token *entities.PendingToken) error {
		created = token
		return nil
	}

	waitDeleted := false
	f.waits.deleteFunc = func(ctx context.Context, userID int64) error {
		waitDeleted = true
		return nil
	}

	f.subs.getSubscribersFunc = func(ctx context.Context, groupID int64) ([]int64, error) {
		return []int64{50, 999}, nil
	}

	result, err := f.uc.SubmitWhisper(context.Background(), 1, "secret text")
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, result.Token, created.Token)
	assert.Equal(t, int64(1), created.FromID)
	assert.Equal(t, int64(2), created.TargetID)
	assert.Equal(t, int64(-100), created.ChatID)
	assert.True(t, waitDeleted)

	require.Len(t, f.sender.shells, 1)
	assert.Equal(t, int64(-100), f.sender.shells[0].chatID)

	content, ok := f.cache.Content(result.Token)
	require.True(t, ok)
	assert.Equal(t, "secret text", content)

	assert.Equal(t, 1, f.audit.issuedCount)

	// Both subscribers got a report, only the admin saw the text
	require.Len(t, f.sender.sent, 2)
	for _, msg := range f.sender.sent {
		if msg.chatID == 999 {
			assert.Contains(t, msg.text, "secret text")
		} else {
			assert.NotContains(t, msg.text, "secret text")
		}
	}
}

func TestReadWhisperNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.uc.ReadWhisper(context.Background(), "missing", 2)
	assert.ErrorIs(t, err, werrors.ErrTokenNotFound)
}

func TestReadWhisperExpiredToken(t *testing.T) {
	f := newFixture()

	f.cache.PutShellMessage("tok", entities.StoredMessage{ChatID: -100, MessageID: 7})
	f.tokens.getFunc = func(ctx context.Context, token string) (*entities.PendingToken, error) {
		return &entities.PendingToken{
			Token:     token,
			FromID:    1,
			TargetID:  2,
			ChatID:    -100,
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}, nil
	}

	deleted := false
	f.tokens.deleteFunc = func(ctx context.Context, token string) error {
		deleted = true
		return nil
	}

	_, err := f.uc.ReadWhisper(context.Background(), "tok", 2)
	assert.ErrorIs(t, err, werrors.ErrTokenNotFound)
	assert.True(t, deleted)
	assert.Equal(t, 1, f.audit.expiredCount)

	// The shell lost its read button; the sweeper will not see this row again
	require.Len(t, f.sender.edits, 1)
	assert.Contains(t, f.sender.edits[0].text, "منقضی")

	_, ok := f.cache.ShellMessage("tok")
	assert.False(t, ok)
}

func TestReadWhisperWrongReader(t *testing.T) {
	f := newFixture()

	f.tokens.getFunc = func(ctx context.Context, token string) (*entities.PendingToken, error) {
		return &entities.PendingToken{Token: token, FromID: 1, TargetID: 2, ChatID: -100, ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	_, err := f.uc.ReadWhisper(context.Background(), "tok", 3)
	assert.ErrorIs(t, err, werrors.ErrNotAuthorized)
}

func TestReadWhisperByTarget(t *testing.T) {
	f := newFixture()

	f.cache.PutContent("tok", "hidden", time.Now().Add(time.Hour))
	f.tokens.getFunc = func(ctx context.Context, token string) (*entities.PendingToken, error) {
		return &entities.PendingToken{Token: token, FromID: 1, TargetID: 2, ChatID: -100, ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	consumed := false
	f.tokens.deleteFunc = func(ctx context.Context, token string) error {
		consumed = true
		return nil
	}

	result, err := f.uc.ReadWhisper(context.Background(), "tok", 2)
	require.NoError(t, err)
	assert.Equal(t, "hidden", result.Content)
	assert.True(t, consumed)
	assert.Equal(t, 1, f.audit.redeemedCount)

	_, ok := f.cache.Content("tok")
	assert.False(t, ok)
}

func TestReadWhisperSenderPeek(t *testing.T) {
	f := newFixture()

	f.cache.PutContent("tok", "hidden", time.Now().Add(time.Hour))
	f.tokens.getFunc = func(ctx context.Context, token string) (*entities.PendingToken, error) {
		return &entities.PendingToken{Token: token, FromID: 1, TargetID: 2, ChatID: -100, ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	consumed := false
	f.tokens.deleteFunc = func(ctx context.Context, token string) error {
		consumed = true
		return nil
	}

	result, err := f.uc.ReadWhisper(context.Background(), "tok", 1)
	require.NoError(t, err)
	assert.Equal(t, "hidden", result.Content)
	assert.False(t, consumed)

	// Still readable by the target afterwards
	_, ok := f.cache.Content("tok")
	assert.True(t, ok)
}

func TestReadWhisperContentGone(t *testing.T) {
	f := newFixture()

	f.tokens.getFunc = func(ctx context.Context, token string) (*entities.PendingToken, error) {
		return &entities.PendingToken{Token: token, FromID: 1, TargetID: 2, ChatID: -100, ExpiresAt: time.Now().UTC().Add(time.Hour)}, nil
	}

	_, err := f.uc.ReadWhisper(context.Background(), "tok", 2)
	assert.ErrorIs(t, err, werrors.ErrContentGone)
}

func TestSubscribe(t *testing.T) {
	f := newFixture()

	err := f.uc.Subscribe(context.Background(), -100, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"subscribe"}, f.audit.subEvents)
}

func TestSubscribeDuplicate(t *testing.T) {
	f := newFixture()
	f.subs.createFunc = func(ctx context.Context, sub *entities.Subscription) error {
		return werrors.ErrAlreadySubscribed
	}

	err := f.uc.Subscribe(context.Background(), -100, 1)
	assert.ErrorIs(t, err, werrors.ErrAlreadySubscribed)
	assert.Empty(t, f.audit.subEvents)
}

func TestUnsubscribeNotSubscribed(t *testing.T) {
	f := newFixture()
	f.subs.deleteFunc = func(ctx context.Context, groupID, userID int64) error {
		return werrors.ErrNotSubscribed
	}

	err := f.uc.Unsubscribe(context.Background(), -100, 1)
	assert.ErrorIs(t, err, werrors.ErrNotSubscribed)
}

func TestBroadcastNotAdmin(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Broadcast(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, werrors.ErrNotAuthorized)
}

func TestBroadcast(t *testing.T) {
	f := newFixture()

	f.subs.getAllSubscribersFunc = func(ctx context.Context) ([]int64, error) {
		return []int64{10, 20, 30}, nil
	}
	f.sender.sendFailFor = map[int64]bool{20: true}

	delivered, err := f.uc.Broadcast(context.Background(), 999, "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
}

func TestStatsNotAdmin(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Stats(context.Background(), 1)
	assert.ErrorIs(t, err, werrors.ErrNotAuthorized)
}

func TestStats(t *testing.T) {
	f := newFixture()

	f.tokens.countFunc = func(ctx context.Context) (int64, error) { return 3, nil }
	f.waits.countFunc = func(ctx context.Context) (int64, error) { return 1, nil }
	f.subs.countFunc = func(ctx context.Context) (int64, error) { return 7, nil }

	stats, err := f.uc.Stats(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.PendingWhispers)
	assert.Equal(t, int64(1), stats.ActiveWaits)
	assert.Equal(t, int64(7), stats.Subscriptions)
}

func TestSweepExpired(t *testing.T) {
	f := newFixture()

	f.waits.deleteExpiredFunc = func(ctx context.Context, now time.Time) ([]entities.WaitingText, error) {
		return []entities.WaitingText{{UserID: 1, TargetID: 2, ChatID: -100}}, nil
	}
	f.tokens.deleteExpiredFunc = func(ctx context.Context, now time.Time) ([]entities.PendingToken, error) {
		return []entities.PendingToken{{Token: "tok", FromID: 1, TargetID: 2, ChatID: -100}}, nil
	}

	f.cache.PutContent("tok", "hidden", time.Now().Add(time.Hour))

	err := f.uc.SweepExpired(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.audit.expiredCount)

	_, ok := f.cache.Content("tok")
	assert.False(t, ok)
}
