package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
)

// whisperCache implements the in-memory side storage of the whisper flow:
// whisper content keyed by token (content is never persisted), helper
// message ids keyed by waiting user, shell message ids keyed by token.
type whisperCache struct {
	mu       sync.RWMutex
	contents map[string]contentEntry
	helpers  map[int64]entities.StoredMessage
	shells   map[string]entities.StoredMessage
	logger   zerolog.Logger
}

type contentEntry struct {
	content   string
	expiresAt time.Time
}

// NewWhisperCache creates a new WhisperCache instance
func NewWhisperCache(logger zerolog.Logger) deps.WhisperCache {
	return &whisperCache{
		contents: make(map[string]contentEntry),
		helpers:  make(map[int64]entities.StoredMessage),
		shells:   make(map[string]entities.StoredMessage),
		logger:   logger.With().Str("component", "whisper_cache").Logger(),
	}
}

// PutContent stores whisper content for a token until expiresAt
func (c *whisperCache) PutContent(token, content string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.contents[token] = contentEntry{content: content, expiresAt: expiresAt}
}

// Content returns the cached whisper content for a token
func (c *whisperCache) Content(token string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.contents[token]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.content, true
}

// DropContent removes cached whisper content for a token
func (c *whisperCache) DropContent(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.contents, token)
}

// PutHelperMessage remembers the "go to DM" helper message for a waiting user
func (c *whisperCache) PutHelperMessage(userID int64, msg entities.StoredMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.helpers[userID] = msg
}

// HelperMessage returns the helper message for a waiting user
func (c *whisperCache) HelperMessage(userID int64) (entities.StoredMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msg, ok := c.helpers[userID]
	return msg, ok
}

// DropHelperMessage removes the helper message entry for a user
func (c *whisperCache) DropHelperMessage(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.helpers, userID)
}

// PutShellMessage remembers the sealed shell message posted for a token
func (c *whisperCache) PutShellMessage(token string, msg entities.StoredMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shells[token] = msg
}

// ShellMessage returns the shell message posted for a token
func (c *whisperCache) ShellMessage(token string) (entities.StoredMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msg, ok := c.shells[token]
	return msg, ok
}

// DropShellMessage removes the shell message entry for a token
func (c *whisperCache) DropShellMessage(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.shells, token)
}

// PurgeExpired drops expired content entries and returns how many were removed.
// Helper/shell entries are dropped explicitly by the flow and the sweeper;
// content carries its own deadline.
func (c *whisperCache) PurgeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for token, entry := range c.contents {
		if now.After(entry.expiresAt) {
			delete(c.contents, token)
			delete(c.shells, token)
			purged++
		}
	}

	if purged > 0 {
		c.logger.Debug().Int("purged", purged).Msg("purged expired whisper content")
	}

	return purged
}
