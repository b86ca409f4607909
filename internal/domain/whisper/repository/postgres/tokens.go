package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
	werrors "github.com/oldkaseb/najbot/internal/domain/whisper/errors"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) deps.TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *entities.PendingToken) error {
	result := r.db.WithContext(ctx).Create(token)
	if result.Error != nil {
		return werrors.ErrDatabaseOperation
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, token string) (*entities.PendingToken, error) {
	var pending entities.PendingToken
	result := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&pending)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, werrors.ErrTokenNotFound
		}
		return nil, werrors.ErrDatabaseOperation
	}

	return &pending, nil
}

func (r *TokenRepository) Delete(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&entities.PendingToken{})

	if result.Error != nil {
		return werrors.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return werrors.ErrTokenNotFound
	}

	return nil
}

// DeleteExpired removes expired tokens and returns the removed rows so the
// sweeper can clean up their group messages
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) ([]entities.PendingToken, error) {
	var expired []entities.PendingToken
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Find(&expired)

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	if len(expired) == 0 {
		return nil, nil
	}

	tokens := make([]string, 0, len(expired))
	for _, p := range expired {
		tokens = append(tokens, p.Token)
	}

	result = r.db.WithContext(ctx).
		Where("token IN ?", tokens).
		Delete(&entities.PendingToken{})

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	return expired, nil
}

func (r *TokenRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entities.PendingToken{}).
		Count(&count)

	if result.Error != nil {
		return 0, werrors.ErrDatabaseOperation
	}

	return count, nil
}
