package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
	werrors "github.com/oldkaseb/najbot/internal/domain/whisper/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitingRepository struct {
	db *gorm.DB
}

func NewWaitingRepository(db *gorm.DB) deps.WaitingRepository {
	return &WaitingRepository{db: db}
}

// Upsert replaces any previous wait of the same user, so a fresh trigger
// always wins
func (r *WaitingRepository) Upsert(ctx context.Context, waiting *entities.WaitingText) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(waiting)

	if result.Error != nil {
		return werrors.ErrDatabaseOperation
	}

	return nil
}

func (r *WaitingRepository) Get(ctx context.Context, userID int64) (*entities.WaitingText, error) {
	var waiting entities.WaitingText
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&waiting)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, werrors.ErrWaitingNotFound
		}
		return nil, werrors.ErrDatabaseOperation
	}

	return &waiting, nil
}

func (r *WaitingRepository) Delete(ctx context.Context, userID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&entities.WaitingText{})

	if result.Error != nil {
		return werrors.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return werrors.ErrWaitingNotFound
	}

	return nil
}

func (r *WaitingRepository) DeleteExpired(ctx context.Context, now time.Time) ([]entities.WaitingText, error) {
	var expired []entities.WaitingText
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Find(&expired)

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	if len(expired) == 0 {
		return nil, nil
	}

	userIDs := make([]int64, 0, len(expired))
	for _, w := range expired {
		userIDs = append(userIDs, w.UserID)
	}

	result = r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Delete(&entities.WaitingText{})

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	return expired, nil
}

func (r *WaitingRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entities.WaitingText{}).
		Count(&count)

	if result.Error != nil {
		return 0, werrors.ErrDatabaseOperation
	}

	return count, nil
}
