package postgres

import (
	"context"
	"errors"

	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
	"github.com/oldkaseb/najbot/internal/domain/whisper/entities"
	werrors "github.com/oldkaseb/najbot/internal/domain/whisper/errors"
	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) deps.SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entities.Subscription) error {
	result := r.db.WithContext(ctx).Create(sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return werrors.ErrAlreadySubscribed
		}
		return werrors.ErrDatabaseOperation
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, groupID, userID int64) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&entities.Subscription{})

	if result.Error != nil {
		return werrors.ErrDatabaseOperation
	}

	if result.RowsAffected == 0 {
		return werrors.ErrNotSubscribed
	}

	return nil
}

func (r *SubscriptionRepository) GetSubscribers(ctx context.Context, groupID int64) ([]int64, error) {
	var userIDs []int64
	result := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &userIDs)

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	return userIDs, nil
}

func (r *SubscriptionRepository) GetUserGroups(ctx context.Context, userID int64) ([]int64, error) {
	var groupIDs []int64
	result := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &groupIDs)

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	return groupIDs, nil
}

// GetAllSubscribers returns every distinct subscriber, used for broadcasts
func (r *SubscriptionRepository) GetAllSubscribers(ctx context.Context) ([]int64, error) {
	var userIDs []int64
	result := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Distinct("user_id").
		Pluck("user_id", &userIDs)

	if result.Error != nil {
		return nil, werrors.ErrDatabaseOperation
	}

	return userIDs, nil
}

func (r *SubscriptionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Count(&count)

	if result.Error != nil {
		return 0, werrors.ErrDatabaseOperation
	}

	return count, nil
}
