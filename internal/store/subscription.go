package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"facility-booking-backend/internal/model"
)

// UpsertSubscription creates a push subscription or replaces its keys and owner.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// GetSubscription returns the subscription registered for endpoint or ErrNotFound.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}

// DeleteSubscription removes the subscription for endpoint. Missing endpoints are not an error.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// SubscriptionsForUser returns every push subscription owned by userID.
func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}
