package repository

import (
	"context"
	"errors"

	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_customer_id",
			"stripe_subscription_id",
			"stripe_price_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(sub).Error
}

func (r *repo) ClaimCustomerID(ctx context.Context, db *gorm.DB, userID, customerID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND (stripe_customer_id = '' OR stripe_customer_id IS NULL)`,
		customerID,
		userID,
	).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repo) FindByStripeSubscriptionID(ctx context.Context, db *gorm.DB, stripeSubID string) (*subscriptiondomain.Subscription, error) {
	var sub subscriptiondomain.Subscription
	err := db.WithContext(ctx).
		Where("stripe_subscription_id = ?", stripeSubID).
		Take(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, subscriptiondomain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repo) MarkCanceled(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, stripe_subscription_id = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`,
		subscriptiondomain.StatusCanceled,
		userID,
	).Error
}

func (r *repo) SetStatus(ctx context.Context, db *gorm.DB, userID string, status subscriptiondomain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		status,
		userID,
	).Error
}

func (r *repo) SetCancelAtPeriodEnd(ctx context.Context, db *gorm.DB, userID string, cancel bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET cancel_at_period_end = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		cancel,
		userID,
	).Error
}
