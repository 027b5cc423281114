package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrNoActiveSubscription = errors.New("no_active_subscription")
)

type Repository interface {
	// Upsert inserts or updates the row keyed by user_id. The unique index on
	// user_id makes concurrent first inserts for the same user converge on a
	// single row.
	Upsert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	// InsertIfAbsent creates the row only when no row exists for user_id yet;
	// a concurrent winner's row is left untouched.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, sub *Subscription) error
	// ClaimCustomerID fills stripe_customer_id only when the row has none; a
	// concurrently claimed id stays.
	ClaimCustomerID(ctx context.Context, db *gorm.DB, userID, customerID string) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID string) (*Subscription, error)
	FindByStripeSubscriptionID(ctx context.Context, db *gorm.DB, stripeSubID string) (*Subscription, error)
	MarkCanceled(ctx context.Context, db *gorm.DB, userID string) error
	SetStatus(ctx context.Context, db *gorm.DB, userID string, status Status) error
	SetCancelAtPeriodEnd(ctx context.Context, db *gorm.DB, userID string, cancel bool) error
}

type Service interface {
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	// MonthlyTokenLimit resolves the caller's plan limit from the subscription
	// row at call time; it is never cached.
	MonthlyTokenLimit(ctx context.Context, userID string) (int64, error)
	Cancel(ctx context.Context, userID string) error
	Resume(ctx context.Context, userID string) error
}
