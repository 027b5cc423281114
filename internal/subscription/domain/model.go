package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusPastDue  Status = "PAST_DUE"
	StatusCanceled Status = "CANCELED"
	StatusTrialing Status = "TRIALING"
)

// Billable reports whether the subscription grants paid-plan limits.
func (s Status) Billable() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription is one-to-one with a user. Status transitions are driven
// exclusively by verified webhook events; user actions only request a change
// upstream.
type Subscription struct {
	ID                   snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID               string       `json:"user_id" gorm:"type:text;not null;uniqueIndex"`
	StripeCustomerID     string       `json:"stripe_customer_id" gorm:"type:text"`
	StripeSubscriptionID *string      `json:"stripe_subscription_id" gorm:"type:text"`
	StripePriceID        string       `json:"stripe_price_id" gorm:"type:text"`
	Status               Status       `json:"status" gorm:"type:text;not null"`
	CurrentPeriodStart   *time.Time   `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time   `json:"current_period_end"`
	CancelAtPeriodEnd    bool         `json:"cancel_at_period_end" gorm:"not null;default:false"`
	CreatedAt            time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt            time.Time    `json:"updated_at" gorm:"not null"`
}

func (Subscription) TableName() string { return "subscriptions" }
