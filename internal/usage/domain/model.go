package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EventType string

const (
	EventTypeAIGeneration EventType = "AI_GENERATION"
)

// UsageEvent is append-only; monthly totals are computed by aggregation over
// created_at, never kept as a running counter.
type UsageEvent struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID      string       `json:"user_id" gorm:"type:text;not null;index:idx_usage_events_user_created"`
	Type        EventType    `json:"type" gorm:"type:text;not null"`
	Amount      int64        `json:"amount" gorm:"not null"`
	Description string       `json:"description" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;index:idx_usage_events_user_created"`
}

func (UsageEvent) TableName() string { return "usage_events" }

var (
	ErrInvalidAmount      = errors.New("invalid_usage_amount")
	ErrStorageUnavailable = errors.New("usage_storage_unavailable")
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, ev *UsageEvent) error
	// SumSince totals amount for the user over created_at >= since, optionally
	// filtered by type (empty matches all).
	SumSince(ctx context.Context, db *gorm.DB, userID string, typ EventType, since time.Time) (int64, error)
}

type Ledger interface {
	Record(ctx context.Context, userID string, amount int64, typ EventType, description string) error
	MonthlyUsage(ctx context.Context, userID string, typ EventType) (int64, error)
	// HasExceededLimit reports monthly usage of the given type >= limit. A
	// limit equal to the unlimited sentinel always reports false.
	HasExceededLimit(ctx context.Context, userID string, typ EventType, limit int64) (bool, error)
}
