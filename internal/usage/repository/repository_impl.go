package repository

import (
	"context"
	"time"

	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ev *usagedomain.UsageEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO usage_events (id, user_id, type, amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.UserID,
		ev.Type,
		ev.Amount,
		ev.Description,
		ev.CreatedAt,
	).Error
}

func (r *repo) SumSince(ctx context.Context, db *gorm.DB, userID string, typ usagedomain.EventType, since time.Time) (int64, error) {
	var total int64
	stmt := db.WithContext(ctx).
		Model(&usagedomain.UsageEvent{}).
		Where("user_id = ? AND created_at >= ?", userID, since)
	if typ != "" {
		stmt = stmt.Where("type = ?", typ)
	}
	err := stmt.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
