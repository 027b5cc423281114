package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"gorm.io/gorm"
)

type webhookEventRepo struct{}

func ProvideWebhookEvents() billingdomain.WebhookEventRepository {
	return &webhookEventRepo{}
}

func (r *webhookEventRepo) Insert(ctx context.Context, db *gorm.DB, ev *billingdomain.WebhookEvent) error {
	return db.WithContext(ctx).Create(ev).Error
}

func (r *webhookEventRepo) FindByProviderEventID(ctx context.Context, db *gorm.DB, providerEventID string) (*billingdomain.WebhookEvent, error) {
	var ev billingdomain.WebhookEvent
	err := db.WithContext(ctx).
		Where("provider_event_id = ?", providerEventID).
		Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *webhookEventRepo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed = ?, error = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		true,
		id,
	).Error
}

func (r *webhookEventRepo) RecordError(ctx context.Context, db *gorm.DB, id snowflake.ID, msg string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		false,
		msg,
		id,
	).Error
}
