package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	"gorm.io/datatypes"
)

// WebhookEvent is the durable log of inbound payment-processor deliveries.
// A row is written with processed=false before the payload is interpreted;
// processed flips to true only after the state mutation commits.
type WebhookEvent struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex"`
	Type            string         `json:"type" gorm:"type:text;not null;index"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	Processed       bool           `json:"processed" gorm:"not null;default:false"`
	Error           string         `json:"error,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"not null"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// MapVendorStatus is the fixed vendor→local status table. Unknown vendor
// statuses land on INACTIVE rather than failing the event.
func MapVendorStatus(vendor string) subscriptiondomain.Status {
	switch vendor {
	case "active":
		return subscriptiondomain.StatusActive
	case "trialing":
		return subscriptiondomain.StatusTrialing
	case "past_due", "unpaid":
		return subscriptiondomain.StatusPastDue
	case "canceled":
		return subscriptiondomain.StatusCanceled
	case "incomplete", "incomplete_expired", "paused":
		return subscriptiondomain.StatusInactive
	default:
		return subscriptiondomain.StatusInactive
	}
}
