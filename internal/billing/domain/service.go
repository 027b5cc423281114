package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidSignature    = errors.New("invalid_webhook_signature")
	ErrInvalidPayload      = errors.New("invalid_webhook_payload")
	ErrMissingUserID       = errors.New("missing_user_id_in_metadata")
	ErrProviderUnavailable = errors.New("payment_provider_unavailable")
	ErrCustomerNotFound    = errors.New("billing_customer_not_found")
)

// Event is a verified, provider-agnostic webhook event. Data holds the
// provider's event object verbatim.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// ProviderSubscription mirrors the vendor's subscription object; timestamps
// are epoch seconds as delivered on the wire.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CurrentPeriodStart int64
	CurrentPeriodEnd   int64
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

type CheckoutParams struct {
	UserID     string
	Email      string
	PriceID    string
	CustomerID string
}

// Provider is the payment processor reached over its documented API. It is
// injected so tests can substitute fakes; failures surface as
// ErrProviderUnavailable wrapping the vendor error.
type Provider interface {
	ParseEvent(payload []byte, signature string) (Event, error)
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error
}

type WebhookEventRepository interface {
	Insert(ctx context.Context, db *gorm.DB, ev *WebhookEvent) error
	// FindByProviderEventID returns the logged delivery for the provider's
	// event id, or nil when the id has never been seen.
	FindByProviderEventID(ctx context.Context, db *gorm.DB, providerEventID string) (*WebhookEvent, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	RecordError(ctx context.Context, db *gorm.DB, id snowflake.ID, msg string) error
}

type WebhookService interface {
	// HandleEvent verifies the signature, logs the delivery, and applies the
	// state mutation for recognized event types. Any non-nil return must map
	// to a non-2xx response so the sender retries.
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type CheckoutService interface {
	GetOrCreateCustomer(ctx context.Context, userID, email string) (string, error)
	CreateCheckout(ctx context.Context, userID, email, priceID string) (string, error)
	CreatePortal(ctx context.Context, userID string) (string, error)
}
