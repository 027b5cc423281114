package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/clock"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Provider billingdomain.Provider
	Repo     billingdomain.WebhookEventRepository
	SubRepo  subscriptiondomain.Repository
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	provider billingdomain.Provider
	repo     billingdomain.WebhookEventRepository
	subRepo  subscriptiondomain.Repository
}

func NewService(p ServiceParam) billingdomain.WebhookService {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("billing.webhook"),
		genID:    p.GenID,
		clock:    p.Clock,
		provider: p.Provider,
		repo:     p.Repo,
		subRepo:  p.SubRepo,
	}
}

// Wire shapes of the vendor's event objects; only the fields the sync reads.
type eventSubscription struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type eventInvoice struct {
	Subscription string `json:"subscription"`
}

func (s *service) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseEvent(payload, signature)
	if err != nil {
		return err
	}

	// Only a delivery that was actually processed is a duplicate. A row
	// logged by an earlier attempt that failed mid-handler is re-dispatched
	// here, since the sender only retries until it sees a 2xx.
	existing, err := s.repo.FindByProviderEventID(ctx, s.db, ev.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Processed {
		s.log.Info("duplicate webhook delivery ignored",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type))
		return nil
	}

	record := existing
	if record == nil {
		// Durability first: the delivery is logged before the payload is
		// interpreted, so a failed handler still leaves an inspectable row.
		now := s.clock.Now(ctx)
		record = &billingdomain.WebhookEvent{
			ID:              s.genID.Generate(),
			ProviderEventID: ev.ID,
			Type:            ev.Type,
			Payload:         datatypes.JSON(payload),
			Processed:       false,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.Insert(ctx, s.db, record); err != nil {
			return err
		}
	}

	if err := s.dispatch(ctx, ev); err != nil {
		if recErr := s.repo.RecordError(ctx, s.db, record.ID, err.Error()); recErr != nil {
			s.log.Error("failed to record webhook error", zap.Error(recErr))
		}
		return err
	}

	return s.repo.MarkProcessed(ctx, s.db, record.ID)
}

func (s *service) dispatch(ctx context.Context, ev billingdomain.Event) error {
	switch ev.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		return s.onSubscriptionUpdate(ctx, ev.Data)
	case "customer.subscription.deleted":
		return s.onSubscriptionDeleted(ctx, ev.Data)
	case "invoice.payment_succeeded":
		return s.onInvoicePaymentSucceeded(ctx, ev.Data)
	case "invoice.payment_failed":
		return s.onInvoicePaymentFailed(ctx, ev.Data)
	default:
		s.log.Info("unhandled webhook event type", zap.String("type", ev.Type))
		return nil
	}
}

func (s *service) onSubscriptionUpdate(ctx context.Context, data json.RawMessage) error {
	var sub eventSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return billingdomain.ErrInvalidPayload
	}
	priceID := ""
	if len(sub.Items.Data) > 0 {
		priceID = sub.Items.Data[0].Price.ID
	}
	return s.applySubscription(ctx, billingdomain.ProviderSubscription{
		ID:                 sub.ID,
		CustomerID:         sub.Customer,
		PriceID:            priceID,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		Metadata:           sub.Metadata,
	})
}

// applySubscription maps the vendor object onto the local row. Upserts only;
// the same event applied twice converges to the same state regardless of
// delivery order.
func (s *service) applySubscription(ctx context.Context, sub billingdomain.ProviderSubscription) error {
	userID := sub.Metadata[metadataUserID]
	if userID == "" {
		return billingdomain.ErrMissingUserID
	}

	subscriptionID := sub.ID
	now := s.clock.Now(ctx)
	row := &subscriptiondomain.Subscription{
		ID:                   s.genID.Generate(),
		UserID:               userID,
		StripeCustomerID:     sub.CustomerID,
		StripeSubscriptionID: &subscriptionID,
		StripePriceID:        sub.PriceID,
		Status:               billingdomain.MapVendorStatus(sub.Status),
		CurrentPeriodStart:   epochToTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:     epochToTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.subRepo.Upsert(ctx, s.db, row); err != nil {
		return err
	}
	s.log.Info("subscription synced",
		zap.String("user_id", userID),
		zap.String("status", string(row.Status)))
	return nil
}

func (s *service) onSubscriptionDeleted(ctx context.Context, data json.RawMessage) error {
	var sub eventSubscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return billingdomain.ErrInvalidPayload
	}
	userID := sub.Metadata[metadataUserID]
	if userID == "" {
		return billingdomain.ErrMissingUserID
	}
	return s.subRepo.MarkCanceled(ctx, s.db, userID)
}

// onInvoicePaymentSucceeded re-reads the authoritative subscription from the
// provider and re-runs the mapping, which self-heals missed intermediate
// events.
func (s *service) onInvoicePaymentSucceeded(ctx context.Context, data json.RawMessage) error {
	var inv eventInvoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return billingdomain.ErrInvalidPayload
	}
	if inv.Subscription == "" {
		return nil
	}
	sub, err := s.provider.GetSubscription(ctx, inv.Subscription)
	if err != nil {
		return err
	}
	return s.applySubscription(ctx, *sub)
}

func (s *service) onInvoicePaymentFailed(ctx context.Context, data json.RawMessage) error {
	var inv eventInvoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return billingdomain.ErrInvalidPayload
	}
	if inv.Subscription == "" {
		return nil
	}
	local, err := s.subRepo.FindByStripeSubscriptionID(ctx, s.db, inv.Subscription)
	if err != nil {
		if errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			// No local record to mark; nothing to heal here.
			s.log.Warn("payment_failed for unknown subscription",
				zap.String("stripe_subscription_id", inv.Subscription))
			return nil
		}
		return err
	}
	return s.subRepo.SetStatus(ctx, s.db, local.UserID, subscriptiondomain.StatusPastDue)
}

const metadataUserID = "userId"

func epochToTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
