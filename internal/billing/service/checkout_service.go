package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/clock"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Provider billingdomain.Provider
	SubRepo  subscriptiondomain.Repository
}

type checkoutService struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	provider billingdomain.Provider
	subRepo  subscriptiondomain.Repository
}

func NewCheckoutService(p CheckoutServiceParam) billingdomain.CheckoutService {
	return &checkoutService{
		db:       p.DB,
		log:      p.Log.Named("billing.checkout"),
		genID:    p.GenID,
		clock:    p.Clock,
		provider: p.Provider,
		subRepo:  p.SubRepo,
	}
}

// GetOrCreateCustomer returns the user's billing customer id, creating one
// upstream on first use. Concurrent first calls may both create a vendor
// customer; the unique index on user_id collapses the local rows and the
// re-read below makes every caller return whichever id won.
func (s *checkoutService) GetOrCreateCustomer(ctx context.Context, userID, email string) (string, error) {
	existing, err := s.subRepo.FindByUserID(ctx, s.db, userID)
	if err == nil && existing.StripeCustomerID != "" {
		return existing.StripeCustomerID, nil
	}
	if err != nil && !errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
		return "", err
	}

	customerID, err := s.provider.CreateCustomer(ctx, email, userID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now(ctx)
	row := &subscriptiondomain.Subscription{
		ID:               s.genID.Generate(),
		UserID:           userID,
		StripeCustomerID: customerID,
		Status:           subscriptiondomain.StatusInactive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.subRepo.InsertIfAbsent(ctx, s.db, row); err != nil {
		return "", err
	}
	// Covers the pre-existing row with no customer id; a concurrent claim wins
	// and this becomes a no-op.
	if err := s.subRepo.ClaimCustomerID(ctx, s.db, userID, customerID); err != nil {
		return "", err
	}

	stored, err := s.subRepo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return "", err
	}
	if stored.StripeCustomerID != customerID {
		s.log.Info("concurrent customer creation reconciled",
			zap.String("user_id", userID),
			zap.String("kept", stored.StripeCustomerID),
			zap.String("discarded", customerID))
	}
	return stored.StripeCustomerID, nil
}

func (s *checkoutService) CreateCheckout(ctx context.Context, userID, email, priceID string) (string, error) {
	customerID, err := s.GetOrCreateCustomer(ctx, userID, email)
	if err != nil {
		return "", err
	}
	return s.provider.CreateCheckoutSession(ctx, billingdomain.CheckoutParams{
		UserID:     userID,
		Email:      email,
		PriceID:    priceID,
		CustomerID: customerID,
	})
}

func (s *checkoutService) CreatePortal(ctx context.Context, userID string) (string, error) {
	sub, err := s.subRepo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
			return "", billingdomain.ErrCustomerNotFound
		}
		return "", err
	}
	if sub.StripeCustomerID == "" {
		return "", billingdomain.ErrCustomerNotFound
	}
	return s.provider.CreatePortalSession(ctx, sub.StripeCustomerID)
}
