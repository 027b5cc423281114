package service

import (
	"context"
	"errors"

	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/plan"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     subscriptiondomain.Repository
	Catalog  *plan.Catalog
	Provider billingdomain.Provider
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     subscriptiondomain.Repository
	catalog  *plan.Catalog
	provider billingdomain.Provider
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		repo:     p.Repo,
		catalog:  p.Catalog,
		provider: p.Provider,
	}
}

func (s *service) GetByUserID(ctx context.Context, userID string) (*subscriptiondomain.Subscription, error) {
	return s.repo.FindByUserID(ctx, s.db, userID)
}

// MonthlyTokenLimit reads the subscription row at call time. Callers without
// a billable subscription get the free-tier limit; a billable subscription on
// the enterprise price resolves to the unlimited sentinel.
func (s *service) MonthlyTokenLimit(ctx context.Context, userID string) (int64, error) {
	sub, err := s.repo.FindByUserID(ctx, s.db, userID)
	if errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound) {
		return plan.FreeMonthlyTokens, nil
	}
	if err != nil {
		return 0, err
	}
	if !sub.Status.Billable() {
		return plan.FreeMonthlyTokens, nil
	}
	if p, ok := s.catalog.ByPriceID(sub.StripePriceID); ok {
		return p.MonthlyTokenLimit, nil
	}
	// Billable subscription on an unrecognized price: treat as pro rather
	// than silently downgrading a paying user to the free tier.
	return plan.ProMonthlyTokens, nil
}

func (s *service) Cancel(ctx context.Context, userID string) error {
	sub, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return subscriptiondomain.ErrNoActiveSubscription
	}
	if err := s.provider.SetCancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID, true); err != nil {
		return err
	}
	// Local flag only; status stays webhook-driven.
	return s.repo.SetCancelAtPeriodEnd(ctx, s.db, userID, true)
}

func (s *service) Resume(ctx context.Context, userID string) error {
	sub, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if sub.StripeSubscriptionID == nil || *sub.StripeSubscriptionID == "" {
		return subscriptiondomain.ErrNoActiveSubscription
	}
	if err := s.provider.SetCancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID, false); err != nil {
		return err
	}
	return s.repo.SetCancelAtPeriodEnd(ctx, s.db, userID, false)
}
