package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/config"
	"github.com/scribelabs/scribe/internal/plan"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	"github.com/scribelabs/scribe/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubProvider struct {
	cancelCalls  int
	lastSubID    string
	lastCancel   bool
	setCancelErr error
}

func (s *stubProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	s.cancelCalls++
	s.lastSubID = subscriptionID
	s.lastCancel = cancel
	return s.setCancelErr
}

func (s *stubProvider) ParseEvent(payload []byte, signature string) (billingdomain.Event, error) {
	return billingdomain.Event{}, nil
}

func (s *stubProvider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	return "", nil
}

func (s *stubProvider) CreateCheckoutSession(ctx context.Context, params billingdomain.CheckoutParams) (string, error) {
	return "", nil
}

func (s *stubProvider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	return "", nil
}

func (s *stubProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billingdomain.ProviderSubscription, error) {
	return nil, nil
}

func newTestService(t *testing.T) (subscriptiondomain.Service, *stubProvider, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&subscriptiondomain.Subscription{}))

	provider := &stubProvider{}
	svc := NewService(ServiceParam{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
		Catalog: plan.NewCatalog(config.Config{
			StripePriceIDPro:        "price_pro",
			StripePriceIDEnterprise: "price_ent",
		}),
		Provider: provider,
	})
	return svc, provider, db
}

func seedSubscription(t *testing.T, db *gorm.DB, status subscriptiondomain.Status, priceID string, subID string) {
	t.Helper()
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	row := &subscriptiondomain.Subscription{
		ID:            node.Generate(),
		UserID:        "user-1",
		Status:        status,
		StripePriceID: priceID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if subID != "" {
		row.StripeSubscriptionID = &subID
	}
	require.NoError(t, repository.Provide().Upsert(context.Background(), db, row))
}

func TestMonthlyTokenLimit(t *testing.T) {
	cases := []struct {
		name    string
		status  subscriptiondomain.Status
		priceID string
		seed    bool
		want    int64
	}{
		{"no subscription row", "", "", false, plan.FreeMonthlyTokens},
		{"inactive", subscriptiondomain.StatusInactive, "price_pro", true, plan.FreeMonthlyTokens},
		{"canceled", subscriptiondomain.StatusCanceled, "price_pro", true, plan.FreeMonthlyTokens},
		{"past due", subscriptiondomain.StatusPastDue, "price_pro", true, plan.FreeMonthlyTokens},
		{"active pro", subscriptiondomain.StatusActive, "price_pro", true, plan.ProMonthlyTokens},
		{"trialing pro", subscriptiondomain.StatusTrialing, "price_pro", true, plan.ProMonthlyTokens},
		{"active enterprise", subscriptiondomain.StatusActive, "price_ent", true, plan.Unlimited},
		{"active unknown price", subscriptiondomain.StatusActive, "price_legacy", true, plan.ProMonthlyTokens},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, db := newTestService(t)
			if tc.seed {
				seedSubscription(t, db, tc.status, tc.priceID, "sub_1")
			}

			limit, err := svc.MonthlyTokenLimit(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, limit)
		})
	}
}

func TestCancel_SetsFlagOnlyLocally(t *testing.T) {
	svc, provider, db := newTestService(t)
	seedSubscription(t, db, subscriptiondomain.StatusActive, "price_pro", "sub_1")

	require.NoError(t, svc.Cancel(context.Background(), "user-1"))

	assert.Equal(t, 1, provider.cancelCalls)
	assert.Equal(t, "sub_1", provider.lastSubID)
	assert.True(t, provider.lastCancel)

	sub, err := svc.GetByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, sub.CancelAtPeriodEnd)
	assert.Equal(t, subscriptiondomain.StatusActive, sub.Status, "status stays webhook-driven")
}

func TestCancel_WithoutUpstreamSubscription(t *testing.T) {
	svc, provider, db := newTestService(t)
	seedSubscription(t, db, subscriptiondomain.StatusInactive, "", "")

	err := svc.Cancel(context.Background(), "user-1")
	assert.ErrorIs(t, err, subscriptiondomain.ErrNoActiveSubscription)
	assert.Equal(t, 0, provider.cancelCalls)
}

func TestCancel_ProviderFailureLeavesFlagUnset(t *testing.T) {
	svc, provider, db := newTestService(t)
	seedSubscription(t, db, subscriptiondomain.StatusActive, "price_pro", "sub_1")
	provider.setCancelErr = billingdomain.ErrProviderUnavailable

	err := svc.Cancel(context.Background(), "user-1")
	assert.ErrorIs(t, err, billingdomain.ErrProviderUnavailable)

	sub, err := svc.GetByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, sub.CancelAtPeriodEnd)
}

func TestResume_ClearsFlag(t *testing.T) {
	svc, provider, db := newTestService(t)
	seedSubscription(t, db, subscriptiondomain.StatusActive, "price_pro", "sub_1")

	require.NoError(t, svc.Cancel(context.Background(), "user-1"))
	require.NoError(t, svc.Resume(context.Background(), "user-1"))

	assert.Equal(t, 2, provider.cancelCalls)
	assert.False(t, provider.lastCancel)

	sub, err := svc.GetByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, sub.CancelAtPeriodEnd)
}
