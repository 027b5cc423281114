package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/clock"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	subscriptionrepo "github.com/scribelabs/scribe/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeProvider struct {
	mu             sync.Mutex
	customerSeq    int
	checkoutCalls  int
	portalCalls    int
	lastCheckout   billingdomain.CheckoutParams
	lastPortalCust string
	createErr      error
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.customerSeq++
	return fmt.Sprintf("cus_%d", f.customerSeq), nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params billingdomain.CheckoutParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkoutCalls++
	f.lastCheckout = params
	return "https://checkout.example.com/session", nil
}

func (f *fakeProvider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portalCalls++
	f.lastPortalCust = customerID
	return "https://billing.example.com/portal", nil
}

func (f *fakeProvider) ParseEvent(payload []byte, signature string) (billingdomain.Event, error) {
	return billingdomain.Event{}, nil
}

func (f *fakeProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billingdomain.ProviderSubscription, error) {
	return nil, nil
}

func (f *fakeProvider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	return nil
}

func newTestService(t *testing.T) (billingdomain.CheckoutService, *fakeProvider, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// One in-memory database per connection; pin the pool so every goroutine
	// sees the same one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&subscriptiondomain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	provider := &fakeProvider{}
	svc := NewCheckoutService(CheckoutServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.Fixed{T: time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)},
		Provider: provider,
		SubRepo:  subscriptionrepo.Provide(),
	})
	return svc, provider, db
}

func TestGetOrCreateCustomer_CreatesOnce(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateCustomer(ctx, "user-1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", first)

	second, err := svc.GetOrCreateCustomer(ctx, "user-1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.customerSeq, "provider called once per user")
}

func TestGetOrCreateCustomer_FillsExistingRowWithoutCustomer(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	node, _ := snowflake.NewNode(2)
	repo := subscriptionrepo.Provide()
	require.NoError(t, repo.Upsert(ctx, db, &subscriptiondomain.Subscription{
		ID:     node.Generate(),
		UserID: "user-1",
		Status: subscriptiondomain.StatusInactive,
	}))

	got, err := svc.GetOrCreateCustomer(ctx, "user-1", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", got)

	sub, err := repo.FindByUserID(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", sub.StripeCustomerID)
}

func TestGetOrCreateCustomer_ConcurrentCallersConverge(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	const callers = 8
	results := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetOrCreateCustomer(ctx, "user-1", "a@example.com")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i], "all callers must see the same customer id")
	}

	var count int64
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).
		Where("user_id = ?", "user-1").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateCheckout_PassesCustomerAndPrice(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	url, err := svc.CreateCheckout(ctx, "user-1", "a@example.com", "price_pro")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/session", url)
	assert.Equal(t, "cus_1", provider.lastCheckout.CustomerID)
	assert.Equal(t, "price_pro", provider.lastCheckout.PriceID)
	assert.Equal(t, "user-1", provider.lastCheckout.UserID)
}

func TestCreatePortal_RequiresExistingCustomer(t *testing.T) {
	svc, provider, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePortal(ctx, "user-1")
	assert.ErrorIs(t, err, billingdomain.ErrCustomerNotFound)
	assert.Equal(t, 0, provider.portalCalls)

	_, err = svc.GetOrCreateCustomer(ctx, "user-1", "a@example.com")
	require.NoError(t, err)

	url, err := svc.CreatePortal(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example.com/portal", url)
	assert.Equal(t, "cus_1", provider.lastPortalCust)
}

func TestGetOrCreateCustomer_ProviderFailure(t *testing.T) {
	svc, provider, db := newTestService(t)
	provider.createErr = billingdomain.ErrProviderUnavailable

	_, err := svc.GetOrCreateCustomer(context.Background(), "user-1", "a@example.com")
	assert.ErrorIs(t, err, billingdomain.ErrProviderUnavailable)

	var count int64
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "no local row without an upstream customer")
}
