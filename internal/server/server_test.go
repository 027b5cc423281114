package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	aidomain "github.com/scribelabs/scribe/internal/ai/domain"
	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/config"
	identitydomain "github.com/scribelabs/scribe/internal/identity/domain"
	"github.com/scribelabs/scribe/internal/plan"
	subscriptiondomain "github.com/scribelabs/scribe/internal/subscription/domain"
	usagedomain "github.com/scribelabs/scribe/internal/usage/domain"
	userdomain "github.com/scribelabs/scribe/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier struct {
	identity *identitydomain.Identity
	err      error
}

func (s *stubVerifier) Verify(ctx context.Context, token string) (*identitydomain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type stubUserService struct {
	ensured []string
}

func (s *stubUserService) EnsureUser(ctx context.Context, u userdomain.User) (*userdomain.User, error) {
	s.ensured = append(s.ensured, u.ID)
	return &u, nil
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return &userdomain.User{ID: id, Email: "a@example.com"}, nil
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id string, req userdomain.UpdateProfileRequest) (*userdomain.User, error) {
	u := &userdomain.User{ID: id, Email: "a@example.com"}
	if req.Name != nil {
		u.Name = *req.Name
	}
	return u, nil
}

func (s *stubUserService) DeleteAccount(ctx context.Context, id string) error { return nil }

type stubSubService struct {
	sub    *subscriptiondomain.Subscription
	subErr error
	limit  int64
}

func (s *stubSubService) GetByUserID(ctx context.Context, userID string) (*subscriptiondomain.Subscription, error) {
	if s.subErr != nil {
		return nil, s.subErr
	}
	return s.sub, nil
}

func (s *stubSubService) MonthlyTokenLimit(ctx context.Context, userID string) (int64, error) {
	return s.limit, nil
}

func (s *stubSubService) Cancel(ctx context.Context, userID string) error { return nil }
func (s *stubSubService) Resume(ctx context.Context, userID string) error { return nil }

type stubLedger struct {
	used int64
}

func (s *stubLedger) Record(ctx context.Context, userID string, amount int64, typ usagedomain.EventType, desc string) error {
	return nil
}

func (s *stubLedger) MonthlyUsage(ctx context.Context, userID string, typ usagedomain.EventType) (int64, error) {
	return s.used, nil
}

func (s *stubLedger) HasExceededLimit(ctx context.Context, userID string, typ usagedomain.EventType, limit int64) (bool, error) {
	return false, nil
}

type stubAIService struct {
	result *aidomain.GenerateResult
	err    error
	stream []string
}

func (s *stubAIService) GenerateContent(ctx context.Context, userID string, req aidomain.GenerateContentRequest) (*aidomain.GenerateResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAIService) StreamContent(ctx context.Context, userID string, req aidomain.GenerateContentRequest, fn aidomain.StreamFunc) (*aidomain.GenerateResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, frag := range s.stream {
		if err := fn(frag); err != nil {
			return nil, err
		}
	}
	return s.result, nil
}

func (s *stubAIService) GenerateCode(ctx context.Context, userID string, req aidomain.GenerateCodeRequest) (*aidomain.GenerateResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAIService) Summarize(ctx context.Context, userID string, req aidomain.SummarizeRequest) (*aidomain.GenerateResult, error) {
	return s.result, s.err
}

func (s *stubAIService) Translate(ctx context.Context, userID string, req aidomain.TranslateRequest) (*aidomain.GenerateResult, error) {
	return s.result, s.err
}

type stubCheckout struct {
	url string
	err error
}

func (s *stubCheckout) GetOrCreateCustomer(ctx context.Context, userID, email string) (string, error) {
	return "cus_1", nil
}

func (s *stubCheckout) CreateCheckout(ctx context.Context, userID, email, priceID string) (string, error) {
	return s.url, s.err
}

func (s *stubCheckout) CreatePortal(ctx context.Context, userID string) (string, error) {
	return s.url, s.err
}

type stubWebhook struct {
	err      error
	payloads [][]byte
}

func (s *stubWebhook) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	s.payloads = append(s.payloads, payload)
	return s.err
}

type fixture struct {
	srv      *Server
	router   *gin.Engine
	verifier *stubVerifier
	users    *stubUserService
	webhook  *stubWebhook
	ai       *stubAIService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Environment:      "test",
		StripePriceIDPro: "price_pro",
	}
	verifier := &stubVerifier{identity: &identitydomain.Identity{UserID: "user-1", Email: "a@example.com"}}
	users := &stubUserService{}
	webhook := &stubWebhook{}
	ai := &stubAIService{result: &aidomain.GenerateResult{Output: "hello", TokensUsed: 42}}

	srv := &Server{
		cfg:         cfg,
		log:         zap.NewNop(),
		verifier:    verifier,
		usersvc:     users,
		subsvc:      &stubSubService{limit: plan.FreeMonthlyTokens, subErr: subscriptiondomain.ErrSubscriptionNotFound},
		ledger:      &stubLedger{used: 1234},
		aisvc:       ai,
		checkoutsvc: &stubCheckout{url: "https://example.com/session"},
		webhooksvc:  webhook,
		catalog:     plan.NewCatalog(cfg),
	}
	return &fixture{
		srv:      srv,
		router:   srv.Router(),
		verifier: verifier,
		users:    users,
		webhook:  webhook,
		ai:       ai,
	}
}

func (f *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestPlans_Public(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/api/v1/plans", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"free"`)
	assert.Contains(t, resp.Body.String(), `"monthly_token_limit":-1`)
}

func TestAuth_MissingToken(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/api/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = identitydomain.ErrUnauthenticated
	resp := f.do(http.MethodGet, "/api/v1/me", "", "bad")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuth_IdentityOutageIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = identitydomain.ErrIdentityUnavailable
	resp := f.do(http.MethodGet, "/api/v1/me", "", "tok")
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestAuth_EnsuresLocalUser(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/api/v1/me", "", "tok")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"user-1"}, f.users.ensured)
}

func TestGetUsage(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/api/v1/me/usage", "", "tok")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"tokens_used":1234`)
	assert.Contains(t, resp.Body.String(), `"token_limit":10000`)
}

func TestGenerateContent(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodPost, "/api/v1/ai/generate", `{"prompt":"write a haiku"}`, "tok")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"output":"hello"`)
	assert.Contains(t, resp.Body.String(), `"tokens_used":42`)
}

func TestGenerateContent_QuotaExceeded(t *testing.T) {
	f := newFixture(t)
	f.ai.err = aidomain.ErrQuotaExceeded
	resp := f.do(http.MethodPost, "/api/v1/ai/generate", `{"prompt":"write a haiku"}`, "tok")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestGenerateContent_ProviderDownIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.ai.err = aidomain.ErrProviderUnavailable
	resp := f.do(http.MethodPost, "/api/v1/ai/generate", `{"prompt":"write a haiku"}`, "tok")
	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestGenerateContent_BadJSON(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodPost, "/api/v1/ai/generate", `{not json`, "tok")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGenerateContent_Stream(t *testing.T) {
	f := newFixture(t)
	f.ai.stream = []string{"hel", "lo"}
	resp := f.do(http.MethodPost, "/api/v1/ai/generate?stream=true", `{"prompt":"write a haiku"}`, "tok")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	body := resp.Body.String()
	assert.Contains(t, body, `event: chunk`)
	assert.Contains(t, body, `{"content":"hel"}`)
	assert.Contains(t, body, `{"content":"lo"}`)
	assert.Contains(t, body, `event: done`)
	assert.Contains(t, body, `"tokens_used":42`)
}

func TestGenerateContent_StreamQuotaError(t *testing.T) {
	f := newFixture(t)
	f.ai.err = aidomain.ErrQuotaExceeded
	resp := f.do(http.MethodPost, "/api/v1/ai/generate?stream=true", `{"prompt":"write a haiku"}`, "tok")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestCreateCheckout(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodPost, "/api/v1/billing/checkout", `{"plan_id":"pro"}`, "tok")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "https://example.com/session")
}

func TestCreateCheckout_UnknownPlan(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodPost, "/api/v1/billing/checkout", `{"plan_id":"platinum"}`, "tok")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateCheckout_FreePlanNotPurchasable(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodPost, "/api/v1/billing/checkout", `{"plan_id":"free"}`, "tok")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStripeWebhook_Accepted(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodPost, "/webhooks/stripe", `{"id":"evt_1"}`, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, f.webhook.payloads, 1)
	assert.JSONEq(t, `{"id":"evt_1"}`, string(f.webhook.payloads[0]))
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	f := newFixture(t)
	f.webhook.err = billingdomain.ErrInvalidSignature
	resp := f.do(http.MethodPost, "/webhooks/stripe", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetSubscription_NotFound(t *testing.T) {
	f := newFixture(t)
	resp := f.do(http.MethodGet, "/api/v1/billing/subscription", "", "tok")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
