package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scribelabs/scribe/internal/config"
	identitydomain "github.com/scribelabs/scribe/internal/identity/domain"
	"go.uber.org/zap"
)

// Client verifies tokens against the identity provider's user endpoint.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	log        *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.IdentityURL, "/"),
		serviceKey: cfg.IdentityServiceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.Named("identity.client"),
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) Verify(ctx context.Context, token string) (*identitydomain.Identity, error) {
	if token == "" {
		return nil, identitydomain.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identitydomain.ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identitydomain.ErrIdentityUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, identitydomain.ErrUnauthenticated
	default:
		c.log.Warn("unexpected identity provider response",
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", identitydomain.ErrIdentityUnavailable, resp.StatusCode)
	}

	var user userResponse
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", identitydomain.ErrIdentityUnavailable, err)
	}
	if user.ID == "" {
		return nil, identitydomain.ErrUnauthenticated
	}
	return &identitydomain.Identity{UserID: user.ID, Email: user.Email}, nil
}
