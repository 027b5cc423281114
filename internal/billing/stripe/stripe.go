package stripe

import (
	"context"
	"fmt"

	billingdomain "github.com/scribelabs/scribe/internal/billing/domain"
	"github.com/scribelabs/scribe/internal/config"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

const metadataUserID = "userId"

type provider struct {
	api           *client.API
	webhookSecret string
	appURL        string
	log           *zap.Logger
}

// NewProvider builds the Stripe-backed payment provider. The API client is
// initialized once from validated config rather than through the package
// global key.
func NewProvider(cfg config.Config, log *zap.Logger) billingdomain.Provider {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &provider{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		appURL:        cfg.AppURL,
		log:           log.Named("billing.stripe"),
	}
}

func (p *provider) ParseEvent(payload []byte, signature string) (billingdomain.Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		p.log.Warn("webhook signature verification failed", zap.Error(err))
		return billingdomain.Event{}, billingdomain.ErrInvalidSignature
	}
	return billingdomain.Event{
		ID:   ev.ID,
		Type: string(ev.Type),
		Data: ev.Data.Raw,
	}, nil
}

func (p *provider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	params.AddMetadata(metadataUserID, userID)

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", billingdomain.ErrProviderUnavailable, err)
	}
	return c.ID, nil
}

func (p *provider) CreateCheckoutSession(ctx context.Context, in billingdomain.CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		ClientReferenceID: stripe.String(in.UserID),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(p.appURL + "/dashboard?success=true"),
		CancelURL:         stripe.String(p.appURL + "/pricing?canceled=true"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserID: in.UserID},
		},
	}
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	} else {
		params.CustomerEmail = stripe.String(in.Email)
	}
	params.AddMetadata(metadataUserID, in.UserID)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", billingdomain.ErrProviderUnavailable, err)
	}
	return s.URL, nil
}

func (p *provider) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Params:    stripe.Params{Context: ctx},
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(p.appURL + "/dashboard/settings"),
	}
	s, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", billingdomain.ErrProviderUnavailable, err)
	}
	return s.URL, nil
}

func (p *provider) GetSubscription(ctx context.Context, subscriptionID string) (*billingdomain.ProviderSubscription, error) {
	sub, err := p.api.Subscriptions.Get(subscriptionID, &stripe.SubscriptionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get subscription: %v", billingdomain.ErrProviderUnavailable, err)
	}

	out := &billingdomain.ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		Metadata:           sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out, nil
}

func (p *provider) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) error {
	_, err := p.api.Subscriptions.Update(subscriptionID, &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(cancel),
	})
	if err != nil {
		return fmt.Errorf("%w: update subscription: %v", billingdomain.ErrProviderUnavailable, err)
	}
	return nil
}
