package plan

import (
	"github.com/scribelabs/scribe/internal/config"
	"go.uber.org/fx"
)

// Unlimited is the sentinel monthly limit for enterprise accounts. Quota
// checks must treat it as never exceeded.
const Unlimited int64 = -1

const (
	FreeMonthlyTokens int64 = 10000
	ProMonthlyTokens  int64 = 100000
)

type Plan struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	PriceUSD          int64    `json:"price_usd"`
	Interval          string   `json:"interval"`
	StripePriceID     string   `json:"stripe_price_id,omitempty"`
	MonthlyTokenLimit int64    `json:"monthly_token_limit"`
	Features          []string `json:"features"`
	Highlighted       bool     `json:"highlighted,omitempty"`
}

type Catalog struct {
	plans []Plan
}

func NewCatalog(cfg config.Config) *Catalog {
	return &Catalog{plans: []Plan{
		{
			ID:                "free",
			Name:              "Free",
			Description:       "Perfect for trying out the platform",
			PriceUSD:          0,
			Interval:          "month",
			MonthlyTokenLimit: FreeMonthlyTokens,
			Features:          []string{"10k AI tokens per month", "Community support"},
		},
		{
			ID:                "pro",
			Name:              "Pro",
			Description:       "Best for professionals",
			PriceUSD:          29,
			Interval:          "month",
			StripePriceID:     cfg.StripePriceIDPro,
			MonthlyTokenLimit: ProMonthlyTokens,
			Features:          []string{"100k AI tokens per month", "Priority support", "API access"},
			Highlighted:       true,
		},
		{
			ID:                "enterprise",
			Name:              "Enterprise",
			Description:       "For large teams",
			PriceUSD:          99,
			Interval:          "month",
			StripePriceID:     cfg.StripePriceIDEnterprise,
			MonthlyTokenLimit: Unlimited,
			Features:          []string{"Unlimited AI tokens", "Dedicated support", "SLA guarantee"},
		},
	}}
}

func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func (c *Catalog) ByID(id string) (Plan, bool) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

func (c *Catalog) ByPriceID(priceID string) (Plan, bool) {
	if priceID == "" {
		return Plan{}, false
	}
	for _, p := range c.plans {
		if p.StripePriceID == priceID {
			return p, true
		}
	}
	return Plan{}, false
}

var Module = fx.Module("plan",
	fx.Provide(NewCatalog),
)
