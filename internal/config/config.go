package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries every environment-supplied setting. It is loaded once at
// startup; a missing or malformed required value aborts the process instead
// of failing lazily on first use.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ListenAddr  string `mapstructure:"LISTEN_ADDR"`
	AppURL      string `mapstructure:"APP_URL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`

	StripeSecretKey         string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret     string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	StripePublishableKey    string `mapstructure:"STRIPE_PUBLISHABLE_KEY"`
	StripePriceIDPro        string `mapstructure:"STRIPE_PRICE_ID_PRO"`
	StripePriceIDEnterprise string `mapstructure:"STRIPE_PRICE_ID_ENTERPRISE"`

	IdentityURL        string `mapstructure:"IDENTITY_URL"`
	IdentityServiceKey string `mapstructure:"IDENTITY_SERVICE_KEY"`
	IdentityPublicKey  string `mapstructure:"IDENTITY_PUBLIC_KEY"`
}

func Load() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("APP_URL", "http://localhost:3000")

	keys := []string{
		"ENVIRONMENT", "LISTEN_ADDR", "APP_URL",
		"DATABASE_URL", "REDIS_ADDR",
		"OPENAI_API_KEY",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "STRIPE_PUBLISHABLE_KEY",
		"STRIPE_PRICE_ID_PRO", "STRIPE_PRICE_ID_ENTERPRISE",
		"IDENTITY_URL", "IDENTITY_SERVICE_KEY", "IDENTITY_PUBLIC_KEY",
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	required := map[string]string{
		"DATABASE_URL":          c.DatabaseURL,
		"OPENAI_API_KEY":        c.OpenAIAPIKey,
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
		"IDENTITY_URL":          c.IdentityURL,
		"IDENTITY_SERVICE_KEY":  c.IdentityServiceKey,
	}
	var missing []string
	for k, val := range required {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	for _, u := range []struct{ key, val string }{
		{"APP_URL", c.AppURL},
		{"IDENTITY_URL", c.IdentityURL},
	} {
		parsed, err := url.Parse(u.val)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("invalid %s: %q", u.key, u.val)
		}
	}

	switch c.Environment {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid ENVIRONMENT: %q", c.Environment)
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Environment == "production" }
