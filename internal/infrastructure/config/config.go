package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"homeservices/internal/domain/entities"

	"github.com/spf13/viper"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreSQL      = "sql"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	StoreDriver        string `mapstructure:"STORE_DRIVER"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	DynamoDBEndpoint   string `mapstructure:"DYNAMODB_ENDPOINT"`
	UsersTable         string `mapstructure:"USERS_TABLE"`
	ServicesTable      string `mapstructure:"SERVICES_TABLE"`
	QuotesTable        string `mapstructure:"QUOTES_TABLE"`
	PaymentsTable      string `mapstructure:"PAYMENTS_TABLE"`
	DBDriver           string `mapstructure:"DB_DRIVER"`
	DBDSN              string `mapstructure:"DB_DSN"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	PaymentGateway           string `mapstructure:"PAYMENT_GATEWAY"`
	PaymentCurrency          string `mapstructure:"PAYMENT_CURRENCY"`
	StripeSecretKey          string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret      string `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	MercadoPagoAccessToken   string `mapstructure:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoWebhookSecret string `mapstructure:"MERCADOPAGO_WEBHOOK_SECRET"`
	MercadoPagoPayerEmail    string `mapstructure:"MERCADOPAGO_PAYER_EMAIL"`
	MockGatewaySecret        string `mapstructure:"MOCK_GATEWAY_SECRET"`

	QuoteTTL           time.Duration `mapstructure:"QUOTE_TTL"`
	QuoteSweepInterval time.Duration `mapstructure:"QUOTE_SWEEP_INTERVAL"`
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"GIN_MODE":             "debug",
	"CORS_ORIGINS":         "*",
	"STORE_DRIVER":         StoreMemory,
	"AWS_REGION":           "us-east-1",
	"USERS_TABLE":          "users",
	"SERVICES_TABLE":       "services",
	"QUOTES_TABLE":         "quotes",
	"PAYMENTS_TABLE":       "payments",
	"DB_DRIVER":            "postgres",
	"PAYMENT_GATEWAY":      "mock",
	"PAYMENT_CURRENCY":     "USD",
	"QUOTE_TTL":            "168h",
	"QUOTE_SWEEP_INTERVAL": "0s",
}

var envKeys = []string{
	"JWT_SECRET", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "DYNAMODB_ENDPOINT",
	"DB_DSN", "REDIS_ADDR", "REDIS_PASSWORD",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
	"MERCADOPAGO_ACCESS_TOKEN", "MERCADOPAGO_WEBHOOK_SECRET", "MERCADOPAGO_PAYER_EMAIL",
	"MOCK_GATEWAY_SECRET",
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreDynamoDB, StoreMemory:
	case StoreSQL:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required when STORE_DRIVER=sql")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.QuoteTTL <= 0 {
		return errors.New("QUOTE_TTL must be positive")
	}
	if !entities.IsCurrencyCode(c.PaymentCurrency) {
		return fmt.Errorf("PAYMENT_CURRENCY %q is not an ISO 4217 code", c.PaymentCurrency)
	}
	return nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsRelease() bool { return c.GinMode == "release" }
