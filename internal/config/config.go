package config

import (
	"context"
	"flag"
	"log/slog"

	"github.com/caarlos0/env/v6"

	"github.com/AnitBishwas/swiss-event-handler/internal/model"
)

type Config struct {
	RunAddr     string `env:"RUN_ADDRESS" envDefault:"localhost:8080"`
	DatabaseURI string `env:"DATABASE_URI" envDefault:""`
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`

	// Commerce store the service acts on. Resolved once at start and
	// injected everywhere; nothing reads the environment ad hoc.
	ShopDomain        string `env:"SHOP_DOMAIN"         envDefault:"swiss-beauty-dev.myshopify.com"`
	ShopifyAPIVersion string `env:"SHOPIFY_API_VERSION" envDefault:"2025-04"`
	ShopifyAPISecret  string `env:"SHOPIFY_API_SECRET"  envDefault:""`
	// Full GraphQL endpoint override, used by tests and local mocks.
	ShopifyEndpoint string `env:"SHOPIFY_ENDPOINT" envDefault:""`

	MoeURL         string `env:"MOE_URL"          envDefault:"https://api-02.moengage.com"`
	MoeWorkspaceID string `env:"MOE_WORKSPACE_ID" envDefault:""`
	MoeAPIKey      string `env:"MOE_API_KEY"      envDefault:""`

	WarehouseProjectID string `env:"BQ_PROJECT_ID" envDefault:""`
	WarehouseDatasetID string `env:"DATASET_ID"    envDefault:""`
	WarehouseTableID   string `env:"TABLE_ID"      envDefault:""`
	WarehouseCredsJSON string `env:"CREDS"         envDefault:""`

	AWSRegion       string   `env:"AWS_SES_REGION"      envDefault:"ap-south-1"`
	EmailSource     string   `env:"REFUND_EMAIL_SOURCE" envDefault:""`
	EmailRecipients []string `env:"REFUND_EMAIL_TO"     envSeparator:","`
	EmailCc         []string `env:"REFUND_EMAIL_CC"     envSeparator:","`
}

type Builder struct {
	cfg *Config
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{
		cfg: &Config{},
		log: log,
	}
}

func (b *Builder) FromEnv() *Builder {
	if err := env.Parse(b.cfg); err != nil {
		b.log.LogAttrs(context.Background(),
			slog.LevelError, "Failed to parse config", slog.Any(model.KeyLoggerError, err))
	}
	return b
}

func (b *Builder) FromFlags() *Builder {
	flag.StringVar(&b.cfg.RunAddr, "a", b.cfg.RunAddr, "Run address")
	flag.StringVar(&b.cfg.DatabaseURI, "d", b.cfg.DatabaseURI, "Database URI")
	flag.StringVar(&b.cfg.ShopDomain, "s", b.cfg.ShopDomain, "Shop domain")
	flag.StringVar(&b.cfg.LogLevel, "l", b.cfg.LogLevel, "Log level")

	flag.Parse()
	return b
}

func (b *Builder) GetConfig() *Config {
	return b.cfg
}
