package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines goldbook service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"GOLDBOOK_HTTP_PORT"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`
	Database struct {
		DSN string `yaml:"dsn" env:"GOLDBOOK_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr" env:"GOLDBOOK_REDIS_ADDR"`
		Password   string `yaml:"password" env:"GOLDBOOK_REDIS_PASSWORD"`
		SessionTTL int    `yaml:"sessionTtlSeconds" env:"GOLDBOOK_SESSION_TTL"`
	} `yaml:"redis"`
	PriceFeed struct {
		URL            string `yaml:"url" env:"GOLDBOOK_PRICE_FEED_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"GOLDBOOK_PRICE_FEED_TIMEOUT"`
	} `yaml:"priceFeed"`
	Events struct {
		StreamURL string `yaml:"streamUrl" env:"GOLDBOOK_EVENT_STREAM_URL"`
	} `yaml:"events"`
	JWT struct {
		Secret     string `yaml:"secret" env:"GOLDBOOK_JWT_SECRET"`
		TTLMinutes int    `yaml:"ttlMinutes" env:"GOLDBOOK_JWT_TTL"`
	} `yaml:"jwt"`
	Ledger struct {
		// MaxQuoteAgeSeconds rejects commits whose quote snapshot is older
		// than the bound. Zero disables the check.
		MaxQuoteAgeSeconds int `yaml:"maxQuoteAgeSeconds" env:"GOLDBOOK_MAX_QUOTE_AGE"`
	} `yaml:"ledger"`
}

// Load reads configuration via the yaml+env loader and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: struct {
			Port string `yaml:"port" env:"GOLDBOOK_HTTP_PORT"`
		}{
			Port: "8080",
		},
		Redis: struct {
			Addr       string `yaml:"addr" env:"GOLDBOOK_REDIS_ADDR"`
			Password   string `yaml:"password" env:"GOLDBOOK_REDIS_PASSWORD"`
			SessionTTL int    `yaml:"sessionTtlSeconds" env:"GOLDBOOK_SESSION_TTL"`
		}{
			Addr:       "localhost:6379",
			SessionTTL: 0,
		},
		PriceFeed: struct {
			URL            string `yaml:"url" env:"GOLDBOOK_PRICE_FEED_URL"`
			TimeoutSeconds int    `yaml:"timeoutSeconds" env:"GOLDBOOK_PRICE_FEED_TIMEOUT"`
		}{
			TimeoutSeconds: 5,
		},
		JWT: struct {
			Secret     string `yaml:"secret" env:"GOLDBOOK_JWT_SECRET"`
			TTLMinutes int    `yaml:"ttlMinutes" env:"GOLDBOOK_JWT_TTL"`
		}{
			TTLMinutes: 60,
		},
	}

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	if strings.TrimSpace(cfg.PriceFeed.URL) == "" {
		return nil, errors.New("config: price feed url required")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SessionTTL returns the session cache expiry. Zero means no expiry,
// so a signed-in account survives arbitrarily long process restarts.
func (c *Config) SessionTTL() time.Duration {
	if c.Redis.SessionTTL <= 0 {
		return 0
	}
	return time.Duration(c.Redis.SessionTTL) * time.Second
}

// PriceFeedTimeout returns the price feed HTTP timeout.
func (c *Config) PriceFeedTimeout() time.Duration {
	if c.PriceFeed.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.PriceFeed.TimeoutSeconds) * time.Second
}

// TokenTTL returns JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.JWT.TTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWT.TTLMinutes) * time.Minute
}

// MaxQuoteAge returns the commit freshness bound, zero when disabled.
func (c *Config) MaxQuoteAge() time.Duration {
	if c.Ledger.MaxQuoteAgeSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Ledger.MaxQuoteAgeSeconds) * time.Second
}
