// Package config loads the brokerlink YAML configuration and applies
// environment-variable overrides.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the brokerlink integration layer.
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Cache     Cache     `yaml:"cache"`
	Vendors   Vendors   `yaml:"vendors"`
	Providers Providers `yaml:"providers"`
}

// Storage holds paths for process-local persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration for the HTTP API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Cache configures the historical-data cache.
type Cache struct {
	TTL time.Duration `yaml:"ttl"`
}

// Endpoint holds the connection settings for one live vendor API. A vendor
// with an empty BaseURL stays on its deterministic sandbox service.
type Endpoint struct {
	BaseURL         string `yaml:"base_url"`
	Token           string `yaml:"token"`
	AccountID       string `yaml:"account_id,omitempty"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Vendors holds per-trading-platform endpoint configuration.
type Vendors struct {
	MetaAPI      Endpoint `yaml:"metaapi"`
	TradeLocker  Endpoint `yaml:"tradelocker"`
	Tradovate    Endpoint `yaml:"tradovate"`
	DXtrade      Endpoint `yaml:"dxtrade"`
	CTrader      Endpoint `yaml:"ctrader"`
	TradeStation Endpoint `yaml:"tradestation"`
}

// Providers holds per-market-data-vendor credentials and endpoints.
type Providers struct {
	AlphaVantage Endpoint `yaml:"alphavantage"`
	Yahoo        Endpoint `yaml:"yahoo"`
	Oanda        Endpoint `yaml:"oanda"`
	Polygon      Endpoint `yaml:"polygon"`
	IEX          Endpoint `yaml:"iex"`
	Binance      Endpoint `yaml:"binance"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is supplied: sandbox
// vendors, a 24h cache, and info logging.
func Default() *Config {
	return &Config{
		Storage: Storage{DataDir: "data", SQLitePath: "brokerlink.db"},
		Server:  Server{Host: "127.0.0.1", Port: 8080},
		Logging: Logging{Level: "info", Format: "json"},
		Cache:   Cache{TTL: 24 * time.Hour},
	}
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides. Zero-value
// fields fall back to Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BROKERLINK_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("BROKERLINK_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("BROKERLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("METAAPI_TOKEN"); v != "" {
		cfg.Vendors.MetaAPI.Token = v
	}
	if v := os.Getenv("METAAPI_ACCOUNT_ID"); v != "" {
		cfg.Vendors.MetaAPI.AccountID = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.Token = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Providers.Polygon.Token = v
	}
	if v := os.Getenv("OANDA_TOKEN"); v != "" {
		cfg.Providers.Oanda.Token = v
	}
	if v := os.Getenv("IEX_TOKEN"); v != "" {
		cfg.Providers.IEX.Token = v
	}
}
