// Package config handles configuration for the wallet-auth server: built-in
// defaults, the environment (optionally from a .env file), a JSON file and
// command-line flags, applied in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

// Config holds runtime settings for the wallet-auth server.
type Config struct {
	HTTPAddr        string
	ZeroBrixAPIURL  string
	ZeroBrixAPIKey  string
	ContractID      string
	UpstreamTimeout time.Duration

	// StoreType is one of json, encrypted-json, sqlite, postgres.
	StoreType            string
	DBPath               string
	DatabaseDSN          string
	EncryptionKey        string
	RequireEncryptionKey bool

	TrustedOrigins  []string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults. The ZeroBrix
// settings have no default and must be supplied.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.UpstreamTimeout = 15 * time.Second
	c.StoreType = "json"
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
}

// Validate reports missing required settings as common.ErrorMissingConfig.
func (c *Config) Validate() error {
	var missing []string
	if c.ZeroBrixAPIURL == "" {
		missing = append(missing, "ZEROBRIX_API_URL")
	}
	if c.ZeroBrixAPIKey == "" {
		missing = append(missing, "ZEROBRIX_API_KEY")
	}
	if c.ContractID == "" {
		missing = append(missing, "AUTH_CONTRACT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", common.ErrorMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Load builds a Config from args (without the program name) and getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	applyEnv(cfg, getenv)
	if err := applyJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads .env when present and then calls Load with the process
// arguments and environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load(os.Args[1:], os.Getenv)
}
