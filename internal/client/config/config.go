// Package config loads runtime configuration for the wallet-auth terminal
// client.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment, optionally from a .env file.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags.
//
// Flags:
//
//	-a string     wallet-auth server base URL
//	-i duration   verify polling interval ("3s")
//	-t duration   authentication timeout ("5m")
//	-f string     local database path
//	-l string     log level
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/walletauth/internal/filex"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

const defaultDBFile = "walletauth-client.db"

// Config holds runtime settings for the terminal client.
type Config struct {
	ServerURL string

	// QR payload fields.
	ServerWalletAddress string
	ContractID          string
	TokenID             string

	PollInterval time.Duration
	AuthTimeout  time.Duration

	LocalDBPath string
	LogLevel    string

	Onboarding models.ProfileRules
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.PollInterval = 3 * time.Second
	c.AuthTimeout = 5 * time.Minute
	c.LogLevel = "warn"
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

	if cfg.LocalDBPath == "" {
		p, err := filex.DefaultDataPath(defaultDBFile)
		if err != nil {
			return nil, err
		}
		cfg.LocalDBPath = p
	}
	return cfg, nil
}

// LoadConfig loads .env when present and then calls Load with the process
// arguments and environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	return Load(os.Args[1:], os.Getenv)
}
