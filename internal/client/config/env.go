package config

import (
	"strings"
	"time"
)

func applyEnv(c *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, err := time.ParseDuration(getenv(key)); err == nil && v > 0 {
			*dst = v
		}
	}

	str("WALLET_AUTH_SERVER_URL", &c.ServerURL)
	str("SERVER_WALLET_ADDRESS", &c.ServerWalletAddress)
	str("AUTH_CONTRACT_ID", &c.ContractID)
	str("ZEROCOIN_TOKEN_ID", &c.TokenID)
	str("CLIENT_DB_PATH", &c.LocalDBPath)
	str("LOG_LEVEL", &c.LogLevel)
	dur("POLL_INTERVAL", &c.PollInterval)
	dur("AUTH_TIMEOUT", &c.AuthTimeout)
}
