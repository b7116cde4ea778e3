package config

import (
	"strconv"
	"strings"
	"time"
)

func applyEnv(c *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("ZEROBRIX_API_URL", &c.ZeroBrixAPIURL)
	str("ZEROBRIX_API_KEY", &c.ZeroBrixAPIKey)
	str("AUTH_CONTRACT_ID", &c.ContractID)
	str("DB_TYPE", &c.StoreType)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("DB_ENCRYPTION_KEY", &c.EncryptionKey)
	str("LOG_LEVEL", &c.LogLevel)

	if v, err := strconv.ParseBool(getenv("DB_REQUIRE_ENCRYPTION_KEY")); err == nil {
		c.RequireEncryptionKey = v
	}
	if v, err := time.ParseDuration(getenv("UPSTREAM_TIMEOUT")); err == nil {
		c.UpstreamTimeout = v
	}
	if v := getenv("TRUSTED_ORIGINS"); v != "" {
		c.TrustedOrigins = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
