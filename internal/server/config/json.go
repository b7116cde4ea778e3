package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/walletauth/internal/flagx"
	"github.com/dmitrijs2005/walletauth/internal/timex"
)

// JsonConfig is the on-disk shape of the -c/-config file. Durations accept
// "15s" strings or integer nanoseconds. Absent fields keep earlier values.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	ZeroBrixAPIURL       string         `json:"zerobrix_api_url"`
	ZeroBrixAPIKey       string         `json:"zerobrix_api_key"`
	ContractID           string         `json:"auth_contract_id"`
	UpstreamTimeout      timex.Duration `json:"upstream_timeout"`
	StoreType            string         `json:"db_type"`
	DBPath               string         `json:"db_path"`
	DatabaseDSN          string         `json:"database_dsn"`
	EncryptionKey        string         `json:"db_encryption_key"`
	RequireEncryptionKey *bool          `json:"db_require_encryption_key"`
	TrustedOrigins       []string       `json:"trusted_origins"`
	LogLevel             string         `json:"log_level"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
}

func applyJSON(c *Config, args []string) error {
	path := flagx.ConfigFileFromArgs(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var j JsonConfig
	if err := json.Unmarshal(raw, &j); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.HTTPAddr, j.HTTPAddr)
	set(&c.ZeroBrixAPIURL, j.ZeroBrixAPIURL)
	set(&c.ZeroBrixAPIKey, j.ZeroBrixAPIKey)
	set(&c.ContractID, j.ContractID)
	set(&c.StoreType, j.StoreType)
	set(&c.DBPath, j.DBPath)
	set(&c.DatabaseDSN, j.DatabaseDSN)
	set(&c.EncryptionKey, j.EncryptionKey)
	set(&c.LogLevel, j.LogLevel)

	if j.UpstreamTimeout.Duration > 0 {
		c.UpstreamTimeout = j.UpstreamTimeout.Duration
	}
	if j.ShutdownTimeout.Duration > 0 {
		c.ShutdownTimeout = j.ShutdownTimeout.Duration
	}
	if j.RequireEncryptionKey != nil {
		c.RequireEncryptionKey = *j.RequireEncryptionKey
	}
	if len(j.TrustedOrigins) > 0 {
		c.TrustedOrigins = j.TrustedOrigins
	}
	return nil
}
