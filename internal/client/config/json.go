package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/walletauth/internal/flagx"
	"github.com/dmitrijs2005/walletauth/internal/models"
	"github.com/dmitrijs2005/walletauth/internal/timex"
)

// JsonConfig is the on-disk shape of the -c/-config file:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "poll_interval": "3s",
//	  "auth_timeout": "5m",
//	  "onboarding_fields": {"require_email": true, "available_roles": ["User", "Admin"]}
//	}
type JsonConfig struct {
	ServerURL           string          `json:"server_url"`
	ServerWalletAddress string          `json:"server_wallet_address"`
	ContractID          string          `json:"auth_contract_id"`
	TokenID             string          `json:"token_id"`
	PollInterval        timex.Duration  `json:"poll_interval"`
	AuthTimeout         timex.Duration  `json:"auth_timeout"`
	LocalDBPath         string          `json:"local_db_path"`
	LogLevel            string          `json:"log_level"`
	Onboarding          *onboardingJSON `json:"onboarding_fields"`
}

type onboardingJSON struct {
	RequireName         bool     `json:"require_name"`
	RequireEmail        bool     `json:"require_email"`
	CompanyNameRequired bool     `json:"company_name_required"`
	AvailableRoles      []string `json:"available_roles"`
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
	set(&c.ServerURL, j.ServerURL)
	set(&c.ServerWalletAddress, j.ServerWalletAddress)
	set(&c.ContractID, j.ContractID)
	set(&c.TokenID, j.TokenID)
	set(&c.LocalDBPath, j.LocalDBPath)
	set(&c.LogLevel, j.LogLevel)

	if j.PollInterval.Duration > 0 {
		c.PollInterval = j.PollInterval.Duration
	}
	if j.AuthTimeout.Duration > 0 {
		c.AuthTimeout = j.AuthTimeout.Duration
	}
	if o := j.Onboarding; o != nil {
		c.Onboarding = models.ProfileRules{
			RequireName:         o.RequireName,
			RequireEmail:        o.RequireEmail,
			CompanyNameRequired: o.CompanyNameRequired,
			AvailableRoles:      o.AvailableRoles,
		}
	}
	return nil
}
