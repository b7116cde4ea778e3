package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/walletauth/internal/flagx"
)

func applyFlags(c *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-t", "-f", "-l"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.ServerURL, "a", c.ServerURL, "wallet-auth server base URL")
	fs.DurationVar(&c.PollInterval, "i", c.PollInterval, "verify polling interval")
	fs.DurationVar(&c.AuthTimeout, "t", c.AuthTimeout, "authentication timeout")
	fs.StringVar(&c.LocalDBPath, "f", c.LocalDBPath, "local database path")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")

	return fs.Parse(args)
}
