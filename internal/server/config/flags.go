package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/walletauth/internal/flagx"
)

// applyFlags overlays command-line flags.
//
//	-a string     HTTP listen address (":8080")
//	-s string     store type: json, encrypted-json, sqlite, postgres
//	-f string     store file path (json, encrypted-json, sqlite)
//	-d string     Postgres DSN
//	-t duration   upstream request timeout ("15s")
//	-l string     log level
func applyFlags(c *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-f", "-d", "-t", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.HTTPAddr, "a", c.HTTPAddr, "address and port to run server")
	fs.StringVar(&c.StoreType, "s", c.StoreType, "user store type")
	fs.StringVar(&c.DBPath, "f", c.DBPath, "user store file path")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN")
	fs.DurationVar(&c.UpstreamTimeout, "t", c.UpstreamTimeout, "ZeroBrix request timeout")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")

	return fs.Parse(args)
}
