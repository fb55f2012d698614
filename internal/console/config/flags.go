package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only the flags listed here are taken from os.Args (see flagx), so the
// JSON loader's -c/-config do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgsWithBools(os.Args[1:],
		[]string{"-b", "-t", "-d", "-l", "-k", "-v"},
		[]string{"-admin-only", "--admin-only"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BackendURL, "b", cfg.BackendURL, "gateway base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "gateway request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the credential database")
	fs.StringVar(&cfg.HTTPAddr, "l", cfg.HTTPAddr, "listen address of the local web surface")
	fs.StringVar(&cfg.StoreKey, "k", cfg.StoreKey, "passphrase sealing the stored token")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.AdminOnlyLogin, "admin-only", cfg.AdminOnlyLogin, "reject non-admin accounts at login")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Sub-second timeouts from JSON or env survive unless -t is given.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
