package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
)

// configFlags are the flags owned by this package. Everything else on the
// command line belongs to the subcommands.
var configFlags = []string{"-r", "-d", "-b", "-t", "-f", "-l", "-s"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   database driver ("pgx" or "sqlite")
//	-d string   database DSN
//	-b int      bcrypt cost
//	-t bool     equalize login timing for unknown emails (use -t=false to disable)
//	-f string   log format ("json" or "text")
//	-l string   log level
//	-s string   Sentry DSN
//
// The arguments are first filtered with flagx.FilterArgs so that subcommand
// flags do not collide with these.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], configFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDriver, "r", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.EqualizeTiming, "t", config.EqualizeTiming, "equalize login timing")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SentryDSN, "s", config.SentryDSN, "Sentry DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
