// Package config handles configuration for the accounts tool, including
// defaults, JSON overlay, environment and command-line flags.
package config

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDriver: database/sql driver name, "pgx" or "sqlite".
//   - DatabaseDSN: DSN for the selected driver.
//   - BcryptCost: work factor for new password digests.
//   - EqualizeTiming: verify a dummy digest when a login email is unknown.
//   - LogFormat / LogLevel: slog handler settings.
//   - SentryDSN: when set, error logs are also sent to Sentry.
type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER"`
	DatabaseDSN    string `env:"DATABASE_DSN"`
	BcryptCost     int    `env:"BCRYPT_COST"`
	EqualizeTiming bool   `env:"EQUALIZE_TIMING"`
	LogFormat      string `env:"LOG_FORMAT"`
	LogLevel       string `env:"LOG_LEVEL"`
	SentryDSN      string `env:"SENTRY_DSN"`
}

// LoadDefaults populates Config with development defaults: a local SQLite
// file and no Sentry.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = dbx.DriverSQLite
	c.DatabaseDSN = "./data/accounts.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	c.BcryptCost = bcrypt.DefaultCost
	c.EqualizeTiming = true
	c.LogFormat = logging.FormatJSON
	c.LogLevel = "info"
	c.SentryDSN = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
