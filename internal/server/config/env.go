package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every variable name in the Config env tags,
// e.g. ACCOUNTS_DATABASE_DSN.
const EnvPrefix = "ACCOUNTS_"

// dotenvFiles are loaded into the process environment before parsing.
// Variables already set in the environment win over the files.
var dotenvFiles = []string{".env"}

// parseEnv overlays Config with ACCOUNTS_* environment variables, after
// loading any .env file present. Unset variables leave fields untouched.
// A malformed .env file or value panics.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
