package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accountkeeper/internal/flagx"
)

// JsonConfig mirrors Config for JSON unmarshalling. Pointer fields tell an
// absent key apart from a zero value, so only keys present in the file
// overwrite what is already set.
type JsonConfig struct {
	DatabaseDriver *string `json:"database_driver"`
	DatabaseDSN    *string `json:"database_dsn"`
	BcryptCost     *int    `json:"bcrypt_cost"`
	EqualizeTiming *bool   `json:"equalize_timing"`
	LogFormat      *string `json:"log_format"`
	LogLevel       *string `json:"log_level"`
	SentryDSN      *string `json:"sentry_dsn"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flag. Without the flag nothing is loaded. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(&config.DatabaseDriver, c.DatabaseDriver)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.BcryptCost, c.BcryptCost)
	overlay(&config.EqualizeTiming, c.EqualizeTiming)
	overlay(&config.LogFormat, c.LogFormat)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.SentryDSN, c.SentryDSN)
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
