package config

import "github.com/kelseyhightower/envconfig"

// parseEnv overlays Config with values from SECUREPM_-prefixed environment
// variables, e.g. SECUREPM_ENDPOINT_ADDR or SECUREPM_VAULT_STORAGE. Unset
// variables leave the current values in place. Panics on malformed values
// such as an unparseable duration.
func parseEnv(cfg *Config) {
	if err := envconfig.Process("SECUREPM", cfg); err != nil {
		panic(err)
	}
}
