package config

import (
	"maps"
	"net/url"
	"os"
	"slices"
)

// SecretSource represents where a secret comes from.
type SecretSource string

const (
	SourceEnv    SecretSource = "env"
	SourceConfig SecretSource = "config"
	SourceNone   SecretSource = "none"
)

// SecretStatus describes a configured secret without revealing it.
type SecretStatus struct {
	Name   string       `json:"name"`
	Source SecretSource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"`
}

// CheckSecrets returns the status of every secret the config can carry.
func CheckSecrets(cfg *Config) []SecretStatus {
	return []SecretStatus{
		checkSecret("Postgres DSN", cfg.Output.Postgres.DSN, EnvPrefix+"_OUTPUT_POSTGRES_DSN", MaskDSN),
	}
}

func checkSecret(name, value, envVar string, mask func(string) string) SecretStatus {
	status := SecretStatus{Name: name, IsSet: value != "", Source: SourceNone}
	if value == "" {
		return status
	}
	if os.Getenv(envVar) != "" {
		status.Source = SourceEnv
	} else {
		status.Source = SourceConfig
	}
	status.Masked = mask(value)
	return status
}

// MaskDSN hides the password of a postgres URL. Key/value DSNs are masked
// entirely.
func MaskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return maskKey(dsn)
	}
	return u.Redacted()
}

// maskKey masks a secret for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}

// Redacted returns a copy of the config that is safe to print: secrets are
// masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Dataset.Tickers = slices.Clone(c.Dataset.Tickers)
	out.Dataset.Aliases = maps.Clone(c.Dataset.Aliases)
	if out.Output.Postgres.DSN != "" {
		out.Output.Postgres.DSN = MaskDSN(out.Output.Postgres.DSN)
	}
	return &out
}
