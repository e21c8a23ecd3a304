// Package config reads the sqlgen TOML configuration file: default dialect,
// identifier-quoting strictness, and timezone for value escaping. It is
// consumed by cmd/sqlgen; the core generator packages never read files
// themselves (spec §5 "no I/O").
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the top-level TOML document.
type Config struct {
	Dialect tomlDialect `toml:"dialect"`
	Escape  tomlEscape  `toml:"escape"`
}

// tomlDialect maps [dialect].
type tomlDialect struct {
	Default string `toml:"default"`
}

// tomlEscape maps [escape].
type tomlEscape struct {
	ForceQuoteIdentifiers bool   `toml:"force_quote_identifiers"`
	Timezone              string `toml:"timezone"`
}

var supportedDialects = map[string]bool{
	"mysql":    true,
	"postgres": true,
	"mssql":    true,
	"sqlite3":  true,
}

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Dialect: tomlDialect{Default: "mysql"},
		Escape: tomlEscape{
			ForceQuoteIdentifiers: false,
			Timezone:              "UTC",
		},
	}
}

// LoadFile opens the file at path and parses it as sqlgen TOML configuration.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// Load reads TOML content from r and validates it.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Dialect.Default == "" {
		c.Dialect.Default = "mysql"
	}
	if !supportedDialects[c.Dialect.Default] {
		return fmt.Errorf("config: unsupported dialect %q; supported: mysql, postgres, mssql, sqlite3", c.Dialect.Default)
	}
	if c.Escape.Timezone == "" {
		c.Escape.Timezone = "UTC"
	}
	return nil
}
