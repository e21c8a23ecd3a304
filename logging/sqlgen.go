package logging

import "github.com/fathiraz/sqlgen/config"

// Dialect, Table, and Statement are the shared fields the generator
// packages attach to their Debug/Warn/Error calls (txn logs none of them).
// They exist so call sites read "logging.Dialect(d.Name())" instead of
// repeating the same ad-hoc "logging.String(\"dialect\", ...)" pair at
// every log line.
func Dialect(name string) Field { return Field{Key: "dialect", Value: name} }
func Table(name string) Field   { return Field{Key: "table", Value: name} }

// Statement names the kind of SQL statement a log line concerns (select,
// insert, update, delete, create_table, begin, and so on).
func Statement(kind string) Field { return Field{Key: "statement", Value: kind} }

// Timezone records the escape timezone (config.Config's [escape].timezone)
// a value was rendered against, for call sites that log literal escaping.
func Timezone(name string) Field { return Field{Key: "timezone", Value: name} }

// NewConfigLogger builds a StandardLogger whose level and base fields
// (dialect, timezone) are derived from a resolved sqlgen configuration file
// rather than LoggerConfig literals, so cmd/sqlgen's --config flag also
// controls how verbosely the generator logs. Query-logging settings keep
// their DefaultLoggerConfig values. A nil cfg yields DefaultLoggerConfig's
// level (INFO) unchanged.
func NewConfigLogger(cfg *config.Config) *StandardLogger {
	lc := DefaultLoggerConfig()
	if cfg == nil {
		return NewStandardLogger(lc)
	}
	// Non-default dialects (anything beyond the implicit mysql default) and
	// forced identifier quoting both signal a deliberately configured
	// deployment rather than local experimentation, so bump verbosity to
	// DEBUG: query shape under those dialects is the thing most worth
	// seeing when something goes wrong.
	if cfg.Escape.ForceQuoteIdentifiers || cfg.Dialect.Default != "mysql" {
		lc.Level = DEBUG
	}
	logger := NewStandardLogger(lc)
	return logger.WithFields(Dialect(cfg.Dialect.Default), Timezone(cfg.Escape.Timezone)).(*StandardLogger)
}
