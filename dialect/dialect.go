// Package dialect provides the capability-flagged Dialect abstraction that
// every other builder package consults (spec §4.1 C1 identifier/value
// escaping, §3 DialectCaps, §4.2 quoteTable). Concrete dialects live in
// mysql.go, postgres.go, mssql.go, sqlite.go.
package dialect

import (
	"fmt"
	"strings"
)

// ReturnValues describes which RETURNING-equivalent syntax a dialect has,
// if any (spec §3 DialectCaps.returnValues).
type ReturnValues struct {
	Returning bool // PostgreSQL/SQLite: RETURNING *
	Output    bool // MSSQL: OUTPUT INSERTED.*
}

// AutoIncrement describes how a dialect handles auto-increment columns on
// write (spec §3 DialectCaps.autoIncrement, §4.6).
type AutoIncrement struct {
	DefaultValue bool // supports emitting DEFAULT for an explicit-null autoincrement column
	IdentityInsert bool // supports SET IDENTITY_INSERT t ON/OFF wrapping
	Update       bool // autoincrement columns may appear in an UPDATE SET list
}

// IndexCaps describes what an addIndex call may use (spec §3
// DialectCaps.index, §4.7).
type IndexCaps struct {
	Collate      bool
	Length       bool
	Parser       bool
	Concurrently bool
	Type         bool
	Using        int // 0 = unsupported, 1 = USING before columns, 2 = USING after ON table
	Where        bool
}

// Capabilities is the static flag set a dialect exposes to every builder —
// the Go shape of spec §3's DialectCaps.
type Capabilities struct {
	Schemas bool

	ReturnValues ReturnValues

	TmpTableTrigger bool // MSSQL trigger temp-table rewrite (spec §4.6)
	Exception       bool // PostgreSQL EXCEPTION-wrapper rewrite (spec §4.6)

	AutoIncrement AutoIncrement

	Default           bool // supports the bare DEFAULT keyword in VALUES
	DefaultValues      bool // supports "DEFAULT VALUES" for an all-default insert
	ValuesEmptyParens bool // supports "VALUES ()" for an all-default insert

	Ignore            bool // supports INSERT IGNORE / OR IGNORE
	IgnoreDuplicates  bool // bulk insert may silently drop duplicate-key rows
	UpdateOnDuplicate bool // bulk insert may emit an upsert clause
	OnDuplicateKey    bool // MySQL-style ON DUPLICATE KEY UPDATE syntax

	LimitOnUpdate bool // UPDATE may carry a trailing LIMIT

	Lock     bool
	LockKey  bool // supports FOR KEY SHARE / FOR NO KEY UPDATE
	LockOf   bool // supports "OF table" on a locking clause
	ForShare bool // supports FOR SHARE (vs only FOR UPDATE)

	UnionAll bool // supports UNION ALL (vs folding to UNION)

	Index IndexCaps

	IndexViaAlter     bool // addIndex emits ALTER TABLE ... ADD INDEX
	JoinTableDependent bool // many-to-many through-table join may be a single wrapped JOIN
	BulkDefault       bool // bulk insert may use DEFAULT for a missing serial column
}

// Dialect is the capability dispatcher consulted by every builder (spec §2
// C2, §4.1 C1). It also carries the identifier/value escaping primitives,
// since those are dialect-specific too.
type Dialect interface {
	// Name identifies the dialect ("mysql", "postgres", "mssql", "sqlite3").
	Name() string

	// Caps returns the static capability flags for this dialect.
	Caps() Capabilities

	// QuoteIdentifier wraps id in this dialect's identifier delimiters,
	// doubling any internal delimiter occurrence. When force is true the
	// identifier is quoted even if the dialect would otherwise leave bare
	// identifiers unquoted (no dialect here does, but the hook is kept for
	// symmetry with the source system's `force` parameter).
	QuoteIdentifier(id string, force bool) string

	// Placeholder returns the bound-parameter placeholder for the i'th
	// (1-based) parameter in a statement.
	Placeholder(i int) string

	// Escape renders value as a SQL literal, honouring timezone.
	Escape(value interface{}, timezone string) (string, error)

	// NullLiteral returns this dialect's NULL token (always "NULL" in
	// practice, kept as a method so a future dialect could override it).
	NullLiteral() string

	// BooleanLiteral renders a boolean value as this dialect's token.
	BooleanLiteral(v bool) string

	// BytesLiteral renders a byte slice as this dialect's hex/binary
	// literal syntax.
	BytesLiteral(b []byte) string
}

// QuoteIdentifiers splits dotted on the last '.' only: everything before is
// quoted as one identifier, the final segment is quoted separately (spec
// §4.1). This asymmetry preserves schema-qualified names without
// over-splitting alias paths that are themselves already dot-joined.
func QuoteIdentifiers(d Dialect, dotted string) string {
	idx := strings.LastIndex(dotted, ".")
	if idx < 0 {
		return d.QuoteIdentifier(dotted, false)
	}
	head, tail := dotted[:idx], dotted[idx+1:]
	return d.QuoteIdentifier(head, false) + "." + d.QuoteIdentifier(tail, false)
}

// TableRef is the minimal shape quoteTable needs: a bare name, or a
// schema-qualified reference, with an optional alias. model.TableRef
// satisfies this by value.
type TableRef interface {
	SchemaName() string
	Table() string
	Delim() string
	AliasName() string
}

// QuoteTable renders ref for use in a FROM/JOIN/INSERT INTO clause (spec
// §4.1 quoteTable). as, when non-empty, is appended as " AS <quoted as>";
// when as == "*" the alias is derived from ref's own alias/name.
func QuoteTable(d Dialect, ref TableRef, as string) string {
	var base string
	caps := d.Caps()
	schema := ref.SchemaName()
	if schema != "" && caps.Schemas {
		base = d.QuoteIdentifier(schema, false) + "." + d.QuoteIdentifier(ref.Table(), false)
	} else if schema != "" {
		delim := ref.Delim()
		if delim == "" {
			delim = "."
		}
		base = d.QuoteIdentifier(schema+delim+ref.Table(), false)
	} else {
		base = d.QuoteIdentifier(ref.Table(), false)
	}

	alias := as
	if alias == "*" {
		alias = ref.AliasName()
		if alias == "" {
			alias = ref.Table()
		}
	}
	if alias != "" {
		base += " AS " + d.QuoteIdentifier(alias, false)
	}
	return base
}

// Registry resolves a Dialect by name (spec §2's "dialect-capability
// dispatcher").
type Registry struct {
	dialects map[string]Dialect
}

// NewRegistry builds a Registry pre-populated with the four built-in
// dialects.
func NewRegistry() *Registry {
	r := &Registry{dialects: make(map[string]Dialect)}
	r.Register(NewMySQL())
	r.Register(NewPostgres())
	r.Register(NewMSSQL())
	r.Register(NewSQLite())
	return r
}

// Register adds or replaces a dialect under its own Name().
func (r *Registry) Register(d Dialect) { r.dialects[d.Name()] = d }

// Get resolves a dialect by name.
func (r *Registry) Get(name string) (Dialect, error) {
	d, ok := r.dialects[name]
	if !ok {
		return nil, fmt.Errorf("sqlgen: unknown dialect %q", name)
	}
	return d, nil
}
