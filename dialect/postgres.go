package dialect

import "strconv"

// PostgresDialect implements Dialect for PostgreSQL, grounded on the
// upstream gorp PostgresDialect (double-quote identifiers, $n
// placeholders, RETURNING, schema support, array operators).
type PostgresDialect struct{}

// NewPostgres returns the PostgreSQL dialect.
func NewPostgres() *PostgresDialect { return &PostgresDialect{} }

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) Caps() Capabilities {
	return Capabilities{
		Schemas: true,
		ReturnValues: ReturnValues{
			Returning: true,
			Output:    false,
		},
		TmpTableTrigger: false,
		Exception:       true,
		AutoIncrement: AutoIncrement{
			DefaultValue:   true,
			IdentityInsert: false,
			Update:         true,
		},
		Default:           true,
		DefaultValues:     true,
		ValuesEmptyParens: false,
		Ignore:            false,
		IgnoreDuplicates:  false,
		UpdateOnDuplicate: false,
		OnDuplicateKey:    false,
		LimitOnUpdate:     false,
		Lock:              true,
		LockKey:           true,
		LockOf:            true,
		ForShare:          true,
		UnionAll:          true,
		Index: IndexCaps{
			Collate:      true,
			Length:       false,
			Parser:       false,
			Concurrently: true,
			Type:         true,
			Using:        2,
			Where:        true,
		},
		IndexViaAlter:      false,
		JoinTableDependent: false,
		BulkDefault:        true,
	}
}

func (d *PostgresDialect) QuoteIdentifier(id string, _ bool) string {
	return `"` + escapeDelimiter(id, '"') + `"`
}

func (d *PostgresDialect) Placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}

func (d *PostgresDialect) NullLiteral() string { return "NULL" }

func (d *PostgresDialect) BooleanLiteral(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (d *PostgresDialect) BytesLiteral(b []byte) string {
	return `'\x` + hexString(b) + `'`
}

func (d *PostgresDialect) Escape(value interface{}, timezone string) (string, error) {
	return ScalarEscape(value, timezone, d)
}
