package dialect

// SQLiteDialect implements Dialect for SQLite, grounded on the upstream
// gorp SqliteDialect (double-quote identifiers, "?" placeholders, no
// schemas, INSERT OR IGNORE).
type SQLiteDialect struct{}

// NewSQLite returns the SQLite dialect.
func NewSQLite() *SQLiteDialect { return &SQLiteDialect{} }

func (d *SQLiteDialect) Name() string { return "sqlite3" }

func (d *SQLiteDialect) Caps() Capabilities {
	return Capabilities{
		Schemas: false,
		ReturnValues: ReturnValues{
			Returning: true,
			Output:    false,
		},
		TmpTableTrigger: false,
		Exception:       false,
		AutoIncrement: AutoIncrement{
			DefaultValue:   true,
			IdentityInsert: false,
			Update:         true,
		},
		Default:           true,
		DefaultValues:     true,
		ValuesEmptyParens: false,
		Ignore:            true,
		IgnoreDuplicates:  true,
		UpdateOnDuplicate: false,
		OnDuplicateKey:    false,
		LimitOnUpdate:     true,
		Lock:              false,
		LockKey:           false,
		LockOf:            false,
		ForShare:          false,
		UnionAll:          true,
		Index: IndexCaps{
			Collate:      true,
			Length:       false,
			Parser:       false,
			Concurrently: false,
			Type:         false,
			Using:        0,
			Where:        true,
		},
		IndexViaAlter:      false,
		JoinTableDependent: true,
		BulkDefault:        false,
	}
}

func (d *SQLiteDialect) QuoteIdentifier(id string, _ bool) string {
	return `"` + escapeDelimiter(id, '"') + `"`
}

func (d *SQLiteDialect) Placeholder(i int) string { return "?" }

func (d *SQLiteDialect) NullLiteral() string { return "NULL" }

func (d *SQLiteDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *SQLiteDialect) BytesLiteral(b []byte) string {
	return "X'" + hexString(b) + "'"
}

func (d *SQLiteDialect) Escape(value interface{}, timezone string) (string, error) {
	return ScalarEscape(value, timezone, d)
}
