package dialect

// MySQLDialect implements Dialect for MySQL/MariaDB, grounded on the
// upstream gorp MySQLDialect (backtick quoting, "?" placeholders,
// auto_increment, ON DUPLICATE KEY UPDATE).
type MySQLDialect struct{}

// NewMySQL returns the MySQL dialect.
func NewMySQL() *MySQLDialect { return &MySQLDialect{} }

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) Caps() Capabilities {
	return Capabilities{
		Schemas: false,
		ReturnValues: ReturnValues{
			Returning: false,
			Output:    false,
		},
		TmpTableTrigger: false,
		Exception:       false,
		AutoIncrement: AutoIncrement{
			DefaultValue:   true,
			IdentityInsert: false,
			Update:         false,
		},
		Default:           true,
		DefaultValues:     false,
		ValuesEmptyParens: true,
		Ignore:            true,
		IgnoreDuplicates:  true,
		UpdateOnDuplicate: true,
		OnDuplicateKey:    true,
		LimitOnUpdate:     true,
		Lock:              true,
		LockKey:           false,
		LockOf:            false,
		ForShare:          true,
		UnionAll:          true,
		Index: IndexCaps{
			Collate:      true,
			Length:       true,
			Parser:       true,
			Concurrently: false,
			Type:         true,
			Using:        1,
			Where:        false,
		},
		IndexViaAlter:      true,
		JoinTableDependent: true,
		BulkDefault:        true,
	}
}

func (d *MySQLDialect) QuoteIdentifier(id string, _ bool) string {
	return "`" + escapeDelimiter(id, '`') + "`"
}

func (d *MySQLDialect) Placeholder(i int) string { return "?" }

func (d *MySQLDialect) NullLiteral() string { return "NULL" }

func (d *MySQLDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *MySQLDialect) BytesLiteral(b []byte) string {
	return "0x" + hexString(b)
}

func (d *MySQLDialect) Escape(value interface{}, timezone string) (string, error) {
	return ScalarEscape(value, timezone, d)
}

func escapeDelimiter(id string, delim byte) string {
	out := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		out = append(out, id[i])
		if id[i] == delim {
			out = append(out, delim)
		}
	}
	return string(out)
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
