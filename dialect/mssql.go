package dialect

import "strconv"

// MSSQLDialect implements Dialect for Microsoft SQL Server, grounded on
// the upstream gorp SqlServerDialect (bracket identifiers, OUTPUT
// INSERTED.*, IDENTITY_INSERT, trigger temp-table rewrite).
type MSSQLDialect struct{}

// NewMSSQL returns the MSSQL dialect.
func NewMSSQL() *MSSQLDialect { return &MSSQLDialect{} }

func (d *MSSQLDialect) Name() string { return "mssql" }

func (d *MSSQLDialect) Caps() Capabilities {
	return Capabilities{
		Schemas: true,
		ReturnValues: ReturnValues{
			Returning: false,
			Output:    true,
		},
		TmpTableTrigger: true,
		Exception:       false,
		AutoIncrement: AutoIncrement{
			DefaultValue:   false,
			IdentityInsert: true,
			Update:         false,
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
		LockKey:           false,
		LockOf:            false,
		ForShare:          false,
		UnionAll:          true,
		Index: IndexCaps{
			Collate:      false,
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

func (d *MSSQLDialect) QuoteIdentifier(id string, _ bool) string {
	return "[" + escapeDelimiter(id, ']') + "]"
}

func (d *MSSQLDialect) Placeholder(i int) string {
	return "@p" + strconv.Itoa(i)
}

func (d *MSSQLDialect) NullLiteral() string { return "NULL" }

func (d *MSSQLDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *MSSQLDialect) BytesLiteral(b []byte) string {
	return "0x" + hexString(b)
}

func (d *MSSQLDialect) Escape(value interface{}, timezone string) (string, error) {
	return ScalarEscape(value, timezone, d)
}
