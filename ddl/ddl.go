// Package ddl implements the DDL builders (spec §4.7, C8): addIndex (with
// legacy-alias normalisation and name derivation), create/drop/rename
// table, and addColumn.
package ddl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/errs"
	"github.com/fathiraz/sqlgen/expr"
	"github.com/fathiraz/sqlgen/logging"
	"github.com/fathiraz/sqlgen/model"
	"github.com/fathiraz/sqlgen/where"
)

// logger receives a Debug entry per generated DDL statement. Defaults to a
// no-op so callers that never call SetLogger pay nothing for it.
var logger logging.Logger = logging.NewNoOpLogger()

// SetLogger installs l as the package-wide logger for the DDL builders.
func SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.NewNoOpLogger()
	}
	logger = l
}

// IndexFieldObject is the object form of an index field entry: a quoted
// name with optional COLLATE / length / direction / operator-class
// modifiers. COLLATE and length are gated by the dialect's index
// capabilities; operator class and direction are emitted whenever set,
// on every dialect.
type IndexFieldObject struct {
	Name      string
	Attribute string
	Collate   string
	Length    int
	Direction string
	Operator  string
}

// IndexOptions is the (already alias-normalised) option bag for AddIndex
// (spec §4.7 "addIndex").
type IndexOptions struct {
	Name         string
	Unique       bool
	Type         string // e.g. "FULLTEXT", "SPATIAL"
	Using        string
	Concurrently bool
	Parser       string
	Where        interface{}
}

// NormalizeLegacyIndexOptions folds the legacy spellings (indexName->Name,
// indicesType->Type, indexType|method->Using) a caller may still be passing
// into canonical IndexOptions fields.
func NormalizeLegacyIndexOptions(raw map[string]interface{}, opts *IndexOptions) {
	if v, ok := raw["indexName"].(string); ok && opts.Name == "" {
		opts.Name = v
	}
	if v, ok := raw["indicesType"].(string); ok && opts.Type == "" {
		opts.Type = v
	}
	if v, ok := raw["indexType"].(string); ok && opts.Using == "" {
		opts.Using = v
	}
	if v, ok := raw["method"].(string); ok && opts.Using == "" {
		opts.Using = v
	}
}

func nameIndexes(prefix string, fieldNames []string) string {
	clean := strings.NewReplacer(".", "_", "`", "", `"`, "", "[", "", "]", "").Replace(prefix)
	parts := append([]string{clean}, fieldNames...)
	name := strings.ToLower(strings.Join(parts, "_"))
	return name
}

// AddIndex assembles a CREATE INDEX / ALTER TABLE ADD INDEX statement (spec
// §4.7 "addIndex").
func AddIndex(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, fields []interface{}, opts IndexOptions, rawTablename string) (string, error) {
	caps := d.Caps()

	prefix := rawTablename
	if prefix == "" {
		prefix = tableRef.Table()
	}
	prefix = strings.NewReplacer(".", "_", "`", "", `"`, "").Replace(prefix)

	var fieldSQL []string
	var fieldNames []string
	for _, f := range fields {
		sql, name, err := renderIndexField(d, f, caps)
		if err != nil {
			return "", err
		}
		fieldSQL = append(fieldSQL, sql)
		fieldNames = append(fieldNames, name)
	}
	if len(fieldSQL) == 0 {
		return "", fmt.Errorf("sqlgen: addIndex requires at least one field")
	}

	name := opts.Name
	if name == "" {
		name = nameIndexes(prefix, fieldNames)
	}

	idxType := opts.Type
	if idxType != "" && !caps.Index.Type {
		idxType = ""
	}

	var whereFrag string
	if opts.Where != nil {
		frag, err := where.WhereQuery(d, opts.Where, where.Options{Model: m})
		if err != nil {
			return "", err
		}
		whereFrag = frag
	}

	usingClause := ""
	if opts.Using != "" && caps.Index.Using != 0 {
		usingClause = "USING " + opts.Using
	}

	uniqueKW := ""
	if opts.Unique {
		uniqueKW = "UNIQUE "
	}
	typeKW := ""
	if idxType != "" {
		typeKW = idxType + " "
	}

	if caps.IndexViaAlter {
		var sb strings.Builder
		sb.WriteString("ALTER TABLE " + dialect.QuoteTable(d, tableRef, "") + " ADD ")
		if opts.Concurrently && caps.Index.Concurrently {
			sb.WriteString("CONCURRENTLY ")
		}
		sb.WriteString(uniqueKW + typeKW + "INDEX " + d.QuoteIdentifier(name, false) + " ")
		if usingClause != "" && caps.Index.Using == 1 {
			sb.WriteString(usingClause + " ")
		}
		sb.WriteString("(" + strings.Join(fieldSQL, ",") + ")")
		stmt := sb.String()
		logger.Debug(context.Background(), "ddl: built add index (alter)", logging.Dialect(d.Name()), logging.String("index", name))
		return stmt, nil
	}

	var sb strings.Builder
	sb.WriteString("CREATE " + uniqueKW + typeKW + "INDEX ")
	if opts.Concurrently && caps.Index.Concurrently {
		sb.WriteString("CONCURRENTLY ")
	}
	sb.WriteString(d.QuoteIdentifier(name, false) + " ")
	if usingClause != "" && caps.Index.Using == 1 {
		sb.WriteString(usingClause + " ")
	}
	sb.WriteString("ON " + dialect.QuoteTable(d, tableRef, ""))
	if usingClause != "" && caps.Index.Using == 2 {
		sb.WriteString(" " + usingClause)
	}
	sb.WriteString(" (" + strings.Join(fieldSQL, ",") + ")")
	if opts.Parser != "" && caps.Index.Parser {
		sb.WriteString(" WITH PARSER " + opts.Parser)
	}
	if whereFrag != "" && caps.Index.Where {
		sb.WriteString(" " + whereFrag)
	}
	stmt := sb.String()
	logger.Debug(context.Background(), "ddl: built add index (create)", logging.Dialect(d.Name()), logging.String("index", name))
	return stmt, nil
}

func renderIndexField(d dialect.Dialect, f interface{}, caps dialect.Capabilities) (sql string, name string, err error) {
	switch v := f.(type) {
	case string:
		return d.QuoteIdentifier(v, false), v, nil
	case expr.Node:
		s, err := where.Lower(d, v, where.Options{})
		if err != nil {
			return "", "", err
		}
		return s, "expr", nil
	case IndexFieldObject:
		fieldName := v.Attribute
		if fieldName == "" {
			fieldName = v.Name
		}
		if fieldName == "" {
			return "", "", &errs.MissingIndexFieldNameError{Index: v.Name}
		}
		var sb strings.Builder
		sb.WriteString(d.QuoteIdentifier(fieldName, false))
		if v.Collate != "" && caps.Index.Collate {
			sb.WriteString(" COLLATE " + v.Collate)
		}
		if v.Length > 0 && caps.Index.Length {
			sb.WriteString(" (" + strconv.Itoa(v.Length) + ")")
		}
		if v.Operator != "" {
			sb.WriteString(" " + v.Operator)
		}
		if v.Direction != "" {
			sb.WriteString(" " + v.Direction)
		}
		return sb.String(), fieldName, nil
	default:
		return "", "", fmt.Errorf("sqlgen: unsupported index field shape %T", f)
	}
}

// CreateTable assembles a CREATE TABLE statement from a column definition
// list. Each entry is "quoted-name type-sql [constraints]"; this builder
// joins them and wraps the table clause — it does not infer SQL types from
// model metadata, since attribute-to-column-type mapping is a migration
// concern out of this module's scope (spec §1 Non-goals).
func CreateTable(d dialect.Dialect, tableRef model.TableRef, columnDefs []string, ifNotExists bool) string {
	clause := "CREATE TABLE "
	if ifNotExists {
		clause += "IF NOT EXISTS "
	}
	return clause + dialect.QuoteTable(d, tableRef, "") + " (" + strings.Join(columnDefs, ", ") + ");"
}

// DropTable assembles a DROP TABLE statement.
func DropTable(d dialect.Dialect, tableRef model.TableRef, ifExists bool) string {
	clause := "DROP TABLE "
	if ifExists {
		clause += "IF EXISTS "
	}
	return clause + dialect.QuoteTable(d, tableRef, "") + ";"
}

// RenameTable assembles a table rename statement, using the per-dialect
// spelling (MSSQL's sp_rename vs everyone else's RENAME TO).
func RenameTable(d dialect.Dialect, from, to model.TableRef) string {
	if d.Name() == "mssql" {
		return "EXEC sp_rename " + sqlString(from.Table()) + ", " + sqlString(to.Table()) + ";"
	}
	return "ALTER TABLE " + dialect.QuoteTable(d, from, "") + " RENAME TO " + d.QuoteIdentifier(to.Table(), false) + ";"
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// AddColumn assembles an ALTER TABLE ADD COLUMN statement.
func AddColumn(d dialect.Dialect, tableRef model.TableRef, columnName, columnSQLType string, allowNull bool) string {
	nullClause := "NOT NULL"
	if allowNull {
		nullClause = "NULL"
	}
	return "ALTER TABLE " + dialect.QuoteTable(d, tableRef, "") + " ADD COLUMN " + d.QuoteIdentifier(columnName, false) + " " + columnSQLType + " " + nullClause + ";"
}
