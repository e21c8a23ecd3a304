// Package mutate implements the mutation builders (spec §4.6, C7): insert,
// bulkInsert, update, increment, delete, and truncate, including the
// MSSQL trigger temp-table rewrite and the PostgreSQL EXCEPTION wrapper.
package mutate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/expr"
	"github.com/fathiraz/sqlgen/logging"
	"github.com/fathiraz/sqlgen/model"
	"github.com/fathiraz/sqlgen/where"
)

// Options carries the cross-cutting mutation flags shared by insert/update/
// increment (spec §4.6).
type Options struct {
	Timezone   string
	Ignore     bool
	HasTrigger bool // MSSQL: an AFTER INSERT/UPDATE trigger exists on the table
}

// InsertOptions extends Options for insert (spec §4.6 "insert").
type InsertOptions struct {
	Options
	OnDuplicateKeyUpdate []string // column names; emitted when caps.OnDuplicateKey
}

// BulkInsertOptions extends Options for bulkInsert (spec §4.6 "bulkInsert").
type BulkInsertOptions struct {
	Options
	UpdateOnDuplicate []string
}

// UpdateOptions extends Options for update (spec §4.6 "update").
type UpdateOptions struct {
	Options
	Limit *int
}

func escapeAttr(d dialect.Dialect, attr *model.Attribute, value interface{}, tz string) (string, error) {
	if attr != nil && attr.Type != nil {
		scalarFn := func(v interface{}) string {
			s, _ := d.Escape(v, tz)
			return s
		}
		s := attr.Type.Stringify(value, scalarFn)
		if !attr.Type.Escape() {
			return s, nil
		}
		return d.Escape(s, tz)
	}
	return d.Escape(value, tz)
}

func resolveAttr(m *model.ModelMeta, key string) *model.Attribute {
	if m == nil {
		return nil
	}
	if a, ok := m.RawAttributes[key]; ok {
		return a
	}
	return nil
}

func fieldName(attr *model.Attribute, key string) string {
	if attr != nil && attr.Field != "" {
		return attr.Field
	}
	return key
}

// Insert assembles an INSERT statement (spec §4.6 "insert").
func Insert(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, values expr.M, opts InsertOptions) (string, error) {
	caps := d.Caps()

	var fields, vals []string
	var identityCols []string

	for _, kv := range values {
		attr := resolveAttr(m, kv.Key)
		field := fieldName(attr, kv.Key)

		if attr != nil && attr.AutoIncrement && kv.Value == nil {
			if caps.AutoIncrement.DefaultValue && caps.Default {
				fields = append(fields, field)
				vals = append(vals, "DEFAULT")
			}
			continue
		}

		if attr != nil && attr.AutoIncrement {
			identityCols = append(identityCols, field)
		}

		s, err := escapeAttr(d, attr, kv.Value, opts.Timezone)
		if err != nil {
			return "", err
		}
		fields = append(fields, field)
		vals = append(vals, s)
	}

	table := dialect.QuoteTable(d, tableRef, "")
	verb := "INSERT"
	if opts.Ignore && caps.Ignore {
		if d.Name() == "sqlite3" {
			verb = "INSERT OR IGNORE"
		} else {
			verb = "INSERT IGNORE"
		}
	}

	var head, tail string
	if len(fields) == 0 {
		if caps.DefaultValues {
			head = verb + " INTO " + table + " DEFAULT VALUES"
		} else {
			head = verb + " INTO " + table + " () VALUES ()"
		}
	} else {
		quotedFields := quoteFields(d, fields)
		head = verb + " INTO " + table + " (" + strings.Join(quotedFields, ",") + ")"
		tail = " VALUES (" + strings.Join(vals, ",") + ")"
	}

	stmt := head + tail

	if len(opts.OnDuplicateKeyUpdate) > 0 && caps.OnDuplicateKey {
		var clauses []string
		for _, c := range opts.OnDuplicateKeyUpdate {
			q := d.QuoteIdentifier(c, false)
			clauses = append(clauses, q+"="+q)
		}
		stmt += " ON DUPLICATE KEY UPDATE " + strings.Join(clauses, ",")
	}

	if caps.ReturnValues.Output {
		stmt = insertOutputClause(d, head, tail)
	} else if caps.ReturnValues.Returning {
		stmt += " RETURNING *"
	}

	if caps.TmpTableTrigger && opts.HasTrigger {
		return wrapTriggerTempTable(d, tableRef, fields, head, tail), nil
	}

	if len(identityCols) > 0 && caps.AutoIncrement.IdentityInsert {
		stmt = "SET IDENTITY_INSERT " + table + " ON; " + stmt + "; SET IDENTITY_INSERT " + table + " OFF"
	}

	if caps.Exception && opts.Ignore {
		wrapped := wrapPgException(stmt)
		logger.Debug(context.Background(), "mutate: built insert", logging.Dialect(d.Name()), logging.Table(tableRef.Table()), logging.Statement("insert"), logging.Bool("wrapped", true))
		return wrapped, nil
	}

	logger.Debug(context.Background(), "mutate: built insert", logging.Dialect(d.Name()), logging.Table(tableRef.Table()), logging.Statement("insert"), logging.Bool("wrapped", false))
	return stmt + ";", nil
}

func quoteFields(d dialect.Dialect, fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = d.QuoteIdentifier(f, false)
	}
	return out
}

func insertOutputClause(d dialect.Dialect, head, tail string) string {
	return head + " OUTPUT INSERTED.*" + tail
}

func wrapTriggerTempTable(d dialect.Dialect, tableRef model.TableRef, fields []string, head, tail string) string {
	var cols []string
	for _, f := range fields {
		cols = append(cols, d.QuoteIdentifier(f, false)+" SQL_VARIANT")
	}
	declare := "DECLARE @tmp TABLE (" + strings.Join(cols, ",") + ")"
	insert := head + " OUTPUT INSERTED.* INTO @tmp" + tail
	return declare + "; " + insert + "; SELECT * FROM @tmp;"
}

func wrapPgException(innerStmt string) string {
	fn := "pg_temp.testfunc_" + strings.ReplaceAll(uuid.New().String(), "-", "_")
	var b strings.Builder
	b.WriteString("CREATE OR REPLACE FUNCTION " + fn + "() RETURNS SETOF RECORD AS $func$\n")
	b.WriteString("BEGIN\n  RETURN QUERY " + innerStmt + ";\n")
	b.WriteString("EXCEPTION WHEN unique_violation THEN\n")
	b.WriteString("  GET STACKED DIAGNOSTICS RETURN;\n")
	b.WriteString("END;\n$func$ LANGUAGE plpgsql;\n")
	b.WriteString("SELECT * FROM " + fn + "();\n")
	b.WriteString("DROP FUNCTION " + fn + "();")
	return b.String()
}

// BulkInsert assembles a multi-row INSERT (spec §4.6 "bulkInsert").
func BulkInsert(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, rows []expr.M, opts BulkInsertOptions) (string, error) {
	caps := d.Caps()

	var order []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, kv := range row {
			if !seen[kv.Key] {
				seen[kv.Key] = true
				order = append(order, kv.Key)
			}
		}
	}

	table := dialect.QuoteTable(d, tableRef, "")
	verb := "INSERT"
	if opts.Ignore && caps.Ignore {
		if d.Name() == "sqlite3" {
			verb = "INSERT OR IGNORE"
		} else {
			verb = "INSERT IGNORE"
		}
	}

	fields := make([]string, len(order))
	for i, key := range order {
		attr := resolveAttr(m, key)
		fields[i] = fieldName(attr, key)
	}

	var rowStrings []string
	for _, row := range rows {
		var vals []string
		for _, key := range order {
			v, present := row.Get(key)
			attr := resolveAttr(m, key)
			if !present {
				if attr != nil && attr.AutoIncrement && caps.BulkDefault {
					vals = append(vals, "DEFAULT")
					continue
				}
				s, err := escapeAttr(d, attr, nil, opts.Timezone)
				if err != nil {
					return "", err
				}
				vals = append(vals, s)
				continue
			}
			s, err := escapeAttr(d, attr, v, opts.Timezone)
			if err != nil {
				return "", err
			}
			vals = append(vals, s)
		}
		rowStrings = append(rowStrings, "("+strings.Join(vals, ",")+")")
	}

	stmt := verb + " INTO " + table + " (" + strings.Join(quoteFields(d, fields), ",") + ") VALUES " + strings.Join(rowStrings, ",")

	if len(opts.UpdateOnDuplicate) > 0 && caps.UpdateOnDuplicate {
		var clauses []string
		for _, c := range opts.UpdateOnDuplicate {
			q := d.QuoteIdentifier(c, false)
			clauses = append(clauses, q+"=VALUES("+q+")")
		}
		stmt += " ON DUPLICATE KEY UPDATE " + strings.Join(clauses, ",")
	}

	if caps.ReturnValues.Returning {
		stmt += " RETURNING *"
	}

	return stmt + ";", nil
}

// Update assembles an UPDATE statement (spec §4.6 "update"). An empty
// values map is a no-op (spec §8 scenario 7: updateQuery with no columns
// returns "").
func Update(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, values expr.M, whereNode interface{}, opts UpdateOptions) (string, error) {
	if len(values) == 0 {
		logger.Warn(context.Background(), "mutate: update with no columns is a no-op", logging.Table(tableRef.Table()), logging.Statement("update"))
		return "", nil
	}
	caps := d.Caps()

	var sets []string
	for _, kv := range values {
		attr := resolveAttr(m, kv.Key)
		if attr != nil && attr.AutoIncrement && !caps.AutoIncrement.Update {
			continue
		}
		field := fieldName(attr, kv.Key)
		s, err := escapeAttr(d, attr, kv.Value, opts.Timezone)
		if err != nil {
			return "", err
		}
		sets = append(sets, d.QuoteIdentifier(field, false)+"="+s)
	}
	if len(sets) == 0 {
		return "", nil
	}

	table := dialect.QuoteTable(d, tableRef, "")
	mainAs := tableRef.AliasName()
	if mainAs == "" {
		mainAs = tableRef.Table()
	}

	head := "UPDATE " + table + " SET " + strings.Join(sets, ",")

	whereOpts := where.Options{Model: m, Prefix: expr.NewLiteral(d.QuoteIdentifier(mainAs, false)), Timezone: opts.Timezone}
	whereFrag, err := where.WhereQuery(d, whereNode, whereOpts)
	if err != nil {
		return "", err
	}

	stmt := head
	if whereFrag != "" {
		stmt += " " + whereFrag
	}
	if opts.Limit != nil && caps.LimitOnUpdate {
		stmt += " LIMIT " + strconv.Itoa(*opts.Limit)
	}

	if caps.ReturnValues.Output {
		stmt = "UPDATE " + table + " SET " + strings.Join(sets, ",") + " OUTPUT INSERTED.*"
		if whereFrag != "" {
			stmt += " " + whereFrag
		}
	} else if caps.ReturnValues.Returning {
		stmt += " RETURNING *"
	}

	return stmt + ";", nil
}

// Increment assembles the `col = col + value` increment form (spec §4.6
// "increment"). extra carries additional non-null option keys that are set
// verbatim rather than incremented.
func Increment(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, attrs expr.M, extra expr.M, whereNode interface{}, opts Options) (string, error) {
	caps := d.Caps()
	var sets []string
	for _, kv := range attrs {
		attr := resolveAttr(m, kv.Key)
		field := fieldName(attr, kv.Key)
		s, err := escapeAttr(d, attr, kv.Value, opts.Timezone)
		if err != nil {
			return "", err
		}
		q := d.QuoteIdentifier(field, false)
		sets = append(sets, q+"="+q+"+"+s)
	}
	for _, kv := range extra {
		if kv.Value == nil {
			continue
		}
		attr := resolveAttr(m, kv.Key)
		field := fieldName(attr, kv.Key)
		s, err := escapeAttr(d, attr, kv.Value, opts.Timezone)
		if err != nil {
			return "", err
		}
		sets = append(sets, d.QuoteIdentifier(field, false)+"="+s)
	}
	if len(sets) == 0 {
		return "", fmt.Errorf("sqlgen: increment requires at least one column")
	}

	table := dialect.QuoteTable(d, tableRef, "")
	mainAs := tableRef.AliasName()
	if mainAs == "" {
		mainAs = tableRef.Table()
	}
	whereOpts := where.Options{Model: m, Prefix: expr.NewLiteral(d.QuoteIdentifier(mainAs, false)), Timezone: opts.Timezone}
	whereFrag, err := where.WhereQuery(d, whereNode, whereOpts)
	if err != nil {
		return "", err
	}

	stmt := "UPDATE " + table + " SET " + strings.Join(sets, ",")
	if whereFrag != "" {
		stmt += " " + whereFrag
	}
	if caps.ReturnValues.Returning {
		stmt += " RETURNING *"
	}
	return stmt + ";", nil
}

// DeleteOptions carries the delete-statement flags.
type DeleteOptions struct {
	Timezone string
	Limit    *int
}

// Delete assembles a DELETE statement. Spec §4.6 marks delete as abstract
// ("dialect-specific"); this is the generic baseline shared by all four
// concrete dialects, since none of them diverge from plain `DELETE FROM …
// WHERE …` for the single-table case this module covers.
func Delete(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, whereNode interface{}, opts DeleteOptions) (string, error) {
	table := dialect.QuoteTable(d, tableRef, "")
	mainAs := tableRef.AliasName()
	if mainAs == "" {
		mainAs = tableRef.Table()
	}
	whereOpts := where.Options{Model: m, Prefix: expr.NewLiteral(d.QuoteIdentifier(mainAs, false)), Timezone: opts.Timezone}
	whereFrag, err := where.WhereQuery(d, whereNode, whereOpts)
	if err != nil {
		return "", err
	}
	stmt := "DELETE FROM " + table
	if whereFrag != "" {
		stmt += " " + whereFrag
	}
	if opts.Limit != nil && d.Caps().LimitOnUpdate {
		stmt += " LIMIT " + strconv.Itoa(*opts.Limit)
	}
	return stmt + ";", nil
}

// Truncate assembles a TRUNCATE statement. It takes no limit or where, so
// neither can reach the statement (spec §4.6 "truncate must ignore limit
// and where").
func Truncate(d dialect.Dialect, tableRef model.TableRef) string {
	return "TRUNCATE TABLE " + dialect.QuoteTable(d, tableRef, "") + ";"
}
