// Package selectplan implements the SELECT planner (spec §4.5, C6): the
// attribute rewriter, the include-tree join generator (through and
// non-through associations), the grouped-limit UNION rewrite, and final
// clause assembly.
package selectplan

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

// LockOptions describes a trailing FOR UPDATE / FOR SHARE clause (spec §4.5
// clause assembly, §3 DialectCaps.lock*).
type LockOptions struct {
	// Mode is one of "UPDATE", "SHARE", "KEY SHARE", "NO KEY UPDATE".
	Mode string
	// Of, when non-empty, is appended as "OF <table>".
	Of string
}

// GroupedLimit describes the UNION-of-per-key-limited-subqueries rewrite
// (spec §4.5 "Grouped limit (UNION)").
type GroupedLimit struct {
	On     string
	Values []interface{}
	Limit  int
}

// Options is the Go shape of the SELECT planner's option bag (spec §4.5
// Inputs).
type Options struct {
	Attributes []interface{} // string | []interface{}{expr, alias} | expr.Node
	Include    []*model.Include
	Where      interface{}
	Order      []interface{}
	Group      []interface{}
	Having     interface{}
	Limit      *int
	Offset     *int
	Lock       *LockOptions
	GroupedLimit *GroupedLimit
	SubQuery   *bool // nil = derive; non-nil = explicit override
	MainAlias  string
}

// Build compiles a full SELECT statement for tableRef/m under opts (spec
// §4.5).
func Build(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, opts Options) (string, error) {
	mainTableAs := opts.MainAlias
	if mainTableAs == "" {
		mainTableAs = tableRef.AliasName()
	}
	if mainTableAs == "" {
		mainTableAs = tableRef.Table()
	}

	if opts.GroupedLimit != nil {
		return buildGroupedLimit(d, tableRef, m, opts, mainTableAs)
	}

	subQuery := deriveSubQuery(opts)

	mainAttrs, subAttrs, err := rewriteAttributes(d, m, opts, mainTableAs, subQuery)
	if err != nil {
		return "", err
	}

	joins, extraWhere, includeAttrs, err := generateIncludeJoins(d, m, opts.Include, tableRef.Table(), mainTableAs, subQuery, nil)
	if err != nil {
		return "", err
	}
	if !subQuery {
		subAttrs = append(subAttrs, includeAttrs...)
	}

	whereNode := opts.Where
	if len(extraWhere) > 0 {
		conj := append([]interface{}{}, extraWhere...)
		if whereNode != nil {
			conj = append([]interface{}{whereNode}, conj...)
		}
		whereNode = conj
	}

	whereOpts := where.Options{Model: m, Prefix: expr.NewLiteral(d.QuoteIdentifier(mainTableAs, false))}
	whereFrag, err := where.WhereQuery(d, whereNode, whereOpts)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if subQuery {
		sb.WriteString("SELECT " + mainTableAs + ".*")
		if len(includeAttrs) > 0 {
			sb.WriteString(", " + strings.Join(includeAttrs, ", "))
		}
		sb.WriteString(" FROM (SELECT ")
		sb.WriteString(strings.Join(mainAttrs, ", "))
		sb.WriteString(" FROM " + dialect.QuoteTable(d, tableRef, "") + " AS " + d.QuoteIdentifier(mainTableAs, false))
		if whereFrag != "" {
			sb.WriteString(" " + whereFrag)
		}
		if err := appendOrderGroupHavingLimit(d, &sb, m, opts, mainTableAs, true); err != nil {
			return "", err
		}
		sb.WriteString(") AS " + d.QuoteIdentifier(mainTableAs, false))
		for _, j := range joins {
			sb.WriteString(" " + j)
		}
	} else {
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(mainAttrs, ", "))
		if len(subAttrs) > 0 {
			sb.WriteString(", " + strings.Join(subAttrs, ", "))
		}
		sb.WriteString(" FROM " + dialect.QuoteTable(d, tableRef, "") + " AS " + d.QuoteIdentifier(mainTableAs, false))
		for _, j := range joins {
			sb.WriteString(" " + j)
		}
		if whereFrag != "" {
			sb.WriteString(" " + whereFrag)
		}
		if err := appendOrderGroupHavingLimit(d, &sb, m, opts, mainTableAs, false); err != nil {
			return "", err
		}
	}

	if err := appendLock(d, &sb, opts.Lock); err != nil {
		return "", err
	}
	sb.WriteString(";")
	stmt := sb.String()
	logger.Debug(context.Background(), "selectplan: built select", logging.Dialect(d.Name()), logging.Table(tableRef.Table()), logging.Statement("select"), logging.Int("joins", len(joins)))
	return stmt, nil
}

func deriveSubQuery(opts Options) bool {
	if opts.SubQuery != nil {
		return *opts.SubQuery
	}
	if opts.Limit == nil {
		return false
	}
	for _, inc := range opts.Include {
		if inc.Association != nil && (inc.Association.Kind == model.HasMany || inc.Association.Kind == model.BelongsToMany) {
			return true
		}
	}
	return false
}

// --- attribute rewriting (spec §4.5 "Attribute rewriting") ---

func rewriteAttributes(d dialect.Dialect, m *model.ModelMeta, opts Options, mainTableAs string, subQuery bool) (main []string, sub []string, err error) {
	hasInclude := len(opts.Include) > 0

	items := opts.Attributes
	if subQuery && m != nil {
		present := make(map[string]bool)
		for _, it := range items {
			if s, ok := it.(string); ok {
				present[s] = true
			}
		}
		var pkItems []interface{}
		for _, pk := range m.PrimaryKeys {
			if present[pk] {
				continue
			}
			attr := m.RawAttributes[pk]
			if attr != nil && attr.Field != "" && attr.Field != pk {
				pkItems = append(pkItems, []interface{}{pk, attr.Field})
			} else {
				pkItems = append(pkItems, pk)
			}
		}
		items = append(pkItems, items...)
	}

	if len(items) == 0 {
		if hasInclude {
			return []string{d.QuoteIdentifier(mainTableAs, false) + ".*"}, nil, nil
		}
		return []string{"*"}, nil, nil
	}

	for _, it := range items {
		s, err := rewriteOneAttribute(d, it, mainTableAs, hasInclude)
		if err != nil {
			return nil, nil, err
		}
		main = append(main, s)
	}
	return main, nil, nil
}

func rewriteOneAttribute(d dialect.Dialect, item interface{}, mainTableAs string, hasInclude bool) (string, error) {
	switch v := item.(type) {
	case expr.Node:
		return where.Lower(d, v, where.Options{})
	case []interface{}:
		if len(v) != 2 {
			return "", fmt.Errorf("sqlgen: attribute tuple must have exactly 2 elements")
		}
		var head string
		switch h := v[0].(type) {
		case expr.Node:
			s, err := where.Lower(d, h, where.Options{})
			if err != nil {
				return "", err
			}
			head = s
		case string:
			head = quoteOrPass(d, h)
		default:
			return "", fmt.Errorf("sqlgen: attribute tuple head must be a string or expression node")
		}
		alias, _ := v[1].(string)
		return head + " AS " + d.QuoteIdentifier(alias, false), nil
	case string:
		s := v
		if hasInclude && !strings.Contains(s, ".") {
			s = mainTableAs + "." + s
		}
		return quoteOrPass(d, s), nil
	default:
		return "", fmt.Errorf("sqlgen: unsupported attribute shape %T", item)
	}
}

func quoteOrPass(d dialect.Dialect, s string) string {
	if strings.ContainsAny(s, "`\"") {
		return s
	}
	return dialect.QuoteIdentifiers(d, s)
}

// --- include-tree join generation (spec §4.5 "Include join generation") ---

func generateIncludeJoins(d dialect.Dialect, parentModel *model.ModelMeta, includes []*model.Include, tableName, mainTableAs string, subQuery bool, asPath []string) (joins []string, extraWhere []interface{}, attrs []string, err error) {
	for _, inc := range includes {
		as := inc.As
		parentTable := mainTableAs
		if parentTable != tableName && parentTable != mainTableAs {
			as = parentTable + "." + as
		}

		if inc.Association != nil && inc.Association.IsThrough() {
			j, ew, throughAs, targetAs, err := generateThroughJoin(d, parentModel, inc, mainTableAs, asPath)
			if err != nil {
				return nil, nil, nil, err
			}
			joins = append(joins, j...)
			extraWhere = append(extraWhere, ew...)

			if len(inc.ThroughAttributes) > 0 {
				a, err := rewriteIncludeAttributes(d, throughAs, inc.ThroughAttributes)
				if err != nil {
					return nil, nil, nil, err
				}
				attrs = append(attrs, a...)
			}
			if len(inc.Attributes) > 0 {
				a, err := rewriteIncludeAttributes(d, targetAs, inc.Attributes)
				if err != nil {
					return nil, nil, nil, err
				}
				attrs = append(attrs, a...)
			}
		} else {
			j, targetAs, err := joinIncludeQuery(d, parentModel, inc, mainTableAs, asPath)
			if err != nil {
				return nil, nil, nil, err
			}
			joins = append(joins, j)

			if len(inc.Attributes) > 0 {
				a, err := rewriteIncludeAttributes(d, targetAs, inc.Attributes)
				if err != nil {
					return nil, nil, nil, err
				}
				attrs = append(attrs, a...)
			}
		}

		if len(inc.Include) > 0 {
			childPath := append(append([]string{}, asPath...), as)
			childJoins, childWhere, childAttrs, err := generateIncludeJoins(d, inc.Model, inc.Include, tableName, mainTableAs, subQuery, childPath)
			if err != nil {
				return nil, nil, nil, err
			}
			joins = append(joins, childJoins...)
			extraWhere = append(extraWhere, childWhere...)
			attrs = append(attrs, childAttrs...)
		}
	}
	return joins, extraWhere, attrs, nil
}

// rewriteIncludeAttributes qualifies each eager-loaded column with as and
// aliases it as "<as>__<col>" so it can't collide with the main model's own
// attribute list once merged into the same SELECT (spec §4.5 "Include
// attributes are rewritten ... and appended to subQueryAttributes ... or
// mainAttributes"). Attribute entries that aren't plain identifiers (a
// function call, an operator) have no deterministic alias to derive and are
// rejected rather than silently mis-aliased.
func rewriteIncludeAttributes(d dialect.Dialect, as string, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !isPlainAttributeName(name) {
			return nil, &errs.MissingAliasForComputedAttributeError{As: as}
		}
		col := d.QuoteIdentifier(as, false) + "." + dialect.QuoteIdentifiers(d, name)
		out = append(out, col+" AS "+d.QuoteIdentifier(as+"__"+name, false))
	}
	return out, nil
}

func isPlainAttributeName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			continue
		default:
			return false
		}
	}
	return true
}

func joinIncludeQuery(d dialect.Dialect, parentModel *model.ModelMeta, inc *model.Include, mainTableAs string, asPath []string) (string, string, error) {
	assoc := inc.Association
	if assoc == nil {
		return "", "", fmt.Errorf("sqlgen: include %q has no association", inc.As)
	}

	var fieldLeft, fieldRight string
	if assoc.Kind == model.BelongsTo {
		fieldLeft = firstNonEmpty(assoc.IdentifierField, assoc.Identifier)
		fieldRight = pkField(assoc.Target)
	} else {
		fieldLeft = pkField(assoc.Source)
		fieldRight = firstNonEmpty(assoc.IdentifierField, assoc.Identifier)
	}

	asLeft := strings.Join(asPath, ".")
	asRight := inc.As
	if asLeft != "" {
		asRight = asLeft + "." + inc.As
	}

	leftTable := mainTableAs
	if asLeft != "" {
		leftTable = asLeft
	}

	predicate := d.QuoteIdentifier(leftTable, false) + "." + d.QuoteIdentifier(fieldLeft, false) +
		" = " + d.QuoteIdentifier(asRight, false) + "." + d.QuoteIdentifier(fieldRight, false)

	if inc.On != nil {
		onOpts := where.Options{Model: inc.Model, Prefix: expr.NewLiteral(d.QuoteIdentifier(asRight, false))}
		frag, err := where.WhereItemsQuery(d, inc.On, onOpts, "AND")
		if err != nil {
			return "", "", err
		}
		predicate = frag
	}

	if inc.Where != nil {
		whereOpts := where.Options{Model: inc.Model, Prefix: expr.NewLiteral(d.QuoteIdentifier(asRight, false))}
		frag, err := where.WhereItemsQuery(d, inc.Where, whereOpts, "AND")
		if err != nil {
			return "", "", err
		}
		if frag != "" {
			join := " AND "
			if inc.Or {
				join = " OR "
			}
			predicate = predicate + join + frag
		}
	}

	verb := "LEFT OUTER JOIN"
	if inc.Required {
		verb = "INNER JOIN"
	}

	tableRef := model.TableRef{TableName: inc.Model.TableName()}
	return verb + " " + dialect.QuoteTable(d, tableRef, "") + " AS " + d.QuoteIdentifier(asRight, false) + " ON " + predicate, asRight, nil
}

func pkField(m *model.ModelMeta) string {
	if m == nil || len(m.PrimaryKeys) == 0 {
		return "id"
	}
	pk := m.PrimaryKeys[0]
	if attr, ok := m.RawAttributes[pk]; ok && attr.Field != "" {
		return attr.Field
	}
	return pk
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func generateThroughJoin(d dialect.Dialect, parentModel *model.ModelMeta, inc *model.Include, mainTableAs string, asPath []string) ([]string, []interface{}, string, string, error) {
	assoc := inc.Association
	through := assoc.Through.Model
	throughAs := inc.As + "->" + assoc.Through.As

	sourcePK := pkField(assoc.Source)
	targetPK := pkField(assoc.Target)

	sourceJoinLeft := d.QuoteIdentifier(mainTableAs, false) + "." + d.QuoteIdentifier(sourcePK, false)
	sourceJoinRight := d.QuoteIdentifier(throughAs, false) + "." + d.QuoteIdentifier(assoc.IdentifierField, false)
	targetJoinLeft := d.QuoteIdentifier(throughAs, false) + "." + d.QuoteIdentifier(assoc.ForeignIdentifierField, false)
	targetJoinRight := d.QuoteIdentifier(inc.As, false) + "." + d.QuoteIdentifier(targetPK, false)

	var throughWhereFrag, targetWhereFrag string
	var err error
	if inc.ThroughWhere != nil {
		throughWhereFrag, err = where.WhereItemsQuery(d, inc.ThroughWhere, where.Options{Model: through, Prefix: expr.NewLiteral(d.QuoteIdentifier(throughAs, false))}, "AND")
		if err != nil {
			return nil, nil, "", "", err
		}
	}
	if inc.Where != nil {
		targetWhereFrag, err = where.WhereItemsQuery(d, inc.Where, where.Options{Model: inc.Model, Prefix: expr.NewLiteral(d.QuoteIdentifier(inc.As, false))}, "AND")
		if err != nil {
			return nil, nil, "", "", err
		}
	}

	throughTableRef := model.TableRef{TableName: through.TableName()}
	targetTableRef := model.TableRef{TableName: inc.Model.TableName()}

	var joins []string
	if d.Caps().JoinTableDependent {
		innerOn := targetJoinLeft + " = " + targetJoinRight
		if targetWhereFrag != "" {
			innerOn += " AND " + targetWhereFrag
		}
		inner := "INNER JOIN " + dialect.QuoteTable(d, targetTableRef, "") + " AS " + d.QuoteIdentifier(inc.As, false) + " ON " + innerOn
		outerOn := sourceJoinLeft + " = " + sourceJoinRight
		if throughWhereFrag != "" {
			outerOn += " AND " + throughWhereFrag
		}
		verb := "LEFT OUTER JOIN"
		if inc.Required {
			verb = "INNER JOIN"
		}
		joins = append(joins, verb+" ("+dialect.QuoteTable(d, throughTableRef, "")+" AS "+d.QuoteIdentifier(throughAs, false)+" "+inner+") ON "+outerOn)
	} else {
		throughOn := sourceJoinLeft + " = " + sourceJoinRight
		if throughWhereFrag != "" {
			throughOn += " AND " + throughWhereFrag
		}
		joins = append(joins, "LEFT OUTER JOIN "+dialect.QuoteTable(d, throughTableRef, "")+" AS "+d.QuoteIdentifier(throughAs, false)+" ON "+throughOn)
		targetOn := targetJoinLeft + " = " + targetJoinRight
		if targetWhereFrag != "" {
			targetOn += " AND " + targetWhereFrag
		}
		verb := "LEFT OUTER JOIN"
		if inc.Required {
			verb = "INNER JOIN"
		}
		joins = append(joins, verb+" "+dialect.QuoteTable(d, targetTableRef, "")+" AS "+d.QuoteIdentifier(inc.As, false)+" ON "+targetOn)
	}

	var extraWhere []interface{}
	if inc.Required {
		sub := "SELECT 1 FROM " + dialect.QuoteTable(d, throughTableRef, "") + " AS " + d.QuoteIdentifier(throughAs, false) +
			" INNER JOIN " + dialect.QuoteTable(d, targetTableRef, "") + " AS " + d.QuoteIdentifier(inc.As, false) +
			" ON " + targetJoinLeft + " = " + targetJoinRight +
			" WHERE " + sourceJoinRight + " = " + sourceJoinLeft + " LIMIT 1"
		extraWhere = append(extraWhere, expr.NewRaw("("+sub+") IS NOT NULL"))
	}
	return joins, extraWhere, throughAs, inc.As, nil
}

// --- grouped-limit UNION (spec §4.5 "Grouped limit (UNION)") ---

func buildGroupedLimit(d dialect.Dialect, tableRef model.TableRef, m *model.ModelMeta, opts Options, mainTableAs string) (string, error) {
	gl := opts.GroupedLimit
	unionOp := "UNION"
	if d.Caps().UnionAll {
		unionOp = "UNION ALL"
	}

	var subs []string
	for _, val := range gl.Values {
		subOpts := opts
		subOpts.GroupedLimit = nil
		l := gl.Limit
		subOpts.Limit = &l
		conj := []interface{}{expr.M{{Key: gl.On, Value: val}}}
		if opts.Where != nil {
			conj = append(conj, opts.Where)
		}
		subOpts.Where = conj
		sub, err := Build(d, tableRef, m, subOpts)
		if err != nil {
			return "", err
		}
		subs = append(subs, "("+strings.TrimSuffix(sub, ";")+")")
	}

	return "SELECT " + mainTableAs + ".* FROM (" + strings.Join(subs, " "+unionOp+" ") + ") AS " + d.QuoteIdentifier(mainTableAs, false) + ";", nil
}

// --- clause assembly tail: GROUP BY / HAVING / ORDER BY / LIMIT/OFFSET ---

func appendOrderGroupHavingLimit(d dialect.Dialect, sb *strings.Builder, m *model.ModelMeta, opts Options, mainTableAs string, insideSubquery bool) error {
	if len(opts.Group) > 0 {
		var parts []string
		for _, g := range opts.Group {
			s, err := where.Quote(d, g, m, false)
			if err != nil {
				return err
			}
			parts = append(parts, s)
		}
		sb.WriteString(" GROUP BY " + strings.Join(parts, ", "))
	}

	if opts.Having != nil {
		frag, err := where.WhereItemsQuery(d, opts.Having, where.Options{Model: m}, "AND")
		if err != nil {
			return err
		}
		if frag != "" {
			sb.WriteString(" HAVING " + frag)
		}
	}

	if len(opts.Order) > 0 {
		parts, err := getQueryOrders(d, opts.Order, m)
		if err != nil {
			return err
		}
		if len(parts) > 0 {
			sb.WriteString(" ORDER BY " + strings.Join(parts, ", "))
		}
	}

	if !insideSubquery {
		addLimitAndOffset(d, sb, opts.Limit, opts.Offset)
	}
	return nil
}

var validDirections = map[string]bool{
	"ASC": true, "DESC": true,
	"ASC NULLS FIRST": true, "DESC NULLS FIRST": true,
	"ASC NULLS LAST": true, "DESC NULLS LAST": true,
	"NULLS FIRST": true, "NULLS LAST": true,
}

func getQueryOrders(d dialect.Dialect, order []interface{}, m *model.ModelMeta) ([]string, error) {
	var parts []string
	for _, item := range order {
		switch v := item.(type) {
		case string:
			parts = append(parts, v)
		case expr.Node:
			s, err := where.Lower(d, v, where.Options{Model: m, AllowColSequence: true})
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		case []interface{}:
			seq := v
			var direction string
			if len(seq) > 0 {
				if s, ok := seq[len(seq)-1].(string); ok {
					// A string that follows another string is a direction,
					// valid or not; it is checked against validDirections below.
					followsString := false
					if len(seq) > 1 {
						_, followsString = seq[len(seq)-2].(string)
					}
					if followsString || isDirectionToken(s) {
						direction = strings.ToUpper(s)
						seq = seq[:len(seq)-1]
					}
				}
			}
			frag, err := where.Quote(d, []interface{}(seq), m, true)
			if err != nil {
				return nil, err
			}
			if direction != "" {
				if !validDirections[direction] {
					return nil, &errs.InvalidOrderDirectionError{Direction: direction}
				}
				frag += " " + direction
			}
			parts = append(parts, frag)
		default:
			return nil, fmt.Errorf("sqlgen: unsupported order item %T", item)
		}
	}
	return parts, nil
}

func isDirectionToken(s string) bool {
	return validDirections[strings.ToUpper(s)]
}

func addLimitAndOffset(d dialect.Dialect, sb *strings.Builder, limit, offset *int) {
	if limit == nil && offset == nil {
		return
	}
	l := 0
	if limit != nil {
		l = *limit
	} else {
		l = 10000000000000
	}
	if offset != nil && *offset > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(*offset) + ", " + strconv.Itoa(l))
	} else {
		sb.WriteString(" LIMIT " + strconv.Itoa(l))
	}
}

func appendLock(d dialect.Dialect, sb *strings.Builder, lock *LockOptions) error {
	if lock == nil {
		return nil
	}
	caps := d.Caps()
	if !caps.Lock {
		return nil
	}
	switch lock.Mode {
	case "UPDATE":
		sb.WriteString(" FOR UPDATE")
	case "SHARE":
		if caps.ForShare {
			sb.WriteString(" FOR SHARE")
		} else {
			sb.WriteString(" LOCK IN SHARE MODE")
		}
	case "KEY SHARE":
		if caps.LockKey {
			sb.WriteString(" FOR KEY SHARE")
		} else {
			sb.WriteString(" FOR SHARE")
		}
	case "NO KEY UPDATE":
		if caps.LockKey {
			sb.WriteString(" FOR NO KEY UPDATE")
		} else {
			sb.WriteString(" FOR UPDATE")
		}
	default:
		return fmt.Errorf("sqlgen: unknown lock mode %q", lock.Mode)
	}
	if lock.Of != "" && caps.LockOf {
		sb.WriteString(" OF " + d.QuoteIdentifier(lock.Of, false))
	}
	return nil
}
