// Package where implements the WHERE/expression compiler (spec §4.3, C5)
// together with the reference resolver (spec §4.2, C4) and the expression
// lowering dispatcher (spec §4.4, handleSequelizeMethod). The three are
// implemented in one package deliberately: they form a single mutually
// recursive group in the source system (Quote dispatches Expression nodes
// through the same lowering path whereItemQuery uses, and Col's sequence
// form walks back into Quote), and Go has no forward-declared cross-package
// cycles, so splitting them across packages would force an artificial
// interface boundary through the middle of one recursive algorithm.
package where

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/errs"
	"github.com/fathiraz/sqlgen/expr"
	"github.com/fathiraz/sqlgen/logging"
	"github.com/fathiraz/sqlgen/model"
)

// Options carries the per-call context whereItemQuery needs: which model's
// attributes resolve bare keys, an optional forced field override, an
// optional table-qualifying prefix, and escaping context (timezone, type
// validation).
type Options struct {
	Model  *model.ModelMeta
	Prefix interface{} // nil, expr.Literal, model.TableRef, or string
	Field  *model.Attribute

	Timezone         string
	TypeValidation   bool
	AllowColSequence bool // true inside ORDER BY / GROUP BY compilation
}

// aliasMap is the closed legacy-spelling table of spec §3. Deliberately no
// case-folding is performed (spec §9 open question: "preserve the literal
// set from the capability registry rather than inferring") — every
// recognised spelling, including case variants, has its own explicit entry.
var aliasMap = map[string]string{
	"$eq": "$eq", "eq": "$eq",
	"$ne": "$ne", "ne": "$ne",
	"$gte": "$gte", "gte": "$gte", ">=": "$gte",
	"$gt": "$gt", "gt": "$gt", ">": "$gt",
	"$lte": "$lte", "lte": "$lte", "<=": "$lte",
	"$lt": "$lt", "lt": "$lt", "<": "$lt",
	"$not": "$not", "not": "$not",
	"$is": "$is", "is": "$is",
	"$in": "$in", "in": "$in",
	"$notIn": "$notIn", "notIn": "$notIn", "not_in": "$notIn", "notin": "$notIn",
	"$like": "$like", "like": "$like",
	"$notLike": "$notLike", "notLike": "$notLike", "notlike": "$notLike", "not_like": "$notLike",
	"$iLike": "$iLike", "iLike": "$iLike", "ilike": "$iLike",
	"$notILike": "$notILike", "notILike": "$notILike", "notilike": "$notILike", "not_ilike": "$notILike",
	"$between": "$between", "between": "$between", "..": "$between",
	"$notBetween": "$notBetween", "notBetween": "$notBetween", "!..": "$notBetween", "not_between": "$notBetween",
	"$overlap": "$overlap", "overlap": "$overlap", "&&": "$overlap",
	"$contains": "$contains", "@>": "$contains", "contains": "$contains",
	"$contained": "$contained", "<@": "$contained", "contained": "$contained",
	"$any": "$any", "any": "$any",
	"$all": "$all", "all": "$all",
	"$adjacent": "$adjacent", "-|-": "$adjacent",
	"$strictLeft": "$strictLeft", "<<": "$strictLeft",
	"$strictRight": "$strictRight", ">>": "$strictRight",
	"$noExtendRight": "$noExtendRight", "&<": "$noExtendRight",
	"$noExtendLeft": "$noExtendLeft", "&>": "$noExtendLeft",
	"$col": "$col", "$raw": "$raw", "$values": "$values",
	"$and": "$and", "and": "$and",
	"$or": "$or", "or": "$or",
}

func applyAlias(key string) string {
	if key == "" {
		return key
	}
	if canon, ok := aliasMap[key]; ok {
		return canon
	}
	return key
}

// WhereQuery is the top-level entry point: it returns "" for an empty
// condition, otherwise "WHERE " + the compiled fragment (spec §4.3, §8).
func WhereQuery(d dialect.Dialect, node interface{}, opts Options) (string, error) {
	frag, err := WhereItemsQuery(d, node, opts, "AND")
	if err != nil {
		logger.Error(context.Background(), "where: compile failed", err, logging.Dialect(d.Name()))
		return "", err
	}
	if frag == "" {
		return "", nil
	}
	logger.Debug(context.Background(), "where: compiled clause", logging.Dialect(d.Name()), logging.String("clause", frag))
	return "WHERE " + frag, nil
}

// WhereItemsQuery lowers a condition tree — mapping, sequence, Expression
// node, scalar PK, or empty — joining sibling conjuncts/disjuncts with
// binding ("AND" or "OR").
func WhereItemsQuery(d dialect.Dialect, node interface{}, opts Options, binding string) (string, error) {
	if isEmptyCondition(node) {
		return "", nil
	}

	switch v := node.(type) {
	case string:
		return "", &errs.RawWhereRemovedError{Raw: v}
	case expr.M:
		var parts []string
		for _, kv := range v {
			frag, err := WhereItemQuery(d, kv.Key, kv.Value, opts)
			if err != nil {
				return "", err
			}
			if frag != "" {
				parts = append(parts, frag)
			}
		}
		return strings.Join(parts, " "+binding+" "), nil
	case []interface{}:
		var parts []string
		for _, el := range v {
			frag, err := WhereItemsQuery(d, el, opts, "AND")
			if err != nil {
				return "", err
			}
			if frag != "" {
				parts = append(parts, frag)
			}
		}
		return strings.Join(parts, " "+binding+" "), nil
	case expr.Node:
		return Lower(d, v, opts)
	default:
		// A bare scalar is PK shorthand (spec §3, §9): lowered to
		// {pk: value} before entering the rest of the compiler.
		if opts.Model == nil || len(opts.Model.PrimaryKeys) == 0 {
			return "", fmt.Errorf("sqlgen: scalar where condition requires a model with a primary key")
		}
		return WhereItemQuery(d, opts.Model.PrimaryKeys[0], node, opts)
	}
}

func isEmptyCondition(node interface{}) bool {
	if node == nil {
		return true
	}
	switch v := node.(type) {
	case expr.M:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	}
	return false
}

// WhereItemQuery lowers one (key, value) condition pair (spec §4.3).
func WhereItemQuery(d dialect.Dialect, key string, value interface{}, opts Options) (string, error) {
	// 1. resolve field/fieldType
	field := opts.Field
	if field == nil && opts.Model != nil {
		if a, ok := opts.Model.RawAttributes[key]; ok {
			field = a
		} else if a, ok := opts.Model.FieldAttributes[key]; ok {
			field = a
		}
	}
	fieldType := model.FieldScalar
	if field != nil && field.Type != nil {
		fieldType = field.Type.Kind()
	}

	// 2. JSON path rewrite
	if key != "" && strings.Contains(key, ".") {
		dot := strings.Index(key, ".")
		head, tail := key[:dot], key[dot+1:]
		var headAttr *model.Attribute
		if opts.Model != nil {
			headAttr = opts.Model.RawAttributes[head]
		}
		if headAttr != nil && headAttr.Type != nil && headAttr.Type.Kind() == model.FieldJSON {
			value = buildNestedJSON(tail, value)
			field = headAttr
			fieldType = model.FieldJSON
			if headAttr.Field != "" {
				key = headAttr.Field
			} else {
				key = head
			}
		}
	}

	// 3. alias map on key and first-level keys of a mapping value
	key = applyAlias(key)
	if m, ok := value.(expr.M); ok {
		nm := make(expr.M, len(m))
		for i, kv := range m {
			nm[i] = expr.KV{Key: applyAlias(kv.Key), Value: kv.Value}
		}
		value = nm
	}

	// 4. key undefined + string value -> raw fragment verbatim
	if key == "" {
		if s, ok := value.(string); ok {
			return s, nil
		}
	}

	// 5. key undefined + Expression node -> lower directly
	if key == "" {
		if n, ok := value.(expr.Node); ok {
			return Lower(d, n, opts)
		}
	}

	// 6. key undefined + sequence
	if key == "" {
		if seq, ok := value.([]interface{}); ok {
			if canTreatArrayAsAnd(seq) {
				return WhereItemQuery(d, "$and", seq, opts)
			}
			return lowerRawArray(d, seq, opts)
		}
	}

	if key == "" {
		return "", fmt.Errorf("sqlgen: unrecognised condition shape with no key")
	}

	// 7. logical combinators at key level
	switch key {
	case "$or":
		return lowerLogical(d, "OR", value, opts, false)
	case "$and":
		return lowerLogical(d, "AND", value, opts, false)
	case "$not":
		return lowerLogical(d, "AND", value, opts, true)
	}

	// 8. array -> $in normalisation (unless the column is ARRAY-typed)
	if arr, ok := value.([]interface{}); ok {
		if fieldType != model.FieldArray {
			value = expr.M{{Key: "$in", Value: arr}}
		}
	}

	// 9. {$not: x} normalisation
	if m, ok := value.(expr.M); ok && len(m) == 1 && m[0].Key == "$not" {
		inner := m[0].Value
		if seq, ok2 := inner.([]interface{}); ok2 {
			value = expr.M{{Key: "$notIn", Value: seq}}
		} else if inner != nil {
			if _, isBool := inner.(bool); !isBool {
				value = expr.M{{Key: "$ne", Value: inner}}
			}
		}
	}

	// 10. nested $or/$and under an attribute key
	if m, ok := value.(expr.M); ok && len(m) == 1 && (m[0].Key == "$or" || m[0].Key == "$and") {
		op := "AND"
		if m[0].Key == "$or" {
			op = "OR"
		}
		seq, ok2 := m[0].Value.([]interface{})
		if !ok2 {
			return "", fmt.Errorf("sqlgen: %s value must be an array", m[0].Key)
		}
		var parts []string
		for _, el := range seq {
			frag, err := WhereItemQuery(d, key, el, opts)
			if err != nil {
				return "", err
			}
			if frag != "" {
				parts = append(parts, frag)
			}
		}
		joined := strings.Join(parts, " "+op+" ")
		if len(parts) > 1 {
			joined = "(" + joined + ")"
		}
		return joined, nil
	}

	// 11. JSON traversal
	if m, ok := value.(expr.M); ok && fieldType == model.FieldJSON {
		quotedCol, err := quoteKeyForWhere(d, key, opts)
		if err != nil {
			return "", err
		}
		return lowerJSONPath(d, quotedCol, m, nil, opts)
	}

	// 12. multi-key operator mapping
	if m, ok := value.(expr.M); ok && len(m) > 1 {
		var parts []string
		for _, kv := range m {
			frag, err := WhereItemQuery(d, key, expr.M{kv}, opts)
			if err != nil {
				return "", err
			}
			if frag != "" {
				parts = append(parts, frag)
			}
		}
		joined := strings.Join(parts, " AND ")
		if len(parts) > 1 {
			joined = "(" + joined + ")"
		}
		return joined, nil
	}

	// 13. key emission + operator emission
	quotedKey, err := quoteKeyForWhere(d, key, opts)
	if err != nil {
		return "", err
	}
	localOpts := opts
	localOpts.Field = field
	if m, ok := value.(expr.M); ok && len(m) == 1 {
		return emitOperator(d, quotedKey, m[0].Key, m[0].Value, localOpts)
	}
	return emitOperator(d, quotedKey, "$eq", value, localOpts)
}

func canTreatArrayAsAnd(seq []interface{}) bool {
	if len(seq) == 0 {
		return false
	}
	for _, el := range seq {
		if _, ok := el.(expr.M); !ok {
			return false
		}
	}
	return true
}

func lowerRawArray(d dialect.Dialect, seq []interface{}, opts Options) (string, error) {
	if len(seq) == 0 {
		return "", nil
	}
	raw, ok := seq[0].(string)
	if !ok {
		return "", fmt.Errorf("sqlgen: raw condition array must start with a SQL string")
	}
	bindings := seq[1:]
	idx := 0
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '?' && idx < len(bindings) {
			s, err := escapeValue(d, bindings[idx], opts)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			idx++
			continue
		}
		b.WriteByte(raw[i])
	}
	return b.String(), nil
}

func buildNestedJSON(tail string, value interface{}) expr.M {
	segments := strings.Split(tail, ".")
	cur := value
	for i := len(segments) - 1; i >= 0; i-- {
		cur = expr.M{{Key: segments[i], Value: cur}}
	}
	m, _ := cur.(expr.M)
	return m
}

func lowerLogical(d dialect.Dialect, op string, value interface{}, opts Options, negate bool) (string, error) {
	switch v := value.(type) {
	case []interface{}:
		if len(v) == 0 {
			if op == "OR" || negate {
				logger.Warn(context.Background(), "where: empty logical combinator collapsed to 0 = 1", logging.String("op", op), logging.Bool("negate", negate))
				return "0 = 1", nil
			}
			return "", nil
		}
		var parts []string
		for _, el := range v {
			frag, composite, err := lowerLogicalChild(d, el, opts)
			if err != nil {
				return "", err
			}
			if frag == "" {
				continue
			}
			if composite {
				frag = "(" + frag + ")"
			}
			parts = append(parts, frag)
		}
		joined := strings.Join(parts, " "+op+" ")
		if len(parts) > 1 {
			joined = "(" + joined + ")"
		}
		if negate {
			if joined == "" {
				return "", nil
			}
			return "NOT " + joined, nil
		}
		return joined, nil
	case expr.M:
		if len(v) == 0 {
			if op == "OR" || negate {
				return "0 = 1", nil
			}
			return "", nil
		}
		frag, err := WhereItemsQuery(d, v, opts, op)
		if err != nil {
			return "", err
		}
		if frag == "" {
			return "", nil
		}
		if negate {
			return "NOT (" + frag + ")", nil
		}
		if len(v) > 1 {
			frag = "(" + frag + ")"
		}
		return frag, nil
	default:
		return "", fmt.Errorf("sqlgen: logical combinator value must be an array or object")
	}
}

func lowerLogicalChild(d dialect.Dialect, el interface{}, opts Options) (frag string, composite bool, err error) {
	if m, ok := el.(expr.M); ok {
		frag, err = WhereItemsQuery(d, m, opts, "AND")
		return frag, len(m) > 1, err
	}
	frag, err = WhereItemsQuery(d, el, opts, "AND")
	return frag, false, err
}

// --- JSON path traversal (spec §4.3 rule 9) ---

func lowerJSONPath(d dialect.Dialect, quotedColumn string, node interface{}, path []string, opts Options) (string, error) {
	m, ok := node.(expr.M)
	if !ok {
		return emitJSONLeaf(d, quotedColumn, path, "$eq", node, opts)
	}
	if len(m) != 1 {
		var parts []string
		for _, kv := range m {
			frag, err := lowerJSONPath(d, quotedColumn, expr.M{kv}, path, opts)
			if err != nil {
				return "", err
			}
			parts = append(parts, frag)
		}
		joined := strings.Join(parts, " AND ")
		if len(parts) > 1 {
			joined = "(" + joined + ")"
		}
		return joined, nil
	}
	kv := m[0]
	if strings.HasPrefix(kv.Key, "$") {
		return emitJSONLeaf(d, quotedColumn, path, kv.Key, kv.Value, opts)
	}
	return lowerJSONPath(d, quotedColumn, kv.Value, append(append([]string{}, path...), kv.Key), opts)
}

func emitJSONLeaf(d dialect.Dialect, quotedColumn string, path []string, opKey string, leafValue interface{}, opts Options) (string, error) {
	pathSegs := append([]string{}, path...)
	castType := ""
	if len(pathSegs) > 0 {
		last := pathSegs[len(pathSegs)-1]
		if idx := strings.Index(last, "::"); idx >= 0 {
			castType = strings.ToUpper(last[idx+2:])
			pathSegs[len(pathSegs)-1] = last[:idx]
		}
	}
	if castType == "" {
		castType = inferCastType(leafValue)
	}
	accessor := "(" + quotedColumn + " #>> '{" + strings.Join(pathSegs, ", ") + "}')"
	if castType != "" {
		accessor = accessor + "::" + castType
	}
	return emitOperator(d, accessor, opKey, leafValue, opts)
}

func inferCastType(v interface{}) string {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "double precision"
	case time.Time:
		return "timestamptz"
	case bool:
		return "boolean"
	default:
		return ""
	}
}

// --- operator emission (spec §4.3 rule 12) ---

func emitOperator(d dialect.Dialect, lhs string, opKey string, value interface{}, opts Options) (string, error) {
	anySuffix := ""
	if m, ok := value.(expr.M); ok && len(m) == 1 {
		switch m[0].Key {
		case "$any":
			anySuffix = " ANY"
			value = m[0].Value
		case "$all":
			anySuffix = " ALL"
			value = m[0].Value
		}
	}

	switch opKey {
	case "$eq":
		s, err := emitValue(d, value, opts)
		if err != nil {
			return "", err
		}
		if s == d.NullLiteral() {
			return lhs + " IS " + s, nil
		}
		return lhs + " =" + anySuffix + " " + s, nil
	case "$ne":
		s, err := emitValue(d, value, opts)
		if err != nil {
			return "", err
		}
		if s == d.NullLiteral() {
			return lhs + " IS NOT " + s, nil
		}
		return lhs + " !=" + anySuffix + " " + s, nil
	case "$is":
		s, err := emitValue(d, value, opts)
		if err != nil {
			return "", err
		}
		return lhs + " IS " + s, nil
	case "$not":
		s, err := emitValue(d, value, opts)
		if err != nil {
			return "", err
		}
		return lhs + " IS NOT " + s, nil
	case "$gte":
		return binaryOp(d, lhs, ">=", value, opts, anySuffix)
	case "$gt":
		return binaryOp(d, lhs, ">", value, opts, anySuffix)
	case "$lte":
		return binaryOp(d, lhs, "<=", value, opts, anySuffix)
	case "$lt":
		return binaryOp(d, lhs, "<", value, opts, anySuffix)
	case "$like":
		return likeOp(d, lhs, "LIKE", value, opts, anySuffix)
	case "$notLike":
		return likeOp(d, lhs, "NOT LIKE", value, opts, anySuffix)
	case "$iLike":
		return likeOp(d, lhs, "ILIKE", value, opts, anySuffix)
	case "$notILike":
		return likeOp(d, lhs, "NOT ILIKE", value, opts, anySuffix)
	case "$between":
		return betweenOp(d, lhs, "BETWEEN", value, opts)
	case "$notBetween":
		return betweenOp(d, lhs, "NOT BETWEEN", value, opts)
	case "$in":
		return inOp(d, lhs, "IN", value, opts)
	case "$notIn":
		return inOp(d, lhs, "NOT IN", value, opts)
	case "$any":
		return anyAllOp(d, lhs, "ANY", value, opts)
	case "$all":
		return anyAllOp(d, lhs, "ALL", value, opts)
	case "$overlap":
		return binaryOp(d, lhs, "&&", value, opts, "")
	case "$contains":
		return binaryOp(d, lhs, "@>", value, opts, "")
	case "$contained":
		return binaryOp(d, lhs, "<@", value, opts, "")
	case "$adjacent":
		return binaryOp(d, lhs, "-|-", value, opts, "")
	case "$strictLeft":
		return binaryOp(d, lhs, "<<", value, opts, "")
	case "$strictRight":
		return binaryOp(d, lhs, ">>", value, opts, "")
	case "$noExtendRight":
		return binaryOp(d, lhs, "&<", value, opts, "")
	case "$noExtendLeft":
		return binaryOp(d, lhs, "&>", value, opts, "")
	case "$raw":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return "", fmt.Errorf("sqlgen: $raw value must be a string")
	case "$col":
		colRef, err := colIdentifier(d, value)
		if err != nil {
			return "", err
		}
		return lhs + " = " + colRef, nil
	case "$values":
		s, err := valuesLiteral(d, value, opts)
		if err != nil {
			return "", err
		}
		return lhs + " = " + s, nil
	default:
		// Unrecognised $-operator: preserve as a literal column key (spec
		// §7) rather than failing.
		ident := d.QuoteIdentifier(strings.TrimPrefix(opKey, "$"), false)
		s, err := emitValue(d, value, opts)
		if err != nil {
			return "", err
		}
		return ident + " = " + s, nil
	}
}

func binaryOp(d dialect.Dialect, lhs, sym string, value interface{}, opts Options, anySuffix string) (string, error) {
	s, err := emitValue(d, value, opts)
	if err != nil {
		return "", err
	}
	return lhs + " " + sym + anySuffix + " " + s, nil
}

func likeOp(d dialect.Dialect, lhs, sym string, value interface{}, opts Options, anySuffix string) (string, error) {
	s, err := emitValue(d, value, opts)
	if err != nil {
		return "", err
	}
	if anySuffix != "" {
		return lhs + " " + sym + " ANY (" + s + ")", nil
	}
	return lhs + " " + sym + " " + s, nil
}

func betweenOp(d dialect.Dialect, lhs, sym string, value interface{}, opts Options) (string, error) {
	arr, ok := value.([]interface{})
	if !ok || len(arr) != 2 {
		return "", fmt.Errorf("sqlgen: %s requires exactly two elements", sym)
	}
	a, err := emitValue(d, arr[0], opts)
	if err != nil {
		return "", err
	}
	b, err := emitValue(d, arr[1], opts)
	if err != nil {
		return "", err
	}
	return lhs + " " + sym + " " + a + " AND " + b, nil
}

func inOp(d dialect.Dialect, lhs, sym string, value interface{}, opts Options) (string, error) {
	if lit, ok := value.(expr.Literal); ok {
		return lhs + " " + sym + " " + lit.Val, nil
	}
	arr, ok := value.([]interface{})
	if !ok {
		return "", fmt.Errorf("sqlgen: %s value must be an array", sym)
	}
	if len(arr) == 0 {
		if sym == "IN" {
			return lhs + " IN (NULL)", nil
		}
		return "", nil
	}
	parts := make([]string, len(arr))
	for i, el := range arr {
		s, err := emitValue(d, el, opts)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return lhs + " " + sym + " (" + strings.Join(parts, ", ") + ")", nil
}

func anyAllOp(d dialect.Dialect, lhs, word string, value interface{}, opts Options) (string, error) {
	if m, ok := value.(expr.M); ok && len(m) == 1 && m[0].Key == "$values" {
		s, err := valuesLiteral(d, m[0].Value, opts)
		if err != nil {
			return "", err
		}
		return lhs + " = " + word + " " + s, nil
	}
	s, err := emitValue(d, value, opts)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return lhs + " = " + word + " " + s, nil
	}
	return lhs + " = " + word + " (" + s + ")", nil
}

func valuesLiteral(d dialect.Dialect, value interface{}, opts Options) (string, error) {
	arr, ok := value.([]interface{})
	if !ok {
		return "", fmt.Errorf("sqlgen: $values requires an array")
	}
	parts := make([]string, len(arr))
	for i, el := range arr {
		s, err := emitValue(d, el, opts)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + s + ")"
	}
	return "(VALUES " + strings.Join(parts, ", ") + ")", nil
}

func colIdentifier(d dialect.Dialect, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("sqlgen: $col value must be a string")
	}
	segs := strings.Split(s, ".")
	if len(segs) > 2 {
		head := strings.Join(segs[:len(segs)-1], ".")
		segs = []string{head, segs[len(segs)-1]}
	}
	quoted := make([]string, len(segs))
	for i, seg := range segs {
		quoted[i] = d.QuoteIdentifier(seg, false)
	}
	return strings.Join(quoted, "."), nil
}

// --- value/operand escaping ---

func emitValue(d dialect.Dialect, value interface{}, opts Options) (string, error) {
	if m, ok := value.(expr.M); ok && len(m) == 1 {
		switch m[0].Key {
		case "$col":
			return colIdentifier(d, m[0].Value)
		case "$raw":
			if s, ok2 := m[0].Value.(string); ok2 {
				return s, nil
			}
		}
	}
	if n, ok := value.(expr.Node); ok {
		return Lower(d, n, opts)
	}
	if arr, ok := value.([]interface{}); ok {
		return escapeList(d, arr, opts)
	}
	return escapeValue(d, value, opts)
}

func escapeList(d dialect.Dialect, arr []interface{}, opts Options) (string, error) {
	parts := make([]string, len(arr))
	for i, el := range arr {
		s, err := emitValue(d, el, opts)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")", nil
}

func escapeValue(d dialect.Dialect, value interface{}, opts Options) (string, error) {
	if opts.Field != nil && opts.Field.Type != nil {
		t := opts.Field.Type
		if opts.TypeValidation {
			if err := t.Validate(value); err != nil {
				return "", err
			}
		}
		scalarFn := func(v interface{}) string {
			s, _ := d.Escape(v, opts.Timezone)
			return s
		}
		stringified := t.Stringify(value, scalarFn)
		if !t.Escape() {
			return stringified, nil
		}
		return d.Escape(stringified, opts.Timezone)
	}
	return d.Escape(value, opts.Timezone)
}

// --- key quoting (spec §4.3 rule 13) ---

func isColString(s string) bool {
	if len(s) < 2 {
		return false
	}
	if s[0] == '`' && s[len(s)-1] == '`' {
		return true
	}
	if s[0] == '"' && s[len(s)-1] == '"' {
		return true
	}
	return false
}

func quoteKeyForWhere(d dialect.Dialect, key string, opts Options) (string, error) {
	colStr := isColString(key)
	literalDollar := strings.HasPrefix(key, "$")

	var ident string
	if colStr || literalDollar {
		raw := strings.TrimPrefix(key, "$")
		if isColString(raw) {
			raw = raw[1 : len(raw)-1]
		}
		segs := strings.Split(raw, ".")
		if len(segs) > 2 {
			head := strings.Join(segs[:len(segs)-1], ".")
			segs = []string{head, segs[len(segs)-1]}
		}
		quoted := make([]string, len(segs))
		for i, seg := range segs {
			quoted[i] = d.QuoteIdentifier(seg, false)
		}
		ident = strings.Join(quoted, ".")
	} else {
		ident = dialect.QuoteIdentifiers(d, key)
	}

	if opts.Prefix != nil && !colStr && !literalDollar {
		prefix, err := prefixString(d, opts)
		if err != nil {
			return "", err
		}
		if prefix != "" {
			ident = prefix + "." + ident
		}
	}
	return ident, nil
}

func prefixString(d dialect.Dialect, opts Options) (string, error) {
	switch p := opts.Prefix.(type) {
	case nil:
		return "", nil
	case expr.Literal:
		return p.Val, nil
	case model.TableRef:
		return dialect.QuoteTable(d, p, ""), nil
	case string:
		return d.QuoteIdentifier(p, false), nil
	default:
		return "", fmt.Errorf("sqlgen: unsupported prefix type %T", p)
	}
}
