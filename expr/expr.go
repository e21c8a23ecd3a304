// Package expr defines the tagged Expression-node variants used throughout
// the query generator (spec §3 "Expression node (tagged variant)") and the
// ordered mapping type used to represent condition trees and option bags
// whose key iteration order must be preserved (spec §5 ordering guarantee).
package expr

// Node is the marker interface implemented by every Expression-node
// variant. It plays the role of the `_isSequelizeMethod` duck-typing check
// in the source system: anything satisfying Node is lowered by the WHERE
// compiler / reference resolver via native type switch instead of runtime
// probing.
type Node interface {
	isExprNode()
}

// Literal is emitted verbatim, never escaped.
type Literal struct {
	Val string
}

func (Literal) isExprNode() {}

// NewLiteral builds a Literal node.
func NewLiteral(val string) Literal { return Literal{Val: val} }

// Fn is a SQL function call: NAME(arg1, arg2, ...). Each argument may
// itself be a Node (lowered recursively) or a plain value (escaped).
type Fn struct {
	Name string
	Args []interface{}
}

func (Fn) isExprNode() {}

// NewFn builds an Fn node.
func NewFn(name string, args ...interface{}) Fn { return Fn{Name: name, Args: args} }

// Cast wraps an expression in CAST(expr AS TYPE). Expr may be a Node or a
// plain value to be escaped.
type Cast struct {
	Expr interface{}
	Type string
}

func (Cast) isExprNode() {}

// NewCast builds a Cast node.
func NewCast(e interface{}, typ string) Cast { return Cast{Expr: e, Type: typ} }

// Col is an identifier-path reference. Path is either a string (a single
// dotted path, or "*") or []interface{} (an ordered path-expression sequence
// consumed by the reference resolver; only valid in ORDER BY / GROUP BY
// contexts per spec §7 col-outside-order-group).
type Col struct {
	Path interface{}
}

func (Col) isExprNode() {}

// NewCol builds a Col node from a single path string.
func NewCol(path string) Col { return Col{Path: path} }

// NewColPath builds a Col node from an ordered path-expression sequence.
func NewColPath(path ...interface{}) Col { return Col{Path: path} }

// Where is the explicit comparator form: ATTRIBUTE COMPARATOR LOGIC.
type Where struct {
	Attribute interface{}
	Comparator string
	Logic      interface{}
}

func (Where) isExprNode() {}

// NewWhere builds a Where node.
func NewWhere(attribute interface{}, comparator string, logic interface{}) Where {
	return Where{Attribute: attribute, Comparator: comparator, Logic: logic}
}

// Raw is a passthrough fragment, used both as a condition-tree leaf and as
// the synthesized predicate-injection branch for correlated EXISTS
// subqueries (spec §9 "PredicateInjection(string)").
type Raw struct {
	SQL string
}

func (Raw) isExprNode() {}

// NewRaw builds a Raw node.
func NewRaw(sql string) Raw { return Raw{SQL: sql} }

// KV is one entry of an ordered mapping.
type KV struct {
	Key   string
	Value interface{}
}

// M is an insertion-ordered string-keyed mapping, used everywhere the spec
// requires condition-tree / option-bag key order to be preserved during
// compilation (spec §5: "iteration over a condition mapping preserves the
// order the caller supplied"). A plain Go map cannot give that guarantee,
// so every multi-key condition object in this module is expressed as M
// rather than map[string]interface{}.
type M []KV

// NewM builds an M from alternating key/value pairs, e.g.
// NewM("a", 1, "b", 2).
func NewM(pairs ...interface{}) M {
	m := make(M, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		m = append(m, KV{Key: key, Value: pairs[i+1]})
	}
	return m
}

// Get returns the value for key and whether it was present. Only the first
// match is returned; M permits duplicate keys (the last one wins when
// re-Set, but raw construction may still carry duplicates intentionally).
func (m M) Get(key string) (interface{}, bool) {
	for _, kv := range m {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Set appends key/value, or overwrites the value of the first existing
// occurrence of key, preserving its original position.
func (m M) Set(key string, value interface{}) M {
	for i, kv := range m {
		if kv.Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, KV{Key: key, Value: value})
}

// Keys returns the keys in insertion order.
func (m M) Keys() []string {
	keys := make([]string, len(m))
	for i, kv := range m {
		keys[i] = kv.Key
	}
	return keys
}

// Len reports the number of entries.
func (m M) Len() int { return len(m) }

// Clone returns a shallow copy, so normalisation passes can produce a new
// node instead of mutating the caller's input in place (spec §9 design
// note).
func (m M) Clone() M {
	out := make(M, len(m))
	copy(out, m)
	return out
}
