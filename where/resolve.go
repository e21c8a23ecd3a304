package where

import (
	"fmt"
	"strings"

	"github.com/fathiraz/sqlgen/dialect"
	"github.com/fathiraz/sqlgen/errs"
	"github.com/fathiraz/sqlgen/expr"
	"github.com/fathiraz/sqlgen/model"
)

// Step is one hop of a Quote path-expression sequence: a model to walk an
// association into, optionally qualified with the `as` label when the
// source model carries more than one association to that target.
type Step struct {
	Model *model.ModelMeta
	As    string
}

// Quote is the reference resolver (spec §4.2, C4): it turns a bare column
// name, an Expression node, or an ordered path-expression sequence into a
// quoted SQL fragment, walking the association graph for multi-hop paths.
func Quote(d dialect.Dialect, node interface{}, parent *model.ModelMeta, allowColSequence bool) (string, error) {
	switch v := node.(type) {
	case string:
		return dialect.QuoteIdentifiers(d, v), nil
	case expr.Node:
		return Lower(d, v, Options{Model: parent, AllowColSequence: allowColSequence})
	case []interface{}:
		return quoteSequence(d, v, parent)
	default:
		return "", &errs.InvalidOrderStructureError{Shape: node}
	}
}

func asStep(v interface{}) (Step, bool) {
	switch t := v.(type) {
	case *model.ModelMeta:
		return Step{Model: t}, true
	case Step:
		return t, true
	default:
		return Step{}, false
	}
}

func quoteSequence(d dialect.Dialect, seq []interface{}, parent *model.ModelMeta) (string, error) {
	if len(seq) == 0 {
		return "", &errs.InvalidOrderStructureError{Shape: seq}
	}

	var tableNames []string
	cur := parent
	i := 0
	for ; i < len(seq)-1; i++ {
		step, ok := asStep(seq[i])
		if !ok {
			break
		}
		if cur == nil {
			return "", &errs.InvalidAssociationPathError{Path: append(append([]string{}, tableNames...), step.As)}
		}
		assoc := cur.GetAssociation(step.Model, step.As)
		if assoc == nil {
			return "", &errs.InvalidAssociationPathError{Path: append(append([]string{}, tableNames...), step.As)}
		}
		alias := step.As
		if alias == "" {
			alias = assoc.As
		}
		if assoc.IsThrough() && assoc.Through.Model == step.Model {
			alias = step.Model.Name
		}
		tableNames = append(tableNames, alias)
		cur = step.Model
	}

	if i >= len(seq) {
		return "", &errs.InvalidOrderStructureError{Shape: seq}
	}
	rest := seq[i:]
	last := rest[0]
	var direction interface{}
	if len(rest) > 1 {
		direction = rest[1]
	}

	lastStr, err := Quote(d, last, cur, false)
	if err != nil {
		return "", err
	}

	var prefix string
	if len(tableNames) > 0 {
		prefix = d.QuoteIdentifier(strings.Join(tableNames, "."), false) + "."
	} else if i == 0 && parent != nil {
		if _, ok := last.(string); ok {
			prefix = d.QuoteIdentifier(parent.Name, false) + "."
		}
	}
	result := prefix + lastStr

	switch dir := direction.(type) {
	case expr.Node:
		s, err := Lower(d, dir, Options{Model: cur})
		if err != nil {
			return "", err
		}
		result += " " + s
	case string:
		result += " " + dir
	}
	return result, nil
}

// Lower dispatches one Expression node to its SQL fragment (spec §4.4,
// handleSequelizeMethod), recursing into WhereItemQuery for Where nodes
// whose logic is a plain condition mapping.
func Lower(d dialect.Dialect, node expr.Node, opts Options) (string, error) {
	switch n := node.(type) {
	case expr.Literal:
		return n.Val, nil
	case expr.Raw:
		return n.SQL, nil
	case expr.Fn:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			s, err := lowerArg(d, a, opts)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")", nil
	case expr.Cast:
		s, err := lowerArg(d, n.Expr, opts)
		if err != nil {
			return "", err
		}
		return "CAST(" + s + " AS " + strings.ToUpper(n.Type) + ")", nil
	case expr.Col:
		return lowerCol(d, n, opts)
	case expr.Where:
		return lowerWhereNode(d, n, opts)
	default:
		return "", fmt.Errorf("sqlgen: unsupported expression node %T", node)
	}
}

func lowerArg(d dialect.Dialect, a interface{}, opts Options) (string, error) {
	if n, ok := a.(expr.Node); ok {
		return Lower(d, n, opts)
	}
	return escapeValue(d, a, opts)
}

func lowerCol(d dialect.Dialect, n expr.Col, opts Options) (string, error) {
	switch p := n.Path.(type) {
	case string:
		if p == "*" {
			return "*", nil
		}
		return dialect.QuoteIdentifiers(d, p), nil
	case []interface{}:
		if !opts.AllowColSequence {
			return "", &errs.ColOutsideOrderGroupError{}
		}
		return quoteSequence(d, p, opts.Model)
	default:
		return "", &errs.InvalidOrderStructureError{Shape: n.Path}
	}
}

func lowerWhereNode(d dialect.Dialect, n expr.Where, opts Options) (string, error) {
	if m, ok := n.Logic.(expr.M); ok {
		if rawAttr, ok2 := n.Attribute.(string); ok2 {
			return WhereItemQuery(d, rawAttr, m, opts)
		}
	}

	var key string
	switch attr := n.Attribute.(type) {
	case expr.Node:
		s, err := Lower(d, attr, opts)
		if err != nil {
			return "", err
		}
		key = s
	case string:
		key = dialect.QuoteIdentifiers(d, attr)
	default:
		return "", fmt.Errorf("sqlgen: Where.Attribute must be a string or expression node")
	}

	if n.Logic == nil {
		return key + " IS NULL", nil
	}
	if ln, ok := n.Logic.(expr.Node); ok {
		s, err := Lower(d, ln, opts)
		if err != nil {
			return "", err
		}
		return key + " " + n.Comparator + " " + s, nil
	}
	if b, ok := n.Logic.(bool); ok {
		return key + " " + n.Comparator + " " + d.BooleanLiteral(b), nil
	}
	s, err := escapeValue(d, n.Logic, opts)
	if err != nil {
		return "", err
	}
	return key + " " + n.Comparator + " " + s, nil
}

// CoercePK wraps a bare scalar into the {pk: value} mapping form (spec §3,
// §9 "Implicit scalar-as-PK coercion"), for callers that accept a condition
// tree where a bare scalar should be shorthand for a primary-key lookup
// outside the compiler itself. selectplan and mutate do not call it: they
// pass scalars to WhereQuery, whose WhereItemsQuery does the same coercion.
func CoercePK(m *model.ModelMeta, value interface{}) (interface{}, error) {
	if m == nil || len(m.PrimaryKeys) == 0 {
		return nil, fmt.Errorf("sqlgen: scalar condition requires a model with a primary key")
	}
	return expr.M{{Key: m.PrimaryKeys[0], Value: value}}, nil
}
