// Package errs defines the typed error kinds raised by the query generator.
//
// Every kind is its own Go type, following the one-struct-per-kind
// convention of the original gorp error set, so callers can distinguish
// failures with errors.As instead of string matching.
package errs

import "fmt"

// UndefinedDialectMethodError is raised when an abstract builder method is
// invoked without a dialect-specific override.
type UndefinedDialectMethodError struct {
	Dialect string
	Method  string
}

func (e *UndefinedDialectMethodError) Error() string {
	return fmt.Sprintf("sqlgen: %s does not implement %s", e.Dialect, e.Method)
}

// InvalidOrderStructureError is raised when quote() is given an ORDER/GROUP
// path shape it does not recognise.
type InvalidOrderStructureError struct {
	Shape interface{}
}

func (e *InvalidOrderStructureError) Error() string {
	return fmt.Sprintf("sqlgen: unknown-order-structure: %#v", e.Shape)
}

// InvalidAssociationPathError is raised when an ORDER/GROUP path references
// an association that does not exist on the traversed model.
type InvalidAssociationPathError struct {
	Path []string
}

func (e *InvalidAssociationPathError) Error() string {
	return fmt.Sprintf("sqlgen: not-valid-association: %v", e.Path)
}

// RawWhereRemovedError is raised when a bare string is supplied as the
// top-level argument to whereQuery.
type RawWhereRemovedError struct {
	Raw string
}

func (e *RawWhereRemovedError) Error() string {
	return fmt.Sprintf("sqlgen: raw-where-removed: %q", e.Raw)
}

// ColOutsideOrderGroupError is raised when a Col node carrying a sequence
// argument is lowered outside of an ORDER BY / GROUP BY context.
type ColOutsideOrderGroupError struct {
	Path []string
}

func (e *ColOutsideOrderGroupError) Error() string {
	return fmt.Sprintf("sqlgen: col-outside-order-group: %v", e.Path)
}

// MissingAliasForComputedAttributeError is raised when a Cast/Fn expression
// attribute is referenced from an eager-load include without an alias.
type MissingAliasForComputedAttributeError struct {
	As string
}

func (e *MissingAliasForComputedAttributeError) Error() string {
	return fmt.Sprintf("sqlgen: missing-alias-for-computed-attribute: include %q", e.As)
}

// MissingIndexFieldNameError is raised when an index field entry carries
// neither a name nor an attribute.
type MissingIndexFieldNameError struct {
	Index string
}

func (e *MissingIndexFieldNameError) Error() string {
	return fmt.Sprintf("sqlgen: missing-index-field-name: index %q", e.Index)
}

// InvalidOrderDirectionError is raised when an ORDER BY direction string
// falls outside the closed ASC/DESC/NULLS set.
type InvalidOrderDirectionError struct {
	Direction string
}

func (e *InvalidOrderDirectionError) Error() string {
	return fmt.Sprintf("sqlgen: invalid-order-direction: %q", e.Direction)
}
