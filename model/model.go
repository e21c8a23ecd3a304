// Package model describes the read-only metadata the query generator
// consults: table references, model/attribute metadata, and the
// association graph that drives include-tree join generation.
//
// Nothing in this package performs I/O or validation beyond structural
// sanity; model declaration, migration, and lifecycle concerns live
// upstream of this module (see spec §1 Non-goals).
package model

// FieldType classifies an attribute's storage type for the purposes the
// WHERE compiler cares about: whether `{a: [1,2]}` means `$in` or a native
// array literal, and whether dotted keys mean JSON-path traversal.
type FieldType int

const (
	// FieldScalar is any attribute that is neither JSON nor ARRAY.
	FieldScalar FieldType = iota
	FieldJSON
	FieldArray
)

// AttributeType models the "type" capability consumed from a data-type
// collaborator (spec §4.1, §6): stringify for escaping, validate for
// typeValidation.
type AttributeType interface {
	// Stringify renders value as a SQL literal. escape is the scalar
	// escaper to use for any nested primitives.
	Stringify(value interface{}, escape func(interface{}) string) string
	// Escape reports whether Stringify's result is passed through the
	// scalar escaper (true) or used verbatim (false).
	Escape() bool
	// Validate reports whether value is an acceptable value for this type.
	Validate(value interface{}) error
	// Kind reports the FieldType this attribute type should be treated as
	// by the WHERE compiler's JSON/array rules.
	Kind() FieldType
}

// Attribute describes one entry of ModelMeta's rawAttributes map.
type Attribute struct {
	Name          string
	Field         string
	Type          AttributeType
	AutoIncrement bool
	AllowNull     bool
	PrimaryKey    bool
}

// ModelMeta is the read-only metadata surface the generator consults for a
// single model: table identity, attribute dictionary, and association
// directory.
type ModelMeta struct {
	Name            string
	TableNameValue  string
	PrimaryKeys     []string
	RawAttributes   map[string]*Attribute
	FieldAttributes map[string]*Attribute

	associations map[string]*Association
}

// NewModelMeta constructs a ModelMeta with empty attribute/association maps.
func NewModelMeta(name, tableName string) *ModelMeta {
	return &ModelMeta{
		Name:            name,
		TableNameValue:  tableName,
		RawAttributes:   make(map[string]*Attribute),
		FieldAttributes: make(map[string]*Attribute),
		associations:    make(map[string]*Association),
	}
}

// TableName returns the underlying SQL table name for this model.
func (m *ModelMeta) TableName() string { return m.TableNameValue }

// AddAttribute registers an attribute under both its model-level name and
// its SQL field name (when they differ).
func (m *ModelMeta) AddAttribute(attr *Attribute) *ModelMeta {
	m.RawAttributes[attr.Name] = attr
	field := attr.Field
	if field == "" {
		field = attr.Name
	}
	m.FieldAttributes[field] = attr
	if attr.PrimaryKey {
		m.PrimaryKeys = append(m.PrimaryKeys, attr.Name)
	}
	return m
}

// AddAssociation registers an association under its `as` label. A model may
// carry several associations to the same target model, distinguished by
// `as`.
func (m *ModelMeta) AddAssociation(assoc *Association) *ModelMeta {
	m.associations[assoc.As] = assoc
	return m
}

// GetAssociation resolves an association by target model and `as` label,
// mirroring the `parent.getAssociation(targetModel, as)` lookup of spec §4.2.
// When as is empty, the first association whose target matches targetModel
// is returned (a single unambiguous association is the common case).
func (m *ModelMeta) GetAssociation(targetModel *ModelMeta, as string) *Association {
	if m == nil {
		return nil
	}
	if as != "" {
		if a, ok := m.associations[as]; ok {
			return a
		}
		return nil
	}
	for _, a := range m.associations {
		if a.Target == targetModel {
			return a
		}
	}
	return nil
}

// AssociationKind enumerates the four association variants of spec §3.
type AssociationKind int

const (
	BelongsTo AssociationKind = iota
	HasOne
	HasMany
	BelongsToMany
)

// Through describes the join-table side of a BelongsToMany association.
type Through struct {
	Model *ModelMeta
	As    string
}

// Association models one edge of the association graph.
type Association struct {
	Kind   AssociationKind
	Source *ModelMeta
	Target *ModelMeta
	As     string

	// IdentifierField is the FK column on the source side (BelongsTo), or
	// on the through table pointing at the source (BelongsToMany).
	IdentifierField string
	// ForeignIdentifierField is the FK on the target side of a through
	// table (BelongsToMany only).
	ForeignIdentifierField string
	// TargetIdentifier is the column on Target that IdentifierField/
	// ForeignIdentifierField points at (usually its primary key).
	TargetIdentifier string

	// Identifier is the model-level (not SQL-field-level) attribute name
	// mirroring IdentifierField, used when the SELECT planner needs the
	// attribute name rather than the field name (spec §4.5 joinIncludeQuery).
	Identifier string

	// Through is set for BelongsToMany associations.
	Through *Through
}

// IsThrough reports whether this association routes through a join model.
func (a *Association) IsThrough() bool {
	return a.Kind == BelongsToMany && a.Through != nil
}

// TableRef identifies a table, optionally schema-qualified, optionally
// aliased (spec §3 TableRef).
type TableRef struct {
	Schema    string
	TableName string
	Delimiter string
	Alias     string
}

// Name returns the bare table name, satisfying callers that accept either a
// plain string or a TableRef (spec's "bare name or {schema, tableName,
// delimiter}").
func (t TableRef) Name() string { return t.TableName }

// SchemaName, Table, Delim and AliasName satisfy dialect.TableRef.
func (t TableRef) SchemaName() string { return t.Schema }
func (t TableRef) Table() string      { return t.TableName }
func (t TableRef) Delim() string      { return t.Delimiter }
func (t TableRef) AliasName() string  { return t.Alias }

// Include is a recursive eager-load specification (spec §3 Include).
type Include struct {
	Association *Association
	Model       *ModelMeta
	As          string
	Parent      *Include // nil for the root include's implicit main-model parent

	Required     bool
	SubQuery     *bool // nil = inherit; non-nil = explicit override
	Separate     bool
	Attributes   []string
	Where        interface{}
	On           interface{}
	Or           bool

	ThroughModel      *ModelMeta
	ThroughAs         string
	ThroughWhere      interface{}
	ThroughAttributes []string

	Include []*Include
}
