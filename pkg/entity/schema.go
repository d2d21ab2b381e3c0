package entity

import (
	"fmt"
	"slices"

	"github.com/opst/sciportal/pkg/entity/field"
)

// IdField is the name of the identifier property.
//
// It cannot be described in schemas. Only persistence operations set it.
const IdField = "id"

// Schema is an ordered set of property descriptors of an entity kind.
//
// Schemas are immutable once built.
type Schema struct {
	name   string
	order  []string
	fields map[string]field.Field
}

func (s *Schema) Name() string {
	return s.name
}

// Fields returns names of properties in declaration order.
func (s *Schema) Fields() []string {
	return slices.Clone(s.order)
}

func (s *Schema) Field(name string) (field.Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// SchemaBuilder builds Schema.
//
//	schema := entity.NewSchema("group").
//		Field("name", field.NewString(field.Required())).
//		Field("governor", field.NewRelated("user")).
//		MustBuild()
type SchemaBuilder struct {
	schema *Schema
	err    error
}

func NewSchema(name string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: &Schema{name: name, fields: map[string]field.Field{}},
	}
}

func (b *SchemaBuilder) Field(name string, f field.Field) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	switch {
	case name == "":
		b.err = fmt.Errorf("schema %s: empty field name", b.schema.name)
	case name == IdField:
		b.err = fmt.Errorf("schema %s: %q is reserved", b.schema.name, IdField)
	case f == nil:
		b.err = fmt.Errorf("schema %s: field %s has no descriptor", b.schema.name, name)
	default:
		if _, ok := b.schema.fields[name]; ok {
			b.err = fmt.Errorf("schema %s: duplicated field %s", b.schema.name, name)
			return b
		}
		b.schema.fields[name] = f
		b.schema.order = append(b.schema.order, name)
	}
	return b
}

func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.schema.name == "" {
		return nil, fmt.Errorf("schema has no name")
	}
	s := b.schema
	b.schema = &Schema{name: s.name, fields: map[string]field.Field{}}
	return s, nil
}

// MustBuild is Build for package-level schemas. It panics on error.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
