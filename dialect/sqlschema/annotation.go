// Package sqlschema provides the SQL storage annotations for persist schemas:
// table names, key generation and the property mappers that bind each
// property to model tables, property tables or join tables.
//
// Import this package as:
//
//	import "github.com/syssam/persist/dialect/sqlschema"
//
// # Model Annotations
//
//	account := &schema.Model{
//	    Name: "Account",
//	    Keys: []string{"id"},
//	    Annotations: []schema.Annotation{
//	        sqlschema.Table("accounts"),
//	        sqlschema.KeyGenerator(sqlschema.UUIDv7),
//	    },
//	}
//
// # Property Mappers
//
// Column(s) on the owner's table:
//
//	field.String("name").Annotations(sqlschema.Map(&sqlschema.ModelTable{Column: "full_name"}))
//	edge.To("company", company).Annotations(sqlschema.Map(&sqlschema.ModelTable{
//	    PropertyKeyColumns: []string{"company_id"},
//	}))
//
// A side table keyed by the owner:
//
//	field.String("tags").Multiple().Annotations(sqlschema.Map(&sqlschema.PropertyTable{
//	    Table:           "account_tags",
//	    Column:          "tag",
//	    ModelKeyColumns: []string{"account_id"},
//	}))
//
// A join table linking owner and referenced rows:
//
//	edge.To("groups", group).Multiple().Annotations(sqlschema.Map(&sqlschema.JoinTable{
//	    Table:              "account_groups",
//	    ModelKeyColumns:    []string{"account_id"},
//	    PropertyKeyColumns: []string{"group_id"},
//	}))
//
// A polymorphic property takes one mapper per candidate model, in order.
// Properties without a mapping get defaults, see PropertyMappers.
//
// # Key Rules
//
// A key rule states when the key columns of a relation are written:
// manually, before the owner row is written, or automatically, after the
// owner row is written and its key is known.
//
//	&sqlschema.JoinTable{Relation: sqlschema.Relation{
//	    PropertyKeyUpdateRule: sqlschema.AutoRule(sqlschema.Cascade),
//	}}
package sqlschema

import (
	"github.com/go-openapi/inflect"

	"github.com/syssam/persist/schema"
)

// AnnotationName is the name used for SQL annotations.
const AnnotationName = "sql"

// CascadeAction defines cascade behavior for foreign key constraints.
type CascadeAction string

const (
	Cascade    CascadeAction = "CASCADE"
	SetNull    CascadeAction = "SET NULL"
	Restrict   CascadeAction = "RESTRICT"
	SetDefault CascadeAction = "SET DEFAULT"
	NoAction   CascadeAction = "NO ACTION"
)

// Annotation holds SQL-specific settings for models.
type Annotation struct {
	// Table overrides the database table name of a model.
	Table string

	// Schema qualifies the table name with a database schema.
	Schema string

	// KeyGenerator fills absent string keys on insert.
	KeyGenerator KeyGen
}

// Name implements schema.Annotation.
func (Annotation) Name() string {
	return AnnotationName
}

// Merge implements the schema.Merger interface. Later non-empty settings
// override earlier ones.
func (a Annotation) Merge(other schema.Annotation) schema.Annotation {
	var ant Annotation
	switch other := other.(type) {
	case Annotation:
		ant = other
	case *Annotation:
		if other != nil {
			ant = *other
		}
	default:
		return a
	}
	if ant.Table != "" {
		a.Table = ant.Table
	}
	if ant.Schema != "" {
		a.Schema = ant.Schema
	}
	if ant.KeyGenerator != "" {
		a.KeyGenerator = ant.KeyGenerator
	}
	return a
}

var (
	_ schema.Annotation = (*Annotation)(nil)
	_ schema.Merger     = (*Annotation)(nil)
)

// Table sets the database table name for a model.
func Table(name string) Annotation {
	return Annotation{Table: name}
}

// Schema sets the database schema of a model's table.
func Schema(name string) Annotation {
	return Annotation{Schema: name}
}

// KeyGenerator sets the generator used for absent keys on insert.
//
//	sqlschema.KeyGenerator(sqlschema.UUIDv7)
func KeyGenerator(g KeyGen) Annotation {
	return Annotation{KeyGenerator: g}
}

// annotation returns the merged SQL annotation of m.
func annotation(m *schema.Model) Annotation {
	switch a := m.Annotation(AnnotationName).(type) {
	case Annotation:
		return a
	case *Annotation:
		if a != nil {
			return *a
		}
	}
	return Annotation{}
}

// TableName returns the table of the model: the Table annotation, or the
// model name in snake case. The Schema annotation qualifies it.
func TableName(m *schema.Model) string {
	a := annotation(m)
	name := a.Table
	if name == "" {
		name = inflect.Underscore(m.Name)
	}
	if a.Schema != "" {
		name = a.Schema + "." + name
	}
	return name
}

// ColumnName returns the default column name of a property.
func ColumnName(name string) string {
	return inflect.Underscore(name)
}
