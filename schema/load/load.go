package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/mixin"
)

// Document is the YAML form of a schema.
type Document struct {
	// Models lists the composite models of the schema.
	Models []ModelSpec `yaml:"models"`
}

// ModelSpec describes one model.
type ModelSpec struct {
	// Name identifies the model. Property types refer to it by name.
	Name string `yaml:"name"`

	// Table overrides the table name. Defaults to the name in snake case.
	Table string `yaml:"table,omitempty"`

	// Schema qualifies the table name.
	Schema string `yaml:"schema,omitempty"`

	// Keys lists the key properties in key order.
	Keys []string `yaml:"keys,omitempty"`

	// KeyGenerator fills absent string keys on insert (uuidv7, uuidv4).
	KeyGenerator string `yaml:"keyGenerator,omitempty"`

	Comment string `yaml:"comment,omitempty"`

	// Mixins names builtin mixins whose properties precede the model's own
	// (id, time, create_time, update_time, soft_delete, tenant_id).
	Mixins []string `yaml:"mixins,omitempty"`

	Properties []PropertySpec `yaml:"properties"`
}

// PropertySpec describes one property of a model.
type PropertySpec struct {
	Name string `yaml:"name"`

	// Type names one or more candidate models.
	Type Names `yaml:"type"`

	Multiple    bool `yaml:"multiple,omitempty"`
	Private     bool `yaml:"private,omitempty"`
	NotEditable bool `yaml:"notEditable,omitempty"`
	NotReadable bool `yaml:"notReadable,omitempty"`

	Comment string `yaml:"comment,omitempty"`

	// Column is a shorthand for a single model table mapper of a primitive
	// property. It cannot be combined with Mapping.
	Column string `yaml:"column,omitempty"`

	// Mapping holds one mapper per type, in type order. When empty, the
	// default mappers apply.
	Mapping []MapperSpec `yaml:"mapping,omitempty"`
}

// MapperSpec sets exactly one of its fields.
type MapperSpec struct {
	ModelTable    *ModelTableSpec    `yaml:"modelTable,omitempty"`
	PropertyTable *PropertyTableSpec `yaml:"propertyTable,omitempty"`
	JoinTable     *JoinTableSpec     `yaml:"joinTable,omitempty"`
}

// RelationSpec holds the settings shared by all mappers.
type RelationSpec struct {
	// MappedBy names the back reference property of the referenced model.
	MappedBy string `yaml:"mappedBy,omitempty"`

	ModelKeyUpdate    *RuleSpec `yaml:"modelKeyUpdate,omitempty"`
	ModelKeyDelete    *RuleSpec `yaml:"modelKeyDelete,omitempty"`
	PropertyKeyUpdate *RuleSpec `yaml:"propertyKeyUpdate,omitempty"`
	PropertyKeyDelete *RuleSpec `yaml:"propertyKeyDelete,omitempty"`
}

// RuleSpec describes a key rule. A rule is automatic unless Manual is set.
type RuleSpec struct {
	Action string `yaml:"action,omitempty"`
	Manual bool   `yaml:"manual,omitempty"`
}

// ModelTableSpec is the YAML form of sqlschema.ModelTable.
type ModelTableSpec struct {
	RelationSpec `yaml:",inline"`

	Column                string   `yaml:"column,omitempty"`
	PropertyKeyColumns    []string `yaml:"propertyKeyColumns,omitempty"`
	PropertyKeyProperties []string `yaml:"propertyKeyProperties,omitempty"`
}

// PropertyTableSpec is the YAML form of sqlschema.PropertyTable.
type PropertyTableSpec struct {
	RelationSpec `yaml:",inline"`

	Table              string   `yaml:"table,omitempty"`
	Column             string   `yaml:"column,omitempty"`
	ModelKeyColumns    []string `yaml:"modelKeyColumns,omitempty"`
	ModelKeyProperties []string `yaml:"modelKeyProperties,omitempty"`
}

// JoinTableSpec is the YAML form of sqlschema.JoinTable.
type JoinTableSpec struct {
	RelationSpec `yaml:",inline"`

	Table                 string   `yaml:"table,omitempty"`
	ModelKeyColumns       []string `yaml:"modelKeyColumns,omitempty"`
	ModelKeyProperties    []string `yaml:"modelKeyProperties,omitempty"`
	PropertyKeyColumns    []string `yaml:"propertyKeyColumns,omitempty"`
	PropertyKeyProperties []string `yaml:"propertyKeyProperties,omitempty"`
}

// Names is a list of model names written either as a single scalar or as a
// sequence.
type Names []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*n = Names{node.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		*n = names
		return nil
	default:
		return fmt.Errorf("line %d: type must be a name or a list of names", node.Line)
	}
}

// Schema is a loaded set of models.
type Schema struct {
	// Models holds the composite models in document order.
	Models []*schema.Model

	byName map[string]*schema.Model
}

// Model returns the composite model with the given name, or nil.
func (s *Schema) Model(name string) *schema.Model {
	return s.byName[name]
}

// LoadFile reads and parses the schema file at path.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	return s, nil
}

// Parse parses a YAML schema document and builds its models. Unknown
// fields are rejected.
func Parse(data []byte) (*Schema, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a YAML schema document from r and builds its models.
func Load(r io.Reader) (*Schema, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Build()
}

// Build builds the models of the document. Models are created first so
// properties may reference any model of the document, including their own.
func (d *Document) Build() (*Schema, error) {
	s := &Schema{byName: make(map[string]*schema.Model, len(d.Models))}
	primitives := schema.Primitives()
	for _, ms := range d.Models {
		switch {
		case ms.Name == "":
			return nil, errors.New("model without a name")
		case primitives[ms.Name] != nil:
			return nil, fmt.Errorf("model %q shadows a primitive type", ms.Name)
		case s.byName[ms.Name] != nil:
			return nil, fmt.Errorf("duplicate model %q", ms.Name)
		}
		m := &schema.Model{Name: ms.Name, Keys: ms.Keys}
		if ms.Table != "" {
			m.Annotations = append(m.Annotations, sqlschema.Table(ms.Table))
		}
		if ms.Schema != "" {
			m.Annotations = append(m.Annotations, sqlschema.Schema(ms.Schema))
		}
		if ms.KeyGenerator != "" {
			g := sqlschema.KeyGen(ms.KeyGenerator)
			if g != sqlschema.UUIDv7 && g != sqlschema.UUIDv4 {
				return nil, fmt.Errorf("model %q: unknown key generator %q", ms.Name, ms.KeyGenerator)
			}
			m.Annotations = append(m.Annotations, sqlschema.KeyGenerator(g))
		}
		if ms.Comment != "" {
			m.Annotations = append(m.Annotations, schema.Comment(ms.Comment))
		}
		s.Models = append(s.Models, m)
		s.byName[m.Name] = m
	}
	for i, ms := range d.Models {
		m := s.Models[i]
		for _, ps := range ms.Properties {
			p, err := s.property(primitives, ps)
			if err != nil {
				return nil, persist.NewMappingError(m.Name, ps.Name, err)
			}
			if m.Property(p.Name) != nil {
				return nil, persist.NewMappingError(m.Name, p.Name, errors.New("duplicate property"))
			}
			m.Properties = append(m.Properties, p)
		}
		mxs := make([]mixin.Mixin, 0, len(ms.Mixins))
		for _, name := range ms.Mixins {
			mx, ok := mixin.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("model %q: unknown mixin %q", m.Name, name)
			}
			mxs = append(mxs, mx)
		}
		mixin.Apply(m, mxs...)
	}
	return s, nil
}

func (s *Schema) property(primitives map[string]*schema.Model, ps PropertySpec) (*schema.Property, error) {
	if ps.Name == "" {
		return nil, errors.New("property without a name")
	}
	if len(ps.Type) == 0 {
		return nil, fmt.Errorf("%w: no type", persist.ErrUnknownModel)
	}
	p := &schema.Property{Name: ps.Name, Multiple: ps.Multiple}
	for _, name := range ps.Type {
		m := primitives[name]
		if m == nil {
			m = s.byName[name]
		}
		if m == nil {
			return nil, fmt.Errorf("%w: %q", persist.ErrUnknownModel, name)
		}
		p.Models = append(p.Models, m)
	}
	for _, m := range p.Models {
		if m.Primitive() && len(p.Models) > 1 {
			return nil, fmt.Errorf("primitive %q in a polymorphic type", m.Name)
		}
	}
	if ps.Private {
		p.Annotations = append(p.Annotations, schema.Private{})
	}
	if ps.NotEditable {
		p.Annotations = append(p.Annotations, schema.NotEditable{})
	}
	if ps.NotReadable {
		p.Annotations = append(p.Annotations, schema.NotReadable{})
	}
	if ps.Comment != "" {
		p.Annotations = append(p.Annotations, schema.Comment(ps.Comment))
	}
	switch {
	case ps.Column != "" && len(ps.Mapping) > 0:
		return nil, errors.New("column and mapping are exclusive")
	case ps.Column != "":
		p.Annotations = append(p.Annotations, sqlschema.Map(&sqlschema.ModelTable{Column: ps.Column}))
	case len(ps.Mapping) > 0:
		if len(ps.Mapping) != len(p.Models) {
			return nil, fmt.Errorf("%w: %d mappers for %d types", persist.ErrUnsupportedMapper, len(ps.Mapping), len(p.Models))
		}
		mappers := make([]sqlschema.Mapper, len(ps.Mapping))
		for i, ms := range ps.Mapping {
			mp, err := ms.mapper()
			if err != nil {
				return nil, err
			}
			mappers[i] = mp
		}
		p.Annotations = append(p.Annotations, sqlschema.Map(mappers...))
	}
	return p, nil
}

func (ms MapperSpec) mapper() (sqlschema.Mapper, error) {
	var (
		n  int
		mp sqlschema.Mapper
	)
	if s := ms.ModelTable; s != nil {
		r, err := s.relation()
		if err != nil {
			return nil, err
		}
		n, mp = n+1, &sqlschema.ModelTable{
			Relation:              r,
			Column:                s.Column,
			PropertyKeyColumns:    s.PropertyKeyColumns,
			PropertyKeyProperties: s.PropertyKeyProperties,
		}
	}
	if s := ms.PropertyTable; s != nil {
		r, err := s.relation()
		if err != nil {
			return nil, err
		}
		n, mp = n+1, &sqlschema.PropertyTable{
			Relation:           r,
			Table:              s.Table,
			Column:             s.Column,
			ModelKeyColumns:    s.ModelKeyColumns,
			ModelKeyProperties: s.ModelKeyProperties,
		}
	}
	if s := ms.JoinTable; s != nil {
		r, err := s.relation()
		if err != nil {
			return nil, err
		}
		n, mp = n+1, &sqlschema.JoinTable{
			Relation:              r,
			Table:                 s.Table,
			ModelKeyColumns:       s.ModelKeyColumns,
			ModelKeyProperties:    s.ModelKeyProperties,
			PropertyKeyColumns:    s.PropertyKeyColumns,
			PropertyKeyProperties: s.PropertyKeyProperties,
		}
	}
	if n != 1 {
		return nil, fmt.Errorf("%w: mapping entry must set exactly one of modelTable, propertyTable or joinTable", persist.ErrUnsupportedMapper)
	}
	return mp, nil
}

func (rs RelationSpec) relation() (sqlschema.Relation, error) {
	r := sqlschema.Relation{MappedBy: rs.MappedBy}
	for _, f := range []struct {
		src *RuleSpec
		dst **sqlschema.KeyRule
	}{
		{rs.ModelKeyUpdate, &r.ModelKeyUpdateRule},
		{rs.ModelKeyDelete, &r.ModelKeyDeleteRule},
		{rs.PropertyKeyUpdate, &r.PropertyKeyUpdateRule},
		{rs.PropertyKeyDelete, &r.PropertyKeyDeleteRule},
	} {
		if f.src == nil {
			continue
		}
		rule, err := f.src.rule()
		if err != nil {
			return r, err
		}
		*f.dst = rule
	}
	return r, nil
}

func (rs RuleSpec) rule() (*sqlschema.KeyRule, error) {
	action := sqlschema.CascadeAction(strings.ToUpper(strings.TrimSpace(rs.Action)))
	switch action {
	case "", sqlschema.Cascade, sqlschema.SetNull, sqlschema.Restrict, sqlschema.SetDefault, sqlschema.NoAction:
	default:
		return nil, fmt.Errorf("unknown key rule action %q", rs.Action)
	}
	return &sqlschema.KeyRule{Action: action, Manual: rs.Manual}, nil
}
