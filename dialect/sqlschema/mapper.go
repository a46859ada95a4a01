package sqlschema

import (
	"fmt"

	"github.com/syssam/persist"
	"github.com/syssam/persist/schema"
)

// KeyRule states how the key columns of a relation follow key changes.
// A manual rule (or a nil rule) means the key columns are written before
// the owner row; an automatic rule defers them until the owner row has
// been written.
type KeyRule struct {
	Action CascadeAction
	Manual bool
}

// ManualRule returns a manual key rule with the given action.
func ManualRule(action CascadeAction) *KeyRule {
	return &KeyRule{Action: action, Manual: true}
}

// AutoRule returns an automatic key rule with the given action.
func AutoRule(action CascadeAction) *KeyRule {
	return &KeyRule{Action: action}
}

// IsManual reports whether the rule is manual. A nil rule is manual.
func (r *KeyRule) IsManual() bool {
	return r == nil || r.Manual
}

// Relation holds the settings shared by all mappers.
type Relation struct {
	// MappedBy names the property of the referenced model that points back
	// to the owner. The engine skips it when it recurses into the
	// referenced object.
	MappedBy string

	ModelKeyUpdateRule    *KeyRule
	ModelKeyDeleteRule    *KeyRule
	PropertyKeyUpdateRule *KeyRule
	PropertyKeyDeleteRule *KeyRule
}

func (r *Relation) relation() *Relation { return r }

// Mapper binds a property to its storage. It is one of *ModelTable,
// *PropertyTable or *JoinTable.
type Mapper interface {
	relation() *Relation
}

// RelationOf returns the common relation settings of m.
func RelationOf(m Mapper) *Relation {
	if m == nil {
		return nil
	}
	return m.relation()
}

// ModelTable stores the property in the owner's table: a single column for
// a primitive property, or the referenced object's key columns for a
// composite one.
type ModelTable struct {
	Relation

	// Column is the column of a primitive property.
	Column string

	// PropertyKeyColumns hold the referenced object's key, one column per
	// PropertyKeyProperties entry.
	PropertyKeyColumns    []string
	PropertyKeyProperties []string
}

// PropertyTable stores the property in a side table referencing the owner.
// Primitive values live in Table.Column; composite values live in the
// referenced model's own table, which holds the owner key columns.
type PropertyTable struct {
	Relation

	Table  string
	Column string

	ModelKeyColumns    []string
	ModelKeyProperties []string
}

// JoinTable links owner and referenced rows through a junction table.
type JoinTable struct {
	Relation

	Table string

	ModelKeyColumns    []string
	ModelKeyProperties []string

	PropertyKeyColumns    []string
	PropertyKeyProperties []string
}

// MappingName is the annotation name of Mapping.
const MappingName = "SQLMapping"

// Mapping is the property annotation listing one mapper per candidate model.
type Mapping struct {
	Mappers []Mapper
}

// Name implements schema.Annotation.
func (Mapping) Name() string { return MappingName }

// Map returns a Mapping of the given mappers.
func Map(mappers ...Mapper) Mapping {
	return Mapping{Mappers: mappers}
}

// PropertyMapper pairs one candidate model of a property with its mapper.
type PropertyMapper struct {
	// Index is the position of Model in the property's candidate models.
	Index  int
	Model  *schema.Model
	Mapper Mapper
}

// Private reports whether the owner exclusively owns the values stored by
// pm. Primitive values and property table values are always private;
// other references are private only when the property carries
// schema.Private.
func (pm PropertyMapper) Private(p *schema.Property) bool {
	if pm.Model.Primitive() {
		return true
	}
	if _, ok := pm.Mapper.(*PropertyTable); ok {
		return true
	}
	return p.Has(schema.Private{})
}

// MappedBy returns the back reference property name of the mapper.
func (pm PropertyMapper) MappedBy() string {
	if r := RelationOf(pm.Mapper); r != nil {
		return r.MappedBy
	}
	return ""
}

// KeyUpdateRule returns the property key update rule of the mapper.
func (pm PropertyMapper) KeyUpdateRule() *KeyRule {
	if r := RelationOf(pm.Mapper); r != nil {
		return r.PropertyKeyUpdateRule
	}
	return nil
}

// PropertyMappers returns the mappers of property p of model m, one per
// candidate model, with unset columns and key properties filled by default.
//
// Without a Mapping annotation a single primitive maps to a model table
// column named after the property, a collection of primitives to the
// property table "<model>_<property>", a single reference to the key
// columns "<property>_<key>" on the owner's table and a collection of
// references to the join table "<model>_<property>".
func PropertyMappers(m *schema.Model, p *schema.Property) ([]PropertyMapper, error) {
	var mappers []Mapper
	switch a := p.Annotation(MappingName).(type) {
	case Mapping:
		mappers = a.Mappers
	case *Mapping:
		if a != nil {
			mappers = a.Mappers
		}
	}
	if mappers != nil && len(mappers) != len(p.Models) {
		return nil, persist.NewMappingError(m.Name, p.Name,
			fmt.Errorf("%w: %d mappers for %d models", persist.ErrUnsupportedMapper, len(mappers), len(p.Models)))
	}
	pms := make([]PropertyMapper, len(p.Models))
	for i, pm := range p.Models {
		var mp Mapper
		if mappers != nil {
			mp = mappers[i]
		}
		resolved, err := resolve(m, p, pm, mp)
		if err != nil {
			return nil, err
		}
		pms[i] = PropertyMapper{Index: i, Model: pm, Mapper: resolved}
	}
	return pms, nil
}

func resolve(m *schema.Model, p *schema.Property, pm *schema.Model, mp Mapper) (Mapper, error) {
	if mp == nil {
		switch {
		case pm.Primitive() && p.Multiple:
			mp = &PropertyTable{}
		case p.Multiple:
			mp = &JoinTable{}
		default:
			mp = &ModelTable{}
		}
	}
	switch mp := mp.(type) {
	case *ModelTable:
		c := *mp
		if pm.Primitive() {
			c.Column = or(c.Column, ColumnName(p.Name))
		} else {
			c.PropertyKeyProperties = orKeys(c.PropertyKeyProperties, pm.Keys)
			c.PropertyKeyColumns = orColumns(c.PropertyKeyColumns, ColumnName(p.Name), c.PropertyKeyProperties)
		}
		return &c, nil
	case *PropertyTable:
		c := *mp
		c.ModelKeyProperties = orKeys(c.ModelKeyProperties, m.Keys)
		c.ModelKeyColumns = orColumns(c.ModelKeyColumns, ColumnName(m.Name), c.ModelKeyProperties)
		if pm.Primitive() {
			c.Table = or(c.Table, TableName(m)+"_"+ColumnName(p.Name))
			c.Column = or(c.Column, ColumnName(p.Name))
		}
		return &c, nil
	case *JoinTable:
		c := *mp
		c.Table = or(c.Table, TableName(m)+"_"+ColumnName(p.Name))
		c.ModelKeyProperties = orKeys(c.ModelKeyProperties, m.Keys)
		c.ModelKeyColumns = orColumns(c.ModelKeyColumns, ColumnName(m.Name), c.ModelKeyProperties)
		c.PropertyKeyProperties = orKeys(c.PropertyKeyProperties, pm.Keys)
		prefix := ColumnName(pm.Name)
		if pm == m {
			prefix = ColumnName(p.Name)
		}
		c.PropertyKeyColumns = orColumns(c.PropertyKeyColumns, prefix, c.PropertyKeyProperties)
		return &c, nil
	default:
		return nil, persist.NewMappingError(m.Name, p.Name, fmt.Errorf("%w: %T", persist.ErrUnsupportedMapper, mp))
	}
}

func or(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func orKeys(keys, def []string) []string {
	if len(keys) > 0 {
		return keys
	}
	return def
}

func orColumns(columns []string, prefix string, keys []string) []string {
	if len(columns) > 0 {
		return columns
	}
	columns = make([]string, len(keys))
	for i, k := range keys {
		columns[i] = prefix + "_" + ColumnName(k)
	}
	return columns
}
