package sqlschema

import (
	"errors"
	"fmt"

	"github.com/syssam/persist"
	"github.com/syssam/persist/schema"
)

// Validate checks the mappings of the given models and of every model they
// reference. It returns all problems found, joined.
func Validate(models ...*schema.Model) error {
	v := &validator{seen: make(map[*schema.Model]bool)}
	for _, m := range models {
		v.model(m)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	seen map[*schema.Model]bool
	errs []error
}

func (v *validator) fail(m *schema.Model, p *schema.Property, err error, format string, args ...any) {
	var name string
	if p != nil {
		name = p.Name
	}
	v.errs = append(v.errs, persist.NewMappingError(m.Name, name, fmt.Errorf("%w: "+format, append([]any{err}, args...)...)))
}

func (v *validator) model(m *schema.Model) {
	if m == nil || m.Primitive() || v.seen[m] {
		return
	}
	v.seen[m] = true
	for _, k := range m.Keys {
		switch p := m.Property(k); {
		case p == nil:
			v.fail(m, nil, persist.ErrNoKey, "key property %q does not exist", k)
		case !p.Primitive() || p.Multiple:
			v.fail(m, p, persist.ErrNoKey, "key property must be a single primitive")
		}
	}
	for _, p := range m.Properties {
		if len(p.Models) == 0 {
			v.fail(m, p, persist.ErrUnknownModel, "property has no model")
			continue
		}
		pms, err := PropertyMappers(m, p)
		if err != nil {
			v.errs = append(v.errs, err)
			continue
		}
		for _, pm := range pms {
			v.mapper(m, p, pm)
			v.model(pm.Model)
		}
	}
}

func (v *validator) mapper(m *schema.Model, p *schema.Property, pm PropertyMapper) {
	switch mp := pm.Mapper.(type) {
	case *ModelTable:
		if p.Multiple {
			v.fail(m, p, persist.ErrMultipleProperty, "model table cannot store a collection")
		}
		if !pm.Model.Primitive() {
			v.keys(m, p, pm.Model, mp.PropertyKeyColumns, mp.PropertyKeyProperties, "property")
		}
	case *PropertyTable:
		v.keys(m, p, m, mp.ModelKeyColumns, mp.ModelKeyProperties, "model")
		if pm.Model.Primitive() && (mp.Table == "" || mp.Column == "") {
			v.fail(m, p, persist.ErrUnsupportedMapper, "property table needs a table and a column")
		}
	case *JoinTable:
		if pm.Model.Primitive() {
			v.fail(m, p, persist.ErrUnsupportedMapper, "join table cannot store primitive values")
			return
		}
		v.keys(m, p, m, mp.ModelKeyColumns, mp.ModelKeyProperties, "model")
		v.keys(m, p, pm.Model, mp.PropertyKeyColumns, mp.PropertyKeyProperties, "property")
	default:
		v.fail(m, p, persist.ErrUnsupportedMapper, "%T", mp)
	}
}

// keys checks that columns and key properties pair up and that the key
// properties are single primitives of km.
func (v *validator) keys(m *schema.Model, p *schema.Property, km *schema.Model, columns, keys []string, side string) {
	if len(keys) == 0 {
		v.fail(m, p, persist.ErrNoKey, "%s model %s has no key", side, km.Name)
		return
	}
	if len(columns) != len(keys) {
		v.fail(m, p, persist.ErrUnsupportedMapper, "%d %s key columns for %d key properties", len(columns), side, len(keys))
	}
	for _, k := range keys {
		kp := km.Property(k)
		if kp == nil || !kp.Primitive() || kp.Multiple {
			v.fail(m, p, persist.ErrNoKey, "%s key %s.%s must be a single primitive", side, km.Name, k)
		}
	}
}
