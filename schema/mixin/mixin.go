// Package mixin provides reusable sets of properties shared by models.
//
// A mixin contributes properties and annotations to every model it is
// applied to:
//
//	type Audit struct {
//	    mixin.Schema
//	}
//
//	func (Audit) Properties() []*schema.Property {
//	    return []*schema.Property{
//	        field.String("created_by").NotEditable().Descriptor(),
//	        field.String("updated_by").Descriptor(),
//	    }
//	}
//
//	mixin.Apply(account, mixin.Time{}, Audit{})
//
// Mixins never fill values. Timestamps are usually written as SQL
// expressions, e.g. "${CURRENT_TIMESTAMP}".
package mixin

import (
	"slices"

	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/field"
)

// Mixin is a reusable set of properties and model annotations.
type Mixin interface {
	Properties() []*schema.Property
	Annotations() []schema.Annotation
}

// Keyer is implemented by mixins that declare the model keys.
type Keyer interface {
	Keys() []string
}

// Schema is the default implementation of Mixin. It should be embedded in
// all custom mixins.
type Schema struct{}

// Properties returns the properties of the mixin.
func (Schema) Properties() []*schema.Property { return nil }

// Annotations returns the model annotations of the mixin.
func (Schema) Annotations() []schema.Annotation { return nil }

var _ Mixin = (*Schema)(nil)

// Apply adds the properties and annotations of mixins to m and returns m.
// Mixin properties and annotations precede the model's own, in mixin
// order; a property the model already declares is kept. Mixin keys apply
// only to a model without keys.
func Apply(m *schema.Model, mixins ...Mixin) *schema.Model {
	var props []*schema.Property
	for _, mx := range mixins {
		for _, p := range mx.Properties() {
			if m.Property(p.Name) != nil || slices.ContainsFunc(props, func(q *schema.Property) bool { return q.Name == p.Name }) {
				continue
			}
			props = append(props, p)
		}
		m.Annotations = slices.Concat(mx.Annotations(), m.Annotations)
		if k, ok := mx.(Keyer); ok && len(m.Keys) == 0 {
			m.Keys = k.Keys()
		}
	}
	m.Properties = append(props, m.Properties...)
	return m
}

// AnnotateProperties returns a mixin whose properties carry the given
// annotations in addition to their own.
//
//	mixin.AnnotateProperties(mixin.Time{}, schema.Comment("audit"))
func AnnotateProperties(m Mixin, annotations ...schema.Annotation) Mixin {
	return annotated{Mixin: m, annotations: annotations}
}

type annotated struct {
	Mixin
	annotations []schema.Annotation
}

func (a annotated) Properties() []*schema.Property {
	props := a.Mixin.Properties()
	for i, p := range props {
		c := *p
		c.Annotations = append(slices.Clip(p.Annotations), a.annotations...)
		props[i] = &c
	}
	return props
}

func (a annotated) Keys() []string {
	if k, ok := a.Mixin.(Keyer); ok {
		return k.Keys()
	}
	return nil
}

// ID adds a string key "id" generated on insert.
type ID struct {
	Schema
}

// Properties returns the id property.
func (ID) Properties() []*schema.Property {
	return []*schema.Property{
		field.String("id").NotEditable().Comment("Generated key").Descriptor(),
	}
}

// Annotations returns the UUIDv7 key generator.
func (ID) Annotations() []schema.Annotation {
	return []schema.Annotation{sqlschema.KeyGenerator(sqlschema.UUIDv7)}
}

// Keys returns the id key.
func (ID) Keys() []string { return []string{"id"} }

// Time adds the created_at and updated_at properties.
type Time struct {
	Schema
}

// Properties returns the time tracking properties.
func (Time) Properties() []*schema.Property {
	return append(CreateTime{}.Properties(), UpdateTime{}.Properties()...)
}

// CreateTime adds a created_at property that updates never change.
type CreateTime struct {
	Schema
}

// Properties returns the created_at property.
func (CreateTime) Properties() []*schema.Property {
	return []*schema.Property{
		field.Time("created_at").NotEditable().Comment("Time the object was created").Descriptor(),
	}
}

// UpdateTime adds an updated_at property.
type UpdateTime struct {
	Schema
}

// Properties returns the updated_at property.
func (UpdateTime) Properties() []*schema.Property {
	return []*schema.Property{
		field.Time("updated_at").Comment("Time the object was last updated").Descriptor(),
	}
}

// SoftDelete adds a deleted_at property. A nil value means not deleted.
type SoftDelete struct {
	Schema
}

// Properties returns the deleted_at property.
func (SoftDelete) Properties() []*schema.Property {
	return []*schema.Property{
		field.Time("deleted_at").Comment("Time the object was soft deleted").Descriptor(),
	}
}

// TenantID adds a tenant_id property that updates never change.
type TenantID struct {
	Schema
}

// Properties returns the tenant_id property.
func (TenantID) Properties() []*schema.Property {
	return []*schema.Property{
		field.String("tenant_id").NotEditable().Comment("Owning tenant").Descriptor(),
	}
}

// Lookup returns the builtin mixin with the given name: id, time,
// create_time, update_time, soft_delete or tenant_id.
func Lookup(name string) (Mixin, bool) {
	switch name {
	case "id":
		return ID{}, true
	case "time":
		return Time{}, true
	case "create_time":
		return CreateTime{}, true
	case "update_time":
		return UpdateTime{}, true
	case "soft_delete":
		return SoftDelete{}, true
	case "tenant_id":
		return TenantID{}, true
	}
	return nil, false
}
