package edge

import (
	"github.com/syssam/persist/schema"
)

// A Builder builds a composite property.
type Builder struct {
	desc *schema.Property
}

// To returns a builder for a property referencing objects of the given
// models. More than one model makes the reference polymorphic.
func To(name string, models ...*schema.Model) *Builder {
	return &Builder{desc: &schema.Property{Name: name, Models: models}}
}

// Multiple makes the property a collection of references.
func (b *Builder) Multiple() *Builder {
	b.desc.Multiple = true
	return b
}

// Private marks the referenced objects as owned by the owner. Updates and
// deletes of the owner cascade into them.
func (b *Builder) Private() *Builder {
	return b.Annotations(schema.Private{})
}

// NotEditable excludes the property from updates.
func (b *Builder) NotEditable() *Builder {
	return b.Annotations(schema.NotEditable{})
}

// NotReadable excludes the property from updates.
func (b *Builder) NotReadable() *Builder {
	return b.Annotations(schema.NotReadable{})
}

// Comment attaches a description to the property.
func (b *Builder) Comment(text string) *Builder {
	return b.Annotations(schema.Comment(text))
}

// Annotations adds a list of annotations to the property.
func (b *Builder) Annotations(annotations ...schema.Annotation) *Builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor returns the built property.
func (b *Builder) Descriptor() *schema.Property {
	return b.desc
}
