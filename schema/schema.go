package schema

import (
	"fmt"
	"reflect"
)

// Annotation is used to attach arbitrary metadata to models and properties.
// Storage packages such as dialect/sqlschema read their own annotations by name.
type Annotation interface {
	// Name defines the name of the annotation to be retrieved by readers.
	Name() string
}

// Merger wraps the single Merge function allows custom annotation
// to provide an implementation for merging 2 or more annotations
// of the same name.
type Merger interface {
	Merge(Annotation) Annotation
}

// CommentAnnotation is a builtin schema annotation for
// describing models and properties.
type CommentAnnotation struct {
	Text string
}

// Name implements the Annotation interface.
func (*CommentAnnotation) Name() string {
	return "Comment"
}

// Comment returns a new CommentAnnotation with the given text.
func Comment(text string) *CommentAnnotation {
	return &CommentAnnotation{Text: text}
}

// Features gating how a property is persisted.
type (
	// NotReadable marks a property whose value is never read back from
	// storage. Update skips it.
	NotReadable struct{}
	// NotEditable marks a property that cannot be changed once stored.
	// Update skips it.
	NotEditable struct{}
	// Private marks a composite property whose referenced object is owned
	// exclusively by the owner: updates and deletes cascade into it.
	Private struct{}
)

// Name implements the Annotation interface.
func (NotReadable) Name() string { return "NotReadable" }

// Name implements the Annotation interface.
func (NotEditable) Name() string { return "NotEditable" }

// Name implements the Annotation interface.
func (Private) Name() string { return "Private" }

// Model describes a domain type as an ordered list of properties. A model is
// built once and is read-only afterwards; it may be shared by any number of
// concurrent operations.
//
// Primitive models describe scalar values and have a non-nil Type.
type Model struct {
	Name        string
	Properties  []*Property
	Keys        []string
	Annotations []Annotation

	// Type is the Go type of a primitive model's values.
	Type reflect.Type
	// Accessor reads and writes objects of the model. When nil, objects
	// are *Record values whose Model field equals the model name.
	Accessor Accessor
}

// Property is a named attribute of a model. A property whose Models hold a
// single primitive model is primitive; otherwise it references composite
// objects, one candidate model per allowed type.
type Property struct {
	Name        string
	Models      []*Model
	Multiple    bool
	Annotations []Annotation
}

// Primitive reports whether m describes scalar values.
func (m *Model) Primitive() bool { return m.Type != nil }

// Property returns the property with the given name, or nil.
func (m *Model) Property(name string) *Property {
	if i := m.PropertyIndex(name); i >= 0 {
		return m.Properties[i]
	}
	return nil
}

// PropertyIndex returns the position of the named property, or -1.
func (m *Model) PropertyIndex(name string) int {
	for i, p := range m.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// KeyProperties returns the key properties in key order. Unknown key names
// are skipped.
func (m *Model) KeyProperties() []*Property {
	ps := make([]*Property, 0, len(m.Keys))
	for _, k := range m.Keys {
		if p := m.Property(k); p != nil {
			ps = append(ps, p)
		}
	}
	return ps
}

// Annotation returns the annotation with the given name. Multiple
// annotations of the same name are merged when they implement Merger.
func (m *Model) Annotation(name string) Annotation {
	return lookup(m.Annotations, name)
}

func (m *Model) accessor() Accessor {
	if m.Accessor != nil {
		return m.Accessor
	}
	return recordAccessor(m.Name)
}

// New returns a new empty object of the model.
func (m *Model) New() any { return m.accessor().New() }

// Get returns the value of the named property of obj. A nil obj reads as
// all-absent.
func (m *Model) Get(obj any, name string) any {
	if isNil(obj) {
		return nil
	}
	return m.accessor().Get(obj, name)
}

// Set sets the value of the named property of obj.
func (m *Model) Set(obj any, name string, v any) {
	m.accessor().Set(obj, name, v)
}

// Is reports whether v conforms to the model.
func (m *Model) Is(v any) bool {
	if isNil(v) {
		return false
	}
	if m.Primitive() {
		t := reflect.TypeOf(v)
		return t == m.Type || t.ConvertibleTo(m.Type) && t.Kind() == m.Type.Kind()
	}
	return m.accessor().Is(v)
}

// Values returns the values of all properties of obj in property order.
func (m *Model) Values(obj any) []any {
	vs := make([]any, len(m.Properties))
	if isNil(obj) {
		return vs
	}
	for i, p := range m.Properties {
		vs[i] = m.Get(obj, p.Name)
	}
	return vs
}

func (m *Model) String() string { return m.Name }

// Primitive reports whether p holds scalar values.
func (p *Property) Primitive() bool {
	return len(p.Models) == 1 && p.Models[0].Primitive()
}

// Has reports whether the property carries an annotation with the given name.
func (p *Property) Has(a Annotation) bool {
	for _, ant := range p.Annotations {
		if ant.Name() == a.Name() {
			return true
		}
	}
	return false
}

// Annotation returns the annotation with the given name, merging duplicates
// that implement Merger.
func (p *Property) Annotation(name string) Annotation {
	return lookup(p.Annotations, name)
}

// ModelIndex returns the index of the candidate model that v conforms to,
// or -1 if v is nil or matches none. A property with a single candidate
// accepts any non-nil value.
func (p *Property) ModelIndex(v any) int {
	if isNil(v) {
		return -1
	}
	if len(p.Models) == 1 {
		return 0
	}
	for i, m := range p.Models {
		if m.Is(v) {
			return i
		}
	}
	return -1
}

// Elements returns the elements of a multi-valued property value. A value
// that is not a slice or array is returned as a single element; nil yields
// no elements.
func (p *Property) Elements(v any) []any {
	if isNil(v) {
		return nil
	}
	if vs, ok := v.([]any); ok {
		return vs
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 && p.Primitive() {
			return []any{v}
		}
		vs := make([]any, rv.Len())
		for i := range vs {
			vs[i] = rv.Index(i).Interface()
		}
		return vs
	default:
		return []any{v}
	}
}

func (p *Property) String() string {
	return fmt.Sprintf("%s%v", p.Name, p.Models)
}

func lookup(ants []Annotation, name string) Annotation {
	var found Annotation
	for _, a := range ants {
		if a == nil || a.Name() != name {
			continue
		}
		switch m, ok := found.(Merger); {
		case found == nil:
			found = a
		case ok:
			found = m.Merge(a)
		default:
			found = a
		}
	}
	return found
}

// isNil reports whether v is nil or a nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// IsNil reports whether v reads as an absent value: nil, or a nil pointer,
// map, slice or interface.
func IsNil(v any) bool { return isNil(v) }
