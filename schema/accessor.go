package schema

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// Accessor reads and writes the objects of a composite model.
type Accessor interface {
	// New returns a new empty object.
	New() any
	// Get returns the value of the named property, nil when absent.
	Get(obj any, name string) any
	// Set sets the value of the named property. A nil v clears it.
	Set(obj any, name string, v any)
	// Is reports whether obj is an object of the model.
	Is(obj any) bool
}

// Record is a generic object: a model name and its property values.
type Record struct {
	Model  string
	Values map[string]any
}

// NewRecord returns a record of the given model holding values.
func NewRecord(model string, values map[string]any) *Record {
	if values == nil {
		values = make(map[string]any)
	}
	return &Record{Model: model, Values: values}
}

// Get returns the named value, nil when absent.
func (r *Record) Get(name string) any {
	if r == nil {
		return nil
	}
	return r.Values[name]
}

// Set sets the named value. A nil v removes it.
func (r *Record) Set(name string, v any) *Record {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	if isNil(v) {
		delete(r.Values, name)
	} else {
		r.Values[name] = v
	}
	return r
}

// Clone returns a shallow copy of the record.
func (r *Record) Clone() *Record {
	c := NewRecord(r.Model, make(map[string]any, len(r.Values)))
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}

type recordAccessor string

func (a recordAccessor) New() any { return NewRecord(string(a), nil) }

func (a recordAccessor) Get(obj any, name string) any {
	if r, ok := obj.(*Record); ok {
		return r.Get(name)
	}
	return nil
}

func (a recordAccessor) Set(obj any, name string, v any) {
	if r, ok := obj.(*Record); ok && r != nil {
		r.Set(name, v)
	}
}

func (a recordAccessor) Is(obj any) bool {
	r, ok := obj.(*Record)
	return ok && r != nil && r.Model == string(a)
}

// StructAccessor returns an Accessor for objects of type *T. Properties map
// to exported fields by the `persist:"name"` tag, or by a case-insensitive
// match of the field name. Pointer fields to scalars read as the pointed
// value, and nil pointers read as absent.
func StructAccessor[T any]() Accessor {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		panic("schema: StructAccessor requires a struct type, got " + t.String())
	}
	return &structAccessor{typ: t}
}

type structAccessor struct {
	typ    reflect.Type
	once   sync.Once
	fields map[string]int
}

func (a *structAccessor) index(name string) (int, bool) {
	a.once.Do(func() {
		a.fields = make(map[string]int, a.typ.NumField())
		for i := 0; i < a.typ.NumField(); i++ {
			f := a.typ.Field(i)
			if !f.IsExported() {
				continue
			}
			key := strings.ToLower(f.Name)
			if tag, ok := f.Tag.Lookup("persist"); ok {
				if tag = strings.Split(tag, ",")[0]; tag == "-" {
					continue
				} else if tag != "" {
					key = tag
				}
			}
			a.fields[key] = i
		}
	})
	if i, ok := a.fields[name]; ok {
		return i, true
	}
	i, ok := a.fields[strings.ToLower(name)]
	return i, ok
}

func (a *structAccessor) New() any { return reflect.New(a.typ).Interface() }

func (a *structAccessor) Is(obj any) bool {
	rv := reflect.ValueOf(obj)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == a.typ
}

func (a *structAccessor) Get(obj any, name string) any {
	if !a.Is(obj) {
		return nil
	}
	i, ok := a.index(name)
	if !ok {
		return nil
	}
	fv := reflect.ValueOf(obj).Elem().Field(i)
	switch fv.Kind() {
	case reflect.Pointer:
		if fv.IsNil() {
			return nil
		}
		if e := fv.Elem(); e.Kind() != reflect.Struct || e.Type() == timeType {
			return e.Interface()
		}
	case reflect.Interface, reflect.Map, reflect.Slice:
		if fv.IsNil() {
			return nil
		}
	}
	return fv.Interface()
}

func (a *structAccessor) Set(obj any, name string, v any) {
	if !a.Is(obj) {
		return
	}
	i, ok := a.index(name)
	if !ok {
		return
	}
	fv := reflect.ValueOf(obj).Elem().Field(i)
	if isNil(v) {
		fv.SetZero()
		return
	}
	rv := reflect.ValueOf(v)
	switch ft := fv.Type(); {
	case rv.Type().AssignableTo(ft):
		fv.Set(rv)
	case ft.Kind() == reflect.Pointer && rv.Type().AssignableTo(ft.Elem()):
		p := reflect.New(ft.Elem())
		p.Elem().Set(rv)
		fv.Set(p)
	case ft.Kind() == reflect.Pointer && rv.Type().ConvertibleTo(ft.Elem()):
		p := reflect.New(ft.Elem())
		p.Elem().Set(rv.Convert(ft.Elem()))
		fv.Set(p)
	case rv.Type().ConvertibleTo(ft):
		fv.Set(rv.Convert(ft))
	}
}

var timeType = reflect.TypeOf(time.Time{})
