package schema

import (
	"reflect"
	"time"
)

// Primitive models shared by all schemas.
var (
	String  = PrimitiveOf("string", reflect.TypeOf(""))
	Int     = PrimitiveOf("int", reflect.TypeOf(0))
	Int64   = PrimitiveOf("int64", reflect.TypeOf(int64(0)))
	Float64 = PrimitiveOf("float64", reflect.TypeOf(float64(0)))
	Bool    = PrimitiveOf("bool", reflect.TypeOf(false))
	Time    = PrimitiveOf("time", reflect.TypeOf(time.Time{}))
	Bytes   = PrimitiveOf("bytes", reflect.TypeOf([]byte(nil)))
)

// PrimitiveOf returns a primitive model for values of type t.
func PrimitiveOf(name string, t reflect.Type) *Model {
	return &Model{Name: name, Type: t}
}

// Primitives returns the builtin primitive models by name.
func Primitives() map[string]*Model {
	return map[string]*Model{
		String.Name:  String,
		Int.Name:     Int,
		Int64.Name:   Int64,
		Float64.Name: Float64,
		Bool.Name:    Bool,
		Time.Name:    Time,
		Bytes.Name:   Bytes,
	}
}
