// Package schema describes domain types for the persistence engine.
//
// A Model is an ordered list of properties plus the names of its key
// properties. A Property is primitive (its single candidate model is one of
// the primitive models such as String or Int64), a single composite
// reference, or, with Multiple set, a collection. A composite property may
// list several candidate models for polymorphic references.
//
//	account := &schema.Model{Name: "Account", Keys: []string{"id"}}
//	address := &schema.Model{Name: "Address", Keys: []string{"id"}}
//	account.Properties = []*schema.Property{
//	    field.Int64("id").Descriptor(),
//	    field.String("name").Descriptor(),
//	    edge.To("address", address).Private().Descriptor(),
//	}
//
// # Objects
//
// Objects are read and written through the model's Accessor. Without one,
// objects are *Record values:
//
//	rec := schema.NewRecord("Account", map[string]any{"id": int64(1), "name": "a"})
//
// StructAccessor maps Go structs instead:
//
//	type Account struct {
//	    ID   int64  `persist:"id"`
//	    Name string `persist:"name"`
//	}
//	account.Accessor = schema.StructAccessor[Account]()
//
// # Features
//
// NotReadable and NotEditable exclude a property from updates. Private marks
// a composite reference as exclusively owned, so updates and deletes cascade
// into the referenced object.
//
// Storage mapping (tables, columns, join tables) is attached as annotations
// from the dialect/sqlschema package.
package schema
