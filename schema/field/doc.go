// Package field provides fluent builders for primitive properties.
//
//	field.Int64("id")
//	field.String("name").Comment("display name")
//	field.String("nicknames").Multiple()
//	field.Time("created_at").NotEditable()
//	field.Of("score", schema.PrimitiveOf("decimal", reflect.TypeOf(decimal.Decimal{})))
//
// Storage is configured with dialect/sqlschema annotations; by default a
// primitive property maps to a column of the owner's table.
package field
