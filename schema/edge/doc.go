// Package edge provides fluent builders for composite properties, the
// references from one model to another.
//
//	// Many-to-one, stored as key columns on the owner's table.
//	edge.To("company", company)
//
//	// One-to-one owned by the owner.
//	edge.To("address", address).Private()
//
//	// Polymorphic reference: the value is either a Card or a Wallet.
//	edge.To("payment", card, wallet).Private()
//
//	// Many-to-many through a join table.
//	edge.To("groups", group).Multiple().
//	    Annotations(sqlschema.Map(&sqlschema.JoinTable{Table: "account_group"}))
//
// Models may reference each other in both directions. Set MappedBy on the
// mapper of one side so the engine does not walk back into the owner:
//
//	edge.To("spouse", account).Annotations(sqlschema.Map(&sqlschema.ModelTable{
//	    Relation: sqlschema.Relation{MappedBy: "spouse"},
//	}))
package edge
