package sqlgraph_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/edge"
	"github.com/syssam/persist/schema/field"
)

// models is the schema shared by the engine tests.
type models struct {
	account, address, group, profile, card, wallet *schema.Model
}

func newModels() *models {
	m := &models{}
	m.address = &schema.Model{Name: "Address", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("street").Descriptor(),
	}}
	m.group = &schema.Model{Name: "Group", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("name").Descriptor(),
	}}
	m.profile = &schema.Model{Name: "Profile", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("bio").Descriptor(),
	}}
	m.card = &schema.Model{Name: "Card", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("number").Descriptor(),
	}}
	m.wallet = &schema.Model{Name: "Wallet", Keys: []string{"id"}, Properties: []*schema.Property{
		field.String("id").Descriptor(),
		field.String("provider").Descriptor(),
	}}
	m.account = &schema.Model{Name: "Account", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("name").Descriptor(),
		field.Time("seen").Descriptor(),
		field.Time("modified").Descriptor(),
		field.String("nickname").
			Annotations(sqlschema.Map(&sqlschema.PropertyTable{Table: "account_nickname", Column: "nickname"})).
			Descriptor(),
		field.String("tags").Multiple().Descriptor(),
		field.String("secret").NotEditable().Descriptor(),
		edge.To("address", m.address).Private().Descriptor(),
		edge.To("team", m.group).
			Annotations(sqlschema.Map(&sqlschema.JoinTable{Table: "account_team"})).
			Descriptor(),
		edge.To("profile", m.profile).Private().
			Annotations(sqlschema.Map(&sqlschema.JoinTable{
				Table:    "account_profile",
				Relation: sqlschema.Relation{PropertyKeyUpdateRule: sqlschema.AutoRule(sqlschema.Cascade)},
			})).
			Descriptor(),
		edge.To("payment", m.card, m.wallet).Private().
			Annotations(sqlschema.Map(&sqlschema.ModelTable{}, &sqlschema.PropertyTable{Relation: sqlschema.Relation{MappedBy: "owner"}})).
			Descriptor(),
	}}
	return m
}

func record(model string, kv ...any) *schema.Record {
	r := schema.NewRecord(model, nil)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

func mapper(t *testing.T, m *schema.Model, prop string, i int) (*schema.Property, sqlschema.PropertyMapper) {
	t.Helper()
	p := m.Property(prop)
	require.NotNil(t, p)
	pms, err := sqlschema.PropertyMappers(m, p)
	require.NoError(t, err)
	return p, pms[i]
}

func mock(t *testing.T) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect.SQLite, db), mock
}

var ctx = context.Background()
