package sqlgraph

import (
	"context"
	"reflect"
	"strings"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
)

// Insert writes obj of model m into table along with its relations.
// Privately owned objects referenced from the row are inserted first, side
// table rows after it. Absent string keys are filled by the model's key
// generator, if any.
func (p *Persister) Insert(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, obj any) (persist.Result, error) {
	s, err := p.session(ctx, ex, d)
	if err != nil {
		return persist.Result{}, err
	}
	if schema.IsNil(obj) {
		return persist.Result{}, mappingErr(m, nil, persist.ErrNilObject)
	}
	if err := p.authorize(ctx, persist.OpInsert, table, m, nil, obj); err != nil {
		return persist.Result{}, err
	}
	return s.insertObject(table, m, obj, nil, nil, "")
}

// InsertProperty inserts values of property prop for the owner object of
// model m. Values that do not belong to the candidate model of pm are
// skipped.
func (p *Persister) InsertProperty(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, ownerObj any, prop *schema.Property, pm sqlschema.PropertyMapper, values ...any) (persist.Result, error) {
	s, err := p.session(ctx, ex, d)
	if err != nil {
		return persist.Result{}, err
	}
	if schema.IsNil(ownerObj) {
		return persist.Result{}, mappingErr(m, prop, persist.ErrNilObject)
	}
	if err := p.authorize(ctx, persist.OpUpdate, table, m, ownerObj, ownerObj); err != nil {
		return persist.Result{}, err
	}
	return s.insertProperty(owner{table: table, model: m, obj: ownerObj}, prop, pm, values)
}

// related is a relation written after the owner row.
type related struct {
	prop   *schema.Property
	pm     sqlschema.PropertyMapper
	values []any
}

func (s *session) insertObject(table string, m *schema.Model, obj any, extraColumns []string, extraValues []any, ignore string) (persist.Result, error) {
	if err := s.resolve(m, obj, ignore); err != nil {
		return persist.Result{}, err
	}
	if err := generateKeys(m, obj); err != nil {
		return persist.Result{}, err
	}
	var (
		columns []string
		values  []any
		after   []related
	)
	for _, p := range m.Properties {
		if p.Name == ignore {
			continue
		}
		v := m.Get(obj, p.Name)
		if schema.IsNil(v) {
			continue
		}
		pms, err := s.mappers(m, p)
		if err != nil {
			return persist.Result{}, err
		}
		if p.Multiple {
			elems := p.Elements(v)
			for _, pm := range pms {
				if _, ok := pm.Mapper.(*sqlschema.ModelTable); ok {
					return persist.Result{}, mappingErr(m, p, persist.ErrMultipleProperty)
				}
				if vs := filter(p, elems, pm.Index); len(vs) > 0 {
					after = append(after, related{prop: p, pm: pm, values: vs})
				}
			}
			continue
		}
		idx, err := modelIndex(m, p, v)
		if err != nil {
			return persist.Result{}, err
		}
		pm := pms[idx]
		switch mp := pm.Mapper.(type) {
		case *sqlschema.ModelTable:
			if !pm.Model.Primitive() && pm.Private(p) {
				if _, err := s.insertObject(sqlschema.TableName(pm.Model), pm.Model, v, nil, nil, pm.MappedBy()); err != nil {
					return persist.Result{}, err
				}
			}
			cs, vs := modelTableColumns(p, pms, v)
			for i := range cs {
				if vs[i] != nil {
					columns, values = append(columns, cs[i]), append(values, vs[i])
				}
			}
		case *sqlschema.PropertyTable, *sqlschema.JoinTable:
			after = append(after, related{prop: p, pm: pm, values: []any{v}})
		default:
			return persist.Result{}, unsupported(m, p, mp)
		}
	}
	columns, values = append(columns, extraColumns...), append(values, extraValues...)
	b := s.builder().SQL("INSERT INTO ").Ident(table)
	switch {
	case len(columns) > 0:
		b.SQL(" (").Delimit(",").Idents(columns...).SQL(") VALUES (").Delimit(",").Sqld(placeholders(len(columns))...).SQL(")").Arg(values...)
	case s.d == dialect.MySQL:
		b.SQL(" () VALUES ()")
	default:
		b.SQL(" DEFAULT VALUES")
	}
	res, err := s.exec(b)
	if err != nil {
		return persist.Result{}, err
	}
	own := owner{table: table, model: m, obj: obj}
	for _, r := range after {
		if _, err := s.insertProperty(own, r.prop, r.pm, r.values); err != nil {
			return persist.Result{}, err
		}
	}
	return res, nil
}

// insertProperty inserts values of one relation of own. The result sums the
// counts of every insert.
func (s *session) insertProperty(own owner, p *schema.Property, pm sqlschema.PropertyMapper, values []any) (persist.Result, error) {
	res := persist.Count(0)
	for _, v := range values {
		if schema.IsNil(v) || p.ModelIndex(v) != pm.Index {
			continue
		}
		v, err := s.resolveValue(pm.Model, v)
		if err != nil {
			return persist.Result{}, mappingErr(own.model, p, err)
		}
		var r persist.Result
		switch mp := pm.Mapper.(type) {
		case *sqlschema.ModelTable:
			if pm.Model.Primitive() || !pm.Private(p) {
				return persist.Ignored, nil
			}
			r, err = s.insertObject(sqlschema.TableName(pm.Model), pm.Model, v, nil, nil, pm.MappedBy())
		case *sqlschema.PropertyTable:
			mk := keyValues(own.model, own.obj, mp.ModelKeyProperties)
			if !pm.Model.Primitive() {
				r, err = s.insertObject(sqlschema.TableName(pm.Model), pm.Model, v, mp.ModelKeyColumns, mk, pm.MappedBy())
				break
			}
			r, err = s.insertRow(mp.Table, append(append([]string(nil), mp.ModelKeyColumns...), mp.Column), append(mk, v))
		case *sqlschema.JoinTable:
			if pm.Private(p) {
				if _, err = s.insertObject(sqlschema.TableName(pm.Model), pm.Model, v, nil, nil, pm.MappedBy()); err != nil {
					break
				}
			}
			columns := append(append([]string(nil), mp.ModelKeyColumns...), mp.PropertyKeyColumns...)
			keys := append(keyValues(own.model, own.obj, mp.ModelKeyProperties), keyValues(pm.Model, v, mp.PropertyKeyProperties)...)
			r, err = s.insertRow(mp.Table, columns, keys)
		default:
			return persist.Result{}, unsupported(own.model, p, mp)
		}
		if err != nil {
			return persist.Result{}, err
		}
		res = res.Add(r)
	}
	return res, nil
}

func (s *session) insertRow(table string, columns []string, values []any) (persist.Result, error) {
	b := s.builder().SQL("INSERT INTO ").Ident(table).SQL(" (").Delimit(",").Idents(columns...).
		SQL(") VALUES (").Delimit(",").Sqld(placeholders(len(columns))...).SQL(")").Arg(values...)
	return s.exec(b)
}

func placeholders(n int) []string {
	return strings.Split(strings.Repeat("?", n), "")
}

// generateKeys fills the absent string keys of obj with the model's key
// generator.
func generateKeys(m *schema.Model, obj any) error {
	g := sqlschema.GeneratorOf(m)
	if g == "" {
		return nil
	}
	for _, kp := range m.KeyProperties() {
		if !kp.Primitive() || kp.Models[0].Type.Kind() != reflect.String || !schema.IsNil(m.Get(obj, kp.Name)) {
			continue
		}
		k, err := g.Generate()
		if err != nil {
			return mappingErr(m, kp, err)
		}
		m.Set(obj, kp.Name, k)
	}
	return nil
}
