package sqlgraph

import (
	"context"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
)

// Delete removes obj of model m from table. Side table rows are deleted
// before the row, privately owned objects it references after it.
func (p *Persister) Delete(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, obj any) (persist.Result, error) {
	s, err := p.session(ctx, ex, d)
	if err != nil {
		return persist.Result{}, err
	}
	if err := p.authorize(ctx, persist.OpDelete, table, m, nil, obj); err != nil {
		return persist.Result{}, err
	}
	cond, err := s.recordCondition(m, obj, "")
	if err != nil {
		return persist.Result{}, err
	}
	return s.deleteObject(table, m, obj, cond, "")
}

// DeleteProperty removes the stored value of property prop of the owner
// object. A nil value removes every value of the property.
func (p *Persister) DeleteProperty(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, ownerObj any, prop *schema.Property, pm sqlschema.PropertyMapper, value any) (persist.Result, error) {
	s, err := p.session(ctx, ex, d)
	if err != nil {
		return persist.Result{}, err
	}
	if err := p.authorize(ctx, persist.OpUpdate, table, m, ownerObj, ownerObj); err != nil {
		return persist.Result{}, err
	}
	cond, err := s.recordCondition(m, ownerObj, "")
	if err != nil {
		return persist.Result{}, err
	}
	var values []any
	if prop.Multiple {
		values = prop.Elements(value)
	} else if !schema.IsNil(value) {
		values = []any{value}
	}
	return s.deleteProperty(owner{table: table, model: m, obj: ownerObj, cond: cond}, prop, pm, values)
}

func (s *session) deleteObject(table string, m *schema.Model, obj any, cond *sql.Builder, ignore string) (persist.Result, error) {
	var (
		own   = owner{table: table, model: m, obj: obj, cond: cond}
		after []related
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
		vs := []any{v}
		if p.Multiple {
			vs = p.Elements(v)
		}
		for _, pm := range pms {
			mine := filter(p, vs, pm.Index)
			if len(mine) == 0 {
				continue
			}
			switch mp := pm.Mapper.(type) {
			case *sqlschema.ModelTable:
				if !pm.Model.Primitive() && pm.Private(p) {
					after = append(after, related{prop: p, pm: pm, values: mine})
				}
			case *sqlschema.PropertyTable, *sqlschema.JoinTable:
				if _, err := s.deleteProperty(own, p, pm, mine); err != nil {
					return persist.Result{}, err
				}
			default:
				return persist.Result{}, unsupported(m, p, mp)
			}
		}
	}
	res, err := s.exec(s.builder().SQL("DELETE FROM ").Ident(table).SQL(" WHERE ").Join(cond))
	if err != nil {
		return persist.Result{}, err
	}
	for _, r := range after {
		for _, v := range r.values {
			if err := s.deleteReferenced(r.pm, v); err != nil {
				return persist.Result{}, err
			}
		}
	}
	return res, nil
}

// deleteReferenced deletes a privately owned object by its own key.
func (s *session) deleteReferenced(pm sqlschema.PropertyMapper, obj any) error {
	cond, err := s.recordCondition(pm.Model, obj, pm.MappedBy())
	if err != nil {
		return err
	}
	_, err = s.deleteObject(sqlschema.TableName(pm.Model), pm.Model, obj, cond, pm.MappedBy())
	return err
}

// deleteProperty removes values of one relation of own, or all of them when
// values is empty.
func (s *session) deleteProperty(own owner, p *schema.Property, pm sqlschema.PropertyMapper, values []any) (persist.Result, error) {
	switch mp := pm.Mapper.(type) {
	case *sqlschema.ModelTable:
		columns := mp.PropertyKeyColumns
		if pm.Model.Primitive() {
			columns = []string{mp.Column}
		}
		b := s.builder().SQL("UPDATE ").Ident(own.table).SQL(" SET ").Delimit(",").SuffixIdents(columns, "=NULL")
		res, err := s.exec(b.SQL(" WHERE ").Join(own.cond))
		if err != nil || pm.Model.Primitive() || !pm.Private(p) {
			return res, err
		}
		for _, v := range values {
			if err := s.deleteReferenced(pm, v); err != nil {
				return persist.Result{}, err
			}
		}
		return res, nil
	case *sqlschema.PropertyTable:
		return s.deletePropertyTable(own, p, pm, mp, values)
	case *sqlschema.JoinTable:
		return s.deleteJoinTable(own, p, pm, mp, values)
	default:
		return persist.Result{}, unsupported(own.model, p, mp)
	}
}

func (s *session) deletePropertyTable(own owner, p *schema.Property, pm sqlschema.PropertyMapper, mp *sqlschema.PropertyTable, values []any) (persist.Result, error) {
	ownerCond := sql.Equal(s.d, mp.ModelKeyColumns, keyValues(own.model, own.obj, mp.ModelKeyProperties))
	if pm.Model.Primitive() {
		if len(values) == 0 || !p.Multiple {
			return s.exec(s.builder().SQL("DELETE FROM ").Ident(mp.Table).SQL(" WHERE ").Join(ownerCond))
		}
		res := persist.Count(0)
		for _, v := range values {
			cond := sql.And(s.d, ownerCond, sql.Equal(s.d, []string{mp.Column}, []any{v}))
			r, err := s.exec(s.builder().SQL("DELETE FROM ").Ident(mp.Table).SQL(" WHERE ").Join(cond))
			if err != nil {
				return persist.Result{}, err
			}
			res = res.Add(r)
		}
		return res, nil
	}
	table := sqlschema.TableName(pm.Model)
	if len(values) == 0 {
		return s.exec(s.builder().SQL("DELETE FROM ").Ident(table).SQL(" WHERE ").Join(ownerCond))
	}
	res := persist.Count(0)
	for _, v := range values {
		cond := ownerCond
		if p.Multiple {
			elem, err := s.recordCondition(pm.Model, v, pm.MappedBy())
			if err != nil {
				return persist.Result{}, err
			}
			cond = sql.And(s.d, ownerCond, elem)
		}
		r, err := s.deleteObject(table, pm.Model, v, cond, pm.MappedBy())
		if err != nil {
			return persist.Result{}, err
		}
		res = res.Add(r)
	}
	return res, nil
}

func (s *session) deleteJoinTable(own owner, p *schema.Property, pm sqlschema.PropertyMapper, mp *sqlschema.JoinTable, values []any) (persist.Result, error) {
	ownerCond := sql.Equal(s.d, mp.ModelKeyColumns, keyValues(own.model, own.obj, mp.ModelKeyProperties))
	if len(values) == 0 {
		return s.exec(s.builder().SQL("DELETE FROM ").Ident(mp.Table).SQL(" WHERE ").Join(ownerCond))
	}
	res := persist.Count(0)
	for _, v := range values {
		cond := sql.And(s.d, ownerCond, sql.Equal(s.d, mp.PropertyKeyColumns, keyValues(pm.Model, v, mp.PropertyKeyProperties)))
		r, err := s.exec(s.builder().SQL("DELETE FROM ").Ident(mp.Table).SQL(" WHERE ").Join(cond))
		if err != nil {
			return persist.Result{}, err
		}
		res = res.Add(r)
		if pm.Private(p) {
			if err := s.deleteReferenced(pm, v); err != nil {
				return persist.Result{}, err
			}
		}
	}
	return res, nil
}
