package sqlgraph

import (
	"context"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
)

// Update writes the differences between original and update, two states of
// the same object of model m stored in table. The row is located by the key
// of original. Relations held in side tables are updated, inserted or
// deleted as their values require; collections are left alone.
//
// The result is the row count of the model table write, or
// persist.Unchanged when no column differs.
func (p *Persister) Update(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, original, update any) (persist.Result, error) {
	s, err := p.session(ctx, ex, d)
	if err != nil {
		return persist.Result{}, err
	}
	if schema.IsNil(update) {
		return persist.Result{}, mappingErr(m, nil, persist.ErrNilObject)
	}
	if err := p.authorize(ctx, persist.OpUpdate, table, m, original, update); err != nil {
		return persist.Result{}, err
	}
	cond, err := s.recordCondition(m, original, "")
	if err != nil {
		return persist.Result{}, err
	}
	return s.update(table, m, cond, original, update, nil, nil, "")
}

// UpdateProperty updates a single relation of owner: the property value
// moves from original to update. pm selects which candidate model mapping
// is written.
func (p *Persister) UpdateProperty(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, ownerObj any, prop *schema.Property, pm sqlschema.PropertyMapper, original, update any) (persist.Result, error) {
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
	if update, err = s.resolveValue(pm.Model, update); err != nil {
		return persist.Result{}, mappingErr(m, prop, err)
	}
	own := owner{table: table, model: m, obj: ownerObj, cond: cond}
	if schema.IsNil(update) && !pm.Model.Primitive() {
		if schema.IsNil(original) {
			return persist.Unchanged, nil
		}
		return s.deleteProperty(own, prop, pm, []any{original})
	}
	return s.updateProperty(own, prop, pm, original, update, nil, true)
}

// pending is a relation update waiting for the owner row.
type pending struct {
	prop     *schema.Property
	pm       sqlschema.PropertyMapper
	original any
	update   any
}

// orphan is a privately owned object unlinked from a model table column.
type orphan struct {
	pm  sqlschema.PropertyMapper
	obj any
}

// update is the recursive core of Update. extraColumns and extraValues are
// written along with the changed columns; ignore names the property that
// points back to the caller.
func (s *session) update(table string, m *schema.Model, cond *sql.Builder, original, update any, extraColumns []string, extraValues []any, ignore string) (persist.Result, error) {
	if err := s.resolve(m, update, ignore); err != nil {
		return persist.Result{}, err
	}
	var (
		ovs     = m.Values(original)
		uvs     = m.Values(update)
		own     = owner{table: table, model: m, obj: original, cond: cond}
		later   []pending
		orphans []orphan
	)
	for i, p := range m.Properties {
		if skip(p, ignore) {
			continue
		}
		ov, uv := ovs[i], uvs[i]
		pms, err := s.mappers(m, p)
		if err != nil {
			return persist.Result{}, err
		}
		if schema.IsNil(uv) {
			if schema.IsNil(ov) {
				continue
			}
			oi, err := modelIndex(m, p, ov)
			if err != nil {
				return persist.Result{}, err
			}
			if orphans, err = s.unlink(own, p, pms[oi], ov, orphans); err != nil {
				return persist.Result{}, err
			}
			continue
		}
		mine, err := modelIndex(m, p, uv)
		if err != nil {
			return persist.Result{}, err
		}
		oi := p.ModelIndex(ov)
		for _, pm := range pms {
			if pm.Index != mine {
				if oi == pm.Index {
					if orphans, err = s.unlink(own, p, pm, ov, orphans); err != nil {
						return persist.Result{}, err
					}
				}
				continue
			}
			if !pm.Private(p) {
				continue
			}
			pov := ov
			if oi != mine {
				pov = nil
			}
			if !pm.KeyUpdateRule().IsManual() {
				s.log.DebugContext(s.ctx, "deferring relation update", "model", m.Name, "property", p.Name)
				later = append(later, pending{prop: p, pm: pm, original: pov, update: uv})
				continue
			}
			res, err := s.updateProperty(own, p, pm, pov, uv, update, false)
			if err != nil {
				return persist.Result{}, err
			}
			if res.IsZero() {
				if _, err := s.insertMissing(owner{table: table, model: m, obj: update}, p, pm, uv); err != nil {
					return persist.Result{}, err
				}
			}
		}
	}
	res, err := s.updateRow(table, m, cond, m.Properties, ovs, uvs, extraColumns, extraValues, ignore)
	if err != nil {
		return persist.Result{}, err
	}
	for _, o := range orphans {
		if err := s.deleteReferenced(o.pm, o.obj); err != nil {
			return persist.Result{}, err
		}
	}
	if len(later) == 0 {
		return res, nil
	}
	ucond, err := s.recordCondition(m, update, "")
	if err != nil {
		return persist.Result{}, err
	}
	own = owner{table: table, model: m, obj: update, cond: ucond}
	for _, l := range later {
		r, err := s.updateProperty(own, l.prop, l.pm, l.original, l.update, nil, false)
		if err != nil {
			return persist.Result{}, err
		}
		if r.IsZero() {
			if _, err := s.insertMissing(own, l.prop, l.pm, l.update); err != nil {
				return persist.Result{}, err
			}
		}
	}
	return res, nil
}

func (s *session) insertMissing(own owner, p *schema.Property, pm sqlschema.PropertyMapper, v any) (persist.Result, error) {
	s.log.DebugContext(s.ctx, "relation not found, inserting", "model", own.model.Name, "property", p.Name)
	return s.insertProperty(own, p, pm, []any{v})
}

// unlink removes the stored value ov of a relation whose new value is
// absent or belongs to another candidate model. Model table columns are
// cleared by the row write; privately owned objects they referenced are
// returned in orphans for deletion after it.
func (s *session) unlink(own owner, p *schema.Property, pm sqlschema.PropertyMapper, ov any, orphans []orphan) ([]orphan, error) {
	switch mp := pm.Mapper.(type) {
	case *sqlschema.ModelTable:
		if !pm.Model.Primitive() && pm.Private(p) {
			orphans = append(orphans, orphan{pm: pm, obj: ov})
		}
		return orphans, nil
	case *sqlschema.PropertyTable, *sqlschema.JoinTable:
		_, err := s.deleteProperty(own, p, pm, []any{ov})
		return orphans, err
	default:
		return orphans, unsupported(own.model, p, mp)
	}
}

// updateRow writes the model table columns of props that differ between
// ovs and uvs. It returns persist.Unchanged when nothing differs and no
// extra column is given.
func (s *session) updateRow(table string, m *schema.Model, cond *sql.Builder, props []*schema.Property, ovs, uvs []any, extraColumns []string, extraValues []any, ignore string) (persist.Result, error) {
	if cond.Empty() {
		return persist.Result{}, mappingErr(m, nil, persist.ErrNoKey)
	}
	b := s.builder().SQL("UPDATE ").Ident(table).SQL(" SET ").Delimit(",")
	mark := b.Len()
	for i, p := range props {
		if p.Name == ignore || p.Has(schema.NotReadable{}) || p.Has(schema.NotEditable{}) {
			continue
		}
		pms, err := s.mappers(m, p)
		if err != nil {
			return persist.Result{}, err
		}
		if !inRow(pms) {
			continue
		}
		same, err := unchanged(m, p, ovs[i], uvs[i])
		if err != nil {
			return persist.Result{}, err
		}
		if same {
			continue
		}
		oc, ov := modelTableColumns(p, pms, ovs[i])
		_, uv := modelTableColumns(p, pms, uvs[i])
		for j, c := range oc {
			if !valueEqual(ov[j], uv[j]) {
				b.SuffixIdents([]string{c}, "=?").Arg(uv[j])
			}
		}
	}
	b.SuffixIdents(extraColumns, "=?").Arg(extraValues...)
	if b.Len() == mark {
		s.log.DebugContext(s.ctx, "model row unchanged", "model", m.Name, "table", table)
		return persist.Unchanged, nil
	}
	b.SQL(" WHERE ").Join(cond)
	return s.exec(b)
}

// inRow reports whether any candidate of a property is stored in the
// owner's row.
func inRow(pms []sqlschema.PropertyMapper) bool {
	for _, pm := range pms {
		if _, ok := pm.Mapper.(*sqlschema.ModelTable); ok {
			return true
		}
	}
	return false
}

// updateProperty updates one relation of own. keyObj, when set, is the
// owner's new state: side table rows are re-keyed to it if its key differs.
// writeRow allows writing the owner's model table columns.
func (s *session) updateProperty(own owner, p *schema.Property, pm sqlschema.PropertyMapper, ov, uv, keyObj any, writeRow bool) (persist.Result, error) {
	switch mp := pm.Mapper.(type) {
	case *sqlschema.ModelTable:
		return s.updateModelTable(own, p, pm, ov, uv, writeRow)
	case *sqlschema.PropertyTable:
		return s.updatePropertyTable(own, p, pm, mp, ov, uv, keyObj)
	case *sqlschema.JoinTable:
		return s.updateJoinTable(own, p, pm, mp, ov, uv, keyObj)
	default:
		return persist.Result{}, unsupported(own.model, p, mp)
	}
}

func (s *session) updateModelTable(own owner, p *schema.Property, pm sqlschema.PropertyMapper, ov, uv any, writeRow bool) (persist.Result, error) {
	row := func() (persist.Result, error) {
		return s.updateRow(own.table, own.model, own.cond, []*schema.Property{p}, []any{ov}, []any{uv}, nil, nil, "")
	}
	if pm.Model.Primitive() || !pm.Private(p) {
		if writeRow {
			return row()
		}
		return persist.Ignored, nil
	}
	res := persist.Count(0)
	if !schema.IsNil(ov) {
		cond, err := s.recordCondition(pm.Model, ov, "")
		if err != nil {
			return persist.Result{}, err
		}
		if res, err = s.update(sqlschema.TableName(pm.Model), pm.Model, cond, ov, uv, nil, nil, pm.MappedBy()); err != nil {
			return persist.Result{}, err
		}
	}
	if !writeRow {
		return res, nil
	}
	if res.IsZero() {
		if _, err := s.insertObject(sqlschema.TableName(pm.Model), pm.Model, uv, nil, nil, pm.MappedBy()); err != nil {
			return persist.Result{}, err
		}
	}
	return row()
}

func (s *session) updatePropertyTable(own owner, p *schema.Property, pm sqlschema.PropertyMapper, mp *sqlschema.PropertyTable, ov, uv, keyObj any) (persist.Result, error) {
	var (
		rekeyColumns []string
		rekeyValues  []any
		ownerKey     = keyValues(own.model, own.obj, mp.ModelKeyProperties)
	)
	if !schema.IsNil(keyObj) {
		if nk := keyValues(own.model, keyObj, mp.ModelKeyProperties); !valuesEqual(nk, ownerKey) {
			rekeyColumns, rekeyValues = mp.ModelKeyColumns, nk
		}
	}
	cond := sql.Equal(s.d, mp.ModelKeyColumns, ownerKey)
	if p.Multiple && !schema.IsNil(ov) {
		elem, err := s.elementCondition(pm, mp.Column, ov)
		if err != nil {
			return persist.Result{}, err
		}
		cond = sql.And(s.d, cond, elem)
	}
	if !pm.Model.Primitive() {
		if schema.IsNil(ov) {
			// Nothing stored yet; the caller inserts the whole value.
			return persist.Count(0), nil
		}
		return s.update(sqlschema.TableName(pm.Model), pm.Model, cond, ov, uv, rekeyColumns, rekeyValues, pm.MappedBy())
	}
	same := valueEqual(ov, uv)
	if same && rekeyColumns == nil {
		return persist.Unchanged, nil
	}
	b := s.builder().SQL("UPDATE ").Ident(mp.Table).SQL(" SET ").Delimit(",")
	if !same {
		b.SuffixIdents([]string{mp.Column}, "=?").Arg(uv)
	}
	b.SuffixIdents(rekeyColumns, "=?").Arg(rekeyValues...)
	b.SQL(" WHERE ").Join(cond)
	return s.exec(b)
}

func (s *session) updateJoinTable(own owner, p *schema.Property, pm sqlschema.PropertyMapper, mp *sqlschema.JoinTable, ov, uv, keyObj any) (persist.Result, error) {
	if !pm.Private(p) {
		switch {
		case schema.IsNil(keyObj):
			return persist.Ignored, nil
		case schema.IsNil(ov):
			return persist.Count(0), nil
		}
		return s.relink(own, pm, mp, ov, uv, keyObj)
	}
	if schema.IsNil(ov) {
		return persist.Count(0), nil
	}
	cond, err := s.recordCondition(pm.Model, ov, pm.MappedBy())
	if err != nil {
		return persist.Result{}, err
	}
	res, err := s.update(sqlschema.TableName(pm.Model), pm.Model, cond, ov, uv, nil, nil, pm.MappedBy())
	if err != nil || schema.IsNil(keyObj) {
		return res, err
	}
	link, err := s.relink(own, pm, mp, ov, uv, keyObj)
	if err != nil || link.IsUnchanged() {
		return res, err
	}
	return link, nil
}

// relink moves the join row of (own, ov) to the keys of (keyObj, uv).
func (s *session) relink(own owner, pm sqlschema.PropertyMapper, mp *sqlschema.JoinTable, ov, uv, keyObj any) (persist.Result, error) {
	var (
		omk = keyValues(own.model, own.obj, mp.ModelKeyProperties)
		umk = keyValues(own.model, keyObj, mp.ModelKeyProperties)
		opk = keyValues(pm.Model, ov, mp.PropertyKeyProperties)
		upk = keyValues(pm.Model, uv, mp.PropertyKeyProperties)
	)
	if valuesEqual(omk, umk) && valuesEqual(opk, upk) {
		return persist.Unchanged, nil
	}
	b := s.builder().SQL("UPDATE ").Ident(mp.Table).SQL(" SET ").Delimit(",")
	b.SuffixIdents(mp.ModelKeyColumns, "=?").Arg(umk...)
	b.SuffixIdents(mp.PropertyKeyColumns, "=?").Arg(upk...)
	b.SQL(" WHERE ").Join(sql.And(s.d,
		sql.Equal(s.d, mp.ModelKeyColumns, omk),
		sql.Equal(s.d, mp.PropertyKeyColumns, opk),
	))
	return s.exec(b)
}
