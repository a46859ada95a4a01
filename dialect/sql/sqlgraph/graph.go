// Package sqlgraph implements the write engines that keep an object graph
// described by schema models in sync with its SQL storage: model tables,
// property tables and join tables.
//
// All operations run their statements sequentially on the given
// dialect.ExecQuerier. They never begin, commit or roll back transactions;
// callers wrap a top-level call in their own transaction.
package sqlgraph

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/privacy"
	"github.com/syssam/persist/schema"
)

// Persister runs insert, update and delete operations. It holds no state
// between calls and is safe for concurrent use.
type Persister struct {
	log    *slog.Logger
	policy privacy.MutationRule
}

// Option configures a Persister.
type Option func(*Persister)

// WithLogger sets the logger used for debug output. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Persister) {
		p.log = l
	}
}

// WithPolicy sets the write policy evaluated before every top-level write.
// A denied write issues no statement and returns the deny decision.
func WithPolicy(policy privacy.MutationRule) Option {
	return func(p *Persister) {
		p.policy = policy
	}
}

// New returns a Persister configured by opts.
func New(opts ...Option) *Persister {
	p := &Persister{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Update runs Persister.Update with a default Persister.
func Update(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, original, update any) (persist.Result, error) {
	return New().Update(ctx, ex, d, table, m, original, update)
}

// Insert runs Persister.Insert with a default Persister.
func Insert(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, obj any) (persist.Result, error) {
	return New().Insert(ctx, ex, d, table, m, obj)
}

// Delete runs Persister.Delete with a default Persister.
func Delete(ctx context.Context, ex dialect.ExecQuerier, d, table string, m *schema.Model, obj any) (persist.Result, error) {
	return New().Delete(ctx, ex, d, table, m, obj)
}

// session carries the state of one top-level call.
type session struct {
	ctx  context.Context
	ex   dialect.ExecQuerier
	d    string
	log  *slog.Logger
	memo map[string]any // resolved SQL expressions by text
}

// authorize evaluates the write policy, if any, on a top-level write.
func (p *Persister) authorize(ctx context.Context, op persist.Op, table string, m *schema.Model, original, obj any) error {
	if p.policy == nil {
		return nil
	}
	return privacy.Eval(ctx, p.policy, privacy.NewMutation(op, m, table, original, obj))
}

func (p *Persister) session(ctx context.Context, ex dialect.ExecQuerier, d string) (*session, error) {
	if err := dialect.Check(d); err != nil {
		return nil, err
	}
	l := p.log
	if l == nil {
		l = slog.Default()
	}
	return &session{ctx: ctx, ex: ex, d: d, log: l, memo: make(map[string]any)}, nil
}

// owner locates the row a relation belongs to.
type owner struct {
	table string
	model *schema.Model
	obj   any          // provides the owner key values
	cond  *sql.Builder // selects the owner row
}

func (s *session) builder() *sql.Builder { return sql.NewBuilder(s.d) }

func (s *session) exec(b *sql.Builder) (persist.Result, error) {
	n, err := sql.ExecBuilder(s.ctx, s.ex, b)
	if err != nil {
		return persist.Result{}, err
	}
	return persist.Count(n), nil
}

func (s *session) mappers(m *schema.Model, p *schema.Property) ([]sqlschema.PropertyMapper, error) {
	return sqlschema.PropertyMappers(m, p)
}

func mappingErr(m *schema.Model, p *schema.Property, err error) error {
	var name string
	if p != nil {
		name = p.Name
	}
	return persist.NewMappingError(m.Name, name, err)
}

func unsupported(m *schema.Model, p *schema.Property, mp sqlschema.Mapper) error {
	return mappingErr(m, p, fmt.Errorf("%w: %T", persist.ErrUnsupportedMapper, mp))
}

// modelIndex returns the candidate model index of v, failing when a
// non-nil v matches none.
func modelIndex(m *schema.Model, p *schema.Property, v any) (int, error) {
	i := p.ModelIndex(v)
	if i < 0 && !schema.IsNil(v) {
		return -1, mappingErr(m, p, fmt.Errorf("%w: %T", persist.ErrUnknownModel, v))
	}
	return i, nil
}

// modelTableColumns returns the owner table columns of p and their values
// for v. Every model table variant contributes its columns; only the
// variant v belongs to carries values, the others are nil.
func modelTableColumns(p *schema.Property, pms []sqlschema.PropertyMapper, v any) (columns []string, values []any) {
	idx := p.ModelIndex(v)
	for _, pm := range pms {
		mt, ok := pm.Mapper.(*sqlschema.ModelTable)
		if !ok {
			continue
		}
		if pm.Model.Primitive() {
			columns = append(columns, mt.Column)
			if idx == pm.Index {
				values = append(values, v)
			} else {
				values = append(values, nil)
			}
			continue
		}
		columns = append(columns, mt.PropertyKeyColumns...)
		for _, k := range mt.PropertyKeyProperties {
			if idx == pm.Index {
				values = append(values, pm.Model.Get(v, k))
			} else {
				values = append(values, nil)
			}
		}
	}
	return columns, values
}

// keyValues returns the values of the named properties of obj.
func keyValues(m *schema.Model, obj any, keys []string) []any {
	vs := make([]any, len(keys))
	for i, k := range keys {
		vs[i] = m.Get(obj, k)
	}
	return vs
}

// recordCondition builds the condition selecting the row of obj in the
// model's table: its key columns, or every primitive column when the model
// has no keys.
func (s *session) recordCondition(m *schema.Model, obj any, ignore string) (*sql.Builder, error) {
	if schema.IsNil(obj) {
		return nil, mappingErr(m, nil, persist.ErrNilObject)
	}
	props := m.KeyProperties()
	if len(props) == 0 {
		for _, p := range m.Properties {
			if p.Name != ignore && p.Primitive() && !p.Multiple {
				props = append(props, p)
			}
		}
	}
	var (
		columns []string
		values  []any
	)
	for _, p := range props {
		pms, err := s.mappers(m, p)
		if err != nil {
			return nil, err
		}
		c, v := modelTableColumns(p, pms, m.Get(obj, p.Name))
		columns = append(columns, c...)
		values = append(values, v...)
	}
	if len(columns) == 0 {
		return nil, mappingErr(m, nil, persist.ErrNoKey)
	}
	return sql.Equal(s.d, columns, values), nil
}

// elementCondition narrows a side table to one stored element.
func (s *session) elementCondition(pm sqlschema.PropertyMapper, column string, v any) (*sql.Builder, error) {
	if pm.Model.Primitive() {
		return sql.Equal(s.d, []string{column}, []any{v}), nil
	}
	return s.recordCondition(pm.Model, v, pm.MappedBy())
}

// skip reports whether update leaves p alone: the suppressed back
// reference, NotReadable and NotEditable properties, and collections.
func skip(p *schema.Property, ignore string) bool {
	return p.Name == ignore ||
		p.Has(schema.NotReadable{}) ||
		p.Has(schema.NotEditable{}) ||
		p.Multiple
}

// unchanged reports whether the original and update values of p are the
// same for the purpose of the model table write. Composite values are
// never walked; they are compared through their key columns afterwards.
func unchanged(m *schema.Model, p *schema.Property, ov, uv any) (bool, error) {
	if p.Multiple {
		return false, mappingErr(m, p, persist.ErrMultipleProperty)
	}
	if schema.IsNil(ov) || schema.IsNil(uv) {
		return schema.IsNil(ov) && schema.IsNil(uv), nil
	}
	oi, ui := p.ModelIndex(ov), p.ModelIndex(uv)
	if oi != ui || oi < 0 {
		return false, nil
	}
	if p.Models[oi].Primitive() {
		return valueEqual(ov, uv), nil
	}
	return false, nil
}

// valueEqual compares primitive values by their natural equality.
func valueEqual(a, b any) bool {
	if schema.IsNil(a) || schema.IsNil(b) {
		return schema.IsNil(a) && schema.IsNil(b)
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

func valuesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// filter returns the values that belong to the candidate model at index.
func filter(p *schema.Property, values []any, index int) []any {
	var vs []any
	for _, v := range values {
		if !schema.IsNil(v) && p.ModelIndex(v) == index {
			vs = append(vs, v)
		}
	}
	return vs
}
