package sqlgraph

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/schema"
)

// Expr is a raw SQL expression used as a property value. The engines
// evaluate it with "SELECT <expr>" before writing and store the result in
// the object, so later writes see the resolved value.
//
//	account.Set("updatedAt", sqlgraph.Expr("CURRENT_TIMESTAMP"))
type Expr string

// ParseExpr reports whether s has the form "${expr}" and returns the
// enclosed expression.
func ParseExpr(s string) (Expr, bool) {
	if len(s) < 3 || !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return "", false
	}
	e := strings.TrimSpace(s[2 : len(s)-1])
	if e == "" {
		return "", false
	}
	return Expr(e), true
}

func (e Expr) String() string { return "${" + string(e) + "}" }

// eval evaluates e once per session and converts the result to the type of
// the primitive model t.
func (s *session) eval(t *schema.Model, e Expr) (any, error) {
	v, ok := s.memo[string(e)]
	if !ok {
		var err error
		v, err = sql.QueryScalar(s.ctx, s.ex, s.builder().SQL("SELECT ").SQL(string(e)))
		if err != nil {
			return nil, fmt.Errorf("sqlgraph: evaluate %s: %w", e, err)
		}
		s.memo[string(e)] = v
	}
	if t == nil || !t.Primitive() {
		return v, nil
	}
	return convert(v, t.Type)
}

// resolve evaluates the expression values of the single primitive
// properties of obj in place.
func (s *session) resolve(m *schema.Model, obj any, ignore string) error {
	for _, p := range m.Properties {
		if p.Name == ignore || p.Multiple || !p.Primitive() {
			continue
		}
		e, ok := m.Get(obj, p.Name).(Expr)
		if !ok {
			continue
		}
		v, err := s.eval(p.Models[0], e)
		if err != nil {
			return mappingErr(m, p, err)
		}
		m.Set(obj, p.Name, v)
	}
	return nil
}

// resolveValue evaluates v when it is an expression for a primitive model.
func (s *session) resolveValue(t *schema.Model, v any) (any, error) {
	e, ok := v.(Expr)
	if !ok || !t.Primitive() {
		return v, nil
	}
	return s.eval(t, e)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// convert converts a scanned database value to t.
func convert(v any, t reflect.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok && t != reflect.TypeOf([]byte(nil)) {
		v = string(b)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return v, nil
	}
	if t == reflect.TypeOf(time.Time{}) {
		if s, ok := v.(string); ok {
			for _, layout := range timeLayouts {
				if tm, err := time.Parse(layout, s); err == nil {
					return tm, nil
				}
			}
		}
		return nil, fmt.Errorf("sqlgraph: cannot convert %T to time", v)
	}
	if s, ok := v.(string); ok {
		return parse(s, t)
	}
	switch k := t.Kind(); {
	case k == reflect.String:
		return reflect.ValueOf(fmt.Sprint(v)).Convert(t).Interface(), nil
	case k == reflect.Bool && rv.CanInt():
		return reflect.ValueOf(rv.Int() != 0).Convert(t).Interface(), nil
	case k == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		return reflect.ValueOf([]byte(fmt.Sprint(v))).Convert(t).Interface(), nil
	case numeric(k) && numeric(rv.Kind()):
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("sqlgraph: cannot convert %T to %s", v, t)
}

func parse(s string, t reflect.Type) (any, error) {
	var (
		v   any
		err error
	)
	switch t.Kind() {
	case reflect.String:
		v = s
	case reflect.Slice:
		v = []byte(s)
	case reflect.Bool:
		v, err = strconv.ParseBool(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err = strconv.ParseInt(s, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err = strconv.ParseUint(s, 10, 64)
	case reflect.Float32, reflect.Float64:
		v, err = strconv.ParseFloat(s, 64)
	default:
		return nil, fmt.Errorf("sqlgraph: cannot convert string to %s", t)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlgraph: convert %q to %s: %w", s, t, err)
	}
	return reflect.ValueOf(v).Convert(t).Interface(), nil
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
