package load

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect/sql/sqlgraph"
	"github.com/syssam/persist/schema"
)

// TypeKey is the JSON member naming the model of an object. It is required
// for values of polymorphic properties.
const TypeKey = "@model"

// ErrUnknownModel is returned when decoding into a model the schema does
// not declare.
var ErrUnknownModel = errors.New("load: unknown model")

// Decode decodes a JSON object into a record of the named model. Absent and
// null members read as absent values. String values of the form "${expr}"
// decode to sqlgraph.Expr.
func (s *Schema) Decode(model string, data []byte) (*schema.Record, error) {
	m := s.Model(model)
	if m == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, model)
	}
	v, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return s.record(m, v)
}

// DecodeList decodes a JSON array of objects of the named model.
func (s *Schema) DecodeList(model string, data []byte) ([]*schema.Record, error) {
	m := s.Model(model)
	if m == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, model)
	}
	v, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	vs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("load: %s: expected an array", model)
	}
	rs := make([]*schema.Record, len(vs))
	for i, v := range vs {
		if rs[i], err = s.record(m, v); err != nil {
			return nil, fmt.Errorf("load: element %d: %w", i, err)
		}
	}
	return rs, nil
}

// Pair is an original and updated object of the same model.
type Pair struct {
	Original *schema.Record
	Update   *schema.Record
}

// DecodePairs decodes a JSON array of {"original": ..., "update": ...}
// members of the named model.
func (s *Schema) DecodePairs(model string, data []byte) ([]Pair, error) {
	var raw []struct {
		Original json.RawMessage `json:"original"`
		Update   json.RawMessage `json:"update"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("load: decode pairs: %w", err)
	}
	pairs := make([]Pair, len(raw))
	for i, r := range raw {
		var err error
		if pairs[i].Original, err = s.decodeRaw(model, r.Original); err != nil {
			return nil, fmt.Errorf("load: pair %d original: %w", i, err)
		}
		if pairs[i].Update, err = s.decodeRaw(model, r.Update); err != nil {
			return nil, fmt.Errorf("load: pair %d update: %w", i, err)
		}
	}
	return pairs, nil
}

func (s *Schema) decodeRaw(model string, data json.RawMessage) (*schema.Record, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s.Decode(model, data)
}

func unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("load: decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("load: decode json: trailing data")
	}
	return v, nil
}

func (s *Schema) record(m *schema.Model, v any) (*schema.Record, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object, got %T", m.Name, v)
	}
	r := schema.NewRecord(m.Name, nil)
	for name, v := range obj {
		if name == TypeKey {
			continue
		}
		p := m.Property(name)
		if p == nil {
			return nil, fmt.Errorf("%s: unknown property %q", m.Name, name)
		}
		if v == nil {
			continue
		}
		var (
			value any
			err   error
		)
		if p.Multiple {
			value, err = s.elements(p, v)
		} else {
			value, err = s.value(p, v)
		}
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", m.Name, name, err)
		}
		r.Set(name, value)
	}
	return r, nil
}

func (s *Schema) elements(p *schema.Property, v any) (any, error) {
	vs, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", v)
	}
	out := make([]any, 0, len(vs))
	for i, v := range vs {
		if v == nil {
			continue
		}
		e, err := s.value(p, v)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Schema) value(p *schema.Property, v any) (any, error) {
	if p.Primitive() {
		return primitive(p.Models[0], v)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	m := p.Models[0]
	name, typed := obj[TypeKey].(string)
	switch {
	case typed:
		m = nil
		for _, c := range p.Models {
			if c.Name == name {
				m = c
			}
		}
		if m == nil {
			return nil, fmt.Errorf("%w: %q is not a type of the property", persist.ErrUnknownModel, name)
		}
	case len(p.Models) > 1:
		return nil, fmt.Errorf("polymorphic value without %q", TypeKey)
	}
	return s.record(m, obj)
}

// primitive converts a decoded JSON value to the type of the primitive
// model m.
func primitive(m *schema.Model, v any) (any, error) {
	if str, ok := v.(string); ok {
		if e, ok := sqlgraph.ParseExpr(str); ok {
			return e, nil
		}
	}
	switch m {
	case schema.String:
		if str, ok := v.(string); ok {
			return str, nil
		}
	case schema.Int, schema.Int64:
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("invalid %s %s", m.Name, n)
			}
			if m == schema.Int {
				if i > math.MaxInt || i < math.MinInt {
					return nil, fmt.Errorf("%s overflows int", n)
				}
				return int(i), nil
			}
			return i, nil
		}
	case schema.Float64:
		if n, ok := v.(json.Number); ok {
			return n.Float64()
		}
	case schema.Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.Time:
		if str, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, str)
			if err != nil {
				return nil, fmt.Errorf("invalid time %q: %w", str, err)
			}
			return t, nil
		}
	case schema.Bytes:
		if str, ok := v.(string); ok {
			return base64.StdEncoding.DecodeString(str)
		}
	default:
		return nil, fmt.Errorf("%w: primitive %q", persist.ErrUnknownModel, m.Name)
	}
	return nil, fmt.Errorf("expected %s, got %T", m.Name, v)
}
