package commonModels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type MetaKind uint8

const (
	MetaNull MetaKind = iota
	MetaString
	MetaNumber
	MetaBool
	MetaMap
)

// MetaValue is a metadata value: null, string, number, bool or a nested map.
type MetaValue struct {
	kind MetaKind
	str  string
	num  float64
	b    bool
	m    Metadata
}

type Metadata map[string]MetaValue

func Null() MetaValue              { return MetaValue{kind: MetaNull} }
func String(s string) MetaValue    { return MetaValue{kind: MetaString, str: s} }
func Number(f float64) MetaValue   { return MetaValue{kind: MetaNumber, num: f} }
func Int(i int) MetaValue          { return Number(float64(i)) }
func Bool(b bool) MetaValue        { return MetaValue{kind: MetaBool, b: b} }
func Map(m Metadata) MetaValue     { return MetaValue{kind: MetaMap, m: m} }
func (v MetaValue) Kind() MetaKind { return v.kind }
func (v MetaValue) IsNull() bool   { return v.kind == MetaNull }

func (v MetaValue) AsString() (string, bool)  { return v.str, v.kind == MetaString }
func (v MetaValue) AsNumber() (float64, bool) { return v.num, v.kind == MetaNumber }
func (v MetaValue) AsBool() (bool, bool)      { return v.b, v.kind == MetaBool }
func (v MetaValue) AsMap() (Metadata, bool)   { return v.m, v.kind == MetaMap }

// Interface converts the value to the untyped form used by JSON encoders and
// payload builders.
func (v MetaValue) Interface() any {
	switch v.kind {
	case MetaString:
		return v.str
	case MetaNumber:
		return v.num
	case MetaBool:
		return v.b
	case MetaMap:
		return v.m.ToMap()
	default:
		return nil
	}
}

// String renders scalars plainly and maps as JSON.
func (v MetaValue) String() string {
	switch v.kind {
	case MetaString:
		return v.str
	case MetaNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case MetaBool:
		return strconv.FormatBool(v.b)
	case MetaMap:
		data, _ := json.Marshal(v.m)
		return string(data)
	default:
		return ""
	}
}

// FromAny converts a decoded JSON value. Arrays have no metadata form and are kept
// as their JSON text.
func FromAny(x any) (MetaValue, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Null(), err
		}
		return Number(f), nil
	case map[string]any:
		m, err := MetadataFromMap(t)
		if err != nil {
			return Null(), err
		}
		return Map(m), nil
	case Metadata:
		return Map(t), nil
	case MetaValue:
		return t, nil
	case []any:
		data, err := json.Marshal(t)
		if err != nil {
			return Null(), err
		}
		return String(string(data)), nil
	default:
		return Null(), fmt.Errorf("unsupported metadata value of type %T", x)
	}
}

func MetadataFromMap(in map[string]any) (Metadata, error) {
	out := make(Metadata, len(in))
	for k, raw := range in {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func (m Metadata) ToMap() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Interface()
	}
	return out
}

// Clone copies the top level; nested maps are shared since values are never mutated.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(normalizeNumbers(raw))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func normalizeNumbers(x any) any {
	switch t := x.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, v := range t {
			t[k] = normalizeNumbers(v)
		}
		return t
	case []any:
		for i, v := range t {
			t[i] = normalizeNumbers(v)
		}
		return t
	default:
		return x
	}
}
