package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

// Field is a single key/value pair of a record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered, schema-less row returned by the search backend.
// Field order follows the backend payload.
type Record struct {
	fields []Field
	index  map[string]int
}

// New creates a Record from fields. A repeated key keeps the last value at its first position.
func New(fields ...Field) Record {
	r := Record{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		r.set(f.Key, f.Value)
	}
	return r
}

// Parse decodes a JSON object into a Record, preserving key order.
func Parse(raw []byte) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Record{}, fmt.Errorf("record: invalid json")
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return Record{}, fmt.Errorf("record: expected object, got %s", res.Type)
	}
	return FromResult(res), nil
}

// FromResult converts an already parsed gjson object.
func FromResult(res gjson.Result) Record {
	r := Record{index: make(map[string]int)}
	res.ForEach(func(key, value gjson.Result) bool {
		r.set(key.String(), valueOf(value))
		return true
	})
	return r
}

// valueOf decodes v like gjson.Result.Value, except that numbers are kept
// as their literal text so identifiers beyond 2^53 survive.
func valueOf(v gjson.Result) any {
	switch {
	case v.Type == gjson.Number:
		return json.Number(v.Raw)
	case v.IsArray():
		out := []any{}
		v.ForEach(func(_, e gjson.Result) bool {
			out = append(out, valueOf(e))
			return true
		})
		return out
	case v.IsObject():
		out := map[string]any{}
		v.ForEach(func(k, e gjson.Result) bool {
			out[k.String()] = valueOf(e)
			return true
		})
		return out
	default:
		return v.Value()
	}
}

func (r *Record) set(key string, value any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Get returns the raw value for key.
func (r Record) Get(key string) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// String returns the value for key rendered as text, or "" if absent.
func (r Record) String(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// Keys returns field names in payload order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

// Fields returns a copy of the fields in payload order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Canonical returns the record serialized with sorted keys.
// Two records with the same content produce identical bytes regardless of field order.
func (r Record) Canonical() []byte {
	keys := r.Keys()
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.fields[r.index[k]].Value)
		if err != nil {
			vb = []byte(strconv.Quote(fmt.Sprint(r.fields[r.index[k]].Value)))
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

// MarshalJSON encodes the record keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("record: field %q: %w", f.Key, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping field order.
func (r *Record) UnmarshalJSON(b []byte) error {
	parsed, err := Parse(b)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Stringify renders a decoded JSON value as text. Parsed numbers print as
// they appeared in the payload; float64 values print without exponent.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
