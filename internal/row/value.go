package row

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
	KindJSON
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Value is a sealed interface over the scalar types a query can return.
// Only Null, Int, Float, String, Bool and JSON implement it.
type Value interface {
	Kind() Kind
	rowValue()
}

// Null is SQL NULL / JSON null.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) rowValue()  {}

// Int is any integral column value that fits in int64.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (Int) rowValue()  {}

// Float is any non-integral numeric column value.
type Float float64

func (Float) Kind() Kind { return KindFloat }
func (Float) rowValue()  {}

// String is a text column value. Timestamps and other textual engine types
// are rendered into a String.
type String string

func (String) Kind() Kind { return KindString }
func (String) rowValue()  {}

// Bool is a boolean column value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (Bool) rowValue()  {}

// JSON holds a nested structure (struct, list, map) as encoded JSON.
type JSON json.RawMessage

func (JSON) Kind() Kind { return KindJSON }
func (JSON) rowValue()  {}

// Row maps column names to values. Column order is not preserved; use
// Columns for a stable ordering.
type Row map[string]Value

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

// Get returns the value for col, or Null if the column is absent.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok && v != nil {
		return v
	}
	return Null{}
}

// MarshalJSON encodes the row as a JSON object with sorted keys.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Columns() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := Marshal(r[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into a Row.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = make(Row, len(raw))
	for k, v := range raw {
		val, err := Parse(v)
		if err != nil {
			return fmt.Errorf("row column %q: %w", k, err)
		}
		(*r)[k] = val
	}
	return nil
}

// Marshal encodes a single Value as JSON. A nil Value encodes as null, and
// so do non-finite floats, which JSON cannot represent.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(f)
	case String:
		return json.Marshal(string(val))
	case Bool:
		return json.Marshal(bool(val))
	case JSON:
		if len(val) == 0 {
			return []byte("null"), nil
		}
		return []byte(val), nil
	default:
		return nil, fmt.Errorf("unknown row value type: %T", v)
	}
}

// Parse decodes one JSON value. Integral numbers become Int, other numbers
// Float; objects and arrays are kept as JSON.
func Parse(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil

	case 'n':
		return Null{}, nil

	case '[', '{':
		if !json.Valid(data) {
			return nil, fmt.Errorf("invalid JSON: %s", data)
		}
		return JSON(slices.Clone(data)), nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		if i, err := n.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("number out of range: %s", n)
		}
		return Float(f), nil
	}
}

// float64er is satisfied by decimal types returned by the DuckDB driver.
type float64er interface {
	Float64() float64
}

// FromDriver converts a value produced by a database/sql driver scan into a
// Value. Unknown types fall back to their JSON encoding, then to fmt output.
func FromDriver(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case int64:
		return Int(val)
	case int:
		return Int(val)
	case int32:
		return Int(val)
	case int16:
		return Int(val)
	case int8:
		return Int(val)
	case uint8:
		return Int(val)
	case uint16:
		return Int(val)
	case uint32:
		return Int(val)
	case uint64:
		if val > math.MaxInt64 {
			return String(strconv.FormatUint(val, 10))
		}
		return Int(val)
	case uint:
		if uint64(val) > math.MaxInt64 {
			return String(strconv.FormatUint(uint64(val), 10))
		}
		return Int(val)
	case float64:
		return Float(val)
	case float32:
		return Float(val)
	case bool:
		return Bool(val)
	case string:
		return String(val)
	case []byte:
		if utf8.Valid(val) {
			return String(val)
		}
		b, _ := json.Marshal(val)
		return JSON(b)
	case time.Time:
		return String(val.Format(time.RFC3339Nano))
	case *big.Int:
		if val == nil {
			return Null{}
		}
		if val.IsInt64() {
			return Int(val.Int64())
		}
		return String(val.String())
	case float64er:
		return Float(val.Float64())
	case fmt.Stringer:
		return String(val.String())
	}

	b, err := json.Marshal(v)
	if err != nil {
		return String(fmt.Sprint(v))
	}
	return JSON(b)
}

// AsInt reads v as an integer. Floats are truncated and numeric strings are
// parsed; anything else reports false.
func AsInt(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int:
		return int64(val), true
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	case String:
		if i, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(string(val), 64); err == nil {
			return int64(f), true
		}
		return 0, false
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat reads v as a float64.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	case String:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString renders v as text. Null reports false.
func AsString(v Value) (string, bool) {
	switch val := v.(type) {
	case nil, Null:
		return "", false
	case String:
		return string(val), true
	case Int:
		return strconv.FormatInt(int64(val), 10), true
	case Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), true
	case Bool:
		return strconv.FormatBool(bool(val)), true
	case JSON:
		return string(val), true
	default:
		return "", false
	}
}
