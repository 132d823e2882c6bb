package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind tags the representation held by a Scalar.
type Kind uint8

const (
	// KindMissing marks a cell that does not exist, e.g. past the end of a ragged row.
	KindMissing Kind = iota
	KindNull
	KindString
	KindInteger
	KindFloat
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Scalar is a single cell value. The zero value is Missing.
type Scalar struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// Missing returns the missing-cell marker.
func Missing() Scalar { return Scalar{kind: KindMissing} }

// Null returns a null scalar.
func Null() Scalar { return Scalar{kind: KindNull} }

// String wraps a string value.
func String(s string) Scalar { return Scalar{kind: KindString, s: s} }

// Integer wraps an integer value.
func Integer(i int64) Scalar { return Scalar{kind: KindInteger, i: i} }

// Float wraps a floating point value.
func Float(f float64) Scalar { return Scalar{kind: KindFloat, f: f} }

// Boolean wraps a boolean value.
func Boolean(b bool) Scalar { return Scalar{kind: KindBoolean, b: b} }

// Kind returns the tag of the scalar.
func (v Scalar) Kind() Kind { return v.kind }

// IsNull reports whether the scalar is Null.
func (v Scalar) IsNull() bool { return v.kind == KindNull }

// IsMissing reports whether the scalar is the missing marker.
func (v Scalar) IsMissing() bool { return v.kind == KindMissing }

// Str returns the string payload and whether the scalar is a string.
func (v Scalar) Str() (string, bool) { return v.s, v.kind == KindString }

// Int returns the integer payload and whether the scalar is an integer.
func (v Scalar) Int() (int64, bool) { return v.i, v.kind == KindInteger }

// Flt returns the float payload and whether the scalar is a float.
func (v Scalar) Flt() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean payload and whether the scalar is a boolean.
func (v Scalar) Bool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Equal compares two scalars. Integers and floats compare numerically across
// kinds; every other pairing requires the same kind. NaN never equals NaN.
func (v Scalar) Equal(o Scalar) bool {
	switch {
	case v.kind == KindInteger && o.kind == KindFloat:
		return float64(v.i) == o.f
	case v.kind == KindFloat && o.kind == KindInteger:
		return v.f == float64(o.i)
	case v.kind != o.kind:
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBoolean:
		return v.b == o.b
	default:
		// Null == Null, Missing == Missing
		return true
	}
}

// String renders the scalar for display.
func (v Scalar) String() string {
	switch v.kind {
	case KindMissing:
		return ""
	case KindNull:
		return "null"
	case KindString:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Interface returns the scalar as a plain Go value suitable for tabular
// rendering. Null and Missing become nil; infinities and NaN become strings
// so that the value survives JSON encoding.
func (v Scalar) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInteger:
		return v.i
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return formatFloat(v.f)
		}
		return v.f
	case KindBoolean:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes the scalar as its plain JSON equivalent.
func (v Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a plain JSON value. Whole numbers become integers.
func (v *Scalar) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if n, ok := raw.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			*v = Integer(i)
			return nil
		}
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", n, err)
		}
		*v = Float(f)
		return nil
	}
	s, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = s
	return nil
}

// FromAny converts a value produced by a database driver or decoder into a Scalar.
func FromAny(x any) (Scalar, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Scalar:
		return t, nil
	case string:
		return String(t), nil
	case []byte:
		return String(string(t)), nil
	case bool:
		return Boolean(t), nil
	case int:
		return Integer(int64(t)), nil
	case int8:
		return Integer(int64(t)), nil
	case int16:
		return Integer(int64(t)), nil
	case int32:
		return Integer(int64(t)), nil
	case int64:
		return Integer(t), nil
	case uint:
		return unsigned(uint64(t)), nil
	case uint8:
		return Integer(int64(t)), nil
	case uint16:
		return Integer(int64(t)), nil
	case uint32:
		return Integer(int64(t)), nil
	case uint64:
		return unsigned(t), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Scalar{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return Float(f), nil
	case time.Time:
		return String(t.Format(time.RFC3339Nano)), nil
	case fmt.Stringer:
		return String(t.String()), nil
	default:
		return Scalar{}, fmt.Errorf("unsupported scalar type %T", x)
	}
}

func unsigned(u uint64) Scalar {
	if u > math.MaxInt64 {
		return Float(float64(u))
	}
	return Integer(int64(u))
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
