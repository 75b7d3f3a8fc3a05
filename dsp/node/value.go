package node

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"
)

// Kind tags the type held by a Value or Parameter.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFloat
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// ParseKind maps "float", "int" and "bool" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float", "f32":
		return KindFloat, nil
	case "int", "i32":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	default:
		return KindInvalid, fmt.Errorf("node: unknown kind %q", s)
	}
}

// Scalar is the set of types a parameter can hold.
type Scalar interface {
	float32 | int32 | bool
}

func kindOf[T Scalar]() Kind {
	var zero T
	switch any(zero).(type) {
	case float32:
		return KindFloat
	case int32:
		return KindInt
	default:
		return KindBool
	}
}

// All scalars fit in 32 bits; bits[T] and fromBits[T] reinterpret the low
// bytes of a uint32 so the same cell encoding serves every kind.
func bits[T Scalar](v T) uint32 {
	var b uint32
	*(*T)(unsafe.Pointer(&b)) = v

	return b
}

func fromBits[T Scalar](b uint32) T {
	return *(*T)(unsafe.Pointer(&b))
}

// Slot is an atomic 32-bit cell holding a T. Input fields of nodes point
// at the Slot of their parameter; the control thread stores, the audio
// thread loads.
type Slot[T Scalar] struct {
	cell atomic.Uint32
}

// Load returns the current value.
func (s *Slot[T]) Load() T {
	return fromBits[T](s.cell.Load())
}

// Store sets the current value.
func (s *Slot[T]) Store(v T) {
	s.cell.Store(bits(v))
}

// Value is a tagged union of float32, int32 and bool.
type Value struct {
	kind Kind
	bits uint32
}

// Float returns a float Value.
func Float(v float32) Value { return Value{kind: KindFloat, bits: bits(v)} }

// Int returns an int Value.
func Int(v int32) Value { return Value{kind: KindInt, bits: bits(v)} }

// Bool returns a bool Value.
func Bool(v bool) Value { return Value{kind: KindBool, bits: bits(v)} }

// ValueOf wraps a scalar.
func ValueOf[T Scalar](v T) Value {
	return Value{kind: kindOf[T](), bits: bits(v)}
}

// Kind returns the held type.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value carries a type.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Float returns the value as float32, converting from int and bool.
func (v Value) Float() float32 {
	switch v.kind {
	case KindFloat:
		return fromBits[float32](v.bits)
	case KindInt:
		return float32(fromBits[int32](v.bits))
	case KindBool:
		if fromBits[bool](v.bits) {
			return 1
		}
	}

	return 0
}

// Int returns the value as int32. Floats truncate toward zero and
// saturate; NaN maps to 0.
func (v Value) Int() int32 {
	switch v.kind {
	case KindFloat:
		return saturateInt32(float64(fromBits[float32](v.bits)))
	case KindInt:
		return fromBits[int32](v.bits)
	case KindBool:
		if fromBits[bool](v.bits) {
			return 1
		}
	}

	return 0
}

// Bool returns the value as bool; numbers are true when non-zero.
func (v Value) Bool() bool {
	switch v.kind {
	case KindFloat:
		return fromBits[float32](v.bits) != 0
	case KindInt:
		return fromBits[int32](v.bits) != 0
	case KindBool:
		return fromBits[bool](v.bits)
	}

	return false
}

// Float64 returns the value widened to float64.
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(fromBits[int32](v.bits))
	}

	return float64(v.Float())
}

// Convert returns v converted to kind.
func (v Value) Convert(kind Kind) Value {
	if v.kind == kind {
		return v
	}

	switch kind {
	case KindFloat:
		return Float(v.Float())
	case KindInt:
		return Int(v.Int())
	case KindBool:
		return Bool(v.Bool())
	default:
		return Value{}
	}
}

// String formats the value the way ParseValue reads it back.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case KindInt:
		return strconv.FormatInt(int64(v.Int()), 10)
	case KindBool:
		return strconv.FormatBool(v.Bool())
	default:
		return ""
	}
}

// ParseValue parses s as a value of the given kind.
func ParseValue(kind Kind, s string) (Value, error) {
	s = strings.TrimSpace(s)

	switch kind {
	case KindFloat:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, fmt.Errorf("node: parse float %q: %w", s, err)
		}

		return Float(float32(f)), nil
	case KindInt:
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("node: parse int %q: %w", s, err)
		}

		return Int(int32(i)), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("node: parse bool %q: %w", s, err)
		}

		return Bool(b), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrTypeMismatch, kind)
	}
}

// ValueFromAny converts a decoded JSON scalar (float64, bool, string,
// json.Number, or a Go number) into a Value of the given kind.
func ValueFromAny(kind Kind, raw any) (Value, error) {
	switch t := raw.(type) {
	case Value:
		return t.Convert(kind), nil
	case float64:
		return Float(float32(t)).convertNumber(kind, t), nil
	case float32:
		return Float(t).convertNumber(kind, float64(t)), nil
	case int:
		return Int(saturateInt32(float64(t))).Convert(kind), nil
	case int32:
		return Int(t).Convert(kind), nil
	case int64:
		return Int(saturateInt32(float64(t))).Convert(kind), nil
	case bool:
		return Bool(t).Convert(kind), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return ValueFromAny(kind, i)
		}

		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("node: parse number %q: %w", t, err)
		}

		return ValueFromAny(kind, f)
	case string:
		return ParseValue(kind, t)
	default:
		return Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrTypeMismatch, raw, kind)
	}
}

// convertNumber keeps full float64 precision when the target is int.
func (v Value) convertNumber(kind Kind, f float64) Value {
	if kind == KindInt {
		return Int(saturateInt32(f))
	}

	return v.Convert(kind)
}

// MarshalJSON encodes the value as a bare JSON number or bool.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindFloat:
		f := float64(v.Float())
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return []byte("0"), nil
		}

		return []byte(strconv.FormatFloat(f, 'g', -1, 32)), nil
	case KindInt, KindBool:
		return []byte(v.String()), nil
	default:
		return []byte("null"), nil
	}
}

func saturateInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}
