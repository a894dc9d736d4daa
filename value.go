package velocypack

import "time"

// Value carries a logical type together with one of a small set of runtime
// representations (bool, int64, uint64, float64, string, []byte, uintptr).
// The Builder dispatches over both when encoding, so e.g. an int64 can be
// handed to a Double-typed value and is converted on the way in.
type Value struct {
	t Type
	v any
}

// Type returns the declared logical type.
func (v Value) Type() Type {
	return v.t
}

// V returns the runtime representation.
func (v Value) V() any {
	return v.v
}

// IsString reports whether the value carries a string representation. The
// Builder uses it to validate object keys.
func (v Value) IsString() bool {
	_, ok := v.v.(string)
	return ok && v.t == TypeString
}

// NewValue returns a value whose logical type is inferred from the Go type
// of x. Integers map to Int, strings to String, byte slices to Binary.
func NewValue(x any) Value {
	switch x := x.(type) {
	case nil:
		return NewNullValue()
	case bool:
		return NewBoolValue(x)
	case int:
		return NewIntValue(int64(x))
	case int64:
		return NewIntValue(x)
	case uint64:
		return NewUIntValue(x)
	case float64:
		return NewDoubleValue(x)
	case string:
		return NewStringValue(x)
	case []byte:
		return NewBinaryValue(x)
	case time.Time:
		return NewUTCDateValue(x)
	}

	return Value{t: TypeNone}
}

func NewNullValue() Value {
	return Value{t: TypeNull}
}

func NewBoolValue(b bool) Value {
	return Value{t: TypeBool, v: b}
}

func NewDoubleValue(f float64) Value {
	return Value{t: TypeDouble, v: f}
}

func NewIntValue(i int64) Value {
	return Value{t: TypeInt, v: i}
}

func NewUIntValue(u uint64) Value {
	return Value{t: TypeUInt, v: u}
}

func NewSmallIntValue(i int64) Value {
	return Value{t: TypeSmallInt, v: i}
}

func NewStringValue(s string) Value {
	return Value{t: TypeString, v: s}
}

func NewBinaryValue(b []byte) Value {
	return Value{t: TypeBinary, v: b}
}

// NewUTCDateValue stores t as a signed millisecond timestamp.
func NewUTCDateValue(t time.Time) Value {
	return Value{t: TypeUTCDate, v: t.UnixMilli()}
}

// NewUTCDateMillisValue stores a raw millisecond timestamp.
func NewUTCDateMillisValue(ms int64) Value {
	return Value{t: TypeUTCDate, v: ms}
}

// NewExternalValue stores an in-process address. The encoded form is not
// portable across processes.
func NewExternalValue(p uintptr) Value {
	return Value{t: TypeExternal, v: p}
}

// NewArrayValue opens an array when added to a Builder.
func NewArrayValue() Value {
	return Value{t: TypeArray}
}

// NewObjectValue opens an object when added to a Builder.
func NewObjectValue() Value {
	return Value{t: TypeObject}
}

func NewArangoDBIDValue() Value {
	return Value{t: TypeArangoDBID}
}
