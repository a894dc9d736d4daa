package velocypack

import (
	"bytes"
	"math"

	"github.com/cockroachdb/errors"
)

// Slice is a read-only view over an encoded value. It navigates the bytes
// in place; nothing is copied until a getter asks for payload.
type Slice []byte

// readUintLE reads an n-byte little-endian unsigned integer.
func readUintLE(b []byte, n int) uint64 {
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func (s Slice) head() byte {
	if len(s) == 0 {
		return tagNone
	}
	return s[0]
}

// Type returns the logical type of the value.
func (s Slice) Type() Type {
	return typeOfTag(s.head())
}

func (s Slice) IsNull() bool     { return s.Type() == TypeNull }
func (s Slice) IsBool() bool     { return s.Type() == TypeBool }
func (s Slice) IsDouble() bool   { return s.Type() == TypeDouble }
func (s Slice) IsArray() bool    { return s.Type() == TypeArray }
func (s Slice) IsObject() bool   { return s.Type() == TypeObject }
func (s Slice) IsString() bool   { return s.Type() == TypeString }
func (s Slice) IsInt() bool      { return s.Type() == TypeInt }
func (s Slice) IsUInt() bool     { return s.Type() == TypeUInt }
func (s Slice) IsSmallInt() bool { return s.Type() == TypeSmallInt }
func (s Slice) IsBinary() bool   { return s.Type() == TypeBinary }
func (s Slice) IsUTCDate() bool  { return s.Type() == TypeUTCDate }

// IsNumber reports whether the value is one of the integer or double
// types.
func (s Slice) IsNumber() bool {
	switch s.Type() {
	case TypeInt, TypeUInt, TypeSmallInt, TypeDouble:
		return true
	}
	return false
}

func (s Slice) mustLen(n int) error {
	if len(s) < n {
		return errors.Wrapf(ErrInvalidSlice, "need %d bytes, have %d", n, len(s))
	}
	return nil
}

// ByteSize returns the total encoded size of the value, header included.
func (s Slice) ByteSize() (int, error) {
	if err := s.mustLen(1); err != nil {
		return 0, err
	}
	c := s[0]

	switch {
	case c == tagNull || c == tagFalse || c == tagTrue || c == tagArangoDBID:
		return 1, nil

	case c >= tagSmallIntBase && c <= tagSmallIntBase+0x0f:
		return 1, nil

	case c == tagDouble || c == tagUTCDate || c == tagExternal:
		return 9, nil

	case c >= tagArraySmall && c <= tagObjectLarge:
		if err := s.mustLen(2); err != nil {
			return 0, err
		}
		if s[1] != 0 {
			return int(s[1]), nil
		}
		if err := s.mustLen(10); err != nil {
			return 0, err
		}
		return int(readUintLE(s[2:], 8)), nil

	case c == tagID:
		// a uint followed by a string
		inner, err := Slice(s[1:]).ByteSize()
		if err != nil {
			return 0, err
		}
		str, err := Slice(s[1+inner:]).ByteSize()
		if err != nil {
			return 0, err
		}
		return 1 + inner + str, nil

	case c == tagStringLong:
		if err := s.mustLen(9); err != nil {
			return 0, err
		}
		return 9 + int(readUintLE(s[1:], 8)), nil

	case c > tagIntPosBase && c <= tagIntPosBase+8:
		return 1 + int(c-tagIntPosBase), nil

	case c > tagIntNegBase && c <= tagIntNegBase+8:
		return 1 + int(c-tagIntNegBase), nil

	case c > tagUIntBase && c <= tagUIntBase+8:
		return 1 + int(c-tagUIntBase), nil

	case c >= tagStringShortBase && c <= tagStringShortBase+127:
		return 1 + int(c-tagStringShortBase), nil

	case c > tagBinaryBase && c <= tagBinaryBase+8:
		w := int(c - tagBinaryBase)
		if err := s.mustLen(1 + w); err != nil {
			return 0, err
		}
		return 1 + w + int(readUintLE(s[1:], w)), nil
	}

	return 0, errors.Wrapf(ErrInvalidSlice, "cannot compute byte size of tag 0x%02x", c)
}

// Length returns the number of members of an array, or of key/value pairs
// of an object.
func (s Slice) Length() (int, error) {
	if !s.IsArray() && !s.IsObject() {
		return 0, errors.Wrap(ErrTypeMismatch, "length requires an array or object")
	}
	bs, err := s.ByteSize()
	if err != nil {
		return 0, err
	}
	if bs == 2 {
		// empty container, no count byte
		return 0, nil
	}
	if err := s.mustLen(bs); err != nil {
		return 0, err
	}
	if s[0]&1 == 1 {
		return int(s[bs-1]), nil
	}
	return int(readUintLE(s[bs-8:], 8)), nil
}

// memberOffset returns the relative offset of member i from the index
// table. Readers rely on the table, never on payload order.
func (s Slice) memberOffset(i int) (int, error) {
	bs, err := s.ByteSize()
	if err != nil {
		return 0, err
	}
	n, err := s.Length()
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= n {
		return 0, errors.Wrapf(ErrOutOfRange, "index %d out of bounds (%d members)", i, n)
	}
	if s[0]&1 == 1 {
		base := bs - 1 - 2*n
		return int(readUintLE(s[base+2*i:], 2)), nil
	}
	base := bs - 8 - 8*n
	return int(readUintLE(s[base+8*i:], 8)), nil
}

// At returns member i of an array.
func (s Slice) At(i int) (Slice, error) {
	if !s.IsArray() {
		return nil, errors.Wrap(ErrTypeMismatch, "at requires an array")
	}
	off, err := s.memberOffset(i)
	if err != nil {
		return nil, err
	}
	if err := s.mustLen(off + 1); err != nil {
		return nil, err
	}
	return s[off:], nil
}

// KeyAt returns the key of pair i of an object.
func (s Slice) KeyAt(i int) (Slice, error) {
	if !s.IsObject() {
		return nil, errors.Wrap(ErrTypeMismatch, "keyAt requires an object")
	}
	off, err := s.memberOffset(i)
	if err != nil {
		return nil, err
	}
	if err := s.mustLen(off + 1); err != nil {
		return nil, err
	}
	return s[off:], nil
}

// ValueAt returns the value of pair i of an object. The value is stored
// directly behind its key.
func (s Slice) ValueAt(i int) (Slice, error) {
	key, err := s.KeyAt(i)
	if err != nil {
		return nil, err
	}
	ks, err := key.ByteSize()
	if err != nil {
		return nil, err
	}
	return key[ks:], nil
}

// Get returns the value stored under the given key, or a None slice when
// the key is not present. The index table is bisected first; a table
// written in source order falls back to a linear scan.
func (s Slice) Get(key string) (Slice, error) {
	n, err := s.Length()
	if err != nil {
		return nil, err
	}

	kb := []byte(key)
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		k, err := s.KeyAt(mid)
		if err != nil {
			return nil, err
		}
		ks, err := k.GetStringBytes()
		if err != nil {
			// non-string key slot, the table cannot be bisected
			break
		}
		switch c := bytes.Compare(ks, kb); {
		case c == 0:
			return s.ValueAt(mid)
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}

	for i := 0; i < n; i++ {
		k, err := s.KeyAt(i)
		if err != nil {
			return nil, err
		}
		ks, err := k.GetString()
		if err != nil {
			return nil, err
		}
		if ks == key {
			return s.ValueAt(i)
		}
	}
	return Slice(nil), nil
}

// GetBool returns a boolean payload.
func (s Slice) GetBool() (bool, error) {
	switch s.head() {
	case tagTrue:
		return true, nil
	case tagFalse:
		return false, nil
	}
	return false, errors.Wrapf(ErrTypeMismatch, "not a bool: %s", s.Type())
}

// GetDouble returns a double payload.
func (s Slice) GetDouble() (float64, error) {
	if s.head() != tagDouble {
		return 0, errors.Wrapf(ErrTypeMismatch, "not a double: %s", s.Type())
	}
	if err := s.mustLen(9); err != nil {
		return 0, err
	}
	return math.Float64frombits(readUintLE(s[1:], 8)), nil
}

// GetInt returns the payload of an Int or SmallInt value.
func (s Slice) GetInt() (int64, error) {
	c := s.head()
	switch {
	case c > tagIntPosBase && c <= tagIntPosBase+8:
		w := int(c - tagIntPosBase)
		if err := s.mustLen(1 + w); err != nil {
			return 0, err
		}
		v := readUintLE(s[1:], w)
		if v > math.MaxInt64 {
			return 0, errors.Wrap(ErrOutOfRange, "int payload exceeds signed range")
		}
		return int64(v), nil
	case c > tagIntNegBase && c <= tagIntNegBase+8:
		w := int(c - tagIntNegBase)
		if err := s.mustLen(1 + w); err != nil {
			return 0, err
		}
		v := readUintLE(s[1:], w)
		if v > 1<<63 {
			return 0, errors.Wrap(ErrOutOfRange, "int payload exceeds signed range")
		}
		return -int64(v), nil
	case c >= tagSmallIntBase && c <= tagSmallIntBase+0x0f:
		return s.GetSmallInt()
	}
	return 0, errors.Wrapf(ErrTypeMismatch, "not an int: %s", s.Type())
}

// GetUInt returns the payload of a UInt value.
func (s Slice) GetUInt() (uint64, error) {
	c := s.head()
	if c <= tagUIntBase || c > tagUIntBase+8 {
		return 0, errors.Wrapf(ErrTypeMismatch, "not a uint: %s", s.Type())
	}
	w := int(c - tagUIntBase)
	if err := s.mustLen(1 + w); err != nil {
		return 0, err
	}
	return readUintLE(s[1:], w), nil
}

// GetSmallInt returns the payload of a single-byte integer.
func (s Slice) GetSmallInt() (int64, error) {
	c := s.head()
	if c >= tagSmallIntBase && c <= tagSmallIntBase+7 {
		return int64(c - tagSmallIntBase), nil
	}
	if c >= tagSmallIntBase+8 && c <= tagSmallIntBase+0x0f {
		return int64(c) - int64(tagStringShortBase), nil
	}
	return 0, errors.Wrapf(ErrTypeMismatch, "not a smallint: %s", s.Type())
}

// GetString returns a string payload.
func (s Slice) GetString() (string, error) {
	b, err := s.GetStringBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetStringBytes returns a string payload without copying. The bytes
// borrow from the slice.
func (s Slice) GetStringBytes() ([]byte, error) {
	c := s.head()
	if c >= tagStringShortBase && c <= tagStringShortBase+127 {
		l := int(c - tagStringShortBase)
		if err := s.mustLen(1 + l); err != nil {
			return nil, err
		}
		return s[1 : 1+l], nil
	}
	if c == tagStringLong {
		if err := s.mustLen(9); err != nil {
			return nil, err
		}
		l := int(readUintLE(s[1:], 8))
		if err := s.mustLen(9 + l); err != nil {
			return nil, err
		}
		return s[9 : 9+l], nil
	}
	return nil, errors.Wrapf(ErrTypeMismatch, "not a string: %s", s.Type())
}

// GetUTCDate returns the millisecond timestamp of a UTCDate value.
func (s Slice) GetUTCDate() (int64, error) {
	if s.head() != tagUTCDate {
		return 0, errors.Wrapf(ErrTypeMismatch, "not a utc-date: %s", s.Type())
	}
	if err := s.mustLen(9); err != nil {
		return 0, err
	}
	// stored complement+1, i.e. the negated two's-complement form
	return -int64(readUintLE(s[1:], 8)), nil
}

// GetBinary returns the payload of a Binary value without copying.
func (s Slice) GetBinary() ([]byte, error) {
	c := s.head()
	if c <= tagBinaryBase || c > tagBinaryBase+8 {
		return nil, errors.Wrapf(ErrTypeMismatch, "not a binary: %s", s.Type())
	}
	w := int(c - tagBinaryBase)
	if err := s.mustLen(1 + w); err != nil {
		return nil, err
	}
	l := int(readUintLE(s[1:], w))
	if err := s.mustLen(1 + w + l); err != nil {
		return nil, err
	}
	return s[1+w : 1+w+l], nil
}

// GetExternal returns the in-process address stored in an External value.
func (s Slice) GetExternal() (uintptr, error) {
	if s.head() != tagExternal {
		return 0, errors.Wrapf(ErrTypeMismatch, "not an external: %s", s.Type())
	}
	if err := s.mustLen(9); err != nil {
		return 0, err
	}
	return uintptr(readUintLE(s[1:], 8)), nil
}
