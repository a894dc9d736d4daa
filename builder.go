package velocypack

import (
	"math"

	"github.com/cockroachdb/errors"
)

// maxValueSize is the largest offset the builder will address. Close and
// every reserve fail with ErrSizeOverflow beyond it.
const maxValueSize = 1 << 48

// Builder composes a value into a growing byte buffer. Values are added
// with Add and AddKeyValue; arrays and objects are opened by adding an
// array or object value (or OpenArray/OpenObject) and sealed with Close.
// When no container is open, Slice and Size expose the finished bytes.
//
// A Builder is not safe for concurrent use.
//
//	b := velocypack.NewBuilder(nil)
//	b.OpenObject()                        // b = {
//	b.AddKeyValue("a", NewDoubleValue(1)) //   "a": 1.0,
//	b.AddKeyValue("b", NewNullValue())    //   "b": null,
//	b.OpenArrayKey("e")                   //   "e": [
//	b.Add(NewDoubleValue(2.3))            //     2.3,
//	b.Add(NewStringValue("abc"))          //     "abc"
//	b.Close()                             //   ]
//	b.Close()                             // }
type Builder struct {
	opts Options

	buf   *Buffer
	stack []int   // header offset of each open container
	index [][]int // per-depth relative member offsets, kept for reuse

	// attrWritten is set inside an object when a key has been written
	// and the next add must be its value.
	attrWritten bool

	sortScratch []sortEntry
}

// NewBuilder returns an empty builder. A nil opts uses DefaultOptions.
func NewBuilder(opts *Options) *Builder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Builder{
		opts: *opts,
		buf:  NewBuffer(),
	}
}

// Clear resets the builder for reuse. Buffer capacity and per-depth index
// storage are kept to avoid reallocation.
func (b *Builder) Clear() {
	b.buf.Reset()
	b.attrWritten = false
	b.stack = b.stack[:0]
}

// Clone returns a deep copy of the builder, including its buffer and any
// open container state.
func (b *Builder) Clone() *Builder {
	nb := &Builder{
		opts:        b.opts,
		buf:         b.buf.Clone(),
		stack:       append([]int(nil), b.stack...),
		attrWritten: b.attrWritten,
	}
	nb.index = make([][]int, len(b.index))
	for i := range b.index {
		nb.index[i] = append([]int(nil), b.index[i]...)
	}
	return nb
}

// Size returns the number of bytes written. It fails while a container is
// still open.
func (b *Builder) Size() (int, error) {
	if len(b.stack) > 0 {
		return 0, errors.WithStack(ErrEmptyStack)
	}
	return b.buf.Len(), nil
}

// Bytes returns the written bytes. It fails while a container is still
// open. The slice borrows from the builder and is invalidated by any
// further mutation.
func (b *Builder) Bytes() ([]byte, error) {
	if len(b.stack) > 0 {
		return nil, errors.WithStack(ErrEmptyStack)
	}
	return b.buf.Bytes(), nil
}

// Slice returns a reader over the first value in the buffer. It fails
// while a container is still open.
func (b *Builder) Slice() (Slice, error) {
	buf, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	return Slice(buf), nil
}

// Add appends a value at the top level or inside the innermost open
// container. Inside an object, keys and values alternate: the first of a
// pair must be a string.
func (b *Builder) Add(v Value) error {
	restore, err := b.prepareAdd(v.IsString())
	if err != nil {
		return err
	}
	pos := b.buf.Len()
	if err := b.set(v); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	return nil
}

// AddKeyValue appends a key and its value to the innermost open object.
func (b *Builder) AddKeyValue(key string, v Value) error {
	restore, err := b.prepareKey()
	if err != nil {
		return err
	}
	pos := b.buf.Len()
	if err := b.set(NewStringValue(key)); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	if err := b.set(v); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	return nil
}

// OpenArray opens an array at the current position.
func (b *Builder) OpenArray() error {
	return b.Add(NewArrayValue())
}

// OpenObject opens an object at the current position.
func (b *Builder) OpenObject() error {
	return b.Add(NewObjectValue())
}

// OpenArrayKey opens an array as the value of key in the innermost open
// object.
func (b *Builder) OpenArrayKey(key string) error {
	return b.AddKeyValue(key, NewArrayValue())
}

// OpenObjectKey opens an object as the value of key in the innermost open
// object.
func (b *Builder) OpenObjectKey(key string) error {
	return b.AddKeyValue(key, NewObjectValue())
}

// AddInt appends an integer in its most compact form: values in [-8, 7]
// collapse to a single byte, all others are written as an Int in the
// fewest bytes.
func (b *Builder) AddInt(v int64) error {
	restore, err := b.prepareAdd(false)
	if err != nil {
		return err
	}
	pos := b.buf.Len()
	if err := b.appendInt(v); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	return nil
}

// AddUInt appends an unsigned integer, collapsing values below 8 to a
// single byte.
func (b *Builder) AddUInt(v uint64) error {
	restore, err := b.prepareAdd(false)
	if err != nil {
		return err
	}
	pos := b.buf.Len()
	if err := b.appendUInt64(v); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	return nil
}

// AddID appends an ID value: a uint followed by a string.
func (b *Builder) AddID(id uint64, key string) error {
	restore, err := b.prepareAdd(false)
	if err != nil {
		return err
	}
	pos := b.buf.Len()
	if err := b.reserve(1); err != nil {
		restore()
		return err
	}
	b.buf.Push(tagID)
	if err := b.set(NewUIntValue(id)); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	if err := b.set(NewStringValue(key)); err != nil {
		b.buf.Truncate(pos)
		restore()
		return err
	}
	return nil
}

// prepareAdd performs the container bookkeeping shared by all adds and
// returns a function restoring the previous bookkeeping state, so a
// failing encode leaves the builder as if the call had not happened.
func (b *Builder) prepareAdd(isString bool) (restore func(), err error) {
	if len(b.stack) == 0 {
		return func() {}, nil
	}

	tos := b.stack[len(b.stack)-1]
	h := b.buf.Bytes()[tos]
	if h < tagArraySmall || h > tagObjectLarge {
		return nil, errors.Wrap(ErrContainerMismatch, "need open array or object for add")
	}

	depth := len(b.stack) - 1
	prevLen := len(b.index[depth])
	prevAttr := b.attrWritten
	restore = func() {
		b.index[depth] = b.index[depth][:prevLen]
		b.attrWritten = prevAttr
	}

	if h >= tagObjectSmall {
		if !b.attrWritten && !isString {
			return nil, errors.Wrap(ErrContainerMismatch, "need string attribute name in object")
		}
		if !b.attrWritten {
			b.reportAdd(tos)
		}
		b.attrWritten = !b.attrWritten
	} else {
		b.reportAdd(tos)
	}
	return restore, nil
}

// prepareKey performs the bookkeeping for AddKeyValue, which writes key
// and value in one call and therefore leaves attrWritten untouched.
func (b *Builder) prepareKey() (restore func(), err error) {
	if b.attrWritten {
		return nil, errors.Wrap(ErrContainerMismatch, "attribute name already written")
	}
	if len(b.stack) == 0 {
		return nil, errors.Wrap(ErrContainerMismatch, "need open object for keyed add")
	}

	tos := b.stack[len(b.stack)-1]
	h := b.buf.Bytes()[tos]
	if h != tagObjectSmall && h != tagObjectLarge {
		return nil, errors.Wrap(ErrContainerMismatch, "need open object for keyed add")
	}

	depth := len(b.stack) - 1
	prevLen := len(b.index[depth])
	b.reportAdd(tos)
	return func() {
		b.index[depth] = b.index[depth][:prevLen]
	}, nil
}

func (b *Builder) reportAdd(base int) {
	depth := len(b.stack) - 1
	b.index[depth] = append(b.index[depth], b.buf.Len()-base)
}

func (b *Builder) reserve(n int) error {
	if b.buf.Len()+n > maxValueSize {
		return errors.Wrapf(ErrSizeOverflow, "cannot reserve %d bytes", n)
	}
	b.buf.Reserve(n)
	return nil
}

// set encodes a single value at the current append position. Compound
// values push a new frame instead of writing payload.
func (b *Builder) set(v Value) error {
	switch v.Type() {
	case TypeNull:
		if err := b.reserve(1); err != nil {
			return err
		}
		b.buf.Push(tagNull)

	case TypeBool:
		x, ok := v.V().(bool)
		if !ok {
			return errors.Wrap(ErrTypeMismatch, "must give bool for bool type")
		}
		if err := b.reserve(1); err != nil {
			return err
		}
		if x {
			b.buf.Push(tagTrue)
		} else {
			b.buf.Push(tagFalse)
		}

	case TypeDouble:
		var f float64
		switch x := v.V().(type) {
		case float64:
			f = x
		case int64:
			f = float64(x)
		case uint64:
			f = float64(x)
		default:
			return errors.Wrap(ErrTypeMismatch, "must give number for double type")
		}
		return b.appendDouble(f)

	case TypeExternal:
		p, ok := v.V().(uintptr)
		if !ok {
			return errors.Wrap(ErrTypeMismatch, "must give address for external type")
		}
		if err := b.reserve(9); err != nil {
			return err
		}
		b.buf.Push(tagExternal)
		b.appendLengthBytes(uint64(p), 8)

	case TypeSmallInt:
		var vv int64
		switch x := v.V().(type) {
		case int64:
			vv = x
		case uint64:
			vv = int64(x)
		case float64:
			vv = int64(x)
		default:
			return errors.Wrap(ErrTypeMismatch, "must give number for smallint type")
		}
		if vv < -8 || vv > 7 {
			return errors.Wrapf(ErrOutOfRange, "%d out of range of smallint", vv)
		}
		if err := b.reserve(1); err != nil {
			return err
		}
		if vv >= 0 {
			b.buf.Push(tagSmallIntBase + byte(vv))
		} else {
			b.buf.Push(tagSmallIntBase + 8 + byte(vv+8))
		}

	case TypeInt:
		var mag uint64
		positive := true
		switch x := v.V().(type) {
		case int64:
			if x >= 0 {
				mag = uint64(x)
			} else {
				mag = uint64(-x)
				positive = false
			}
		case uint64:
			if x > math.MaxInt64 {
				// lossy fallback for the signed path
				return b.appendDouble(float64(x))
			}
			mag = x
		case float64:
			vv := int64(x)
			if vv >= 0 {
				mag = uint64(vv)
			} else {
				mag = uint64(-vv)
				positive = false
			}
		default:
			return errors.Wrap(ErrTypeMismatch, "must give number for int type")
		}
		if positive {
			return b.appendUInt(mag, tagIntPosBase)
		}
		return b.appendUInt(mag, tagIntNegBase)

	case TypeUInt:
		var x uint64
		switch y := v.V().(type) {
		case uint64:
			x = y
		case int64:
			if y < 0 {
				return errors.Wrapf(ErrOutOfRange, "%d is negative, uint required", y)
			}
			x = uint64(y)
		case float64:
			if y < 0 {
				return errors.Wrapf(ErrOutOfRange, "%f is negative, uint required", y)
			}
			x = uint64(y)
		default:
			return errors.Wrap(ErrTypeMismatch, "must give number for uint type")
		}
		return b.appendUInt(x, tagUIntBase)

	case TypeUTCDate:
		ms, ok := v.V().(int64)
		if !ok {
			return errors.Wrap(ErrTypeMismatch, "must give millisecond timestamp for utc-date type")
		}
		return b.appendUTCDate(ms)

	case TypeString:
		s, ok := v.V().(string)
		if !ok {
			return errors.Wrap(ErrTypeMismatch, "must give string for string type")
		}
		return b.appendString(s)

	case TypeBinary:
		var p []byte
		switch x := v.V().(type) {
		case []byte:
			p = x
		case string:
			p = []byte(x)
		default:
			return errors.Wrap(ErrTypeMismatch, "must give bytes for binary type")
		}
		if err := b.appendUInt(uint64(len(p)), tagBinaryBase); err != nil {
			return err
		}
		if err := b.reserve(len(p)); err != nil {
			return err
		}
		b.buf.Append(p)

	case TypeArray:
		return b.openCompound(tagArraySmall)

	case TypeObject:
		return b.openCompound(tagObjectSmall)

	case TypeArangoDBID:
		if err := b.reserve(1); err != nil {
			return err
		}
		b.buf.Push(tagArangoDBID)

	case TypeID:
		return errors.Wrap(ErrTypeMismatch, "id values require AddID")

	case TypeBCD:
		return errors.Wrap(ErrTypeMismatch, "bcd is reserved and not implemented")

	default:
		return errors.Wrap(ErrTypeMismatch, "cannot set a none value")
	}

	return nil
}

func (b *Builder) appendDouble(f float64) error {
	if err := b.reserve(9); err != nil {
		return err
	}
	b.buf.Push(tagDouble)
	b.appendLengthBytes(math.Float64bits(f), 8)
	return nil
}

// appendUTCDate stores the complement+1 of the timestamp's two's
// complement form.
func (b *Builder) appendUTCDate(ms int64) error {
	if err := b.reserve(9); err != nil {
		return err
	}
	b.buf.Push(tagUTCDate)
	b.appendLengthBytes(^uint64(ms)+1, 8)
	return nil
}

func (b *Builder) appendString(s string) error {
	n := len(s)
	if n <= 127 {
		if err := b.reserve(1 + n); err != nil {
			return err
		}
		b.buf.Push(tagStringShortBase + byte(n))
	} else {
		if err := b.reserve(1 + 8 + n); err != nil {
			return err
		}
		b.buf.Push(tagStringLong)
		b.appendLengthBytes(uint64(n), 8)
	}
	b.buf.Append([]byte(s))
	return nil
}

func (b *Builder) appendUInt64(v uint64) error {
	if v < 8 {
		if err := b.reserve(1); err != nil {
			return err
		}
		b.buf.Push(tagSmallIntBase + byte(v))
		return nil
	}
	return b.appendUInt(v, tagUIntBase)
}

func (b *Builder) appendInt(v int64) error {
	if v >= 0 {
		return b.appendPosInt(uint64(v))
	}
	return b.appendNegInt(uint64(-v))
}

func (b *Builder) appendPosInt(v uint64) error {
	if v < 8 {
		if err := b.reserve(1); err != nil {
			return err
		}
		b.buf.Push(tagSmallIntBase + byte(v))
		return nil
	}
	if v > math.MaxInt64 {
		return b.appendDouble(float64(v))
	}
	return b.appendUInt(v, tagIntPosBase)
}

// appendNegInt takes the magnitude of a negative number.
func (b *Builder) appendNegInt(v uint64) error {
	if v < 9 {
		if err := b.reserve(1); err != nil {
			return err
		}
		if v == 0 {
			b.buf.Push(tagSmallIntBase)
		} else {
			b.buf.Push(tagStringShortBase - byte(v))
		}
		return nil
	}
	if v > uint64(math.MaxInt64)+1 {
		return b.appendDouble(-float64(v))
	}
	return b.appendUInt(v, tagIntNegBase)
}

// appendUInt writes base+width followed by the little-endian payload in
// the minimum number of bytes.
func (b *Builder) appendUInt(v uint64, base byte) error {
	w := uintLength(v)
	if err := b.reserve(1 + w); err != nil {
		return err
	}
	b.buf.Push(base + byte(w))
	b.appendLengthBytes(v, w)
	return nil
}

func (b *Builder) appendLengthBytes(v uint64, n int) {
	for i := 0; i < n; i++ {
		b.buf.Push(byte(v))
		v >>= 8
	}
}

// uintLength returns the number of bytes required to store v.
func uintLength(v uint64) int {
	if v <= 0xff {
		return 1
	}
	n := 0
	for v != 0 {
		n++
		v >>= 8
	}
	return n
}

// openCompound writes the container header byte plus nine reserved length
// bytes and pushes a frame. Close later picks the one- or eight-byte
// length form without shifting payload, except for the single memmove of
// the small regime.
func (b *Builder) openCompound(tag byte) error {
	if err := b.reserve(10); err != nil {
		return err
	}
	b.stack = append(b.stack, b.buf.Len())
	for len(b.index) < len(b.stack) {
		b.index = append(b.index, nil)
	}
	b.index[len(b.stack)-1] = b.index[len(b.stack)-1][:0]
	b.buf.Push(tag)
	b.buf.Grow(9)
	return nil
}

// Close seals the innermost open container: it selects the length and
// table regime, optionally sorts object keys, writes the index table and
// patches the length field.
func (b *Builder) Close() error {
	if len(b.stack) == 0 {
		return errors.Wrap(ErrContainerMismatch, "need open array or object for close")
	}
	tos := b.stack[len(b.stack)-1]
	buf := b.buf.Bytes()
	h := buf[tos]
	if h < tagArraySmall || h > tagObjectLarge {
		return errors.Wrap(ErrContainerMismatch, "need open array or object for close")
	}
	if h >= tagObjectSmall && b.attrWritten {
		return errors.Wrap(ErrContainerMismatch, "attribute name written without value")
	}

	index := b.index[len(b.stack)-1]
	pos := b.buf.Len()

	// One-byte length is possible when the member count and the whole
	// container, after giving back the eight reserved bytes, fit in 255
	// bytes. The payload then moves left and every offset shrinks by 8.
	var smallByteLength, smallTable bool
	if len(index) < 0x100 && pos-tos-8+1+2*len(index) < 0x100 {
		if pos > tos+10 {
			copy(buf[tos+2:], buf[tos+10:pos])
		}
		pos -= 8
		b.buf.Truncate(pos)
		for i := range index {
			index[i] -= 8
		}
		smallByteLength = true
		smallTable = true
	} else {
		smallTable = len(index) < 0x100 &&
			(len(index) == 0 || index[len(index)-1] < 0x10000)
	}

	tableBase := pos
	if smallTable {
		if len(index) > 0 {
			if err := b.reserve(2*len(index) + 1); err != nil {
				return err
			}
			pos = b.buf.Grow(2*len(index) + 1)
		}
		buf = b.buf.Bytes()
		// force the small container tag (0x06->0x05, 0x08->0x07)
		if buf[tos]&1 == 0 {
			buf[tos]--
		}
		if buf[tos] == tagObjectSmall && len(index) >= 2 && b.opts.SortAttributeNames {
			if err := b.sortObjectIndexShort(buf[tos:], index); err != nil {
				return err
			}
		}
		for i, off := range index {
			buf[tableBase+2*i] = byte(off)
			buf[tableBase+2*i+1] = byte(off >> 8)
		}
		// For an empty table this writes a zero over the reserved length
		// byte, which the length patch below overwrites with 2.
		buf[pos-1] = byte(len(index))
	} else {
		if err := b.reserve(8*len(index) + 8); err != nil {
			return err
		}
		pos = b.buf.Grow(8*len(index) + 8)
		buf = b.buf.Bytes()
		// force the large container tag (0x05->0x06, 0x07->0x08)
		if buf[tos]&1 == 1 {
			buf[tos]++
		}
		if buf[tos] == tagObjectLarge && len(index) >= 2 && b.opts.SortAttributeNames {
			if err := b.sortObjectIndexLong(buf[tos:], index); err != nil {
				return err
			}
		}
		x := uint64(len(index))
		for j := 0; j < 8; j++ {
			buf[pos-8+j] = byte(x)
			x >>= 8
		}
		for i, off := range index {
			y := uint64(off)
			for j := 0; j < 8; j++ {
				buf[tableBase+8*i+j] = byte(y)
				y >>= 8
			}
		}
	}

	if smallByteLength {
		buf[tos+1] = byte(pos - tos)
	} else {
		buf[tos+1] = 0x00
		x := uint64(pos - tos)
		for i := 2; i <= 9; i++ {
			buf[tos+i] = byte(x)
			x >>= 8
		}
	}

	if b.opts.CheckAttributeUniqueness && len(index) > 1 && buf[tos] >= tagObjectSmall {
		if err := checkAttributeUniqueness(Slice(buf[tos:pos])); err != nil {
			return err
		}
	}

	b.stack = b.stack[:len(b.stack)-1]
	// b.index[depth] keeps its storage for the next container
	return nil
}

// checkAttributeUniqueness walks the sorted keys of a just-closed object
// and fails on two adjacent equal keys, recursing into object values.
func checkAttributeUniqueness(obj Slice) error {
	n, err := obj.Length()
	if err != nil {
		return err
	}

	prev, err := obj.KeyAt(0)
	if err != nil {
		return err
	}
	p, err := prev.GetString()
	if err != nil {
		return err
	}

	for i := 1; i < n; i++ {
		current, err := obj.KeyAt(i)
		if err != nil {
			return err
		}
		if !current.IsString() {
			return nil
		}
		q, err := current.GetString()
		if err != nil {
			return err
		}

		if p == q {
			return errors.Wrapf(ErrDuplicateAttribute, "key %q", q)
		}
		p = q

		value, err := obj.ValueAt(i)
		if err != nil {
			return err
		}
		if value.IsObject() {
			if err := checkAttributeUniqueness(value); err != nil {
				return err
			}
		}
	}
	return nil
}
