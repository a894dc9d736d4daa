package velocypack_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murphyatwork/velocypack"
)

func mustBytes(t *testing.T, b *velocypack.Builder) []byte {
	t.Helper()
	buf, err := b.Bytes()
	require.NoError(t, err)
	return buf
}

func unsorted() *velocypack.Options {
	opts := velocypack.DefaultOptions()
	opts.SortAttributeNames = false
	return opts
}

func TestBuilderPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		value velocypack.Value
		want  []byte
	}{
		{"null", velocypack.NewNullValue(), []byte{0x01}},
		{"false", velocypack.NewBoolValue(false), []byte{0x02}},
		{"true", velocypack.NewBoolValue(true), []byte{0x03}},
		{"smallint 0", velocypack.NewSmallIntValue(0), []byte{0x30}},
		{"smallint 7", velocypack.NewSmallIntValue(7), []byte{0x37}},
		{"smallint -1", velocypack.NewSmallIntValue(-1), []byte{0x3f}},
		{"smallint -8", velocypack.NewSmallIntValue(-8), []byte{0x38}},
		{"int 5", velocypack.NewIntValue(5), []byte{0x18, 0x05}},
		{"int 300", velocypack.NewIntValue(300), []byte{0x19, 0x2c, 0x01}},
		{"int -300", velocypack.NewIntValue(-300), []byte{0x21, 0x2c, 0x01}},
		{"uint 300", velocypack.NewUIntValue(300), []byte{0x29, 0x2c, 0x01}},
		{"double 2.5", velocypack.NewDoubleValue(2.5), []byte{0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x04, 0x40}},
		{"empty string", velocypack.NewStringValue(""), []byte{0x40}},
		{"string abc", velocypack.NewStringValue("abc"), []byte{0x43, 0x61, 0x62, 0x63}},
		{"binary", velocypack.NewBinaryValue([]byte{1, 2, 3}), []byte{0xc0, 0x03, 0x01, 0x02, 0x03}},
		{"arangodb id", velocypack.NewArangoDBIDValue(), []byte{0x0b}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			b := velocypack.NewBuilder(nil)
			require.NoError(t, b.Add(test.value))
			require.Equal(t, test.want, mustBytes(t, b))
		})
	}
}

func TestBuilderAddInt(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x30}},
		{7, []byte{0x37}},
		{-8, []byte{0x38}},
		{8, []byte{0x18, 0x08}},
		{-9, []byte{0x20, 0x09}},
		{1 << 16, []byte{0x1a, 0x00, 0x00, 0x01}},
	}
	for _, test := range tests {
		b := velocypack.NewBuilder(nil)
		require.NoError(t, b.AddInt(test.in))
		require.Equal(t, test.want, mustBytes(t, b), "input %d", test.in)
	}
}

func TestBuilderAddUInt(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.AddUInt(7))
	require.Equal(t, []byte{0x37}, mustBytes(t, b))

	b.Clear()
	require.NoError(t, b.AddUInt(1<<8))
	require.Equal(t, []byte{0x29, 0x00, 0x01}, mustBytes(t, b))
}

func TestBuilderLongString(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	s := strings.Repeat("x", 128)
	require.NoError(t, b.Add(velocypack.NewStringValue(s)))

	buf := mustBytes(t, b)
	require.Equal(t, byte(0x0c), buf[0])
	require.Equal(t, []byte{128, 0, 0, 0, 0, 0, 0, 0}, buf[1:9])
	require.Equal(t, s, string(buf[9:]))
	require.Len(t, buf, 9+128)
}

func TestBuilderUTCDate(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.Add(velocypack.NewUTCDateMillisValue(1)))

	// 1 is stored as its negated two's-complement form
	require.Equal(t, []byte{0x0d, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, mustBytes(t, b))

	s, err := b.Slice()
	require.NoError(t, err)
	ms, err := s.GetUTCDate()
	require.NoError(t, err)
	require.Equal(t, int64(1), ms)
}

func TestBuilderID(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.AddID(42, "key"))
	require.Equal(t, []byte{0x0a, 0x28, 0x2a, 0x43, 0x6b, 0x65, 0x79}, mustBytes(t, b))

	s, err := b.Slice()
	require.NoError(t, err)
	n, err := s.ByteSize()
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestBuilderEmptyContainers(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	require.NoError(t, b.Close())
	require.Equal(t, []byte{0x05, 0x02}, mustBytes(t, b))

	b.Clear()
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.Close())
	require.Equal(t, []byte{0x07, 0x02}, mustBytes(t, b))
}

func TestBuilderSmallArray(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, b.Add(velocypack.NewSmallIntValue(i)))
	}
	require.NoError(t, b.Close())

	require.Equal(t, []byte{
		0x05, 0x0c, // tag, one-byte length
		0x31, 0x32, 0x33, // payload
		0x02, 0x00, 0x03, 0x00, 0x04, 0x00, // two-byte offsets
		0x03, // count
	}, mustBytes(t, b))
}

func TestBuilderObjectSorted(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.AddKeyValue("b", velocypack.NewSmallIntValue(1)))
	require.NoError(t, b.AddKeyValue("a", velocypack.NewSmallIntValue(2)))
	require.NoError(t, b.Close())

	// payload stays in insertion order, the table points at "a" first
	require.Equal(t, []byte{
		0x07, 0x0d,
		0x41, 0x62, 0x31, // "b": 1
		0x41, 0x61, 0x32, // "a": 2
		0x05, 0x00, 0x02, 0x00, // offsets: "a", then "b"
		0x02,
	}, mustBytes(t, b))

	s, err := b.Slice()
	require.NoError(t, err)
	k, err := s.KeyAt(0)
	require.NoError(t, err)
	name, err := k.GetString()
	require.NoError(t, err)
	require.Equal(t, "a", name)

	v, err := s.Get("a")
	require.NoError(t, err)
	got, err := v.GetSmallInt()
	require.NoError(t, err)
	require.Equal(t, int64(2), got)
}

func TestBuilderObjectUnsortedKeepsOrder(t *testing.T) {
	b := velocypack.NewBuilder(unsorted())
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.AddKeyValue("b", velocypack.NewSmallIntValue(1)))
	require.NoError(t, b.AddKeyValue("a", velocypack.NewSmallIntValue(2)))
	require.NoError(t, b.Close())

	require.Equal(t, []byte{
		0x07, 0x0d,
		0x41, 0x62, 0x31,
		0x41, 0x61, 0x32,
		0x02, 0x00, 0x05, 0x00, // offsets in insertion order
		0x02,
	}, mustBytes(t, b))
}

func TestBuilderKeyValueAlternation(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.Add(velocypack.NewStringValue("a")))
	require.NoError(t, b.Add(velocypack.NewSmallIntValue(1)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	v, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, v.IsSmallInt())
}

func TestBuilderSortTieBreaksOnLength(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.AddKeyValue("ab", velocypack.NewSmallIntValue(1)))
	require.NoError(t, b.AddKeyValue("a", velocypack.NewSmallIntValue(2)))
	require.NoError(t, b.AddKeyValue("abc", velocypack.NewSmallIntValue(3)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	var keys []string
	n, err := s.Length()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		k, err := s.KeyAt(i)
		require.NoError(t, err)
		name, err := k.GetString()
		require.NoError(t, err)
		keys = append(keys, name)
	}
	require.Equal(t, []string{"a", "ab", "abc"}, keys)
}

func TestBuilderLargeArray(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	for i := 0; i < 256; i++ {
		require.NoError(t, b.Add(velocypack.NewSmallIntValue(int64(i%8))))
	}
	require.NoError(t, b.Close())

	buf := mustBytes(t, b)
	require.Equal(t, byte(0x06), buf[0])
	require.Equal(t, byte(0x00), buf[1])

	s := velocypack.Slice(buf)
	bs, err := s.ByteSize()
	require.NoError(t, err)
	// header 10 + payload 256 + offsets 256*8 + count 8
	require.Equal(t, 10+256+2048+8, bs)
	require.Len(t, buf, bs)

	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 256, n)

	last, err := s.At(255)
	require.NoError(t, err)
	v, err := last.GetSmallInt()
	require.NoError(t, err)
	require.Equal(t, int64(255%8), v)
}

func TestBuilderHybridArray(t *testing.T) {
	// 255 members don't fit a one-byte length anymore, but the member
	// count and offsets still fit the small table format.
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	for i := 0; i < 255; i++ {
		require.NoError(t, b.Add(velocypack.NewSmallIntValue(int64(i%8))))
	}
	require.NoError(t, b.Close())

	buf := mustBytes(t, b)
	require.Equal(t, byte(0x05), buf[0])
	require.Equal(t, byte(0x00), buf[1])

	s := velocypack.Slice(buf)
	bs, err := s.ByteSize()
	require.NoError(t, err)
	// header 10 + payload 255 + offsets 255*2 + count 1
	require.Equal(t, 10+255+510+1, bs)
	require.Len(t, buf, bs)

	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 255, n)

	last, err := s.At(254)
	require.NoError(t, err)
	v, err := last.GetSmallInt()
	require.NoError(t, err)
	require.Equal(t, int64(254%8), v)
}

func TestBuilderLargeObjectSorts(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenObject())
	// insert in reverse so sorting has work to do
	for i := 299; i >= 0; i-- {
		require.NoError(t, b.AddKeyValue(fmt.Sprintf("k%03d", i), velocypack.NewSmallIntValue(int64(i%8))))
	}
	require.NoError(t, b.Close())

	buf := mustBytes(t, b)
	require.Equal(t, byte(0x08), buf[0])

	s := velocypack.Slice(buf)
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 300, n)

	prev := ""
	for i := 0; i < n; i++ {
		k, err := s.KeyAt(i)
		require.NoError(t, err)
		name, err := k.GetString()
		require.NoError(t, err)
		require.Greater(t, name, prev)
		prev = name

		v, err := s.ValueAt(i)
		require.NoError(t, err)
		require.True(t, v.IsSmallInt())
	}
}

func TestBuilderNested(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.OpenArrayKey("list"))
	require.NoError(t, b.Add(velocypack.NewSmallIntValue(1)))
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.AddKeyValue("deep", velocypack.NewBoolValue(true)))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.NoError(t, b.AddKeyValue("name", velocypack.NewStringValue("x")))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	list, err := s.Get("list")
	require.NoError(t, err)
	require.True(t, list.IsArray())

	inner, err := list.At(1)
	require.NoError(t, err)
	deep, err := inner.Get("deep")
	require.NoError(t, err)
	v, err := deep.GetBool()
	require.NoError(t, err)
	require.True(t, v)
}

func TestBuilderDuplicateAttribute(t *testing.T) {
	opts := velocypack.DefaultOptions()
	opts.CheckAttributeUniqueness = true

	for _, keys := range [][]string{{"a", "a"}, {"b", "a", "b"}} {
		b := velocypack.NewBuilder(opts)
		require.NoError(t, b.OpenObject())
		for i, k := range keys {
			require.NoError(t, b.AddKeyValue(k, velocypack.NewSmallIntValue(int64(i))))
		}
		err := b.Close()
		require.ErrorIs(t, err, velocypack.ErrDuplicateAttribute)
	}
}

func TestBuilderUniqueKeysPass(t *testing.T) {
	opts := velocypack.DefaultOptions()
	opts.CheckAttributeUniqueness = true

	b := velocypack.NewBuilder(opts)
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.AddKeyValue("b", velocypack.NewSmallIntValue(1)))
	require.NoError(t, b.AddKeyValue("a", velocypack.NewSmallIntValue(2)))
	require.NoError(t, b.Close())
}

func TestBuilderErrors(t *testing.T) {
	t.Run("close without container", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.ErrorIs(t, b.Close(), velocypack.ErrContainerMismatch)
	})

	t.Run("non-string key", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.NoError(t, b.OpenObject())
		require.ErrorIs(t, b.Add(velocypack.NewSmallIntValue(1)), velocypack.ErrContainerMismatch)
	})

	t.Run("keyed add outside object", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.ErrorIs(t, b.AddKeyValue("a", velocypack.NewNullValue()), velocypack.ErrContainerMismatch)

		b = velocypack.NewBuilder(nil)
		require.NoError(t, b.OpenArray())
		require.ErrorIs(t, b.AddKeyValue("a", velocypack.NewNullValue()), velocypack.ErrContainerMismatch)
	})

	t.Run("size while open", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.NoError(t, b.OpenArray())
		_, err := b.Size()
		require.ErrorIs(t, err, velocypack.ErrEmptyStack)
	})

	t.Run("close with dangling key", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.NoError(t, b.OpenObject())
		require.NoError(t, b.Add(velocypack.NewStringValue("a")))
		require.ErrorIs(t, b.Close(), velocypack.ErrContainerMismatch)
	})

	t.Run("smallint out of range", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.ErrorIs(t, b.Add(velocypack.NewSmallIntValue(8)), velocypack.ErrOutOfRange)
		require.ErrorIs(t, b.Add(velocypack.NewSmallIntValue(-9)), velocypack.ErrOutOfRange)
	})

	t.Run("none value", func(t *testing.T) {
		b := velocypack.NewBuilder(nil)
		require.ErrorIs(t, b.Add(velocypack.Value{}), velocypack.ErrTypeMismatch)
	})
}

func TestBuilderFailedAddLeavesStateClean(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	require.NoError(t, b.Add(velocypack.NewSmallIntValue(1)))
	require.ErrorIs(t, b.Add(velocypack.NewSmallIntValue(99)), velocypack.ErrOutOfRange)
	require.NoError(t, b.Add(velocypack.NewSmallIntValue(2)))
	require.NoError(t, b.Close())

	s, err := b.Slice()
	require.NoError(t, err)
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestBuilderClearIsIdempotent(t *testing.T) {
	build := func(b *velocypack.Builder) {
		require.NoError(t, b.OpenObject())
		require.NoError(t, b.AddKeyValue("k", velocypack.NewStringValue("v")))
		require.NoError(t, b.Close())
	}

	reused := velocypack.NewBuilder(nil)
	require.NoError(t, reused.OpenArray())
	require.NoError(t, reused.Add(velocypack.NewSmallIntValue(3)))
	reused.Clear()
	build(reused)

	fresh := velocypack.NewBuilder(nil)
	build(fresh)

	require.Equal(t, mustBytes(t, fresh), mustBytes(t, reused))
}

func TestBuilderClone(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.OpenArray())
	require.NoError(t, b.Add(velocypack.NewSmallIntValue(1)))

	c := b.Clone()
	require.NoError(t, b.Add(velocypack.NewSmallIntValue(2)))
	require.NoError(t, b.Close())
	require.NoError(t, c.Close())

	bs, err := b.Slice()
	require.NoError(t, err)
	cs, err := c.Slice()
	require.NoError(t, err)

	bn, err := bs.Length()
	require.NoError(t, err)
	cn, err := cs.Length()
	require.NoError(t, err)
	require.Equal(t, 2, bn)
	require.Equal(t, 1, cn)
}

func TestBuilderTopLevelSequence(t *testing.T) {
	b := velocypack.NewBuilder(nil)
	require.NoError(t, b.Add(velocypack.NewNullValue()))
	require.NoError(t, b.Add(velocypack.NewBoolValue(true)))

	buf := mustBytes(t, b)
	require.Equal(t, []byte{0x01, 0x03}, buf)

	first := velocypack.Slice(buf)
	n, err := first.ByteSize()
	require.NoError(t, err)
	second := velocypack.Slice(buf[n:])
	require.True(t, second.IsBool())
}
