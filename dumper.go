package velocypack

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// jsonEscapeTable maps a byte below 0x80 to its escape letter: one of
// b t n f r for the short forms, 'u' for other control characters, or the
// byte itself for the three characters escaped verbatim. Zero means no
// escaping.
var jsonEscapeTable = func() (t [256]byte) {
	for i := 0; i < 0x20; i++ {
		t[i] = 'u'
	}
	t['\b'] = 'b'
	t['\t'] = 't'
	t['\n'] = 'n'
	t['\f'] = 'f'
	t['\r'] = 'r'
	t['"'] = '"'
	t['\\'] = '\\'
	t['/'] = '/'
	return t
}()

const hexDigits = "0123456789ABCDEF"

// Dumper renders a slice as JSON text. The output buffer is reused across
// Dump calls.
type Dumper struct {
	opts *Options
	buf  []byte
}

// NewDumper returns a dumper. A nil opts uses DefaultOptions.
func NewDumper(opts *Options) *Dumper {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Dumper{opts: opts}
}

// Dump renders s as JSON. The returned bytes are valid until the next
// Dump call.
func (d *Dumper) Dump(s Slice) ([]byte, error) {
	d.buf = d.buf[:0]
	if err := d.dumpValue(s); err != nil {
		return nil, err
	}
	return d.buf, nil
}

// ToJSON renders s as JSON with the given options.
func ToJSON(s Slice, opts *Options) (string, error) {
	buf, err := NewDumper(opts).Dump(s)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *Dumper) dumpValue(s Slice) error {
	switch s.Type() {
	case TypeNull:
		d.buf = append(d.buf, "null"...)

	case TypeBool:
		v, err := s.GetBool()
		if err != nil {
			return err
		}
		if v {
			d.buf = append(d.buf, "true"...)
		} else {
			d.buf = append(d.buf, "false"...)
		}

	case TypeDouble:
		v, err := s.GetDouble()
		if err != nil {
			return err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return d.handleUnsupported(s)
		}
		d.buf = strconv.AppendFloat(d.buf, v, 'g', -1, 64)

	case TypeInt, TypeSmallInt:
		v, err := s.GetInt()
		if err != nil {
			return err
		}
		d.buf = strconv.AppendInt(d.buf, v, 10)

	case TypeUInt:
		v, err := s.GetUInt()
		if err != nil {
			return err
		}
		d.buf = strconv.AppendUint(d.buf, v, 10)

	case TypeString:
		p, err := s.GetStringBytes()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, '"')
		if err := d.dumpString(p); err != nil {
			return err
		}
		d.buf = append(d.buf, '"')

	case TypeArray:
		n, err := s.Length()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, '[')
		for i := 0; i < n; i++ {
			if i > 0 {
				d.buf = append(d.buf, ',')
			}
			member, err := s.At(i)
			if err != nil {
				return err
			}
			if err := d.dumpValue(member); err != nil {
				return err
			}
		}
		d.buf = append(d.buf, ']')

	case TypeObject:
		n, err := s.Length()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, '{')
		for i := 0; i < n; i++ {
			if i > 0 {
				d.buf = append(d.buf, ',')
			}
			key, err := s.KeyAt(i)
			if err != nil {
				return err
			}
			if err := d.dumpValue(key); err != nil {
				return err
			}
			d.buf = append(d.buf, ':')
			value, err := s.ValueAt(i)
			if err != nil {
				return err
			}
			if err := d.dumpValue(value); err != nil {
				return err
			}
		}
		d.buf = append(d.buf, '}')

	case TypeUTCDate:
		if !d.opts.DumpUTCDates {
			return d.handleUnsupported(s)
		}
		ms, err := s.GetUTCDate()
		if err != nil {
			return err
		}
		d.buf = append(d.buf, '"')
		d.buf = append(d.buf, formatUTCDate(ms)...)
		d.buf = append(d.buf, '"')

	default:
		// None, External, ID, ArangoDB id, Binary, BCD
		return d.handleUnsupported(s)
	}

	return nil
}

// dumpString emits the raw string bytes, escaping per RFC 8259 plus the
// forward slash. Multi-byte UTF-8 sequences pass through verbatim; a
// sequence truncated by the end of the payload is an error.
func (d *Dumper) dumpString(p []byte) error {
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c&0x80 == 0:
			if esc := jsonEscapeTable[c]; esc != 0 {
				d.buf = append(d.buf, '\\', esc)
				if esc == 'u' {
					d.buf = append(d.buf, '0', '0', hexDigits[c>>4], hexDigits[c&0x0f])
				}
			} else {
				d.buf = append(d.buf, c)
			}

		case c&0xe0 == 0xc0:
			if i+1 >= len(p) {
				return errors.Wrap(ErrInvalidUtf8, "unexpected end of string")
			}
			d.buf = append(d.buf, p[i:i+2]...)
			i++

		case c&0xf0 == 0xe0:
			if i+2 >= len(p) {
				return errors.Wrap(ErrInvalidUtf8, "unexpected end of string")
			}
			d.buf = append(d.buf, p[i:i+3]...)
			i += 2

		case c&0xf8 == 0xf0:
			if i+3 >= len(p) {
				return errors.Wrap(ErrInvalidUtf8, "unexpected end of string")
			}
			d.buf = append(d.buf, p[i:i+4]...)
			i += 3
		}
	}
	return nil
}

func (d *Dumper) handleUnsupported(s Slice) error {
	if d.opts.UnsupportedTypeBehavior == SuppressUnsupportedTypes {
		return nil
	}
	return errors.Wrapf(ErrUnsupportedType, "tag 0x%02x (%s)", s.head(), s.Type())
}
