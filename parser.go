package velocypack

import (
	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
)

// Parser reads JSON text and drives a Builder with it. Integers that fit
// an int64 are stored as integers, everything else numeric becomes a
// double, matching what JSON producers expect of a superset format.
type Parser struct {
	builder *Builder
}

// NewParser returns a parser feeding a fresh builder. A nil opts uses
// DefaultOptions.
func NewParser(opts *Options) *Parser {
	return &Parser{builder: NewBuilder(opts)}
}

// Parse appends the JSON value in data to the builder. It can be called
// repeatedly to build a sequence of top-level values.
func (p *Parser) Parse(data []byte) error {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return errors.Wrap(err, "invalid json")
	}
	return p.parseValue(value, dataType)
}

// Builder returns the builder fed by this parser.
func (p *Parser) Builder() *Builder {
	return p.builder
}

// Slice returns a reader over the parsed value.
func (p *Parser) Slice() (Slice, error) {
	return p.builder.Slice()
}

// FromJSON parses a single JSON document into its encoded form.
func FromJSON(data []byte, opts *Options) (Slice, error) {
	p := NewParser(opts)
	if err := p.Parse(data); err != nil {
		return nil, err
	}
	return p.Slice()
}

func (p *Parser) parseValue(data []byte, dataType jsonparser.ValueType) error {
	switch dataType {
	case jsonparser.Null:
		return p.builder.Add(NewNullValue())

	case jsonparser.Boolean:
		v, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return err
		}
		return p.builder.Add(NewBoolValue(v))

	case jsonparser.Number:
		i, err := jsonparser.ParseInt(data)
		if err != nil {
			// a fraction, an exponent or too big for an int64, try a
			// floating point number
			f, err := jsonparser.ParseFloat(data)
			if err != nil {
				return err
			}
			return p.builder.Add(NewDoubleValue(f))
		}
		return p.builder.AddInt(i)

	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return err
		}
		return p.builder.Add(NewStringValue(s))

	case jsonparser.Array:
		if err := p.builder.OpenArray(); err != nil {
			return err
		}
		var inner error
		_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			inner = p.parseValue(value, dataType)
		})
		if err != nil {
			return err
		}
		if inner != nil {
			return inner
		}
		return p.builder.Close()

	case jsonparser.Object:
		if err := p.builder.OpenObject(); err != nil {
			return err
		}
		err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
			k, err := jsonparser.ParseString(key)
			if err != nil {
				return err
			}
			if err := p.builder.Add(NewStringValue(k)); err != nil {
				return err
			}
			return p.parseValue(value, dataType)
		})
		if err != nil {
			return err
		}
		return p.builder.Close()
	}

	return errors.Wrapf(ErrTypeMismatch, "unexpected json value of type %s", dataType)
}
