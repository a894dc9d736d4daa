package velocypack

import "github.com/cockroachdb/errors"

// Common errors returned by the Builder, the Slice reader and the Dumper.
// They are meant to be matched with errors.Is; the messages attached at the
// failure site carry the details.
var (
	// ErrContainerMismatch is returned when a call doesn't match the
	// state of the innermost open container: a non-string key, a close
	// without an open container, or a key written twice in a row.
	ErrContainerMismatch = errors.New("container mismatch")

	// ErrTypeMismatch is returned when the runtime representation of a
	// value doesn't fit its declared type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrOutOfRange is returned when a number doesn't fit the declared
	// type, e.g. a small int outside [-8, 7].
	ErrOutOfRange = errors.New("out of range")

	// ErrDuplicateAttribute is returned when uniqueness checking is
	// enabled and an object contains the same key twice.
	ErrDuplicateAttribute = errors.New("duplicate attribute name")

	// ErrInvalidUtf8 is returned by the dumper when a string payload
	// ends in the middle of a multi-byte sequence.
	ErrInvalidUtf8 = errors.New("invalid utf-8 sequence")

	// ErrSizeOverflow is returned when a value would grow past the
	// maximum supported size.
	ErrSizeOverflow = errors.New("size overflow")

	// ErrEmptyStack is returned when a result is requested while a
	// container is still open.
	ErrEmptyStack = errors.New("array or object not sealed")

	// ErrUnsupportedType is returned by the dumper for tags that have
	// no JSON representation, when it is configured to fail on them.
	ErrUnsupportedType = errors.New("unsupported type, cannot convert to JSON")

	// ErrInvalidSlice is returned when navigating bytes that are not a
	// well-formed value.
	ErrInvalidSlice = errors.New("invalid slice")
)
