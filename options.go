package velocypack

// UnsupportedTypeBehavior controls what the Dumper does when it meets a
// tag that has no JSON representation.
type UnsupportedTypeBehavior int

const (
	// SuppressUnsupportedTypes silently skips values that cannot be
	// represented in JSON.
	SuppressUnsupportedTypes UnsupportedTypeBehavior = iota

	// FailOnUnsupportedTypes aborts the dump with ErrUnsupportedType.
	FailOnUnsupportedTypes
)

// Options configures the Builder, the Parser and the Dumper.
type Options struct {
	// SortAttributeNames sorts object keys by their UTF-8 bytes when the
	// object is closed. Readers then locate keys by binary search.
	SortAttributeNames bool

	// CheckAttributeUniqueness rejects objects containing the same key
	// twice. It requires sorted keys.
	CheckAttributeUniqueness bool

	// BuildUnindexedArrays and BuildUnindexedObjects are accepted for
	// compatibility with producers that request compact containers. The
	// wire format written by this package is always indexed.
	BuildUnindexedArrays  bool
	BuildUnindexedObjects bool

	// UnsupportedTypeBehavior selects the Dumper's reaction to tags
	// without a JSON representation.
	UnsupportedTypeBehavior UnsupportedTypeBehavior

	// DumpUTCDates renders UTCDate values as ISO-8601 strings instead of
	// treating them as unsupported.
	DumpUTCDates bool
}

// DefaultOptions returns the options used when none are given: keys are
// sorted, uniqueness is not enforced and unsupported types are skipped.
func DefaultOptions() *Options {
	return &Options{
		SortAttributeNames: true,
	}
}
