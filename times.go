package velocypack

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dromara/carbon/v2"
)

// GetUTCDateTime returns a UTCDate payload as a time.Time in UTC.
func (s Slice) GetUTCDateTime() (time.Time, error) {
	ms, err := s.GetUTCDate()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// ParseUTCDate parses a date string into a UTCDate value. Any layout
// carbon understands is accepted.
func ParseUTCDate(s string) (Value, error) {
	c := carbon.Parse(s, "UTC")
	if c.Error != nil {
		return Value{}, errors.Wrapf(ErrTypeMismatch, "cannot parse %q as a date", s)
	}
	return NewUTCDateMillisValue(c.TimestampMilli()), nil
}

// formatUTCDate renders a millisecond timestamp as ISO-8601.
func formatUTCDate(ms int64) string {
	return carbon.CreateFromTimestampMilli(ms, "UTC").ToIso8601String()
}
