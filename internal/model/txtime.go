package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// TimePrecision tags which variant a TxTime carries.
type TimePrecision string

// Transaction time precision constants.
const (
	PrecisionDate     TimePrecision = "date"
	PrecisionDateTime TimePrecision = "datetime"
)

// Serialized forms for the two variants.
const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02T15:04:05"
)

// TxTime is the moment a transaction happened, tagged with the precision
// the source actually provided. A calendar date is never upgraded to a
// midnight timestamp: the two variants compare unequal even when their
// instants coincide.
type TxTime struct {
	instant   time.Time
	precision TimePrecision
}

// NewDate creates a date-only TxTime from the calendar date of t.
func NewDate(t time.Time) TxTime {
	y, m, d := t.Date()
	return TxTime{
		instant:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		precision: PrecisionDate,
	}
}

// NewDateTime creates a TxTime that carries a time of day.
func NewDateTime(t time.Time) TxTime {
	return TxTime{
		instant:   t,
		precision: PrecisionDateTime,
	}
}

// ParseTxTime parses a raw date-like value using a strptime-style pattern.
// The pattern decides the variant: a pattern with no time directives yields
// a date-only value.
func ParseTxTime(value, pattern string) (TxTime, error) {
	t, err := strftime.Parse(pattern, strings.TrimSpace(value))
	if err != nil {
		return TxTime{}, fmt.Errorf("failed to parse %q with pattern %q: %w", value, pattern, err)
	}

	if PatternHasTime(pattern) {
		return NewDateTime(t), nil
	}
	return NewDate(t), nil
}

// ParseISO8601 restores a TxTime from its serialized form. A bare
// "2006-01-02" string restores the date-only variant.
func ParseISO8601(value string) (TxTime, error) {
	s := strings.TrimSpace(value)

	if t, err := time.Parse(layoutDate, s); err == nil {
		return NewDate(t), nil
	}
	if t, err := time.Parse(layoutDateTime, s); err == nil {
		return NewDateTime(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDateTime(t), nil
	}

	return TxTime{}, fmt.Errorf("not an ISO-8601 date or datetime: %q", value)
}

// PatternHasTime reports whether a strptime pattern encodes a time of day.
func PatternHasTime(pattern string) bool {
	runes := []rune(pattern)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] != '%' {
			continue
		}
		switch runes[i+1] {
		case '%':
			i++ // literal percent, skip the escape
		case 'H', 'I', 'M', 'S', 'T', 'R', 'r', 'X', 'c', 'p', 'k', 'l':
			return true
		}
	}
	return false
}

// Precision returns which variant this TxTime carries.
func (t TxTime) Precision() TimePrecision {
	return t.precision
}

// IsDateOnly reports whether the source provided only a calendar date.
func (t TxTime) IsDateOnly() bool {
	return t.precision == PrecisionDate
}

// Time returns the underlying instant. For date-only values the time of day
// is not meaningful and must not be relied on.
func (t TxTime) Time() time.Time {
	return t.instant
}

// IsZero reports whether the TxTime is unset.
func (t TxTime) IsZero() bool {
	return t.precision == ""
}

// Equal reports whether two transaction times are the same value of the
// same variant. A date never equals a datetime, even at midnight.
func (t TxTime) Equal(o TxTime) bool {
	return t.precision == o.precision && t.instant.Equal(o.instant)
}

// Sub returns the duration between two transaction times.
func (t TxTime) Sub(o TxTime) time.Duration {
	return t.instant.Sub(o.instant)
}

// ISO8601 serializes the value in the form matching its variant.
func (t TxTime) ISO8601() string {
	if t.precision == PrecisionDate {
		return t.instant.Format(layoutDate)
	}
	return t.instant.Format(layoutDateTime)
}

// String implements fmt.Stringer.
func (t TxTime) String() string {
	return t.ISO8601()
}
