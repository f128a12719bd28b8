package timefit

import (
	"errors"
	"fmt"
	"math"
	"time"
)

type (
	// InvalidKindError indicates a start/stop value was not a recognized
	// timestamp representation
	InvalidKindError struct {
		Value any
	}
)

var (
	// ErrNoRoom indicates a candidate cannot be placed without collapsing
	// to a non-positive-length range
	ErrNoRoom = errors.New("no room left in timeline")

	// ErrMixedAwareness indicates a zone-naive timestamp was supplied
	// with no fallback zone to resolve it against zone-aware values
	ErrMixedAwareness = errors.New(
		"zone-naive timestamp without a fallback zone")
)

// Layouts tried, most to least specific, when parsing timestamp text.
// The zoned layouts are attempted first so an explicit offset always wins
// over the fallback zone
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05Z07:00",
	}

	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("not a supported timestamp type: %T", e.Value)
}

// Normalize converts a heterogeneous timestamp representation into a
// canonical time.Time. Accepted kinds are time.Time (passed through
// unchanged), integers and floats (Unix epoch seconds, zoned to the
// fallback zone or UTC), and ISO-8601 text. Text carrying no zone offset
// takes the fallback zone; with a nil fallback it fails with
// ErrMixedAwareness since the result could not be compared against
// zone-aware values. Anything else fails with *InvalidKindError
func Normalize(value any, fallback *time.Location) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v == nil {
			return time.Time{}, &InvalidKindError{Value: value}
		}
		return *v, nil
	case int:
		return epochToTime(int64(v), 0, fallback), nil
	case int32:
		return epochToTime(int64(v), 0, fallback), nil
	case int64:
		return epochToTime(v, 0, fallback), nil
	case float32:
		return floatToTime(float64(v), fallback), nil
	case float64:
		return floatToTime(v, fallback), nil
	case string:
		return parseTimestamp(v, fallback)
	default:
		return time.Time{}, &InvalidKindError{Value: value}
	}
}

func epochToTime(sec, nsec int64, fallback *time.Location) time.Time {
	if fallback == nil {
		fallback = time.UTC
	}
	return time.Unix(sec, nsec).In(fallback)
}

func floatToTime(epoch float64, fallback *time.Location) time.Time {
	sec := math.Floor(epoch)
	nsec := int64(math.Round((epoch - sec) * 1e9))
	return epochToTime(int64(sec), nsec, fallback)
}

func parseTimestamp(s string, fallback *time.Location) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, orUTC(fallback)); err == nil {
			if fallback == nil {
				return time.Time{}, ErrMixedAwareness
			}
			return t, nil
		}
	}
	return time.Time{}, &InvalidKindError{Value: s}
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
