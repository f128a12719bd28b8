package timefit

import (
	"fmt"
	"time"
)

type (
	// TimeRange is a half-open interval [Start, Stop). A TimeRange is
	// valid when Start precedes Stop; invalid ranges are skipped as
	// timeline occupants and never returned by the fitter
	TimeRange struct {
		Start time.Time
		Stop  time.Time
	}

	// Timeline is an ordered sequence of events. Earlier entries take
	// priority over later ones when the fitter resolves overlaps.
	// Entries may be any mix of string-keyed maps, structs, struct
	// pointers, and raw TimeRange values
	Timeline []any

	// Direction is the sort order assumed for a timeline during ordered
	// insertion
	Direction int

	// SortField selects which field designator keys a timeline's sort
	// order
	SortField int
)

const (
	// Ascending sorts a timeline from earliest to latest
	Ascending Direction = iota

	// Descending sorts a timeline from latest to earliest
	Descending
)

const (
	// SortByStart keys timeline order on the start designator
	SortByStart SortField = iota

	// SortByStop keys timeline order on the stop designator
	SortByStop
)

// NewTimeRange returns the range [start, stop)
func NewTimeRange(start, stop time.Time) TimeRange {
	return TimeRange{Start: start, Stop: stop}
}

// Valid reports whether the range is non-empty and forward-directed
func (r TimeRange) Valid() bool {
	return r.Start.Before(r.Stop)
}

// Duration returns the length of the range
func (r TimeRange) Duration() time.Duration {
	return r.Stop.Sub(r.Start)
}

// Overlaps reports whether two half-open ranges share any instant
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.Stop) && other.Start.Before(r.Stop)
}

// Contains reports whether the range fully encloses other
func (r TimeRange) Contains(other TimeRange) bool {
	return !r.Start.After(other.Start) && !r.Stop.Before(other.Stop)
}

// Equal compares two ranges for instant equality
func (r TimeRange) Equal(other TimeRange) bool {
	return r.Start.Equal(other.Start) && r.Stop.Equal(other.Stop)
}

// Before orders ranges lexicographically on start then stop, making a
// fitted result usable directly as a sort key
func (r TimeRange) Before(other TimeRange) bool {
	if !r.Start.Equal(other.Start) {
		return r.Start.Before(other.Start)
	}
	return r.Stop.Before(other.Stop)
}

// Pair returns the range as a plain (start, stop) pair
func (r TimeRange) Pair() [2]time.Time {
	return [2]time.Time{r.Start, r.Stop}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s .. %s", r.Start.Format(time.RFC3339Nano),
		r.Stop.Format(time.RFC3339Nano))
}

// Occlusions builds a timeline of forbidden ranges. Occlusions are
// recognized structurally, bypassing field designators, so they block
// fitting regardless of how events are shaped. Pass the result ahead of
// occupant timelines to give the forbidden time highest priority
func Occlusions(ranges ...TimeRange) Timeline {
	tl := make(Timeline, len(ranges))
	for i, r := range ranges {
		tl[i] = r
	}
	return tl
}

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}
