package timefit

import (
	"errors"
	"time"
)

// ErrUnsortedTimeline indicates the ordered-insertion precondition (a
// timeline sorted by the configured field in the given direction) was
// violated badly enough that a correct position could not be determined
var ErrUnsortedTimeline = errors.New("timeline not sorted as configured")

// Insert places the event into a timeline sorted by the configured sort
// field in the configured direction, scanning forward from offset. It
// returns the grown timeline and the insertion position, which is also
// the offset hint for the next call: when candidates arrive in the same
// relative order as the timeline, threading the returned position back
// in makes each insertion O(1) amortized. Callers that cannot guarantee
// monotonic arrival must pass 0, which is always correct but scans from
// the sorted boundary
func (tf *TimeFit) Insert(
	event any, timeline Timeline, offset int,
) (Timeline, int, error) {
	return tf.InsertDirected(event, timeline, tf.config.Direction, offset)
}

// InsertDirected inserts with an explicit direction, supporting streams
// that intentionally switch sort order mid-sequence. A previously
// returned offset is only meaningful for the direction that produced
// it; pass 0 after switching
func (tf *TimeFit) InsertDirected(
	event any, timeline Timeline, dir Direction, offset int,
) (Timeline, int, error) {
	key, err := tf.sortKey(event)
	if err != nil {
		return timeline, 0, err
	}
	if offset < 0 || offset > len(timeline) {
		offset = 0
	}

	pos := offset
	for pos < len(timeline) {
		entry, err := tf.entryKey(timeline[pos])
		if err != nil {
			return timeline, 0, err
		}
		if !precedes(entry, key, dir) {
			break
		}
		pos++
	}

	// The entry just before the insertion point must precede the
	// candidate; when it does not, either the timeline or the caller's
	// offset hint contradicts the sortedness assumption
	if pos > 0 {
		prev, err := tf.entryKey(timeline[pos-1])
		if err != nil {
			return timeline, 0, err
		}
		if !precedes(prev, key, dir) {
			return timeline, 0, ErrUnsortedTimeline
		}
	}

	timeline = append(timeline, nil)
	copy(timeline[pos+1:], timeline[pos:])
	timeline[pos] = event
	return timeline, pos, nil
}

// precedes reports whether an entry with the given key sorts at or
// before the candidate key under the direction. Equal keys precede,
// keeping insertion stable and runs of equal candidates O(1)
func precedes(entry, key time.Time, dir Direction) bool {
	if dir == Descending {
		return !entry.Before(key)
	}
	return !entry.After(key)
}

func (tf *TimeFit) sortKey(event any) (time.Time, error) {
	if tf.config.SortField == SortByStop {
		return tf.boundary(tf.stop, event)
	}
	return tf.boundary(tf.start, event)
}

// entryKey resolves a timeline member's sort key, honoring native
// TimeRange entries
func (tf *TimeFit) entryKey(entry any) (time.Time, error) {
	if r, ok := entry.(TimeRange); ok {
		if tf.config.SortField == SortByStop {
			return r.Stop, nil
		}
		return r.Start, nil
	}
	return tf.sortKey(entry)
}
