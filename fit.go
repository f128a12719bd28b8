package timefit

import (
	"errors"
	"time"
)

// StreamlineTimes shortens the candidate event's boundaries until they
// avoid every valid occupant of the given timelines, returning the
// fitted range without touching the event. Timelines are consulted in
// order and entries within them in order, earlier entries taking
// priority; a raw TimeRange entry (see Occlusions) blocks its span
// unconditionally. Occupants whose fields cannot be read, whose ranges
// are not forward-directed, or which are rejected by the configured
// Filter are ignored. Fails with ErrNoRoom when no non-empty range
// remains
func (tf *TimeFit) StreamlineTimes(
	event any, timelines ...Timeline,
) (TimeRange, error) {
	working, err := tf.EventRange(event)
	if err != nil {
		return TimeRange{}, err
	}
	if !working.Valid() {
		return TimeRange{}, ErrNoRoom
	}

	for _, tl := range timelines {
		for _, occ := range tl {
			blocked, ok, err := tf.occupantRange(occ)
			if err != nil {
				return TimeRange{}, err
			}
			if !ok {
				continue
			}
			working, err = shrink(working, blocked)
			if err != nil {
				return TimeRange{}, err
			}
		}
	}
	return working, nil
}

// StreamlineEvent fits the event the way StreamlineTimes does, then
// writes the result back through the stop/start setters and returns the
// event reflecting its adjusted boundaries
func (tf *TimeFit) StreamlineEvent(
	event any, timelines ...Timeline,
) (any, error) {
	res, err := tf.StreamlineTimes(event, timelines...)
	if err != nil {
		return nil, err
	}
	event, err = tf.start.set(event, res.Start)
	if err != nil {
		return nil, err
	}
	return tf.stop.set(event, res.Stop)
}

// Ranges converts timeline occupants into plain (start, stop) pairs for
// consumption by an external range-query layer. Entries are skipped or
// recognized exactly as the fitter would treat them
func (tf *TimeFit) Ranges(timelines ...Timeline) ([][2]time.Time, error) {
	var out [][2]time.Time
	for _, tl := range timelines {
		for _, occ := range tl {
			r, ok, err := tf.occupantRange(occ)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, r.Pair())
			}
		}
	}
	return out, nil
}

// EventRange extracts and normalizes the event's boundaries. Unlike
// occupant handling, failures to read the candidate itself are surfaced
func (tf *TimeFit) EventRange(event any) (TimeRange, error) {
	start, err := tf.boundary(tf.start, event)
	if err != nil {
		return TimeRange{}, err
	}
	stop, err := tf.boundary(tf.stop, event)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{Start: start, Stop: stop}, nil
}

func (tf *TimeFit) boundary(acc accessor, event any) (time.Time, error) {
	raw, err := acc.get(event)
	if err != nil {
		return time.Time{}, err
	}
	return Normalize(raw, tf.config.FallbackZone)
}

// occupantRange reads a timeline entry's range. The second result is
// false when the entry should be ignored; errors are reserved for
// normalization failures, which always surface
func (tf *TimeFit) occupantRange(occ any) (TimeRange, bool, error) {
	if r, ok := occ.(TimeRange); ok {
		return r, r.Valid(), nil
	}
	if tf.config.Filter != nil && !tf.config.Filter(occ) {
		return TimeRange{}, false, nil
	}

	r, err := tf.EventRange(occ)
	if err != nil {
		if skippable(err) {
			return TimeRange{}, false, nil
		}
		return TimeRange{}, false, err
	}
	return r, r.Valid(), nil
}

// skippable reports whether an occupant extraction failure excludes the
// occupant rather than failing the whole operation. Unreadable fields
// and explicit ErrSkip do; normalization failures do not
func skippable(err error) bool {
	var fe *FieldError
	return errors.Is(err, ErrSkip) || errors.As(err, &fe)
}

func shrink(working, blocked TimeRange) (TimeRange, error) {
	if !blocked.Overlaps(working) {
		return working, nil
	}
	switch {
	case blocked.Contains(working):
		return TimeRange{}, ErrNoRoom
	case !blocked.Start.After(working.Start):
		// Blocker occupies the front; the candidate yields by advancing
		// its start past it
		working.Start = blocked.Stop
	case !blocked.Stop.Before(working.Stop):
		// Blocker clips the trailing edge; pull the stop back to it
		working.Stop = blocked.Start
	default:
		// Blocker sits strictly inside; the start is the yielding side,
		// the stop stays anchored
		working.Start = blocked.Stop
	}
	if !working.Valid() {
		return TimeRange{}, ErrNoRoom
	}
	return working, nil
}
