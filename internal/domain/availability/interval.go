// Package availability computes bookable slots and validates booking requests
// against working hours, schedule exceptions and existing appointments. All
// interval math is half-open: [start, end). A booking that ends exactly when
// another starts does not overlap it.
package availability

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the interval has positive length.
func (i Interval) IsValid() bool {
	return i.Start.Before(i.End)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Overlaps reports whether i and o share any instant. Touching boundaries do
// not count.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Subtract removes o from i and returns the zero, one or two remainders, in
// order.
func (i Interval) Subtract(o Interval) []Interval {
	if !i.Overlaps(o) {
		return []Interval{i}
	}

	var out []Interval
	if i.Start.Before(o.Start) {
		out = append(out, Interval{Start: i.Start, End: o.Start})
	}
	if o.End.Before(i.End) {
		out = append(out, Interval{Start: o.End, End: i.End})
	}
	return out
}

// subtractAll removes every blocker from every base interval, preserving
// order. Bases are assumed ordered and disjoint; blockers need not be.
func subtractAll(bases []Interval, blockers []Interval) []Interval {
	out := bases
	for _, b := range blockers {
		var next []Interval
		for _, base := range out {
			next = append(next, base.Subtract(b)...)
		}
		out = next
	}
	return out
}
