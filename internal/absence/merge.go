package absence

import (
	"sort"

	"github.com/example/association-planning/internal/calendar"
)

// OverlapsOrAdjacent reports whether a and b must be merged into one period.
//
// Two intervals merge when their date ranges intersect, which also covers
// same-day slot contact, or when one ends the day before the other starts and
// either the earlier one ends at closing or the later one starts at opening.
// The consecutive-day rule is deliberately permissive: one side touching is
// enough.
func OverlapsOrAdjacent(a, b Interval) bool {
	if a.Intersects(b.Start.Date, b.End.Date) {
		return true
	}
	return touchesNextDay(a, b) || touchesNextDay(b, a)
}

func touchesNextDay(first, second Interval) bool {
	if !first.End.Date.AddDays(1).Equal(second.Start.Date) {
		return false
	}
	return first.End.Slot == calendar.Closing || second.Start.Slot == calendar.Opening
}

// MergeResult describes the outcome of merging a candidate interval into a
// member's existing set.
type MergeResult struct {
	// Merged is the single interval that replaces the candidate and every consumed interval.
	Merged Interval
	// Consumed lists the existing intervals absorbed by Merged, ordered by start.
	Consumed []Interval
}

// Merge folds candidate together with every interval of existing that
// overlaps or touches it. Existing intervals are assumed to be minimal already,
// so a single pass is enough. Merged keeps the candidate's identity.
func Merge(candidate Interval, existing []Interval) MergeResult {
	merged := candidate
	var consumed []Interval

	for _, other := range existing {
		if other.MemberID != candidate.MemberID {
			continue
		}
		if !OverlapsOrAdjacent(candidate, other) {
			continue
		}
		consumed = append(consumed, other)
		merged.Start = calendar.MinPoint(merged.Start, other.Start)
		merged.End = calendar.MaxPoint(merged.End, other.End)
	}

	sortByStart(consumed)
	return MergeResult{Merged: merged, Consumed: consumed}
}

// Group is one interval of a consolidated set together with the stored
// intervals it was built from.
type Group struct {
	Interval Interval
	Sources  []Interval
}

// Changed reports whether the group merges more than one stored interval.
func (g Group) Changed() bool {
	return len(g.Sources) > 1
}

// Consolidate re-scans an arbitrary interval set and returns its minimal form.
// Intervals are sorted by start and greedily folded into a running
// accumulator while they overlap or touch it. Each returned group keeps the ID
// of its earliest source.
func Consolidate(intervals []Interval) []Group {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sortByStart(sorted)

	groups := make([]Group, 0, len(sorted))
	current := Group{Interval: sorted[0], Sources: []Interval{sorted[0]}}

	for _, next := range sorted[1:] {
		if OverlapsOrAdjacent(current.Interval, next) {
			current.Interval.Start = calendar.MinPoint(current.Interval.Start, next.Start)
			current.Interval.End = calendar.MaxPoint(current.Interval.End, next.End)
			current.Sources = append(current.Sources, next)
			continue
		}
		groups = append(groups, current)
		current = Group{Interval: next, Sources: []Interval{next}}
	}

	return append(groups, current)
}

// Flatten returns the intervals of groups in order.
func Flatten(groups []Group) []Interval {
	out := make([]Interval, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Interval)
	}
	return out
}

func sortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		if c := intervals[i].Start.Compare(intervals[j].Start); c != 0 {
			return c < 0
		}
		return intervals[i].End.Before(intervals[j].End)
	})
}
