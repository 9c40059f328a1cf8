package schedule

import (
	"sort"
	"time"
)

// MinuteRange is a half-open blocked range in minutes after midnight.
type MinuteRange struct {
	StartMinute int
	EndMinute   int
}

// TimeRange is an absolute blocked range, e.g. a branch closure row.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// DayAvailability is what the booking side needs to generate slots for one
// date: the opening window plus any blocked ranges inside it.
type DayAvailability struct {
	IsOpen      bool
	OpenMinute  int
	CloseMinute int
	Closures    []MinuteRange
}

// ResolveDay projects closures onto the given date (midnight in the branch
// timezone) and combines them with the weekday's opening window. Closures are
// clipped to the day, intersected with the opening window and merged; a day
// whose window is fully covered comes back closed.
func ResolveDay(day time.Time, isOpen bool, openMinute, closeMinute int, closures []TimeRange) DayAvailability {
	if !isOpen || closeMinute <= openMinute {
		return DayAvailability{}
	}

	ranges := make([]MinuteRange, 0, len(closures))
	for _, c := range closures {
		if !c.End.After(c.Start) {
			continue
		}
		start := int(c.Start.In(day.Location()).Sub(day) / time.Minute)
		end := start + int(c.End.Sub(c.Start)/time.Minute)
		if start < openMinute {
			start = openMinute
		}
		if end > closeMinute {
			end = closeMinute
		}
		if end <= start {
			continue
		}
		ranges = append(ranges, MinuteRange{StartMinute: start, EndMinute: end})
	}
	ranges = mergeRanges(ranges)

	if len(ranges) == 1 && ranges[0].StartMinute <= openMinute && ranges[0].EndMinute >= closeMinute {
		return DayAvailability{}
	}

	return DayAvailability{
		IsOpen:      true,
		OpenMinute:  openMinute,
		CloseMinute: closeMinute,
		Closures:    ranges,
	}
}

func mergeRanges(in []MinuteRange) []MinuteRange {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].StartMinute < in[j].StartMinute })
	out := in[:1]
	for _, r := range in[1:] {
		last := &out[len(out)-1]
		if r.StartMinute <= last.EndMinute {
			if r.EndMinute > last.EndMinute {
				last.EndMinute = r.EndMinute
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
