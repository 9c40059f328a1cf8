package availability

import (
	"errors"
	"time"
)

var (
	ErrInvalidDuration = errors.New("availability: service duration must be positive")
	ErrInvalidStep     = errors.New("availability: step must be positive")
	ErrInvalidRange    = errors.New("availability: open minute must be before close minute")
)

// DayWindow is a single weekday's opening window in minutes after midnight.
type DayWindow struct {
	OpenMinute  int
	CloseMinute int
}

// BusinessHours maps weekday to its opening window. A missing weekday means closed.
type BusinessHours map[time.Weekday]DayWindow

// Interval is a half-open busy range [StartMinute, EndMinute) within one day.
type Interval struct {
	StartMinute int
	EndMinute   int
}

type SlotRequest struct {
	// Date is midnight of the requested day in the branch's timezone.
	Date                   time.Time
	ServiceDurationMinutes int
	StepMinutes            int
}

// Slot is a bookable start time, minutes after midnight on the requested day.
type Slot struct {
	StartMinute int
}

// ComputeSlots returns the ordered start times on req.Date where a booking of
// ServiceDurationMinutes would fit inside the day's opening window without
// overlapping any busy interval. Candidates advance by StepMinutes from the
// opening minute; none extends past closing.
//
// For the current day, candidates earlier than now+leadTime are dropped.
// The caller supplies now so the computation stays deterministic.
func ComputeSlots(req SlotRequest, hours BusinessHours, busy []Interval, now time.Time, leadTime time.Duration) ([]Slot, error) {
	if req.ServiceDurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if req.StepMinutes <= 0 {
		return nil, ErrInvalidStep
	}

	window, open := hours[req.Date.Weekday()]
	if !open {
		return nil, nil
	}
	if window.OpenMinute >= window.CloseMinute {
		return nil, ErrInvalidRange
	}

	minStart := -1
	nowLocal := now.In(req.Date.Location())
	dayStart := req.Date
	dayEnd := dayStart.AddDate(0, 0, 1)
	if !nowLocal.Before(dayEnd) {
		// Whole day is in the past.
		return nil, nil
	}
	if !nowLocal.Before(dayStart) {
		cutoff := nowLocal.Add(leadTime)
		minStart = cutoff.Hour()*60 + cutoff.Minute()
		if cutoff.Second() > 0 || cutoff.Nanosecond() > 0 {
			minStart++
		}
		if !cutoff.Before(dayEnd) {
			return nil, nil
		}
	}

	var slots []Slot
	for s := window.OpenMinute; s+req.ServiceDurationMinutes <= window.CloseMinute; s += req.StepMinutes {
		if s < minStart {
			continue
		}
		if overlapsAny(s, s+req.ServiceDurationMinutes, busy) {
			continue
		}
		slots = append(slots, Slot{StartMinute: s})
	}
	return slots, nil
}

func overlapsAny(start, end int, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.StartMinute,b.EndMinute) iff
		// start < b.EndMinute && b.StartMinute < end.
		if start < b.EndMinute && b.StartMinute < end {
			return true
		}
	}
	return false
}
