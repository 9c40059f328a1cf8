package availability

import "time"

// AppointmentRecord is the slice of an appointment the engine cares about.
type AppointmentRecord struct {
	StartTime       time.Time
	DurationMinutes int
	Status          string
}

// Statuses that occupy the calendar. Cancelled and no-show appointments
// do not block a slot.
var blockingStatuses = map[string]bool{
	"scheduled":   true,
	"confirmed":   true,
	"in_progress": true,
	"completed":   true,
}

// BusyIntervals converts raw appointment records into busy intervals for the
// day starting at midnight day (branch timezone). Records whose status does
// not occupy the calendar are skipped; ranges crossing midnight are clipped
// to [0, 1440).
func BusyIntervals(day time.Time, records []AppointmentRecord) []Interval {
	busy := make([]Interval, 0, len(records))
	for _, rec := range records {
		if !blockingStatuses[rec.Status] {
			continue
		}
		if rec.DurationMinutes <= 0 {
			continue
		}

		start := int(rec.StartTime.In(day.Location()).Sub(day) / time.Minute)
		end := start + rec.DurationMinutes
		if end <= 0 || start >= 24*60 {
			continue
		}
		if start < 0 {
			start = 0
		}
		if end > 24*60 {
			end = 24 * 60
		}
		busy = append(busy, Interval{StartMinute: start, EndMinute: end})
	}
	return busy
}
