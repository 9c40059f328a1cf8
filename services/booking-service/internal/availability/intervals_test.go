package availability

import (
	"testing"
	"time"
)

func TestBusyIntervals_SkipsCancelled(t *testing.T) {
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	records := []AppointmentRecord{
		{StartTime: day.Add(11 * time.Hour), DurationMinutes: 60, Status: "cancelled"},
		{StartTime: day.Add(14 * time.Hour), DurationMinutes: 30, Status: "confirmed"},
		{StartTime: day.Add(15 * time.Hour), DurationMinutes: 30, Status: "no_show"},
	}

	busy := BusyIntervals(day, records)
	if len(busy) != 1 {
		t.Fatalf("expected 1 busy interval, got %d", len(busy))
	}
	if busy[0].StartMinute != 14*60 || busy[0].EndMinute != 14*60+30 {
		t.Fatalf("unexpected interval %+v", busy[0])
	}

	// The cancelled 11:00 block must not hide the 11:00 slot.
	req := SlotRequest{Date: day, ServiceDurationMinutes: 60, StepMinutes: 60}
	slots, err := ComputeSlots(req, weekHours, busy, day.Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	found := false
	for _, s := range slots {
		if s.StartMinute == 11*60 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected 11:00 to be bookable after the cancellation")
	}
}

func TestBusyIntervals_ClipsToDay(t *testing.T) {
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	records := []AppointmentRecord{
		// Starts the previous evening, spills into this day.
		{StartTime: day.Add(-30 * time.Minute), DurationMinutes: 60, Status: "scheduled"},
		// Runs past midnight at the end of the day.
		{StartTime: day.Add(23*time.Hour + 30*time.Minute), DurationMinutes: 60, Status: "scheduled"},
		// Entirely on another day.
		{StartTime: day.AddDate(0, 0, 1).Add(9 * time.Hour), DurationMinutes: 60, Status: "scheduled"},
	}

	busy := BusyIntervals(day, records)
	if len(busy) != 2 {
		t.Fatalf("expected 2 intervals, got %d: %+v", len(busy), busy)
	}
	if busy[0].StartMinute != 0 || busy[0].EndMinute != 30 {
		t.Fatalf("expected [0,30), got %+v", busy[0])
	}
	if busy[1].StartMinute != 23*60+30 || busy[1].EndMinute != 24*60 {
		t.Fatalf("expected [1410,1440), got %+v", busy[1])
	}
}

func TestBusyIntervals_IgnoresNonPositiveDuration(t *testing.T) {
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	records := []AppointmentRecord{
		{StartTime: day.Add(10 * time.Hour), DurationMinutes: 0, Status: "confirmed"},
	}
	if busy := BusyIntervals(day, records); len(busy) != 0 {
		t.Fatalf("expected no intervals, got %+v", busy)
	}
}
