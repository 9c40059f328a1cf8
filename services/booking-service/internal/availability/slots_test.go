package availability

import (
	"errors"
	"testing"
	"time"
)

var weekHours = BusinessHours{
	time.Monday:    {OpenMinute: 9 * 60, CloseMinute: 17 * 60},
	time.Tuesday:   {OpenMinute: 9 * 60, CloseMinute: 17 * 60},
	time.Wednesday: {OpenMinute: 9 * 60, CloseMinute: 17 * 60},
	time.Thursday:  {OpenMinute: 9 * 60, CloseMinute: 17 * 60},
	time.Friday:    {OpenMinute: 9 * 60, CloseMinute: 17 * 60},
}

// 2026-02-02 is a Monday.
func monday() time.Time {
	return time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
}

func starts(slots []Slot) []int {
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s.StartMinute
	}
	return out
}

func TestComputeSlots_FullDay(t *testing.T) {
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 60, StepMinutes: 60}
	slots, err := ComputeSlots(req, weekHours, nil, monday().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	// 09:00 through 16:00; 16:00+60 = close exactly.
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d: %v", len(slots), starts(slots))
	}
	if slots[0].StartMinute != 9*60 {
		t.Fatalf("expected first slot 09:00, got %d", slots[0].StartMinute)
	}
	if slots[7].StartMinute != 16*60 {
		t.Fatalf("expected last slot 16:00, got %d", slots[7].StartMinute)
	}
}

func TestComputeSlots_BusyIntervalRemoved(t *testing.T) {
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 60, StepMinutes: 60}
	busy := []Interval{{StartMinute: 11 * 60, EndMinute: 12 * 60}}

	slots, err := ComputeSlots(req, weekHours, busy, monday().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(slots) != 7 {
		t.Fatalf("expected 7 slots, got %d: %v", len(slots), starts(slots))
	}
	for _, s := range slots {
		if s.StartMinute == 11*60 {
			t.Fatal("11:00 should be excluded")
		}
	}
	// 10:00 stays: 10:00+60 touches the busy start but half-open ranges do not overlap.
	if slots[1].StartMinute != 10*60 {
		t.Fatalf("expected 10:00 to remain, got %d", slots[1].StartMinute)
	}
	if slots[2].StartMinute != 12*60 {
		t.Fatalf("expected 12:00 after the gap, got %d", slots[2].StartMinute)
	}
}

func TestComputeSlots_DurationLongerThanStep(t *testing.T) {
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 90, StepMinutes: 30}
	slots, err := ComputeSlots(req, weekHours, nil, monday().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	last := slots[len(slots)-1]
	// 15:30+90 = 17:00 exactly; 16:00+90 would run past close.
	if last.StartMinute != 15*60+30 {
		t.Fatalf("expected last slot 15:30, got %d", last.StartMinute)
	}
	for _, s := range slots {
		if s.StartMinute+90 > 17*60 {
			t.Fatalf("slot %d extends past closing", s.StartMinute)
		}
	}
}

func TestComputeSlots_ClosedDay(t *testing.T) {
	sunday := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	req := SlotRequest{Date: sunday, ServiceDurationMinutes: 60, StepMinutes: 60}
	busy := []Interval{{StartMinute: 10 * 60, EndMinute: 11 * 60}}

	slots, err := ComputeSlots(req, weekHours, busy, sunday.Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on a closed day, got %v", starts(slots))
	}
}

func TestComputeSlots_SameDayLeadTime(t *testing.T) {
	// Asking at 16:55 with a 60 minute lead leaves nothing before close.
	now := monday().Add(16*time.Hour + 55*time.Minute)
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 60, StepMinutes: 60}

	slots, err := ComputeSlots(req, weekHours, nil, now, 60*time.Minute)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", starts(slots))
	}

	// At 10:30 with the same lead, 11:00 is too soon but 12:00 is fine.
	now = monday().Add(10*time.Hour + 30*time.Minute)
	slots, err = ComputeSlots(req, weekHours, nil, now, 60*time.Minute)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(slots) == 0 || slots[0].StartMinute != 12*60 {
		t.Fatalf("expected first slot 12:00, got %v", starts(slots))
	}
	for _, s := range slots {
		if s.StartMinute < 11*60+30 {
			t.Fatalf("slot %d is before now+lead", s.StartMinute)
		}
	}
}

func TestComputeSlots_PastDay(t *testing.T) {
	now := monday().AddDate(0, 0, 3)
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 60, StepMinutes: 60}
	slots, err := ComputeSlots(req, weekHours, nil, now, 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots for a past day, got %v", starts(slots))
	}
}

func TestComputeSlots_Deterministic(t *testing.T) {
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 30, StepMinutes: 30}
	now := monday().Add(-24 * time.Hour)
	a := []Interval{
		{StartMinute: 9 * 60, EndMinute: 10 * 60},
		{StartMinute: 14 * 60, EndMinute: 15 * 60},
		{StartMinute: 11*60 + 30, EndMinute: 12 * 60},
	}
	b := []Interval{a[2], a[0], a[1]}

	first, err := ComputeSlots(req, weekHours, a, now, 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	second, err := ComputeSlots(req, weekHours, b, now, 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("slot counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d differs: %v vs %v", i, first[i], second[i])
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].StartMinute <= first[i-1].StartMinute {
			t.Fatalf("slots not strictly ascending at %d: %v", i, starts(first))
		}
	}
}

func TestComputeSlots_StepAlignment(t *testing.T) {
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 45, StepMinutes: 20}
	slots, err := ComputeSlots(req, weekHours, nil, monday().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	for _, s := range slots {
		if (s.StartMinute-9*60)%20 != 0 {
			t.Fatalf("slot %d is not aligned to the step", s.StartMinute)
		}
	}
}

func TestComputeSlots_InvalidInput(t *testing.T) {
	now := monday().Add(-24 * time.Hour)

	_, err := ComputeSlots(SlotRequest{Date: monday(), ServiceDurationMinutes: 0, StepMinutes: 30}, weekHours, nil, now, 0)
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	_, err = ComputeSlots(SlotRequest{Date: monday(), ServiceDurationMinutes: 30, StepMinutes: -15}, weekHours, nil, now, 0)
	if !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected ErrInvalidStep, got %v", err)
	}

	bad := BusinessHours{time.Monday: {OpenMinute: 17 * 60, CloseMinute: 9 * 60}}
	_, err = ComputeSlots(SlotRequest{Date: monday(), ServiceDurationMinutes: 30, StepMinutes: 30}, bad, nil, now, 0)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestComputeSlots_NoOverlapWithAnyBusy(t *testing.T) {
	req := SlotRequest{Date: monday(), ServiceDurationMinutes: 50, StepMinutes: 15}
	busy := []Interval{
		{StartMinute: 9*60 + 40, EndMinute: 10 * 60},
		{StartMinute: 12 * 60, EndMinute: 13*60 + 10},
		{StartMinute: 16 * 60, EndMinute: 16*60 + 5},
	}
	slots, err := ComputeSlots(req, weekHours, busy, monday().Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("ComputeSlots failed: %v", err)
	}
	for _, s := range slots {
		for _, b := range busy {
			if s.StartMinute < b.EndMinute && b.StartMinute < s.StartMinute+50 {
				t.Fatalf("slot %d overlaps busy [%d,%d)", s.StartMinute, b.StartMinute, b.EndMinute)
			}
		}
	}
}
