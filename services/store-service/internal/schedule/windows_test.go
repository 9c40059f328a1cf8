package schedule

import (
	"testing"
	"time"
)

func TestResolveDay_ClipsAndMerges(t *testing.T) {
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	closures := []TimeRange{
		// Before opening, clipped to the window start.
		{Start: day.Add(8 * time.Hour), End: day.Add(9*time.Hour + 30*time.Minute)},
		// Two touching ranges merge into one.
		{Start: day.Add(12 * time.Hour), End: day.Add(13 * time.Hour)},
		{Start: day.Add(13 * time.Hour), End: day.Add(13*time.Hour + 30*time.Minute)},
		// Entirely outside the window.
		{Start: day.Add(20 * time.Hour), End: day.Add(21 * time.Hour)},
	}

	da := ResolveDay(day, true, 9*60, 17*60, closures)
	if !da.IsOpen {
		t.Fatal("expected open day")
	}
	if len(da.Closures) != 2 {
		t.Fatalf("expected 2 closure ranges, got %d: %+v", len(da.Closures), da.Closures)
	}
	if da.Closures[0].StartMinute != 9*60 || da.Closures[0].EndMinute != 9*60+30 {
		t.Fatalf("unexpected first range %+v", da.Closures[0])
	}
	if da.Closures[1].StartMinute != 12*60 || da.Closures[1].EndMinute != 13*60+30 {
		t.Fatalf("unexpected merged range %+v", da.Closures[1])
	}
}

func TestResolveDay_FullCoverClosesDay(t *testing.T) {
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	closures := []TimeRange{
		{Start: day, End: day.AddDate(0, 0, 1)},
	}
	if da := ResolveDay(day, true, 9*60, 17*60, closures); da.IsOpen {
		t.Fatalf("expected closed day, got %+v", da)
	}
}

func TestResolveDay_ClosedWeekday(t *testing.T) {
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if da := ResolveDay(day, false, 9*60, 17*60, nil); da.IsOpen {
		t.Fatal("expected closed day")
	}
}
