package handlers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/tireline/tireline/services/booking-service/internal/scheduling"
)

func TestDayConfigFrom(t *testing.T) {
	cfg, ok := dayConfigFrom(scheduling.AvailabilityConfig{
		IsOpen:          true,
		Timezone:        "Europe/Budapest",
		OpenMinute:      8 * 60,
		CloseMinute:     18 * 60,
		DurationMinutes: 45,
		SlotStepMinutes: 15,
		Closures: []scheduling.ClosureWindow{
			{StartMinute: 12 * 60, EndMinute: 13 * 60},
			{StartMinute: 14 * 60, EndMinute: 14 * 60},
		},
	})
	if !ok {
		t.Fatal("expected open config")
	}
	if cfg.location.String() != "Europe/Budapest" {
		t.Fatalf("unexpected location %s", cfg.location)
	}
	if cfg.duration != 45 || cfg.step != 15 {
		t.Fatalf("unexpected geometry: duration=%d step=%d", cfg.duration, cfg.step)
	}
	// The empty closure window is dropped.
	if len(cfg.closures) != 1 {
		t.Fatalf("expected 1 closure, got %d", len(cfg.closures))
	}
	win := cfg.hours[time.Wednesday]
	if win.OpenMinute != 8*60 || win.CloseMinute != 18*60 {
		t.Fatalf("unexpected window %+v", win)
	}
}

func TestDayConfigFrom_Closed(t *testing.T) {
	if _, ok := dayConfigFrom(scheduling.AvailabilityConfig{IsOpen: false}); ok {
		t.Fatal("expected closed config to be rejected")
	}
	if _, ok := dayConfigFrom(scheduling.AvailabilityConfig{IsOpen: true, OpenMinute: 600, CloseMinute: 600}); ok {
		t.Fatal("expected empty window to be rejected")
	}
}

func TestResolveDayConfig_QueryFallback(t *testing.T) {
	h := &BookingHandler{logger: slog.Default()}

	cfg, ok := h.resolveDayConfig(context.Background(), "b1", "bay1", "svc1", "2026-02-02", map[string][]string{
		"duration_minutes":  {"60"},
		"slot_step_minutes": {"30"},
		"open_minute":       {"480"},
		"close_minute":      {"960"},
	})
	if !ok {
		t.Fatal("expected fallback config")
	}
	if cfg.duration != 60 || cfg.step != 30 {
		t.Fatalf("unexpected geometry: duration=%d step=%d", cfg.duration, cfg.step)
	}
	win := cfg.hours[time.Monday]
	if win.OpenMinute != 480 || win.CloseMinute != 960 {
		t.Fatalf("unexpected window %+v", win)
	}

	if _, ok := h.resolveDayConfig(context.Background(), "b1", "bay1", "svc1", "2026-02-02", map[string][]string{
		"duration_minutes": {"-5"},
	}); ok {
		t.Fatal("expected invalid duration to be rejected")
	}
}
