package i18n

import (
	"strings"
	"testing"
)

func TestRenderEnglishReminder(t *testing.T) {
	msg, err := Render("en", KindReminder, map[string]any{
		"customer_name": "Anna Kovacs",
		"branch_name":   "Tireline Center",
		"start_time":    "2026-03-02 10:00",
		"vehicle_plate": "ABC-123",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Appointment reminder" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Anna Kovacs") || !strings.Contains(msg.Body, "Tireline Center") {
		t.Fatalf("body missing fields: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "ABC-123") {
		t.Fatalf("body missing plate: %q", msg.Body)
	}
}

func TestRenderRegionalVariantMatchesBase(t *testing.T) {
	msg, err := Render("de-AT", KindConfirmation, map[string]any{
		"customer_name": "Max",
		"branch_name":   "Tireline Wien",
		"start_time":    "2026-03-02 10:00",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Ihr Termin ist bestätigt" {
		t.Fatalf("subject = %q", msg.Subject)
	}
}

func TestRenderUnknownLocaleFallsBack(t *testing.T) {
	msg, err := Render("fr", KindCancellation, map[string]any{
		"customer_name": "Luc",
		"branch_name":   "Tireline",
		"start_time":    "2026-03-02 10:00",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Your appointment was cancelled" {
		t.Fatalf("subject = %q", msg.Subject)
	}
}

func TestRenderHungarian(t *testing.T) {
	msg, err := Render("hu-HU", KindReminder, map[string]any{
		"customer_name": "Bence",
		"branch_name":   "Tireline Buda",
		"start_time":    "2026-03-02 10:00",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Időpont emlékeztető" {
		t.Fatalf("subject = %q", msg.Subject)
	}
}

func TestRenderOmitsEmptyPlate(t *testing.T) {
	msg, err := Render("en", KindReminder, map[string]any{
		"customer_name": "Anna",
		"branch_name":   "Tireline",
		"start_time":    "2026-03-02 10:00",
		"vehicle_plate": "",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.Body, "Vehicle:") {
		t.Fatalf("body should omit plate line: %q", msg.Body)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, err := Render("en", "newsletter", nil); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
