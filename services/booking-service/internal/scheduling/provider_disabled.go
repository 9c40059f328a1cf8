//go:build !protogen

package scheduling

import "context"

type AvailabilityConfig struct {
	IsOpen          bool
	Timezone        string
	OpenMinute      int
	CloseMinute     int
	Closures        []ClosureWindow
	DurationMinutes int
	SlotStepMinutes int
}

// ClosureWindow is a blocked range in minutes after midnight on the
// requested date (public holiday, maintenance, partial-day closure).
type ClosureWindow struct {
	StartMinute int
	EndMinute   int
}

type Provider interface {
	GetAvailabilityConfig(ctx context.Context, branchID, bayID, serviceID string, date string) (AvailabilityConfig, error)
}

func NewProvider(_ string) (Provider, error) {
	return nil, nil
}
