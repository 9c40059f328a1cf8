//go:build protogen

package scheduling

import (
	"context"
	"time"

	"github.com/tireline/tireline/libs/grpcx"
	storev1 "github.com/tireline/tireline/protos/gen/store/v1"
)

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

type grpcProvider struct {
	client storev1.StoreServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: storev1.NewStoreServiceClient(conn)}, nil
}

func (p *grpcProvider) GetAvailabilityConfig(ctx context.Context, branchID, bayID, serviceID string, date string) (AvailabilityConfig, error) {
	resp, err := p.client.GetAvailabilityConfig(ctx, &storev1.AvailabilityConfigRequest{
		BranchId:  branchID,
		BayId:     bayID,
		ServiceId: serviceID,
		Date:      date,
	})
	if err != nil {
		return AvailabilityConfig{}, err
	}
	cfg := AvailabilityConfig{
		IsOpen:          resp.GetIsOpen(),
		Timezone:        resp.GetTimezone(),
		OpenMinute:      int(resp.GetOpenMinute()),
		CloseMinute:     int(resp.GetCloseMinute()),
		DurationMinutes: int(resp.GetDurationMinutes()),
		SlotStepMinutes: int(resp.GetSlotStepMinutes()),
	}
	for _, c := range resp.GetClosures() {
		if c.GetEndMinute() <= c.GetStartMinute() {
			continue
		}
		cfg.Closures = append(cfg.Closures, ClosureWindow{
			StartMinute: int(c.GetStartMinute()),
			EndMinute:   int(c.GetEndMinute()),
		})
	}
	return cfg, nil
}
