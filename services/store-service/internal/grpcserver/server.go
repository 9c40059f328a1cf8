//go:build protogen

package grpcserver

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tireline/tireline/libs/config"
	"github.com/tireline/tireline/libs/db"
	storev1 "github.com/tireline/tireline/protos/gen/store/v1"
	"github.com/tireline/tireline/services/store-service/internal/schedule"
	"github.com/tireline/tireline/services/store-service/internal/storage"
	"google.golang.org/grpc"
)

type server struct {
	storev1.UnimplementedStoreServiceServer
	pool *db.Pool
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, pool *db.Pool, repo *storage.Repository) {
	storev1.RegisterStoreServiceServer(grpcServer, &server{pool: pool, repo: repo})
}

func (s *server) GetBranchProfile(ctx context.Context, req *storev1.BranchProfileRequest) (*storev1.BranchProfileResponse, error) {
	offsets := parseOffsets(config.String("REMINDER_OFFSETS_MINUTES", "1440,60"))
	timezone := config.String("TIMEZONE", "UTC")
	name := "Demo Branch"

	if s.repo != nil && req.GetBranchId() != "" {
		p, err := s.repo.GetOrCreateProfile(ctx, req.GetBranchId())
		if err == nil {
			if strings.TrimSpace(p.Timezone) != "" {
				timezone = strings.TrimSpace(p.Timezone)
			}
			if strings.TrimSpace(p.Name) != "" {
				name = strings.TrimSpace(p.Name)
			}
			if len(p.OffsetsMins) > 0 {
				offsets = nil
				for _, v := range p.OffsetsMins {
					if v <= 0 {
						continue
					}
					offsets = append(offsets, int32(v))
				}
				if len(offsets) == 0 {
					offsets = parseOffsets("1440,60")
				}
			}
		}
	}

	return &storev1.BranchProfileResponse{
		BranchId: req.BranchId,
		Name:     name,
		ReminderPolicy: &storev1.ReminderPolicy{
			ReminderOffsetsMinutes: offsets,
			Timezone:               timezone,
		},
	}, nil
}

func (s *server) GetAvailabilityConfig(ctx context.Context, req *storev1.AvailabilityConfigRequest) (*storev1.AvailabilityConfigResponse, error) {
	resp := &storev1.AvailabilityConfigResponse{
		BranchId:        req.GetBranchId(),
		BayId:           req.GetBayId(),
		ServiceId:       req.GetServiceId(),
		Timezone:        "UTC",
		DurationMinutes: 30,
		SlotStepMinutes: 15,
		IsOpen:          false,
	}
	if req.GetBranchId() == "" || req.GetBayId() == "" || req.GetServiceId() == "" || req.GetDate() == "" {
		return resp, nil
	}
	if s.repo == nil {
		return resp, nil
	}

	profile, err := s.repo.GetOrCreateProfile(ctx, req.GetBranchId())
	if err == nil && strings.TrimSpace(profile.Timezone) != "" {
		resp.Timezone = strings.TrimSpace(profile.Timezone)
	}

	durationMins, stepMins, err := s.repo.GetServiceGeometry(ctx, req.GetBranchId(), req.GetServiceId())
	if err == nil {
		if durationMins > 0 {
			resp.DurationMinutes = int32(durationMins)
		}
		if stepMins > 0 {
			resp.SlotStepMinutes = int32(stepMins)
		}
	}

	loc, err := time.LoadLocation(resp.Timezone)
	if err != nil {
		loc = time.UTC
		resp.Timezone = "UTC"
	}

	day, err := time.ParseInLocation("2006-01-02", req.GetDate(), loc)
	if err != nil {
		return resp, nil
	}

	bh, err := s.repo.GetBayHours(ctx, req.GetBranchId(), req.GetBayId(), int(day.Weekday()))
	if err != nil {
		return resp, nil
	}

	var ranges []schedule.TimeRange
	closures, err := s.repo.ListClosures(ctx, req.GetBranchId(), req.GetBayId(), day, day.AddDate(0, 0, 1), 500)
	if err == nil {
		for _, c := range closures {
			ranges = append(ranges, schedule.TimeRange{Start: c.StartTime, End: c.EndTime})
		}
	}

	da := schedule.ResolveDay(day, bh.IsOpen, bh.OpenMinute, bh.CloseMinute, ranges)
	resp.IsOpen = da.IsOpen
	if !da.IsOpen {
		return resp, nil
	}
	resp.OpenMinute = int32(da.OpenMinute)
	resp.CloseMinute = int32(da.CloseMinute)
	for _, r := range da.Closures {
		resp.Closures = append(resp.Closures, &storev1.ClosureWindow{
			StartMinute: int32(r.StartMinute),
			EndMinute:   int32(r.EndMinute),
		})
	}
	return resp, nil
}

func parseOffsets(raw string) []int32 {
	var out []int32
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mins, err := strconv.Atoi(part)
		if err != nil || mins <= 0 {
			continue
		}
		out = append(out, int32(mins))
	}
	if len(out) == 0 {
		out = []int32{1440}
	}
	return out
}
