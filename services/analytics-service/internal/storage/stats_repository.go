package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tireline/tireline/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) RecordNotification(ctx context.Context, appointmentID, branchID, channel, at, status string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_metrics (appointment_id, branch_id, channel, sent_at, status)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
	`, appointmentID, branchID, channel, at, status)
	return err
}

func (r *Repository) BumpNotificationAggregate(ctx context.Context, branchID, channel, ts string, sentInc, failedInc int) error {
	if branchID == "" || channel == "" || ts == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO daily_notification_metrics (branch_id, day, channel, sent_count, failed_count)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (branch_id, day, channel)
		DO UPDATE SET sent_count = daily_notification_metrics.sent_count + EXCLUDED.sent_count,
		              failed_count = daily_notification_metrics.failed_count + EXCLUDED.failed_count,
		              updated_at = now()
	`, branchID, t.UTC(), channel, sentInc, failedInc)
	return err
}

func (r *Repository) RecordDLQEvent(ctx context.Context, appointmentID, branchID, channel, recipient string, remindAt time.Time, errorReason, failedAt string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scheduler_dlq_events (appointment_id, branch_id, channel, recipient, remind_at, error_reason, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, appointmentID, branchID, channel, recipient, remindAt, errorReason, failedAt)
	return err
}

func (r *Repository) RecordAuditEvent(ctx context.Context, eventType, actorID string, metadata json.RawMessage, createdAt string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO security_audit_events (event_type, actor_id, metadata, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
	`, eventType, actorID, metadata, createdAt)
	return err
}

// RecordBookingEvent inserts the raw event keyed by event_id and bumps the
// per-day counters only when the event was not seen before.
func (r *Repository) RecordBookingEvent(ctx context.Context, eventID, eventType, branchID, appointmentID string, startTime time.Time, bookedInc, cancelledInc int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO booking_events (event_id, event_type, branch_id, appointment_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType, branchID, appointmentID, startTime.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_appointment_metrics (branch_id, day, booked_count, cancelled_count)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (branch_id, day)
		DO UPDATE SET booked_count = daily_appointment_metrics.booked_count + EXCLUDED.booked_count,
		              cancelled_count = daily_appointment_metrics.cancelled_count + EXCLUDED.cancelled_count,
		              updated_at = now()
	`, branchID, startTime.UTC(), bookedInc, cancelledInc); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type DailyAppointmentStat struct {
	Day            string `json:"day"`
	BookedCount    int    `json:"booked_count"`
	CancelledCount int    `json:"cancelled_count"`
}

type DailyNotificationStat struct {
	Day         string `json:"day"`
	Channel     string `json:"channel"`
	SentCount   int    `json:"sent_count"`
	FailedCount int    `json:"failed_count"`
}

type BranchStats struct {
	BranchID      string                  `json:"branch_id"`
	Appointments  []DailyAppointmentStat  `json:"appointments"`
	Notifications []DailyNotificationStat `json:"notifications"`
}

func (r *Repository) Stats(ctx context.Context, branchID string, from, to time.Time) (BranchStats, error) {
	stats := BranchStats{BranchID: branchID}

	rows, err := r.pool.Query(ctx, `
		SELECT day, booked_count, cancelled_count
		FROM daily_appointment_metrics
		WHERE branch_id = $1 AND day >= $2::date AND day <= $3::date
		ORDER BY day
	`, branchID, from, to)
	if err != nil {
		return BranchStats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var day time.Time
		var s DailyAppointmentStat
		if err := rows.Scan(&day, &s.BookedCount, &s.CancelledCount); err != nil {
			return BranchStats{}, err
		}
		s.Day = day.Format("2006-01-02")
		stats.Appointments = append(stats.Appointments, s)
	}
	if rows.Err() != nil {
		return BranchStats{}, rows.Err()
	}

	nrows, err := r.pool.Query(ctx, `
		SELECT day, channel, sent_count, failed_count
		FROM daily_notification_metrics
		WHERE branch_id = $1 AND day >= $2::date AND day <= $3::date
		ORDER BY day, channel
	`, branchID, from, to)
	if err != nil {
		return BranchStats{}, err
	}
	defer nrows.Close()
	for nrows.Next() {
		var day time.Time
		var s DailyNotificationStat
		if err := nrows.Scan(&day, &s.Channel, &s.SentCount, &s.FailedCount); err != nil {
			return BranchStats{}, err
		}
		s.Day = day.Format("2006-01-02")
		stats.Notifications = append(stats.Notifications, s)
	}
	if nrows.Err() != nil {
		return BranchStats{}, nrows.Err()
	}

	return stats, nil
}
