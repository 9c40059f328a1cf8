package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tireline/tireline/libs/db"
	"github.com/tireline/tireline/services/booking-service/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	BranchID        string
	IdempotencyKey  string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *AppointmentRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, branchID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, branchID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (branch_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (branch_id, idempotency_key) DO NOTHING
	`, branchID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, branchID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *AppointmentRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, branchID, key, appointmentID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE branch_id = $1 AND idempotency_key = $2
	`, branchID, key, appointmentID, statusCode, response)
	return err
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(branch_id, service_id, bay_id, customer_name, customer_email, customer_phone,
			 vehicle_plate, locale, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, appt.BranchID, appt.ServiceID, appt.BayID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
		appt.VehiclePlate, appt.Locale, appt.StartTime, appt.EndTime, appt.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) GetAppointmentForUpdate(ctx context.Context, tx pgx.Tx, branchID, appointmentID string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND branch_id = $2
		FOR UPDATE
	`, appointmentID, branchID)
	return scanAppointment(row)
}

func (r *AppointmentRepository) CancelAppointment(ctx context.Context, tx pgx.Tx, branchID, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND branch_id = $2
		RETURNING cancelled_at
	`, appointmentID, branchID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// ListForBayDay returns every appointment touching [dayStart, dayEnd) for one
// bay, regardless of status. Callers filter cancelled/no-show records when
// deriving busy intervals.
func (r *AppointmentRepository) ListForBayDay(ctx context.Context, q querier, branchID, bayID string, dayStart, dayEnd time.Time) ([]model.Appointment, error) {
	rows, err := q.Query(ctx, appointmentColumns+`
		FROM appointments
		WHERE branch_id = $1
			AND bay_id = $2
			AND start_time < $4
			AND end_time > $3
		ORDER BY start_time ASC
	`, branchID, bayID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) Pool() *db.Pool {
	return r.pool
}

// ConfirmAppointment flips a scheduled appointment to confirmed once the
// confirmation notification is known to be delivered. A no-op for any other
// status, so late or duplicate deliveries cannot resurrect a cancellation.
func (r *AppointmentRepository) ConfirmAppointment(ctx context.Context, appointmentID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'confirmed'
		WHERE id = $1 AND status = 'scheduled'
	`, appointmentID)
	return err
}

func (r *AppointmentRepository) ListByBranch(ctx context.Context, branchID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, appointmentColumns+`
		FROM appointments
		WHERE branch_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, branchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// querier lets list queries run on either the pool or an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const appointmentColumns = `
		SELECT id, branch_id, service_id, bay_id, customer_name, customer_email, customer_phone,
			COALESCE(vehicle_plate, ''), COALESCE(locale, ''),
			start_time, end_time, status, cancelled_at, COALESCE(cancellation_reason, ''), created_at
`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.BranchID,
		&appt.ServiceID,
		&appt.BayID,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&appt.VehiclePlate,
		&appt.Locale,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *AppointmentRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, branchID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT branch_id::text,
			idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE branch_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, branchID, key).Scan(
		&rec.BranchID,
		&rec.IdempotencyKey,
		&rec.AppointmentID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
