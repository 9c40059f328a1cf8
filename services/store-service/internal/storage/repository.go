package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tireline/tireline/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type BranchProfile struct {
	BranchID    string
	Name        string
	Timezone    string
	OffsetsMins []int
}

func (r *Repository) GetOrCreateProfile(ctx context.Context, branchID string) (BranchProfile, error) {
	// Create a default profile if missing (keeps dev UX smooth while other services mature).
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branch_profiles (branch_id)
		VALUES ($1)
		ON CONFLICT (branch_id) DO NOTHING
	`, branchID)
	if err != nil {
		return BranchProfile{}, err
	}

	var p BranchProfile
	err = r.pool.QueryRow(ctx, `
		SELECT branch_id::text, name, timezone, reminder_offsets_minutes
		FROM branch_profiles
		WHERE branch_id = $1
	`, branchID).Scan(&p.BranchID, &p.Name, &p.Timezone, &p.OffsetsMins)
	return p, err
}

func (r *Repository) UpdateProfile(ctx context.Context, branchID string, name string, timezone string, offsetsMins []int) error {
	if len(offsetsMins) == 0 {
		offsetsMins = []int{1440, 60}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branch_profiles (branch_id, name, timezone, reminder_offsets_minutes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (branch_id) DO UPDATE
		SET name = EXCLUDED.name,
			timezone = EXCLUDED.timezone,
			reminder_offsets_minutes = EXCLUDED.reminder_offsets_minutes,
			updated_at = now()
	`, branchID, name, timezone, offsetsMins)
	return err
}

type InstallationService struct {
	ID           string
	BranchID     string
	Name         string
	DurationMins int
	StepMins     int
	Price        string
	Description  string
	CreatedAt    time.Time
}

func (r *Repository) CreateService(ctx context.Context, branchID, name string, durationMinutes, stepMinutes int, price string, description string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO installation_services (id, branch_id, name, duration_minutes, slot_step_minutes, price, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, branchID, name, durationMinutes, stepMinutes, price, description)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListServices(ctx context.Context, branchID string, limit int) ([]InstallationService, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, branch_id::text, name, duration_minutes, slot_step_minutes, price::text, description, created_at
		FROM installation_services
		WHERE branch_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, branchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InstallationService
	for rows.Next() {
		var s InstallationService
		if err := rows.Scan(&s.ID, &s.BranchID, &s.Name, &s.DurationMins, &s.StepMins, &s.Price, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) GetServiceGeometry(ctx context.Context, branchID, serviceID string) (durationMins int, stepMins int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT duration_minutes, slot_step_minutes
		FROM installation_services
		WHERE branch_id = $1 AND id = $2
	`, branchID, serviceID).Scan(&durationMins, &stepMins)
	return durationMins, stepMins, err
}

type Bay struct {
	ID       string
	BranchID string
	Name     string
	IsActive bool
}

func (r *Repository) CreateBay(ctx context.Context, branchID, name string, isActive bool) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO bays (branch_id, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING id::text
	`, branchID, name, isActive).Scan(&id)
	if err != nil {
		return "", err
	}

	// Default schedule: Mon-Fri 09:00-17:00 open, Sat/Sun closed.
	for wd := 0; wd <= 6; wd++ {
		isOpen := wd >= 1 && wd <= 5
		openMin := 540
		closeMin := 1020
		if !isOpen {
			openMin = 0
			closeMin = 0
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO bay_hours (bay_id, weekday, is_open, open_minute, close_minute)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (bay_id, weekday) DO NOTHING
		`, id, wd, isOpen, openMin, closeMin); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListBays(ctx context.Context, branchID string, limit int) ([]Bay, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, branch_id::text, name, is_active
		FROM bays
		WHERE branch_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, branchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bay
	for rows.Next() {
		var b Bay
		if err := rows.Scan(&b.ID, &b.BranchID, &b.Name, &b.IsActive); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type BayHours struct {
	BayID       string
	Weekday     int
	IsOpen      bool
	OpenMinute  int
	CloseMinute int
}

func (r *Repository) GetBayHours(ctx context.Context, branchID, bayID string, weekday int) (BayHours, error) {
	var bh BayHours
	err := r.pool.QueryRow(ctx, `
		SELECT h.bay_id::text, h.weekday, h.is_open, h.open_minute, h.close_minute
		FROM bay_hours h
		JOIN bays b ON b.id = h.bay_id
		WHERE b.branch_id = $1 AND h.bay_id = $2 AND h.weekday = $3
	`, branchID, bayID, weekday).Scan(&bh.BayID, &bh.Weekday, &bh.IsOpen, &bh.OpenMinute, &bh.CloseMinute)
	if err == nil {
		return bh, nil
	}
	if err == pgx.ErrNoRows {
		// Default fallback if schedule wasn't seeded.
		return BayHours{BayID: bayID, Weekday: weekday, IsOpen: weekday >= 1 && weekday <= 5, OpenMinute: 540, CloseMinute: 1020}, nil
	}
	return BayHours{}, err
}

func (r *Repository) ListBayHours(ctx context.Context, branchID, bayID string) ([]BayHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT h.bay_id::text, h.weekday, h.is_open, h.open_minute, h.close_minute
		FROM bay_hours h
		JOIN bays b ON b.id = h.bay_id
		WHERE b.branch_id = $1 AND h.bay_id = $2
		ORDER BY h.weekday ASC
	`, branchID, bayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BayHours
	for rows.Next() {
		var bh BayHours
		if err := rows.Scan(&bh.BayID, &bh.Weekday, &bh.IsOpen, &bh.OpenMinute, &bh.CloseMinute); err != nil {
			return nil, err
		}
		out = append(out, bh)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) UpsertBayHours(ctx context.Context, branchID, bayID string, weekday int, isOpen bool, openMinute int, closeMinute int) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bays WHERE id = $1 AND branch_id = $2
		)
	`, bayID, branchID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO bay_hours (bay_id, weekday, is_open, open_minute, close_minute)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bay_id, weekday) DO UPDATE
		SET is_open = EXCLUDED.is_open,
			open_minute = EXCLUDED.open_minute,
			close_minute = EXCLUDED.close_minute
	`, bayID, weekday, isOpen, openMinute, closeMinute)
	return err
}

type Closure struct {
	ID        string
	BranchID  string
	BayID     string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
	CreatedAt time.Time
}

// CreateClosure blocks a time range for one bay or, with an empty bayID, for
// the whole branch (public holiday, renovation).
func (r *Repository) CreateClosure(ctx context.Context, branchID, bayID string, startTime, endTime time.Time, reason string) (string, error) {
	id := uuid.NewString()
	var bay any
	if bayID != "" {
		var exists bool
		if err := r.pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM bays WHERE id = $1 AND branch_id = $2
			)
		`, bayID, branchID).Scan(&exists); err != nil {
			return "", err
		}
		if !exists {
			return "", pgx.ErrNoRows
		}
		bay = bayID
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO branch_closures (id, branch_id, bay_id, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, branchID, bay, startTime, endTime, reason)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListClosures(ctx context.Context, branchID, bayID string, from, to time.Time, limit int) ([]Closure, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.id::text, c.branch_id::text, COALESCE(c.bay_id::text, ''), c.start_time, c.end_time, c.reason, c.created_at
		FROM branch_closures c
		WHERE c.branch_id = $1
			AND (c.bay_id IS NULL OR c.bay_id::text = $2)
			AND c.end_time > $3
			AND c.start_time < $4
		ORDER BY c.start_time ASC
		LIMIT $5
	`, branchID, bayID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Closure
	for rows.Next() {
		var c Closure
		if err := rows.Scan(&c.ID, &c.BranchID, &c.BayID, &c.StartTime, &c.EndTime, &c.Reason, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeleteClosure(ctx context.Context, branchID, closureID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM branch_closures
		WHERE branch_id = $1 AND id = $2
	`, branchID, closureID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
