package storage

import (
	"context"
	"encoding/json"

	"github.com/tireline/tireline/libs/db"
)

type Notification struct {
	AppointmentID string
	BranchID      string
	Kind          string
	Channel       string
	Recipient     string
	Locale        string
	Payload       map[string]any
	Status        string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, branch_id, kind, channel, recipient, locale, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.AppointmentID, n.BranchID, n.Kind, n.Channel, n.Recipient, n.Locale, payload, n.Status)
	return err
}
