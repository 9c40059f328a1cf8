package model

import "time"

const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

type Appointment struct {
	ID            string
	BranchID      string
	ServiceID     string
	BayID         string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	VehiclePlate  string
	Locale        string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedAt     time.Time
}
