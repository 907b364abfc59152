package appointment

import (
	"encoding/json"
	"time"
)

type Status int64

const (
	StatusConfirmed  Status = 1
	StatusPending    Status = 2
	StatusRejected   Status = 3
	StatusCancelled  Status = 4
	StatusReschedule Status = 5
	StatusCompleted  Status = 6
	StatusExpired    Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusPending:
		return "pending"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	case StatusReschedule:
		return "reschedule"
	case StatusCompleted:
		return "completed"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// Appointment is one viewing request. Date carries the calendar day; start
// and end are wall-clock "HH:MM" strings compared lexicographically, which
// matches how they compare as time-of-day.
type Appointment struct {
	ID                  int64     `json:"id"`
	PropertyID          int64     `json:"property_id"`
	UserID              int64     `json:"user_id"`
	AppointmentStatusID Status    `json:"appointment_status_id"`
	Date                time.Time `json:"date"`
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Document renders the snapshot stored in history rows. The primary key is
// dropped so replaying a snapshot can never collide with a live row.
func (a *Appointment) Document() (map[string]any, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "id")

	return doc, nil
}

// History is one append-only appointment snapshot.
type History struct {
	ID                  int64           `json:"id"`
	AppointmentID       int64           `json:"appointment_id"`
	AppointmentStatusID Status          `json:"appointment_status_id"`
	Details             json.RawMessage `json:"details"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Detail is the read model for a single appointment: the row itself plus
// the facts derived from its history.
type Detail struct {
	Appointment

	// RescheduledAfterConfirm is true when the two most recent snapshots
	// are Reschedule then Confirmed, newest first. The agent UI uses it to
	// show "previously confirmed" context on a reschedule request.
	RescheduledAfterConfirm bool `json:"rescheduled_after_confirm"`

	// Previous is the second-most-recent snapshot when one exists.
	Previous json.RawMessage `json:"previous,omitempty"`
}

// DeriveDetail computes the read-side facts from the appointment's history,
// newest first.
func DeriveDetail(a *Appointment, histories []History) Detail {
	d := Detail{Appointment: *a}

	if len(histories) >= 2 {
		d.RescheduledAfterConfirm = histories[0].AppointmentStatusID == StatusReschedule &&
			histories[1].AppointmentStatusID == StatusConfirmed
		d.Previous = histories[1].Details
	}

	return d
}
