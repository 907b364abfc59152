package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/lazatu/realty-api/internal/query"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrStatusConflict means a compare-and-set transition found the row in a
	// different status than expected, i.e. a concurrent transition won.
	ErrStatusConflict = errors.New("appointment status changed concurrently")
)

// Repository contains all DB interactions needed by the appointment service
// and the background sweeps. Wrap it with NewRecording so every mutation
// appends a history snapshot.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, b *query.Builder) ([]Appointment, error)

	Create(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateSchedule rewrites date, times and status together, as a
	// reschedule does.
	UpdateSchedule(ctx context.Context, id int64, date time.Time, startTime, endTime string, status Status) (*Appointment, error)

	// UpdateStatus transitions the row only if its current status is one of
	// from. Returns ErrStatusConflict when the row exists in another status.
	UpdateStatus(ctx context.Context, id int64, from []Status, to Status) (*Appointment, error)

	// RejectDuplicates bulk-rejects every other appointment holding the
	// identical property slot, whatever its status, returning the rows it
	// transitioned.
	RejectDuplicates(ctx context.Context, propertyID int64, date time.Time, startTime, endTime string, excludeID int64) ([]Appointment, error)

	// LatestBookingFor returns the customer's most recent appointment on a
	// property, or ErrAppointmentNotFound.
	LatestBookingFor(ctx context.Context, propertyID, userID int64) (*Appointment, error)

	// ConfirmedExistsForSlot reports whether another appointment (excludeID
	// aside) already holds the slot confirmed.
	ConfirmedExistsForSlot(ctx context.Context, propertyID int64, date time.Time, startTime string, excludeID int64) (bool, error)

	// SweepOverdue runs both bulk transitions of the hourly cleanup in one
	// transaction: confirmed and past become completed, pending or reschedule
	// and past become expired. History rows are written in the same
	// transaction.
	SweepOverdue(ctx context.Context, today time.Time, nowTime string) (completed, expired int64, err error)

	// DueForReminder lists confirmed appointments on date whose start_time
	// falls inside [fromTime, toTime].
	DueForReminder(ctx context.Context, date time.Time, fromTime, toTime string) ([]Appointment, error)

	// TryMarkReminded records that a reminder went out and reports whether
	// this call was the first to do so.
	TryMarkReminded(ctx context.Context, appointmentID int64, remindOn time.Time) (bool, error)

	AppendHistory(ctx context.Context, appointmentID int64, status Status, details []byte) error

	// Histories returns all snapshots newest first.
	Histories(ctx context.Context, appointmentID int64) ([]History, error)
}
