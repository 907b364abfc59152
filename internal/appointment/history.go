package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// recordingRepository decorates a Repository so every mutation appends a
// full-state snapshot. Wiring the snapshots here, at the persistence seam,
// means no call site can forget them. SweepOverdue writes its own history
// rows inside its transaction and passes through untouched.
type recordingRepository struct {
	Repository
	logger *slog.Logger
}

func NewRecording(inner Repository, logger *slog.Logger) Repository {
	return &recordingRepository{Repository: inner, logger: logger}
}

func (r *recordingRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	created, err := r.Repository.Create(ctx, a)
	if err != nil {
		return nil, err
	}
	if err := r.snapshot(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *recordingRepository) UpdateSchedule(ctx context.Context, id int64, date time.Time, startTime, endTime string, status Status) (*Appointment, error) {
	updated, err := r.Repository.UpdateSchedule(ctx, id, date, startTime, endTime, status)
	if err != nil {
		return nil, err
	}
	if err := r.snapshot(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *recordingRepository) UpdateStatus(ctx context.Context, id int64, from []Status, to Status) (*Appointment, error) {
	updated, err := r.Repository.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if err := r.snapshot(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *recordingRepository) RejectDuplicates(ctx context.Context, propertyID int64, date time.Time, startTime, endTime string, excludeID int64) ([]Appointment, error) {
	rejected, err := r.Repository.RejectDuplicates(ctx, propertyID, date, startTime, endTime, excludeID)
	if err != nil {
		return nil, err
	}
	for i := range rejected {
		if err := r.snapshot(ctx, &rejected[i]); err != nil {
			return nil, err
		}
	}
	return rejected, nil
}

func (r *recordingRepository) snapshot(ctx context.Context, a *Appointment) error {
	doc, err := a.Document()
	if err != nil {
		return fmt.Errorf("snapshot appointment %d: %w", a.ID, err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot appointment %d: %w", a.ID, err)
	}

	return r.AppendHistory(ctx, a.ID, a.AppointmentStatusID, raw)
}
