package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazatu/realty-api/internal/query"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const baseSelect = `
	SELECT a.id, a.property_id, a.user_id, a.appointment_status_id,
	       a.date, a.start_time, a.end_time, a.created_at, a.updated_at
	FROM appointments a
`

// sweepHistoryDoc mirrors Appointment.Document: the full row minus the
// primary key.
const sweepHistoryDoc = `jsonb_build_object(
	'property_id', moved.property_id,
	'user_id', moved.user_id,
	'appointment_status_id', moved.appointment_status_id,
	'date', moved.date,
	'start_time', moved.start_time,
	'end_time', moved.end_time,
	'created_at', moved.created_at,
	'updated_at', moved.updated_at
)`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PropertyID,
		&a.UserID,
		&a.AppointmentStatusID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, baseSelect+` WHERE a.id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) List(ctx context.Context, b *query.Builder) ([]Appointment, error) {
	sql, args := b.SQL(baseSelect)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (property_id, user_id, appointment_status_id,
		                          date, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, property_id, user_id, appointment_status_id,
		          date, start_time, end_time, created_at, updated_at
	`, a.PropertyID, a.UserID, a.AppointmentStatusID, a.Date, a.StartTime, a.EndTime)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateSchedule(ctx context.Context, id int64, date time.Time, startTime, endTime string, status Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET date = $2,
		    start_time = $3,
		    end_time = $4,
		    appointment_status_id = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, property_id, user_id, appointment_status_id,
		          date, start_time, end_time, created_at, updated_at
	`, id, date, startTime, endTime, status)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id int64, from []Status, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET appointment_status_id = $2,
		    updated_at = now()
		WHERE id = $1
		  AND appointment_status_id = ANY($3)
		RETURNING id, property_id, user_id, appointment_status_id,
		          date, start_time, end_time, created_at, updated_at
	`, id, to, statusIDs(from))

	a, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Distinguish a missing row from a row the CAS refused.
			if _, getErr := r.GetByID(ctx, id); getErr == nil {
				return nil, ErrStatusConflict
			}
		}
		return nil, err
	}

	return a, nil
}

func (r *PgRepository) RejectDuplicates(ctx context.Context, propertyID int64, date time.Time, startTime, endTime string, excludeID int64) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE appointments
		SET appointment_status_id = $6,
		    updated_at = now()
		WHERE property_id = $1
		  AND date = $2
		  AND start_time = $3
		  AND end_time = $4
		  AND id <> $5
		  AND appointment_status_id <> $6
		RETURNING id, property_id, user_id, appointment_status_id,
		          date, start_time, end_time, created_at, updated_at
	`, propertyID, date, startTime, endTime, excludeID, StatusRejected)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) LatestBookingFor(ctx context.Context, propertyID, userID int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, baseSelect+`
		WHERE a.property_id = $1 AND a.user_id = $2
		ORDER BY a.id DESC
		LIMIT 1
	`, propertyID, userID)
	return scanAppointment(row)
}

func (r *PgRepository) ConfirmedExistsForSlot(ctx context.Context, propertyID int64, date time.Time, startTime string, excludeID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE property_id = $1
			  AND date = $2
			  AND start_time = $3
			  AND appointment_status_id = $4
			  AND id <> $5
		)
	`, propertyID, date, startTime, StatusConfirmed, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) SweepOverdue(ctx context.Context, today time.Time, nowTime string) (int64, int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin sweep tx: %w", err)
	}
	defer tx.Rollback(ctx)

	completed, err := sweepTransition(ctx, tx, today, nowTime,
		[]Status{StatusConfirmed}, StatusCompleted)
	if err != nil {
		return 0, 0, fmt.Errorf("complete overdue confirmed: %w", err)
	}

	expired, err := sweepTransition(ctx, tx, today, nowTime,
		[]Status{StatusPending, StatusReschedule}, StatusExpired)
	if err != nil {
		return 0, 0, fmt.Errorf("expire overdue requests: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit sweep tx: %w", err)
	}

	return completed, expired, nil
}

// sweepTransition moves every appointment in one of from whose slot ended
// before now into to, writing a history row per transition.
func sweepTransition(ctx context.Context, tx pgx.Tx, today time.Time, nowTime string, from []Status, to Status) (int64, error) {
	tag, err := tx.Exec(ctx, `
		WITH moved AS (
			UPDATE appointments
			SET appointment_status_id = $1,
			    updated_at = now()
			WHERE appointment_status_id = ANY($2)
			  AND (date < $3 OR (date = $3 AND end_time <= $4))
			RETURNING id, property_id, user_id, appointment_status_id,
			          date, start_time, end_time, created_at, updated_at
		)
		INSERT INTO appointment_histories
			(appointment_id, appointment_status_id, details, created_at, updated_at)
		SELECT moved.id, moved.appointment_status_id, `+sweepHistoryDoc+`, now(), now()
		FROM moved
	`, to, statusIDs(from), today, nowTime)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) DueForReminder(ctx context.Context, date time.Time, fromTime, toTime string) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, baseSelect+`
		WHERE a.appointment_status_id = $1
		  AND a.date = $2
		  AND a.start_time >= $3
		  AND a.start_time <= $4
	`, StatusConfirmed, date, fromTime, toTime)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) TryMarkReminded(ctx context.Context, appointmentID int64, remindOn time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_reminders (appointment_id, remind_on, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (appointment_id, remind_on) DO NOTHING
	`, appointmentID, remindOn)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRepository) AppendHistory(ctx context.Context, appointmentID int64, status Status, details []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_histories
			(appointment_id, appointment_status_id, details, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
	`, appointmentID, status, details)
	if err != nil {
		return fmt.Errorf("append appointment history: %w", err)
	}
	return nil
}

func (r *PgRepository) Histories(ctx context.Context, appointmentID int64) ([]History, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, appointment_status_id, details, created_at, updated_at
		FROM appointment_histories
		WHERE appointment_id = $1
		ORDER BY id DESC
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []History
	for rows.Next() {
		var h History
		if err := rows.Scan(&h.ID, &h.AppointmentID, &h.AppointmentStatusID,
			&h.Details, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func statusIDs(statuses []Status) []int64 {
	ids := make([]int64, len(statuses))
	for i, s := range statuses {
		ids[i] = int64(s)
	}
	return ids
}
