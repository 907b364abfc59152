package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetByUserID(ctx context.Context, userID int64) (*Schedule, error) {
	var (
		s   Schedule
		raw []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, schedule_type_id, setup, created_at, updated_at
		FROM business_account_schedules
		WHERE user_id = $1
	`, userID).Scan(&s.ID, &s.UserID, &s.ScheduleTypeID, &raw, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(raw, &s.Setup); err != nil {
		return nil, fmt.Errorf("decode schedule setup: %w", err)
	}

	return &s, nil
}

func (r *PgRepository) GetType(ctx context.Context, id int64) (*Type, error) {
	var t Type

	err := r.pool.QueryRow(ctx, `
		SELECT id, name, days, start_time, end_time
		FROM business_account_schedule_types
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Days, &t.StartTime, &t.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTypeNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *PgRepository) Create(ctx context.Context, s *Schedule) error {
	raw, err := json.Marshal(s.Setup)
	if err != nil {
		return fmt.Errorf("encode schedule setup: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO business_account_schedules (user_id, schedule_type_id, setup, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id) DO NOTHING
	`, s.UserID, s.ScheduleTypeID, raw)
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	return nil
}

func (r *PgRepository) Update(ctx context.Context, s *Schedule) error {
	raw, err := json.Marshal(s.Setup)
	if err != nil {
		return fmt.Errorf("encode schedule setup: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE business_account_schedules
		SET schedule_type_id = $2,
		    setup = $3,
		    updated_at = now()
		WHERE user_id = $1
	`, s.UserID, s.ScheduleTypeID, raw)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}

	return nil
}
