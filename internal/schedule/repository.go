package schedule

import (
	"context"
	"errors"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrTypeNotFound     = errors.New("schedule type not found")
)

type Repository interface {
	GetByUserID(ctx context.Context, userID int64) (*Schedule, error)
	GetType(ctx context.Context, id int64) (*Type, error)

	// Create fails silently into a no-op when the user already has a
	// schedule; Update replaces the existing setup.
	Create(ctx context.Context, s *Schedule) error
	Update(ctx context.Context, s *Schedule) error
}
