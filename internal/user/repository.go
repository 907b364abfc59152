package user

import (
	"context"
	"errors"

	"github.com/lazatu/realty-api/internal/query"
)

var ErrUserNotFound = errors.New("user not found")

// Repository contains all DB interactions needed around accounts and roles.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)

	// Admin users receive a copy of every booking request notification.
	ListAdmins(ctx context.Context) ([]User, error)

	List(ctx context.Context, b *query.Builder) ([]User, error)
}
