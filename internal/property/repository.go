package property

import (
	"context"
	"errors"
	"time"

	"github.com/lazatu/realty-api/internal/query"
)

var ErrPropertyNotFound = errors.New("property not found")

// Repository contains all DB interactions needed by the property service.
// GetByID returns the property with photos, attachments and features loaded,
// which is also the shape history snapshots are taken from.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Property, error)
	List(ctx context.Context, b *query.Builder) ([]Property, error)

	Create(ctx context.Context, p *Property) (*Property, error)
	UpdateDetails(ctx context.Context, p *Property) error
	SetStatus(ctx context.Context, id int64, status Status) error
	SetComment(ctx context.Context, id int64, comment string) error
	SetExpiry(ctx context.Context, id int64, expiredAt time.Time) error
	SetVerified(ctx context.Context, id int64, at time.Time, by int64) error

	// Touch refreshes updated_at so a snapshot's timestamp reflects the
	// mutation even when no scalar column changed.
	Touch(ctx context.Context, id int64) error

	// NextSequence is the sequential part of a new listing id.
	NextSequence(ctx context.Context) (int64, error)

	AddPhotos(ctx context.Context, propertyID int64, links []string) error
	DeletePhotos(ctx context.Context, propertyID int64, ids []int64) (int64, error)
	AddAttachments(ctx context.Context, propertyID int64, links []string) error
	DeleteAttachments(ctx context.Context, propertyID int64, ids []int64) (int64, error)
	SyncFeatures(ctx context.Context, propertyID int64, featureIDs []int64) error

	// ToggleInterest flips the user's favorite mark and reports whether the
	// user is now interested.
	ToggleInterest(ctx context.Context, propertyID, userID int64) (bool, error)
	InterestedUserIDs(ctx context.Context, propertyID int64) ([]int64, error)

	AppendHistory(ctx context.Context, propertyID int64, status Status, details []byte) error

	// Histories returns all snapshots newest first.
	Histories(ctx context.Context, propertyID int64) ([]History, error)
}
