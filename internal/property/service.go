package property

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"

	"github.com/lazatu/realty-api/internal/auth"
	"github.com/lazatu/realty-api/internal/history"
	"github.com/lazatu/realty-api/internal/notify"
	"github.com/lazatu/realty-api/internal/query"
	"github.com/lazatu/realty-api/internal/user"
	"github.com/lazatu/realty-api/internal/validate"
)

type Service struct {
	repo       Repository
	users      user.Repository
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo Repository, users user.Repository, dispatcher notify.Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Tests pin it to a fixed instant.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInput carries the validated listing fields for create and update.
type CreateInput struct {
	PropertyTypeID   PropertyType
	OfferTypeID      int64
	FurnishedTypeID  int64
	Name             string
	Description      string
	BedroomCount     int
	BathroomCount    int
	GarageCount      int
	LotSize          float64
	FloorSize        float64
	Price            float64
	PricePerSqm      float64
	Address          string
	FormattedAddress string
	Unit             string
	BuildingName     string
	Street           string
	Barangay         string
	City             string
	ZipCode          string
	Latitude         *float64
	Longitude        *float64
	Developer        string
	Occupied         bool
	FeatureIDs       []int64
}

// Create stores a new listing pending verification. The listing id is
// assigned here and never changes afterwards.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Property, error) {
	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("next listing sequence: %w", err)
	}

	now := s.now()

	p := &Property{
		ListingID:        GenerateListingID(in.PropertyTypeID, now, actor.UserID, seq),
		PropertyTypeID:   in.PropertyTypeID,
		OfferTypeID:      in.OfferTypeID,
		FurnishedTypeID:  in.FurnishedTypeID,
		Name:             in.Name,
		Description:      in.Description,
		BedroomCount:     in.BedroomCount,
		BathroomCount:    in.BathroomCount,
		GarageCount:      in.GarageCount,
		LotSize:          in.LotSize,
		FloorSize:        in.FloorSize,
		Price:            in.Price,
		PricePerSqm:      in.PricePerSqm,
		Address:          in.Address,
		FormattedAddress: in.FormattedAddress,
		Unit:             in.Unit,
		BuildingName:     in.BuildingName,
		Street:           in.Street,
		Barangay:         in.Barangay,
		City:             in.City,
		ZipCode:          in.ZipCode,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		LocationHash:     locationHash(in.Latitude, in.Longitude),
		Developer:        in.Developer,
		Occupied:         in.Occupied,
		PropertyStatusID: StatusPending,
		CreatedBy:        actor.UserID,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}

	if len(in.FeatureIDs) > 0 {
		if err := s.repo.SyncFeatures(ctx, created.ID, in.FeatureIDs); err != nil {
			return nil, err
		}
	}

	if err := s.saveToHistory(ctx, created.ID); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, created.ID)
}

// Update edits listing content. Any content edit sends the listing back to
// pending for re-review and appends a history snapshot.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id int64, in CreateInput) (*Property, error) {
	p, err := s.ownedProperty(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	p.OfferTypeID = in.OfferTypeID
	p.FurnishedTypeID = in.FurnishedTypeID
	p.Name = in.Name
	p.Description = in.Description
	p.BedroomCount = in.BedroomCount
	p.BathroomCount = in.BathroomCount
	p.GarageCount = in.GarageCount
	p.LotSize = in.LotSize
	p.FloorSize = in.FloorSize
	p.Price = in.Price
	p.PricePerSqm = in.PricePerSqm
	p.Address = in.Address
	p.FormattedAddress = in.FormattedAddress
	p.Unit = in.Unit
	p.BuildingName = in.BuildingName
	p.Street = in.Street
	p.Barangay = in.Barangay
	p.City = in.City
	p.ZipCode = in.ZipCode
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.LocationHash = locationHash(in.Latitude, in.Longitude)
	p.Developer = in.Developer
	p.Occupied = in.Occupied
	p.PropertyStatusID = StatusPending

	if err := s.repo.UpdateDetails(ctx, p); err != nil {
		return nil, err
	}

	if in.FeatureIDs != nil {
		if err := s.repo.SyncFeatures(ctx, p.ID, in.FeatureIDs); err != nil {
			return nil, err
		}
	}

	if err := s.saveToHistory(ctx, p.ID); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, p.ID)
}

// AddPhotos attaches uploaded photo URLs and sends the listing back to
// pending.
func (s *Service) AddPhotos(ctx context.Context, actor auth.Actor, id int64, links []string) error {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.SetStatus(ctx, id, StatusPending); err != nil {
		return err
	}
	if err := s.repo.AddPhotos(ctx, id, links); err != nil {
		return err
	}

	return s.saveToHistory(ctx, id)
}

// RemovePhotos deletes photos by id. Deleting zero rows is a no-op: no
// status change, no snapshot.
func (s *Service) RemovePhotos(ctx context.Context, actor auth.Actor, id int64, photoIDs []int64) (int64, error) {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeletePhotos(ctx, id, photoIDs)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, nil
	}

	if err := s.repo.SetStatus(ctx, id, StatusPending); err != nil {
		return deleted, err
	}

	return deleted, s.saveToHistory(ctx, id)
}

func (s *Service) AddAttachments(ctx context.Context, actor auth.Actor, id int64, links []string) error {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repo.SetStatus(ctx, id, StatusPending); err != nil {
		return err
	}
	if err := s.repo.AddAttachments(ctx, id, links); err != nil {
		return err
	}

	return s.saveToHistory(ctx, id)
}

func (s *Service) RemoveAttachments(ctx context.Context, actor auth.Actor, id int64, attachmentIDs []int64) (int64, error) {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return 0, err
	}

	deleted, err := s.repo.DeleteAttachments(ctx, id, attachmentIDs)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, nil
	}

	if err := s.repo.SetStatus(ctx, id, StatusPending); err != nil {
		return deleted, err
	}

	return deleted, s.saveToHistory(ctx, id)
}

// Verify publishes a pending listing. The expiry lands on end of today plus
// the publication window.
func (s *Service) Verify(ctx context.Context, actor auth.Actor, id int64) error {
	if !actor.HasRole(auth.RoleAdmin) {
		return auth.ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.PropertyStatusID != StatusPending {
		return validate.Errorf("The property status should be pending.")
	}

	now := s.now()
	expiry := endOfDay(now).AddDate(0, 0, ExpiredAfterDays)

	if err := s.repo.SetStatus(ctx, id, StatusPublished); err != nil {
		return err
	}
	if err := s.repo.SetExpiry(ctx, id, expiry); err != nil {
		return err
	}
	if err := s.repo.SetVerified(ctx, id, now, actor.UserID); err != nil {
		return err
	}

	if err := s.appendHistory(ctx, id, StatusPublished); err != nil {
		return err
	}

	s.notifyOwner(ctx, notify.EventPropertyVerified, p.CreatedBy,
		notify.PropertyVerifiedBody(p.ListingID))

	return nil
}

// Reject declines a pending listing with a reason for the owner.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, id int64, comment string) error {
	if !actor.HasRole(auth.RoleAdmin) {
		return auth.ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.PropertyStatusID != StatusPending {
		return validate.Errorf("The property status should be pending.")
	}
	if len(strings.TrimSpace(comment)) < 5 {
		return validate.Errorf("The comment must be at least 5 characters.")
	}

	if err := s.repo.SetStatus(ctx, id, StatusRejected); err != nil {
		return err
	}
	if err := s.repo.SetComment(ctx, id, comment); err != nil {
		return err
	}

	if err := s.appendHistory(ctx, id, StatusRejected); err != nil {
		return err
	}

	s.notifyOwner(ctx, notify.EventPropertyRejected, p.CreatedBy,
		notify.PropertyRejectedBody(p.ListingID, comment))

	return nil
}

// Sold closes a published listing.
func (s *Service) Sold(ctx context.Context, actor auth.Actor, id int64) error {
	p, err := s.ownedProperty(ctx, actor, id)
	if err != nil {
		return err
	}
	if p.PropertyStatusID != StatusPublished {
		return validate.Errorf("The property status should be verified.")
	}

	if err := s.repo.SetStatus(ctx, id, StatusClosed); err != nil {
		return err
	}

	return s.appendHistory(ctx, id, StatusClosed)
}

// Unpublish pulls a published listing back to pending.
func (s *Service) Unpublish(ctx context.Context, actor auth.Actor, id int64) error {
	if !actor.HasRole(auth.RoleAdmin) {
		return auth.ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.PropertyStatusID != StatusPublished {
		return validate.Errorf("The property status should be verified.")
	}

	if err := s.repo.SetStatus(ctx, id, StatusPending); err != nil {
		return err
	}

	return s.appendHistory(ctx, id, StatusPending)
}

// Republish renews an expired published listing for another publication
// window starting now.
func (s *Service) Republish(ctx context.Context, actor auth.Actor, id int64) error {
	p, err := s.ownedProperty(ctx, actor, id)
	if err != nil {
		return err
	}

	now := s.now()

	if p.PropertyStatusID != StatusPublished {
		return validate.Errorf("The property status should be verified.")
	}
	if !p.Expired(now) {
		return validate.Errorf("The property should be expired.")
	}

	if err := s.repo.SetExpiry(ctx, id, now.AddDate(0, 0, ExpiredAfterDays)); err != nil {
		return err
	}

	return s.appendHistory(ctx, id, StatusPublished)
}

// Extend pushes a live listing's expiry further out. Unlike Republish this
// writes no history snapshot, matching the behavior consumers already rely
// on.
func (s *Service) Extend(ctx context.Context, actor auth.Actor, id int64) error {
	p, err := s.ownedProperty(ctx, actor, id)
	if err != nil {
		return err
	}

	now := s.now()

	if p.PropertyStatusID != StatusPublished {
		return validate.Errorf("The property status should be verified.")
	}
	if p.Expired(now) || p.ExpiredAt == nil {
		return validate.Errorf("The property should not be expired.")
	}

	return s.repo.SetExpiry(ctx, id, p.ExpiredAt.AddDate(0, 0, ExpiredAfterDays))
}

// Get returns one listing with relations loaded.
func (s *Service) Get(ctx context.Context, id int64) (*Property, error) {
	return s.repo.GetByID(ctx, id)
}

// ToggleInterest flips the caller's favorite mark on a listing and reports
// whether the caller is now interested.
func (s *Service) ToggleInterest(ctx context.Context, actor auth.Actor, id int64) (bool, error) {
	if !actor.Authenticated() {
		return false, auth.ErrForbidden
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return false, err
	}

	return s.repo.ToggleInterest(ctx, id, actor.UserID)
}

// InterestedUsers lists who favorited a listing. Restricted to the owner and
// admins.
func (s *Service) InterestedUsers(ctx context.Context, actor auth.Actor, id int64) ([]int64, error) {
	if _, err := s.ownedProperty(ctx, actor, id); err != nil {
		return nil, err
	}

	return s.repo.InterestedUserIDs(ctx, id)
}

// Changes computes the field-level audit trail from the listing's history
// snapshots, most recent change first.
func (s *Service) Changes(ctx context.Context, id int64) ([]history.ChangeSet, error) {
	rows, err := s.repo.Histories(ctx, id)
	if err != nil {
		return nil, err
	}

	snapshots := make([]history.Snapshot, 0, len(rows))
	for _, row := range rows {
		var details map[string]any
		if err := json.Unmarshal(row.Details, &details); err != nil {
			return nil, fmt.Errorf("decode history %d: %w", row.ID, err)
		}
		snapshots = append(snapshots, history.Snapshot{
			Details:   details,
			UpdatedAt: row.UpdatedAt,
		})
	}

	return history.Changes(snapshots), nil
}

// ListParams is the request side of the list endpoint.
type ListParams struct {
	Filter    map[string]string
	Sort      string
	Scopes    []string
	Latitude  *float64
	Longitude *float64
	PageSize  int
	Page      int
}

// List applies the property filter/sort registries and the default published
// scope, newest listings first.
func (s *Service) List(ctx context.Context, actor auth.Actor, params ListParams) ([]Property, error) {
	now := s.now()
	b := query.NewBuilder()

	query.ApplyFilters(b, Filters(actor, now), params.Filter)

	if _, ok := params.Filter["property_status"]; !ok {
		scope := "published"
		if actor.Authenticated() && actor.IsStaff() {
			for _, sc := range params.Scopes {
				if sc == "all_property_status" {
					scope = "all"
				}
			}
		}
		if scope == "published" {
			b.Where("p.property_status_id = ? AND p.expired_at > ?", int64(StatusPublished), now)
		} else {
			b.Where("p.property_status_id = ANY(?)", []int64{1, 2, 3, 4})
		}
	}

	if params.Sort != "" {
		query.ApplySort(b, Sorts(), params.Sort)

		for _, token := range query.CSV(params.Sort) {
			if token == "distance" && params.Latitude != nil && params.Longitude != nil {
				DistanceSort(b, *params.Latitude, *params.Longitude)
			}
		}
	}

	b.OrderBy("p.created_at", "desc")
	b.Paginate(params.PageSize, params.Page)

	return s.repo.List(ctx, b)
}

// saveToHistory touches the row and appends the full current state, the way
// every content mutation records itself.
func (s *Service) saveToHistory(ctx context.Context, id int64) error {
	if err := s.repo.Touch(ctx, id); err != nil {
		return err
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	doc, err := fresh.Document()
	if err != nil {
		return fmt.Errorf("snapshot property %d: %w", id, err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot property %d: %w", id, err)
	}

	return s.repo.AppendHistory(ctx, id, fresh.PropertyStatusID, raw)
}

// appendHistory snapshots after a status transition, recording the status id
// now in effect.
func (s *Service) appendHistory(ctx context.Context, id int64, status Status) error {
	if err := s.repo.Touch(ctx, id); err != nil {
		return err
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	doc, err := fresh.Document()
	if err != nil {
		return fmt.Errorf("snapshot property %d: %w", id, err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot property %d: %w", id, err)
	}

	return s.repo.AppendHistory(ctx, id, status, raw)
}

// notifyOwner dispatches best-effort: a failed notification is logged and
// never rolls back the transition that caused it.
func (s *Service) notifyOwner(ctx context.Context, event string, userID int64, body string) {
	msg := notify.Message{
		Event:      event,
		UserID:     userID,
		Body:       body,
		OccurredAt: s.now(),
	}

	if u, err := s.users.GetByID(ctx, userID); err == nil {
		msg.Mobile = u.Mobile
	}

	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		s.logger.Error("dispatch notification",
			slog.String("event", event),
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}
}

// ownedProperty loads the listing and checks the actor owns it or is an
// admin.
func (s *Service) ownedProperty(ctx context.Context, actor auth.Actor, id int64) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.CreatedBy != actor.UserID && !actor.HasRole(auth.RoleAdmin) {
		return nil, auth.ErrForbidden
	}

	return p, nil
}

func locationHash(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return ""
	}
	return geohash.Encode(*lat, *lon)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
