package property

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lazatu/realty-api/internal/query"
)

const baseSelect = `
	SELECT p.id, p.listing_id, p.property_type_id, p.offer_type_id, p.furnished_type_id,
	       p.name, p.description, p.bedroom_count, p.bathroom_count, p.garage_count,
	       p.lot_size, p.floor_size, p.price, p.price_per_sqm,
	       p.address, p.formatted_address, p.unit, p.building_name, p.street,
	       p.barangay, p.city, p.zip_code, p.latitude, p.longitude, p.location_hash,
	       p.developer, p.occupied, p.property_status_id, p.comment,
	       p.expired_at, p.verified_at, p.verified_by, p.created_by,
	       p.created_at, p.updated_at
	FROM properties p`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanProperty(row pgx.Row) (*Property, error) {
	var p Property

	err := row.Scan(
		&p.ID, &p.ListingID, &p.PropertyTypeID, &p.OfferTypeID, &p.FurnishedTypeID,
		&p.Name, &p.Description, &p.BedroomCount, &p.BathroomCount, &p.GarageCount,
		&p.LotSize, &p.FloorSize, &p.Price, &p.PricePerSqm,
		&p.Address, &p.FormattedAddress, &p.Unit, &p.BuildingName, &p.Street,
		&p.Barangay, &p.City, &p.ZipCode, &p.Latitude, &p.Longitude, &p.LocationHash,
		&p.Developer, &p.Occupied, &p.PropertyStatusID, &p.Comment,
		&p.ExpiredAt, &p.VerifiedAt, &p.VerifiedBy, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Property, error) {
	row := r.pool.QueryRow(ctx, baseSelect+` WHERE p.id = $1`, id)

	p, err := scanProperty(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadRelations(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *PgRepository) List(ctx context.Context, b *query.Builder) ([]Property, error) {
	sql, args := b.SQL(baseSelect)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := r.loadRelations(ctx, &result[i]); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (r *PgRepository) Create(ctx context.Context, p *Property) (*Property, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO properties (
			listing_id, property_type_id, offer_type_id, furnished_type_id,
			name, description, bedroom_count, bathroom_count, garage_count,
			lot_size, floor_size, price, price_per_sqm,
			address, formatted_address, unit, building_name, street,
			barangay, city, zip_code, latitude, longitude, location_hash,
			developer, occupied, property_status_id, comment, created_by,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, now(), now())
		RETURNING id, created_at, updated_at
	`,
		p.ListingID, p.PropertyTypeID, p.OfferTypeID, p.FurnishedTypeID,
		p.Name, p.Description, p.BedroomCount, p.BathroomCount, p.GarageCount,
		p.LotSize, p.FloorSize, p.Price, p.PricePerSqm,
		p.Address, p.FormattedAddress, p.Unit, p.BuildingName, p.Street,
		p.Barangay, p.City, p.ZipCode, p.Latitude, p.Longitude, p.LocationHash,
		p.Developer, p.Occupied, p.PropertyStatusID, p.Comment, p.CreatedBy,
	)

	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}

	return p, nil
}

func (r *PgRepository) UpdateDetails(ctx context.Context, p *Property) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE properties
		SET offer_type_id = $2, furnished_type_id = $3,
		    name = $4, description = $5,
		    bedroom_count = $6, bathroom_count = $7, garage_count = $8,
		    lot_size = $9, floor_size = $10, price = $11, price_per_sqm = $12,
		    address = $13, formatted_address = $14, unit = $15,
		    building_name = $16, street = $17, barangay = $18, city = $19,
		    zip_code = $20, latitude = $21, longitude = $22, location_hash = $23,
		    developer = $24, occupied = $25, property_status_id = $26,
		    updated_at = now()
		WHERE id = $1
	`,
		p.ID, p.OfferTypeID, p.FurnishedTypeID,
		p.Name, p.Description,
		p.BedroomCount, p.BathroomCount, p.GarageCount,
		p.LotSize, p.FloorSize, p.Price, p.PricePerSqm,
		p.Address, p.FormattedAddress, p.Unit,
		p.BuildingName, p.Street, p.Barangay, p.City,
		p.ZipCode, p.Latitude, p.Longitude, p.LocationHash,
		p.Developer, p.Occupied, p.PropertyStatusID,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

func (r *PgRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	return r.set(ctx, id, `property_status_id = $2`, status)
}

func (r *PgRepository) SetComment(ctx context.Context, id int64, comment string) error {
	return r.set(ctx, id, `comment = $2`, comment)
}

func (r *PgRepository) SetExpiry(ctx context.Context, id int64, expiredAt time.Time) error {
	return r.set(ctx, id, `expired_at = $2`, expiredAt)
}

func (r *PgRepository) SetVerified(ctx context.Context, id int64, at time.Time, by int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE properties
		SET verified_at = $2, verified_by = $3, updated_at = now()
		WHERE id = $1
	`, id, at, by)
	if err != nil {
		return fmt.Errorf("stamp verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

func (r *PgRepository) Touch(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE properties SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

func (r *PgRepository) set(ctx context.Context, id int64, assignment string, value any) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE properties SET `+assignment+`, updated_at = now() WHERE id = $1`,
		id, value,
	)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	return nil
}

func (r *PgRepository) NextSequence(ctx context.Context) (int64, error) {
	var maxID int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM properties`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("max property id: %w", err)
	}
	return maxID + 1, nil
}

func (r *PgRepository) AddPhotos(ctx context.Context, propertyID int64, links []string) error {
	for _, link := range links {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO property_photos (property_id, link, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, propertyID, link)
		if err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
	}
	return nil
}

func (r *PgRepository) DeletePhotos(ctx context.Context, propertyID int64, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM property_photos WHERE property_id = $1 AND id = ANY($2)
	`, propertyID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete photos: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) AddAttachments(ctx context.Context, propertyID int64, links []string) error {
	for _, link := range links {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO property_attachments (property_id, link, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, propertyID, link)
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}
	return nil
}

func (r *PgRepository) DeleteAttachments(ctx context.Context, propertyID int64, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM property_attachments WHERE property_id = $1 AND id = ANY($2)
	`, propertyID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete attachments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) SyncFeatures(ctx context.Context, propertyID int64, featureIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin feature sync: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM property_feature WHERE property_id = $1`, propertyID); err != nil {
		return fmt.Errorf("clear features: %w", err)
	}

	for _, fid := range featureIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO property_feature (property_id, feature_id) VALUES ($1, $2)
		`, propertyID, fid); err != nil {
			return fmt.Errorf("attach feature: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ToggleInterest(ctx context.Context, propertyID, userID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO interested_users (property_id, user_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (property_id, user_id) DO NOTHING
	`, propertyID, userID)
	if err != nil {
		return false, fmt.Errorf("mark interest: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	_, err = r.pool.Exec(ctx, `
		DELETE FROM interested_users WHERE property_id = $1 AND user_id = $2
	`, propertyID, userID)
	if err != nil {
		return false, fmt.Errorf("clear interest: %w", err)
	}

	return false, nil
}

func (r *PgRepository) InterestedUserIDs(ctx context.Context, propertyID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM interested_users
		WHERE property_id = $1
		ORDER BY created_at
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *PgRepository) AppendHistory(ctx context.Context, propertyID int64, status Status, details []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO property_histories (property_id, property_status_id, details, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
	`, propertyID, status, details)
	if err != nil {
		return fmt.Errorf("append property history: %w", err)
	}

	return nil
}

func (r *PgRepository) Histories(ctx context.Context, propertyID int64) ([]History, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, property_id, property_status_id, details, created_at, updated_at
		FROM property_histories
		WHERE property_id = $1
		ORDER BY id DESC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []History
	for rows.Next() {
		var h History
		if err := rows.Scan(&h.ID, &h.PropertyID, &h.PropertyStatusID, &h.Details, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) loadRelations(ctx context.Context, p *Property) error {
	photos, err := r.pool.Query(ctx, `
		SELECT id, property_id, link, created_at, updated_at
		FROM property_photos WHERE property_id = $1 ORDER BY id
	`, p.ID)
	if err != nil {
		return err
	}
	defer photos.Close()
	for photos.Next() {
		var ph Photo
		if err := photos.Scan(&ph.ID, &ph.PropertyID, &ph.Link, &ph.CreatedAt, &ph.UpdatedAt); err != nil {
			return err
		}
		p.Photos = append(p.Photos, ph)
	}
	if err := photos.Err(); err != nil {
		return err
	}

	atts, err := r.pool.Query(ctx, `
		SELECT id, property_id, link, created_at, updated_at
		FROM property_attachments WHERE property_id = $1 ORDER BY id
	`, p.ID)
	if err != nil {
		return err
	}
	defer atts.Close()
	for atts.Next() {
		var at Attachment
		if err := atts.Scan(&at.ID, &at.PropertyID, &at.Link, &at.CreatedAt, &at.UpdatedAt); err != nil {
			return err
		}
		p.Attachments = append(p.Attachments, at)
	}
	if err := atts.Err(); err != nil {
		return err
	}

	feats, err := r.pool.Query(ctx, `
		SELECT f.id, f.name
		FROM features f
		JOIN property_feature pf ON pf.feature_id = f.id
		WHERE pf.property_id = $1
		ORDER BY f.id
	`, p.ID)
	if err != nil {
		return err
	}
	defer feats.Close()
	for feats.Next() {
		var f Feature
		if err := feats.Scan(&f.ID, &f.Name); err != nil {
			return err
		}
		p.Features = append(p.Features, f)
	}

	return feats.Err()
}
