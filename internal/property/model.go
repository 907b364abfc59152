package property

import (
	"encoding/json"
	"time"
)

type Status int64

const (
	StatusPublished Status = 1
	StatusPending   Status = 2
	StatusRejected  Status = 3
	StatusClosed    Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusPublished:
		return "published"
	case StatusPending:
		return "pending"
	case StatusRejected:
		return "rejected"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

// ExpiredAfterDays is how long a listing stays published after verification
// before it logically expires.
const ExpiredAfterDays = 15

type PropertyType int64

const (
	TypeCondo       PropertyType = 1
	TypeOffice      PropertyType = 2
	TypeHouseAndLot PropertyType = 3
)

type Photo struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Link       string    `json:"link"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Attachment struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Link       string    `json:"link"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Feature struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Property struct {
	ID               int64        `json:"id"`
	ListingID        string       `json:"listing_id"`
	PropertyTypeID   PropertyType `json:"property_type_id"`
	OfferTypeID      int64        `json:"offer_type_id"`
	FurnishedTypeID  int64        `json:"furnished_type_id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	BedroomCount     int          `json:"bedroom_count"`
	BathroomCount    int          `json:"bathroom_count"`
	GarageCount      int          `json:"garage_count"`
	LotSize          float64      `json:"lot_size"`
	FloorSize        float64      `json:"floor_size"`
	Price            float64      `json:"price"`
	PricePerSqm      float64      `json:"price_per_sqm"`
	Address          string       `json:"address"`
	FormattedAddress string       `json:"formatted_address"`
	Unit             string       `json:"unit"`
	BuildingName     string       `json:"building_name"`
	Street           string       `json:"street"`
	Barangay         string       `json:"barangay"`
	City             string       `json:"city"`
	ZipCode          string       `json:"zip_code"`
	Latitude         *float64     `json:"latitude"`
	Longitude        *float64     `json:"longitude"`
	LocationHash     string       `json:"location_hash"`
	Developer        string       `json:"developer"`
	Occupied         bool         `json:"occupied"`
	PropertyStatusID Status       `json:"property_status_id"`
	Comment          string       `json:"comment"`
	ExpiredAt        *time.Time   `json:"expired_at"`
	VerifiedAt       *time.Time   `json:"verified_at"`
	VerifiedBy       *int64       `json:"verified_by"`
	CreatedBy        int64        `json:"created_by"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`

	Photos      []Photo      `json:"photos"`
	Attachments []Attachment `json:"attachments"`
	Features    []Feature    `json:"features"`
}

// Expired reports the derived logical state: published listings whose
// expiry timestamp has passed. The stored status id never changes for this.
func (p *Property) Expired(now time.Time) bool {
	return p.PropertyStatusID == StatusPublished &&
		p.ExpiredAt != nil && !p.ExpiredAt.After(now)
}

// Document renders the property with its loaded relations as the JSON
// snapshot stored in history rows.
func (p *Property) Document() (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// History is one append-only property snapshot with the status in effect at
// snapshot time.
type History struct {
	ID               int64           `json:"id"`
	PropertyID       int64           `json:"property_id"`
	PropertyStatusID Status          `json:"property_status_id"`
	Details          json.RawMessage `json:"details"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
