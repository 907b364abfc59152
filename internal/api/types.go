package api

import (
	"github.com/lazatu/realty-api/internal/schedule"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PropertyRequest struct {
	PropertyTypeID   int64    `json:"property_type_id"`
	OfferTypeID      int64    `json:"offer_type_id"`
	FurnishedTypeID  int64    `json:"furnished_type_id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	BedroomCount     int      `json:"bedroom_count"`
	BathroomCount    int      `json:"bathroom_count"`
	GarageCount      int      `json:"garage_count"`
	LotSize          float64  `json:"lot_size"`
	FloorSize        float64  `json:"floor_size"`
	Price            float64  `json:"price"`
	PricePerSqm      float64  `json:"price_per_sqm"`
	Address          string   `json:"address"`
	FormattedAddress string   `json:"formatted_address"`
	Unit             string   `json:"unit"`
	BuildingName     string   `json:"building_name"`
	Street           string   `json:"street"`
	Barangay         string   `json:"barangay"`
	City             string   `json:"city"`
	ZipCode          string   `json:"zip_code"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Developer        string   `json:"developer"`
	Occupied         bool     `json:"occupied"`
	FeatureIDs       []int64  `json:"feature_ids"`
}

type RejectPropertyRequest struct {
	Comment string `json:"comment"`
}

type LinksRequest struct {
	Links []string `json:"links"`
}

type IDsRequest struct {
	IDs []int64 `json:"ids"`
}

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type BookingRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}

type ScheduleRequest struct {
	ScheduleTypeID int64                  `json:"schedule_type_id"`
	Setup          *schedule.WeekSchedule `json:"setup,omitempty"`
}

type HitsResponse struct {
	ListingID string `json:"listing_id"`
	Hits      int64  `json:"hits"`
}

type InterestResponse struct {
	Interested bool `json:"interested"`
}
