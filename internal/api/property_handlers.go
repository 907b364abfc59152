package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lazatu/realty-api/internal/property"
	"github.com/lazatu/realty-api/internal/query"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/user"
)

func propertyInput(req PropertyRequest) property.CreateInput {
	return property.CreateInput{
		PropertyTypeID:   property.PropertyType(req.PropertyTypeID),
		OfferTypeID:      req.OfferTypeID,
		FurnishedTypeID:  req.FurnishedTypeID,
		Name:             req.Name,
		Description:      req.Description,
		BedroomCount:     req.BedroomCount,
		BathroomCount:    req.BathroomCount,
		GarageCount:      req.GarageCount,
		LotSize:          req.LotSize,
		FloorSize:        req.FloorSize,
		Price:            req.Price,
		PricePerSqm:      req.PricePerSqm,
		Address:          req.Address,
		FormattedAddress: req.FormattedAddress,
		Unit:             req.Unit,
		BuildingName:     req.BuildingName,
		Street:           req.Street,
		Barangay:         req.Barangay,
		City:             req.City,
		ZipCode:          req.ZipCode,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Developer:        req.Developer,
		Occupied:         req.Occupied,
		FeatureIDs:       req.FeatureIDs,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func createPropertyHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), GetActor(r.Context()), propertyInput(req))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func updatePropertyHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		var req PropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.Update(r.Context(), GetActor(r.Context()), id, propertyInput(req))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

func getPropertyHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func listPropertiesHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		params := property.ListParams{
			Filter:   query.ParseFilterParams(q),
			Sort:     q.Get("sort"),
			Scopes:   query.CSV(q.Get("scope")),
			PageSize: int(query.Int(q.Get("page_size"))),
			Page:     int(query.Int(q.Get("page"))),
		}
		if lat, err := strconv.ParseFloat(q.Get("latitude"), 64); err == nil {
			params.Latitude = &lat
		}
		if lon, err := strconv.ParseFloat(q.Get("longitude"), 64); err == nil {
			params.Longitude = &lon
		}

		properties, err := svc.List(r.Context(), GetActor(r.Context()), params)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, properties)
	}
}

func propertyChangesHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		changes, err := svc.Changes(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, changes)
	}
}

// propertyTransitionHandler wraps the status transitions that take no body.
func propertyTransitionHandler(fn func(r *http.Request, id int64) error, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		if err := fn(r, id); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: message})
	}
}

func rejectPropertyHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		var req RejectPropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := svc.Reject(r.Context(), GetActor(r.Context()), id, req.Comment); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Property rejected."})
	}
}

func addPhotosHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		var req LinksRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Links) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "links must be a non-empty array")
			return
		}

		if err := svc.AddPhotos(r.Context(), GetActor(r.Context()), id, req.Links); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, MessageResponse{Message: "Photos uploaded."})
	}
}

func removePhotosHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		var req IDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		deleted, err := svc.RemovePhotos(r.Context(), GetActor(r.Context()), id, req.IDs)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
	}
}

func addAttachmentsHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		var req LinksRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Links) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "links must be a non-empty array")
			return
		}

		if err := svc.AddAttachments(r.Context(), GetActor(r.Context()), id, req.Links); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, MessageResponse{Message: "Attachments uploaded."})
	}
}

func removeAttachmentsHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		var req IDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		deleted, err := svc.RemoveAttachments(r.Context(), GetActor(r.Context()), id, req.IDs)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DeletedResponse{Deleted: deleted})
	}
}

func toggleInterestHandler(svc *property.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		interested, err := svc.ToggleInterest(r.Context(), GetActor(r.Context()), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, InterestResponse{Interested: interested})
	}
}

// interestedUsersHandler lists who favorited a listing. Users deleted since
// they favorited are skipped.
func interestedUsersHandler(svc *property.Service, users user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		ids, err := svc.InterestedUsers(r.Context(), GetActor(r.Context()), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		result := make([]user.User, 0, len(ids))
		for _, uid := range ids {
			u, err := users.GetByID(r.Context(), uid)
			if err != nil {
				continue
			}
			result = append(result, *u)
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// recordHitHandler counts a unique listing view. The viewer key is the
// authenticated user id when present, the client address otherwise.
func recordHitHandler(svc *property.Service, hits *redisclient.HitCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		viewerKey := r.RemoteAddr
		if actor := GetActor(r.Context()); actor.Authenticated() {
			viewerKey = "u:" + strconv.FormatInt(actor.UserID, 10)
		}

		if err := hits.Record(r.Context(), p.ListingID, viewerKey); err != nil {
			writeServiceError(w, err)
			return
		}

		count, err := hits.Count(r.Context(), p.ListingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, HitsResponse{ListingID: p.ListingID, Hits: count})
	}
}

func getHitsHandler(svc *property.Service, hits *redisclient.HitCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		p, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		count, err := hits.Count(r.Context(), p.ListingID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, HitsResponse{ListingID: p.ListingID, Hits: count})
	}
}
