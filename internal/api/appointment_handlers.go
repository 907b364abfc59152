package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lazatu/realty-api/internal/appointment"
	"github.com/lazatu/realty-api/internal/query"
)

func parseBooking(r *http.Request) (BookingRequest, time.Time, bool) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, time.Time{}, false
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return req, time.Time{}, false
	}

	return req, date, true
}

func createBookingHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		req, date, ok := parseBooking(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "date must be YYYY-MM-DD")
			return
		}

		created, err := svc.Create(r.Context(), GetActor(r.Context()), propertyID, date, req.StartTime, req.EndTime)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

func cancelBookingHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		cancelled, err := svc.Cancel(r.Context(), GetActor(r.Context()), propertyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, cancelled)
	}
}

func rescheduleBookingHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		req, date, ok := parseBooking(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "date must be YYYY-MM-DD")
			return
		}

		updated, err := svc.Reschedule(r.Context(), GetActor(r.Context()), propertyID, date, req.StartTime, req.EndTime)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, updated)
	}
}

func currentBookingHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_property_id", "id must be a positive integer")
			return
		}

		detail, err := svc.CurrentBooking(r.Context(), GetActor(r.Context()), propertyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, detail)
	}
}

func confirmAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}

		confirmed, err := svc.Confirm(r.Context(), GetActor(r.Context()), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, confirmed)
	}
}

func rejectAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}

		rejected, err := svc.Reject(r.Context(), GetActor(r.Context()), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, rejected)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a positive integer")
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, detail)
	}
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		params := appointment.ListParams{
			Filter:     query.ParseFilterParams(q),
			Sort:       q.Get("sort"),
			PropertyID: query.Int(q.Get("property_id")),
			PageSize:   int(query.Int(q.Get("page_size"))),
			Page:       int(query.Int(q.Get("page"))),
		}

		for _, scope := range query.CSV(q.Get("scope")) {
			if scope == "with_previous_details" {
				details, err := svc.ListDetailed(r.Context(), GetActor(r.Context()), params)
				if err != nil {
					writeServiceError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, details)
				return
			}
		}

		appointments, err := svc.List(r.Context(), GetActor(r.Context()), params)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointments)
	}
}
