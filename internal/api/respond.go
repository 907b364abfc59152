package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lazatu/realty-api/internal/appointment"
	"github.com/lazatu/realty-api/internal/auth"
	"github.com/lazatu/realty-api/internal/property"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/schedule"
	"github.com/lazatu/realty-api/internal/user"
	"github.com/lazatu/realty-api/internal/validate"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps domain errors onto HTTP statuses. Guard violations
// carry their reason to the caller; anything unrecognized is a 500 with the
// detail withheld.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *validate.Error

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Reason)
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "you are not allowed to perform this action")
	case errors.Is(err, property.ErrPropertyNotFound):
		writeError(w, http.StatusNotFound, "property_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, schedule.ErrScheduleNotFound):
		writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
	case errors.Is(err, schedule.ErrTypeNotFound):
		writeError(w, http.StatusNotFound, "schedule_type_not_found", err.Error())
	case errors.Is(err, appointment.ErrStatusConflict):
		writeError(w, http.StatusConflict, "status_conflict", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		slog.Error("unhandled service error", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
