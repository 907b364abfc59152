package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lazatu/realty-api/internal/auth"
	"github.com/lazatu/realty-api/internal/query"
	"github.com/lazatu/realty-api/internal/schedule"
	"github.com/lazatu/realty-api/internal/user"
)

func getScheduleHandler(repo schedule.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if !actor.Authenticated() {
			writeServiceError(w, auth.ErrForbidden)
			return
		}

		s, err := repo.GetByUserID(r.Context(), actor.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, s)
	}
}

// upsertScheduleHandler replaces the caller's weekly availability. A custom
// setup wins; otherwise the week is generated from the chosen preset.
func upsertScheduleHandler(repo schedule.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if !actor.Authenticated() || !actor.HasRole(auth.RoleBusiness) {
			writeServiceError(w, auth.ErrForbidden)
			return
		}

		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var setup schedule.WeekSchedule
		if req.Setup != nil {
			setup = *req.Setup
		} else {
			preset, err := repo.GetType(r.Context(), req.ScheduleTypeID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			setup = schedule.Generate(*preset)
		}

		s := &schedule.Schedule{
			UserID:         actor.UserID,
			ScheduleTypeID: req.ScheduleTypeID,
			Setup:          setup,
		}

		_, err := repo.GetByUserID(r.Context(), actor.UserID)
		switch {
		case errors.Is(err, schedule.ErrScheduleNotFound):
			err = repo.Create(r.Context(), s)
		case err == nil:
			err = repo.Update(r.Context(), s)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, s)
	}
}

func listUsersHandler(repo user.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if !actor.IsStaff() {
			writeServiceError(w, auth.ErrForbidden)
			return
		}

		q := r.URL.Query()

		b := query.NewBuilder()
		query.ApplyFilters(b, user.Filters(), query.ParseFilterParams(q))
		b.OrderBy("u.id", "asc")
		b.Paginate(int(query.Int(q.Get("page_size"))), int(query.Int(q.Get("page"))))

		users, err := repo.List(r.Context(), b)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, users)
	}
}
