package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lazatu/realty-api/internal/appointment"
	"github.com/lazatu/realty-api/internal/property"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/schedule"
	"github.com/lazatu/realty-api/internal/user"
)

type RouterConfig struct {
	Properties   *property.Service
	Appointments *appointment.Service
	Schedules    schedule.Repository
	Users        user.Repository
	Hits         *redisclient.HitCounter
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(ActorMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", listPropertiesHandler(cfg.Properties))
		r.Post("/", createPropertyHandler(cfg.Properties))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getPropertyHandler(cfg.Properties))
			r.Put("/", updatePropertyHandler(cfg.Properties))
			r.Get("/changes", propertyChangesHandler(cfg.Properties))

			r.Post("/photos", addPhotosHandler(cfg.Properties))
			r.Delete("/photos", removePhotosHandler(cfg.Properties))
			r.Post("/attachments", addAttachmentsHandler(cfg.Properties))
			r.Delete("/attachments", removeAttachmentsHandler(cfg.Properties))

			r.Post("/verify", propertyTransitionHandler(func(req *http.Request, id int64) error {
				return cfg.Properties.Verify(req.Context(), GetActor(req.Context()), id)
			}, "Property verified."))
			r.Post("/reject", rejectPropertyHandler(cfg.Properties))
			r.Post("/sold", propertyTransitionHandler(func(req *http.Request, id int64) error {
				return cfg.Properties.Sold(req.Context(), GetActor(req.Context()), id)
			}, "Property marked as sold."))
			r.Post("/unpublish", propertyTransitionHandler(func(req *http.Request, id int64) error {
				return cfg.Properties.Unpublish(req.Context(), GetActor(req.Context()), id)
			}, "Property unpublished."))
			r.Post("/republish", propertyTransitionHandler(func(req *http.Request, id int64) error {
				return cfg.Properties.Republish(req.Context(), GetActor(req.Context()), id)
			}, "Property republished."))
			r.Post("/extend", propertyTransitionHandler(func(req *http.Request, id int64) error {
				return cfg.Properties.Extend(req.Context(), GetActor(req.Context()), id)
			}, "Property expiry extended."))

			r.Get("/hits", getHitsHandler(cfg.Properties, cfg.Hits))
			r.Post("/hits", recordHitHandler(cfg.Properties, cfg.Hits))

			r.Post("/interest", toggleInterestHandler(cfg.Properties))
			r.Get("/interested", interestedUsersHandler(cfg.Properties, cfg.Users))

			r.Get("/appointments", currentBookingHandler(cfg.Appointments))
			r.Post("/appointments", createBookingHandler(cfg.Appointments))
			r.Put("/appointments", rescheduleBookingHandler(cfg.Appointments))
			r.Post("/appointments/cancel", cancelBookingHandler(cfg.Appointments))
		})
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", listAppointmentsHandler(cfg.Appointments))
		r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
		r.Post("/{id}/confirm", confirmAppointmentHandler(cfg.Appointments))
		r.Post("/{id}/reject", rejectAppointmentHandler(cfg.Appointments))
	})

	r.Get("/schedule", getScheduleHandler(cfg.Schedules))
	r.Put("/schedule", upsertScheduleHandler(cfg.Schedules))

	r.Get("/users", listUsersHandler(cfg.Users))

	return r
}
