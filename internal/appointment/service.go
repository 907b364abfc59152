package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lazatu/realty-api/internal/auth"
	"github.com/lazatu/realty-api/internal/notify"
	"github.com/lazatu/realty-api/internal/property"
	"github.com/lazatu/realty-api/internal/query"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/user"
	"github.com/lazatu/realty-api/internal/validate"
)

// ErrSlotBeingBooked is returned when another request holds the slot lock.
// Callers should retry.
var ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")

const (
	// cancelCutoff is how close to a same-day appointment's start a customer
	// may still cancel.
	cancelCutoff = 6 * time.Hour

	defaultDuration = time.Hour
)

// liveStatuses are the states in which a booking still occupies the
// customer's one-request-per-property allowance.
var liveStatuses = []Status{StatusConfirmed, StatusPending, StatusReschedule}

// customerActionable are the states a customer may cancel or reschedule
// from.
var customerActionable = []Status{StatusConfirmed, StatusPending, StatusRejected}

type Service struct {
	repo       Repository
	props      property.Repository
	users      user.Repository
	locker     redisclient.Locker
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time

	reminderLead   time.Duration
	reminderWindow time.Duration
}

func NewService(repo Repository, props property.Repository, users user.Repository,
	locker redisclient.Locker, dispatcher notify.Dispatcher, logger *slog.Logger,
	reminderLead, reminderWindow time.Duration) *Service {
	return &Service{
		repo:           repo,
		props:          props,
		users:          users,
		locker:         locker,
		dispatcher:     dispatcher,
		logger:         logger,
		now:            time.Now,
		reminderLead:   reminderLead,
		reminderWindow: reminderWindow,
	}
}

// WithClock overrides the service clock. Tests pin it to a fixed instant.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create books a viewing request. The slot lock serializes the
// confirmed-slot check and the insert, so two customers racing for the same
// slot cannot both slip past the check.
func (s *Service) Create(ctx context.Context, actor auth.Actor, propertyID int64, date time.Time, startTime, endTime string) (*Appointment, error) {
	if !actor.Authenticated() {
		return nil, auth.ErrForbidden
	}

	prop, err := s.props.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	date = dateOnly(date)
	today := dateOnly(s.now())
	if !date.After(today) {
		return nil, validate.Errorf("The date must be at least one day ahead.")
	}

	if endTime == "" {
		endTime, err = addHour(startTime)
		if err != nil {
			return nil, validate.Errorf("The start time must be in HH:MM format.")
		}
	}
	if endTime <= startTime {
		return nil, validate.Errorf("The end time must be after the start time.")
	}

	latest, err := s.repo.LatestBookingFor(ctx, propertyID, actor.UserID)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("load latest booking: %w", err)
	}
	if latest != nil && statusIn(latest.AppointmentStatusID, liveStatuses) {
		return nil, validate.Errorf("You already have an active booking for this property.")
	}

	var created *Appointment

	slotKey := redisclient.SlotKey(propertyID, date.Format("2006-01-02"), startTime)
	err = s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		taken, err := s.repo.ConfirmedExistsForSlot(lockCtx, propertyID, date, startTime, 0)
		if err != nil {
			return fmt.Errorf("check confirmed slot: %w", err)
		}
		if taken {
			return validate.Errorf("The slot is already taken.")
		}

		created, err = s.repo.Create(lockCtx, &Appointment{
			PropertyID:          propertyID,
			UserID:              actor.UserID,
			AppointmentStatusID: StatusPending,
			Date:                date,
			StartTime:           startTime,
			EndTime:             endTime,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notifyNewRequest(ctx, notify.EventAppointmentRequested, created, prop)

	return created, nil
}

// Confirm accepts a request and auto-rejects every competing request for the
// identical slot. The slot lock closes the race where two agents confirm two
// different requests for the same slot concurrently.
func (s *Service) Confirm(ctx context.Context, actor auth.Actor, id int64) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prop, err := s.props.GetByID(ctx, appt.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := s.agentOrAdmin(actor, prop); err != nil {
		return nil, err
	}

	if !statusIn(appt.AppointmentStatusID, []Status{StatusPending, StatusReschedule}) {
		return nil, validate.Errorf("The appointment status should be pending or reschedule.")
	}

	var confirmed *Appointment
	var rejected []Appointment

	slotKey := redisclient.SlotKey(appt.PropertyID, appt.Date.Format("2006-01-02"), appt.StartTime)
	err = s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		confirmed, err = s.repo.UpdateStatus(lockCtx, id,
			[]Status{StatusPending, StatusReschedule}, StatusConfirmed)
		if err != nil {
			return err
		}

		rejected, err = s.repo.RejectDuplicates(lockCtx, appt.PropertyID,
			appt.Date, appt.StartTime, appt.EndTime, appt.ID)
		if err != nil {
			return fmt.Errorf("reject competing requests: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	dateStr := confirmed.Date.Format("2006-01-02")
	s.notifyUser(ctx, notify.EventAppointmentConfirmed, confirmed.UserID,
		notify.BookingConfirmedBody(prop.Name, dateStr, confirmed.StartTime))
	for _, loser := range rejected {
		s.notifyUser(ctx, notify.EventAppointmentRejected, loser.UserID,
			notify.BookingRejectedBody(prop.Name, dateStr, loser.StartTime))
	}

	return confirmed, nil
}

// Reject declines a request.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, id int64) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prop, err := s.props.GetByID(ctx, appt.PropertyID)
	if err != nil {
		return nil, err
	}
	if err := s.agentOrAdmin(actor, prop); err != nil {
		return nil, err
	}

	if !statusIn(appt.AppointmentStatusID, []Status{StatusPending, StatusReschedule}) {
		return nil, validate.Errorf("The appointment status should be pending or reschedule.")
	}

	rejected, err := s.repo.UpdateStatus(ctx, id,
		[]Status{StatusPending, StatusReschedule}, StatusRejected)
	if err != nil {
		return nil, err
	}

	s.notifyUser(ctx, notify.EventAppointmentRejected, rejected.UserID,
		notify.BookingRejectedBody(prop.Name, rejected.Date.Format("2006-01-02"), rejected.StartTime))

	return rejected, nil
}

// Cancel cancels the customer's latest booking on a property. Same-day
// cancellations are blocked inside the pre-appointment cutoff window.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, propertyID int64) (*Appointment, error) {
	appt, err := s.repo.LatestBookingFor(ctx, propertyID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if !statusIn(appt.AppointmentStatusID, customerActionable) {
		return nil, validate.Errorf("The appointment status should be confirmed, pending or rejected.")
	}

	now := s.now()
	today := dateOnly(now)
	date := dateOnly(appt.Date)

	if date.Before(today) {
		return nil, validate.Errorf("The appointment date has already passed.")
	}
	if date.Equal(today) && appt.StartTime < now.Add(cancelCutoff).Format("15:04") {
		return nil, validate.Errorf("The appointment can only be cancelled at least 6 hours before it starts.")
	}

	cancelled, err := s.repo.UpdateStatus(ctx, appt.ID, customerActionable, StatusCancelled)
	if err != nil {
		return nil, err
	}

	if prop, err := s.props.GetByID(ctx, propertyID); err == nil {
		customerName := s.userName(ctx, actor.UserID)
		s.notifyUser(ctx, notify.EventAppointmentCancelled, prop.CreatedBy,
			notify.BookingCancelledBody(customerName, prop.Name,
				cancelled.Date.Format("2006-01-02"), cancelled.StartTime))
	}

	return cancelled, nil
}

// Reschedule moves the customer's latest booking to a new slot. A booking
// already due today or earlier can no longer be moved, and the new slot must
// not already hold a confirmed appointment.
func (s *Service) Reschedule(ctx context.Context, actor auth.Actor, propertyID int64, date time.Time, startTime, endTime string) (*Appointment, error) {
	appt, err := s.repo.LatestBookingFor(ctx, propertyID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if !statusIn(appt.AppointmentStatusID, customerActionable) {
		return nil, validate.Errorf("The appointment status should be confirmed, pending or rejected.")
	}

	today := dateOnly(s.now())
	if !dateOnly(appt.Date).After(today) {
		return nil, validate.Errorf("The appointment can no longer be rescheduled.")
	}

	if endTime == "" {
		endTime, err = addHour(startTime)
		if err != nil {
			return nil, validate.Errorf("The start time must be in HH:MM format.")
		}
	}
	if endTime <= startTime {
		return nil, validate.Errorf("The end time must be after the start time.")
	}

	// A previously confirmed booking becomes a reschedule request so the
	// agent sees it needs re-approval; anything else is a plain new request.
	next := StatusPending
	if appt.AppointmentStatusID == StatusConfirmed {
		next = StatusReschedule
	}

	var updated *Appointment

	slotKey := redisclient.SlotKey(propertyID, dateOnly(date).Format("2006-01-02"), startTime)
	err = s.locker.WithSlotLock(ctx, slotKey, func(lockCtx context.Context) error {
		taken, err := s.repo.ConfirmedExistsForSlot(lockCtx, propertyID, dateOnly(date), startTime, appt.ID)
		if err != nil {
			return fmt.Errorf("check confirmed slot: %w", err)
		}
		if taken {
			return validate.Errorf("The slot is already taken.")
		}

		updated, err = s.repo.UpdateSchedule(lockCtx, appt.ID, dateOnly(date), startTime, endTime, next)
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	if prop, err := s.props.GetByID(ctx, propertyID); err == nil {
		customerName := s.userName(ctx, actor.UserID)
		s.notifyUser(ctx, notify.EventAppointmentRescheduled, prop.CreatedBy,
			notify.BookingRescheduledBody(customerName, prop.Name,
				updated.Date.Format("2006-01-02"), updated.StartTime))
	}

	return updated, nil
}

// Get returns one appointment with its derived history facts.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	histories, err := s.repo.Histories(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := DeriveDetail(appt, histories)
	return &detail, nil
}

// CurrentBooking returns the actor's latest booking on a property with its
// derived history facts.
func (s *Service) CurrentBooking(ctx context.Context, actor auth.Actor, propertyID int64) (*Detail, error) {
	if !actor.Authenticated() {
		return nil, auth.ErrForbidden
	}

	appt, err := s.repo.LatestBookingFor(ctx, propertyID, actor.UserID)
	if err != nil {
		return nil, err
	}

	histories, err := s.repo.Histories(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	detail := DeriveDetail(appt, histories)
	return &detail, nil
}

// ListParams is the request side of the list endpoint.
type ListParams struct {
	Filter     map[string]string
	Sort       string
	PropertyID int64
	PageSize   int
	Page       int
}

// List returns appointments visible to the actor. Customers only ever see
// their own bookings; staff see everything, optionally scoped to a property.
func (s *Service) List(ctx context.Context, actor auth.Actor, params ListParams) ([]Appointment, error) {
	b := query.NewBuilder()

	query.ApplyFilters(b, Filters(s.now()), params.Filter)
	if params.Sort != "" {
		query.ApplySort(b, Sorts(), params.Sort)
	}

	if !actor.IsStaff() {
		b.Where("a.user_id = ?", actor.UserID)
	}
	if params.PropertyID != 0 {
		b.Where("a.property_id = ?", params.PropertyID)
	}

	b.OrderBy("a.id", "desc")
	b.Paginate(params.PageSize, params.Page)

	return s.repo.List(ctx, b)
}

// ListDetailed returns the same rows as List with the derived history facts
// attached to each booking.
func (s *Service) ListDetailed(ctx context.Context, actor auth.Actor, params ListParams) ([]Detail, error) {
	appointments, err := s.List(ctx, actor, params)
	if err != nil {
		return nil, err
	}

	details := make([]Detail, 0, len(appointments))
	for i := range appointments {
		histories, err := s.repo.Histories(ctx, appointments[i].ID)
		if err != nil {
			return nil, err
		}
		details = append(details, DeriveDetail(&appointments[i], histories))
	}

	return details, nil
}

// SweepOverdue runs the hourly cleanup: confirmed appointments whose slot
// has passed complete, pending and reschedule ones expire. Both transitions
// commit or roll back together.
func (s *Service) SweepOverdue(ctx context.Context) error {
	now := s.now()

	completed, expired, err := s.repo.SweepOverdue(ctx, dateOnly(now), now.Format("15:04"))
	if err != nil {
		return fmt.Errorf("sweep overdue appointments: %w", err)
	}

	s.logger.Info("appointment sweep finished",
		slog.Int64("completed", completed),
		slog.Int64("expired", expired))

	return nil
}

// SendReminders notifies both parties of confirmed appointments starting
// about reminderLead from now. The reminder marker makes the send
// once-per-slot even when poll windows overlap.
func (s *Service) SendReminders(ctx context.Context) error {
	now := s.now()
	target := now.Add(s.reminderLead)

	due, err := s.repo.DueForReminder(ctx, dateOnly(now),
		target.Add(-s.reminderWindow).Format("15:04"),
		target.Add(s.reminderWindow).Format("15:04"))
	if err != nil {
		return fmt.Errorf("find appointments due for reminder: %w", err)
	}

	for i := range due {
		appt := &due[i]

		first, err := s.repo.TryMarkReminded(ctx, appt.ID, dateOnly(appt.Date))
		if err != nil {
			s.logger.Error("mark appointment reminded",
				slog.Int64("appointment_id", appt.ID), slog.Any("error", err))
			continue
		}
		if !first {
			continue
		}

		prop, err := s.props.GetByID(ctx, appt.PropertyID)
		if err != nil {
			s.logger.Error("load property for reminder",
				slog.Int64("appointment_id", appt.ID), slog.Any("error", err))
			continue
		}

		body := notify.BookingReminderBody(prop.Name, appt.StartTime)
		s.notifyUser(ctx, notify.EventAppointmentReminder, appt.UserID, body)
		s.notifyUser(ctx, notify.EventAppointmentReminder, prop.CreatedBy, body)
	}

	return nil
}

// notifyNewRequest tells the property's agent and every admin about a fresh
// booking request.
func (s *Service) notifyNewRequest(ctx context.Context, event string, appt *Appointment, prop *property.Property) {
	customerName := s.userName(ctx, appt.UserID)
	body := notify.BookingRequestedBody(customerName, prop.Name,
		appt.Date.Format("2006-01-02"), appt.StartTime)

	s.notifyUser(ctx, event, prop.CreatedBy, body)

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("list admins for notification", slog.Any("error", err))
		return
	}
	for _, admin := range admins {
		if admin.ID == prop.CreatedBy {
			continue
		}
		s.notifyUser(ctx, event, admin.ID, body)
	}
}

// notifyUser dispatches best-effort: a failed notification is logged and
// never rolls back the transition that caused it.
func (s *Service) notifyUser(ctx context.Context, event string, userID int64, body string) {
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

func (s *Service) userName(ctx context.Context, id int64) string {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "A customer"
	}
	return u.FullName()
}

// agentOrAdmin allows the property's agent and admin-role users through.
func (s *Service) agentOrAdmin(actor auth.Actor, prop *property.Property) error {
	if actor.UserID == prop.CreatedBy || actor.HasRole(auth.RoleAdmin) {
		return nil
	}
	return auth.ErrForbidden
}

func statusIn(status Status, set []Status) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}

func addHour(startTime string) (string, error) {
	t, err := time.Parse("15:04", startTime)
	if err != nil {
		return "", err
	}
	return t.Add(defaultDuration).Format("15:04"), nil
}
