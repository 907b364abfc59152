package appointment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/lazatu/realty-api/internal/auth"
	"github.com/lazatu/realty-api/internal/notify"
	"github.com/lazatu/realty-api/internal/property"
	"github.com/lazatu/realty-api/internal/query"
	redisclient "github.com/lazatu/realty-api/internal/redis"
	"github.com/lazatu/realty-api/internal/user"
	"github.com/lazatu/realty-api/internal/validate"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	appointments map[int64]*Appointment
	histories    map[int64][]History
	reminders    map[string]bool
	nextID       int64
	nextHistID   int64
	now          time.Time
}

func newFakeRepo(now time.Time) *fakeRepo {
	return &fakeRepo{
		appointments: map[int64]*Appointment{},
		histories:    map[int64][]History{},
		reminders:    map[string]bool{},
		now:          now,
	}
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *fakeRepo) List(_ context.Context, _ *query.Builder) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	f.nextID++
	clone := *a
	clone.ID = f.nextID
	clone.CreatedAt = f.now
	clone.UpdatedAt = f.now
	f.appointments[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (f *fakeRepo) UpdateSchedule(_ context.Context, id int64, date time.Time, startTime, endTime string, status Status) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Date = date
	a.StartTime = startTime
	a.EndTime = endTime
	a.AppointmentStatusID = status
	a.UpdatedAt = f.now
	clone := *a
	return &clone, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id int64, from []Status, to Status) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if !statusIn(a.AppointmentStatusID, from) {
		return nil, ErrStatusConflict
	}
	a.AppointmentStatusID = to
	a.UpdatedAt = f.now
	clone := *a
	return &clone, nil
}

func (f *fakeRepo) RejectDuplicates(_ context.Context, propertyID int64, date time.Time, startTime, endTime string, excludeID int64) ([]Appointment, error) {
	var rejected []Appointment
	for _, a := range f.appointments {
		if a.PropertyID != propertyID || a.ID == excludeID {
			continue
		}
		if !a.Date.Equal(date) || a.StartTime != startTime || a.EndTime != endTime {
			continue
		}
		if a.AppointmentStatusID == StatusRejected {
			continue
		}
		a.AppointmentStatusID = StatusRejected
		a.UpdatedAt = f.now
		rejected = append(rejected, *a)
	}
	return rejected, nil
}

func (f *fakeRepo) LatestBookingFor(_ context.Context, propertyID, userID int64) (*Appointment, error) {
	var latest *Appointment
	for _, a := range f.appointments {
		if a.PropertyID != propertyID || a.UserID != userID {
			continue
		}
		if latest == nil || a.ID > latest.ID {
			latest = a
		}
	}
	if latest == nil {
		return nil, ErrAppointmentNotFound
	}
	clone := *latest
	return &clone, nil
}

func (f *fakeRepo) ConfirmedExistsForSlot(_ context.Context, propertyID int64, date time.Time, startTime string, excludeID int64) (bool, error) {
	for _, a := range f.appointments {
		if a.ID == excludeID {
			continue
		}
		if a.PropertyID == propertyID && a.Date.Equal(date) &&
			a.StartTime == startTime && a.AppointmentStatusID == StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SweepOverdue(_ context.Context, today time.Time, nowTime string) (int64, int64, error) {
	var completed, expired int64
	for _, a := range f.appointments {
		past := a.Date.Before(today) || (a.Date.Equal(today) && a.EndTime <= nowTime)
		if !past {
			continue
		}
		switch a.AppointmentStatusID {
		case StatusConfirmed:
			a.AppointmentStatusID = StatusCompleted
			completed++
		case StatusPending, StatusReschedule:
			a.AppointmentStatusID = StatusExpired
			expired++
		}
	}
	return completed, expired, nil
}

func (f *fakeRepo) DueForReminder(_ context.Context, date time.Time, fromTime, toTime string) ([]Appointment, error) {
	var due []Appointment
	for _, a := range f.appointments {
		if a.AppointmentStatusID == StatusConfirmed && a.Date.Equal(date) &&
			a.StartTime >= fromTime && a.StartTime <= toTime {
			due = append(due, *a)
		}
	}
	return due, nil
}

func (f *fakeRepo) TryMarkReminded(_ context.Context, appointmentID int64, remindOn time.Time) (bool, error) {
	mark := remindOn.Format("2006-01-02") + "#" + strconv.FormatInt(appointmentID, 10)
	if f.reminders[mark] {
		return false, nil
	}
	f.reminders[mark] = true
	return true, nil
}

func (f *fakeRepo) AppendHistory(_ context.Context, appointmentID int64, status Status, details []byte) error {
	f.nextHistID++
	f.histories[appointmentID] = append([]History{{
		ID:                  f.nextHistID,
		AppointmentID:       appointmentID,
		AppointmentStatusID: status,
		Details:             details,
		CreatedAt:           f.now,
		UpdatedAt:           f.now,
	}}, f.histories[appointmentID]...)
	return nil
}

func (f *fakeRepo) Histories(_ context.Context, appointmentID int64) ([]History, error) {
	return f.histories[appointmentID], nil
}

// fakeProps serves GetByID only; the service touches nothing else here.
type fakeProps struct {
	property.Repository
	props map[int64]*property.Property
}

func (f *fakeProps) GetByID(_ context.Context, id int64) (*property.Property, error) {
	p, ok := f.props[id]
	if !ok {
		return nil, property.ErrPropertyNotFound
	}
	clone := *p
	return &clone, nil
}

type fakeUsers struct {
	users  map[int64]*user.User
	admins []user.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListAdmins(_ context.Context) ([]user.User, error) {
	return f.admins, nil
}

func (f *fakeUsers) List(_ context.Context, _ *query.Builder) ([]user.User, error) {
	return nil, nil
}

// recordingDispatcher captures dispatched notifications.
type recordingDispatcher struct {
	messages []notify.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notify.Message) error {
	d.messages = append(d.messages, msg)
	return nil
}

func (d *recordingDispatcher) byEvent(event string) []notify.Message {
	var out []notify.Message
	for _, m := range d.messages {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

var testClock = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

const (
	agentID    = int64(3)
	customerID = int64(7)
	rivalID    = int64(8)
	adminID    = int64(99)
)

var (
	agent    = auth.Actor{UserID: agentID, Roles: []string{auth.RoleBusiness}}
	customer = auth.Actor{UserID: customerID, Roles: []string{auth.RoleCustomer}}
	rival    = auth.Actor{UserID: rivalID, Roles: []string{auth.RoleCustomer}}
)

type fixture struct {
	repo       *fakeRepo
	dispatcher *recordingDispatcher
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo(testClock)
	props := &fakeProps{props: map[int64]*property.Property{
		1: {ID: 1, Name: "Unit 7B", CreatedBy: agentID, PropertyStatusID: property.StatusPublished},
	}}
	users := &fakeUsers{
		users: map[int64]*user.User{
			agentID:    {ID: agentID, FirstName: "Alex", LastName: "Reyes", Mobile: "+63917000001"},
			customerID: {ID: customerID, FirstName: "Sam", LastName: "Cruz", Mobile: "+63917000002"},
			rivalID:    {ID: rivalID, FirstName: "Kim", LastName: "Tan", Mobile: "+63917000003"},
		},
		admins: []user.User{{ID: adminID, FirstName: "Ada", LastName: "Admin"}},
	}
	dispatcher := &recordingDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(NewRecording(repo, logger), props, users,
		redisclient.NoopLocker{}, dispatcher, logger, 2*time.Hour, 5*time.Minute)
	svc.WithClock(func() time.Time { return testClock })

	return &fixture{repo: repo, dispatcher: dispatcher, svc: svc}
}

func day(offset int) time.Time {
	return time.Date(2024, 5, 1+offset, 0, 0, 0, 0, time.UTC)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.AppointmentStatusID != StatusPending {
		t.Errorf("status = %v, want pending", created.AppointmentStatusID)
	}
	if created.EndTime != "15:00" {
		t.Errorf("end time = %q, want default start+1h 15:00", created.EndTime)
	}
	if n := len(f.repo.histories[created.ID]); n != 1 {
		t.Errorf("history snapshots = %d, want 1", n)
	}

	// Agent plus one admin get the new-request notification.
	if n := len(f.dispatcher.byEvent(notify.EventAppointmentRequested)); n != 2 {
		t.Errorf("requested notifications = %d, want 2", n)
	}
}

func TestCreateBookingGuards(t *testing.T) {
	f := newFixture(t)

	var verr *validate.Error

	// Same-day booking refused.
	if _, err := f.svc.Create(context.Background(), customer, 1, day(0), "14:00", ""); !errors.As(err, &verr) {
		t.Errorf("Create() same day error = %v, want validation error", err)
	}

	// A live booking blocks a second request on the same property.
	if _, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.svc.Create(context.Background(), customer, 1, day(2), "09:00", ""); !errors.As(err, &verr) {
		t.Errorf("Create() with live booking error = %v, want validation error", err)
	}

	// A confirmed slot blocks new requests for it.
	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: 55, AppointmentStatusID: StatusConfirmed,
		Date: day(3), StartTime: "10:00", EndTime: "11:00",
	})
	if _, err := f.svc.Create(context.Background(), rival, 1, day(3), "10:00", ""); !errors.As(err, &verr) {
		t.Errorf("Create() on taken slot error = %v, want validation error", err)
	}
}

func TestEndTimeMustFollowStartTime(t *testing.T) {
	f := newFixture(t)

	var verr *validate.Error
	if _, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "13:00"); !errors.As(err, &verr) {
		t.Errorf("Create() inverted times error = %v, want validation error", err)
	}
	if _, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "14:00"); !errors.As(err, &verr) {
		t.Errorf("Create() zero-length slot error = %v, want validation error", err)
	}
	if n := len(f.repo.appointments); n != 0 {
		t.Errorf("appointments persisted = %d, want 0", n)
	}

	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: customerID,
		AppointmentStatusID: StatusConfirmed,
		Date:                day(2), StartTime: "14:00", EndTime: "15:00",
	})
	if _, err := f.svc.Reschedule(context.Background(), customer, 1, day(5), "14:00", "13:00"); !errors.As(err, &verr) {
		t.Errorf("Reschedule() inverted times error = %v, want validation error", err)
	}
}

func TestConfirmRejectsCompetingRequests(t *testing.T) {
	f := newFixture(t)

	mine, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	theirs, err := f.svc.Create(context.Background(), rival, 1, day(1), "14:00", "")
	if err != nil {
		t.Fatalf("Create() rival error = %v", err)
	}

	confirmed, err := f.svc.Confirm(context.Background(), agent, mine.ID)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if confirmed.AppointmentStatusID != StatusConfirmed {
		t.Errorf("status = %v, want confirmed", confirmed.AppointmentStatusID)
	}

	loser := f.repo.appointments[theirs.ID]
	if loser.AppointmentStatusID != StatusRejected {
		t.Errorf("competing request status = %v, want rejected", loser.AppointmentStatusID)
	}

	rejections := f.dispatcher.byEvent(notify.EventAppointmentRejected)
	if len(rejections) != 1 || rejections[0].UserID != rivalID {
		t.Errorf("rejected notifications = %+v, want one to rival", rejections)
	}
	if n := len(f.dispatcher.byEvent(notify.EventAppointmentConfirmed)); n != 1 {
		t.Errorf("confirmed notifications = %d, want 1", n)
	}

	// Both transitions snapshotted through the recording layer.
	if n := len(f.repo.histories[theirs.ID]); n != 2 {
		t.Errorf("rival history snapshots = %d, want 2", n)
	}
}

func TestConfirmSweepsUpAnyCompetingStatus(t *testing.T) {
	f := newFixture(t)

	mine, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A cancelled request on the identical slot is still swept to rejected.
	cancelled, _ := f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: rivalID,
		AppointmentStatusID: StatusCancelled,
		Date:                day(1), StartTime: "14:00", EndTime: "15:00",
	})

	if _, err := f.svc.Confirm(context.Background(), agent, mine.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if got := f.repo.appointments[cancelled.ID].AppointmentStatusID; got != StatusRejected {
		t.Errorf("cancelled competitor status = %v, want rejected", got)
	}
}

func TestConfirmGuards(t *testing.T) {
	f := newFixture(t)

	appt, _ := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "")

	if _, err := f.svc.Confirm(context.Background(), rival, appt.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("Confirm() by customer error = %v, want ErrForbidden", err)
	}

	f.repo.appointments[appt.ID].AppointmentStatusID = StatusCancelled
	var verr *validate.Error
	if _, err := f.svc.Confirm(context.Background(), agent, appt.ID); !errors.As(err, &verr) {
		t.Errorf("Confirm() cancelled error = %v, want validation error", err)
	}
}

func TestCancelWindow(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		startTime string
		wantErr   bool
	}{
		{"future day any time", day(2), "11:00", false},
		{"today outside cutoff", day(0), "16:01", false},
		{"today inside cutoff", day(0), "15:00", true},
		{"past day", day(-1), "14:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.Create(context.Background(), &Appointment{
				PropertyID: 1, UserID: customerID,
				AppointmentStatusID: StatusConfirmed,
				Date:                tt.date, StartTime: tt.startTime, EndTime: "18:00",
			})

			_, err := f.svc.Cancel(context.Background(), customer, 1)
			if tt.wantErr {
				var verr *validate.Error
				if !errors.As(err, &verr) {
					t.Errorf("Cancel() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}

			latest, _ := f.repo.LatestBookingFor(context.Background(), 1, customerID)
			if latest.AppointmentStatusID != StatusCancelled {
				t.Errorf("status = %v, want cancelled", latest.AppointmentStatusID)
			}
		})
	}
}

func TestRescheduleStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		from Status
		want Status
	}{
		{"confirmed becomes reschedule", StatusConfirmed, StatusReschedule},
		{"pending stays pending", StatusPending, StatusPending},
		{"rejected becomes pending", StatusRejected, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.Create(context.Background(), &Appointment{
				PropertyID: 1, UserID: customerID,
				AppointmentStatusID: tt.from,
				Date:                day(2), StartTime: "14:00", EndTime: "15:00",
			})

			updated, err := f.svc.Reschedule(context.Background(), customer, 1, day(5), "09:30", "")
			if err != nil {
				t.Fatalf("Reschedule() error = %v", err)
			}
			if updated.AppointmentStatusID != tt.want {
				t.Errorf("status = %v, want %v", updated.AppointmentStatusID, tt.want)
			}
			if !updated.Date.Equal(day(5)) || updated.StartTime != "09:30" || updated.EndTime != "10:30" {
				t.Errorf("slot = %v %s-%s, want day+5 09:30-10:30",
					updated.Date, updated.StartTime, updated.EndTime)
			}
		})
	}
}

func TestRescheduleRefusesTakenSlot(t *testing.T) {
	f := newFixture(t)

	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: customerID,
		AppointmentStatusID: StatusConfirmed,
		Date:                day(2), StartTime: "14:00", EndTime: "15:00",
	})
	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: rivalID,
		AppointmentStatusID: StatusConfirmed,
		Date:                day(5), StartTime: "09:30", EndTime: "10:30",
	})

	var verr *validate.Error
	if _, err := f.svc.Reschedule(context.Background(), customer, 1, day(5), "09:30", ""); !errors.As(err, &verr) {
		t.Errorf("Reschedule() into taken slot error = %v, want validation error", err)
	}

	// Moving within the booking's own confirmed slot is not self-blocking.
	if _, err := f.svc.Reschedule(context.Background(), customer, 1, day(2), "14:00", "16:00"); err != nil {
		t.Errorf("Reschedule() within own slot error = %v", err)
	}
}

func TestRescheduleRefusesDueToday(t *testing.T) {
	f := newFixture(t)
	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: customerID,
		AppointmentStatusID: StatusConfirmed,
		Date:                day(0), StartTime: "18:00", EndTime: "19:00",
	})

	var verr *validate.Error
	if _, err := f.svc.Reschedule(context.Background(), customer, 1, day(5), "09:30", ""); !errors.As(err, &verr) {
		t.Errorf("Reschedule() due today error = %v, want validation error", err)
	}
}

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)

	seed := func(status Status, date time.Time, endTime string) {
		f.repo.Create(context.Background(), &Appointment{
			PropertyID: 1, UserID: customerID, AppointmentStatusID: status,
			Date: date, StartTime: "08:00", EndTime: endTime,
		})
	}

	seed(StatusConfirmed, day(-1), "09:00")  // completes
	seed(StatusConfirmed, day(0), "09:00")   // completes, ended before now
	seed(StatusPending, day(-1), "09:00")    // expires
	seed(StatusReschedule, day(-1), "09:00") // expires
	seed(StatusConfirmed, day(1), "09:00")   // future, untouched
	seed(StatusPending, day(0), "18:00")     // later today, untouched

	if err := f.svc.SweepOverdue(context.Background()); err != nil {
		t.Fatalf("SweepOverdue() error = %v", err)
	}

	counts := map[Status]int{}
	for _, a := range f.repo.appointments {
		counts[a.AppointmentStatusID]++
	}

	if counts[StatusCompleted] != 2 {
		t.Errorf("completed = %d, want 2", counts[StatusCompleted])
	}
	if counts[StatusExpired] != 2 {
		t.Errorf("expired = %d, want 2", counts[StatusExpired])
	}
	if counts[StatusConfirmed] != 1 || counts[StatusPending] != 1 {
		t.Errorf("future rows touched: %v", counts)
	}
}

func TestSendRemindersOncePerSlot(t *testing.T) {
	f := newFixture(t)

	// Starts at now+2h exactly: inside the reminder window.
	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: customerID,
		AppointmentStatusID: StatusConfirmed,
		Date:                day(0), StartTime: "12:00", EndTime: "13:00",
	})
	// Starts well outside the window.
	f.repo.Create(context.Background(), &Appointment{
		PropertyID: 1, UserID: rivalID,
		AppointmentStatusID: StatusConfirmed,
		Date:                day(0), StartTime: "17:00", EndTime: "18:00",
	})

	if err := f.svc.SendReminders(context.Background()); err != nil {
		t.Fatalf("SendReminders() error = %v", err)
	}

	reminders := f.dispatcher.byEvent(notify.EventAppointmentReminder)
	if len(reminders) != 2 {
		t.Fatalf("reminders = %d, want 2 (customer and agent)", len(reminders))
	}

	// A second poll inside the same window sends nothing more.
	if err := f.svc.SendReminders(context.Background()); err != nil {
		t.Fatalf("SendReminders() second run error = %v", err)
	}
	if n := len(f.dispatcher.byEvent(notify.EventAppointmentReminder)); n != 2 {
		t.Errorf("reminders after second run = %d, want still 2", n)
	}
}

func TestCurrentBooking(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), customer, 1, day(3), "14:00", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	detail, err := f.svc.CurrentBooking(context.Background(), customer, 1)
	if err != nil {
		t.Fatalf("CurrentBooking() error = %v", err)
	}
	if detail.ID != created.ID {
		t.Errorf("current booking id = %d, want %d", detail.ID, created.ID)
	}

	if _, err := f.svc.CurrentBooking(context.Background(), rival, 1); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("CurrentBooking() without booking error = %v, want ErrAppointmentNotFound", err)
	}

	if _, err := f.svc.CurrentBooking(context.Background(), auth.Actor{}, 1); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("CurrentBooking() unauthenticated error = %v, want ErrForbidden", err)
	}
}

func TestListDetailed(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), customer, 1, day(1), "14:00", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), agent, created.ID); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if _, err := f.svc.Reschedule(context.Background(), customer, 1, day(5), "09:30", ""); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	details, err := f.svc.ListDetailed(context.Background(), customer, ListParams{})
	if err != nil {
		t.Fatalf("ListDetailed() error = %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("details = %d, want 1", len(details))
	}
	if !details[0].RescheduledAfterConfirm {
		t.Error("RescheduledAfterConfirm = false, want true")
	}
	if details[0].Previous == nil {
		t.Error("Previous = nil, want the pre-reschedule snapshot")
	}
}

func TestDeriveDetail(t *testing.T) {
	a := &Appointment{ID: 1, AppointmentStatusID: StatusReschedule}

	histories := []History{
		{AppointmentStatusID: StatusReschedule, Details: []byte(`{"start_time":"10:00"}`)},
		{AppointmentStatusID: StatusConfirmed, Details: []byte(`{"start_time":"09:00"}`)},
	}

	d := DeriveDetail(a, histories)
	if !d.RescheduledAfterConfirm {
		t.Error("RescheduledAfterConfirm = false, want true")
	}
	if string(d.Previous) != `{"start_time":"09:00"}` {
		t.Errorf("Previous = %s", d.Previous)
	}

	d = DeriveDetail(a, histories[:1])
	if d.RescheduledAfterConfirm || d.Previous != nil {
		t.Error("single-snapshot detail should derive nothing")
	}
}
