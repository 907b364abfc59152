package notify

import (
	"context"
	"time"
)

// Event names double as AMQP routing keys.
const (
	EventAppointmentRequested   = "appointment.requested"
	EventAppointmentConfirmed   = "appointment.confirmed"
	EventAppointmentRejected    = "appointment.rejected"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentReminder    = "appointment.reminder"
	EventPropertyVerified       = "property.verified"
	EventPropertyRejected       = "property.rejected"
)

// Message is one outbound notification. Body is the rendered SMS text; the
// consumer on the other side of the broker does the actual delivery.
type Message struct {
	Event      string    `json:"event"`
	UserID     int64     `json:"user_id"`
	Mobile     string    `json:"mobile,omitempty"`
	Body       string    `json:"body"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Dispatcher sends notifications. Callers treat dispatch as best-effort:
// failures are logged, never propagated into the transition that caused them.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}
