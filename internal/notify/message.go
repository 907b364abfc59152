package notify

import "fmt"

// SMS bodies. Builders take plain strings so this package stays free of
// domain imports.

func BookingRequestedBody(customerName, propertyName, date, startTime string) string {
	return fmt.Sprintf("%s requested a viewing of %s on %s at %s.",
		customerName, propertyName, date, startTime)
}

func BookingConfirmedBody(propertyName, date, startTime string) string {
	return fmt.Sprintf("Your viewing of %s on %s at %s has been confirmed.",
		propertyName, date, startTime)
}

func BookingRejectedBody(propertyName, date, startTime string) string {
	return fmt.Sprintf("Your viewing request for %s on %s at %s was declined.",
		propertyName, date, startTime)
}

func BookingCancelledBody(customerName, propertyName, date, startTime string) string {
	return fmt.Sprintf("%s cancelled the viewing of %s on %s at %s.",
		customerName, propertyName, date, startTime)
}

func BookingRescheduledBody(customerName, propertyName, date, startTime string) string {
	return fmt.Sprintf("%s asked to move the viewing of %s to %s at %s.",
		customerName, propertyName, date, startTime)
}

func BookingReminderBody(propertyName, startTime string) string {
	return fmt.Sprintf("Reminder: viewing of %s today at %s.", propertyName, startTime)
}

func PropertyVerifiedBody(listingID string) string {
	return fmt.Sprintf("Your listing %s has been verified and is now published.", listingID)
}

func PropertyRejectedBody(listingID, comment string) string {
	return fmt.Sprintf("Your listing %s was rejected: %s", listingID, comment)
}
