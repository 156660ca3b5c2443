package notifications

import "context"

type SendBookingConfirmationInput struct {
	Email      string
	Name       string
	CourseID   string
	CourseName string
	BookingID  string
}

type Notifier interface {
	SendBookingConfirmation(ctx context.Context, input SendBookingConfirmationInput) error
}
