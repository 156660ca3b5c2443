package jobs

import (
	"encoding/json"
	"errors"
	"time"
)

// TypeBookingConfirmation notifies a user that their course booking went
// through. Enqueued in the same transaction as the booking insert.
const TypeBookingConfirmation = "booking.confirmation"

var (
	ErrUnknownJobType    = errors.New("unknown job type")
	ErrInvalidJobPayload = errors.New("invalid job payload")
)

type BookingConfirmationPayload struct {
	BookingID   string    `json:"bookingId"`
	CourseID    string    `json:"courseId"`
	CourseName  string    `json:"courseName"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	RequestedAt time.Time `json:"requestedAt"`
}

func (p BookingConfirmationPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// DecodeBookingConfirmation parses and sanity-checks a payload coming back
// out of the jobs table.
func DecodeBookingConfirmation(raw json.RawMessage) (BookingConfirmationPayload, error) {
	var p BookingConfirmationPayload

	if len(raw) == 0 {
		return p, ErrInvalidJobPayload
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return p, ErrInvalidJobPayload
	}

	if p.BookingID == "" || p.UserID == "" || p.CourseID == "" {
		return p, ErrInvalidJobPayload
	}

	return p, nil
}
