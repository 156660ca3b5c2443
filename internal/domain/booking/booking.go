package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// A Booking is one reservation of a course seat. Cancellation is a soft state
// change: CancelledAt is set and the row stays for revenue history. At most
// one booking per (user, course) may be active at a time; rebooking after a
// cancel creates a fresh row.
type Booking struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	CourseID    string     `json:"courseId"`
	BookedAt    time.Time  `json:"bookedAt"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func (b Booking) Active() bool {
	return b.CancelledAt == nil
}

var (
	// ErrAlreadyRegistered: an active booking for the pair already exists.
	ErrAlreadyRegistered = errors.New("already registered for this course")
	// ErrNoCredits: the user's active bookings have used up every purchased credit.
	ErrNoCredits = errors.New("no remaining credits")
	// ErrCourseFull: active bookings on the course have reached max_participants.
	ErrCourseFull = errors.New("course has reached max participants")
	// ErrNotFound: no active booking for the pair (cancel of a cancelled or
	// never-made booking reports this too).
	ErrNotFound = errors.New("booking not found")
)

func New(userID, courseID string) Booking {
	now := time.Now().UTC()

	return Booking{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  courseID,
		BookedAt:  now,
		CreatedAt: now,
	}
}
