package jobs

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestBookingConfirmationRoundTrip(t *testing.T) {
	in := BookingConfirmationPayload{
		BookingID:   "b-1",
		CourseID:    "c-1",
		CourseName:  "Yoga Basics",
		UserID:      "u-1",
		Email:       "user@example.com",
		Name:        "User",
		RequestedAt: time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC),
	}

	raw, err := in.JSON()

	if err != nil {
		t.Fatalf("JSON() failed: %v", err)
	}

	out, err := DecodeBookingConfirmation(raw)

	if err != nil {
		t.Fatalf("DecodeBookingConfirmation failed: %v", err)
	}

	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestDecodeBookingConfirmationRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{name: "empty", raw: nil},
		{name: "not_json", raw: json.RawMessage(`{{`)},
		{name: "missing_ids", raw: json.RawMessage(`{"email":"a@b.com"}`)},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBookingConfirmation(tt.raw)

			if !errors.Is(err, ErrInvalidJobPayload) {
				t.Fatalf("got err=%v, want ErrInvalidJobPayload", err)
			}
		})
	}
}
