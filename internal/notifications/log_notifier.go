package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// LogNotifier stands in for a real email provider: it writes the confirmation
// to the structured log. NOTIFIER_SLEEP_MS and NOTIFIER_FAIL exist to exercise
// the retry and circuit-breaker paths locally.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendBookingConfirmation(ctx context.Context, in SendBookingConfirmationInput) error {
	if msStr := os.Getenv("NOTIFIER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if os.Getenv("NOTIFIER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	n.logger.InfoContext(ctx, "notification.booking_confirmation",
		"email", in.Email,
		"name", in.Name,
		"course_id", in.CourseID,
		"course_name", in.CourseName,
		"booking_id", in.BookingID,
	)
	return nil
}
