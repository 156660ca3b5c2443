package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/coachhub/coachhub/internal/domain/booking"
	"github.com/coachhub/coachhub/internal/domain/course"
	"github.com/coachhub/coachhub/internal/domain/revenue"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBookingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BookingsRepo {
	return &BookingsRepo{pool: pool, prom: prom}
}

func (r *BookingsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *BookingsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// BookTx runs the whole booking decision inside the caller's transaction.
// The course row is locked FOR UPDATE so concurrent bookings for the same
// course serialize, then the checks run in a fixed order: duplicate active
// booking, remaining credits, remaining capacity. The partial unique index
// on (user_id, course_id) WHERE cancelled_at IS NULL backstops the duplicate
// check against a race on two different connections.
//
// The caller commits; nothing is visible until it does.
func (r *BookingsRepo) BookTx(ctx context.Context, tx pgx.Tx, userID, courseID string) (b booking.Booking, courseName string, err error) {
	var maxParticipants int

	err = r.observe("bookings.book.lock_course", func() error {
		return tx.QueryRow(ctx, `
			SELECT name, max_participants FROM courses WHERE id = $1 FOR UPDATE
		`, courseID).Scan(&courseName, &maxParticipants)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = course.ErrNotFound
		}
		return
	}

	var activeDup bool

	err = r.observe("bookings.book.check_duplicate", func() error {
		return tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM course_bookings
				WHERE user_id = $1 AND course_id = $2 AND cancelled_at IS NULL
			)
		`, userID, courseID).Scan(&activeDup)
	})

	if err != nil {
		return
	}

	if activeDup {
		err = booking.ErrAlreadyRegistered
		return
	}

	var purchased, used int

	err = r.observe("bookings.book.check_credits", func() error {
		if e := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(purchased_credits), 0) FROM credit_purchases WHERE user_id = $1
		`, userID).Scan(&purchased); e != nil {
			return e
		}
		return tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM course_bookings WHERE user_id = $1 AND cancelled_at IS NULL
		`, userID).Scan(&used)
	})

	if err != nil {
		return
	}

	if used >= purchased {
		err = booking.ErrNoCredits
		return
	}

	var participants int

	err = r.observe("bookings.book.check_capacity", func() error {
		return tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM course_bookings WHERE course_id = $1 AND cancelled_at IS NULL
		`, courseID).Scan(&participants)
	})

	if err != nil {
		return
	}

	if participants >= maxParticipants {
		err = booking.ErrCourseFull
		return
	}

	b = booking.New(userID, courseID)

	err = r.observe("bookings.book.insert", func() error {
		_, e := tx.Exec(ctx, `
			INSERT INTO course_bookings (id, user_id, course_id, booked_at, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, b.ID, b.UserID, b.CourseID, b.BookedAt, b.CreatedAt)
		return e
	})

	if err != nil {
		if uniqueViolationOn(err, "bookings_user_course_active_uniq") {
			err = booking.ErrAlreadyRegistered
		}
		return
	}

	return
}

// Cancel soft-deletes the active booking for the pair. Cancelling twice, or
// cancelling a booking that never existed, reports booking.ErrNotFound.
func (r *BookingsRepo) Cancel(ctx context.Context, userID, courseID string) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("bookings.cancel", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `
			UPDATE course_bookings SET cancelled_at = NOW()
			WHERE user_id = $1 AND course_id = $2 AND cancelled_at IS NULL
		`, userID, courseID)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = booking.ErrNotFound
		return
	}

	return
}

// UserBookingItem is one row of a user's active booking list.
type UserBookingItem struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	CourseName string    `json:"course_name"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	MeetingURL string    `json:"meeting_url"`
	BookedAt   time.Time `json:"bookedAt"`
}

func (r *BookingsRepo) ListByUser(ctx context.Context, userID string) (items []UserBookingItem, err error) {
	var rows pgx.Rows

	err = r.observe("bookings.list_by_user", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
			SELECT b.id, b.course_id, c.name, c.start_at, c.end_at, c.meeting_url, b.booked_at
			FROM course_bookings b
			JOIN courses c ON c.id = b.course_id
			WHERE b.user_id = $1 AND b.cancelled_at IS NULL
			ORDER BY c.start_at ASC
		`, userID)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]UserBookingItem, 0)

	for rows.Next() {
		var it UserBookingItem

		if e := rows.Scan(&it.ID, &it.CourseID, &it.CourseName, &it.StartAt, &it.EndAt,
			&it.MeetingURL, &it.BookedAt); e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()
	return
}

// MonthlyRevenue aggregates a coach's numbers for the [start, end] window.
// CourseCount is the number of active bookings taken on the coach's courses
// inside the window, Participants the distinct users behind them, and revenue
// is CourseCount times the catalogue-wide blended per-credit price. A coach
// with no courses at all short-circuits to zeros without touching the booking
// or package tables.
func (r *BookingsRepo) MonthlyRevenue(ctx context.Context, coachUserID string, start, end time.Time) (t revenue.Totals, err error) {
	var courses int

	err = r.observe("bookings.revenue.count_courses", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*) FROM courses WHERE user_id = $1
		`, coachUserID).Scan(&courses)
	})

	if err != nil {
		return
	}

	if courses == 0 {
		return
	}

	err = r.observe("bookings.revenue.count_bookings", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COUNT(*), COUNT(DISTINCT b.user_id)
			FROM course_bookings b
			JOIN courses c ON c.id = b.course_id
			WHERE c.user_id = $1
			  AND b.cancelled_at IS NULL
			  AND b.booked_at >= $2 AND b.booked_at <= $3
		`, coachUserID, start, end).Scan(&t.CourseCount, &t.Participants)
	})

	if err != nil {
		return
	}

	var totalPrice float64
	var totalCredits int

	err = r.observe("bookings.revenue.package_totals", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(price), 0), COALESCE(SUM(credit_amount), 0)
			FROM credit_packages
		`).Scan(&totalPrice, &totalCredits)
	})

	if err != nil {
		return
	}

	t.Revenue = float64(t.CourseCount) * revenue.BlendedPerCreditPrice(totalPrice, totalCredits)
	return
}
