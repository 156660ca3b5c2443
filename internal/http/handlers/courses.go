package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coachhub/coachhub/internal/cache"
	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/booking"
	"github.com/coachhub/coachhub/internal/domain/course"
	"github.com/coachhub/coachhub/internal/domain/job"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/http/middlewares"
	"github.com/coachhub/coachhub/internal/jobs"
	"github.com/coachhub/coachhub/internal/observability"
	"github.com/coachhub/coachhub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type CourseCatalogue interface {
	PublicList(ctx context.Context) ([]course.ListItem, error)
}

type BookingCreator interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	BookTx(ctx context.Context, tx pgx.Tx, userID, courseID string) (booking.Booking, string, error)
	Cancel(ctx context.Context, userID, courseID string) error
}

type JobsCreator interface {
	CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error)
}

type BookingUserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type CoursesHandler struct {
	catalogue CourseCatalogue
	bookings  BookingCreator
	jobsRepo  JobsCreator
	users     BookingUserLookup
	cache     *cache.Cache
	prom      *observability.Prom
}

func NewCoursesHandler(catalogue CourseCatalogue, bookings BookingCreator, jobsRepo JobsCreator, users BookingUserLookup, c *cache.Cache, prom *observability.Prom) *CoursesHandler {
	return &CoursesHandler{
		catalogue: catalogue,
		bookings:  bookings,
		jobsRepo:  jobsRepo,
		users:     users,
		cache:     c,
		prom:      prom,
	}
}

const coursesCacheKey = "courses:public_list"

func (h *CoursesHandler) List(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(coursesCacheKey); ok {
			RespondSuccess(ctx, http.StatusOK, gin.H{"courses": v})
			return
		}
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.catalogue.PublicList(dbCtx)

	if err != nil {
		RespondInternal(ctx, "Could not load courses")
		return
	}

	if h.cache != nil {
		h.cache.Set(coursesCacheKey, items)
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"courses": items})
}

func (h *CoursesHandler) countBooking(outcome string) {
	if h.prom != nil {
		h.prom.BookingsTotal.WithLabelValues(outcome).Inc()
	}
}

// Book reserves a seat. The duplicate, credit and capacity checks and the
// insert all run in one transaction together with the confirmation-job
// enqueue; the checks run in that order, so a user who is out of credits
// hears about credits even when the course is also full.
func (h *CoursesHandler) Book(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	courseID := ctx.Param("courseId")

	if !utils.IsUUID(courseID) {
		RespondBadRequest(ctx, "Invalid course id", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequest(ctx, "User not found", nil)
			return
		}
		h.countBooking("error")
		RespondInternal(ctx, "Could not book course")
		return
	}

	tx, err := h.bookings.BeginTx(cctx)

	if err != nil {
		h.countBooking("error")
		RespondInternal(ctx, "Could not book course")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	b, courseName, err := h.bookings.BookTx(cctx, tx, userID, courseID)

	if err != nil {
		switch {
		case errors.Is(err, booking.ErrAlreadyRegistered):
			h.countBooking("duplicate")
			RespondBadRequest(ctx, "Already registered for this course", nil)
		case errors.Is(err, booking.ErrNoCredits):
			h.countBooking("no_credits")
			RespondBadRequest(ctx, "No remaining credits", nil)
		case errors.Is(err, booking.ErrCourseFull):
			h.countBooking("full")
			RespondBadRequest(ctx, "Course has reached max participants", nil)
		case errors.Is(err, course.ErrNotFound):
			RespondBadRequest(ctx, "Course not found", nil)
		default:
			h.countBooking("error")
			RespondInternal(ctx, "Could not book course")
			slog.Default().ErrorContext(ctx.Request.Context(), "booking failed", "error", err)
		}
		return
	}

	payload := jobs.BookingConfirmationPayload{
		BookingID:   b.ID,
		CourseID:    b.CourseID,
		CourseName:  courseName,
		UserID:      userID,
		Email:       u.Email,
		Name:        u.Name,
		RequestedAt: time.Now().UTC(),
	}

	raw, err := payload.JSON()

	if err != nil {
		h.countBooking("error")
		RespondInternal(ctx, "Could not book course")
		return
	}

	key := "booking:confirm:" + b.ID

	_, err = h.jobsRepo.CreateTx(cctx, tx, job.CreateRequest{
		Type:           jobs.TypeBookingConfirmation,
		Payload:        raw,
		RunAt:          time.Now().UTC(),
		MaxAttempts:    10,
		IdempotencyKey: &key,
	})

	if err != nil {
		h.countBooking("error")
		RespondInternal(ctx, "Could not book course")
		slog.Default().ErrorContext(ctx.Request.Context(), "enqueue failed", "error", err)
		return
	}

	if err := tx.Commit(cctx); err != nil {
		h.countBooking("error")
		RespondInternal(ctx, "Could not book course")
		slog.Default().ErrorContext(ctx.Request.Context(), "booking commit failed", "error", err)
		return
	}

	h.countBooking("created")
	RespondSuccess(ctx, http.StatusCreated, nil)
}

// CancelBooking soft-cancels the active booking. Used credits are not
// refunded; the row stays for revenue history.
func (h *CoursesHandler) CancelBooking(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	courseID := ctx.Param("courseId")

	if !utils.IsUUID(courseID) {
		RespondBadRequest(ctx, "Invalid course id", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.bookings.Cancel(dbCtx, userID, courseID)

	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			RespondBadRequest(ctx, "No active booking for this course", nil)
			return
		}
		RespondInternal(ctx, "Could not cancel booking")
		return
	}

	RespondSuccess(ctx, http.StatusOK, nil)
}
