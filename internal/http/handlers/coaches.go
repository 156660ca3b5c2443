package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/coach"
	"github.com/coachhub/coachhub/internal/domain/course"
	"github.com/coachhub/coachhub/internal/domain/revenue"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/http/middlewares"
	"github.com/coachhub/coachhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type CoachesRepository interface {
	List(ctx context.Context, per, page int) ([]coach.ListItem, error)
	GetByID(ctx context.Context, coachID string) (coach.Coach, error)
	ProfileByUserID(ctx context.Context, userID string) (coach.Profile, error)
	UpdateProfile(ctx context.Context, userID string, experienceYears int, description string, profileImageURL *string, skillIDs []string) (coach.Profile, error)
}

type CoachUserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type CoachCoursesRepository interface {
	ListByCoach(ctx context.Context, coachUserID string, now time.Time) ([]course.OwnItem, error)
	DetailForCoach(ctx context.Context, coachUserID, courseID string) (course.Detail, error)
}

type RevenueRepository interface {
	MonthlyRevenue(ctx context.Context, coachUserID string, start, end time.Time) (revenue.Totals, error)
}

type CoachesHandler struct {
	coaches CoachesRepository
	users   CoachUserLookup
	courses CoachCoursesRepository
	revenue RevenueRepository
}

func NewCoachesHandler(coaches CoachesRepository, users CoachUserLookup, courses CoachCoursesRepository, rev RevenueRepository) *CoachesHandler {
	return &CoachesHandler{coaches: coaches, users: users, courses: courses, revenue: rev}
}

// List serves the public coach directory. Both paging params must be
// positive integers.
func (h *CoachesHandler) List(ctx *gin.Context) {
	per, errPer := strconv.Atoi(ctx.DefaultQuery("per", "10"))
	page, errPage := strconv.Atoi(ctx.DefaultQuery("page", "1"))

	if errPer != nil || errPage != nil || per <= 0 || page <= 0 {
		RespondBadRequest(ctx, "per and page must be positive integers", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.coaches.List(dbCtx, per, page)

	if err != nil {
		RespondInternal(ctx, "Could not load coaches")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"coaches": items})
}

// Detail returns one coach with the backing user record. An unknown id is a
// 400 like a malformed one, matching the original API.
func (h *CoachesHandler) Detail(ctx *gin.Context) {
	coachID := ctx.Param("coachId")

	if !utils.IsUUID(coachID) {
		RespondBadRequest(ctx, "Invalid coach id", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	c, err := h.coaches.GetByID(dbCtx, coachID)

	if err != nil {
		if errors.Is(err, coach.ErrNotFound) {
			RespondBadRequest(ctx, "Coach not found", nil)
			return
		}
		RespondInternal(ctx, "Could not load coach")
		return
	}

	u, err := h.users.GetByID(dbCtx, c.UserID)

	if err != nil {
		RespondInternal(ctx, "Could not load coach")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{
		"user": gin.H{
			"id":   u.ID,
			"name": u.Name,
		},
		"coach": c,
	})
}

func (h *CoachesHandler) OwnCourses(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.courses.ListByCoach(dbCtx, userID, time.Now().UTC())

	if err != nil {
		RespondInternal(ctx, "Could not load courses")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"courses": items})
}

func (h *CoachesHandler) OwnCourseDetail(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
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

	d, err := h.courses.DetailForCoach(dbCtx, userID, courseID)

	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			RespondBadRequest(ctx, "Course not found", nil)
			return
		}
		RespondInternal(ctx, "Could not load course")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"course": d})
}

func (h *CoachesHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.coaches.ProfileByUserID(dbCtx, userID)

	if err != nil {
		if errors.Is(err, coach.ErrNotFound) {
			RespondBadRequest(ctx, "Coach profile not found", nil)
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"coach": p})
}

// UpdateProfile replaces the profile fields and the whole skill set.
func (h *CoachesHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req coach.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Description) == "" {
		RespondBadRequest(ctx, "Description must not be blank", nil)
		return
	}

	if req.ProfileImageURL != nil && !strings.HasPrefix(*req.ProfileImageURL, "https") {
		RespondBadRequest(ctx, "profile_image_url must start with https", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.coaches.UpdateProfile(dbCtx, userID, *req.ExperienceYears, req.Description, req.ProfileImageURL, req.SkillIDs)

	if err != nil {
		if errors.Is(err, coach.ErrNotFound) {
			RespondBadRequest(ctx, "Coach profile not found", nil)
			return
		}
		RespondInternal(ctx, "Could not update profile")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"coach": p})
}

// Revenue reports the coach's totals for a month of the current year.
func (h *CoachesHandler) Revenue(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	month := ctx.Query("month")

	start, end, err := revenue.ResolveMonth(month, time.Now())

	if err != nil {
		RespondBadRequest(ctx, "month must be a lowercase English month name", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	totals, err := h.revenue.MonthlyRevenue(dbCtx, userID, start, end)

	if err != nil {
		RespondInternal(ctx, "Could not compute revenue")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"total": totals})
}
