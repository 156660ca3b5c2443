package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/coach"
	"github.com/coachhub/coachhub/internal/domain/course"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type AdminCoursesRepository interface {
	Create(ctx context.Context, userID, skillID, name, description string, startAt, endAt time.Time, maxParticipants int, meetingURL string) (course.Course, error)
	Update(ctx context.Context, id, skillID, name, description string, startAt, endAt time.Time, maxParticipants int, meetingURL string) error
}

type PromoteRepository interface {
	Promote(ctx context.Context, userID string, experienceYears int, description string, profileImageURL *string) (user.User, coach.Coach, error)
}

type AdminUserLookup interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AdminHandler struct {
	courses AdminCoursesRepository
	coaches PromoteRepository
	users   AdminUserLookup
}

func NewAdminHandler(courses AdminCoursesRepository, coaches PromoteRepository, users AdminUserLookup) *AdminHandler {
	return &AdminHandler{courses: courses, coaches: coaches, users: users}
}

// parseCourseDates enforces the strict ISO-8601 UTC shape before anything
// touches the database.
func parseCourseDates(ctx *gin.Context, startRaw, endRaw string) (start, end time.Time, ok bool) {
	start, ok = utils.ParseStrictISO(startRaw)

	if !ok {
		RespondBadRequest(ctx, "start_at must match YYYY-MM-DDTHH:MM:SS[.mmm]Z", nil)
		return
	}

	end, ok = utils.ParseStrictISO(endRaw)

	if !ok {
		RespondBadRequest(ctx, "end_at must match YYYY-MM-DDTHH:MM:SS[.mmm]Z", nil)
		return
	}

	if !end.After(start) {
		RespondBadRequest(ctx, "end_at must be after start_at", nil)
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

// CreateCourse creates a course on behalf of a coach. The target user must
// exist and already hold the COACH role.
func (h *AdminHandler) CreateCourse(ctx *gin.Context) {
	var req course.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	start, end, ok := parseCourseDates(ctx, req.StartAt, req.EndAt)

	if !ok {
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(dbCtx, req.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequest(ctx, "User not found", nil)
			return
		}
		RespondInternal(ctx, "Could not create course")
		return
	}

	if u.Role != user.RoleCoach {
		RespondBadRequest(ctx, "User is not a coach", nil)
		return
	}

	c, err := h.courses.Create(dbCtx, req.UserID, req.SkillID, req.Name, req.Description, start, end, *req.MaxParticipants, req.MeetingURL)

	if err != nil {
		RespondInternal(ctx, "Could not create course")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{"course": c})
}

func (h *AdminHandler) UpdateCourse(ctx *gin.Context) {
	courseID := ctx.Param("courseId")

	if !utils.IsUUID(courseID) {
		RespondBadRequest(ctx, "Invalid course id", nil)
		return
	}

	var req course.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	start, end, ok := parseCourseDates(ctx, req.StartAt, req.EndAt)

	if !ok {
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.courses.Update(dbCtx, courseID, req.SkillID, req.Name, req.Description, start, end, *req.MaxParticipants, req.MeetingURL)

	if err != nil {
		if errors.Is(err, course.ErrUpdateFailed) {
			RespondBadRequest(ctx, "Update failed", nil)
			return
		}
		RespondInternal(ctx, "Could not update course")
		return
	}

	RespondSuccess(ctx, http.StatusOK, nil)
}

// PromoteCoach flips a USER to COACH and creates the coach row atomically.
func (h *AdminHandler) PromoteCoach(ctx *gin.Context) {
	userID := ctx.Param("userId")

	if !utils.IsUUID(userID) {
		RespondBadRequest(ctx, "Invalid user id", nil)
		return
	}

	var req coach.PromoteRequest

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

	u, c, err := h.coaches.Promote(dbCtx, userID, *req.ExperienceYears, req.Description, req.ProfileImageURL)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondBadRequest(ctx, "User not found", nil)
		case errors.Is(err, coach.ErrAlreadyCoach):
			RespondConflict(ctx, "already_coach", "User is already a coach")
		default:
			RespondInternal(ctx, "Could not promote user")
		}
		return
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{
		"user": gin.H{
			"id":   u.ID,
			"name": u.Name,
			"role": u.Role,
		},
		"coach": c,
	})
}
