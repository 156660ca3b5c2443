package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/credit"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/http/middlewares"
	"github.com/coachhub/coachhub/internal/repo/postgres"
	"github.com/coachhub/coachhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UsersRepository interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateName(ctx context.Context, id, newName string) error
	UpdatePasswordHash(ctx context.Context, id, newHash string) error
}

type PurchaseHistoryRepository interface {
	ListPurchases(ctx context.Context, userID string) ([]credit.Purchase, error)
}

type UserBookingsRepository interface {
	ListByUser(ctx context.Context, userID string) ([]postgres.UserBookingItem, error)
}

type UsersHandler struct {
	users     UsersRepository
	purchases PurchaseHistoryRepository
	bookings  UserBookingsRepository
}

func NewUsersHandler(users UsersRepository, purchases PurchaseHistoryRepository, bookings UserBookingsRepository) *UsersHandler {
	return &UsersHandler{users: users, purchases: purchases, bookings: bookings}
}

func (h *UsersHandler) Profile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(dbCtx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequest(ctx, "User not found", nil)
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"user": gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}})
}

// UpdateProfile renames the account. Submitting the current name again is an
// error, not a no-op.
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.users.UpdateName(dbCtx, userID, req.Name)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNameUnchanged):
			RespondBadRequest(ctx, "Name is the same as the current one", nil)
		case errors.Is(err, user.ErrNotFound):
			RespondBadRequest(ctx, "User not found", nil)
		case errors.Is(err, user.ErrUpdateFailed):
			RespondBadRequest(ctx, "Update failed", nil)
		default:
			RespondInternal(ctx, "Could not update profile")
		}
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"name": req.Name})
}

func (h *UsersHandler) UpdatePassword(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req user.UpdatePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.NewPassword != req.ConfirmNewPassword {
		RespondBadRequest(ctx, "New password and confirmation do not match", nil)
		return
	}

	if req.NewPassword == req.Password {
		RespondBadRequest(ctx, "New password must differ from the current one", nil)
		return
	}

	if err := security.ValidatePasswordPolicy(req.NewPassword); err != nil {
		RespondBadRequest(ctx, "Password does not meet the policy", gin.H{"fields": []FieldError{
			{Field: "new_password", Rule: "password_policy", Message: "must be 8-16 characters with at least one digit, one lowercase and one uppercase letter"},
		}})
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(dbCtx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequest(ctx, "User not found", nil)
			return
		}
		RespondInternal(ctx, "Could not load user")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondBadRequest(ctx, "Current password is incorrect", nil)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)

	if err != nil {
		RespondInternal(ctx, "Could not process password")
		return
	}

	if err := h.users.UpdatePasswordHash(dbCtx, userID, hash); err != nil {
		RespondInternal(ctx, "Could not update password")
		return
	}

	RespondSuccess(ctx, http.StatusOK, nil)
}

func (h *UsersHandler) ListCreditPurchases(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.purchases.ListPurchases(dbCtx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load purchases")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"creditPurchases": items})
}

func (h *UsersHandler) ListCourseBookings(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.bookings.ListByUser(dbCtx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not load bookings")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"courseBookings": items})
}
