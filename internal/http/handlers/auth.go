package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/security"
	"github.com/gin-gonic/gin"
)

type AuthUsersRepository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
}

type AuthHandler struct {
	users AuthUsersRepository
	jwt   TokenIssuer
}

func NewAuthHandler(users AuthUsersRepository, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

// SignUp registers a new USER account. The password policy (8..16 chars with
// a digit, a lower and an upper) is enforced here, before hashing.
func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePasswordPolicy(req.Password); err != nil {
		RespondBadRequest(ctx, "Password does not meet the policy", gin.H{"fields": []FieldError{
			{Field: "password", Rule: "password_policy", Message: "must be 8-16 characters with at least one digit, one lowercase and one uppercase letter"},
		}})
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not process password")
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.Create(dbCtx, req.Name, req.Email, hash, user.RoleUser)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use")
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{"user": gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}})
}

// Login verifies credentials and issues an access token. Wrong email and
// wrong password both report the same invalid-credentials 400.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(dbCtx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondBadRequest(ctx, "Invalid credentials", nil)
			return
		}
		RespondInternal(ctx, "Could not look up user")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondBadRequest(ctx, "Invalid credentials", nil)
		return
	}

	token, err := h.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not issue token")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{
		"token": token,
		"user":  gin.H{"name": u.Name},
	})
}
