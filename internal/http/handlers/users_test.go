package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/coachhub/coachhub/internal/domain/credit"
	"github.com/coachhub/coachhub/internal/domain/user"
	"github.com/coachhub/coachhub/internal/http/handlers"
	"github.com/coachhub/coachhub/internal/repo/postgres"
	"github.com/coachhub/coachhub/internal/security"
	"github.com/google/uuid"
)

type fakeUsersRepo struct {
	getByIDFn      func(ctx context.Context, id string) (user.User, error)
	updateNameFn   func(ctx context.Context, id, newName string) error
	updatedHashes  []string
	updateHashErr  error
	listPurchases  []credit.Purchase
	listBookings   []postgres.UserBookingItem
	listPurchErr   error
	listBookingErr error
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) UpdateName(ctx context.Context, id, newName string) error {
	if f.updateNameFn != nil {
		return f.updateNameFn(ctx, id, newName)
	}
	return nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id, newHash string) error {
	f.updatedHashes = append(f.updatedHashes, newHash)
	return f.updateHashErr
}

func (f *fakeUsersRepo) ListPurchases(ctx context.Context, userID string) ([]credit.Purchase, error) {
	return f.listPurchases, f.listPurchErr
}

func (f *fakeUsersRepo) ListByUser(ctx context.Context, userID string) ([]postgres.UserBookingItem, error) {
	return f.listBookings, f.listBookingErr
}

func TestUpdateProfile(t *testing.T) {
	userID := uuid.NewString()

	tests := []struct {
		name       string
		body       string
		updateFn   func(ctx context.Context, id, newName string) error
		wantStatus int
	}{
		{
			name:       "renamed",
			body:       `{"name":"Jane Two"}`,
			updateFn:   func(ctx context.Context, id, newName string) error { return nil },
			wantStatus: http.StatusOK,
		},
		{
			name:       "same name rejected",
			body:       `{"name":"Jane"}`,
			updateFn:   func(ctx context.Context, id, newName string) error { return user.ErrNameUnchanged },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "name too short",
			body:       `{"name":"J"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing name",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{updateNameFn: tt.updateFn}

			h := handlers.NewUsersHandler(repo, repo, repo)
			r := setupAuthedRouter(http.MethodPut, "/api/users/profile", userID, h.UpdateProfile)

			w := doJSON(t, r, http.MethodPut, "/api/users/profile", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestUpdatePassword(t *testing.T) {
	userID := uuid.NewString()

	hash, err := security.HashPassword("Current1")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	account := user.User{ID: userID, Name: "Jane", Email: "jane@example.com", PasswordHash: hash, Role: user.RoleUser}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantStored bool
	}{
		{
			name:       "changed",
			body:       `{"password":"Current1","new_password":"Fresh2pw","confirm_new_password":"Fresh2pw"}`,
			wantStatus: http.StatusOK,
			wantStored: true,
		},
		{
			name:       "confirmation mismatch",
			body:       `{"password":"Current1","new_password":"Fresh2pw","confirm_new_password":"Other3pw"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "new equals old",
			body:       `{"password":"Current1","new_password":"Current1","confirm_new_password":"Current1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "new password violates policy",
			body:       `{"password":"Current1","new_password":"alllowercase1","confirm_new_password":"alllowercase1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong current password",
			body:       `{"password":"Wrong0ne","new_password":"Fresh2pw","confirm_new_password":"Fresh2pw"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{getByIDFn: func(ctx context.Context, id string) (user.User, error) {
				return account, nil
			}}

			h := handlers.NewUsersHandler(repo, repo, repo)
			r := setupAuthedRouter(http.MethodPut, "/api/users/password", userID, h.UpdatePassword)

			w := doJSON(t, r, http.MethodPut, "/api/users/password", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStored && len(repo.updatedHashes) != 1 {
				t.Fatalf("expected one stored hash, got %d", len(repo.updatedHashes))
			}

			if !tt.wantStored && len(repo.updatedHashes) != 0 {
				t.Fatal("hash must not be stored on a rejected change")
			}
		})
	}
}

func TestProfile(t *testing.T) {
	userID := uuid.NewString()

	repo := &fakeUsersRepo{getByIDFn: func(ctx context.Context, id string) (user.User, error) {
		if id != userID {
			t.Fatalf("looked up wrong user %s", id)
		}
		return user.User{ID: id, Name: "Jane", Email: "jane@example.com", Role: user.RoleCoach}, nil
	}}

	h := handlers.NewUsersHandler(repo, repo, repo)
	r := setupAuthedRouter(http.MethodGet, "/api/users/profile", userID, h.Profile)

	w := doJSON(t, r, http.MethodGet, "/api/users/profile", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
}
