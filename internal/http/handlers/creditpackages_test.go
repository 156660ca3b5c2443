package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coachhub/coachhub/internal/domain/credit"
	"github.com/coachhub/coachhub/internal/http/handlers"
	"github.com/google/uuid"
)

type fakeCreditRepo struct {
	packages   []credit.Package
	createFn   func(ctx context.Context, name string, creditAmount int, price float64) (credit.Package, error)
	deleteFn   func(ctx context.Context, id string) error
	purchaseFn func(ctx context.Context, userID, packageID string) (credit.Purchase, error)
}

func (f *fakeCreditRepo) ListPackages(ctx context.Context) ([]credit.Package, error) {
	return f.packages, nil
}

func (f *fakeCreditRepo) CreatePackage(ctx context.Context, name string, creditAmount int, price float64) (credit.Package, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, creditAmount, price)
	}
	return credit.Package{ID: uuid.NewString(), Name: name, CreditAmount: creditAmount, Price: price}, nil
}

func (f *fakeCreditRepo) DeletePackage(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeCreditRepo) Purchase(ctx context.Context, userID, packageID string) (credit.Purchase, error) {
	if f.purchaseFn != nil {
		return f.purchaseFn(ctx, userID, packageID)
	}
	return credit.Purchase{}, credit.ErrPackageNotFound
}

func TestCreatePackage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createFn   func(ctx context.Context, name string, creditAmount int, price float64) (credit.Package, error)
		wantStatus int
	}{
		{
			name:       "created",
			body:       `{"name":"Starter","credit_amount":5,"price":50}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "zero credits allowed",
			body:       `{"name":"Free trial","credit_amount":0,"price":0}`,
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate name",
			body: `{"name":"Starter","credit_amount":5,"price":50}`,
			createFn: func(ctx context.Context, name string, creditAmount int, price float64) (credit.Package, error) {
				return credit.Package{}, credit.ErrDuplicateName
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "negative price",
			body:       `{"name":"Starter","credit_amount":5,"price":-1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing credit amount",
			body:       `{"name":"Starter","price":50}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewCreditPackagesHandler(&fakeCreditRepo{createFn: tt.createFn}, nil)
			r := setupRouter(http.MethodPost, "/api/admin/credit-packages", h.Create)

			w := doJSON(t, r, http.MethodPost, "/api/admin/credit-packages", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

// Prices are decimal; binding must not round or reject the cents.
func TestCreatePackageFractionalPrice(t *testing.T) {
	var gotPrice float64

	repo := &fakeCreditRepo{createFn: func(ctx context.Context, name string, creditAmount int, price float64) (credit.Package, error) {
		gotPrice = price
		return credit.Package{ID: uuid.NewString(), Name: name, CreditAmount: creditAmount, Price: price}, nil
	}}

	h := handlers.NewCreditPackagesHandler(repo, nil)
	r := setupRouter(http.MethodPost, "/api/admin/credit-packages", h.Create)

	w := doJSON(t, r, http.MethodPost, "/api/admin/credit-packages", `{"name":"Starter","credit_amount":5,"price":49.99}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201 (body=%s)", w.Code, w.Body.String())
	}

	if gotPrice != 49.99 {
		t.Fatalf("repo saw price %v, want 49.99", gotPrice)
	}
}

func TestPurchasePackage(t *testing.T) {
	userID := uuid.NewString()
	packageID := uuid.NewString()

	t.Run("snapshots the package for the caller", func(t *testing.T) {
		repo := &fakeCreditRepo{purchaseFn: func(ctx context.Context, uid, pid string) (credit.Purchase, error) {
			if uid != userID || pid != packageID {
				t.Fatalf("purchase called with uid=%s pid=%s", uid, pid)
			}
			return credit.Purchase{
				ID:               uuid.NewString(),
				UserID:           uid,
				CreditPackageID:  pid,
				PurchasedCredits: 5,
				PricePaid:        50,
			}, nil
		}}

		h := handlers.NewCreditPackagesHandler(repo, nil)
		r := setupAuthedRouter(http.MethodPost, "/api/credit-packages/:creditPackageId", userID, h.Purchase)

		req := httptest.NewRequest(http.MethodPost, "/api/credit-packages/"+packageID, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("got status %d, want 201 (body=%s)", w.Code, w.Body.String())
		}

		var resp struct {
			Data struct {
				CreditPurchase credit.Purchase `json:"creditPurchase"`
			} `json:"data"`
		}

		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if resp.Data.CreditPurchase.PurchasedCredits != 5 || resp.Data.CreditPurchase.PricePaid != 50 {
			t.Fatalf("unexpected snapshot: %+v", resp.Data.CreditPurchase)
		}
	})

	t.Run("unknown package", func(t *testing.T) {
		h := handlers.NewCreditPackagesHandler(&fakeCreditRepo{}, nil)
		r := setupAuthedRouter(http.MethodPost, "/api/credit-packages/:creditPackageId", userID, h.Purchase)

		req := httptest.NewRequest(http.MethodPost, "/api/credit-packages/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
	})
}
