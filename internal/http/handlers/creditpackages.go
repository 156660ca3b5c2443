package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coachhub/coachhub/internal/cache"
	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/credit"
	"github.com/coachhub/coachhub/internal/http/middlewares"
	"github.com/coachhub/coachhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type CreditRepository interface {
	ListPackages(ctx context.Context) ([]credit.Package, error)
	CreatePackage(ctx context.Context, name string, creditAmount int, price float64) (credit.Package, error)
	DeletePackage(ctx context.Context, id string) error
	Purchase(ctx context.Context, userID, packageID string) (credit.Purchase, error)
}

type CreditPackagesHandler struct {
	repo  CreditRepository
	cache *cache.Cache
}

func NewCreditPackagesHandler(repo CreditRepository, c *cache.Cache) *CreditPackagesHandler {
	return &CreditPackagesHandler{repo: repo, cache: c}
}

const packagesCacheKey = "credit_packages:list"

func (h *CreditPackagesHandler) List(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(packagesCacheKey); ok {
			RespondSuccess(ctx, http.StatusOK, gin.H{"creditPackages": v})
			return
		}
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.repo.ListPackages(dbCtx)

	if err != nil {
		RespondInternal(ctx, "Could not load credit packages")
		return
	}

	if h.cache != nil {
		h.cache.Set(packagesCacheKey, items)
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"creditPackages": items})
}

func (h *CreditPackagesHandler) Create(ctx *gin.Context) {
	var req credit.CreatePackageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.CreatePackage(dbCtx, req.Name, *req.CreditAmount, *req.Price)

	if err != nil {
		if errors.Is(err, credit.ErrDuplicateName) {
			RespondConflict(ctx, "duplicate_credit_package", "Credit package name already exists")
			return
		}
		RespondInternal(ctx, "Could not create credit package")
		return
	}

	if h.cache != nil {
		h.cache.Delete(packagesCacheKey)
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{"creditPackage": p})
}

// Delete removes the catalogue entry only; purchase snapshots survive it.
func (h *CreditPackagesHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("creditPackageId")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid credit package id", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.DeletePackage(dbCtx, id)

	if err != nil {
		if errors.Is(err, credit.ErrPackageNotFound) {
			RespondBadRequest(ctx, "Credit package not found", nil)
			return
		}
		RespondInternal(ctx, "Could not delete credit package")
		return
	}

	if h.cache != nil {
		h.cache.Delete(packagesCacheKey)
	}

	RespondSuccess(ctx, http.StatusOK, nil)
}

// Purchase buys a package for the authenticated user, snapshotting credits
// and price at buy time.
func (h *CreditPackagesHandler) Purchase(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	packageID := ctx.Param("creditPackageId")

	if !utils.IsUUID(packageID) {
		RespondBadRequest(ctx, "Invalid credit package id", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.Purchase(dbCtx, userID, packageID)

	if err != nil {
		if errors.Is(err, credit.ErrPackageNotFound) {
			RespondBadRequest(ctx, "Credit package not found", nil)
			return
		}
		RespondInternal(ctx, "Could not complete purchase")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{"creditPurchase": p})
}
