package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coachhub/coachhub/internal/cache"
	"github.com/coachhub/coachhub/internal/config"
	"github.com/coachhub/coachhub/internal/domain/skill"
	"github.com/coachhub/coachhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type SkillsRepository interface {
	List(ctx context.Context) ([]skill.Skill, error)
	Create(ctx context.Context, name string) (skill.Skill, error)
	Delete(ctx context.Context, id string) error
}

type SkillsHandler struct {
	repo  SkillsRepository
	cache *cache.Cache
}

func NewSkillsHandler(repo SkillsRepository, c *cache.Cache) *SkillsHandler {
	return &SkillsHandler{repo: repo, cache: c}
}

const skillsCacheKey = "skills:list"

func (h *SkillsHandler) List(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(skillsCacheKey); ok {
			RespondSuccess(ctx, http.StatusOK, gin.H{"skills": v})
			return
		}
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.repo.List(dbCtx)

	if err != nil {
		RespondInternal(ctx, "Could not load skills")
		return
	}

	if h.cache != nil {
		h.cache.Set(skillsCacheKey, items)
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{"skills": items})
}

func (h *SkillsHandler) Create(ctx *gin.Context) {
	var req skill.CreateSkillRequest

	if !BindJSON(ctx, &req) {
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	s, err := h.repo.Create(dbCtx, req.Name)

	if err != nil {
		if errors.Is(err, skill.ErrDuplicateName) {
			RespondConflict(ctx, "duplicate_skill", "Skill name already exists")
			return
		}
		RespondInternal(ctx, "Could not create skill")
		return
	}

	if h.cache != nil {
		h.cache.Delete(skillsCacheKey)
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{"skill": s})
}

func (h *SkillsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("skillId")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid skill id", nil)
		return
	}

	dbCtx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(dbCtx, id)

	if err != nil {
		if errors.Is(err, skill.ErrNotFound) {
			RespondBadRequest(ctx, "Skill not found", nil)
			return
		}
		RespondInternal(ctx, "Could not delete skill")
		return
	}

	if h.cache != nil {
		h.cache.Delete(skillsCacheKey)
	}

	RespondSuccess(ctx, http.StatusOK, nil)
}
