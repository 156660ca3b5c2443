package coach

import (
	"errors"
	"time"
)

type Coach struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ExperienceYears int       `json:"experience_years"`
	Description     string    `json:"description"`
	ProfileImageURL *string   `json:"profile_image_url"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Profile is the coach's own view, skills included.
type Profile struct {
	ID              string   `json:"id"`
	ExperienceYears int      `json:"experience_years"`
	Description     string   `json:"description"`
	ProfileImageURL *string  `json:"profile_image_url"`
	SkillIDs        []string `json:"skill_ids"`
}

// ListItem is the public directory entry.
type ListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	ErrNotFound     = errors.New("coach not found")
	ErrAlreadyCoach = errors.New("user is already a coach")
)

// PromoteRequest turns a USER into a COACH. profile_image_url must start with
// https when present; that check needs the original raw value so it stays in
// the handler rather than a binding tag.
type PromoteRequest struct {
	ExperienceYears *int    `json:"experience_years" binding:"required,min=0"`
	Description     string  `json:"description" binding:"required,min=1"`
	ProfileImageURL *string `json:"profile_image_url" binding:"omitempty,min=1"`
}

// UpdateProfileRequest replaces the coach profile and the FULL skill set.
type UpdateProfileRequest struct {
	ExperienceYears *int     `json:"experience_years" binding:"required,min=0"`
	Description     string   `json:"description" binding:"required,min=1"`
	ProfileImageURL *string  `json:"profile_image_url" binding:"omitempty,min=1"`
	SkillIDs        []string `json:"skill_ids" binding:"required,min=1,dive,uuid"`
}
