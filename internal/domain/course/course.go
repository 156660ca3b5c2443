package course

import (
	"errors"
	"time"
)

type Course struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	SkillID         string    `json:"skill_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	MaxParticipants int       `json:"max_participants"`
	MeetingURL      string    `json:"meeting_url"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ListItem is the public catalogue entry, joined with coach and skill names.
type ListItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	MaxParticipants int       `json:"max_participants"`
	CoachName       string    `json:"coach_name"`
	SkillName       string    `json:"skill_name"`
}

// Schedule statuses for a coach's own course list.
const (
	StatusNotStarted = "not_started"
	StatusOngoing    = "ongoing"
	StatusEnded      = "ended"
)

// OwnItem is one row of a coach's own course list, with the live participant
// count (active bookings only).
type OwnItem struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	MaxParticipants int       `json:"max_participants"`
	Participants    int       `json:"participants"`
}

// Detail is a single course with its skill name resolved.
type Detail struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	MaxParticipants int       `json:"max_participants"`
	SkillName       string    `json:"skill_name"`
	MeetingURL      string    `json:"meeting_url"`
}

var (
	ErrNotFound     = errors.New("course not found")
	ErrUpdateFailed = errors.New("course update affected no rows")
)

// CreateRequest / UpdateRequest carry start_at and end_at as raw strings:
// only the strict ISO-8601 millisecond UTC shape is accepted, and the check
// happens before any persistence access.
type CreateRequest struct {
	UserID          string `json:"user_id" binding:"required,uuid"`
	SkillID         string `json:"skill_id" binding:"required,uuid"`
	Name            string `json:"name" binding:"required,min=1,max=100"`
	Description     string `json:"description" binding:"required,min=1"`
	StartAt         string `json:"start_at" binding:"required"`
	EndAt           string `json:"end_at" binding:"required"`
	MaxParticipants *int   `json:"max_participants" binding:"required,min=0"`
	MeetingURL      string `json:"meeting_url" binding:"required,startswith=https"`
}

type UpdateRequest struct {
	SkillID         string `json:"skill_id" binding:"required,uuid"`
	Name            string `json:"name" binding:"required,min=1,max=100"`
	Description     string `json:"description" binding:"required,min=1"`
	StartAt         string `json:"start_at" binding:"required"`
	EndAt           string `json:"end_at" binding:"required"`
	MaxParticipants *int   `json:"max_participants" binding:"required,min=0"`
	MeetingURL      string `json:"meeting_url" binding:"required,startswith=https"`
}

// StatusAt classifies a course against the given instant.
func StatusAt(startAt, endAt, now time.Time) string {
	if now.Before(startAt) {
		return StatusNotStarted
	}
	if now.After(endAt) {
		return StatusEnded
	}
	return StatusOngoing
}
