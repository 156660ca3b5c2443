package skill

import (
	"errors"
	"time"
)

type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	ErrNotFound      = errors.New("skill not found")
	ErrDuplicateName = errors.New("skill name already exists")
)

type CreateSkillRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}
