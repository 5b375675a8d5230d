package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/id"
)

// Comment represents a comment on a pin
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	PinID     string    `json:"pinId" gorm:"index;size:32;not null"`
	UserID    string    `json:"userId" gorm:"index;size:32;not null"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Comment) BeforeCreate(*gorm.DB) error {
	return assignID(&c.ID, id.PrefixComment)
}
