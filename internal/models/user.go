package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/id"
)

// Role values.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is the local mirror of an identity-provider account.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ExternalID  string    `json:"-" gorm:"uniqueIndex;size:128"` // provider subject (Arc uuid or Firebase UID)
	Email       string    `json:"email" gorm:"index;size:254"`
	DisplayName string    `json:"displayName" gorm:"size:100"`
	Role        string    `json:"role" gorm:"size:16;default:USER"`
	ImageID     *string   `json:"-" gorm:"size:32"`
	Image       *Image    `json:"image,omitempty"`
	LikedPins   []Pin     `json:"-" gorm:"many2many:pin_likes;joinForeignKey:UserID;joinReferences:PinID"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	return assignID(&u.ID, id.PrefixUser)
}

// UserCounts holds the derived relation sizes shown on a profile.
type UserCounts struct {
	Pins      int64
	LikedPins int64
	Comments  int64
}

func assignID(dst *string, prefix string) error {
	if *dst != "" {
		return nil
	}
	v, err := id.Generate(prefix)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
