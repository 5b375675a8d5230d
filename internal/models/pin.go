package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/id"
)

// Pin status values.
const (
	PinStatusPublished = "PUBLISHED"
	PinStatusHidden    = "HIDDEN"
)

// Pin is a user-authored, optionally geotagged post. The like count is
// always len(LikedBy); it is never stored.
type Pin struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:32"`
	Description        string     `json:"description" gorm:"type:text"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	City               string     `json:"city" gorm:"size:100"`
	AdministrativeArea string     `json:"administrativeArea" gorm:"size:100"`
	Country            string     `json:"country" gorm:"size:100"`
	Views              int        `json:"views" gorm:"not null;default:0"`
	Status             string     `json:"status" gorm:"size:16;default:PUBLISHED"`
	UserID             string     `json:"userId" gorm:"index;size:32;not null"`
	User               *User      `json:"user,omitempty"`
	CommunityID        *string    `json:"communityId" gorm:"index;size:32"`
	Community          *Community `json:"community,omitempty"`
	ImageID            *string    `json:"imageId" gorm:"index;size:32"`
	Image              *Image     `json:"image,omitempty"`
	LikedBy            []User     `json:"likedBy" gorm:"many2many:pin_likes;joinForeignKey:PinID;joinReferences:UserID"`
	Comments           []Comment  `json:"-"`
	CreatedAt          time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt          time.Time  `json:"updatedAt"`

	// CommentCount is filled by the repository from a grouped count.
	CommentCount int `json:"-" gorm:"-"`
}

func (p *Pin) BeforeCreate(*gorm.DB) error {
	if p.Status == "" {
		p.Status = PinStatusPublished
	}
	return assignID(&p.ID, id.PrefixPin)
}

