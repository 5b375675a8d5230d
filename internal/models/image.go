package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/id"
)

// Image is a stored asset. PublicID is the object-storage key and Src the
// URL it is served from; both are unique so identical uploads share a row.
type Image struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	PublicID    string    `json:"publicId" gorm:"uniqueIndex;size:255;not null"`
	Src         string    `json:"src" gorm:"uniqueIndex;size:1024;not null"`
	Alt         string    `json:"alt" gorm:"size:200"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	ContentType string    `json:"contentType" gorm:"size:64"`
	Size        int64     `json:"size"`
	BlurDataURL string    `json:"blurDataURL" gorm:"type:text"`
	BlurHash    string    `json:"blurHash" gorm:"size:64"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (i *Image) BeforeCreate(*gorm.DB) error {
	return assignID(&i.ID, id.PrefixImage)
}
