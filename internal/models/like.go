package models

import "time"

// PinLike is the pin_likes join row between a pin and a user who liked it.
type PinLike struct {
	PinID     string    `gorm:"primaryKey;size:32"`
	UserID    string    `gorm:"primaryKey;size:32;index"`
	CreatedAt time.Time
}

func (PinLike) TableName() string { return "pin_likes" }
