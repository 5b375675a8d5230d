package models

import "gorm.io/gorm"

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Pin{}, "LikedBy", &PinLike{}); err != nil {
		return err
	}
	if err := db.SetupJoinTable(&User{}, "LikedPins", &PinLike{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&Image{},
		&User{},
		&Community{},
		&Pin{},
		&PinLike{},
		&Comment{},
	)
}
