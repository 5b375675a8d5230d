// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/pkg/config"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := config.OpenSQL(config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given display name.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		ExternalID:  "ext-" + name,
		Email:       name + "@example.com",
		DisplayName: name,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(user).Error)
	return user
}

// CreateCommunity inserts a community.
func CreateCommunity(t testing.TB, db *gorm.DB, name, slug string) *models.Community {
	t.Helper()
	community := &models.Community{Name: name, Slug: slug}
	require.NoError(t, db.Create(community).Error)
	return community
}

// CreatePin inserts a pin owned by user in community at the given time.
func CreatePin(t testing.TB, db *gorm.DB, user *models.User, community *models.Community, description string, at time.Time) *models.Pin {
	t.Helper()
	pin := &models.Pin{
		Description: description,
		UserID:      user.ID,
		CommunityID: &community.ID,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, db.Omit("User", "Community", "Image", "LikedBy").Create(pin).Error)
	return pin
}

// Like adds user to the pin's likedBy relation.
func Like(t testing.TB, db *gorm.DB, pin *models.Pin, user *models.User) {
	t.Helper()
	require.NoError(t, db.Create(&models.PinLike{PinID: pin.ID, UserID: user.ID}).Error)
}

// Base is a fixed timestamp fixtures are placed around.
var Base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
