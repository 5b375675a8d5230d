package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	CountsForUser(ctx context.Context, id string) (models.UserCounts, error)
	// FindOrCreateUser returns the user mirroring the given provider
	// identity, creating it on first sign-in and refreshing the email and
	// display name afterwards.
	FindOrCreateUser(ctx context.Context, identity *models.User) (*models.User, bool, error)
}

// SQLUserRepository implements UserRepository with gorm
type SQLUserRepository struct {
	db *gorm.DB
}

// NewSQLUserRepository creates a new SQLUserRepository
func NewSQLUserRepository(db *gorm.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// CreateUser creates a new user
func (r *SQLUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "user")
}

// GetUserByID retrieves a user by ID
func (r *SQLUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Image").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetUserByExternalID retrieves a user by identity-provider subject
func (r *SQLUserRepository) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *SQLUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// UpdateUser updates an existing user
func (r *SQLUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "user")
}

// CountsForUser returns the number of pins, liked pins and comments of a user
func (r *SQLUserRepository) CountsForUser(ctx context.Context, id string) (models.UserCounts, error) {
	var counts models.UserCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Pin{}).Where("user_id = ?", id).Count(&counts.Pins).Error; err != nil {
		return counts, translate(err, "user")
	}
	if err := db.Model(&models.PinLike{}).Where("user_id = ?", id).Count(&counts.LikedPins).Error; err != nil {
		return counts, translate(err, "user")
	}
	if err := db.Model(&models.Comment{}).Where("user_id = ?", id).Count(&counts.Comments).Error; err != nil {
		return counts, translate(err, "user")
	}
	return counts, nil
}

// FindOrCreateUser mirrors a provider identity into a local user record
func (r *SQLUserRepository) FindOrCreateUser(ctx context.Context, identity *models.User) (*models.User, bool, error) {
	var (
		user    models.User
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ?", identity.ExternalID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = *identity
			created = true
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}

		changed := false
		if identity.Email != "" && identity.Email != user.Email {
			user.Email = identity.Email
			changed = true
		}
		if identity.DisplayName != "" && identity.DisplayName != user.DisplayName {
			user.DisplayName = identity.DisplayName
			changed = true
		}
		if !changed {
			return nil
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, false, translate(err, "user")
	}
	return &user, created, nil
}
