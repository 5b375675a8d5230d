package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/models"
)

// ImageRepository defines the interface for image data operations
type ImageRepository interface {
	GetImageByPublicID(ctx context.Context, publicID string) (*models.Image, error)
	DeleteImage(ctx context.Context, id string) error
	// CountReferences returns how many pins and users point at the image.
	CountReferences(ctx context.Context, id string) (int64, error)
}

// SQLImageRepository implements ImageRepository with gorm
type SQLImageRepository struct {
	db *gorm.DB
}

// NewSQLImageRepository creates a new SQLImageRepository
func NewSQLImageRepository(db *gorm.DB) *SQLImageRepository {
	return &SQLImageRepository{db: db}
}

// GetImageByPublicID retrieves an image by its storage key
func (r *SQLImageRepository) GetImageByPublicID(ctx context.Context, publicID string) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, "public_id = ?", publicID).Error; err != nil {
		return nil, translate(err, "image")
	}
	return &image, nil
}

// DeleteImage deletes an image row
func (r *SQLImageRepository) DeleteImage(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", id).Error, "image")
}

// CountReferences counts pins and users referencing the image
func (r *SQLImageRepository) CountReferences(ctx context.Context, id string) (int64, error) {
	return countImageReferences(r.db.WithContext(ctx), id)
}

func countImageReferences(db *gorm.DB, id string) (int64, error) {
	var pins, users int64
	if err := db.Model(&models.Pin{}).Where("image_id = ?", id).Count(&pins).Error; err != nil {
		return 0, translate(err, "image")
	}
	if err := db.Model(&models.User{}).Where("image_id = ?", id).Count(&users).Error; err != nil {
		return 0, translate(err, "image")
	}
	return pins + users, nil
}
