package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/models"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByPinID(ctx context.Context, pinID string) ([]models.Comment, error)
}

// SQLCommentRepository implements CommentRepository with gorm
type SQLCommentRepository struct {
	db *gorm.DB
}

// NewSQLCommentRepository creates a new SQLCommentRepository
func NewSQLCommentRepository(db *gorm.DB) *SQLCommentRepository {
	return &SQLCommentRepository{db: db}
}

// CreateComment creates a comment and loads its author
func (r *SQLCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(comment).Error; err != nil {
		return translate(err, "comment")
	}
	return translate(db.Preload("User.Image").First(comment, "id = ?", comment.ID).Error, "comment")
}

// GetCommentsByPinID returns the comments of a pin, oldest first
func (r *SQLCommentRepository) GetCommentsByPinID(ctx context.Context, pinID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User.Image").
		Where("pin_id = ?", pinID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, translate(err, "comment")
	}
	return comments, nil
}
