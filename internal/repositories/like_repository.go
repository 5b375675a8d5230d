package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anonto42/pins/backend/internal/models"
)

// LikeRepository defines the interface for the pin likedBy relation
type LikeRepository interface {
	// ToggleLike adds userID to the pin's likedBy relation when absent and
	// removes it when present. It returns the resulting membership and the
	// full relation ordered by user id, the order pin views use.
	ToggleLike(ctx context.Context, pinID, userID string) (bool, []string, error)
}

// SQLLikeRepository implements LikeRepository with gorm
type SQLLikeRepository struct {
	db *gorm.DB
}

// NewSQLLikeRepository creates a new SQLLikeRepository
func NewSQLLikeRepository(db *gorm.DB) *SQLLikeRepository {
	return &SQLLikeRepository{db: db}
}

// ToggleLike is a read-modify-write inside one transaction. Two concurrent
// toggles by the same user may both read the same state; the insert ignores
// the duplicate so the last writer wins.
func (r *SQLLikeRepository) ToggleLike(ctx context.Context, pinID, userID string) (bool, []string, error) {
	var (
		liked   bool
		likedBy []string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pin models.Pin
		if err := tx.Select("id").First(&pin, "id = ?", pinID).Error; err != nil {
			return err
		}

		already, err := hasLike(tx, pinID, userID)
		if err != nil {
			return err
		}

		if already {
			err = tx.Where("pin_id = ? AND user_id = ?", pinID, userID).Delete(&models.PinLike{}).Error
		} else {
			err = tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.PinLike{PinID: pinID, UserID: userID}).Error
		}
		if err != nil {
			return err
		}
		liked = !already

		likedBy, err = likerIDs(tx, pinID)
		return err
	})
	if err != nil {
		return false, nil, translate(err, "pin")
	}
	return liked, likedBy, nil
}

func hasLike(db *gorm.DB, pinID, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.PinLike{}).Where("pin_id = ? AND user_id = ?", pinID, userID).Count(&count).Error
	return count > 0, err
}

func likerIDs(db *gorm.DB, pinID string) ([]string, error) {
	ids := []string{}
	err := db.Model(&models.PinLike{}).
		Where("pin_id = ?", pinID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
