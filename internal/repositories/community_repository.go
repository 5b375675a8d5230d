package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/models"
)

// CommunityRepository defines the interface for community data operations
type CommunityRepository interface {
	GetCommunities(ctx context.Context) ([]models.Community, error)
	GetCommunityByID(ctx context.Context, id string) (*models.Community, error)
	// GetCommunityByName matches the name case-insensitively or the slug exactly.
	GetCommunityByName(ctx context.Context, name string) (*models.Community, error)
	CreateCommunity(ctx context.Context, community *models.Community) error
	UpsertCommunity(ctx context.Context, community *models.Community) error
}

// SQLCommunityRepository implements CommunityRepository with gorm
type SQLCommunityRepository struct {
	db *gorm.DB
}

// NewSQLCommunityRepository creates a new SQLCommunityRepository
func NewSQLCommunityRepository(db *gorm.DB) *SQLCommunityRepository {
	return &SQLCommunityRepository{db: db}
}

// GetCommunities returns every community ordered by name
func (r *SQLCommunityRepository) GetCommunities(ctx context.Context) ([]models.Community, error) {
	var communities []models.Community
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&communities).Error; err != nil {
		return nil, translate(err, "community")
	}
	return communities, nil
}

// GetCommunityByID retrieves a community by ID
func (r *SQLCommunityRepository) GetCommunityByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).First(&community, "id = ?", id).Error; err != nil {
		return nil, translate(err, "community")
	}
	return &community, nil
}

// GetCommunityByName retrieves a community by name or slug
func (r *SQLCommunityRepository) GetCommunityByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ? OR slug = ?", strings.ToLower(name), name).
		First(&community).Error
	if err != nil {
		return nil, translate(err, "community")
	}
	return &community, nil
}

// CreateCommunity creates a new community
func (r *SQLCommunityRepository) CreateCommunity(ctx context.Context, community *models.Community) error {
	return translate(r.db.WithContext(ctx).Create(community).Error, "community")
}

// UpsertCommunity creates the community unless one with the same slug
// exists, in which case community is filled from the stored row.
func (r *SQLCommunityRepository) UpsertCommunity(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).
		Where(models.Community{Slug: community.Slug}).
		Attrs(models.Community{Name: community.Name, Description: community.Description}).
		FirstOrCreate(community).Error
	return translate(err, "community")
}
