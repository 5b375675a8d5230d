package repositories

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/pkg/api"
)

// PageQuery selects one page of the pin feed.
type PageQuery struct {
	Order api.Order
	// Fetch is the number of rows to read. Callers pass limit+1 to learn
	// whether another page exists.
	Fetch int
	// Cursor is the id of the first pin of the page (inclusive).
	Cursor string
	// Near is required for api.OrderSpatial.
	Near *api.Point
}

// PinRepository defines the interface for pin data operations
type PinRepository interface {
	GetPinPage(ctx context.Context, q PageQuery) ([]models.Pin, error)
	GetAllPins(ctx context.Context) ([]models.Pin, error)
	GetPinByID(ctx context.Context, id string) (*models.Pin, error)
	GetPinsByCommunityID(ctx context.Context, communityID string) ([]models.Pin, error)
	GetPinsByUserID(ctx context.Context, userID string) ([]models.Pin, error)
	// CreatePin inserts the pin. A non-nil image without an ID is linked by
	// src, creating the row when no image with that src exists.
	CreatePin(ctx context.Context, pin *models.Pin, image *models.Image) error
	// DeletePin removes the pin with its likes and comments in one
	// transaction. The image row is removed too when nothing else references
	// it; that image is returned so its stored object can be destroyed.
	DeletePin(ctx context.Context, id string) (*models.Pin, *models.Image, error)
	IncrementViews(ctx context.Context, id string) error
}

// SQLPinRepository implements PinRepository with gorm
type SQLPinRepository struct {
	db *gorm.DB
}

// NewSQLPinRepository creates a new SQLPinRepository
func NewSQLPinRepository(db *gorm.DB) *SQLPinRepository {
	return &SQLPinRepository{db: db}
}

// sortKey is an SQL expression over a pins row. {{a}} stands for the table
// alias so the same key can be evaluated for the outer row and the cursor row.
type sortKey struct {
	sql  string
	args []any
	asc  bool
}

func (k sortKey) on(alias string) string {
	return strings.ReplaceAll(k.sql, "{{a}}", alias)
}

// after returns the keyset condition selecting the cursor row and every row
// that sorts after it.
func (k sortKey) after(cursor string) (string, []any) {
	cmp, idCmp := "<", "<="
	if k.asc {
		cmp, idCmp = ">", ">="
	}
	outer := k.on("p")
	inner := "(SELECT " + k.on("c") + " FROM pins c WHERE c.id = ?)"
	sql := fmt.Sprintf("(%s %s %s OR (%s = %s AND p.id %s ?))", outer, cmp, inner, outer, inner, idCmp)

	args := make([]any, 0, 4*len(k.args)+3)
	args = append(args, k.args...)
	args = append(args, k.args...)
	args = append(args, cursor)
	args = append(args, k.args...)
	args = append(args, k.args...)
	args = append(args, cursor, cursor)
	return sql, args
}

func (k sortKey) orderBy() clause.OrderBy {
	dir := "DESC"
	if k.asc {
		dir = "ASC"
	}
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                fmt.Sprintf("%s %s, p.id %s", k.on("p"), dir, dir),
		Vars:               k.args,
		WithoutParentheses: true,
	}}
}

// unlocated is the distance given to pins without coordinates so they sort last.
const unlocated = 1e18

func keyFor(q PageQuery) (sortKey, error) {
	switch q.Order {
	case "", api.OrderRecency:
		return sortKey{sql: "{{a}}.created_at"}, nil
	case api.OrderPopularity:
		return sortKey{sql: "(SELECT COUNT(*) FROM pin_likes l WHERE l.pin_id = {{a}}.id)"}, nil
	case api.OrderSpatial:
		if q.Near == nil {
			return sortKey{}, domainerrors.ValidationWithDetails("near is required for spatial order",
				map[string]string{"near": "is required"})
		}
		// Equirectangular approximation, squared. Monotonic in distance,
		// which is all ordering needs.
		lat, lng := q.Near.Latitude, q.Near.Longitude
		k := math.Cos(lat * math.Pi / 180)
		return sortKey{
			sql: fmt.Sprintf("(CASE WHEN {{a}}.latitude IS NULL OR {{a}}.longitude IS NULL THEN %g "+
				"ELSE ({{a}}.latitude - ?) * ({{a}}.latitude - ?) + "+
				"(({{a}}.longitude - ?) * ?) * (({{a}}.longitude - ?) * ?) END)", unlocated),
			args: []any{lat, lat, lng, k, lng, k},
			asc:  true,
		}, nil
	default:
		return sortKey{}, domainerrors.Validationf("unknown order %q", q.Order)
	}
}

// GetPinPage returns up to q.Fetch pins in feed order starting at the cursor
func (r *SQLPinRepository) GetPinPage(ctx context.Context, q PageQuery) ([]models.Pin, error) {
	key, err := keyFor(q)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	tx := db.Table("pins AS p").Select("p.*")

	if q.Cursor != "" {
		var exists int64
		if err := db.Model(&models.Pin{}).Where("id = ?", q.Cursor).Count(&exists).Error; err != nil {
			return nil, translate(err, "pin")
		}
		if exists == 0 {
			return nil, domainerrors.NotFoundf("cursor %s does not reference a pin", q.Cursor)
		}
		cond, args := key.after(q.Cursor)
		tx = tx.Where(cond, args...)
	}

	var pins []models.Pin
	err = withPinRelations(tx).
		Order(key.orderBy()).
		Limit(q.Fetch).
		Find(&pins).Error
	if err != nil {
		return nil, translate(err, "pin")
	}
	return pins, r.attachCommentCounts(ctx, pins)
}

// GetAllPins returns every pin, newest first
func (r *SQLPinRepository) GetAllPins(ctx context.Context) ([]models.Pin, error) {
	return r.findPins(ctx, r.db.WithContext(ctx))
}

// GetPinByID retrieves a pin by ID with its relations
func (r *SQLPinRepository) GetPinByID(ctx context.Context, id string) (*models.Pin, error) {
	var pin models.Pin
	if err := withPinRelations(r.db.WithContext(ctx)).First(&pin, "pins.id = ?", id).Error; err != nil {
		return nil, translate(err, "pin")
	}
	pins := []models.Pin{pin}
	if err := r.attachCommentCounts(ctx, pins); err != nil {
		return nil, err
	}
	return &pins[0], nil
}

// GetPinsByCommunityID returns the pins of a community, newest first
func (r *SQLPinRepository) GetPinsByCommunityID(ctx context.Context, communityID string) ([]models.Pin, error) {
	return r.findPins(ctx, r.db.WithContext(ctx).Where("community_id = ?", communityID))
}

// GetPinsByUserID returns the pins of a user, newest first
func (r *SQLPinRepository) GetPinsByUserID(ctx context.Context, userID string) ([]models.Pin, error) {
	return r.findPins(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *SQLPinRepository) findPins(ctx context.Context, tx *gorm.DB) ([]models.Pin, error) {
	var pins []models.Pin
	if err := withPinRelations(tx).Order("created_at DESC, id DESC").Find(&pins).Error; err != nil {
		return nil, translate(err, "pin")
	}
	return pins, r.attachCommentCounts(ctx, pins)
}

// CreatePin creates a pin, linking or creating its image
func (r *SQLPinRepository) CreatePin(ctx context.Context, pin *models.Pin, image *models.Image) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if image != nil {
			if image.ID == "" {
				err := tx.Where(models.Image{Src: image.Src}).FirstOrCreate(image).Error
				if err != nil {
					return err
				}
			}
			pin.ImageID = &image.ID
		}
		if err := tx.Omit(clause.Associations).Create(pin).Error; err != nil {
			return err
		}
		return withPinRelations(tx).First(pin, "pins.id = ?", pin.ID).Error
	})
	return translate(err, "pin")
}

// DeletePin deletes a pin and everything that hangs off it
func (r *SQLPinRepository) DeletePin(ctx context.Context, id string) (*models.Pin, *models.Image, error) {
	var (
		pin    models.Pin
		orphan *models.Image
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := withPinRelations(tx).First(&pin, "pins.id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("pin_id = ?", id).Delete(&models.PinLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("pin_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Pin{}, "id = ?", id).Error; err != nil {
			return err
		}

		if pin.ImageID == nil {
			return nil
		}
		refs, err := countImageReferences(tx, *pin.ImageID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return nil
		}
		if err := tx.Delete(&models.Image{}, "id = ?", *pin.ImageID).Error; err != nil {
			return err
		}
		orphan = pin.Image
		return nil
	})
	if err != nil {
		return nil, nil, translate(err, "pin")
	}
	return &pin, orphan, nil
}

// IncrementViews bumps the view counter without touching updated_at
func (r *SQLPinRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&models.Pin{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "pin")
	}
	if res.RowsAffected == 0 {
		return domainerrors.NotFound("pin not found")
	}
	return nil
}

func withPinRelations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("User.Image").
		Preload("Community").
		Preload("Image").
		Preload("LikedBy", func(db *gorm.DB) *gorm.DB { return db.Order("users.id") })
}

func (r *SQLPinRepository) attachCommentCounts(ctx context.Context, pins []models.Pin) error {
	if len(pins) == 0 {
		return nil
	}
	ids := make([]string, len(pins))
	for i := range pins {
		ids[i] = pins[i].ID
	}

	var rows []struct {
		PinID string
		Count int
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("pin_id, COUNT(*) AS count").
		Where("pin_id IN ?", ids).
		Group("pin_id").
		Scan(&rows).Error
	if err != nil {
		return translate(err, "comment")
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.PinID] = row.Count
	}
	for i := range pins {
		pins[i].CommentCount = counts[pins[i].ID]
	}
	return nil
}
