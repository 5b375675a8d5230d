// Package seed loads the demo communities, user, pins and comments.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/media"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/internal/storage"
)

// DemoExternalID is the identity subject of the seeded demo user.
const DemoExternalID = "seed-demo"

// Options controls a seed run.
type Options struct {
	// Store receives downloaded images. Images are skipped when nil.
	Store      storage.ObjectStore
	BaseFolder string
	// HTTPClient downloads the remote images.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Summary counts what a run created.
type Summary struct {
	Communities int
	Pins        int
	Comments    int
	Images      int
}

// Run seeds db. Running it again creates nothing new.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	communityRepo := repositories.NewSQLCommunityRepository(db)
	userRepo := repositories.NewSQLUserRepository(db)
	pinRepo := repositories.NewSQLPinRepository(db)
	commentRepo := repositories.NewSQLCommentRepository(db)
	imageRepo := repositories.NewSQLImageRepository(db)

	summary := &Summary{}

	communities := make(map[string]*models.Community, len(defaultCommunities))
	for _, c := range defaultCommunities {
		slug := models.Slugify(c.Name)
		if _, err := communityRepo.GetCommunityByName(ctx, slug); domainerrors.CodeOf(err) == domainerrors.CodeNotFound {
			summary.Communities++
		}
		community := &models.Community{Name: c.Name, Slug: slug, Description: c.Description}
		if err := communityRepo.UpsertCommunity(ctx, community); err != nil {
			return nil, fmt.Errorf("seed community %s: %w", c.Name, err)
		}
		communities[community.Slug] = community
		log.InfoContext(ctx, "community ready", "name", community.Name, "id", community.ID)
	}

	images := map[string]*models.Image{}
	if opts.Store != nil {
		for _, img := range defaultImages {
			image, err := fetchImage(ctx, opts, imageRepo, img)
			if err != nil {
				log.WarnContext(ctx, "skipping image", "key", img.Key, "error", err)
				continue
			}
			images[img.Key] = image
			summary.Images++
		}
	}

	user, _, err := userRepo.FindOrCreateUser(ctx, &models.User{
		ExternalID:  DemoExternalID,
		Email:       "demo@pins.local",
		DisplayName: "Demo",
	})
	if err != nil {
		return nil, fmt.Errorf("seed demo user: %w", err)
	}
	if avatar, ok := images["avatar"]; ok && user.ImageID == nil {
		if err := db.WithContext(ctx).Where(models.Image{Src: avatar.Src}).FirstOrCreate(avatar).Error; err != nil {
			return nil, fmt.Errorf("seed avatar: %w", err)
		}
		user.ImageID = &avatar.ID
		if err := userRepo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("seed avatar: %w", err)
		}
	}

	existing, err := pinRepo.GetPinsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.Description+"|"+p.City] = true
	}

	for _, p := range defaultPins {
		if seen[p.Description+"|"+p.City] {
			continue
		}
		community := communities[p.Community]
		lat, lng := p.Latitude, p.Longitude
		pin := &models.Pin{
			Description:        p.Description,
			Latitude:           &lat,
			Longitude:          &lng,
			City:               p.City,
			AdministrativeArea: p.AdministrativeArea,
			Country:            p.Country,
			UserID:             user.ID,
			CommunityID:        &community.ID,
		}
		if err := pinRepo.CreatePin(ctx, pin, images[p.Image]); err != nil {
			return nil, fmt.Errorf("seed pin %q: %w", p.Description, err)
		}
		summary.Pins++

		for _, body := range p.Comments {
			comment := &models.Comment{PinID: pin.ID, UserID: user.ID, Body: body}
			if err := commentRepo.CreateComment(ctx, comment); err != nil {
				return nil, fmt.Errorf("seed comment: %w", err)
			}
			summary.Comments++
		}
	}

	return summary, nil
}

// fetchImage downloads a remote image into the store and returns its
// unsaved row, or the stored row when the same bytes were seeded before.
func fetchImage(ctx context.Context, opts Options, images repositories.ImageRepository, img imageSeed) (*models.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", img.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, err
	}

	placeholder, err := media.Analyze(data)
	if err != nil {
		return nil, err
	}

	publicID := storage.PublicID(opts.BaseFolder, data)
	if existing, err := images.GetImageByPublicID(ctx, publicID); err == nil {
		return existing, nil
	}

	obj, err := opts.Store.Put(ctx, publicID, placeholder.ContentType, data)
	if err != nil {
		return nil, err
	}
	return &models.Image{
		PublicID:    obj.PublicID,
		Src:         obj.URL,
		Alt:         img.Alt,
		Width:       placeholder.Width,
		Height:      placeholder.Height,
		ContentType: placeholder.ContentType,
		Size:        obj.Size,
		BlurDataURL: placeholder.BlurDataURL,
		BlurHash:    placeholder.BlurHash,
	}, nil
}
