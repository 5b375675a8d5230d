package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/media"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/pkg/api"
)

// PinServiceConfig holds upload settings.
type PinServiceConfig struct {
	// BaseFolder prefixes every stored object's public id.
	BaseFolder     string
	MaxUploadBytes int64
}

type PinServiceDeps struct {
	Pins        repositories.PinRepository
	Likes       repositories.LikeRepository
	Comments    repositories.CommentRepository
	Communities repositories.CommunityRepository
	Images      repositories.ImageRepository
	Store       storage.ObjectStore
	Logger      *slog.Logger
}

// PinService implements the pin.* procedures.
type PinService struct {
	pins        repositories.PinRepository
	likes       repositories.LikeRepository
	comments    repositories.CommentRepository
	communities repositories.CommunityRepository
	images      repositories.ImageRepository
	store       storage.ObjectStore
	cfg         PinServiceConfig
	log         *slog.Logger
}

func NewPinService(deps PinServiceDeps, cfg PinServiceConfig) *PinService {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &PinService{
		pins:        deps.Pins,
		likes:       deps.Likes,
		comments:    deps.Comments,
		communities: deps.Communities,
		images:      deps.Images,
		store:       deps.Store,
		cfg:         cfg,
		log:         log,
	}
}

// Infinite returns one page of the feed. It reads limit+1 rows; when the
// extra row exists its id becomes nextCursor and it is not returned.
func (s *PinService) Infinite(ctx context.Context, in api.InfiniteInput) (*api.PinPage, error) {
	limit := in.PageLimit()
	if limit < 1 || limit > api.MaxPageLimit {
		return nil, domainerrors.ValidationWithDetails("invalid limit",
			map[string]string{"limit": "must be between 1 and 100"})
	}

	rows, err := s.pins.GetPinPage(ctx, repositories.PageQuery{
		Order:  in.Order,
		Fetch:  limit + 1,
		Cursor: in.Cursor,
		Near:   in.Near,
	})
	if err != nil {
		return nil, err
	}

	page := &api.PinPage{}
	if len(rows) > limit {
		next := rows[limit].ID
		page.NextCursor = &next
		rows = rows[:limit]
	}
	page.Pins = models.PinsToAPI(rows)
	return page, nil
}

func (s *PinService) All(ctx context.Context) ([]api.Pin, error) {
	pins, err := s.pins.GetAllPins(ctx)
	if err != nil {
		return nil, err
	}
	return models.PinsToAPI(pins), nil
}

// ByID returns the pin and counts the view, or nil when it does not exist.
func (s *PinService) ByID(ctx context.Context, id string) (*api.Pin, error) {
	pin, err := s.pins.GetPinByID(ctx, id)
	if err != nil {
		missing, err := notFoundAsNil(err)
		if missing {
			return nil, nil
		}
		return nil, err
	}

	if err := s.pins.IncrementViews(ctx, id); err != nil {
		missing, err := notFoundAsNil(err)
		if missing {
			return nil, nil
		}
		return nil, err
	}
	pin.Views++

	view := pin.ToAPI()
	return &view, nil
}

func (s *PinService) ByCommunity(ctx context.Context, communityID string) ([]api.Pin, error) {
	pins, err := s.pins.GetPinsByCommunityID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return models.PinsToAPI(pins), nil
}

func (s *PinService) ByUser(ctx context.Context, userID string) ([]api.Pin, error) {
	pins, err := s.pins.GetPinsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.PinsToAPI(pins), nil
}

// Create publishes a pin for the caller. When an image is attached it is
// uploaded before the record is written; if the write then fails the
// uploaded object is deleted again.
func (s *PinService) Create(ctx context.Context, caller *session.Session, in api.CreatePinInput) (*api.Pin, error) {
	if err := requireSession(caller); err != nil {
		return nil, err
	}
	if in.UserID != caller.UserID {
		return nil, domainerrors.Forbidden("pins can only be created for yourself")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, domainerrors.ValidationWithDetails("description is required",
			map[string]string{"description": "is required"})
	}

	if _, err := s.communities.GetCommunityByID(ctx, in.CommunityID); err != nil {
		return nil, err
	}

	pin := &models.Pin{
		Description:        description,
		Latitude:           in.Latitude,
		Longitude:          in.Longitude,
		City:               in.City,
		AdministrativeArea: in.AdministrativeArea,
		Country:            in.Country,
		UserID:             caller.UserID,
		CommunityID:        &in.CommunityID,
	}

	var (
		image    *models.Image
		uploaded string
	)
	if in.ImgSrc != "" {
		var err error
		image, uploaded, err = s.prepareImage(ctx, in.ImgSrc, in.ImgAlt)
		if err != nil {
			return nil, err
		}
	}

	if err := s.pins.CreatePin(ctx, pin, image); err != nil {
		if uploaded != "" {
			s.compensateUpload(ctx, uploaded)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "pin created", "pin_id", pin.ID, "user_id", pin.UserID)
	view := pin.ToAPI()
	return &view, nil
}

// prepareImage decodes the upload and stores it unless an identical image
// is already stored. It returns the public id it uploaded, if any.
func (s *PinService) prepareImage(ctx context.Context, src, alt string) (*models.Image, string, error) {
	data, err := media.DecodeDataURL(src)
	if err != nil {
		return nil, "", domainerrors.ValidationWithDetails("invalid image",
			map[string]string{"imgSrc": "must be a base64 encoded image"})
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", domainerrors.ValidationWithDetails("image too large",
			map[string]string{"imgSrc": "exceeds the upload size limit"})
	}

	placeholder, err := media.Analyze(data)
	if err != nil {
		return nil, "", domainerrors.ValidationWithDetails("invalid image",
			map[string]string{"imgSrc": "must be a png, jpeg, gif or webp image"}).WithCause(err)
	}

	publicID := storage.PublicID(s.cfg.BaseFolder, data)
	existing, err := s.images.GetImageByPublicID(ctx, publicID)
	switch {
	case err == nil:
		return existing, "", nil
	case domainerrors.CodeOf(err) != domainerrors.CodeNotFound:
		return nil, "", err
	}

	obj, err := s.store.Put(ctx, publicID, placeholder.ContentType, data)
	if err != nil {
		return nil, "", domainerrors.Upstream(err, "image upload failed")
	}

	return &models.Image{
		PublicID:    obj.PublicID,
		Src:         obj.URL,
		Alt:         alt,
		Width:       placeholder.Width,
		Height:      placeholder.Height,
		ContentType: placeholder.ContentType,
		Size:        obj.Size,
		BlurDataURL: placeholder.BlurDataURL,
		BlurHash:    placeholder.BlurHash,
	}, obj.PublicID, nil
}

// compensateUpload removes an object uploaded for a pin that was never
// written. A concurrent create of the same image may have linked it in the
// meantime, in which case the object stays. An image row nothing refers to
// is removed with the object.
func (s *PinService) compensateUpload(ctx context.Context, publicID string) {
	ctx = context.WithoutCancel(ctx)
	image, err := s.images.GetImageByPublicID(ctx, publicID)
	switch {
	case err == nil:
		refs, err := s.images.CountReferences(ctx, image.ID)
		if err != nil {
			s.log.ErrorContext(ctx, "count image references", "public_id", publicID, "error", err)
			return
		}
		if refs > 0 {
			return
		}
		if err := s.images.DeleteImage(ctx, image.ID); err != nil {
			s.log.ErrorContext(ctx, "delete orphaned image row", "public_id", publicID, "error", err)
			return
		}
	case !errors.Is(err, domainerrors.ErrNotFound):
		s.log.ErrorContext(ctx, "look up uploaded image", "public_id", publicID, "error", err)
		return
	}

	if err := s.store.Delete(ctx, publicID); err != nil && !errors.Is(err, storage.ErrNotExist) {
		s.log.ErrorContext(ctx, "compensating image delete failed", "public_id", publicID, "error", err)
		return
	}
	s.log.WarnContext(ctx, "removed image of failed pin create", "public_id", publicID)
}

// Delete removes the caller's pin. Admins may delete any pin.
func (s *PinService) Delete(ctx context.Context, caller *session.Session, id string) (*api.Pin, error) {
	if err := requireSession(caller); err != nil {
		return nil, err
	}

	pin, err := s.pins.GetPinByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pin.UserID != caller.UserID && caller.Role != api.RoleAdmin {
		return nil, domainerrors.Forbidden("only the author can delete this pin")
	}

	deleted, orphan, err := s.pins.DeletePin(ctx, id)
	if err != nil {
		return nil, err
	}

	if orphan != nil {
		if err := s.store.Delete(context.WithoutCancel(ctx), orphan.PublicID); err != nil && !errors.Is(err, storage.ErrNotExist) {
			s.log.WarnContext(ctx, "stored image not removed", "pin_id", id, "public_id", orphan.PublicID, "error", err)
		}
	}

	s.log.InfoContext(ctx, "pin deleted", "pin_id", id, "user_id", caller.UserID)
	view := deleted.ToAPI()
	return &view, nil
}

// Like toggles the caller's membership in the pin's likedBy relation.
func (s *PinService) Like(ctx context.Context, caller *session.Session, pinID string) (*api.LikeResult, error) {
	if err := requireSession(caller); err != nil {
		return nil, err
	}

	liked, likerIDs, err := s.likes.ToggleLike(ctx, pinID, caller.UserID)
	if err != nil {
		return nil, err
	}

	likedBy := make([]api.UserRef, len(likerIDs))
	for i, id := range likerIDs {
		likedBy[i] = api.UserRef{ID: id}
	}
	return &api.LikeResult{
		PinID:     pinID,
		Liked:     liked,
		LikeCount: len(likedBy),
		LikedBy:   likedBy,
	}, nil
}

// Comment adds a comment by the caller to a pin.
func (s *PinService) Comment(ctx context.Context, caller *session.Session, in api.CommentInput) (*api.Comment, error) {
	if err := requireSession(caller); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Content)
	if body == "" {
		return nil, domainerrors.ValidationWithDetails("comment is empty",
			map[string]string{"content": "is required"})
	}

	if _, err := s.pins.GetPinByID(ctx, in.PinID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PinID: in.PinID, UserID: caller.UserID, Body: body}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	view := comment.ToAPI()
	return &view, nil
}

// CommentsByPin returns the comments of a pin, oldest first.
func (s *PinService) CommentsByPin(ctx context.Context, pinID string) ([]api.Comment, error) {
	comments, err := s.comments.GetCommentsByPinID(ctx, pinID)
	if err != nil {
		return nil, err
	}
	return models.CommentsToAPI(comments), nil
}
