package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/identity"
	"github.com/anonto42/pins/backend/internal/logger"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/repositories"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/internal/testutil"
	"github.com/anonto42/pins/backend/pkg/api"
)

type env struct {
	db        *gorm.DB
	store     *storage.MemoryStore
	deps      PinServiceDeps
	pins      *PinService
	alice     *models.User
	bob       *models.User
	community *models.Community
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	store := storage.NewMemoryStore("http://localhost:8080")
	deps := PinServiceDeps{
		Pins:        repositories.NewSQLPinRepository(db),
		Likes:       repositories.NewSQLLikeRepository(db),
		Comments:    repositories.NewSQLCommentRepository(db),
		Communities: repositories.NewSQLCommunityRepository(db),
		Images:      repositories.NewSQLImageRepository(db),
		Store:       store,
		Logger:      logger.Discard(),
	}
	return &env{
		db:        db,
		store:     store,
		deps:      deps,
		pins:      NewPinService(deps, PinServiceConfig{BaseFolder: "pins", MaxUploadBytes: 1 << 20}),
		alice:     testutil.CreateUser(t, db, "alice"),
		bob:       testutil.CreateUser(t, db, "bob"),
		community: testutil.CreateCommunity(t, db, "Sunsets", "sunsets"),
	}
}

func callerFor(u *models.User) *session.Session {
	return &session.Session{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}
}

func pngDataURL(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (e *env) createInput(user *models.User) api.CreatePinInput {
	return api.CreatePinInput{
		Description: "golden hour",
		CommunityID: e.community.ID,
		UserID:      user.ID,
	}
}

func intPtr(v int) *int { return &v }

func TestInfinite_NextCursorIsFirstRowOfNextPage(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 5; i++ {
		testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base.Add(time.Duration(i)*time.Minute))
	}
	ctx := context.Background()

	first, err := e.pins.Infinite(ctx, api.InfiniteInput{Limit: intPtr(2)})
	require.NoError(t, err)
	require.Len(t, first.Pins, 2)
	require.NotNil(t, first.NextCursor)

	second, err := e.pins.Infinite(ctx, api.InfiniteInput{Limit: intPtr(2), Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Pins, 2)
	assert.Equal(t, *first.NextCursor, second.Pins[0].ID)

	third, err := e.pins.Infinite(ctx, api.InfiniteInput{Limit: intPtr(2), Cursor: *second.NextCursor})
	require.NoError(t, err)
	assert.Len(t, third.Pins, 1)
	assert.Nil(t, third.NextCursor)
}

func TestInfinite_ExactMultipleHasNoTrailingCursor(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 2; i++ {
		testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base.Add(time.Duration(i)*time.Minute))
	}

	page, err := e.pins.Infinite(context.Background(), api.InfiniteInput{Limit: intPtr(2)})
	require.NoError(t, err)
	assert.Len(t, page.Pins, 2)
	assert.Nil(t, page.NextCursor)
}

func TestInfinite_LimitBounds(t *testing.T) {
	e := newEnv(t)
	for _, limit := range []int{0, 101, -1} {
		_, err := e.pins.Infinite(context.Background(), api.InfiniteInput{Limit: intPtr(limit)})
		assert.ErrorIs(t, err, domainerrors.ErrValidation, "limit %d", limit)
	}
}

func TestByID_CountsViewsAndReturnsNilWhenMissing(t *testing.T) {
	e := newEnv(t)
	pin := testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base)
	ctx := context.Background()

	got, err := e.pins.ByID(ctx, pin.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Views)

	got, err = e.pins.ByID(ctx, pin.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)

	got, err = e.pins.ByID(ctx, "pin-000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreate_Authorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.pins.Create(ctx, nil, e.createInput(e.alice))
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = e.pins.Create(ctx, callerFor(e.bob), e.createInput(e.alice))
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	in := e.createInput(e.alice)
	in.CommunityID = "com-000000000000000000000"
	_, err = e.pins.Create(ctx, callerFor(e.alice), in)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCreate_WithImage(t *testing.T) {
	e := newEnv(t)
	in := e.createInput(e.alice)
	in.ImgSrc = pngDataURL(t, color.RGBA{R: 200, G: 80, B: 20, A: 255})
	in.ImgAlt = "sunset"
	lat, lng := 52.52, 13.40
	in.Latitude, in.Longitude = &lat, &lng

	pin, err := e.pins.Create(context.Background(), callerFor(e.alice), in)
	require.NoError(t, err)

	require.NotNil(t, pin.Image)
	assert.Equal(t, 32, pin.Image.Width)
	assert.Equal(t, 24, pin.Image.Height)
	assert.Equal(t, "sunset", pin.Image.Alt)
	assert.Contains(t, pin.Image.BlurDataURL, "data:image/png;base64,")
	assert.NotEmpty(t, pin.Image.BlurHash)
	assert.Contains(t, pin.Image.Src, "/media/pins/")
	assert.Equal(t, e.alice.ID, pin.User.ID)
	assert.Equal(t, e.community.ID, pin.Community.ID)
	assert.Equal(t, &lat, pin.Latitude)
	assert.Empty(t, pin.LikedBy)
	assert.Equal(t, 1, e.store.Len())
}

func TestCreate_IdenticalImageSharesRow(t *testing.T) {
	e := newEnv(t)
	src := pngDataURL(t, color.RGBA{B: 255, A: 255})
	ctx := context.Background()

	in := e.createInput(e.alice)
	in.ImgSrc = src
	first, err := e.pins.Create(ctx, callerFor(e.alice), in)
	require.NoError(t, err)

	in = e.createInput(e.bob)
	in.ImgSrc = src
	second, err := e.pins.Create(ctx, callerFor(e.bob), in)
	require.NoError(t, err)

	assert.Equal(t, first.Image.ID, second.Image.ID)
	assert.Equal(t, 1, e.store.Len())
}

func TestCreate_RejectsBadImages(t *testing.T) {
	e := newEnv(t)
	for _, src := range []string{
		"not base64 !!",
		"data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
	} {
		in := e.createInput(e.alice)
		in.ImgSrc = src
		_, err := e.pins.Create(context.Background(), callerFor(e.alice), in)
		assert.ErrorIs(t, err, domainerrors.ErrValidation)
	}
	assert.Equal(t, 0, e.store.Len())
}

type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) Put(context.Context, string, string, []byte) (storage.Object, error) {
	return storage.Object{}, errors.New("bucket unavailable")
}

func TestCreate_UploadFailureAbortsCreate(t *testing.T) {
	e := newEnv(t)
	deps := e.deps
	deps.Store = failingStore{MemoryStore: e.store}
	svc := NewPinService(deps, PinServiceConfig{BaseFolder: "pins"})

	in := e.createInput(e.alice)
	in.ImgSrc = pngDataURL(t, color.White)
	_, err := svc.Create(context.Background(), callerFor(e.alice), in)
	assert.ErrorIs(t, err, domainerrors.ErrUpstream)

	var count int64
	require.NoError(t, e.db.Model(&models.Pin{}).Count(&count).Error)
	assert.Zero(t, count)
}

type failingPinRepository struct {
	repositories.PinRepository
}

func (failingPinRepository) CreatePin(context.Context, *models.Pin, *models.Image) error {
	return domainerrors.Internal("insert failed")
}

func TestCreate_RecordFailureDeletesUpload(t *testing.T) {
	e := newEnv(t)
	deps := e.deps
	deps.Pins = failingPinRepository{PinRepository: deps.Pins}
	svc := NewPinService(deps, PinServiceConfig{BaseFolder: "pins"})

	in := e.createInput(e.alice)
	in.ImgSrc = pngDataURL(t, color.Black)
	_, err := svc.Create(context.Background(), callerFor(e.alice), in)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	assert.Equal(t, 0, e.store.Len())
}

// racingPinRepository runs before, standing in for a concurrent writer,
// and then fails the insert.
type racingPinRepository struct {
	repositories.PinRepository
	before func(image *models.Image)
}

func (r racingPinRepository) CreatePin(_ context.Context, _ *models.Pin, image *models.Image) error {
	r.before(image)
	return domainerrors.Internal("insert failed")
}

func TestCreate_RecordFailureKeepsUploadLinkedMeanwhile(t *testing.T) {
	e := newEnv(t)
	deps := e.deps
	deps.Pins = racingPinRepository{PinRepository: deps.Pins, before: func(image *models.Image) {
		row := *image
		require.NoError(t, e.db.Create(&row).Error)
		other := testutil.CreatePin(t, e.db, e.bob, e.community, "same picture", testutil.Base)
		require.NoError(t, e.db.Model(other).Update("image_id", row.ID).Error)
	}}
	svc := NewPinService(deps, PinServiceConfig{BaseFolder: "pins"})

	in := e.createInput(e.alice)
	in.ImgSrc = pngDataURL(t, color.RGBA{B: 255, A: 255})
	_, err := svc.Create(context.Background(), callerFor(e.alice), in)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	assert.Equal(t, 1, e.store.Len())

	var images int64
	require.NoError(t, e.db.Model(&models.Image{}).Count(&images).Error)
	assert.Equal(t, int64(1), images)
}

func TestCreate_RecordFailureRemovesOrphanedImageRow(t *testing.T) {
	e := newEnv(t)
	deps := e.deps
	deps.Pins = racingPinRepository{PinRepository: deps.Pins, before: func(image *models.Image) {
		row := *image
		require.NoError(t, e.db.Create(&row).Error)
	}}
	svc := NewPinService(deps, PinServiceConfig{BaseFolder: "pins"})

	in := e.createInput(e.alice)
	in.ImgSrc = pngDataURL(t, color.RGBA{R: 255, B: 255, A: 255})
	_, err := svc.Create(context.Background(), callerFor(e.alice), in)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)
	assert.Equal(t, 0, e.store.Len())

	var images int64
	require.NoError(t, e.db.Model(&models.Image{}).Count(&images).Error)
	assert.Zero(t, images)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	in := e.createInput(e.alice)
	in.ImgSrc = pngDataURL(t, color.RGBA{G: 255, A: 255})
	pin, err := e.pins.Create(ctx, callerFor(e.alice), in)
	require.NoError(t, err)

	_, err = e.pins.Delete(ctx, nil, pin.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = e.pins.Delete(ctx, callerFor(e.bob), pin.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	deleted, err := e.pins.Delete(ctx, callerFor(e.alice), pin.ID)
	require.NoError(t, err)
	assert.Equal(t, pin.ID, deleted.ID)
	assert.Equal(t, 0, e.store.Len())

	_, err = e.pins.Delete(ctx, callerFor(e.alice), pin.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDelete_AdminMayDeleteAnyPin(t *testing.T) {
	e := newEnv(t)
	pin := testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base)
	admin := callerFor(e.bob)
	admin.Role = api.RoleAdmin

	_, err := e.pins.Delete(context.Background(), admin, pin.ID)
	require.NoError(t, err)
}

func TestLike_TogglesAndCountMatchesRelation(t *testing.T) {
	e := newEnv(t)
	pin := testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base)
	ctx := context.Background()

	_, err := e.pins.Like(ctx, nil, pin.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	res, err := e.pins.Like(ctx, callerFor(e.bob), pin.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)
	assert.Equal(t, []api.UserRef{{ID: e.bob.ID}}, res.LikedBy)

	res, err = e.pins.Like(ctx, callerFor(e.bob), pin.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Zero(t, res.LikeCount)
	assert.Empty(t, res.LikedBy)

	got, err := e.pins.ByID(ctx, pin.ID)
	require.NoError(t, err)
	assert.Equal(t, len(got.LikedBy), got.Count.LikedBy)

	_, err = e.pins.Like(ctx, callerFor(e.bob), "pin-000000000000000000000")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestComment(t *testing.T) {
	e := newEnv(t)
	pin := testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base)
	ctx := context.Background()

	_, err := e.pins.Comment(ctx, nil, api.CommentInput{PinID: pin.ID, Content: "nice"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = e.pins.Comment(ctx, callerFor(e.bob), api.CommentInput{PinID: pin.ID, Content: "   "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = e.pins.Comment(ctx, callerFor(e.bob), api.CommentInput{PinID: "pin-000000000000000000000", Content: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	c, err := e.pins.Comment(ctx, callerFor(e.bob), api.CommentInput{PinID: pin.ID, Content: " nice shot "})
	require.NoError(t, err)
	assert.Equal(t, "nice shot", c.Body)
	assert.Equal(t, e.bob.ID, c.User.ID)

	comments, err := e.pins.CommentsByPin(ctx, pin.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	got, err := e.pins.ByID(ctx, pin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count.Comments)
}

func TestCommunityService(t *testing.T) {
	e := newEnv(t)
	testutil.CreateCommunity(t, e.db, "Architecture", "architecture")
	svc := NewCommunityService(repositories.NewSQLCommunityRepository(e.db))
	ctx := context.Background()

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Architecture", all[0].Name)

	byName, err := svc.ByName(ctx, "sunsets")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, e.community.ID, byName.ID)

	missing, err := svc.ByID(ctx, "com-000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserService(t *testing.T) {
	e := newEnv(t)
	pin := testutil.CreatePin(t, e.db, e.alice, e.community, "p", testutil.Base)
	testutil.Like(t, e.db, pin, e.alice)
	svc := NewUserService(repositories.NewSQLUserRepository(e.db), repositories.NewSQLPinRepository(e.db))
	ctx := context.Background()

	_, err := svc.ByID(ctx, nil, e.alice.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	profile, err := svc.ByID(ctx, callerFor(e.bob), e.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.Count.Pins)
	assert.Equal(t, int64(1), profile.Count.LikedPins)
	assert.Zero(t, profile.Count.Comments)

	_, err = svc.ByID(ctx, callerFor(e.bob), "usr-000000000000000000000")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	pins, err := svc.Pins(ctx, e.alice.ID)
	require.NoError(t, err)
	assert.Len(t, pins, 1)
}

type stubProvider struct {
	identity *identity.Identity
	err      error
}

func (p stubProvider) Authenticate(context.Context, identity.Credentials) (*identity.Identity, error) {
	return p.identity, p.err
}

type failingUserRepository struct {
	repositories.UserRepository
}

func (failingUserRepository) FindOrCreateUser(context.Context, *models.User) (*models.User, bool, error) {
	return nil, false, domainerrors.Internal("database down")
}

func TestSignIn(t *testing.T) {
	db := testutil.NewDB(t)
	users := repositories.NewSQLUserRepository(db)
	sessions := session.NewManager("test-secret", time.Hour)
	ctx := context.Background()
	creds := api.SignInInput{Username: "kim@example.com", Password: "pw"}

	t.Run("rejected", func(t *testing.T) {
		svc := NewAuthService(stubProvider{err: identity.ErrRejected}, users, sessions, logger.Discard())
		_, err := svc.SignIn(ctx, creds)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("provider down", func(t *testing.T) {
		svc := NewAuthService(stubProvider{err: io.ErrUnexpectedEOF}, users, sessions, logger.Discard())
		_, err := svc.SignIn(ctx, creds)
		assert.ErrorIs(t, err, domainerrors.ErrUpstream)
	})

	ident := &identity.Identity{Subject: "arc-1", Email: "kim@example.com", DisplayName: "kim", AccessToken: "at", RefreshToken: "rt"}

	t.Run("local user failure surfaces", func(t *testing.T) {
		svc := NewAuthService(stubProvider{identity: ident}, failingUserRepository{users}, sessions, logger.Discard())
		_, err := svc.SignIn(ctx, creds)
		assert.ErrorIs(t, err, domainerrors.ErrInternal)
	})

	t.Run("established", func(t *testing.T) {
		svc := NewAuthService(stubProvider{identity: ident}, users, sessions, logger.Discard())
		res, err := svc.SignIn(ctx, creds)
		require.NoError(t, err)
		assert.Equal(t, "kim@example.com", res.Session.User.Email)
		assert.Equal(t, api.RoleUser, res.Session.User.Role)
		assert.Equal(t, "at", res.Session.AccessToken)

		sess, err := svc.Authenticate(res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.Session.User.ID, sess.UserID)
		assert.Equal(t, res.Session.User, svc.GetSession(sess).User)

		again, err := svc.SignIn(ctx, creds)
		require.NoError(t, err)
		assert.Equal(t, res.Session.User.ID, again.Session.User.ID)
	})

	t.Run("bad token", func(t *testing.T) {
		svc := NewAuthService(stubProvider{}, users, sessions, logger.Discard())
		_, err := svc.Authenticate("garbage")
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
		assert.Nil(t, svc.GetSession(nil))
	})
}
