package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/identity"
	"github.com/anonto42/pins/backend/internal/logger"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/internal/testutil"
	"github.com/anonto42/pins/backend/pkg/api"
	"github.com/anonto42/pins/backend/pkg/config"
)

type stubProvider struct{}

func (stubProvider) Authenticate(_ context.Context, creds identity.Credentials) (*identity.Identity, error) {
	if creds.Password != "correct horse" {
		return nil, identity.ErrRejected
	}
	return &identity.Identity{Subject: "arc-" + creds.Username, Email: creds.Username, DisplayName: "kim"}, nil
}

type server struct {
	e        *echo.Echo
	db       *gorm.DB
	sessions *session.Manager
	store    *storage.MemoryStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		Auth:    config.AuthConfig{SessionTTL: time.Hour},
		Storage: config.StorageConfig{BaseFolder: "pins", MaxUploadBytes: 1 << 20},
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			SignInPerMinute:   1,
			SignInBurst:       3,
			MutationPerSecond: 1000,
			MutationBurst:     1000,
		},
	}
	db := testutil.NewDB(t)
	store := storage.NewMemoryStore("http://example.test")
	sessions := session.NewManager("test-secret", time.Hour)

	e, stop := New(Dependencies{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Identity: stubProvider{},
		Sessions: sessions,
		Logger:   logger.Discard(),
	})
	t.Cleanup(stop)
	return &server{e: e, db: db, sessions: sessions, store: store}
}

func (s *server) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := s.sessions.Issue(&session.Session{UserID: u.ID, Email: u.Email, Role: u.Role})
	require.NoError(t, err)
	return tok
}

func (s *server) query(t *testing.T, proc string, input any, token string) *httptest.ResponseRecorder {
	t.Helper()
	target := api.Path(proc)
	if input != nil {
		raw, err := json.Marshal(input)
		require.NoError(t, err)
		target += "?input=" + url.QueryEscape(string(raw))
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *server) mutate(t *testing.T, proc string, input any, token string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(input)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, api.Path(proc), bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env api.RawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Nil(t, env.Error, rec.Body.String())
	require.NotNil(t, env.Result)
	var out T
	require.NoError(t, json.Unmarshal(env.Result.Data, &out))
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) *api.ErrorBody {
	t.Helper()
	var env api.RawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error
}

func TestInfiniteFeedOverHTTP(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	community := testutil.CreateCommunity(t, s.db, "Sunsets", "sunsets")
	for i := 0; i < 3; i++ {
		testutil.CreatePin(t, s.db, alice, community, "p", testutil.Base.Add(time.Duration(i)*time.Minute))
	}

	rec := s.query(t, api.ProcPinInfinite, map[string]any{"limit": 2}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[api.PinPage](t, rec)
	assert.Len(t, page.Pins, 2)
	require.NotNil(t, page.NextCursor)

	rec = s.query(t, api.ProcPinInfinite, map[string]any{"limit": 2, "cursor": *page.NextCursor}, "")
	page = decode[api.PinPage](t, rec)
	assert.Len(t, page.Pins, 1)
	assert.Nil(t, page.NextCursor)

	rec = s.query(t, api.ProcPinInfinite, nil, "")
	assert.Len(t, decode[api.PinPage](t, rec).Pins, 3)
}

func TestInfiniteFeedErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		input  any
		status int
		code   api.ErrorCode
	}{
		{"limit too large", map[string]any{"limit": 101}, http.StatusBadRequest, api.CodeValidation},
		{"limit zero", map[string]any{"limit": 0}, http.StatusBadRequest, api.CodeValidation},
		{"malformed cursor", map[string]any{"cursor": "???"}, http.StatusBadRequest, api.CodeValidation},
		{"unknown cursor", map[string]any{"cursor": "pin-000000000000000000000"}, http.StatusNotFound, api.CodeNotFound},
		{"spatial without near", map[string]any{"order": "spatial"}, http.StatusBadRequest, api.CodeValidation},
		{"unknown order", map[string]any{"order": "random"}, http.StatusBadRequest, api.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.query(t, api.ProcPinInfinite, tt.input, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorOf(t, rec).Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, api.Path(api.ProcPinInfinite)+"?input=%7Bnope", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, api.CodeValidation, errorOf(t, rec).Code)
}

func TestPinLifecycleOverHTTP(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")
	community := testutil.CreateCommunity(t, s.db, "Sunsets", "sunsets")

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	img.Set(3, 3, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	input := api.CreatePinInput{
		Description: "harbour at dusk",
		CommunityID: community.ID,
		UserID:      alice.ID,
		ImgSrc:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}

	rec := s.mutate(t, api.ProcPinCreate, input, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.mutate(t, api.ProcPinCreate, input, s.token(t, bob))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.mutate(t, api.ProcPinCreate, input, s.token(t, alice))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pin := decode[api.Pin](t, rec)
	require.NotNil(t, pin.Image)

	media, err := url.Parse(pin.Image.Src)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, media.Path, nil)
	mrec := httptest.NewRecorder()
	s.e.ServeHTTP(mrec, req)
	assert.Equal(t, http.StatusOK, mrec.Code)
	assert.Equal(t, "image/png", mrec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, buf.Bytes(), mrec.Body.Bytes())

	rec = s.mutate(t, api.ProcPinLike, api.IDInput{ID: pin.ID}, s.token(t, bob))
	like := decode[api.LikeResult](t, rec)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.LikeCount)

	rec = s.mutate(t, api.ProcPinComment, api.CommentInput{PinID: pin.ID, Content: "lovely"}, s.token(t, bob))
	decode[api.Comment](t, rec)

	rec = s.query(t, api.ProcPinByID, api.IDInput{ID: pin.ID}, "")
	got := decode[*api.Pin](t, rec)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Count.LikedBy)
	assert.Equal(t, 1, got.Count.Comments)
	assert.True(t, got.LikedByUser(bob.ID))

	rec = s.mutate(t, api.ProcPinDelete, api.IDInput{ID: pin.ID}, s.token(t, bob))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.mutate(t, api.ProcPinDelete, api.IDInput{ID: pin.ID}, s.token(t, alice))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.store.Len())

	rec = s.query(t, api.ProcPinByID, api.IDInput{ID: pin.ID}, "")
	assert.Equal(t, "null", string(mustRawData(t, rec)))
}

func TestAnonymousMutationsRejectedBeforeInput(t *testing.T) {
	s := newServer(t)
	alice := testutil.CreateUser(t, s.db, "alice")
	community := testutil.CreateCommunity(t, s.db, "Sunsets", "sunsets")
	pin := testutil.CreatePin(t, s.db, alice, community, "quiet bay", testutil.Base)

	cases := []struct {
		proc  string
		input any
	}{
		{api.ProcPinLike, map[string]any{}},
		{api.ProcPinLike, api.IDInput{ID: pin.ID}},
		{api.ProcPinDelete, map[string]any{"id": "not-an-id"}},
		{api.ProcPinDelete, api.IDInput{ID: pin.ID}},
		{api.ProcPinCreate, map[string]any{"description": "test"}},
		{api.ProcPinCreate, api.CreatePinInput{
			Description: "harbour",
			CommunityID: community.ID,
			UserID:      alice.ID,
			ImgSrc:      "data:image/png;base64,iVBORw0KGgo=",
		}},
		{api.ProcPinComment, map[string]any{}},
		{api.ProcPinComment, api.CommentInput{PinID: pin.ID, Content: "hi"}},
	}
	for _, tc := range cases {
		rec := s.mutate(t, tc.proc, tc.input, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %v: %s", tc.proc, tc.input, rec.Body.String())

		var env api.RawResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.NotNil(t, env.Error)
		assert.Equal(t, api.CodeUnauthorized, env.Error.Code)
	}

	rec := s.query(t, api.ProcUserByID, map[string]any{}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var likes, pins, comments int64
	require.NoError(t, s.db.Model(&models.PinLike{}).Count(&likes).Error)
	require.NoError(t, s.db.Model(&models.Pin{}).Count(&pins).Error)
	require.NoError(t, s.db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Equal(t, int64(1), pins)
	assert.Zero(t, comments)
	assert.Equal(t, 0, s.store.Len())
}

func mustRawData(t *testing.T, rec *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()
	var env api.RawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Result)
	return env.Result.Data
}

func TestAuthOverHTTP(t *testing.T) {
	s := newServer(t)

	rec := s.query(t, api.ProcAuthGetSession, nil, "")
	assert.Equal(t, "null", string(mustRawData(t, rec)))

	rec = s.mutate(t, api.ProcAuthSignIn, api.SignInInput{Username: "kim@example.com", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.mutate(t, api.ProcAuthSignIn, api.SignInInput{Username: "kim@example.com", Password: "correct horse"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[api.SignInResult](t, rec)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == api.SessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, res.Token, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, api.Path(api.ProcAuthGetSession), nil)
	req.AddCookie(cookie)
	srec := httptest.NewRecorder()
	s.e.ServeHTTP(srec, req)
	sess := decode[*api.Session](t, srec)
	require.NotNil(t, sess)
	assert.Equal(t, "kim@example.com", sess.User.Email)

	rec = s.query(t, api.ProcUserByID, api.IDInput{ID: sess.User.ID}, res.Token)
	profile := decode[api.UserProfile](t, rec)
	assert.Equal(t, sess.User.ID, profile.ID)

	rec = s.query(t, api.ProcUserByID, api.IDInput{ID: sess.User.ID}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.mutate(t, api.ProcAuthSignOut, api.EmptyInput{}, res.Token)
	assert.True(t, decode[api.SignOutResult](t, rec).OK)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestSignInIsRateLimited(t *testing.T) {
	s := newServer(t)
	in := api.SignInInput{Username: "kim@example.com", Password: "wrong"}

	for i := 0; i < 3; i++ {
		rec := s.mutate(t, api.ProcAuthSignIn, in, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := s.mutate(t, api.ProcAuthSignIn, in, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, api.CodeTooManyRequests, errorOf(t, rec).Code)
}

func TestCommunitiesAndUnknownRoutes(t *testing.T) {
	s := newServer(t)
	testutil.CreateCommunity(t, s.db, "Sunsets", "sunsets")
	testutil.CreateCommunity(t, s.db, "Architecture", "architecture")

	all := decode[[]api.Community](t, s.query(t, api.ProcCommunityAll, nil, ""))
	require.Len(t, all, 2)
	assert.Equal(t, "Architecture", all[0].Name)

	byName := decode[*api.Community](t, s.query(t, api.ProcCommunityByName, api.NameInput{Name: "SUNSETS"}, ""))
	require.NotNil(t, byName)
	assert.Equal(t, "sunsets", byName.Slug)

	rec := s.query(t, "pin.nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeNotFound, errorOf(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/media/../secret", nil)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
