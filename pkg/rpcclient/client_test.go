package rpcclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/pins/backend/internal/identity"
	"github.com/anonto42/pins/backend/internal/logger"
	"github.com/anonto42/pins/backend/internal/router"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/internal/storage"
	"github.com/anonto42/pins/backend/internal/testutil"
	"github.com/anonto42/pins/backend/pkg/api"
	"github.com/anonto42/pins/backend/pkg/config"
)

type stubProvider struct{}

func (stubProvider) Authenticate(_ context.Context, creds identity.Credentials) (*identity.Identity, error) {
	if creds.Password != "hunter2" {
		return nil, identity.ErrRejected
	}
	return &identity.Identity{Subject: "arc-" + creds.Username, Email: creds.Username, DisplayName: "robin"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	cfg := &config.Config{
		Auth:    config.AuthConfig{SessionTTL: time.Hour},
		Storage: config.StorageConfig{BaseFolder: "pins", MaxUploadBytes: 1 << 20},
	}
	db := testutil.NewDB(t)
	e, stop := router.New(router.Dependencies{
		Config:   cfg,
		DB:       db,
		Store:    storage.NewMemoryStore("http://example.test"),
		Identity: stubProvider{},
		Sessions: session.NewManager("client-secret", time.Hour),
		Logger:   logger.Discard(),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		stop()
	})
	return srv, db
}

func TestClient_QueriesAndErrors(t *testing.T) {
	srv, db := newTestServer(t)
	user := testutil.CreateUser(t, db, "ada")
	community := testutil.CreateCommunity(t, db, "Beautiful day", "beautiful-day")
	first := testutil.CreatePin(t, db, user, community, "first", testutil.Base)
	testutil.CreatePin(t, db, user, community, "second", testutil.Base.Add(time.Minute))

	c := New(srv.URL)
	ctx := context.Background()

	limit := 1
	page, err := c.InfinitePins(ctx, api.InfiniteInput{Limit: &limit})
	require.NoError(t, err)
	require.Len(t, page.Pins, 1)
	assert.Equal(t, "second", page.Pins[0].Description)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, first.ID, *page.NextCursor)

	pin, err := c.PinByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, pin)
	assert.Equal(t, "first", pin.Description)

	communities, err := c.Communities(ctx)
	require.NoError(t, err)
	require.Len(t, communities, 1)

	missing, err := c.CommunityByName(ctx, "nowhere")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sess, err := c.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	_, err = c.LikePin(ctx, first.ID)
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeUnauthorized))

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestClient_SignInKeepsToken(t *testing.T) {
	srv, db := newTestServer(t)
	user := testutil.CreateUser(t, db, "ada")
	community := testutil.CreateCommunity(t, db, "Thunderstorms", "thunderstorms")
	pin := testutil.CreatePin(t, db, user, community, "storm", testutil.Base)

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.SignIn(ctx, api.SignInInput{Username: "robin@example.com", Password: "nope"})
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeUnauthorized))
	assert.Empty(t, c.Token())

	res, err := c.SignIn(ctx, api.SignInInput{Username: "robin@example.com", Password: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, res.Token, c.Token())

	sess, err := c.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "robin@example.com", sess.User.Email)

	liked, err := c.LikePin(ctx, pin.ID)
	require.NoError(t, err)
	assert.True(t, liked.Liked)
	assert.Equal(t, 1, liked.LikeCount)

	comment, err := c.CommentOnPin(ctx, pin.ID, "  lovely  ")
	require.NoError(t, err)
	assert.Equal(t, "lovely", comment.Body)

	comments, err := c.CommentsByPin(ctx, pin.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	require.NoError(t, c.SignOut(ctx))
	assert.Empty(t, c.Token())
}

func TestClient_NonEnvelopeResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).AllPins(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeUpstream))
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"data":[]}}`))
	}))
	defer srv.Close()

	pins, err := New(srv.URL, WithToken("abc")).UserPins(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, pins)
	assert.Equal(t, "Bearer abc", got)
}
