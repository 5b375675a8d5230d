package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/models"
	"github.com/anonto42/pins/backend/internal/testutil"
)

func TestCommunityRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSQLCommunityRepository(db)
	ctx := context.Background()

	for _, c := range []models.Community{
		{Name: "Tacos", Slug: "tacos"},
		{Name: "Hiking Trails", Slug: "hiking-trails"},
		{Name: "Art", Slug: "art"},
	} {
		c := c
		require.NoError(t, repo.UpsertCommunity(ctx, &c))
	}

	all, err := repo.GetCommunities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Art", "Hiking Trails", "Tacos"}, []string{all[0].Name, all[1].Name, all[2].Name})

	byName, err := repo.GetCommunityByName(ctx, "hiking trails")
	require.NoError(t, err)
	assert.Equal(t, "hiking-trails", byName.Slug)

	bySlug, err := repo.GetCommunityByName(ctx, "hiking-trails")
	require.NoError(t, err)
	assert.Equal(t, byName.ID, bySlug.ID)

	again := models.Community{Name: "Tacos", Slug: "tacos"}
	require.NoError(t, repo.UpsertCommunity(ctx, &again))
	assert.Equal(t, all[2].ID, again.ID)

	_, err = repo.GetCommunityByName(ctx, "nope")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCommentRepository_OldestFirst(t *testing.T) {
	f := newFixture(t)
	repo := NewSQLCommentRepository(f.db)
	pin := f.pins(t, 1)[0]
	ctx := context.Background()

	first := &models.Comment{PinID: pin.ID, UserID: f.bob.ID, Body: "first", CreatedAt: testutil.Base}
	second := &models.Comment{PinID: pin.ID, UserID: f.alice.ID, Body: "second", CreatedAt: testutil.Base.Add(1)}
	require.NoError(t, repo.CreateComment(ctx, second))
	require.NoError(t, repo.CreateComment(ctx, first))
	assert.Equal(t, "alice", second.User.DisplayName)

	comments, err := repo.GetCommentsByPinID(ctx, pin.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)
	assert.Equal(t, "bob", comments[0].User.DisplayName)
}
