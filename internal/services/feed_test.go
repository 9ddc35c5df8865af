package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/services"
)

func postIDs(posts []models.FeedPost) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestParseFeedMode(t *testing.T) {
	m, err := services.ParseFeedMode("")
	require.NoError(t, err)
	assert.Equal(t, services.FeedAll, m)

	m, err = services.ParseFeedMode("following")
	require.NoError(t, err)
	assert.Equal(t, services.FeedFollowing, m)

	_, err = services.ParseFeedMode("trending")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCompose_FollowingIsViewerAndFollowed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	c := e.fx.User("C")
	e.fx.Follow(a, b)

	pa := e.fx.Post(a, "mine")
	pc := e.fx.Post(c, "stranger")
	pb := e.fx.Post(b, "friend")
	e.fx.Like(a, pb)
	e.fx.Comment(c, pb, "wow")

	svc := services.NewFeedService(e.posts, e.follows, e.likes)

	following, err := svc.Compose(ctx, identity.User(a.ID), services.FeedFollowing)
	require.NoError(t, err)
	assert.Equal(t, []uint{pb.ID, pa.ID}, postIDs(following))
	assert.True(t, following[0].IsLiked)
	assert.Equal(t, int64(1), following[0].LikesCount)
	assert.Equal(t, int64(1), following[0].CommentsCount)
	assert.False(t, following[1].IsLiked)

	all, err := svc.Compose(ctx, identity.User(a.ID), services.FeedAll)
	require.NoError(t, err)
	assert.Equal(t, []uint{pb.ID, pc.ID, pa.ID}, postIDs(all))
	assert.Subset(t, postIDs(all), postIDs(following))
}

func TestCompose_Anonymous(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	p := e.fx.Post(a, "hello")
	e.fx.Like(b, p)

	svc := services.NewFeedService(e.posts, e.follows, e.likes)

	all, err := svc.Compose(ctx, identity.Anonymous, services.FeedAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsLiked)
	assert.Equal(t, int64(1), all[0].LikesCount)

	following, err := svc.Compose(ctx, identity.Anonymous, services.FeedFollowing)
	require.NoError(t, err)
	assert.NotNil(t, following)
	assert.Empty(t, following)
}
