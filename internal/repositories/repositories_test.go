package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
	"github.com/anonto42/picgram/backend/internal/testinfra"
)

func ids(users []models.UserSummary) []uint {
	out := make([]uint, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestUserRepository_GetAndExists(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresUserRepository(db)

	alice := fx.User("Alice")

	got, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	_, err = repo.GetUserByID(ctx, 999)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	ok, err := repo.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepository_ListPopularAndRecommended(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresUserRepository(db)

	viewer := fx.User("Viewer")
	a := fx.User("A")
	b := fx.User("B")
	c := fx.User("C")
	d := fx.User("D")

	// followers: a=3, b=2 (via viewer), c=1, d=0
	fx.Follow(viewer, b)
	fx.Follow(c, b)
	fx.Follow(viewer, a)
	fx.Follow(b, a)
	fx.Follow(d, a)
	fx.Follow(a, c)
	fx.Post(d, "hello")

	popular, err := repo.ListPopular(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, ids(popular))
	assert.Equal(t, int64(3), popular[0].FollowersCount)

	rec, err := repo.ListRecommended(ctx, viewer.ID, 10)
	require.NoError(t, err)
	// a and b followed, viewer excluded; c has a follower, d has a post
	assert.Equal(t, []uint{c.ID, d.ID}, ids(rec))
	assert.Equal(t, int64(1), rec[1].PostsCount)
}

func TestUserRepository_ListRecommendedTieBreaks(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresUserRepository(db)

	viewer := fx.User("Viewer")
	older := fx.User("Older")
	newer := fx.User("Newer")
	poster := fx.User("Poster")
	fx.Post(poster, "first")

	rec, err := repo.ListRecommended(ctx, viewer.ID, 10)
	require.NoError(t, err)
	// equal followers: posts first, then newest account
	assert.Equal(t, []uint{poster.ID, newer.ID, older.ID}, ids(rec))
}

func TestUserRepository_SearchUsers(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresUserRepository(db)

	me := fx.User("Kim Minsu")
	other := fx.User("kim jisoo")
	busy := fx.User("KIMCHI Lover")
	fx.User("Park")
	fx.Post(busy, "one")
	fx.Post(busy, "two")

	found, err := repo.SearchUsers(ctx, "KIM", me.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{busy.ID, other.ID}, ids(found))

	found, err = repo.SearchUsers(ctx, "example.com", 0, 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.SearchUsers(ctx, "%", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestPostRepository_ListFeed(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresPostRepository(db)

	a := fx.User("A")
	b := fx.User("B")
	c := fx.User("C")
	p1 := fx.Post(a, "first")
	p2 := fx.Post(b, "second")
	p3 := fx.Post(c, "third")
	fx.Like(b, p1)
	fx.Like(c, p1)
	fx.Comment(c, p1, "nice")

	all, err := repo.ListFeed(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, int64(2), all[2].LikesCount)
	assert.Equal(t, int64(1), all[2].CommentsCount)
	assert.Equal(t, "A", all[2].Author.Name)

	some, err := repo.ListFeed(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, some, 2)

	none, err := repo.ListFeed(ctx, []uint{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepository_ListCaptionsContaining(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresPostRepository(db)

	a := fx.User("A")
	fx.Post(a, "sunny day #Travel #beach")
	fx.Post(a, "#travelgram again")
	fx.Post(a, "travel without tag")

	got, err := repo.ListCaptionsContaining(ctx, "travel")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFollowRepository_InsertOrReportExists(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresFollowRepository(db)

	a := fx.User("A")
	b := fx.User("B")

	created, err := repo.CreateFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID})
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.GetFollowersCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	edge, err := repo.FindFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, edge)
	require.NoError(t, repo.DeleteFollow(ctx, edge.ID))

	edge, err = repo.FindFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestFollowRepository_RejectsSelfFollow(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresFollowRepository(db)

	a := fx.User("A")
	_, err := repo.CreateFollow(ctx, &models.Follow{FollowerID: a.ID, FollowingID: a.ID})
	assert.Error(t, err)
}

func TestFollowRepository_ListsAndCounts(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresFollowRepository(db)

	a := fx.User("A")
	b := fx.User("B")
	c := fx.User("C")
	fx.Follow(b, a)
	fx.Follow(c, a)
	fx.Follow(a, c)

	followers, err := repo.ListFollowers(ctx, a.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID, b.ID}, ids(followers))
	require.NotNil(t, followers[0].FollowedAt)
	assert.Equal(t, int64(1), followers[0].FollowersCount)

	following, err := repo.ListFollowing(ctx, a.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, ids(following))

	limited, err := repo.ListFollowers(ctx, a.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := repo.GetFollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	idsFollowed, err := repo.GetFollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, idsFollowed)

	ok, err := repo.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLikeRepository(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresLikeRepository(db)

	a := fx.User("A")
	p1 := fx.Post(a, "one")
	p2 := fx.Post(a, "two")

	created, err := repo.CreateLike(ctx, &models.Like{UserID: a.ID, PostID: p1.ID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateLike(ctx, &models.Like{UserID: a.ID, PostID: p1.ID})
	require.NoError(t, err)
	assert.False(t, created)

	liked, err := repo.GetLikedPostIDs(ctx, a.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{p1.ID: true}, liked)

	like, err := repo.FindLike(ctx, a.ID, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, like)
	require.NoError(t, repo.DeleteLike(ctx, like.ID))

	n, err := repo.GetLikesCountByPostID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLikeRepository_GetLikedPostIDsAcrossBatches(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresLikeRepository(db)

	a := fx.User("A")
	first := fx.Post(a, "first")
	last := fx.Post(a, "last")
	fx.Like(a, first)
	fx.Like(a, last)

	postIDs := []uint{first.ID}
	for id := uint(100000); len(postIDs) < 2499; id++ {
		postIDs = append(postIDs, id)
	}
	postIDs = append(postIDs, last.ID)

	liked, err := repo.GetLikedPostIDs(ctx, a.ID, postIDs)
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{first.ID: true, last.ID: true}, liked)

	liked, err = repo.GetLikedPostIDs(ctx, a.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, liked)
}

func TestCommentRepository(t *testing.T) {
	ctx := context.Background()
	db := testinfra.NewDB(t)
	fx := testinfra.NewFixtures(t, db)
	repo := repositories.NewPostgresCommentRepository(db)

	a := fx.User("A")
	p := fx.Post(a, "one")
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{UserID: a.ID, PostID: p.ID, Content: "hi"}))

	n, err := repo.GetCommentsCountByPostID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
