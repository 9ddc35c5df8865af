package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
	"github.com/anonto42/picgram/backend/internal/services"
)

type recordingHook struct {
	mu        sync.Mutex
	mutations []services.Mutation
	err       error
}

func (h *recordingHook) AfterMutation(_ context.Context, m services.Mutation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, m)
	return h.err
}

func (e *env) toggler(hooks ...services.MutationHook) *services.ToggleService {
	return services.NewToggleService(e.users, e.posts, e.follows, e.likes, hooks...)
}

func TestToggleFollow_CreatesThenRemoves(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	c := e.fx.User("C")
	e.fx.Follow(c, b)

	hook := &recordingHook{}
	svc := e.toggler(hook)

	res, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: true, Count: 2}, res)

	res, err = svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: false, Count: 1}, res)

	require.Len(t, hook.mutations, 2)
	assert.Equal(t, services.Mutation{
		Kind: services.RelationFollow, ActorID: a.ID, TargetID: b.ID, OwnerID: b.ID, State: true, Count: 2,
	}, hook.mutations[0])
	assert.False(t, hook.mutations[1].State)
}

func TestToggleLike_CreatesThenRemoves(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	post := e.fx.Post(b, "sunset")

	hook := &recordingHook{}
	svc := e.toggler(hook)

	res, err := svc.ToggleLike(ctx, identity.User(a.ID), post.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: true, Count: 1}, res)
	assert.Equal(t, b.ID, hook.mutations[0].OwnerID)

	res, err = svc.ToggleLike(ctx, identity.User(a.ID), post.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: false, Count: 0}, res)
}

func TestToggle_Rejections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	svc := e.toggler()

	_, err := svc.ToggleFollow(ctx, identity.Anonymous, b.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	_, err = svc.ToggleLike(ctx, identity.Anonymous, 1)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)

	_, err = svc.ToggleFollow(ctx, identity.User(a.ID), a.ID)
	assert.ErrorIs(t, err, apperr.ErrSelfReferenceRejected)

	_, err = svc.ToggleFollow(ctx, identity.User(a.ID), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ToggleLike(ctx, identity.User(a.ID), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Toggle(ctx, services.RelationKind("block"), identity.User(a.ID), b.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestToggleFollow_SelfRejectedRegardlessOfState(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	svc := e.toggler()

	for i := 0; i < 3; i++ {
		_, err := svc.ToggleFollow(ctx, identity.User(a.ID), a.ID)
		assert.ErrorIs(t, err, apperr.ErrSelfReferenceRejected)
	}
	assert.Zero(t, e.followerCount(t, a.ID))
}

func TestToggle_IdempotentPair(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	e.fx.Follow(a, b)
	svc := e.toggler()

	before, err := e.follows.GetFollowersCount(ctx, b.ID)
	require.NoError(t, err)

	first, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	require.NoError(t, err)
	second, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	require.NoError(t, err)

	assert.False(t, first.State)
	assert.Equal(t, services.ToggleResult{State: true, Count: before}, second)
}

func TestToggleFollow_ConcurrentTogglesKeepOneEdge(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	svc := e.toggler()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var edges int64
	require.NoError(t, e.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", a.ID, b.ID).Count(&edges).Error)
	assert.LessOrEqual(t, edges, int64(1))
	assert.Equal(t, edges, e.followerCount(t, b.ID))
}

// blindFollows never sees an existing edge, forcing every toggle down the
// insert path.
type blindFollows struct {
	repositories.FollowRepository
}

func (blindFollows) FindFollow(context.Context, uint, uint) (*models.Follow, error) {
	return nil, nil
}

func TestToggleFollow_InsertRaceIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")
	e.fx.Follow(a, b)

	hook := &recordingHook{}
	svc := services.NewToggleService(e.users, e.posts, blindFollows{e.follows}, e.likes, hook)

	res, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: true, Count: 1}, res)
	require.Len(t, hook.mutations, 1)
	assert.True(t, hook.mutations[0].Raced)
}

type blindLikes struct {
	repositories.LikeRepository
	calls int
}

func (b *blindLikes) FindLike(ctx context.Context, userID, postID uint) (*models.Like, error) {
	b.calls++
	if b.calls == 1 {
		return nil, nil
	}
	return b.LikeRepository.FindLike(ctx, userID, postID)
}

func TestToggleLike_InsertRaceIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	post := e.fx.Post(a, "mine")
	e.fx.Like(a, post)

	svc := services.NewToggleService(e.users, e.posts, e.follows, &blindLikes{LikeRepository: e.likes})
	res, err := svc.ToggleLike(ctx, identity.User(a.ID), post.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: true, Count: 1}, res)
}

type failingFollows struct {
	repositories.FollowRepository
}

func (failingFollows) FindFollow(context.Context, uint, uint) (*models.Follow, error) {
	return nil, errors.New("connection reset")
}

func TestToggle_StoreFailureIsUnknownStoreError(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")

	hook := &recordingHook{}
	svc := services.NewToggleService(e.users, e.posts, failingFollows{e.follows}, e.likes, hook)
	_, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	assert.ErrorIs(t, err, apperr.ErrUnknownStore)
	assert.Empty(t, hook.mutations)
}

func TestToggle_HookErrorDoesNotFailToggle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	a := e.fx.User("A")
	b := e.fx.User("B")

	svc := e.toggler(&recordingHook{err: errors.New("cache down")})
	res, err := svc.ToggleFollow(ctx, identity.User(a.ID), b.ID)
	require.NoError(t, err)
	assert.True(t, res.State)
}
