//go:build integration

package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
	"github.com/anonto42/picgram/backend/internal/services"
	"github.com/anonto42/picgram/backend/internal/testinfra"
)

func TestPostgres_ConcurrentFollowTogglesKeepOneEdge(t *testing.T) {
	db := testinfra.StartPostgres(t)
	fx := testinfra.NewFixtures(t, db)
	a := fx.User("Alice")
	b := fx.User("Bob")

	follows := repositories.NewPostgresFollowRepository(db)
	svc := services.NewToggleService(
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresPostRepository(db),
		follows,
		repositories.NewPostgresLikeRepository(db),
	)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ToggleFollow(context.Background(), identity.User(a.ID), b.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var edges int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", a.ID, b.ID).Count(&edges).Error)
	assert.LessOrEqual(t, edges, int64(1))

	count, err := follows.GetFollowersCount(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, edges, count)
}

func TestPostgres_InsertRaceIsAbsorbed(t *testing.T) {
	db := testinfra.StartPostgres(t)
	fx := testinfra.NewFixtures(t, db)
	a := fx.User("Alice")
	b := fx.User("Bob")
	fx.Follow(a, b)

	follows := repositories.NewPostgresFollowRepository(db)
	svc := services.NewToggleService(
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresPostRepository(db),
		blindFollows{follows},
		repositories.NewPostgresLikeRepository(db),
	)

	res, err := svc.ToggleFollow(context.Background(), identity.User(a.ID), b.ID)
	require.NoError(t, err)
	assert.Equal(t, services.ToggleResult{State: true, Count: 1}, res)
}

func TestPostgres_SelfFollowIsRejectedByConstraint(t *testing.T) {
	db := testinfra.StartPostgres(t)
	fx := testinfra.NewFixtures(t, db)
	a := fx.User("Alice")

	err := db.Create(&models.Follow{FollowerID: a.ID, FollowingID: a.ID}).Error
	assert.Error(t, err)
}
