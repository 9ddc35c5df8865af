package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/anonto42/picgram/backend/internal/repositories"
	"github.com/anonto42/picgram/backend/internal/testinfra"
)

type env struct {
	db      *gorm.DB
	fx      *testinfra.Fixtures
	users   *repositories.PostgresUserRepository
	posts   *repositories.PostgresPostRepository
	follows *repositories.PostgresFollowRepository
	likes   *repositories.PostgresLikeRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testinfra.NewDB(t)
	return &env{
		db:      db,
		fx:      testinfra.NewFixtures(t, db),
		users:   repositories.NewPostgresUserRepository(db),
		posts:   repositories.NewPostgresPostRepository(db),
		follows: repositories.NewPostgresFollowRepository(db),
		likes:   repositories.NewPostgresLikeRepository(db),
	}
}

func (e *env) followerCount(t *testing.T, userID uint) int64 {
	t.Helper()
	n, err := e.follows.GetFollowersCount(context.Background(), userID)
	require.NoError(t, err)
	return n
}
