package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

// RelationService lists followers and following and reports follow status.
type RelationService struct {
	users        repositories.UserRepository
	follows      repositories.FollowRepository
	defaultLimit int
}

func NewRelationService(users repositories.UserRepository, follows repositories.FollowRepository, defaultLimit int) *RelationService {
	return &RelationService{users: users, follows: follows, defaultLimit: defaultLimit}
}

// Followers lists the users following userID, most recent first.
func (s *RelationService) Followers(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	return s.list(ctx, "followers", userID, limit, s.follows.ListFollowers)
}

// Following lists the users userID follows, most recent first.
func (s *RelationService) Following(ctx context.Context, userID uint, limit int) ([]models.UserSummary, error) {
	return s.list(ctx, "following", userID, limit, s.follows.ListFollowing)
}

func (s *RelationService) list(
	ctx context.Context,
	name string,
	userID uint,
	limit int,
	fetch func(context.Context, uint, int) ([]models.UserSummary, error),
) (users []models.UserSummary, err error) {
	ctx, span := startSpan(ctx, "RelationService."+name, attribute.Int64("user.id", int64(userID)))
	defer func() { endSpan(span, err) }()

	if err = s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	users, err = fetch(ctx, userID, limit)
	if err != nil {
		return nil, apperr.Store("list "+name, err)
	}
	return users, nil
}

// FollowStatus reports counts for targetID and how the viewer relates to
// it. Both flags are false for anonymous viewers and for the target itself.
func (s *RelationService) FollowStatus(ctx context.Context, viewer identity.Principal, targetID uint) (status models.FollowStatus, err error) {
	ctx, span := startSpan(ctx, "RelationService.FollowStatus", attribute.Int64("user.id", int64(targetID)))
	defer func() { endSpan(span, err) }()

	if err = s.requireUser(ctx, targetID); err != nil {
		return status, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		status.FollowersCount, err = s.follows.GetFollowersCount(gctx, targetID)
		return err
	})
	g.Go(func() (err error) {
		status.FollowingCount, err = s.follows.GetFollowingCount(gctx, targetID)
		return err
	})
	if !viewer.IsAnonymous() && !viewer.Is(targetID) {
		g.Go(func() (err error) {
			status.IsFollowing, err = s.follows.IsFollowing(gctx, viewer.UserID, targetID)
			return err
		})
		g.Go(func() (err error) {
			status.IsFollowedBy, err = s.follows.IsFollowing(gctx, targetID, viewer.UserID)
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return models.FollowStatus{}, apperr.Store("follow status", err)
	}
	return status, nil
}

func (s *RelationService) requireUser(ctx context.Context, userID uint) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return apperr.Store("look up user", err)
	}
	if !exists {
		return apperr.NotFound("user")
	}
	return nil
}
