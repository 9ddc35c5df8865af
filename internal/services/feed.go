package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/metrics"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

// FeedMode selects between every post and the viewer's graph.
type FeedMode string

const (
	FeedAll       FeedMode = "all"
	FeedFollowing FeedMode = "following"
)

// ParseFeedMode maps a query value to a mode; empty means all.
func ParseFeedMode(s string) (FeedMode, error) {
	switch FeedMode(s) {
	case "", FeedAll:
		return FeedAll, nil
	case FeedFollowing:
		return FeedFollowing, nil
	default:
		return "", apperr.Validation("type", "unknown feed type "+s)
	}
}

// FeedService composes annotated post lists.
type FeedService struct {
	posts   repositories.PostRepository
	follows repositories.FollowRepository
	likes   repositories.LikeRepository
}

func NewFeedService(posts repositories.PostRepository, follows repositories.FollowRepository, likes repositories.LikeRepository) *FeedService {
	return &FeedService{posts: posts, follows: follows, likes: likes}
}

// Compose returns posts newest first, each annotated with like and comment
// counts and whether the viewer liked it. The following feed of an
// anonymous viewer is empty.
func (s *FeedService) Compose(ctx context.Context, viewer identity.Principal, mode FeedMode) (posts []models.FeedPost, err error) {
	ctx, span := startSpan(ctx, "FeedService.Compose", attribute.String("feed.mode", string(mode)))
	defer func() { endSpan(span, err) }()
	defer metrics.RecordOperation("feed", time.Now())

	var authorIDs []uint
	if mode == FeedFollowing {
		if viewer.IsAnonymous() {
			return []models.FeedPost{}, nil
		}
		following, err := s.follows.GetFollowingIDs(ctx, viewer.UserID)
		if err != nil {
			return nil, apperr.Store("list following", err)
		}
		authorIDs = append(following, viewer.UserID)
	}

	posts, err = s.posts.ListFeed(ctx, authorIDs)
	if err != nil {
		return nil, apperr.Store("list feed", err)
	}
	if viewer.IsAnonymous() || len(posts) == 0 {
		return posts, nil
	}

	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	liked, err := s.likes.GetLikedPostIDs(ctx, viewer.UserID, ids)
	if err != nil {
		return nil, apperr.Store("list liked posts", err)
	}
	for i := range posts {
		posts[i].IsLiked = liked[posts[i].ID]
	}
	return posts, nil
}
