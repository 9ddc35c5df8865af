// Package services implements the social graph engine: toggling follow and
// like edges, composing feeds, recommending users and searching.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/metrics"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

// RelationKind names a togglable edge type.
type RelationKind string

const (
	RelationFollow RelationKind = "follow"
	RelationLike   RelationKind = "like"
)

// ToggleResult is the authoritative state after a toggle.
type ToggleResult struct {
	State bool  `json:"state"`
	Count int64 `json:"count"`
}

// Mutation describes a completed toggle.
type Mutation struct {
	Kind     RelationKind
	ActorID  uint
	TargetID uint // user for follows, post for likes
	OwnerID  uint // user that owns the target
	State    bool
	Count    int64
	// Raced is set when the insert found the edge already created by a
	// concurrent toggle. This call then changed nothing.
	Raced bool
}

// MutationHook runs after a successful toggle. Hook errors are logged and
// never fail the toggle.
type MutationHook interface {
	AfterMutation(ctx context.Context, m Mutation) error
}

// MutationHookFunc adapts a function to MutationHook.
type MutationHookFunc func(ctx context.Context, m Mutation) error

func (f MutationHookFunc) AfterMutation(ctx context.Context, m Mutation) error {
	return f(ctx, m)
}

// ToggleService creates or removes follow and like edges.
type ToggleService struct {
	users   repositories.UserRepository
	posts   repositories.PostRepository
	follows repositories.FollowRepository
	likes   repositories.LikeRepository
	hooks   []MutationHook
}

func NewToggleService(
	users repositories.UserRepository,
	posts repositories.PostRepository,
	follows repositories.FollowRepository,
	likes repositories.LikeRepository,
	hooks ...MutationHook,
) *ToggleService {
	return &ToggleService{users: users, posts: posts, follows: follows, likes: likes, hooks: hooks}
}

// AddHook registers a hook invoked after every successful toggle.
func (s *ToggleService) AddHook(h MutationHook) {
	s.hooks = append(s.hooks, h)
}

// ToggleFollow makes the principal follow or unfollow targetUserID.
func (s *ToggleService) ToggleFollow(ctx context.Context, p identity.Principal, targetUserID uint) (ToggleResult, error) {
	return s.Toggle(ctx, RelationFollow, p, targetUserID)
}

// ToggleLike makes the principal like or unlike postID.
func (s *ToggleService) ToggleLike(ctx context.Context, p identity.Principal, postID uint) (ToggleResult, error) {
	return s.Toggle(ctx, RelationLike, p, postID)
}

// Toggle flips the edge between the principal and targetID. Checks run in
// order: authentication, self reference, target existence.
func (s *ToggleService) Toggle(ctx context.Context, kind RelationKind, p identity.Principal, targetID uint) (res ToggleResult, err error) {
	ctx, span := startSpan(ctx, "ToggleService.Toggle",
		attribute.String("relation.kind", string(kind)),
		attribute.Int64("relation.target_id", int64(targetID)),
	)
	defer func() { endSpan(span, err) }()

	if p.IsAnonymous() {
		return ToggleResult{}, apperr.ErrAuthRequired
	}

	var m Mutation
	switch kind {
	case RelationFollow:
		m, err = s.toggleFollow(ctx, p.UserID, targetID)
	case RelationLike:
		m, err = s.toggleLike(ctx, p.UserID, targetID)
	default:
		return ToggleResult{}, apperr.Validation("kind", "unknown relation kind "+string(kind))
	}
	metrics.RecordToggle(string(kind), m.State, err)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeUnknownStore {
			logging.Ctx(ctx).Error().Err(err).Str("kind", string(kind)).Uint("target", targetID).Msg("toggle failed")
		}
		return ToggleResult{}, err
	}

	if m.Raced {
		metrics.ToggleRacesAbsorbed.WithLabelValues(string(kind)).Inc()
		logging.Ctx(ctx).Warn().Str("kind", string(kind)).Uint("actor", m.ActorID).Uint("target", targetID).
			Msg("concurrent toggle absorbed")
	} else {
		logging.Ctx(ctx).Debug().Str("kind", string(kind)).Uint("actor", m.ActorID).Uint("target", targetID).
			Bool("state", m.State).Int64("count", m.Count).Msg("toggled")
	}

	s.runHooks(ctx, m)
	return ToggleResult{State: m.State, Count: m.Count}, nil
}

func (s *ToggleService) toggleFollow(ctx context.Context, actorID, targetID uint) (Mutation, error) {
	m := Mutation{Kind: RelationFollow, ActorID: actorID, TargetID: targetID, OwnerID: targetID}

	if actorID == targetID {
		return m, apperr.ErrSelfReferenceRejected
	}
	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return m, apperr.Store("look up user", err)
	}
	if !exists {
		return m, apperr.NotFound("user")
	}

	edge, err := s.follows.FindFollow(ctx, actorID, targetID)
	if err != nil {
		return m, apperr.Store("find follow", err)
	}

	if edge != nil {
		if err := s.follows.DeleteFollow(ctx, edge.ID); err != nil {
			return m, apperr.Store("delete follow", err)
		}
		m.State = false
	} else {
		created, err := s.follows.CreateFollow(ctx, &models.Follow{FollowerID: actorID, FollowingID: targetID})
		if err != nil {
			return m, apperr.Store("create follow", err)
		}
		m.State = true
		if !created {
			m.Raced = true
			if m.State, err = s.follows.IsFollowing(ctx, actorID, targetID); err != nil {
				return m, apperr.Store("re-read follow", err)
			}
		}
	}

	if m.Count, err = s.follows.GetFollowersCount(ctx, targetID); err != nil {
		return m, apperr.Store("count followers", err)
	}
	return m, nil
}

func (s *ToggleService) toggleLike(ctx context.Context, actorID, postID uint) (Mutation, error) {
	m := Mutation{Kind: RelationLike, ActorID: actorID, TargetID: postID}

	post, err := s.posts.GetPostByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m, apperr.NotFound("post")
	}
	if err != nil {
		return m, apperr.Store("look up post", err)
	}
	m.OwnerID = post.AuthorID

	edge, err := s.likes.FindLike(ctx, actorID, postID)
	if err != nil {
		return m, apperr.Store("find like", err)
	}

	if edge != nil {
		if err := s.likes.DeleteLike(ctx, edge.ID); err != nil {
			return m, apperr.Store("delete like", err)
		}
		m.State = false
	} else {
		created, err := s.likes.CreateLike(ctx, &models.Like{UserID: actorID, PostID: postID})
		if err != nil {
			return m, apperr.Store("create like", err)
		}
		m.State = true
		if !created {
			m.Raced = true
			like, err := s.likes.FindLike(ctx, actorID, postID)
			if err != nil {
				return m, apperr.Store("re-read like", err)
			}
			m.State = like != nil
		}
	}

	if m.Count, err = s.likes.GetLikesCountByPostID(ctx, postID); err != nil {
		return m, apperr.Store("count likes", err)
	}
	return m, nil
}

func (s *ToggleService) runHooks(ctx context.Context, m Mutation) {
	for _, h := range s.hooks {
		if err := h.AfterMutation(ctx, m); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("kind", string(m.Kind)).Msg("mutation hook failed")
		}
	}
}
