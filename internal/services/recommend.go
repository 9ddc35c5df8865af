package services

import (
	"context"
	"time"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/metrics"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

// RecommendService ranks users the viewer might follow.
type RecommendService struct {
	users        repositories.UserRepository
	defaultLimit int
	maxLimit     int
}

func NewRecommendService(users repositories.UserRepository, defaultLimit, maxLimit int) *RecommendService {
	return &RecommendService{users: users, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// Limit clamps a requested size; non-positive means the default.
func (s *RecommendService) Limit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// Recommend returns the most followed users for anonymous viewers. For a
// signed-in viewer it skips the viewer and everyone they follow.
func (s *RecommendService) Recommend(ctx context.Context, viewer identity.Principal, limit int) (users []models.UserSummary, err error) {
	ctx, span := startSpan(ctx, "RecommendService.Recommend")
	defer func() { endSpan(span, err) }()
	defer metrics.RecordOperation("recommend", time.Now())

	limit = s.Limit(limit)
	if viewer.IsAnonymous() {
		users, err = s.users.ListPopular(ctx, limit)
	} else {
		users, err = s.users.ListRecommended(ctx, viewer.UserID, limit)
	}
	if err != nil {
		return nil, apperr.Store("recommend users", err)
	}

	out := users[:0]
	for _, u := range users {
		if !viewer.Is(u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}
