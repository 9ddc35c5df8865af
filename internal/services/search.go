package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/metrics"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

// SearchResult holds matching users and hashtags.
type SearchResult struct {
	Users      []models.UserSummary  `json:"users"`
	Hashtags   []models.HashtagCount `json:"hashtags"`
	SearchTerm string                `json:"searchTerm"`
}

// SearchService looks up users and hashtags at query time.
type SearchService struct {
	users     repositories.UserRepository
	hashtags  HashtagSource
	userLimit int
	tagLimit  int
}

func NewSearchService(users repositories.UserRepository, hashtags HashtagSource, userLimit, tagLimit int) *SearchService {
	return &SearchService{users: users, hashtags: hashtags, userLimit: userLimit, tagLimit: tagLimit}
}

// Search rejects blank queries. Users are matched on name or email and
// never include the viewer.
func (s *SearchService) Search(ctx context.Context, viewer identity.Principal, rawQuery string) (res SearchResult, err error) {
	ctx, span := startSpan(ctx, "SearchService.Search")
	defer func() { endSpan(span, err) }()
	defer metrics.RecordOperation("search", time.Now())

	term := strings.TrimSpace(rawQuery)
	if term == "" {
		return SearchResult{}, apperr.Validation("query", "search query is empty")
	}

	users, err := s.users.SearchUsers(ctx, term, viewer.UserID, s.userLimit)
	if err != nil {
		return SearchResult{}, apperr.Store("search users", err)
	}
	tags, err := s.hashtags.TopHashtags(ctx, term, s.tagLimit)
	if err != nil {
		return SearchResult{}, apperr.Store("search hashtags", err)
	}
	return SearchResult{Users: users, Hashtags: tags, SearchTerm: term}, nil
}
