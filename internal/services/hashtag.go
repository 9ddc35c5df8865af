package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/repositories"
)

// hashtagPattern matches '#' followed by ASCII word characters or Hangul syllables.
var hashtagPattern = regexp.MustCompile(`#[0-9A-Za-z_\x{AC00}-\x{D7A3}]+`)

// ExtractHashtags returns the lower-cased tags of caption without '#', in order.
func ExtractHashtags(caption string) []string {
	matches := hashtagPattern.FindAllString(caption, -1)
	tags := make([]string, len(matches))
	for i, m := range matches {
		tags[i] = strings.ToLower(m[1:])
	}
	return tags
}

// HashtagSource answers hashtag frequency queries. An incrementally
// maintained index can replace the scan behind this interface.
type HashtagSource interface {
	TopHashtags(ctx context.Context, query string, limit int) ([]models.HashtagCount, error)
}

// ScanHashtagSource counts tags over the posts whose caption contains
// "#"+query at query time.
type ScanHashtagSource struct {
	posts repositories.PostRepository
}

func NewScanHashtagSource(posts repositories.PostRepository) *ScanHashtagSource {
	return &ScanHashtagSource{posts: posts}
}

// TopHashtags counts, for each tag containing query, the candidate posts
// using it. Results are sorted by count then tag.
func (s *ScanHashtagSource) TopHashtags(ctx context.Context, query string, limit int) ([]models.HashtagCount, error) {
	captions, err := s.posts.ListCaptionsContaining(ctx, query)
	if err != nil {
		return nil, err
	}
	return CountHashtags(captions, query, limit), nil
}

// CountHashtags builds the frequency table over captions. A tag repeated
// within one caption counts once.
func CountHashtags(captions []models.PostCaption, query string, limit int) []models.HashtagCount {
	needle := strings.ToLower(query)
	counts := make(map[string]int)
	for _, c := range captions {
		seen := make(map[string]bool)
		for _, tag := range ExtractHashtags(c.Caption) {
			if seen[tag] || !strings.Contains(tag, needle) {
				continue
			}
			seen[tag] = true
			counts[tag]++
		}
	}

	out := make([]models.HashtagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, models.HashtagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
