package cache

import (
	"context"

	"github.com/anonto42/picgram/backend/internal/services"
)

// RootPath holds the feed and recommendation views.
const RootPath = "/"

// Hook revalidates the views a toggle can change.
type Hook struct {
	cache *ViewCache
}

func NewHook(c *ViewCache) *Hook {
	return &Hook{cache: c}
}

// Paths lists the view paths affected by m.
func Paths(m services.Mutation) []string {
	if m.Kind == services.RelationFollow {
		return []string{RootPath, ProfilePath(m.TargetID), ProfilePath(m.ActorID)}
	}
	return []string{RootPath}
}

func (h *Hook) AfterMutation(_ context.Context, m services.Mutation) error {
	return h.cache.Revalidate(Paths(m)...)
}
