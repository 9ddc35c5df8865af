package activity

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/anonto42/picgram/backend/internal/apperr"
	"github.com/anonto42/picgram/backend/internal/identity"
	"github.com/anonto42/picgram/backend/internal/logging"
	"github.com/anonto42/picgram/backend/internal/metrics"
	"github.com/anonto42/picgram/backend/internal/models"
	"github.com/anonto42/picgram/backend/internal/services"
)

const breakerName = "activity-store"

// BreakerSettings tunes the breaker guarding the store.
type BreakerSettings struct {
	MaxRequests uint32        // trial requests allowed while half-open
	Interval    time.Duration // closed-state count reset period
	Timeout     time.Duration // open duration before probing
	MinRequests uint32
	FailureRate float64
}

// DefaultBreakerSettings opens after half of at least five writes fail.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		MinRequests: 5,
		FailureRate: 0.5,
	}
}

// Service records activity for toggles and lists it for recipients. Writes
// pass through a circuit breaker so an unavailable store does not slow
// every toggle.
type Service struct {
	store Store
	cb    *gobreaker.CircuitBreaker[struct{}]
}

func NewService(store Store, settings BreakerSettings) *Service {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &Service{store: store, cb: cb}
}

// AfterMutation records newly created edges. Removals, edges created by a
// concurrent toggle and activity on one's own content are skipped.
func (s *Service) AfterMutation(ctx context.Context, m services.Mutation) error {
	if !m.State || m.Raced || m.OwnerID == 0 || m.OwnerID == m.ActorID {
		return nil
	}

	a := &models.Activity{
		Type:        activityType(m.Kind),
		ActorID:     m.ActorID,
		RecipientID: m.OwnerID,
		TargetID:    m.TargetID,
	}
	_, err := s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.store.Insert(ctx, a)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.ActivityDropped.Inc()
	}
	return err
}

// List returns the principal's most recent activity.
func (s *Service) List(ctx context.Context, p identity.Principal, limit int) ([]models.Activity, error) {
	if p.IsAnonymous() {
		return nil, apperr.ErrAuthRequired
	}
	activities, err := s.store.ListByRecipient(ctx, p.UserID, int64(limit))
	if err != nil {
		return nil, apperr.Store("list activity", err)
	}
	return activities, nil
}

// State reports the breaker state.
func (s *Service) State() gobreaker.State {
	return s.cb.State()
}

func activityType(kind services.RelationKind) string {
	if kind == services.RelationFollow {
		return models.ActivityFollow
	}
	return models.ActivityLike
}
