// Package client is the caller side of the toggle operations: an HTTP
// client for the API and a reconciler that applies toggles optimistically
// and settles them against the server's answer.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Phase is the reconciliation state of one entity.
type Phase int

const (
	Idle Phase = iota
	Pending
	Committed
	RolledBack
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Kind names the relation an entity toggles.
type Kind string

const (
	KindFollow Kind = "follow"
	KindLike   Kind = "like"
)

// EntityKey identifies a toggleable entity: a user for follows, a post for likes.
type EntityKey struct {
	Kind Kind
	ID   uint
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// Snapshot is the locally shown state of an entity.
type Snapshot struct {
	State bool
	Count int64
}

func (s Snapshot) flipped() Snapshot {
	if s.State {
		n := s.Count - 1
		if n < 0 {
			n = 0
		}
		return Snapshot{State: false, Count: n}
	}
	return Snapshot{State: true, Count: s.Count + 1}
}

// Transition is delivered to observers on every phase change.
type Transition struct {
	Key   EntityKey
	Phase Phase
	View  Snapshot
	Err   error
}

// Observer receives transitions. It is called without locks held.
type Observer func(Transition)

// ToggleFunc performs the authoritative toggle.
type ToggleFunc func(ctx context.Context, key EntityKey) (Snapshot, error)

// ErrPending is returned when the entity already has a toggle in flight.
var ErrPending = errors.New("toggle already pending for entity")

// ErrAborted is reported on the rollback of a toggle that panicked.
var ErrAborted = errors.New("toggle aborted")

type entity struct {
	view  Snapshot
	phase Phase
}

// Reconciler keeps the local view of toggled entities. At most one toggle
// per entity is in flight; different entities toggle independently.
type Reconciler struct {
	toggle ToggleFunc

	mu        sync.Mutex
	entities  map[EntityKey]*entity
	observers []Observer
}

func NewReconciler(toggle ToggleFunc, observers ...Observer) *Reconciler {
	return &Reconciler{
		toggle:    toggle,
		entities:  make(map[EntityKey]*entity),
		observers: observers,
	}
}

// Observe registers an observer.
func (r *Reconciler) Observe(o Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// Seed sets the view from a read, such as a feed page. It is ignored while
// a toggle is pending so the rollback target stays intact.
func (r *Reconciler) Seed(key EntityKey, s Snapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entity(key)
	if e.phase == Pending {
		return false
	}
	e.view = s
	return true
}

// View returns the current local view and phase.
func (r *Reconciler) View(key EntityKey) (Snapshot, Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entities[key]; ok {
		return e.view, e.phase
	}
	return Snapshot{}, Idle
}

// Enabled reports whether a toggle control for key may be used.
func (r *Reconciler) Enabled(key EntityKey) bool {
	_, phase := r.View(key)
	return phase != Pending
}

// Toggle flips the view immediately, then commits the server's answer or
// restores the previous view on failure. The returned snapshot is the
// settled view; the error is the toggle failure, if any.
func (r *Reconciler) Toggle(ctx context.Context, key EntityKey) (Snapshot, error) {
	r.mu.Lock()
	e := r.entity(key)
	if e.phase == Pending {
		view := e.view
		r.mu.Unlock()
		return view, ErrPending
	}
	snapshot := e.view
	e.view = snapshot.flipped()
	e.phase = Pending
	optimistic := e.view
	r.mu.Unlock()
	r.notify(Transition{Key: key, Phase: Pending, View: optimistic})

	// Rolled back unless the toggle returns a result. The deferred settle
	// also runs when the toggle panics.
	settled := Transition{Key: key, Phase: RolledBack, View: snapshot, Err: ErrAborted}
	defer func() {
		r.mu.Lock()
		e.view = settled.View
		e.phase = Idle
		r.mu.Unlock()

		r.notify(settled)
		r.notify(Transition{Key: key, Phase: Idle, View: settled.View})
	}()

	result, err := r.toggle(ctx, key)
	if err != nil {
		settled.Err = err
		return snapshot, err
	}
	settled = Transition{Key: key, Phase: Committed, View: result}
	return result, nil
}

func (r *Reconciler) entity(key EntityKey) *entity {
	e, ok := r.entities[key]
	if !ok {
		e = &entity{}
		r.entities[key] = e
	}
	return e
}

func (r *Reconciler) notify(t Transition) {
	r.mu.Lock()
	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	for _, o := range observers {
		o(t)
	}
}
