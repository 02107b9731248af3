// Package ordering bridges a creator's live drag gesture to a persisted
// order without fighting the remote snapshot stream.
package ordering

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
)

// State is the engine's position in the gesture lifecycle.
type State int

const (
	Idle State = iota
	Dragging
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Engine owns the interaction between local optimistic reordering and remote
// snapshot arrival. It is driven from the controller loop and is not safe for
// concurrent use.
//
// While a gesture is in flight the working list is what renders; snapshot
// pushes are acknowledged but never overwrite it, otherwise the dragged item
// would visually snap back mid-gesture. After a successful commit the working
// list stays visible until the next push echoes the committed order; after a
// failed or cancelled gesture the last authoritative order wins immediately.
type Engine struct {
	state     State
	draggedID string
	working   []domain.Entry
	override  bool
	log       *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// State returns the current gesture state.
func (e *Engine) CurrentState() State {
	return e.state
}

// Overriding reports whether the engine's working list should render instead
// of the authoritative snapshot list.
func (e *Engine) Overriding() bool {
	return e.override
}

// Working returns a copy of the optimistic working list. Only meaningful
// while Overriding is true.
func (e *Engine) Working() []domain.Entry {
	out := make([]domain.Entry, len(e.working))
	copy(out, e.working)
	return out
}

// Begin starts a drag gesture for the entry with the given id, seeding the
// working list from the current authoritative order. The dragged entry is
// recorded by identity, not index: positions shift during the gesture.
func (e *Engine) Begin(id string, authoritative []domain.Entry) error {
	if e.state != Idle {
		return fmt.Errorf("%w: drag while %s", domain.ErrReorderState, e.state)
	}
	if indexOf(authoritative, id) < 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	e.state = Dragging
	e.draggedID = id
	e.working = make([]domain.Entry, len(authoritative))
	copy(e.working, authoritative)
	e.override = true
	return nil
}

// Hover recomputes the working list for a hover-over event: the dragged
// entry is removed and reinserted at the hovered entry's position. Hovering
// over the dragged entry itself is a no-op.
func (e *Engine) Hover(overID string) error {
	if e.state != Dragging {
		return fmt.Errorf("%w: hover while %s", domain.ErrReorderState, e.state)
	}
	if overID == e.draggedID {
		return nil
	}

	from := indexOf(e.working, e.draggedID)
	to := indexOf(e.working, overID)
	if from < 0 || to < 0 {
		// The hovered entry vanished remotely mid-gesture; ignore.
		return nil
	}

	dragged := e.working[from]
	e.working = append(e.working[:from], e.working[from+1:]...)
	e.working = append(e.working[:to], append([]domain.Entry{dragged}, e.working[to:]...)...)
	return nil
}

// Drop ends the gesture and produces the single all-or-nothing order commit:
// every entry in the working list gets its dense 0..n-1 position as its
// orderIndex. Uniqueness holds by construction regardless of whatever
// indices the entries carried before.
func (e *Engine) Drop() ([]store.OrderAssignment, error) {
	if e.state != Dragging {
		return nil, fmt.Errorf("%w: drop while %s", domain.ErrReorderState, e.state)
	}

	assignments := make([]store.OrderAssignment, len(e.working))
	for i, entry := range e.working {
		assignments[i] = store.OrderAssignment{ID: entry.ID, OrderIndex: i}
	}

	e.state = Committing
	return assignments, nil
}

// Resolve finishes the Committing state with the bulk write's outcome.
// On success the working list stays rendered until the next snapshot push
// echoes it back. On failure local optimistic state is discarded, with no
// retry: the next authoritative snapshot is the truth.
func (e *Engine) Resolve(err error) {
	if e.state != Committing {
		return
	}

	e.state = Idle
	e.draggedID = ""
	if err != nil {
		e.log.Warn("order commit failed, reverting to authoritative order", zap.Error(err))
		e.override = false
		e.working = nil
	}
}

// Cancel abandons the gesture. A gesture that never sees a drop reverts to
// the authoritative order, it never keeps the last hovered arrangement.
// Pending commit writes are not interrupted; their result is simply ignored.
func (e *Engine) Cancel() {
	if e.state == Idle && !e.override {
		return
	}
	e.state = Idle
	e.draggedID = ""
	e.override = false
	e.working = nil
}

// SnapshotApplied tells the engine a push was just applied to the snapshot.
// In Idle the push is authoritative and clears any post-commit override; in
// Dragging or Committing the working list keeps rendering.
func (e *Engine) SnapshotApplied() {
	if e.state == Idle {
		e.override = false
		e.working = nil
	}
}

func indexOf(entries []domain.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
