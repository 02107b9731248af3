// Package controller coordinates the gallery core: it owns the authoritative
// entry list, the active viewer session, and the reorder gesture, and it
// exposes the entry lifecycle to the HTTP layer.
//
// The controller runs as a single event loop. UI intents and store
// notifications interleave on one control flow; store reads and writes are
// the only suspension points and run in spawned goroutines that report back
// as events. At any moment either the ordering engine's working list or the
// snapshot list is authoritative, never both.
package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/ordering"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/sanitize"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/snapshot"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
	"github.com/webshelf-app/webshelf-backend/internal/metrics"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
)

// ErrStopped is returned once the controller loop has shut down.
var ErrStopped = errors.New("gallery controller stopped")

// SandboxLauncher is the execution sandbox as the controller sees it.
type SandboxLauncher interface {
	Launch(ctx context.Context, entry domain.Entry) (sandbox.Session, error)
	Terminate(ctx context.Context, sessionID string) error
}

type Controller struct {
	store    store.Store
	launcher SandboxLauncher
	snap     *snapshot.ListSnapshot
	engine   *ordering.Engine
	met      *metrics.Metrics
	log      *zap.Logger

	events  chan interface{}
	stopped chan struct{}

	// loop-owned state
	activeEntry   string
	activeSession string
}

func New(st store.Store, launcher SandboxLauncher, met *metrics.Metrics, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if met == nil {
		met = metrics.NewNop()
	}
	return &Controller{
		store:    st,
		launcher: launcher,
		snap:     snapshot.New(log),
		engine:   ordering.NewEngine(log),
		met:      met,
		log:      log,
		events:   make(chan interface{}, 64),
		stopped:  make(chan struct{}),
	}
}

// Start subscribes to the store and launches the event loop. The loop exits
// when ctx is cancelled; Done is closed once it has.
func (c *Controller) Start(ctx context.Context) error {
	changes, stop, err := c.store.Subscribe(ctx)
	if err != nil {
		return err
	}

	go c.run(ctx, changes, stop)
	return nil
}

// Done is closed after the loop has fully shut down.
func (c *Controller) Done() <-chan struct{} {
	return c.stopped
}

func (c *Controller) run(ctx context.Context, changes <-chan store.Change, stop func()) {
	defer close(c.stopped)
	defer func() { stop() }()

	for {
		select {
		case <-ctx.Done():
			// A gesture in flight on teardown is abandoned, never
			// committed. Pending writes finish on their own; their
			// results are ignored.
			c.engine.Cancel()
			return
		case change, ok := <-changes:
			if !ok {
				// The backend tore the feed down (dropped listener
				// connection, closed iterator). The last good list
				// keeps serving while a fresh subscription is
				// established in the background.
				c.log.Warn("store subscription closed, resubscribing")
				stop()
				changes = nil
				go c.resubscribe(ctx)
				continue
			}
			c.handleChange(change)
		case ev := <-c.events:
			if r, ok := ev.(resubscribed); ok {
				stop = r.stop
				changes = r.changes
				continue
			}
			c.handle(ctx, ev)
		}
	}
}

// resubscribe retries the store subscription until it succeeds or the
// controller shuts down. The loop keeps answering reads from the stale
// snapshot the whole time.
func (c *Controller) resubscribe(ctx context.Context) {
	backoff := time.Second
	for {
		changes, stop, err := c.store.Subscribe(ctx)
		if err == nil {
			select {
			case c.events <- resubscribed{changes: changes, stop: stop}:
			case <-c.stopped:
				stop()
			case <-ctx.Done():
				stop()
			}
			return
		}

		c.log.Error("store resubscribe failed", zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-c.stopped:
			return
		case <-ctx.Done():
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev interface{}) {
	switch ev := ev.(type) {
	case listReq:
		ev.reply <- filterEntries(c.visible(), ev.filter)
	case createReq:
		c.handleCreate(ctx, ev)
	case updateReq:
		c.handleUpdate(ctx, ev)
	case deleteReq:
		c.handleDelete(ctx, ev)
	case reorderReq:
		c.handleReorder(ctx, ev)
	case commitDone:
		c.engine.Resolve(ev.err)
		c.met.OrderCommit(ev.err == nil)
	case openReq:
		c.handleOpen(ctx, ev)
	case sessionOpened:
		c.activeSession = ev.sessionID
		c.activeEntry = ev.entryID
	case closeReq:
		c.handleClose(ctx, ev)
	case compactReq:
		c.handleCompact(ctx)
	case storeChange:
		c.handleChange(ev.change)
	}
}

func (c *Controller) handleChange(change store.Change) {
	if change.Err != nil {
		// Stale-but-available: the last good list keeps serving.
		c.snap.Fail(change.Err)
		c.met.SnapshotFailure()
		return
	}
	c.snap.Apply(change.Entries)
	c.engine.SnapshotApplied()
	c.met.SnapshotPush(c.snap.Len())
}

// visible is the list the UI renders right now: the engine's working list
// while a gesture overrides, the snapshot otherwise.
func (c *Controller) visible() []domain.Entry {
	if c.engine.Overriding() {
		return c.engine.Working()
	}
	return c.snap.Entries()
}

func (c *Controller) handleCreate(ctx context.Context, ev createReq) {
	if ev.identity == "" {
		ev.reply <- createRes{err: domain.ErrReadOnly}
		return
	}
	draft := ev.draft
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if draft.Title == "" || draft.Description == "" {
		ev.reply <- createRes{err: domain.ErrInvalidEntry}
		return
	}
	draft.Code = sanitize.Clean(draft.Code)
	draft.AccentColor = domain.NormalizeAccent(draft.AccentColor)
	draft.AuthorRef = ev.identity
	// New entries go last.
	draft.OrderIndex = c.snap.Len()

	go func() {
		id, err := c.store.Create(ctx, draft)
		if err != nil {
			c.log.Error("create entry failed", zap.Error(err))
		}
		ev.reply <- createRes{id: id, err: err}
	}()
}

func (c *Controller) handleUpdate(ctx context.Context, ev updateReq) {
	entry, err := c.authorize(ev.identity, ev.id)
	if err != nil {
		ev.reply <- err
		return
	}

	patch := ev.patch
	if patch.Code != nil {
		clean := sanitize.Clean(*patch.Code)
		patch.Code = &clean
	}

	go func() {
		err := c.store.Update(ctx, entry.ID, patch)
		if err != nil {
			c.log.Error("update entry failed", zap.String("id", entry.ID), zap.Error(err))
		}
		ev.reply <- err
	}()
}

func (c *Controller) handleDelete(ctx context.Context, ev deleteReq) {
	entry, err := c.authorize(ev.identity, ev.id)
	if err != nil {
		ev.reply <- err
		return
	}

	go func() {
		err := c.store.Delete(ctx, entry.ID)
		if err != nil {
			c.log.Error("delete entry failed", zap.String("id", entry.ID), zap.Error(err))
		}
		ev.reply <- err
	}()
}

// authorize resolves an entry against the authoritative list and checks the
// caller owns it. Local state is never optimistically mutated for these
// writes; the snapshot echo carries the result back.
func (c *Controller) authorize(identity, id string) (domain.Entry, error) {
	if identity == "" {
		return domain.Entry{}, domain.ErrReadOnly
	}
	for _, e := range c.snap.Entries() {
		if e.ID == id {
			if e.AuthorRef != identity {
				return domain.Entry{}, domain.ErrForbidden
			}
			return e, nil
		}
	}
	return domain.Entry{}, domain.ErrNotFound
}

func (c *Controller) handleReorder(ctx context.Context, ev reorderReq) {
	if ev.identity == "" {
		ev.reply <- domain.ErrReadOnly
		return
	}

	switch ev.op {
	case reorderBegin:
		// Seed from the rendered list: a post-commit override may still
		// be showing while the echo push is in flight.
		ev.reply <- c.engine.Begin(ev.id, c.visible())
	case reorderHover:
		ev.reply <- c.engine.Hover(ev.id)
	case reorderDrop:
		assignments, err := c.engine.Drop()
		if err != nil {
			ev.reply <- err
			return
		}
		ev.reply <- nil
		// Teardown must not cancel an issued commit; only its result
		// gets ignored.
		commitCtx := context.WithoutCancel(ctx)
		go func() {
			err := c.store.CommitOrder(commitCtx, assignments)
			select {
			case c.events <- commitDone{err: err}:
			case <-c.stopped:
			}
		}()
	case reorderCancel:
		c.engine.Cancel()
		ev.reply <- nil
	}
}

func (c *Controller) handleOpen(ctx context.Context, ev openReq) {
	var entry domain.Entry
	found := false
	for _, e := range c.visible() {
		if e.ID == ev.id {
			entry, found = e, true
			break
		}
	}
	if !found {
		ev.reply <- openRes{err: domain.ErrNotFound}
		return
	}

	prev := c.activeSession
	c.activeSession = ""
	c.activeEntry = ""

	go func() {
		// A fresh isolated context per open: the previous session is
		// discarded, never reused.
		if prev != "" {
			if err := c.launcher.Terminate(ctx, prev); err != nil {
				c.log.Warn("terminating previous session failed",
					zap.String("session", prev), zap.Error(err))
			}
		}
		sess, err := c.launcher.Launch(ctx, entry)
		if err == nil {
			select {
			case c.events <- sessionOpened{sessionID: sess.ID, entryID: entry.ID}:
			case <-c.stopped:
			}
		}
		ev.reply <- openRes{session: sess, err: err}
	}()
}

func (c *Controller) handleClose(ctx context.Context, ev closeReq) {
	if c.activeSession == "" {
		ev.reply <- nil
		return
	}
	sessionID := c.activeSession
	c.activeSession = ""
	c.activeEntry = ""

	go func() {
		ev.reply <- c.launcher.Terminate(ctx, sessionID)
	}()
}

// handleCompact reindexes the authoritative order to dense 0..n-1 when
// deletions have left gaps. Skipped outright while a gesture is in flight.
func (c *Controller) handleCompact(ctx context.Context) {
	if c.engine.CurrentState() != ordering.Idle || c.engine.Overriding() {
		return
	}
	entries := c.snap.Entries()
	if isDense(entries) {
		return
	}

	assignments := make([]store.OrderAssignment, len(entries))
	for i, e := range entries {
		assignments[i] = store.OrderAssignment{ID: e.ID, OrderIndex: i}
	}
	go func() {
		if err := c.store.CommitOrder(ctx, assignments); err != nil {
			c.log.Warn("order compaction failed", zap.Error(err))
		}
		c.met.OrderCompaction()
	}()
}

func isDense(entries []domain.Entry) bool {
	for i, e := range entries {
		if !e.HasOrder() || e.Order() != i {
			return false
		}
	}
	return true
}

func filterEntries(entries []domain.Entry, q string) []domain.Entry {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return entries
	}
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}
