package controller

import (
	"context"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
)

// The public methods below are safe for concurrent use: each one posts an
// event into the loop and waits for its reply.

// List returns the currently rendered list, optionally filtered by a
// case-insensitive substring over title and description. Filtering never
// touches stored order.
func (c *Controller) List(ctx context.Context, filter string) ([]domain.Entry, error) {
	ev := listReq{filter: filter, reply: make(chan []domain.Entry, 1)}
	if err := c.send(ctx, ev); err != nil {
		return nil, err
	}
	select {
	case entries := <-ev.reply:
		return entries, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.stopped:
		return nil, ErrStopped
	}
}

// Create persists a new entry for the given identity, placed last. Returns
// the store-assigned id.
func (c *Controller) Create(ctx context.Context, identity string, draft domain.Draft) (string, error) {
	ev := createReq{identity: identity, draft: draft, reply: make(chan createRes, 1)}
	if err := c.send(ctx, ev); err != nil {
		return "", err
	}
	select {
	case res := <-ev.reply:
		return res.id, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.stopped:
		return "", ErrStopped
	}
}

// Update patches an entry owned by the given identity.
func (c *Controller) Update(ctx context.Context, identity, id string, patch domain.Patch) error {
	ev := updateReq{identity: identity, id: id, patch: patch, reply: make(chan error, 1)}
	if err := c.send(ctx, ev); err != nil {
		return err
	}
	return c.await(ctx, ev.reply)
}

// Delete removes an entry owned by the given identity. The order gap it
// leaves is not corruption; readers tolerate it and the nightly compaction
// closes it.
func (c *Controller) Delete(ctx context.Context, identity, id string) error {
	ev := deleteReq{identity: identity, id: id, reply: make(chan error, 1)}
	if err := c.send(ctx, ev); err != nil {
		return err
	}
	return c.await(ctx, ev.reply)
}

// BeginReorder starts a drag gesture on the given entry.
func (c *Controller) BeginReorder(ctx context.Context, identity, id string) error {
	return c.reorder(ctx, reorderReq{identity: identity, op: reorderBegin, id: id})
}

// ContinueReorder moves the dragged entry to the hovered entry's position.
func (c *Controller) ContinueReorder(ctx context.Context, identity, id string) error {
	return c.reorder(ctx, reorderReq{identity: identity, op: reorderHover, id: id})
}

// EndReorder drops the dragged entry and issues the bulk order commit. The
// commit outcome is not surfaced here: a failure is logged and the next
// authoritative snapshot wins.
func (c *Controller) EndReorder(ctx context.Context, identity string) error {
	return c.reorder(ctx, reorderReq{identity: identity, op: reorderDrop})
}

// CancelReorder abandons the gesture and reverts to the authoritative order.
func (c *Controller) CancelReorder(ctx context.Context, identity string) error {
	return c.reorder(ctx, reorderReq{identity: identity, op: reorderCancel})
}

func (c *Controller) reorder(ctx context.Context, ev reorderReq) error {
	ev.reply = make(chan error, 1)
	if err := c.send(ctx, ev); err != nil {
		return err
	}
	return c.await(ctx, ev.reply)
}

// Open launches the entry in a fresh sandbox session, replacing any session
// that was active before. At most one entry is active at a time.
func (c *Controller) Open(ctx context.Context, id string) (sandbox.Session, error) {
	ev := openReq{id: id, reply: make(chan openRes, 1)}
	if err := c.send(ctx, ev); err != nil {
		return sandbox.Session{}, err
	}
	select {
	case res := <-ev.reply:
		return res.session, res.err
	case <-ctx.Done():
		return sandbox.Session{}, ctx.Err()
	case <-c.stopped:
		return sandbox.Session{}, ErrStopped
	}
}

// Close discards the active sandbox session, if any.
func (c *Controller) Close(ctx context.Context) error {
	ev := closeReq{reply: make(chan error, 1)}
	if err := c.send(ctx, ev); err != nil {
		return err
	}
	return c.await(ctx, ev.reply)
}

// Compact requests an order-index compaction pass; a no-op while a gesture
// is in flight or when the order is already dense.
func (c *Controller) Compact(ctx context.Context) error {
	return c.send(ctx, compactReq{})
}

func (c *Controller) send(ctx context.Context, ev interface{}) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrStopped
	}
}
