// Package store defines the contract the gallery core requires of the remote
// entry store. Two backends implement it: firestore (production) and
// postgres.
package store

import (
	"context"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
)

// Change is one push notification from the store: either the full current
// batch of entries, or a read failure. Batches are unordered; ordering is
// derived downstream.
type Change struct {
	Entries []domain.Entry
	Err     error
}

// OrderAssignment is one (entry, position) pair of a bulk order commit.
type OrderAssignment struct {
	ID         string
	OrderIndex int
}

// Store is the remote entry store.
//
// Subscribe delivers the full current batch on every remote mutation,
// starting with an initial batch, until ctx is cancelled or stop is called.
// A backend that loses its listener transport reports the error as a Change
// and closes the channel; the feed is dead at that point and the consumer
// resubscribes. CommitOrder applies every assignment atomically: on error,
// no orderIndex has changed.
type Store interface {
	Subscribe(ctx context.Context) (changes <-chan Change, stop func(), err error)
	Create(ctx context.Context, draft domain.Draft) (id string, err error)
	Update(ctx context.Context, id string, patch domain.Patch) error
	Delete(ctx context.Context, id string) error
	CommitOrder(ctx context.Context, assignments []OrderAssignment) error
	Close() error
}
