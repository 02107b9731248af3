// Package firestore implements the gallery store over Cloud Firestore. Change
// subscription uses the native query snapshot listener, and the order commit
// uses a WriteBatch so the reindex lands all-or-nothing.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
)

// Store is a Firestore-backed gallery entry store.
type Store struct {
	client     *firestore.Client
	collection string
	log        *zap.Logger
}

func New(client *firestore.Client, collection string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, collection: collection, log: log}
}

func (s *Store) entries() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Subscribe attaches a snapshot listener to the entry collection. Every
// remote mutation delivers the full current batch. Documents that fail
// normalization are dropped from the batch and logged, they never enter the
// core.
func (s *Store) Subscribe(ctx context.Context) (<-chan store.Change, func(), error) {
	listenCtx, cancel := context.WithCancel(ctx)
	changes := make(chan store.Change, 4)

	go func() {
		defer close(changes)

		iter := s.entries().Snapshots(listenCtx)
		defer iter.Stop()

		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled || listenCtx.Err() != nil {
					return
				}
				select {
				case changes <- store.Change{Err: fmt.Errorf("snapshot listener: %w", err)}:
				case <-listenCtx.Done():
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				select {
				case changes <- store.Change{Err: fmt.Errorf("snapshot read: %w", err)}:
				case <-listenCtx.Done():
				}
				continue
			}

			batch := make([]domain.Entry, 0, len(docs))
			for _, doc := range docs {
				entry, err := domain.FromDocument(doc.Ref.ID, doc.Data())
				if err != nil {
					s.log.Warn("dropping malformed entry document",
						zap.String("doc", doc.Ref.ID), zap.Error(err))
					continue
				}
				batch = append(batch, entry)
			}

			select {
			case changes <- store.Change{Entries: batch}:
			case <-listenCtx.Done():
				return
			}
		}
	}()

	return changes, cancel, nil
}

// Create adds a new entry document. Timestamps are server-authored.
func (s *Store) Create(ctx context.Context, draft domain.Draft) (string, error) {
	ref, _, err := s.entries().Add(ctx, map[string]interface{}{
		"title":       draft.Title,
		"description": draft.Description,
		"code":        draft.Code,
		"accentColor": domain.NormalizeAccent(draft.AccentColor),
		"orderIndex":  draft.OrderIndex,
		"authorRef":   draft.AuthorRef,
		"createdAt":   firestore.ServerTimestamp,
		"updatedAt":   firestore.ServerTimestamp,
	})
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}
	return ref.ID, nil
}

// Update patches an entry document in place; nil patch fields are skipped.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) error {
	updates := make([]firestore.Update, 0, 5)
	if patch.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.Code != nil {
		updates = append(updates, firestore.Update{Path: "code", Value: *patch.Code})
	}
	if patch.AccentColor != nil {
		updates = append(updates, firestore.Update{Path: "accentColor", Value: domain.NormalizeAccent(*patch.AccentColor)})
	}
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: firestore.ServerTimestamp})

	if _, err := s.entries().Doc(id).Update(ctx, updates); err != nil {
		return mapErr("update entry", err)
	}
	return nil
}

// Delete removes an entry document.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.entries().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return mapErr("delete entry", err)
	}
	return nil
}

// CommitOrder writes every assignment through one WriteBatch: Firestore
// applies the batch atomically, so a failure leaves every orderIndex as it
// was.
func (s *Store) CommitOrder(ctx context.Context, assignments []store.OrderAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	batch := s.client.Batch()
	for _, a := range assignments {
		batch.Update(s.entries().Doc(a.ID), []firestore.Update{
			{Path: "orderIndex", Value: a.OrderIndex},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
	}
	if _, err := batch.Commit(ctx); err != nil {
		return mapErr("commit order", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func mapErr(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Interface guard.
var _ store.Store = (*Store)(nil)
