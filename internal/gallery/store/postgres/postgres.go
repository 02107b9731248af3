// Package postgres implements the gallery store over PostgreSQL. Change
// subscription rides on LISTEN/NOTIFY: every write NOTIFYs a channel and the
// listener re-reads the full batch, so subscribers always see complete
// snapshots, never deltas.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
)

const notifyChannel = "gallery_entries_changed"

const schema = `
CREATE TABLE IF NOT EXISTS gallery_entries (
    id          text PRIMARY KEY,
    title       text NOT NULL,
    description text NOT NULL DEFAULT '',
    code        text NOT NULL DEFAULT '',
    accent      text NOT NULL DEFAULT '',
    order_index integer,
    author_ref  text NOT NULL,
    created_at  timestamptz NOT NULL DEFAULT now(),
    updated_at  timestamptz NOT NULL DEFAULT now()
);`

// Store is a PostgreSQL-backed gallery entry store.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(pool *pgxpool.Pool, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log}
}

// EnsureSchema creates the entries table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Subscribe listens for entry changes and delivers the full batch per
// notification, starting with the current batch. The returned stop function
// tears the listener down; it is safe to call more than once.
func (s *Store) Subscribe(ctx context.Context) (<-chan store.Change, func(), error) {
	listenCtx, cancel := context.WithCancel(ctx)

	conn, err := s.pool.Acquire(listenCtx)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(listenCtx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		cancel()
		return nil, nil, fmt.Errorf("listen: %w", err)
	}

	changes := make(chan store.Change, 4)

	go func() {
		defer close(changes)
		defer conn.Release()

		// Initial batch, then one batch per notification.
		s.push(listenCtx, changes)
		for {
			if _, err := conn.Conn().WaitForNotification(listenCtx); err != nil {
				if listenCtx.Err() != nil {
					return
				}
				select {
				case changes <- store.Change{Err: fmt.Errorf("listener: %w", err)}:
				case <-listenCtx.Done():
				}
				return
			}
			s.push(listenCtx, changes)
		}
	}()

	return changes, cancel, nil
}

func (s *Store) push(ctx context.Context, changes chan<- store.Change) {
	batch, err := s.readAll(ctx)
	var c store.Change
	if err != nil {
		c = store.Change{Err: err}
	} else {
		c = store.Change{Entries: batch}
	}
	select {
	case changes <- c:
	case <-ctx.Done():
	}
}

func (s *Store) readAll(ctx context.Context) ([]domain.Entry, error) {
	const q = `
SELECT id, title, description, code, accent, order_index, author_ref, created_at, updated_at
FROM gallery_entries;`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Entry, 0, 16)
	for rows.Next() {
		var (
			e      domain.Entry
			accent string
			idx    *int32
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Code, &accent,
			&idx, &e.AuthorRef, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.AccentColor = domain.NormalizeAccent(accent)
		if idx != nil {
			v := int(*idx)
			e.OrderIndex = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return out, nil
}

// Create inserts a new entry and notifies subscribers.
func (s *Store) Create(ctx context.Context, draft domain.Draft) (string, error) {
	const q = `
INSERT INTO gallery_entries (id, title, description, code, accent, order_index, author_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	for i := 0; i < 5; i++ {
		id, err := NewTextID("shelf")
		if err != nil {
			return "", err
		}

		err = func() error {
			tx, err := s.pool.Begin(ctx)
			if err != nil {
				return fmt.Errorf("create entry: %w", err)
			}
			defer tx.Rollback(ctx)

			if _, err := tx.Exec(ctx, q, id, draft.Title, draft.Description, draft.Code,
				domain.NormalizeAccent(draft.AccentColor), draft.OrderIndex, draft.AuthorRef); err != nil {
				return err
			}
			if err := notify(ctx, tx); err != nil {
				return err
			}
			if err := tx.Commit(ctx); err != nil {
				return fmt.Errorf("create entry: %w", err)
			}
			return nil
		}()

		if err == nil {
			return id, nil
		}

		// unique violation on id → retry with a fresh one
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return "", fmt.Errorf("create entry: %w", err)
	}

	return "", fmt.Errorf("failed to generate unique entry id")
}

// Update patches an entry in place. Order is excluded on purpose: it only
// moves through CommitOrder.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) error {
	const q = `
UPDATE gallery_entries
SET title       = COALESCE($2, title),
    description = COALESCE($3, description),
    code        = COALESCE($4, code),
    accent      = COALESCE($5, accent),
    updated_at  = now()
WHERE id = $1;`

	var accent *string
	if patch.AccentColor != nil {
		a := domain.NormalizeAccent(*patch.AccentColor)
		accent = &a
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, q, id, patch.Title, patch.Description, patch.Code, accent)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := notify(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// Delete removes an entry. The order gap it leaves behind is tolerated by
// readers.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM gallery_entries WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := notify(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// CommitOrder applies every assignment inside one transaction: either all
// entries get their new index or none do.
func (s *Store) CommitOrder(ctx context.Context, assignments []store.OrderAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	for _, a := range assignments {
		b.Queue(`UPDATE gallery_entries SET order_index = $2, updated_at = now() WHERE id = $1;`,
			a.ID, a.OrderIndex)
	}
	br := tx.SendBatch(ctx, b)
	for range assignments {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("commit order: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	if err := notify(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func notify(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, '')", notifyChannel); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Interface guard.
var _ store.Store = (*Store)(nil)
