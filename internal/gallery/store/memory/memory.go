// Package memory implements the gallery store in process memory. It exists
// for local development and tests: same contract, no external services.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
)

type Store struct {
	mu      sync.Mutex
	entries map[string]domain.Entry
	seq     int
	subs    map[int]chan store.Change
	subSeq  int

	readErr   error
	commitErr error
}

func New() *Store {
	return &Store{
		entries: make(map[string]domain.Entry),
		subs:    make(map[int]chan store.Change),
	}
}

// FailReads makes subsequent pushes deliver the given error instead of a
// batch; nil restores normal delivery.
func (s *Store) FailReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// FailCommits makes CommitOrder fail atomically: the error is returned and
// no orderIndex changes.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	s.commitErr = err
	s.mu.Unlock()
}

// Entry returns the stored entry by id, for test assertions.
func (s *Store) Entry(id string) (domain.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *Store) Subscribe(ctx context.Context) (<-chan store.Change, func(), error) {
	s.mu.Lock()
	id := s.subSeq
	s.subSeq++
	ch := make(chan store.Change, 16)
	s.subs[id] = ch
	ch <- s.changeLocked()
	s.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return ch, stop, nil
}

func (s *Store) Create(ctx context.Context, draft domain.Draft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := fmt.Sprintf("mem-%04d", s.seq)
	idx := draft.OrderIndex
	now := time.Now().Add(time.Duration(s.seq) * time.Microsecond)
	s.entries[id] = domain.Entry{
		ID:          id,
		Title:       draft.Title,
		Description: draft.Description,
		Code:        draft.Code,
		AccentColor: domain.NormalizeAccent(draft.AccentColor),
		OrderIndex:  &idx,
		AuthorRef:   draft.AuthorRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.broadcastLocked()
	return id, nil
}

func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.ErrNotFound
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Code != nil {
		e.Code = *patch.Code
	}
	if patch.AccentColor != nil {
		e.AccentColor = domain.NormalizeAccent(*patch.AccentColor)
	}
	e.UpdatedAt = time.Now()
	s.entries[id] = e
	s.broadcastLocked()
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.entries, id)
	s.broadcastLocked()
	return nil
}

func (s *Store) CommitOrder(ctx context.Context, assignments []store.OrderAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitErr != nil {
		return s.commitErr
	}
	for _, a := range assignments {
		e, ok := s.entries[a.ID]
		if !ok {
			continue
		}
		idx := a.OrderIndex
		e.OrderIndex = &idx
		e.UpdatedAt = time.Now()
		s.entries[a.ID] = e
	}
	s.broadcastLocked()
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) changeLocked() store.Change {
	if s.readErr != nil {
		return store.Change{Err: s.readErr}
	}
	batch := make([]domain.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		batch = append(batch, e)
	}
	return store.Change{Entries: batch}
}

func (s *Store) broadcastLocked() {
	c := s.changeLocked()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			// Slow subscriber; it will catch up on the next change.
		}
	}
}

// Interface guard.
var _ store.Store = (*Store)(nil)
