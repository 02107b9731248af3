// Package snapshot holds the gallery list as the remote store currently has
// it. Every push notification delivers the full batch of entries; ordering is
// re-derived per batch.
package snapshot

import (
	"sort"

	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
)

// ListSnapshot is the authoritative, remotely-sourced ordered entry list.
// It is owned by the controller loop and not safe for concurrent use.
type ListSnapshot struct {
	entries []domain.Entry
	lastErr error
	applied uint64
	log     *zap.Logger
}

func New(log *zap.Logger) *ListSnapshot {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListSnapshot{log: log}
}

// Apply replaces the current list with a freshly ordered view of the batch.
// Ordering key selection happens per batch, never per entry: orderIndex
// ascending only when every entry defines one, otherwise createdAt descending
// for the whole batch. Mixing the two would interleave incompatible orders.
func (s *ListSnapshot) Apply(batch []domain.Entry) {
	ordered := make([]domain.Entry, len(batch))
	copy(ordered, batch)

	if allOrdered(ordered) {
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Order() != ordered[j].Order() {
				return ordered[i].Order() < ordered[j].Order()
			}
			// Historical writes may have produced duplicate indices;
			// fall back to recency so the result stays deterministic.
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		})
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		})
	}

	s.entries = ordered
	s.lastErr = nil
	s.applied++
}

// Fail records a read failure from the store subscription. The last known
// good list stays available rather than being cleared.
func (s *ListSnapshot) Fail(err error) {
	s.lastErr = err
	s.log.Warn("snapshot read failed, keeping last good list",
		zap.Error(err),
		zap.Int("entries", len(s.entries)))
}

// Entries returns a copy of the current ordered list.
func (s *ListSnapshot) Entries() []domain.Entry {
	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len reports the current entry count.
func (s *ListSnapshot) Len() int {
	return len(s.entries)
}

// LastErr returns the most recent subscription failure, nil after a
// successful Apply.
func (s *ListSnapshot) LastErr() error {
	return s.lastErr
}

// Applied reports how many pushes have been applied, for logging.
func (s *ListSnapshot) Applied() uint64 {
	return s.applied
}

func allOrdered(entries []domain.Entry) bool {
	if len(entries) == 0 {
		return true
	}
	for _, e := range entries {
		if !e.HasOrder() {
			return false
		}
	}
	return true
}
