package ordering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
)

func list(ids ...string) []domain.Entry {
	out := make([]domain.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Entry{ID: id, Title: "t-" + id})
	}
	return out
}

func workingIDs(e *Engine) []string {
	w := e.Working()
	out := make([]string, 0, len(w))
	for _, entry := range w {
		out = append(out, entry.ID)
	}
	return out
}

func TestDragToEnd(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("A", list("A", "B", "C")))
	require.NoError(t, e.Hover("C"))

	assert.Equal(t, []string{"B", "C", "A"}, workingIDs(e))

	assignments, err := e.Drop()
	require.NoError(t, err)
	assert.Equal(t, []store.OrderAssignment{
		{ID: "B", OrderIndex: 0},
		{ID: "C", OrderIndex: 1},
		{ID: "A", OrderIndex: 2},
	}, assignments)
}

func TestDragToFront(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("C", list("A", "B", "C")))
	require.NoError(t, e.Hover("A"))
	assert.Equal(t, []string{"C", "A", "B"}, workingIDs(e))
}

func TestHoverOverSelfIsNoop(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("B", list("A", "B", "C")))
	require.NoError(t, e.Hover("B"))
	assert.Equal(t, []string{"A", "B", "C"}, workingIDs(e))
}

func TestRapidHoversTrackThePointer(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("A", list("A", "B", "C", "D")))
	require.NoError(t, e.Hover("C"))
	require.NoError(t, e.Hover("B"))
	require.NoError(t, e.Hover("D"))
	assert.Equal(t, []string{"B", "C", "D", "A"}, workingIDs(e))
}

func TestSnapshotDoesNotInterfereMidGesture(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("A", list("A", "B", "C")))
	require.NoError(t, e.Hover("C"))

	// Remote push arrives while dragging: rendered list must not move.
	e.SnapshotApplied()
	assert.True(t, e.Overriding())
	assert.Equal(t, []string{"B", "C", "A"}, workingIDs(e))

	_, err := e.Drop()
	require.NoError(t, err)

	// ...and not while committing either.
	e.SnapshotApplied()
	assert.True(t, e.Overriding())

	e.Resolve(nil)
	assert.Equal(t, Idle, e.CurrentState())

	// After the commit the working list keeps rendering until the next
	// push echoes the committed order; that push is then authoritative.
	assert.True(t, e.Overriding())
	e.SnapshotApplied()
	assert.False(t, e.Overriding())
}

func TestCommitFailureRevertsToAuthoritative(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("A", list("A", "B", "C")))
	require.NoError(t, e.Hover("C"))
	_, err := e.Drop()
	require.NoError(t, err)

	e.Resolve(errors.New("bulk write failed"))

	assert.Equal(t, Idle, e.CurrentState())
	assert.False(t, e.Overriding(), "failed commit must defer to the snapshot order")
}

func TestCancelDiscardsWorkingList(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("B", list("A", "B", "C")))
	require.NoError(t, e.Hover("A"))

	e.Cancel()

	assert.Equal(t, Idle, e.CurrentState())
	assert.False(t, e.Overriding(), "abandoned gesture must not keep the hovered arrangement")
}

func TestGestureStateErrors(t *testing.T) {
	e := NewEngine(nil)

	assert.ErrorIs(t, e.Hover("A"), domain.ErrReorderState)
	_, err := e.Drop()
	assert.ErrorIs(t, err, domain.ErrReorderState)

	require.NoError(t, e.Begin("A", list("A", "B")))
	assert.ErrorIs(t, e.Begin("B", list("A", "B")), domain.ErrReorderState)

	assert.ErrorIs(t, NewEngine(nil).Begin("missing", list("A")), domain.ErrNotFound)
}

func TestHoverVanishedEntryIsIgnored(t *testing.T) {
	e := NewEngine(nil)
	require.NoError(t, e.Begin("A", list("A", "B")))
	require.NoError(t, e.Hover("gone"))
	assert.Equal(t, []string{"A", "B"}, workingIDs(e))
}

func TestDenseIndicesRegardlessOfPriorCorruption(t *testing.T) {
	// Entries arriving with duplicate or gapped indices still commit to
	// dense 0..n-1 positions.
	dup := 7
	entries := []domain.Entry{
		{ID: "A", OrderIndex: &dup},
		{ID: "B", OrderIndex: &dup},
		{ID: "C"},
	}
	e := NewEngine(nil)
	require.NoError(t, e.Begin("A", entries))
	assignments, err := e.Drop()
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, a := range assignments {
		assert.False(t, seen[a.OrderIndex], "duplicate index %d", a.OrderIndex)
		seen[a.OrderIndex] = true
	}
	assert.Len(t, seen, 3)
}
