package integration

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox/repository"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox/service"
)

// setupTestRedis creates a miniredis-backed client for session tests.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return client, mr
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	repo := repository.NewSessionRepository(client, time.Hour)

	t.Run("create assigns id and persists", func(t *testing.T) {
		sess := &sandbox.Session{
			EntryID: "shelf_abc",
			Title:   "Snake",
			Code:    "<canvas></canvas>",
		}
		require.NoError(t, repo.Create(sess))
		require.NotEmpty(t, sess.ID)
		require.False(t, sess.CreatedAt.IsZero())

		got, err := repo.Get(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.EntryID, got.EntryID)
		assert.Equal(t, sess.Title, got.Title)
		assert.Equal(t, sess.Code, got.Code)
	})

	t.Run("get missing session", func(t *testing.T) {
		_, err := repo.Get("nope")
		assert.ErrorIs(t, err, sandbox.ErrSessionNotFound)
	})

	t.Run("delete discards the session", func(t *testing.T) {
		sess := &sandbox.Session{EntryID: "shelf_abc"}
		require.NoError(t, repo.Create(sess))

		require.NoError(t, repo.Delete(sess.ID))
		_, err := repo.Get(sess.ID)
		assert.ErrorIs(t, err, sandbox.ErrSessionNotFound)

		// Deleting again is not an error.
		require.NoError(t, repo.Delete(sess.ID))
	})

	t.Run("sessions expire on their own", func(t *testing.T) {
		shortRepo := repository.NewSessionRepository(client, time.Minute)
		sess := &sandbox.Session{EntryID: "shelf_abc"}
		require.NoError(t, shortRepo.Create(sess))

		mr.FastForward(2 * time.Minute)

		_, err := shortRepo.Get(sess.ID)
		assert.ErrorIs(t, err, sandbox.ErrSessionNotFound)
	})
}

func TestSandboxService_FreshSessionPerLaunch(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	svc := service.New(repository.NewSessionRepository(client, time.Hour), nil, nil)
	ctx := context.Background()

	entry := domain.Entry{
		ID:    "shelf_abc",
		Title: "Paint",
		Code:  "<p>hi</p>",
	}

	first, err := svc.Launch(ctx, entry)
	require.NoError(t, err)
	second, err := svc.Launch(ctx, entry)
	require.NoError(t, err)

	// Every open is a brand new context, never a reused one.
	assert.NotEqual(t, first.ID, second.ID)

	// Persisted code reaches the session verbatim.
	got, err := svc.Session(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", got.Code)

	require.NoError(t, svc.Terminate(ctx, first.ID))
	_, err = svc.Session(ctx, first.ID)
	assert.ErrorIs(t, err, sandbox.ErrSessionNotFound)

	// Terminating an already-expired session is tolerated.
	require.NoError(t, svc.Terminate(ctx, first.ID))

	// The survivor is untouched.
	_, err = svc.Session(ctx, second.ID)
	require.NoError(t, err)
}
