package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
)

const sessionKeyPrefix = "sandbox:session:" // Key for session data: sandbox:session:{session_id}

// SessionRepository handles Redis operations for viewer sessions. Sessions
// are throwaway by design: they expire on their own if the viewer is never
// closed.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	ctx    context.Context
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionRepository{
		client: client,
		ttl:    ttl,
		ctx:    context.Background(),
	}
}

// Create stores a new viewer session under a fresh ID.
func (r *SessionRepository) Create(sess *sandbox.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(r.ctx, r.key(sess.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(sessionID string) (*sandbox.Session, error) {
	data, err := r.client.Get(r.ctx, r.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, sandbox.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess sandbox.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete discards a session entirely. Deleting a session that already
// expired is not an error.
func (r *SessionRepository) Delete(sessionID string) error {
	if err := r.client.Del(r.ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) key(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
