package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/metrics"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox/repository"
)

// Service owns viewer session lifecycle: one fresh isolated context per
// open, discarded entirely on close.
type Service struct {
	repo *repository.SessionRepository
	met  *metrics.Metrics
	log  *zap.Logger
}

func New(repo *repository.SessionRepository, met *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if met == nil {
		met = metrics.NewNop()
	}
	return &Service{repo: repo, met: met, log: log}
}

// Launch mints a new session for the entry. The code was already sanitized
// on its way into the store and is taken verbatim: sanitizing again could
// strip a layer off a payload that legitimately starts with a fence line.
func (s *Service) Launch(ctx context.Context, entry domain.Entry) (sandbox.Session, error) {
	sess := sandbox.Session{
		EntryID:     entry.ID,
		Title:       entry.Title,
		AccentColor: entry.AccentColor,
		Code:        entry.Code,
	}
	if err := s.repo.Create(&sess); err != nil {
		return sandbox.Session{}, err
	}

	s.met.SessionLaunched()
	s.log.Info("viewer session launched",
		zap.String("session", sess.ID),
		zap.String("entry", entry.ID))
	return sess, nil
}

// Terminate discards the session's isolated context. Nothing from inside
// the sandbox survives.
func (s *Service) Terminate(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(sessionID); err != nil && !errors.Is(err, sandbox.ErrSessionNotFound) {
		return err
	}
	s.log.Info("viewer session terminated", zap.String("session", sessionID))
	return nil
}

// Session looks up a live session.
func (s *Service) Session(ctx context.Context, sessionID string) (sandbox.Session, error) {
	sess, err := s.repo.Get(sessionID)
	if err != nil {
		return sandbox.Session{}, err
	}
	return *sess, nil
}
