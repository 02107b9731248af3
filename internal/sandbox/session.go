// Package sandbox hosts one untrusted project's markup in an isolated
// browsing context. Every open mints a fresh session; documents are rebuilt
// from scratch so nothing leaks between successively opened projects.
package sandbox

import (
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("viewer session not found")

// Session is one live viewer: a single entry's sanitized code bound to a
// throwaway isolated document context.
type Session struct {
	ID          string    `json:"session_id"`
	EntryID     string    `json:"entry_id"`
	Title       string    `json:"title"`
	AccentColor string    `json:"accent_color"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}
