package unit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshelf-app/webshelf-backend/internal/auth"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/controller"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	galleryhttp "github.com/webshelf-app/webshelf-backend/internal/gallery/http"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store/memory"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
)

type stubLauncher struct{}

func (stubLauncher) Launch(ctx context.Context, entry domain.Entry) (sandbox.Session, error) {
	return sandbox.Session{ID: "sess-" + entry.ID, EntryID: entry.ID}, nil
}

func (stubLauncher) Terminate(ctx context.Context, sessionID string) error { return nil }

// setupGalleryRouter wires the gallery handlers over an in-process store.
// Identity comes from the X-User-Id header, the same fallback the server
// uses when no auth client is configured.
func setupGalleryRouter(t *testing.T) (*gin.Engine, *controller.Controller, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	ctrl := controller.New(st, stubLauncher{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, ctrl.Start(ctx))
	t.Cleanup(func() {
		cancel()
		select {
		case <-ctrl.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("controller loop did not stop")
		}
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-User-Id"); uid != "" {
			c.Set(auth.CtxFirebaseUID, uid)
		}
		c.Next()
	})

	h := galleryhttp.New(ctrl)
	h.Register(r.Group("/api/v1/entries"))
	h.RegisterReorder(r.Group("/api/v1/reorder"))
	h.RegisterViewer(r.Group("/api/v1"))

	return r, ctrl, st
}

func doJSON(r *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func waitEntries(t *testing.T, r *gin.Engine, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		w := doJSON(r, http.MethodGet, "/api/v1/entries", "", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var resp struct {
			Entries []domain.Entry `json:"entries"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			return false
		}
		return len(resp.Entries) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestGalleryHandler_CreateAndList(t *testing.T) {
	r, _, _ := setupGalleryRouter(t)

	t.Run("signed-in create succeeds", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/entries", "user-1", map[string]string{
			"title":       "Snake Game",
			"description": "arrows to steer",
			"code":        "<canvas></canvas>",
			"accentColor": "teal",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			OK bool   `json:"ok"`
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.NotEmpty(t, resp.ID)
		waitEntries(t, r, 1)
	})

	t.Run("guest list is allowed and filterable", func(t *testing.T) {
		doJSON(r, http.MethodPost, "/api/v1/entries", "user-1", map[string]string{
			"title":       "Paint App",
			"description": "click to draw",
		})
		waitEntries(t, r, 2)

		w := doJSON(r, http.MethodGet, "/api/v1/entries?q=paint", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Entries []domain.Entry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, "Paint App", resp.Entries[0].Title)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/entries", "user-1", map[string]string{
			"title": "   ",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGalleryHandler_GuestWritesGetUnauthorized(t *testing.T) {
	r, _, _ := setupGalleryRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/entries", "", map[string]string{"title": "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/reorder/start", "", map[string]string{"id": "mem-0001"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGalleryHandler_AuthorOwnership(t *testing.T) {
	r, _, st := setupGalleryRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/entries", "alice", map[string]string{
		"title":       "Mine",
		"description": "my project",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	waitEntries(t, r, 1)

	t.Run("other user cannot patch", func(t *testing.T) {
		w := doJSON(r, http.MethodPatch, "/api/v1/entries/"+created.ID, "mallory", map[string]string{
			"title": "Stolen",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner can patch", func(t *testing.T) {
		w := doJSON(r, http.MethodPatch, "/api/v1/entries/"+created.ID, "alice", map[string]string{
			"title": "Renamed",
		})
		require.Equal(t, http.StatusOK, w.Code)
		e, ok := st.Entry(created.ID)
		require.True(t, ok)
		assert.Equal(t, "Renamed", e.Title)
	})

	t.Run("unknown entry is 404", func(t *testing.T) {
		w := doJSON(r, http.MethodDelete, "/api/v1/entries/nope", "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGalleryHandler_OpenAndClose(t *testing.T) {
	r, _, _ := setupGalleryRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/entries", "alice", map[string]string{
		"title":       "Toy",
		"description": "a toy",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	waitEntries(t, r, 1)

	w = doJSON(r, http.MethodPost, "/api/v1/entries/"+created.ID+"/open", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var opened struct {
		SessionID string `json:"session_id"`
		ViewerURL string `json:"viewer_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.Equal(t, "sess-"+created.ID, opened.SessionID)
	assert.Equal(t, "/viewer/"+opened.SessionID, opened.ViewerURL)

	w = doJSON(r, http.MethodPost, "/api/v1/viewer/close", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
