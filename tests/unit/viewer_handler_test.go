package unit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webshelf-app/webshelf-backend/internal/gallery/domain"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox"
	sandboxhttp "github.com/webshelf-app/webshelf-backend/internal/sandbox/http"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox/repository"
	"github.com/webshelf-app/webshelf-backend/internal/sandbox/service"
)

func setupViewerRouter(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	svc := service.New(repository.NewSessionRepository(client, time.Hour), nil, nil)

	r := gin.New()
	sandboxhttp.New(svc, nil).Register(r)
	return r, svc
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestViewerServesHostPage(t *testing.T) {
	r, svc := setupViewerRouter(t)

	sess, err := svc.Launch(context.Background(), domain.Entry{
		ID:          "shelf_abc",
		Title:       "Snake",
		AccentColor: "teal",
		Code:        "<canvas></canvas>",
	})
	require.NoError(t, err)

	w := get(r, "/viewer/"+sess.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	html := w.Body.String()
	assert.Contains(t, html, `sandbox="`+sandbox.FramePermissions+`"`)
	assert.Contains(t, html, "/viewer/"+sess.ID+"/frame")
	// The host page embeds the frame, never the project code itself.
	assert.NotContains(t, html, "<canvas>")
}

func TestFrameServesProjectCodeWithBootstrap(t *testing.T) {
	r, svc := setupViewerRouter(t)

	sess, err := svc.Launch(context.Background(), domain.Entry{
		ID:    "shelf_abc",
		Title: "Snake",
		Code:  "<canvas id=\"game\"></canvas>",
	})
	require.NoError(t, err)

	w := get(r, "/viewer/"+sess.ID+"/frame")
	require.Equal(t, http.StatusOK, w.Code)

	html := w.Body.String()
	assert.Contains(t, html, "<canvas id=\"game\"></canvas>")
	require.Contains(t, html, "unhandledrejection")
	assert.Less(t,
		strings.Index(html, "unhandledrejection"),
		strings.Index(html, "<canvas"),
		"error handlers must be installed before project code")
}

func TestViewerUnknownSessionGetsPlaceholder(t *testing.T) {
	r, _ := setupViewerRouter(t)

	for _, path := range []string{"/viewer/nope", "/viewer/nope/frame"} {
		w := get(r, path)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "<iframe")
	}
}
