package bootstrap

import (
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/webshelf-app/webshelf-backend/internal/api/http"
	apimiddleware "github.com/webshelf-app/webshelf-backend/internal/api/http/middleware"
	"github.com/webshelf-app/webshelf-backend/internal/auth"
	authmiddleware "github.com/webshelf-app/webshelf-backend/internal/auth/middleware"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/controller"
	galleryhttp "github.com/webshelf-app/webshelf-backend/internal/gallery/http"
	"github.com/webshelf-app/webshelf-backend/internal/metrics"
	sandboxhttp "github.com/webshelf-app/webshelf-backend/internal/sandbox/http"
	sandboxsvc "github.com/webshelf-app/webshelf-backend/internal/sandbox/service"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins string
	WritesPerMin   int

	// AuthClient may be nil in development; identity then comes from the
	// X-User-Id header.
	AuthClient *fbauth.Client

	Ctrl    *controller.Controller
	Sandbox *sandboxsvc.Service
	Met     *metrics.Metrics
	Log     *zap.Logger

	// Probed by the health endpoint; either may be nil.
	DB    *pgxpool.Pool
	Redis *redis.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	r.GET("/metrics", dep.Met.Handler())

	// Viewer pages live at the root: they serve HTML straight to the
	// browser and need no identity.
	sandboxHandler := sandboxhttp.New(dep.Sandbox, dep.Met)
	sandboxHandler.Register(r)

	api := r.Group("/api/v1")
	api.Use(cors.New(corsConfig(dep.AllowedOrigins)))
	api.Use(apimiddleware.RequestIDMiddleware(dep.Log))
	api.Use(apimiddleware.WriteRateLimit(dep.WritesPerMin))
	api.Use(identityMiddleware(dep.AuthClient))

	galleryHandler := galleryhttp.New(dep.Ctrl)
	galleryHandler.Register(api.Group("/entries"))
	galleryHandler.RegisterReorder(api.Group("/reorder"))
	galleryHandler.RegisterViewer(api)

	return r
}

// identityMiddleware attaches a Firebase UID when one can be verified and
// leaves guests through otherwise. Without an auth client (development) the
// X-User-Id header stands in.
func identityMiddleware(authClient *fbauth.Client) gin.HandlerFunc {
	if authClient != nil {
		return authmiddleware.OptionalFirebaseAuth(authClient)
	}
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader("X-User-Id")); uid != "" {
			c.Set(auth.CtxFirebaseUID, uid)
		}
		c.Next()
	}
}

func corsConfig(allowedOrigins string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = strings.Split(allowedOrigins, ",")
	cfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id"}
	return cfg
}
