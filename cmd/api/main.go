package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/webshelf-app/webshelf-backend/config"
	"github.com/webshelf-app/webshelf-backend/internal/auth"
	"github.com/webshelf-app/webshelf-backend/internal/bootstrap"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/controller"
	"github.com/webshelf-app/webshelf-backend/internal/gallery/store"
	firestorestore "github.com/webshelf-app/webshelf-backend/internal/gallery/store/firestore"
	memorystore "github.com/webshelf-app/webshelf-backend/internal/gallery/store/memory"
	postgresstore "github.com/webshelf-app/webshelf-backend/internal/gallery/store/postgres"
	"github.com/webshelf-app/webshelf-backend/internal/maintenance"
	"github.com/webshelf-app/webshelf-backend/internal/metrics"
	sandboxrepo "github.com/webshelf-app/webshelf-backend/internal/sandbox/repository"
	sandboxsvc "github.com/webshelf-app/webshelf-backend/internal/sandbox/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := bootstrap.NewLogger(&cfg.App)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := bootstrap.OpenRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("redis unavailable", zap.Error(err))
	}
	defer rdb.Close()

	var (
		entryStore store.Store
		pool       *pgxpool.Pool
	)
	switch cfg.Store.Backend {
	case "postgres":
		pool, err = bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: bootstrap.DSN(&cfg.Database)})
		if err != nil {
			log.Fatal("postgres unavailable", zap.Error(err))
		}
		pg := postgresstore.New(pool, log)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("schema setup failed", zap.Error(err))
		}
		entryStore = pg
	case "memory":
		log.Warn("using in-process store, data will not survive restarts")
		entryStore = memorystore.New()
	default:
		fsClient, err := bootstrap.OpenFirestore(ctx, &cfg.Store, &cfg.Firebase)
		if err != nil {
			log.Fatal("firestore unavailable", zap.Error(err))
		}
		entryStore = firestorestore.New(fsClient, cfg.Store.Collection, log)
	}
	defer entryStore.Close()

	var authClient *fbauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		authClient, err = auth.InitializeFirebase(&cfg.Firebase)
		if err != nil {
			log.Fatal("firebase init failed", zap.Error(err))
		}
	} else {
		log.Warn("FIREBASE_CREDENTIALS_PATH not set, running with header identity (development only)")
	}

	met := metrics.New()

	sessionTTL := time.Duration(cfg.Sandbox.SessionTTLHours) * time.Hour
	sessions := sandboxrepo.NewSessionRepository(rdb, sessionTTL)
	sandbox := sandboxsvc.New(sessions, met, log)

	ctrl := controller.New(entryStore, sandbox, met, log)
	if err := ctrl.Start(ctx); err != nil {
		log.Fatal("controller start failed", zap.Error(err))
	}

	compactor := maintenance.NewCompactor(ctrl, log)
	compactor.Start()
	defer compactor.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "webshelf-backend",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WritesPerMin:   cfg.Server.WritesPerMin,
		AuthClient:     authClient,
		Ctrl:           ctrl,
		Sandbox:        sandbox,
		Met:            met,
		Log:            log,
		DB:             pool,
		Redis:          rdb,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}

	// The controller loop exits with the signal context; wait so the store
	// listener unsubscribes cleanly.
	select {
	case <-ctrl.Done():
	case <-time.After(5 * time.Second):
		log.Warn("controller did not stop in time")
	}
}
