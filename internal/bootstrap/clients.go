package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/option"

	"github.com/webshelf-app/webshelf-backend/config"
)

// NewLogger builds the process logger from app config.
func NewLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Environment != "production" {
		zcfg = zap.NewDevelopmentConfig()
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return zcfg.Build()
}

// OpenRedis connects and pings the redis instance holding viewer sessions.
func OpenRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// OpenFirestore connects the Firestore client used by the production store
// backend.
func OpenFirestore(ctx context.Context, storeCfg *config.StoreConfig, fbCfg *config.FirebaseConfig) (*firestore.Client, error) {
	opts := []option.ClientOption{}
	if fbCfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(fbCfg.CredentialsPath))
	}

	client, err := firestore.NewClient(ctx, storeCfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore connect: %w", err)
	}
	return client, nil
}
