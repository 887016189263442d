package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/jobportal/internal/bootstrap"
	"anoa.com/jobportal/internal/config"
	"anoa.com/jobportal/internal/server"
	"anoa.com/jobportal/pkg/database"
	"anoa.com/jobportal/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.Connect(database.Options{
		Driver:      cfg.DBDriver,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.DBPath,
	})
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(db, bootstrap.AdminSeed{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		}); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	fileStorage, err := newFileStorage(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	redisClient := newRedisClient(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := server.NewServer(cfg, server.Deps{
		DB:          db,
		Redis:       redisClient,
		Meili:       newMeiliClient(cfg),
		FileStorage: fileStorage,
	})

	go func() {
		log.Printf("🚀 Job portal listening on :%s", cfg.Port)
		if err := srv.Run(":" + cfg.Port); err != nil {
			log.Fatalf("server exited with error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Printf("⚠️ Shutdown error: %v", err)
	}
	log.Println("👋 Server stopped")
}

func newFileStorage(cfg *config.Config) (storage.FileStorage, error) {
	if cfg.StorageDriver == "cloudinary" {
		return storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			URL:        cfg.CloudinaryURL,
			CloudName:  cfg.CloudinaryCloudName,
			APIKey:     cfg.CloudinaryAPIKey,
			APISecret:  cfg.CloudinaryAPISecret,
			RootFolder: cfg.CloudinaryUploadFolder,
		})
	}
	return storage.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
}

// Redis is optional; cooldowns, view counting and live notifications are
// disabled when it is missing or unreachable.
func newRedisClient(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Println("⚠️ REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("⚠️ Invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Redis unreachable, running without it: %v", err)
		client.Close()
		return nil
	}
	return client
}

func newMeiliClient(cfg *config.Config) meilisearch.ServiceManager {
	host := cfg.MeiliSearchHost
	if host == "" {
		log.Println("⚠️ MEILISEARCH_HOST not set, search indexing disabled")
		return nil
	}
	if !strings.HasPrefix(host, "http") {
		host = "http://" + host + ":7700"
	}
	return meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
}
