package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"catalogo/api/internal/app"
	"catalogo/api/internal/catalog"
	"catalogo/api/internal/config"
	"catalogo/api/internal/counter"
	"catalogo/api/internal/credentials"
	"catalogo/api/internal/search"
	"catalogo/api/internal/upload"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		// A fresh secret per process keeps unsigned deployments working;
		// tokens do not survive a restart in that mode.
		cfg.JWTSecret = randomSecret()
		log.Printf("no CATALOGO_JWT_SECRET set, generated an ephemeral signing key")
	}

	users := credentials.NewService(credentials.NewStore())
	catalogStore := catalog.NewStore()

	var counters counter.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for access counters")
		redisStore, err := counter.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		counters = redisStore
	} else {
		log.Printf("Using file-backed access counters at %s", cfg.CountersFile)
		counters = counter.NewFileStore(cfg.CountersFile)
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	memoryEngine := search.NewMemory(func() []search.Record {
		all := catalogStore.All()
		records := make([]search.Record, len(all))
		for i, p := range all {
			records[i] = search.Record{
				ID:          p.ID,
				Name:        p.Name,
				Number:      p.Number,
				Description: p.Description,
			}
		}
		return records
	})
	searchService := search.NewService(meiliClient, memoryEngine)

	var uploads upload.Store
	if strings.TrimSpace(cfg.MinioURL) != "" {
		log.Printf("Using MinIO for uploads")
		minioStore, err := upload.NewMinioStore(cfg.MinioURL, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket)
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		uploads = minioStore
	} else {
		log.Printf("Using disk uploads at %s", cfg.UploadsDir)
		diskStore, err := upload.NewDiskStore(cfg.UploadsDir)
		if err != nil {
			log.Fatalf("failed to create uploads dir: %v", err)
		}
		uploads = diskStore
	}

	service := app.New(cfg, users, catalogStore, counters, searchService, uploads)
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Catalogo API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
