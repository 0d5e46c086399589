package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr         string
	JWTSecret    string
	AccessTTL    time.Duration
	CountersFile string
	UploadsDir   string
	CORSOrigin   string
	SeedAdmin    string
	SeedPassword string
	// Redis Configuration (optional counter backend)
	RedisURL string
	// Meilisearch Configuration (optional search backend)
	MeiliURL       string
	MeiliMasterKey string
	// MinIO Configuration (optional upload backend)
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
}

func Load() Config {
	return Config{
		Addr:         getenv("API_ADDR", ":5000"),
		JWTSecret:    getenv("CATALOGO_JWT_SECRET", ""),
		AccessTTL:    time.Duration(getenvInt("CATALOGO_ACCESS_TTL_SECONDS", 3600)) * time.Second,
		CountersFile: getenv("CATALOGO_COUNTERS_FILE", "./data/acessos.json"),
		UploadsDir:   getenv("CATALOGO_UPLOADS_DIR", "./data/uploads"),
		CORSOrigin:   getenv("CATALOGO_CORS_ORIGIN", "*"),
		SeedAdmin:    getenv("CATALOGO_SEED_ADMIN", ""),
		SeedPassword: getenv("CATALOGO_SEED_PASSWORD", ""),
		// Redis - empty by default, file-backed counters if not configured
		RedisURL: getenv("REDIS_URL", ""),
		// Meilisearch - empty by default, in-memory search if not configured
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		// MinIO - empty by default, disk uploads if not configured
		MinioURL:       getenv("MINIO_URL", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "catalogo-uploads"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
