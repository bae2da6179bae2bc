package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	PostgresURI    string
	RedisURI       string
	FrontendURL    string
	R2             R2
	SecretKey      string
	CronSecret     string
	CookieName     string
	MediaBaseURL   string
	MediaDir       string
	BatchSize      int
	GoogleClientID string
	GoogleSecret   string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:      getEnv("SECRET_KEY", ""),
		CronSecret:     getEnv("CRON_SECRET", ""),
		CookieName:     getEnv("COOKIE_NAME", ""),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", ""),
		MediaDir:       getEnv("MEDIA_DIR", "media"),
		BatchSize:      getEnvInt("BATCH_SIZE", 50),
		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
