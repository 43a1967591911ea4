package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries everything the server needs at startup. Load fails fast on
// missing required values; everything optional has a usable default.
type Config struct {
	Port string

	PostgresURI string
	RedisAddr   string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	VertexProjectID string
	VertexLocation  string
	TextModel       string

	TTSVoice      string
	TTSSampleRate int

	AudioDir  string
	GCSBucket string

	PurgeAfterHours int
}

func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		PostgresURI: os.Getenv("POSTGRES_URI"),
		RedisAddr:   firstenv("REDIS_ADDR", "REDIS_URL"),

		JWTSecret:   os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:   os.Getenv("AUTH_JWT_ISSUER"),
		JWTAudience: os.Getenv("AUTH_JWT_AUDIENCE"),

		VertexProjectID: os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:  getenv("VERTEX_LOCATION", "us-central1"),
		TextModel:       getenv("TEXT_MODEL", "gemini-1.5-flash"),

		TTSVoice:      getenv("TTS_VOICE", "Kore"),
		TTSSampleRate: getint("TTS_SAMPLE_RATE", 24000),

		AudioDir:  getenv("AUDIO_DIR", "audio_files"),
		GCSBucket: os.Getenv("GCS_BUCKET"),

		PurgeAfterHours: getint("PURGE_AFTER_HOURS", 72),
	}

	if cfg.PostgresURI == "" {
		return cfg, fmt.Errorf("POSTGRES_URI is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	if cfg.VertexProjectID == "" {
		return cfg, fmt.Errorf("VERTEX_PROJECT_ID is required")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstenv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
