package config

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port         string
	DatabasePath string // SQLite database file
	UploadDir    string // uploaded files + generated artifacts (PDFs, images)
	DataDir      string // knowledge.json + tips.json reference data

	// Language model provider (OpenAI-compatible API)
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Freepik image generation
	FreepikAPIKey string

	// Token signing. Regenerated at process start when not configured,
	// so issued tokens do not survive a restart.
	JWTSecret   string
	TokenExpiry time.Duration

	// Base URL used when building download/image links returned to clients
	PublicBaseURL string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	port := getEnv("PORT", "8001")

	return &Config{
		Port:         port,
		DatabasePath: getEnv("DATABASE_PATH", "./healthmate.db"),
		UploadDir:    getEnv("UPLOAD_DIR", "./uploads"),
		DataDir:      getEnv("DATA_DIR", "./data"),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o-mini"),

		FreepikAPIKey: getEnv("FREEPIK_API_KEY", ""),

		JWTSecret:   getEnv("JWT_SECRET", generateSecret()),
		TokenExpiry: time.Duration(getIntEnv("TOKEN_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://127.0.0.1:"+port),
	}
}

// generateSecret produces a per-process signing secret when JWT_SECRET is unset
func generateSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("❌ Failed to generate signing secret: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
