package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppName     string
	BaseURL     string // Origin used when minting invite links
	SyncURL     string // Collaborative sync endpoint advertised to clients

	// Sharing policy
	AllowWriterInvites bool // Writers may mint reader/writeOnly invites for their own group
	InviteTTLHours     int

	// Discussion guards
	MaxCommentDepth int

	// Housekeeping
	PresenceCompactCron string
	PurgeRetentionDays  int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "locality"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppName:     getEnv("APP_NAME", "Locality"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		SyncURL:     getEnv("SYNC_URL", "wss://sync.locality.dev"),

		AllowWriterInvites: getEnv("ALLOW_WRITER_INVITES", "true") == "true",
		InviteTTLHours:     getEnvInt("INVITE_TTL_HOURS", 168),

		MaxCommentDepth: getEnvInt("MAX_COMMENT_DEPTH", 64),

		PresenceCompactCron: getEnv("PRESENCE_COMPACT_CRON", "@hourly"),
		PurgeRetentionDays:  getEnvInt("PURGE_RETENTION_DAYS", 30),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
