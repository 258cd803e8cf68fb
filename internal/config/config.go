package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	MongoURI       string
	PostgresURI    string
	RedisURI       string
	Port           string
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	AllowedHost    string   // production host check, e.g. api.focuspact.app
	Environment    string   // ENV: production, development, etc.

	// SharedSecret is the pre-shared key every participant holds (monitor
	// extension, app, backend). Signed commands are HMAC'd with it.
	SharedSecret string
	// CommandMaxAge bounds the replay window for signed commands.
	CommandMaxAge time.Duration

	// Device-side settings (agent binary).
	DataDir        string // shared app-group container path
	TraineeID      string
	SessionToken   string
	APIBaseURL     string // backend base, e.g. https://api.focuspact.app
	UsageEventPath string // JSONL file the OS usage tracker drops callbacks into
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{getEnv("FRONTEND_URL", "http://localhost:3000")}
	}

	maxAge := 5 * time.Minute
	if raw := os.Getenv("COMMAND_MAX_AGE"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			maxAge = parsed
		}
	}

	dataDir := getEnv("FOCUSPACT_DATA_DIR", "")
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = home + "/.focuspact"
		} else {
			dataDir = ".focuspact"
		}
	}

	return &Config{
		MongoURI:       getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/focuspact")),
		PostgresURI:    getEnv("POSTGRES_URI", "postgres://localhost:5432/focuspact?sslmode=disable"),
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,
		AllowedHost:    getEnv("ALLOWED_HOST", ""),
		Environment:    env,
		SharedSecret:   getEnv("PACT_SHARED_SECRET", "focuspact-dev-secret-change-in-production"),
		CommandMaxAge:  maxAge,
		DataDir:        dataDir,
		TraineeID:      getEnv("FOCUSPACT_UID", ""),
		SessionToken:   getEnv("FOCUSPACT_SESSION_TOKEN", ""),
		APIBaseURL:     getEnv("FOCUSPACT_API_URL", "http://localhost:8080"),
		UsageEventPath: getEnv("FOCUSPACT_USAGE_EVENTS", dataDir+"/usage-events.jsonl"),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
