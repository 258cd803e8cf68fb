package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/joho/godotenv"

	"github.com/focuspact/focuspact/internal/config"
	"github.com/focuspact/focuspact/internal/database"
	"github.com/focuspact/focuspact/internal/handlers"
	"github.com/focuspact/focuspact/internal/middleware"
	"github.com/focuspact/focuspact/internal/relationship"
	"github.com/focuspact/focuspact/internal/routes"
	"github.com/focuspact/focuspact/internal/services"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	if cfg.SharedSecret == "focuspact-dev-secret-change-in-production" && cfg.IsProduction() {
		log.Fatal("PACT_SHARED_SECRET must be set in production")
	}

	// Connect to PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Log connection attempt (without showing password)
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" {
		maskedURI := cfg.MongoURI
		if strings.Contains(maskedURI, "@") {
			parts := strings.Split(maskedURI, "@")
			if len(parts) > 0 && strings.Contains(parts[0], ":") {
				userPass := strings.Split(parts[0], ":")
				if len(userPass) >= 3 {
					maskedURI = strings.Replace(maskedURI, userPass[2], "***", 1)
				}
			}
		}
		log.Printf("MongoDB URI: %s", maskedURI)
	}

	// Connect to MongoDB
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Ensure MongoDB indexes for relationships
	store := relationship.NewMongoStore(database.DB)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Wire the handler set
	handlers.Configure(cfg.SharedSecret, cfg.CommandMaxAge, relationship.New(store))

	// Start the Redis status subscriber feeding the WebSocket fan-out
	services.StartRedisStatusSubscriber(context.Background())

	// Start violation cleanup service
	// Cleans up violations older than 6 hours, runs every hour
	services.StartViolationCleanup(1, 6)
	log.Println("✅ Violation cleanup service started (removes violations older than 6 hours)")

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + login rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/auth/signup")
	log.Println("  POST /api/auth/signin")
	log.Println("  POST /api/auth/signout")
	log.Println("  GET  /api/auth/me")
	log.Println("  POST /api/status")
	log.Println("  GET  /api/status")
	log.Println("  GET  /api/unlock")
	log.Println("  GET  /api/settings")
	log.Println("  PUT  /api/settings")
	log.Println("  PATCH /api/settings")
	log.Println("  POST /api/friends")
	log.Println("  GET  /api/friends")
	log.Println("  POST /api/roles")
	log.Println("  GET  /api/roles")
	log.Println("  GET  /api/relationship/state")
	log.Println("  GET  /ws/status")

	log.Printf("🚀 FocusPact backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
