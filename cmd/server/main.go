package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/markolybrx/Celi-AI/internal/ai"
	"github.com/markolybrx/Celi-AI/internal/config"
	"github.com/markolybrx/Celi-AI/internal/database"
	"github.com/markolybrx/Celi-AI/internal/handlers"
	"github.com/markolybrx/Celi-AI/internal/memory"
	"github.com/markolybrx/Celi-AI/internal/middleware"
	"github.com/markolybrx/Celi-AI/internal/pipeline"
	"github.com/markolybrx/Celi-AI/internal/rank"
	"github.com/markolybrx/Celi-AI/internal/routes"
	"github.com/markolybrx/Celi-AI/internal/services"
	"github.com/markolybrx/Celi-AI/internal/store"
	"github.com/markolybrx/Celi-AI/internal/tasks"
)

// offlineInvoker stands in when no Gemini key is configured. Every call
// fails, so replies degrade to the canned signal-lost text instead of
// the server refusing to boot.
type offlineInvoker struct{}

func (offlineInvoker) Generate(ctx context.Context, model string, req ai.Request) (string, error) {
	return "", errors.New("ai offline: GEMINI_API_KEY not set")
}

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Connect to Redis. A failure doesn't kill the process: the server
	// boots in a degraded mode that answers 503 until the next restart.
	online := true
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Printf("❌ Failed to connect to Redis: %v", err)
		online = false
	} else {
		defer database.DisconnectRedis()
	}

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
		log.Printf("❌ Failed to connect to MongoDB: %v", err)
		online = false
	} else {
		defer database.Disconnect()
	}

	// With either datastore down, none of the stores can be built. Serve
	// a minimal router that reports the outage instead of exiting.
	if !online {
		r := chi.NewRouter()
		r.Use(middleware.CORS(cfg.AllowedOrigins))
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database Offline"))
		})
		r.NotFound(handlers.DatabaseOffline)
		log.Printf("🚀 Celi backend running on :%s (degraded: database offline)", cfg.Port)
		if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
			log.Fatal("Failed to start server:", err)
		}
		return
	}

	// Stores + indexes
	users := store.NewUsers(database.DB)
	history := store.NewHistory(database.DB)
	media := store.NewMedia(database.GridFS)

	if err := users.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure user indexes: %v", err)
	}
	if err := history.EnsureIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure history indexes: %v", err)
	} else {
		log.Println("✅ MongoDB indexes ensured")
	}

	// Gemini client. Warn if the key is missing, but don't fail: the
	// journaling loop keeps working with degraded replies.
	var invoker ai.Invoker = offlineInvoker{}
	var catalog ai.CatalogFunc = func(ctx context.Context) ([]string, error) {
		return nil, errors.New("ai offline")
	}
	var recaller pipeline.Recaller
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  WARNING: GEMINI_API_KEY not set. Replies will be degraded and memory recall disabled.")
	} else {
		client, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("⚠️  WARNING: failed to initialize Gemini client: %v", err)
		} else {
			invoker = client
			catalog = client.ListGenerativeModels
			recaller = memory.NewRecall(client.EmbedQuery, history)
			log.Println("✅ Gemini client initialized")
		}
	}
	generator := ai.NewGenerator(invoker, ai.NewResolver(catalog))

	// Initialize Cloudinary service for avatars
	var cloudinarySvc *services.CloudinaryService
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinarySvc, err = services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v", err)
			log.Println("Avatar uploads will not be available")
		} else {
			log.Println("✅ Cloudinary service initialized")
		}
	} else {
		log.Println("Warning: Cloudinary credentials not found. Avatar uploads will not be available")
	}

	// Progression engine + task queue + pipeline
	engine := rank.NewEngine(users, history)
	queue := tasks.NewQueue(database.RedisClient)
	pipe := &pipeline.Pipeline{
		History:   history,
		Media:     media,
		Recall:    recaller,
		Generator: generator,
		Rewards:   engine,
		Queue:     queue,
	}

	handlers.Init(handlers.Deps{
		Users:      users,
		History:    history,
		Media:      media,
		Pipeline:   pipe,
		Queue:      queue,
		Cache:      &services.CacheService{},
		Cloudinary: cloudinarySvc,
	})

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
		log.Println("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
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
	log.Println("  POST /api/register")
	log.Println("  POST /api/login")
	log.Println("  POST /api/logout")
	log.Println("  GET  /api/me")
	log.Println("  POST /api/entries")
	log.Println("  GET  /api/history")
	log.Println("  GET  /api/history/{timestamp}")
	log.Println("  GET  /api/media/{id}")
	log.Println("  GET  /api/profile")
	log.Println("  PUT  /api/profile")
	log.Println("  POST /api/profile/avatar")
	log.Println("  GET  /api/ranks")
	log.Println("  GET  /api/insight")
	log.Println("  GET  /api/trivia")
	log.Println("  POST /api/account/clear")

	log.Printf("🚀 Celi backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
