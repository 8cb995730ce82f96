package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/markolybrx/Celi-AI/internal/ai"
	"github.com/markolybrx/Celi-AI/internal/config"
	"github.com/markolybrx/Celi-AI/internal/database"
	"github.com/markolybrx/Celi-AI/internal/store"
	"github.com/markolybrx/Celi-AI/internal/tasks"
)

// The worker drains the Redis task queue and runs deferred enrichment:
// embeddings, analysis, summaries, constellation names, weekly insight
// and daily trivia. It shares the stores with the server and never
// touches HTTP.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	users := store.NewUsers(database.DB)
	history := store.NewHistory(database.DB)

	enricher := &tasks.Enricher{
		History: history,
		Users:   users,
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("⚠️  WARNING: GEMINI_API_KEY not set. Enrichment will apply fallback text only.")
	} else {
		client, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Printf("⚠️  WARNING: failed to initialize Gemini client: %v", err)
		} else {
			enricher.Invoker = client
			enricher.Embed = client.EmbedDocument
			log.Println("✅ Gemini client initialized")
		}
	}

	worker := tasks.NewWorker(database.RedisClient)
	enricher.RegisterAll(worker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("🚀 Celi worker draining task queue")
	worker.Run(ctx)
	log.Println("Worker stopped")
}
