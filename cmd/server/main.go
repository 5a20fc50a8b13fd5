package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tripbuddy/assist/internal/config"
	"github.com/tripbuddy/assist/internal/reply"
	"github.com/tripbuddy/assist/internal/routing"
	"github.com/tripbuddy/assist/internal/session"
	"github.com/tripbuddy/assist/internal/storage"
	"github.com/tripbuddy/assist/internal/transcribe"
	"github.com/tripbuddy/assist/internal/transport"
	"github.com/tripbuddy/assist/internal/voice"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("Starting TripBuddy Assist...")

	// Load configuration
	cfg := config.Load()
	log.Printf("Service: %s", cfg.ServiceName)
	log.Printf("Route backend: %s", cfg.RouteBackendURL)
	log.Printf("Storage backend: %s", cfg.StorageBackend)
	log.Printf("NATS URL: %s", cfg.NatsURL)

	// Initialize persistent store
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()
	log.Println("Storage ready")

	// Load sessions
	sessions, err := session.NewStore(context.Background(), store)
	if err != nil {
		log.Fatalf("Failed to load sessions: %v", err)
	}
	log.Printf("Loaded %d sessions, active: %s", len(sessions.List()), sessions.Active())

	// Initialize route planner and reply pipeline
	planner := routing.NewHTTPPlanner(cfg.RouteBackendURL, cfg.RouteTimeout)
	pipeline := reply.NewPipeline(sessions, planner)
	log.Println("Reply pipeline initialized")

	// Initialize NATS transport
	natsTransport, err := transport.NewNATSTransport(cfg, sessions, pipeline)
	if err != nil {
		log.Fatalf("Failed to initialize NATS transport: %v", err)
	}
	defer natsTransport.Close()

	// Enable voice when a transcription key is configured. The presentation
	// layer acts as the capture device over NATS.
	if cfg.DeepgramAPIKey != "" {
		transcriber := transcribe.NewHTTPTranscriber(
			cfg.DeepgramURL,
			cfg.DeepgramAPIKey,
			cfg.DeepgramModel,
			cfg.DeepgramLanguage,
			cfg.DeepgramTimeout,
		)
		voicePipeline, err := voice.NewPipeline(context.Background(), natsTransport.Device(), transcriber, planner, store)
		if err != nil {
			log.Fatalf("Failed to load voice pipeline: %v", err)
		}
		natsTransport.AttachVoice(voicePipeline)
		log.Println("Voice pipeline initialized")
	} else {
		log.Println("DEEPGRAM_API_KEY not set, voice disabled")
	}

	// Start listening for requests
	if err := natsTransport.Start(); err != nil {
		log.Fatalf("Failed to start NATS transport: %v", err)
	}

	log.Println("TripBuddy Assist is running...")
	log.Printf("Listening on subject prefix: %s", cfg.NatsSubjectPrefix)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Block until signal received
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down gracefully...")

	// Cleanup
	if err := natsTransport.Close(); err != nil {
		log.Printf("Error during cleanup: %v", err)
	}

	log.Println("TripBuddy Assist stopped")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		return storage.NewRedisStore(cfg.RedisURL, cfg.ServiceName, 0)
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSQLiteStore(cfg.SQLitePath)
	}
}
