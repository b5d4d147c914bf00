package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/breachchat/backend/internal/adapter/hibp"
	"github.com/breachchat/backend/internal/adapter/llm"
	"github.com/breachchat/backend/internal/config"
	"github.com/breachchat/backend/internal/store"
	transport "github.com/breachchat/backend/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting breachchat backend...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Chat completion URL: %s", cfg.OpenAIURL)
	log.Printf("Breach database URL: %s", cfg.HIBPURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize upstream clients
	breachClient := hibp.NewClient(cfg.HIBPURL, cfg.HIBPAPIKey)
	llmClient := llm.NewStreamClient(cfg.OpenAIURL, cfg.OpenAIAPIKey, cfg.LLMTimeout)

	// Create server
	server := transport.NewServer(breachClient, llmClient, db)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down backend...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Backend stopped")
}
