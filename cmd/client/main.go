package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"Murmur/internal/configuration"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	container, err := configuration.BuildContainer(*configPath)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := container.Store.FetchConversations(ctx); err != nil {
		log.Printf("Initial conversation fetch failed: %v", err)
	}
	cancel()

	container.Transport.Connect()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Printf("Received signal: %v. Shutting down...", sig)
	snapshot := container.Monitor.Snapshot()
	log.Printf("Final state: %s (%d conversations, %d unread)",
		snapshot.Status, snapshot.Sync.Conversations, snapshot.Sync.TotalUnread)
}
