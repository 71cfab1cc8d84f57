package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/donorlink/donorlink/internal/config"
	"github.com/donorlink/donorlink/internal/db"
	"github.com/donorlink/donorlink/internal/events"
	"github.com/donorlink/donorlink/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	if migrateOnlyFlag != nil && *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}

	// Embedded event bus. A startup failure degrades to a no-op publisher so
	// matching and transitions still work without notifications.
	var pub events.Publisher = events.Noop{}
	bus, busErr := events.Start(cfg.NATSPort)
	if busErr != nil {
		log.Printf("event bus disabled: %v", busErr)
	} else {
		defer bus.Close()
		pub = bus
		notifier := events.NewNotifier(dbConn)
		if err := notifier.Start(bus); err != nil {
			log.Printf("notifier failed to start: %v", err)
		} else {
			defer notifier.Stop()
		}
	}

	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: server.New(dbConn, pub)}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
