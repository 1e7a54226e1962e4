// Directory is the user directory service: it owns the users table and serves
// the existence-check and registration API the gateway consumes.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fitness-gateway/internal/config"
	"fitness-gateway/internal/db"
	"fitness-gateway/internal/directory/handler"
	"fitness-gateway/internal/directory/repository"
	"fitness-gateway/internal/directory/service"
	"fitness-gateway/internal/security"
	"fitness-gateway/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "fitness-directory", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	svc := service.New(repository.NewPostgresRepository(database), security.NewHasher(cfg.BcryptCost))

	srv := &http.Server{
		Addr:              cfg.DirectoryAddr,
		Handler:           otelhttp.NewHandler(handler.New(svc).Routes(), "directory"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("directory listening on %s", cfg.DirectoryAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down directory...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("directory stopped")
}
