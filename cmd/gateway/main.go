// Gateway is the edge HTTP server: it authenticates bearer tokens, keeps the
// user directory in sync with token identities, and proxies to the upstream
// services configured in ROUTES.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitness-gateway/internal/audit"
	"fitness-gateway/internal/audit/producer"
	"fitness-gateway/internal/config"
	"fitness-gateway/internal/directory/client"
	"fitness-gateway/internal/proxy"
	"fitness-gateway/internal/security"
	"fitness-gateway/internal/server"
	"fitness-gateway/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "fitness-gateway", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	verifier := security.NewVerifier(publicKey, cfg.JWTIssuer, cfg.JWTAudience)

	routeTable, err := cfg.RouteTable()
	if err != nil {
		log.Fatalf("ROUTES: %v", err)
	}
	router, err := proxy.New(routeTable)
	if err != nil {
		log.Fatalf("ROUTES: %v", err)
	}

	directory := client.New(cfg.UserDirectoryURL, cfg.DirectoryTimeout())

	var emitter audit.EventEmitter
	if brokers := cfg.AuditKafkaBrokersList(); len(brokers) > 0 {
		kp := producer.NewKafkaProducer(brokers, cfg.AuditKafkaTopic)
		defer kp.Close()
		emitter = kp
		log.Printf("audit: emitting to kafka topic %s", cfg.AuditKafkaTopic)
	}

	srv := server.New(server.Options{
		Addr:           cfg.GatewayAddr,
		Verifier:       verifier,
		Directory:      directory,
		Emitter:        emitter,
		Router:         router,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	go func() {
		log.Printf("gateway listening on %s", cfg.GatewayAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down gateway...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Give in-flight async audit emits a chance to finish.
	time.Sleep(audit.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("gateway stopped")
}
